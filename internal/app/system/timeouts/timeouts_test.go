package timeouts

import (
	"testing"
	"time"
)

func TestConfigure_KeepsZeroFields(t *testing.T) {
	t.Cleanup(Reset)

	Configure(Config{Upload: 5 * time.Minute})

	if got := Upload(); got != 5*time.Minute {
		t.Errorf("Upload() = %v, want 5m", got)
	}
	if got := Short(); got != DefaultShort {
		t.Errorf("Short() = %v, want default %v", got, DefaultShort)
	}
}

func TestReset(t *testing.T) {
	Configure(Config{Ping: time.Minute, Cleanup: time.Hour})
	Reset()
	if Current() != defaults() {
		t.Errorf("Current() = %+v after Reset", Current())
	}
}
