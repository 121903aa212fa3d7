// Package timeouts holds the deadlines applied with context.WithTimeout in
// handlers and background work.
//
// Values start at the defaults below and may be overridden once at startup
// with Configure.
//
//   - Ping: health checks
//   - Short: single-document reads and writes
//   - Medium: list queries and multi-step writes
//   - Upload: a whole create/update request including its storage calls
//   - Cleanup: compensation, release, and orphan sweeps
package timeouts

import (
	"sync"
	"time"
)

const (
	DefaultPing    = 2 * time.Second
	DefaultShort   = 5 * time.Second
	DefaultMedium  = 10 * time.Second
	DefaultUpload  = 2 * time.Minute
	DefaultCleanup = 30 * time.Second
)

// Config holds timeout values. Zero fields keep the current value.
type Config struct {
	Ping    time.Duration
	Short   time.Duration
	Medium  time.Duration
	Upload  time.Duration
	Cleanup time.Duration
}

func defaults() Config {
	return Config{
		Ping:    DefaultPing,
		Short:   DefaultShort,
		Medium:  DefaultMedium,
		Upload:  DefaultUpload,
		Cleanup: DefaultCleanup,
	}
}

var (
	mu  sync.RWMutex
	cur = defaults()
)

func Ping() time.Duration    { return get(func(c Config) time.Duration { return c.Ping }) }
func Short() time.Duration   { return get(func(c Config) time.Duration { return c.Short }) }
func Medium() time.Duration  { return get(func(c Config) time.Duration { return c.Medium }) }
func Upload() time.Duration  { return get(func(c Config) time.Duration { return c.Upload }) }
func Cleanup() time.Duration { return get(func(c Config) time.Duration { return c.Cleanup }) }

func get(f func(Config) time.Duration) time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return f(cur)
}

// Configure overrides the non-zero fields of cfg.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	if cfg.Ping > 0 {
		cur.Ping = cfg.Ping
	}
	if cfg.Short > 0 {
		cur.Short = cfg.Short
	}
	if cfg.Medium > 0 {
		cur.Medium = cfg.Medium
	}
	if cfg.Upload > 0 {
		cur.Upload = cfg.Upload
	}
	if cfg.Cleanup > 0 {
		cur.Cleanup = cfg.Cleanup
	}
}

// Reset restores the defaults. Used by tests.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	cur = defaults()
}

// Current returns the effective configuration.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return cur
}
