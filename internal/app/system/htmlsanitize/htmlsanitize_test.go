package htmlsanitize_test

import (
	"testing"

	"github.com/dalemusser/tenderhub/internal/app/system/htmlsanitize"
)

func TestPlainText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"whitespace", "   ", ""},
		{"plain", "Road works", "Road works"},
		{"trimmed", "  Acme  ", "Acme"},
		{"ampersand kept", "AT&T", "AT&T"},
		{"bold stripped", "<b>Acme</b> Ltd", "Acme Ltd"},
		{"script removed", "Hello<script>alert('x')</script>", "Hello"},
		{"attributes removed", `<a href="javascript:alert(1)">link</a>`, "link"},
		{"entity in markup", "<i>Fish &amp; Chips</i>", "Fish & Chips"},
		{"apostrophe in markup", "<i>O'Brien</i>", "O'Brien"},
		{"escaped script stays escaped", "<b>x</b>&lt;script&gt;alert(1)&lt;/script&gt;", "x&lt;script&gt;alert(1)&lt;/script&gt;"},
		{"escaped bracket stays escaped", "<p>1 &lt; 2</p>", "1 &lt; 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := htmlsanitize.PlainText(tt.in); got != tt.want {
				t.Errorf("PlainText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
