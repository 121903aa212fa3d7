package uploads

import (
	"mime"
	"strings"
)

// DefaultMaxFileSize is the per-file upload limit (5 MiB).
const DefaultMaxFileSize = 5 << 20

// DefaultMaxFiles caps the number of documents accepted in one request.
const DefaultMaxFiles = 10

// DefaultAllowedTypes are the MIME types accepted for tender documents.
var DefaultAllowedTypes = []string{
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/vnd.ms-excel",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"image/jpeg",
	"image/png",
	"text/plain",
}

// Limits constrains a batch before anything is stored.
type Limits struct {
	MaxFileSize  int64
	MaxFiles     int
	AllowedTypes []string
}

// DefaultLimits returns the limits used when configuration leaves them unset.
func DefaultLimits() Limits {
	return Limits{
		MaxFileSize:  DefaultMaxFileSize,
		MaxFiles:     DefaultMaxFiles,
		AllowedTypes: append([]string(nil), DefaultAllowedTypes...),
	}
}

// ParseAllowedTypes splits a comma-separated MIME list. Blank input returns
// the defaults.
func ParseAllowedTypes(csv string) []string {
	var out []string
	for _, part := range strings.Split(csv, ",") {
		if t := NormalizeMIME(part); t != "" {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), DefaultAllowedTypes...)
	}
	return out
}

// NormalizeMIME lowercases a media type and drops its parameters.
func NormalizeMIME(t string) string {
	t = strings.TrimSpace(t)
	if t == "" {
		return ""
	}
	if mt, _, err := mime.ParseMediaType(t); err == nil {
		return mt
	}
	return strings.ToLower(t)
}
