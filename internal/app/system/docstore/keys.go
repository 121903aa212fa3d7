package docstore

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewKey generates a unique storage key: tenders/YYYY/MM/<uuid8>-<filename>.
func NewKey(filename string, now time.Time) string {
	dateDir := fmt.Sprintf("tenders/%04d/%02d", now.Year(), now.Month())
	return path.Join(dateDir, uuid.New().String()[:8]+"-"+SanitizeFilename(filename))
}

// SanitizeFilename reduces a client-supplied file name to a safe key segment.
func SanitizeFilename(filename string) string {
	// Clients on Windows send backslash paths.
	filename = filepath.Base(strings.ReplaceAll(filename, `\`, "/"))
	if filename == "." || filename == "/" {
		filename = ""
	}

	result := make([]byte, 0, len(filename))
	for i := 0; i < len(filename); i++ {
		c := filename[i]
		if isAllowedFilenameChar(c) {
			result = append(result, c)
		} else {
			result = append(result, '_')
		}
	}

	if len(result) == 0 {
		return "file"
	}
	if len(result) > 100 {
		// Truncate but preserve extension if present
		ext := filepath.Ext(string(result))
		if len(ext) > 0 && len(ext) < 10 {
			result = append(result[:100-len(ext)], ext...)
		} else {
			result = result[:100]
		}
	}
	return string(result)
}

func isAllowedFilenameChar(c byte) bool {
	return (c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') ||
		c == '-' || c == '_' || c == '.'
}
