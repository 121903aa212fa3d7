// Package attrs normalizes the free-form attribute payload that privileged
// principals may attach to a tender.
//
// The payload is caller controlled. Anything that is not a list of
// {"key": "...", "value": "..."} objects with non-empty string fields is
// dropped, never rejected.
package attrs

import (
	"encoding/json"
	"strings"

	"github.com/dalemusser/tenderhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/tenderhub/internal/domain/models"
	"go.uber.org/zap"
)

// Parse decodes a JSON attribute payload (the multipart "attributes" field)
// and normalizes it. Blank input or invalid JSON yields an empty set.
func Parse(raw string, log *zap.Logger) []models.Attribute {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []models.Attribute{}
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		log.Debug("attributes payload is not valid JSON; ignoring", zap.Error(err))
		return []models.Attribute{}
	}
	return Normalize(v, log)
}

// Normalize turns a decoded payload into a set of attributes. Keys are
// unique within the result; the first occurrence of a key wins.
func Normalize(v any, log *zap.Logger) []models.Attribute {
	list, ok := v.([]any)
	if !ok {
		if v != nil {
			log.Debug("attributes payload is not a list; ignoring")
		}
		return []models.Attribute{}
	}

	out := make([]models.Attribute, 0, len(list))
	seen := make(map[string]struct{}, len(list))
	for i, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			log.Debug("dropping attribute: not an object", zap.Int("index", i))
			continue
		}
		key, kok := nonEmptyString(obj["key"])
		value, vok := nonEmptyString(obj["value"])
		if !kok || !vok {
			log.Debug("dropping attribute: key and value must be non-empty strings", zap.Int("index", i))
			continue
		}
		if _, dup := seen[key]; dup {
			log.Debug("dropping attribute: duplicate key", zap.Int("index", i), zap.String("key", key))
			continue
		}
		seen[key] = struct{}{}
		out = append(out, models.Attribute{Key: key, Value: value})
	}
	return out
}

func nonEmptyString(v any) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = htmlsanitize.PlainText(s)
	return s, s != ""
}
