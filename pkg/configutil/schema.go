package configutil

import (
	"fmt"
	"sort"
	"strings"
)

// Schema lists the keys an embed adapter accepts in its settings map.
// Required keys must be present and non-blank; anything outside the schema
// is rejected so a typoed key fails at load instead of silently decoding to
// a zero value.
type Schema struct {
	Required []string
	Optional []string
}

// ValidateSettings checks a settings map against a schema before decoding.
// Keys match case and separator insensitively, like DecodeSettings.
func ValidateSettings(input map[string]any, schema Schema) error {
	required := make(map[string]string, len(schema.Required))
	allowed := make(map[string]struct{}, len(schema.Required)+len(schema.Optional))
	for _, k := range schema.Required {
		required[normalizeKey(k)] = k
		allowed[normalizeKey(k)] = struct{}{}
	}
	for _, k := range schema.Optional {
		allowed[normalizeKey(k)] = struct{}{}
	}

	var missing, unknown []string
	for k, v := range input {
		nk := normalizeKey(k)
		if _, ok := allowed[nk]; !ok {
			unknown = append(unknown, k)
			continue
		}
		if name, ok := required[nk]; ok {
			delete(required, nk)
			if blank(v) {
				missing = append(missing, name)
			}
		}
	}
	for _, name := range required {
		missing = append(missing, name)
	}

	if len(missing) == 0 && len(unknown) == 0 {
		return nil
	}
	sort.Strings(missing)
	sort.Strings(unknown)
	switch {
	case len(unknown) == 0:
		return fmt.Errorf("missing settings: %s", strings.Join(missing, ", "))
	case len(missing) == 0:
		return fmt.Errorf("unknown settings: %s", strings.Join(unknown, ", "))
	default:
		return fmt.Errorf("missing settings: %s; unknown settings: %s",
			strings.Join(missing, ", "), strings.Join(unknown, ", "))
	}
}

func blank(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}
