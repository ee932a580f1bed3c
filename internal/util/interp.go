package util

import (
	"fmt"
	"regexp"
	"strings"
)

var placeholderRe = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_.]+)\s*\}\}`)

// Interpolate replaces {{field}} tokens in text with the stringified value
// of the matching key in values. A token whose field is absent is left in
// the output as a literal placeholder; callers that want to detect this can
// scan the result for remaining markers. This keeps partially resolvable
// templates usable instead of failing the whole render.
func Interpolate(text string, values map[string]any) string {
	if !strings.Contains(text, "{{") { // fast path: no template markers
		return text
	}

	return placeholderRe.ReplaceAllStringFunc(text, func(token string) string {
		field := placeholderRe.FindStringSubmatch(token)[1]
		value, ok := values[field]
		if !ok {
			return token
		}
		return Stringify(value)
	})
}

// Stringify renders an answer value for prompt embedding. Slices become
// comma separated lists, floats drop a trailing ".0" so whole numbers read
// naturally, everything else falls back to fmt.
func Stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case []string:
		return strings.Join(v, ", ")
	case []any:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = Stringify(item)
		}
		return strings.Join(parts, ", ")
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%g", v)
	case float32:
		return Stringify(float64(v))
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}
