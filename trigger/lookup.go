package trigger

import (
	"strings"

	"github.com/venturekit/intakeflow/internal/util"
)

// LookupEntry is one key/value pair of a lookup table. Entries keep their
// file order because the substring fallback scans in table-iteration order.
type LookupEntry struct {
	Key   string `yaml:"key"`
	Value any    `yaml:"value"`
}

// LookupTable resolves an answer to a derived value.
type LookupTable struct {
	ID      string        `yaml:"id"`
	Entries []LookupEntry `yaml:"entries"`
}

// Resolve implements the two-step lookup order: an exact match on the raw
// answer first, then a case-insensitive substring scan of the answer
// against each key, returning the first hit. The exact branch keys on the
// scalar answer identity, so multi-select (slice) answers can only ever
// resolve through the substring scan; the two-step order is a preserved
// behavior of the intake rules and must not be reordered.
func (t LookupTable) Resolve(answer any) (any, bool) {
	raw := util.Stringify(answer)

	if !isSlice(answer) {
		for _, e := range t.Entries {
			if e.Key == raw {
				return e.Value, true
			}
		}
	}

	lowered := strings.ToLower(raw)
	for _, e := range t.Entries {
		key := strings.ToLower(e.Key)
		if key != "" && strings.Contains(lowered, key) {
			return e.Value, true
		}
	}

	return nil, false
}

func isSlice(v any) bool {
	switch v.(type) {
	case []any, []string:
		return true
	default:
		return false
	}
}
