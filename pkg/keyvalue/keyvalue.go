package keyvalue

import (
	"fmt"
	"math"
)

// Template renders the candidate key for the n-th entry.
type Template func(n int) string

// PatternTemplate builds a Template from a fmt pattern holding one %d verb.
func PatternTemplate(pattern string) Template {
	return func(n int) string {
		return fmt.Sprintf(pattern, n)
	}
}

// NextKey returns template(n) for the smallest positive n whose key is not
// already present in existing.
func NextKey[V any](existing map[string]V, template Template) string {
	if template == nil {
		template = PatternTemplate("key%d")
	}
	for n := 1; n < math.MaxInt32; n++ {
		key := template(n)
		if _, taken := existing[key]; !taken {
			return key
		}
	}
	return ""
}

// Compact returns a copy of obj without the empty key, which editors use for
// a row whose key has not been typed yet.
func Compact[V any](obj map[string]V) map[string]V {
	out := make(map[string]V, len(obj))
	for k, v := range obj {
		if k == "" {
			continue
		}
		out[k] = v
	}
	return out
}
