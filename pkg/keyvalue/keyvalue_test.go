package keyvalue

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextKeyPicksSmallestFreeIndex(t *testing.T) {
	tmpl := PatternTemplate("Item %d")

	assert.Equal(t, "Item 1", NextKey(map[string]any{}, tmpl))
	assert.Equal(t, "Item 1", NextKey(map[string]any{"Item 2": 1, "other": 2}, tmpl))
	assert.Equal(t, "Item 3", NextKey(map[string]int{"Item 1": 1, "Item 2": 2, "Item 4": 4}, tmpl))
	assert.Equal(t, "key1", NextKey[string](nil, nil))
}

func TestCompactDropsEmptyKey(t *testing.T) {
	in := map[string]string{"": "draft", "a": "1"}
	out := Compact(in)

	assert.Equal(t, map[string]string{"a": "1"}, out)
	assert.Len(t, in, 2)
}
