package id

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_UniqueAndSorted(t *testing.T) {
	const n = 1000

	ids := make([]string, n)
	seen := make(map[string]bool, n)
	for i := range ids {
		ids[i] = New()
		assert.Len(t, ids[i], 26)
		assert.False(t, seen[ids[i]], "duplicate id %s", ids[i])
		seen[ids[i]] = true
	}

	assert.True(t, sort.StringsAreSorted(ids), "ids must sort in generation order")
}
