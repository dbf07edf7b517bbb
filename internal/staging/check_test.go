package staging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/unicode/norm"
)

func TestNormalizeItemCanonicalizesNames(t *testing.T) {
	// Decomposed e + combining acute vs the precomposed form.
	decomposed := "cafe\u0301"
	precomposed := "caf\u00e9"
	item := Item{"name": decomposed, "description": decomposed}
	normalizeItem(item)
	assert.Equal(t, precomposed, item["name"])
	assert.Equal(t, norm.NFC.String(decomposed), item["name"])
	// Only names are normalized.
	assert.Equal(t, decomposed, item["description"])
}

func TestAsID(t *testing.T) {
	for _, v := range []any{int64(7), int(7), int32(7)} {
		id, ok := asID(v)
		assert.True(t, ok)
		assert.Equal(t, int64(7), id)
	}
	_, ok := asID("7")
	assert.False(t, ok)
	_, ok = asID(nil)
	assert.False(t, ok)
}
