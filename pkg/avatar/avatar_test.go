package avatar

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSVGDeterministic(t *testing.T) {
	for _, seed := range Seeds {
		a := SVG(seed)
		b := SVG(seed)
		require.Equal(t, a, b, seed)
		assert.True(t, bytes.HasPrefix(a, []byte("<svg")), seed)
		assert.True(t, bytes.HasSuffix(a, []byte("</svg>")), seed)
	}
}

func TestSVGDiffersAcrossSeeds(t *testing.T) {
	seen := map[string]string{}
	for _, seed := range Seeds {
		doc := string(SVG(seed))
		if other, ok := seen[doc]; ok {
			t.Fatalf("seeds %s and %s produced the same avatar", seed, other)
		}
		seen[doc] = seed
	}
}

func TestSeedsPool(t *testing.T) {
	assert.Len(t, Seeds, 10)
	assert.Equal(t, "alpha", Seeds[0])
	assert.Equal(t, "juliet", Seeds[9])
}
