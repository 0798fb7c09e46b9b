package confirmation

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenGenerator(t *testing.T) {
	gen := NewTokenGenerator()

	token, err := gen.Generate()
	require.NoError(t, err)

	decoded, err := base64.URLEncoding.DecodeString(token)
	require.NoError(t, err)
	assert.Len(t, decoded, tokenByteLength)

	// No two calls may plausibly collide.
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		token, err := gen.Generate()
		require.NoError(t, err)
		assert.False(t, seen[token], "duplicate token generated")
		seen[token] = true
	}
}
