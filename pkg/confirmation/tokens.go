package confirmation

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// tokenByteLength is the number of random bytes per token. 32 bytes gives 256
// bits of entropy; the store's uniqueness index is the backstop, not the
// primary defense against collisions.
const tokenByteLength = 32

// TokenGenerator produces opaque confirmation tokens.
type TokenGenerator interface {
	Generate() (string, error)
}

type randomTokenGenerator struct{}

// NewTokenGenerator returns the default generator, drawing from the process
// CSPRNG and rendering URL-safe base64.
func NewTokenGenerator() TokenGenerator {
	return &randomTokenGenerator{}
}

func (g *randomTokenGenerator) Generate() (string, error) {
	b := make([]byte, tokenByteLength)
	if _, err := rand.Read(b); err != nil {
		// An exhausted entropy source is not recoverable at this level.
		return "", fmt.Errorf("failed to generate confirmation token: %w", err)
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
