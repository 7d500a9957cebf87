package crypto

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// TokenSecretSize is the number of random bytes in a generated token secret.
const TokenSecretSize = 32

// MinTokenSecretLength is the shortest token secret accepted by configuration.
const MinTokenSecretLength = 32

// ErrWeakTokenSecret indicates the configured signing secret is too short.
var ErrWeakTokenSecret = errors.New("token secret must be at least 32 characters")

// GenerateTokenSecret generates a random signing secret for session tokens.
// Returns the secret as a 64-character hex string.
func GenerateTokenSecret() (string, error) {
	key := make([]byte, TokenSecretSize)
	if _, err := rand.Read(key); err != nil {
		return "", fmt.Errorf("failed to generate token secret: %w", err)
	}
	return hex.EncodeToString(key), nil
}

// CheckTokenSecret validates a configured signing secret.
func CheckTokenSecret(secret string) error {
	if len(strings.TrimSpace(secret)) < MinTokenSecretLength {
		return ErrWeakTokenSecret
	}
	return nil
}
