// Package crypto provides cryptographic utilities for Gatekeeper.
package crypto

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// Password derivation parameters. Changing any of these invalidates every
// stored hash, so they are fixed for the lifetime of a deployment.
const (
	// SaltSize is the number of random bytes in a salt before encoding.
	SaltSize = 16

	// PBKDF2Iterations is the PBKDF2 iteration count.
	PBKDF2Iterations = 10000

	// DerivedKeySize is the length in bytes of the derived key.
	DerivedKeySize = 64
)

// GenerateSalt returns a new base64-encoded random salt.
func GenerateSalt() (string, error) {
	buf := make([]byte, SaltSize)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}

// HashPassword derives the base64-encoded PBKDF2-HMAC-SHA512 hash of password.
// The encoded salt string itself is the KDF salt, so hashes stay stable
// across any store that round-trips the salt as text.
func HashPassword(password, salt string) string {
	key := pbkdf2.Key([]byte(password), []byte(salt), PBKDF2Iterations, DerivedKeySize, sha512.New)
	return base64.StdEncoding.EncodeToString(key)
}

// VerifyPassword reports whether password hashes to hash under salt.
// The comparison runs in constant time.
func VerifyPassword(password, salt, hash string) bool {
	computed := HashPassword(password, salt)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(hash)) == 1
}
