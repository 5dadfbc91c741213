package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// Argon2id cost parameters. These are fixed: every stored credential was
// derived with them, so verification must always reproduce them exactly.
const (
	argonMemory  = 64 * 1024 // KiB
	argonTime    = 3
	argonThreads = 4
	saltLen      = 16
	hashLen      = 32
)

// HashPassword derives an Argon2id hash from the plaintext password using a
// fresh random salt. Both hash and salt are returned base64 encoded.
func HashPassword(password string) (hash, salt string, err error) {
	saltBytes := make([]byte, saltLen)
	if _, err := rand.Read(saltBytes); err != nil {
		return "", "", fmt.Errorf("generate salt: %w", err)
	}

	hashBytes := argon2.IDKey([]byte(password), saltBytes, argonTime, argonMemory, argonThreads, hashLen)

	return base64.StdEncoding.EncodeToString(hashBytes),
		base64.StdEncoding.EncodeToString(saltBytes),
		nil
}

// VerifyPassword re-derives the hash for the candidate password with the
// stored salt and compares it against the stored hash in constant time.
// Malformed stored values report false, indistinguishable from a mismatch.
func VerifyPassword(password, storedHash, storedSalt string) bool {
	saltBytes, err := base64.StdEncoding.DecodeString(storedSalt)
	if err != nil {
		return false
	}
	hashBytes, err := base64.StdEncoding.DecodeString(storedHash)
	if err != nil {
		return false
	}

	candidate := argon2.IDKey([]byte(password), saltBytes, argonTime, argonMemory, argonThreads, hashLen)

	return subtle.ConstantTimeCompare(hashBytes, candidate) == 1
}
