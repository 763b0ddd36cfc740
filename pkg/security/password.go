// Package security provides password hashing shared by the DB service's
// developer and player account stores.
package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/argon2"
)

const (
	saltLen     = 16
	argonTime   = 1
	argonMemory = 64 * 1024
	argonThread = 4
	argonKeyLen = 32
)

// HashPassword salts and hashes password with Argon2id, returning the hash
// and salt as hex strings suitable for storage.
func HashPassword(password string) (hashHex, saltHex string, err error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", "", fmt.Errorf("security: generating salt: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThread, argonKeyLen)
	return hex.EncodeToString(hash), hex.EncodeToString(salt), nil
}

// VerifyPassword reports whether password matches the stored hash/salt pair
// in constant time.
func VerifyPassword(password, hashHex, saltHex string) bool {
	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return false
	}
	want, err := hex.DecodeString(hashHex)
	if err != nil {
		return false
	}

	got := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThread, argonKeyLen)
	return subtle.ConstantTimeCompare(want, got) == 1
}
