// Package cryptox derives the credential material sent to the backend for
// email sign-in. The password itself never leaves the device; the backend
// stores and compares verifiers only.
package cryptox

import (
	"crypto/sha256"

	"golang.org/x/crypto/argon2"
)

// DeriveKey stretches a password with Argon2id.
func DeriveKey(password, salt []byte) []byte {
	return argon2.IDKey(password, salt, 1, 64*1024, 4, 32)
}

// MakeVerifier hashes a derived key into the value shared with the backend.
func MakeVerifier(key []byte) []byte {
	hash := sha256.Sum256(key)
	return hash[:]
}
