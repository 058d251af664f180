// Package password provides one-way password hashing and verification.
package password

import "golang.org/x/crypto/bcrypt"

// Cost is the bcrypt cost factor. Fixed for the process lifetime; raising it
// only affects newly written hashes.
const Cost = 10

// Hash produces a salted bcrypt hash of the plaintext. The same plaintext
// yields a different hash on every call.
func Hash(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), Cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify reports whether plaintext matches the stored hash. Comparison is
// constant-time on the digest. A malformed hash fails closed: the result is
// false, never a panic or an error surfaced to the caller.
func Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
