package util

import (
	"crypto/rand"
	"encoding/hex"
	mrand "math/rand"
)

// NewSessionToken mints an opaque session token. Tokens must be unguessable,
// so this always draws from crypto/rand.
func NewSessionToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic("util: crypto/rand unavailable: " + err.Error())
	}
	return hex.EncodeToString(b)
}

// GetRandomString generates a random string of the given length. Not suitable
// for credentials, use NewSessionToken for those.
func GetRandomString(length int) string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	b := make([]byte, length)
	for i := range b {
		b[i] = charset[mrand.Intn(len(charset))]
	}
	return string(b)
}
