package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// EncodeSHA256 returns the hex sha256 digest of the input. Used to compare
// reconstructed snapshots without shipping the whole text around.
func EncodeSHA256(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
