// internal/utils/crypto.go
package utils

import (
	"encoding/hex"

	"golang.org/x/crypto/sha3"
)

// Keccak256Hex returns the 0x-prefixed legacy Keccak-256 digest used for
// EVM transaction hashes.
func Keccak256Hex(parts ...[]byte) string {
	hasher := sha3.NewLegacyKeccak256()
	for _, p := range parts {
		hasher.Write(p)
	}
	return "0x" + hex.EncodeToString(hasher.Sum(nil))
}
