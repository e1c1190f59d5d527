package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// RenderKey derives the cache key for a rendered artifact from the DOT text
// and the output format. Equal graphs export to identical DOT, so the key
// is stable across runs.
func RenderKey(dot, format string) string {
	return "render:" + format + ":" + Hash([]byte(dot))
}
