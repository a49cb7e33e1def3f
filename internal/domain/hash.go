package domain

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

// CacheKey hashes the cache identity fields into a stable hex digest.
// Fields are length-prefixed before digesting so boundary ambiguity cannot
// collide distinct inputs (e.g. ("ab","c") vs ("a","bc")).
func CacheKey(text, targetLang, providerID string) string {
	h := sha256.New()
	for _, field := range []string{text, targetLang, providerID} {
		var n [8]byte
		binary.BigEndian.PutUint64(n[:], uint64(len(field)))
		h.Write(n[:])
		h.Write([]byte(field))
	}
	return hex.EncodeToString(h.Sum(nil))
}
