package core

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// CacheKey derives a stable cache key from a stage name and its input
// payload. Identical (stage, payload) pairs always hash to the same key.
func CacheKey(stage string, payload any) string {
	data, err := json.Marshal(payload)
	if err != nil {
		// Marshal only fails for unsupported types; fall back to the
		// formatted value so the key stays deterministic.
		data = []byte(fmt.Sprintf("%v", payload))
	}
	hash := sha256.Sum256(data)
	return stage + ":" + hex.EncodeToString(hash[:])
}
