package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// SnapshotKey derives a deterministic invalidation key from a computation
// input. Identical inputs hash identically, so a cached result is valid
// exactly as long as no input changed. The canonical encoding is JSON: map
// iteration is the only nondeterministic encoding source and
// encoding/json sorts map keys.
func SnapshotKey(input any) (string, error) {
	data, err := json.Marshal(input)
	if err != nil {
		return "", fmt.Errorf("encode snapshot for hashing: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
