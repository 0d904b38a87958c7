// Package checksum computes content digests used to detect body changes.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/starford/mdnotion/internal/blocks"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Tree returns the digest of a block tree's canonical JSON encoding.
func Tree(t blocks.Tree) (string, error) {
	raw, err := json.Marshal(t)
	if err != nil {
		return "", fmt.Errorf("checksum: encode tree: %w", err)
	}
	return Sum(raw), nil
}
