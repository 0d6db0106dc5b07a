package util

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// GenerateNodeID creates a deterministic hash for a graph node based on
// its cluster and qualified name.
func GenerateNodeID(cluster, name string) string {
	input := fmt.Sprintf("%s:%s", cluster, name)
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:])
}
