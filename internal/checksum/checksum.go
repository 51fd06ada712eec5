// Package checksum computes the content fingerprints recorded for tracked files.
package checksum

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/zeebo/blake3"
)

// Algorithm names a supported 256-bit digest.
type Algorithm string

const (
	SHA256 Algorithm = "sha256"
	BLAKE3 Algorithm = "blake3"
)

// Default is the algorithm used when none is configured or recorded.
const Default = SHA256

// ParseAlgorithm resolves a configured algorithm name. An empty name means Default.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch Algorithm(strings.ToLower(strings.TrimSpace(name))) {
	case "", SHA256:
		return SHA256, nil
	case BLAKE3:
		return BLAKE3, nil
	default:
		return "", fmt.Errorf("unsupported checksum algorithm %q (valid values: sha256, blake3)", name)
	}
}

// Digest returns the hex-encoded SHA-256 of content.
func Digest(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// Sum returns the hex-encoded digest of content under alg.
func Sum(alg Algorithm, content []byte) (string, error) {
	switch alg {
	case "", SHA256:
		return Digest(content), nil
	case BLAKE3:
		sum := blake3.Sum256(content)
		return hex.EncodeToString(sum[:]), nil
	default:
		return "", fmt.Errorf("unsupported checksum algorithm %q", alg)
	}
}

// Equal compares two hex digests byte for byte.
func Equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
