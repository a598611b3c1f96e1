// Package sha256 derives opaque storage keys from client identifiers.
package sha256

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hasher turns client addresses into fixed-length hex digests so shared
// stores never hold raw IPs.
type Hasher struct {
	salt []byte
}

// New returns a SHA-256 hasher. The optional salt is prepended to every input.
func New(salt string) *Hasher {
	return &Hasher{salt: []byte(salt)}
}

// Hash returns the hex digest of salt+data.
func (h *Hasher) Hash(data []byte) string {
	sum := sha256.New()
	sum.Write(h.salt)
	sum.Write(data)
	return hex.EncodeToString(sum.Sum(nil))
}

// Key hashes a string identifier.
func (h *Hasher) Key(id string) string {
	return h.Hash([]byte(id))
}
