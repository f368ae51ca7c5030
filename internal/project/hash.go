package project

import (
	"crypto/sha256"
	"encoding/hex"
)

// Digest is a SHA-256 value, compatible with source.File.Hash.
type Digest [32]byte

// DigestOf hashes a string.
func DigestOf(s string) Digest {
	return sha256.Sum256([]byte(s))
}

// Combine hashes content followed by parts in the given order.
func Combine(content Digest, parts ...Digest) Digest {
	h := sha256.New()
	_, _ = h.Write(content[:])
	for _, d := range parts {
		_, _ = h.Write(d[:])
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

// String returns the hex form of d.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}
