// Package fingerprint computes stable content digests for uploaded
// documents. Digests are used for duplicate detection only, never for
// security.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
)

// Digest is a fixed-length hex-encoded content hash.
type Digest = string

// Sum returns the SHA-256 digest of the raw document bytes. Deterministic
// and side-effect free: the same bytes always produce the same digest
// regardless of filename or declared type.
func Sum(data []byte) Digest {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
