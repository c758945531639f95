package mtcrypto

import (
	"crypto/sha1"  //nolint:gosec // mandated by MTProto 2.0 wire format
	"crypto/sha256"
)

// SHA1 hashes the concatenation of parts.
func SHA1(parts ...[]byte) []byte {
	h := sha1.New() //nolint:gosec // MTProto-mandated, not used for any security boundary on its own
	for _, p := range parts {
		h.Write(p)
	}
	return h.Sum(nil)
}

// SHA256 hashes the concatenation of parts.
func SHA256(parts ...[]byte) []byte {
	h := sha256.New()
	for _, p := range parts {
		h.Write(p)
	}
	return h.Sum(nil)
}
