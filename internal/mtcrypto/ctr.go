package mtcrypto

import (
	"crypto/aes"
	"crypto/cipher"
)

// NewCTRCipher builds an AES-256-CTR stream cipher over the given 32-byte
// key and 16-byte big-endian counter/IV, as used by the transport
// obfuscation wrapper (see internal/transport).
func NewCTRCipher(key, iv []byte) (cipher.Stream, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewCTR(block, iv), nil
}
