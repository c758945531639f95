package mtcrypto

import (
	"crypto/aes"
	"errors"
)

// ErrNotBlockAligned is returned when IGE input is not a multiple of the
// AES block size.
var ErrNotBlockAligned = errors.New("mtcrypto: buffer length not a multiple of 16")

// ErrBadIVLength is returned when an IGE IV is not exactly 32 bytes (two
// AES blocks).
var ErrBadIVLength = errors.New("mtcrypto: IGE IV must be 32 bytes")

const blockSize = aes.BlockSize

// IGEEncrypt encrypts src under AES-256 in infinite garble extension mode.
// key must be 32 bytes, iv must be 32 bytes (the concatenation of the
// initial c_-1 and p_-1 halves), and len(src) must be a multiple of 16.
// The returned slice is freshly allocated.
func IGEEncrypt(key, iv, src []byte) ([]byte, error) {
	return ige(key, iv, src, true)
}

// IGEDecrypt is the structural inverse of IGEEncrypt.
func IGEDecrypt(key, iv, src []byte) ([]byte, error) {
	return ige(key, iv, src, false)
}

func ige(key, iv, src []byte, encrypt bool) ([]byte, error) {
	if len(src)%blockSize != 0 {
		return nil, ErrNotBlockAligned
	}
	if len(iv) != 2*blockSize {
		return nil, ErrBadIVLength
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	out := make([]byte, len(src))
	prevCipher := append([]byte(nil), iv[:blockSize]...)
	prevPlain := append([]byte(nil), iv[blockSize:]...)

	tmp := make([]byte, blockSize)
	for off := 0; off < len(src); off += blockSize {
		in := src[off : off+blockSize]
		dst := out[off : off+blockSize]

		if encrypt {
			xorBytes(tmp, in, prevCipher)
			block.Encrypt(dst, tmp)
			xorBytes(dst, dst, prevPlain)
			prevCipher = append(prevCipher[:0], dst...)
			prevPlain = append(prevPlain[:0], in...)
		} else {
			xorBytes(tmp, in, prevPlain)
			block.Decrypt(dst, tmp)
			xorBytes(dst, dst, prevCipher)
			prevCipher = append(prevCipher[:0], in...)
			prevPlain = append(prevPlain[:0], dst...)
		}
	}
	return out, nil
}

func xorBytes(dst, a, b []byte) {
	for i := range dst {
		dst[i] = a[i] ^ b[i]
	}
}
