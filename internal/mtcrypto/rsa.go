package mtcrypto

import (
	"crypto/rand"
	"errors"
	"math/big"
)

// RSAPublicKey is one of the hard-coded keys Telegram's servers present
// during the authorization handshake, identified on the wire by its
// 64-bit fingerprint (the low 8 bytes of SHA1(serialized public key)).
type RSAPublicKey struct {
	Fingerprint uint64
	N           *big.Int
	E           *big.Int
}

// ErrPayloadTooLarge is returned when RSAEncryptHashed is given more than
// 235 bytes of data, the largest payload that fits after the 20-byte SHA1
// in a 255-byte SHA1||data||padding block.
var ErrPayloadTooLarge = errors.New("mtcrypto: RSA payload too large")

// RSAEncryptHashed implements the "RSA-with-hash-padding" scheme used in
// step 2 of the handshake: form a 255-byte block of SHA1(data) || data ||
// random padding, interpret it as a big-endian integer, and compute
// m^e mod n, emitted as a 256-byte big-endian value.
func RSAEncryptHashed(key RSAPublicKey, data []byte) ([]byte, error) {
	const blockLen = 255
	hash := SHA1(data)
	if len(hash)+len(data) > blockLen {
		return nil, ErrPayloadTooLarge
	}
	block := make([]byte, blockLen)
	copy(block, hash)
	copy(block[len(hash):], data)
	padding := block[len(hash)+len(data):]
	if _, err := rand.Read(padding); err != nil {
		return nil, err
	}

	m := new(big.Int).SetBytes(block)
	if m.Cmp(key.N) >= 0 {
		return encryptWithOffsetRetry(key, hash, data, blockLen)
	}
	c := new(big.Int).Exp(m, key.E, key.N)
	return leftPad(c.Bytes(), 256), nil
}

// encryptWithOffsetRetry handles the rare case where the randomly padded
// block happens to exceed the modulus, by re-rolling the padding.
func encryptWithOffsetRetry(key RSAPublicKey, hash, data []byte, blockLen int) ([]byte, error) {
	for attempt := 0; attempt < 8; attempt++ {
		block := make([]byte, blockLen)
		copy(block, hash)
		copy(block[len(hash):], data)
		if _, err := rand.Read(block[len(hash)+len(data):]); err != nil {
			return nil, err
		}
		m := new(big.Int).SetBytes(block)
		if m.Cmp(key.N) < 0 {
			c := new(big.Int).Exp(m, key.E, key.N)
			return leftPad(c.Bytes(), 256), nil
		}
	}
	return nil, errors.New("mtcrypto: could not fit RSA block under modulus")
}

func leftPad(b []byte, size int) []byte {
	if len(b) >= size {
		return b[len(b)-size:]
	}
	out := make([]byte, size)
	copy(out[size-len(b):], b)
	return out
}
