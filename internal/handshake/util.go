package handshake

import (
	"crypto/rand"
	"math/big"
)

func beBytesToUint64(b []byte) uint64 {
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v
}

func beBytesToInt64(b []byte) int64 { return int64(beBytesToUint64(b)) }

// uint64ToMinimalBE renders v as the shortest big-endian byte slice with
// no leading zero byte (TL bytes fields carry no fixed width).
func uint64ToMinimalBE(v uint64) []byte {
	if v == 0 {
		return []byte{0}
	}
	var buf [8]byte
	for i := 7; i >= 0; i-- {
		buf[i] = byte(v)
		v >>= 8
	}
	i := 0
	for i < 7 && buf[i] == 0 {
		i++
	}
	return append([]byte(nil), buf[i:]...)
}

func leftPadInto(dst, src []byte) {
	if len(src) >= len(dst) {
		copy(dst, src[len(src)-len(dst):])
		return
	}
	copy(dst[len(dst)-len(src):], src)
}

func randBigInt(bits int) (*big.Int, error) {
	return rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), uint(bits)))
}
