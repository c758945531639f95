package mtcrypto

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha512"
	"encoding/binary"
	"math/big"
)

// SRPParams carries everything account.getPassword supplies to compute a
// checkPassword response: the group (g, p), the two salts, and the
// server's public value g_b.
type SRPParams struct {
	G       int64
	P       []byte
	Salt1   []byte
	Salt2   []byte
	GB      []byte
	SrpID   int64
	Password []byte
}

// SRPAnswer is the client's checkPassword response: its public value g_a
// and the M1 proof.
type SRPAnswer struct {
	GA []byte
	M1 []byte
}

const srpPBKDF2Iterations = 100000

// pbkdf2HMACSHA512 is a minimal PBKDF2 implementation over HMAC-SHA512;
// no library in the dependency pack exposes PBKDF2, so it is built
// directly on crypto/hmac and crypto/sha512 per RFC 8018.
func pbkdf2HMACSHA512(password, salt []byte, iterations, keyLen int) []byte {
	prf := hmac.New(sha512.New, password)
	hashLen := prf.Size()
	numBlocks := (keyLen + hashLen - 1) / hashLen

	out := make([]byte, 0, numBlocks*hashLen)
	buf := make([]byte, len(salt)+4)
	copy(buf, salt)

	for block := 1; block <= numBlocks; block++ {
		binary.BigEndian.PutUint32(buf[len(salt):], uint32(block))

		prf.Reset()
		prf.Write(buf)
		u := prf.Sum(nil)
		t := append([]byte(nil), u...)

		for i := 1; i < iterations; i++ {
			prf.Reset()
			prf.Write(u)
			u = prf.Sum(nil)
			for j := range t {
				t[j] ^= u[j]
			}
		}
		out = append(out, t...)
	}
	return out[:keyLen]
}

// sh is the "salted hash" helper SH(data, salt) = SHA256(salt||data||salt).
func sh(data, salt []byte) []byte {
	return SHA256(salt, data, salt)
}

// ph1 is PH1(password, salt1, salt2) = SH(SH(password, salt1), salt2).
func ph1(password, salt1, salt2 []byte) []byte {
	return sh(sh(password, salt1), salt2)
}

// ph2 is PH2(password, salt1, salt2) =
// SH(PBKDF2(PH1(password, salt1, salt2), salt1, 100000), salt2).
func ph2(password, salt1, salt2 []byte) []byte {
	h1 := ph1(password, salt1, salt2)
	derived := pbkdf2HMACSHA512(h1, salt1, srpPBKDF2Iterations, 64)
	return sh(derived, salt2)
}

func padTo256(v *big.Int) []byte { return leftPad(v.Bytes(), 256) }

// ComputeSRPAnswer derives the checkPassword proof for p.Password against
// the server-supplied group and salts. a is the client's private
// exponent; pass nil to generate a fresh random 2048-bit value.
func ComputeSRPAnswer(p SRPParams, a *big.Int) (SRPAnswer, error) {
	P := new(big.Int).SetBytes(p.P)
	g := big.NewInt(p.G)
	gB := new(big.Int).SetBytes(p.GB)

	if a == nil {
		var err error
		a, err = rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 2048))
		if err != nil {
			return SRPAnswer{}, err
		}
	}

	x := new(big.Int).SetBytes(ph2(p.Password, p.Salt1, p.Salt2))
	x.Mod(x, P)

	gA := new(big.Int).Exp(g, a, P)

	k := new(big.Int).SetBytes(SHA256(padTo256(P), padTo256(g)))
	v := new(big.Int).Exp(g, x, P)
	kv := new(big.Int).Mod(new(big.Int).Mul(k, v), P)

	u := new(big.Int).SetBytes(SHA256(padTo256(gA), padTo256(gB)))

	t := new(big.Int).Sub(gB, kv)
	t.Mod(t, P)
	if t.Sign() < 0 {
		t.Add(t, P)
	}

	exp := new(big.Int).Add(a, new(big.Int).Mul(u, x))
	sA := new(big.Int).Exp(t, exp, P)
	kA := SHA256(padTo256(sA))

	hP := SHA256(padTo256(P))
	hG := SHA256(padTo256(g))
	hXor := make([]byte, len(hP))
	for i := range hXor {
		hXor[i] = hP[i] ^ hG[i]
	}

	m1 := SHA256(hXor, SHA256(p.Salt1), SHA256(p.Salt2), padTo256(gA), padTo256(gB), kA)

	return SRPAnswer{GA: padTo256(gA), M1: m1}, nil
}
