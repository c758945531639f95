package mtcrypto

import (
	"crypto/x509"
	"encoding/pem"
	"math/big"

	"github.com/dantte-lp/gomtproto/internal/tl"
)

// productionRSAKeyPEM is Telegram's well-known production RSA public key,
// used to encrypt step 2 of the authorization handshake. Telegram rotates
// these rarely and publishes them alongside the schema; a real deployment
// should let internal/mtconfig add further keys without touching this file.
const productionRSAKeyPEM = `-----BEGIN RSA PUBLIC KEY-----
MIIBCgKCAQEA6LszBcC1LGzyr992NzE0ieY+BSaOW622Aa9Bd4ZHLl+TuFQ4lo4g
5nKaMBwK/BIb9xUfg0Q29/2mgIR6Zr9krM7HjuIcCzFvDtr+L0GQjae9H0pRB2OO
62cECs5HKhT5DZ98K33vmWiLowc621dQuwKWSQKjWf50XYFw42h21P2KXUGyp2y/
+aEyZ+uVgLLQbRA1dEjSDZ2iGRy12Mk5gpYc397aYp438fsJoHIgJ2lgMv5h7WY9
t6N/byY9Nw9p21Og3AoXSL2q/2IJ1WRUhebgAdGVMlV1fkuOQoEzR7EdpqtQD9Cs
5+bfo3Nhmcyvk5ftB0WkJ9z6bNZ7yxrP8wIDAQAB
-----END RSA PUBLIC KEY-----`

// DefaultRSAKeys is the production key set compiled into the library.
var DefaultRSAKeys []RSAPublicKey

func init() {
	block, _ := pem.Decode([]byte(productionRSAKeyPEM))
	if block == nil {
		return
	}
	pub, err := x509.ParsePKCS1PublicKey(block.Bytes)
	if err != nil {
		return
	}
	key := RSAPublicKey{
		N: pub.N,
		E: big.NewInt(int64(pub.E)),
	}
	key.Fingerprint = rsaFingerprint(key)
	DefaultRSAKeys = append(DefaultRSAKeys, key)
}

// rsaFingerprint computes the low 8 bytes of SHA1(TL-serialized
// rsa_public_key{n, e}), interpreted as a little-endian uint64, matching
// how servers identify keys in resPQ.
func rsaFingerprint(key RSAPublicKey) uint64 {
	e := tl.NewEncoder(512)
	e.Bytes(key.N.Bytes())
	e.Bytes(key.E.Bytes())
	sum := SHA1(e.Finish())
	low8 := sum[len(sum)-8:]
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(low8[i]) << (8 * i)
	}
	return v
}

// FindKey returns the key whose fingerprint matches one of the candidates
// the server offered, preferring the first match in candidate order.
func FindKey(keys []RSAPublicKey, candidates []uint64) (RSAPublicKey, bool) {
	for _, fp := range candidates {
		for _, k := range keys {
			if k.Fingerprint == fp {
				return k, true
			}
		}
	}
	return RSAPublicKey{}, false
}
