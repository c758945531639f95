package handshake

import "crypto/rand"

// randomBytes returns n cryptographically random bytes, panicking on
// entropy-source failure since the handshake cannot proceed without one.
func randomBytes(n int) []byte {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic("handshake: system entropy source failed: " + err.Error())
	}
	return b
}

func newNonce128() []byte { return randomBytes(16) }
func newNonce256() []byte { return randomBytes(32) }
