package mtcrypto

// Direction selects which half of auth_key the message-key schedule reads
// from, per MTProto 2.0 §4.2: x=0 for client-to-server, x=8 for
// server-to-client.
type Direction int

const (
	ToServer Direction = iota
	ToClient
)

func (d Direction) offset() int {
	if d == ToClient {
		return 8
	}
	return 0
}

// DeriveMessageKeyOuter computes msg_key from a 256-byte auth_key and the
// full plaintext-plus-padding body, as the sender does before encrypting.
func DeriveMessageKeyOuter(authKey []byte, dir Direction, plaintext []byte) []byte {
	x := dir.offset()
	largeInput := concat(authKey[88+x:88+x+32], plaintext)
	large := SHA256(largeInput)
	return large[8:24]
}

// DeriveKeyIV computes aes_key and aes_iv from auth_key, msg_key, and
// direction, per steps 4-7 of MTProto 2.0 §4.2.
func DeriveKeyIV(authKey, msgKey []byte, dir Direction) (aesKey, aesIV []byte) {
	x := dir.offset()
	shaA := SHA256(concat(msgKey, authKey[x:x+36]))
	shaB := SHA256(concat(authKey[40+x:40+x+36], msgKey))

	aesKey = concat(shaA[0:8], shaB[8:24], shaA[24:32])
	aesIV = concat(shaB[0:8], shaA[8:24], shaB[24:32])
	return aesKey, aesIV
}

func concat(parts ...[]byte) []byte {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	out := make([]byte, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
