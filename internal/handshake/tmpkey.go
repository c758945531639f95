package handshake

import "github.com/dantte-lp/gomtproto/internal/mtcrypto"

// tmpAESKeyIV derives the transient AES-IGE key/iv used to encrypt and
// decrypt the handshake's own DH-parameter payloads, per the formula
// MTProto has used since its original (pre message-key-v2) design:
//
//	key = SHA1(new_nonce||server_nonce) || SHA1(server_nonce||new_nonce)[0:12]
//	iv  = SHA1(server_nonce||new_nonce)[12:20] || SHA1(new_nonce||new_nonce) || new_nonce[0:4]
func tmpAESKeyIV(newNonce, serverNonce []byte) (key, iv []byte) {
	h1 := mtcrypto.SHA1(newNonce, serverNonce)
	h2 := mtcrypto.SHA1(serverNonce, newNonce)
	h3 := mtcrypto.SHA1(newNonce, newNonce)

	key = append(append([]byte{}, h1...), h2[:12]...)
	iv = append(append(append([]byte{}, h2[12:20]...), h3...), newNonce[:4]...)
	return key, iv
}

// dhGenHash computes the nonce-hash field servers send in dh_gen_ok/retry/
// fail: substr(SHA1(new_nonce || marker || auth_key_aux_hash), 4, 16),
// where marker is 0x01/0x02/0x03 for ok/retry/fail respectively.
func dhGenHash(newNonce []byte, marker byte, authKeyAuxHash []byte) []byte {
	sum := mtcrypto.SHA1(newNonce, []byte{marker}, authKeyAuxHash)
	return sum[4:20]
}

// authKeyAuxHash returns the first 8 bytes of SHA1(auth_key), used only
// inside dhGenHash, never on the wire as the key id (that is the last 8
// bytes of the same digest, see internal/session).
func authKeyAuxHash(authKey []byte) []byte {
	sum := mtcrypto.SHA1(authKey)
	return sum[:8]
}
