// Package mtcrypto implements the cryptographic primitives MTProto 2.0
// needs on top of the standard library's AES block cipher: IGE and CTR
// block-cipher modes (neither is in crypto/cipher), RSA-with-hash padding,
// Pollard-Brent factorization, the message-key derivation schedule, and
// the two-factor SRP challenge used by account.getPassword/checkPassword.
package mtcrypto
