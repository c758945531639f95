package transport

import (
	"crypto/rand"
	"crypto/cipher"
	"errors"

	"github.com/dantte-lp/gomtproto/internal/mtcrypto"
)

// reservedPrefixes are four-byte sequences an obfuscation init header must
// never start with, so a passive observer cannot mistake the connection
// for plaintext HTTP, TLS, or an unobfuscated MTProto transport.
var reservedPrefixes = [][4]byte{
	{'H', 'E', 'A', 'D'},
	{'P', 'O', 'S', 'T'},
	{'G', 'E', 'T', ' '},
	{'O', 'P', 'T', 'I'},
	{0x16, 0x03, 0x01, 0x02},
	{0xDD, 0xDD, 0xDD, 0xDD},
	{0xEE, 0xEE, 0xEE, 0xEE},
}

// ErrCouldNotGenerateHeader is returned if no valid obfuscation header was
// found within a bounded number of random attempts; this should never
// happen in practice (the constraints exclude a vanishing fraction of the
// space) and indicates a broken RNG.
var ErrCouldNotGenerateHeader = errors.New("transport: could not generate obfuscation header")

// GenerateInitHeader builds a random 64-byte obfuscation header whose
// bytes 56..60 carry tag (the inner transport's identifying tag) and
// which otherwise avoids every reserved prefix a middlebox might use to
// fingerprint the connection.
func GenerateInitHeader(tag [4]byte) ([64]byte, error) {
	var header [64]byte
	for attempt := 0; attempt < 256; attempt++ {
		if _, err := rand.Read(header[:]); err != nil {
			return header, err
		}
		if header[0] == 0xEF {
			continue
		}
		var prefix [4]byte
		copy(prefix[:], header[:4])
		reserved := false
		for _, r := range reservedPrefixes {
			if prefix == r {
				reserved = true
				break
			}
		}
		if reserved {
			continue
		}
		if header[4] == 0 && header[5] == 0 && header[6] == 0 && header[7] == 0 {
			continue
		}
		copy(header[56:60], tag[:])
		return header, nil
	}
	return header, ErrCouldNotGenerateHeader
}

// reversed returns a byte-reversed copy of b.
func reversed(b []byte) []byte {
	out := make([]byte, len(b))
	for i := range b {
		out[i] = b[len(b)-1-i]
	}
	return out
}

// deriveObfuscationCiphers builds the send and receive CTR ciphers for an
// obfuscated connection: the send cipher reads the header forward, the
// receive cipher reads it reversed (and vice versa on the server side).
func deriveObfuscationCiphers(header []byte) (send, recv cipher.Stream, err error) {
	send, err = mtcrypto.NewCTRCipher(header[8:40], header[40:56])
	if err != nil {
		return nil, nil, err
	}
	rev := reversed(header)
	recv, err = mtcrypto.NewCTRCipher(rev[8:40], rev[40:56])
	if err != nil {
		return nil, nil, err
	}
	return send, recv, nil
}
