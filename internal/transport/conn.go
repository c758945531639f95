package transport

import (
	"crypto/cipher"
	"errors"
	"net"
)

// readChunkSize is how much the Conn asks the socket for on each
// underlying Read while accumulating a full frame.
const readChunkSize = 8192

// Conn wraps a net.Conn with one framing Codec and, optionally, a pair of
// obfuscation keystreams. It is not safe for concurrent reads, nor for
// concurrent writes; the sender serializes reads on its own goroutine and
// writes on another (see internal/sender), so each direction only ever
// has one caller.
type Conn struct {
	raw   net.Conn
	codec Codec
	send  cipher.Stream // nil when unobfuscated
	recv  cipher.Stream // nil when unobfuscated

	pending []byte // decrypted bytes not yet consumed by codec.Decode
	wroteTag bool
}

// NewConn wraps raw with codec and no obfuscation.
func NewConn(raw net.Conn, codec Codec) *Conn {
	return &Conn{raw: raw, codec: codec}
}

// NewObfuscatedConn wraps raw with codec under obfuscation, writing the
// 64-byte init header (with the given inner-transport tag) before
// returning.
func NewObfuscatedConn(raw net.Conn, codec Codec, tag [4]byte) (*Conn, error) {
	header, err := GenerateInitHeader(tag)
	if err != nil {
		return nil, err
	}
	send, recv, err := deriveObfuscationCiphers(header[:])
	if err != nil {
		return nil, err
	}

	encrypted := make([]byte, 64)
	send.XORKeyStream(encrypted, header[:])

	out := make([]byte, 64)
	copy(out, header[:56])
	copy(out[56:], encrypted[56:])
	if _, err := raw.Write(out); err != nil {
		return nil, err
	}

	return &Conn{raw: raw, codec: codec, send: send, recv: recv, wroteTag: true}, nil
}

// WriteFrame frames payload with the codec, applies the send keystream
// (if obfuscated), and writes it to the connection.
func (c *Conn) WriteFrame(payload []byte) error {
	framed := c.codec.Encode(payload)

	if !c.wroteTag {
		if tag := c.codec.WireTag(); tag != nil {
			if _, err := c.raw.Write(tag); err != nil {
				return err
			}
		}
		c.wroteTag = true
	}

	if c.send != nil {
		c.send.XORKeyStream(framed, framed)
	}
	_, err := c.raw.Write(framed)
	return err
}

// ReadFrame blocks until one full frame has been read, decrypted (if
// obfuscated), and unframed, or an error occurs. BadStatus errors are
// returned directly to the caller for transport-fatal handling.
func (c *Conn) ReadFrame() ([]byte, error) {
	for {
		payload, n, err := c.codec.Decode(c.pending)
		if err == nil {
			c.pending = append([]byte(nil), c.pending[n:]...)
			return payload, nil
		}
		var status BadStatus
		if errors.As(err, &status) {
			c.pending = c.pending[n:]
			return nil, status
		}
		if !errors.Is(err, ErrMissingBytes) {
			return nil, err
		}

		chunk := make([]byte, readChunkSize)
		read, rerr := c.raw.Read(chunk)
		if read > 0 {
			chunk = chunk[:read]
			if c.recv != nil {
				c.recv.XORKeyStream(chunk, chunk)
			}
			c.pending = append(c.pending, chunk...)
		}
		if rerr != nil {
			return nil, rerr
		}
	}
}

// Close closes the underlying connection.
func (c *Conn) Close() error { return c.raw.Close() }
