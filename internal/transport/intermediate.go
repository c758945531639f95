package transport

import "encoding/binary"

// Intermediate implements MTProto's intermediate framing: a four-byte
// 0xEEEEEEEE tag sent once, then each frame as len:u32le || payload.
type Intermediate struct {
	tagSent bool
}

var _ Codec = (*Intermediate)(nil)

func (c *Intermediate) WireTag() []byte {
	if c.tagSent {
		return nil
	}
	c.tagSent = true
	return []byte{0xEE, 0xEE, 0xEE, 0xEE}
}

func (c *Intermediate) Encode(payload []byte) []byte {
	out := make([]byte, 4+len(payload))
	binary.LittleEndian.PutUint32(out, uint32(len(payload)))
	copy(out[4:], payload)
	return out
}

func (c *Intermediate) Decode(buf []byte) (payload []byte, consumed int, err error) {
	if len(buf) < 4 {
		return nil, 0, ErrMissingBytes
	}
	length := binary.LittleEndian.Uint32(buf)
	if length > MaxFrameBody {
		return nil, 0, ErrBadLen
	}
	total := 4 + int(length)
	if len(buf) < total {
		return nil, 0, ErrMissingBytes
	}
	out := make([]byte, length)
	copy(out, buf[4:total])
	if status, ok := isBadStatus(out); ok {
		return nil, total, status
	}
	return out, total, nil
}
