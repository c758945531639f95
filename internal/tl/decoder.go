package tl

import (
	"encoding/binary"
	"math"
)

// Decoder reads TL-encoded values out of a byte slice it does not own.
// Every read advances an internal cursor; a fixed-width read past the end
// of buf returns ErrTooShort and leaves the cursor unchanged. A failed
// Bytes or String read can leave the cursor past the length prefix.
type Decoder struct {
	buf []byte
	pos int
}

// NewDecoder wraps buf for sequential decoding.
func NewDecoder(buf []byte) *Decoder { return &Decoder{buf: buf} }

// Remaining returns the number of unconsumed bytes.
func (d *Decoder) Remaining() int { return len(d.buf) - d.pos }

// Pos returns the current cursor offset.
func (d *Decoder) Pos() int { return d.pos }

// Rest returns every byte not yet consumed, without advancing the cursor.
func (d *Decoder) Rest() []byte { return d.buf[d.pos:] }

func (d *Decoder) take(n int) ([]byte, error) {
	if d.Remaining() < n {
		return nil, ErrTooShort
	}
	b := d.buf[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}

// Int32 reads a 4-byte little-endian signed integer.
func (d *Decoder) Int32() (int32, error) {
	v, err := d.UInt32()
	return int32(v), err
}

// UInt32 reads a 4-byte little-endian unsigned integer.
func (d *Decoder) UInt32() (uint32, error) {
	b, err := d.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// Int64 reads an 8-byte little-endian signed integer.
func (d *Decoder) Int64() (int64, error) {
	v, err := d.UInt64()
	return int64(v), err
}

// UInt64 reads an 8-byte little-endian unsigned integer.
func (d *Decoder) UInt64() (uint64, error) {
	b, err := d.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// TakeRaw reads n bytes verbatim, with no length prefix or alignment
// padding. Used for wire shapes that carry their own externally-known
// length, such as msg_container entries.
func (d *Decoder) TakeRaw(n int) ([]byte, error) { return d.take(n) }

// Int128 reads a 16-byte little-endian integer, returned as raw bytes.
func (d *Decoder) Int128() ([]byte, error) { return d.take(16) }

// Int256 reads a 32-byte little-endian integer, returned as raw bytes.
func (d *Decoder) Int256() ([]byte, error) { return d.take(32) }

// Double reads an 8-byte little-endian IEEE-754 double.
func (d *Decoder) Double() (float64, error) {
	v, err := d.UInt64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

// Bool reads a boxed bool constructor.
func (d *Decoder) Bool() (bool, error) {
	id, err := d.UInt32()
	if err != nil {
		return false, err
	}
	switch id {
	case BoolTrueID:
		return true, nil
	case BoolFalseID:
		return false, nil
	default:
		return false, &UnexpectedConstructor{Got: id, Expected: BoolTrueID}
	}
}

// Bytes reads a length-prefixed byte string and consumes its alignment
// padding.
func (d *Decoder) Bytes() ([]byte, error) {
	start := d.pos
	lb, err := d.take(1)
	if err != nil {
		return nil, err
	}
	var length int
	if lb[0] == 254 {
		rest, err := d.take(3)
		if err != nil {
			return nil, err
		}
		length = int(rest[0]) | int(rest[1])<<8 | int(rest[2])<<16
	} else {
		length = int(lb[0])
	}
	if length < 0 || length > d.Remaining() {
		return nil, ErrBufferExceeded
	}
	payload, err := d.take(length)
	if err != nil {
		return nil, err
	}
	out := make([]byte, length)
	copy(out, payload)
	written := d.pos - start
	if pad := (4 - written%4) % 4; pad != 0 {
		if _, err := d.take(pad); err != nil {
			return nil, ErrMalformedPadding
		}
	}
	return out, nil
}

// String reads a length-prefixed byte string as a Go string.
func (d *Decoder) String() (string, error) {
	b, err := d.Bytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ExpectID reads a boxed constructor id and verifies it matches want.
func (d *Decoder) ExpectID(want uint32) error {
	got, err := d.UInt32()
	if err != nil {
		return err
	}
	if got != want {
		d.pos -= 4
		return &UnexpectedConstructor{Got: got, Expected: want}
	}
	return nil
}

// PeekID reads a boxed constructor id without advancing the cursor.
func (d *Decoder) PeekID() (uint32, error) {
	if d.Remaining() < 4 {
		return 0, ErrTooShort
	}
	return binary.LittleEndian.Uint32(d.buf[d.pos : d.pos+4]), nil
}

// Vector reads a boxed vector header and invokes read once per element.
func (d *Decoder) Vector(read func(i int) error) (int, error) {
	if err := d.ExpectID(VectorID); err != nil {
		return 0, err
	}
	count, err := d.UInt32()
	if err != nil {
		return 0, err
	}
	for i := 0; i < int(count); i++ {
		if err := read(i); err != nil {
			return i, err
		}
	}
	return int(count), nil
}
