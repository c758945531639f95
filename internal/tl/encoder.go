package tl

import (
	"encoding/binary"
	"math"
)

// Boxed constructor ids for the primitives that always travel boxed.
const (
	BoolTrueID  uint32 = 0x997275B5
	BoolFalseID uint32 = 0xBC799737
	VectorID    uint32 = 0x1CB5C415
)

// Encoder appends TL-encoded values to a growable byte buffer. The zero
// value is ready to use.
type Encoder struct {
	buf []byte
}

// NewEncoder returns an Encoder whose buffer is pre-sized to size bytes.
func NewEncoder(size int) *Encoder {
	return &Encoder{buf: make([]byte, 0, size)}
}

// Finish returns the accumulated buffer. The slice is owned by the
// Encoder and is invalidated by further writes.
func (e *Encoder) Finish() []byte { return e.buf }

// Len reports the number of bytes written so far.
func (e *Encoder) Len() int { return len(e.buf) }

// Raw appends b verbatim, with no length prefix.
func (e *Encoder) Raw(b []byte) { e.buf = append(e.buf, b...) }

// Int32 appends a 4-byte little-endian signed integer.
func (e *Encoder) Int32(v int32) { e.UInt32(uint32(v)) }

// UInt32 appends a 4-byte little-endian unsigned integer.
func (e *Encoder) UInt32(v uint32) {
	e.buf = binary.LittleEndian.AppendUint32(e.buf, v)
}

// Int64 appends an 8-byte little-endian signed integer.
func (e *Encoder) Int64(v int64) { e.UInt64(uint64(v)) }

// UInt64 appends an 8-byte little-endian unsigned integer.
func (e *Encoder) UInt64(v uint64) {
	e.buf = binary.LittleEndian.AppendUint64(e.buf, v)
}

// Int128 appends a 16-byte little-endian integer. v must have length 16.
func (e *Encoder) Int128(v []byte) { e.fixedWidth(v, 16) }

// Int256 appends a 32-byte little-endian integer. v must have length 32.
func (e *Encoder) Int256(v []byte) { e.fixedWidth(v, 32) }

func (e *Encoder) fixedWidth(v []byte, width int) {
	if len(v) != width {
		padded := make([]byte, width)
		copy(padded, v)
		v = padded
	}
	e.buf = append(e.buf, v...)
}

// Double appends an 8-byte little-endian IEEE-754 double.
func (e *Encoder) Double(v float64) {
	e.buf = binary.LittleEndian.AppendUint64(e.buf, math.Float64bits(v))
}

// Bool appends the boxed bool constructor.
func (e *Encoder) Bool(v bool) {
	if v {
		e.UInt32(BoolTrueID)
	} else {
		e.UInt32(BoolFalseID)
	}
}

// Bytes appends a length-prefixed byte string, padded to 4-byte alignment.
//
// Lengths up to 253 use a single length byte; longer payloads use the
// 0xFE-prefixed 24-bit little-endian form.
func (e *Encoder) Bytes(b []byte) {
	start := len(e.buf)
	if len(b) <= 253 {
		e.buf = append(e.buf, byte(len(b)))
		e.buf = append(e.buf, b...)
	} else {
		e.buf = append(e.buf, 254, byte(len(b)), byte(len(b)>>8), byte(len(b)>>16))
		e.buf = append(e.buf, b...)
	}
	written := len(e.buf) - start
	if pad := (4 - written%4) % 4; pad != 0 {
		e.buf = append(e.buf, make([]byte, pad)...)
	}
}

// String appends s as a length-prefixed byte string.
func (e *Encoder) String(s string) { e.Bytes([]byte(s)) }

// BoxedVector appends the boxed vector constructor, an element count, and
// then invokes write for each index in order.
func (e *Encoder) BoxedVector(n int, write func(i int)) {
	e.UInt32(VectorID)
	e.UInt32(uint32(n))
	for i := 0; i < n; i++ {
		write(i)
	}
}

// ID appends a boxed constructor id.
func (e *Encoder) ID(id uint32) { e.UInt32(id) }
