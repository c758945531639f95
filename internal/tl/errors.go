package tl

import (
	"errors"
	"fmt"
)

// ErrTooShort is returned when a decode operation needs more bytes than
// remain in the buffer.
var ErrTooShort = errors.New("tl: buffer too short")

// ErrBufferExceeded is returned when a length prefix claims more payload
// than could possibly fit in the remaining buffer.
var ErrBufferExceeded = errors.New("tl: length prefix exceeds buffer")

// ErrMalformedPadding is returned when a bytes/string payload is not
// followed by valid 4-byte alignment padding.
var ErrMalformedPadding = errors.New("tl: malformed padding")

// UnexpectedConstructor is returned by Decoder.ExpectID when the boxed
// constructor id read from the wire does not match what the caller expected.
type UnexpectedConstructor struct {
	Got, Expected uint32
}

func (e *UnexpectedConstructor) Error() string {
	return fmt.Sprintf("tl: unexpected constructor: got %#08x, expected %#08x", e.Got, e.Expected)
}

// UnknownConstructor is returned by a Registry lookup when no decoder is
// registered for the id read from the wire.
type UnknownConstructor struct {
	ID uint32
}

func (e *UnknownConstructor) Error() string {
	return fmt.Sprintf("tl: unknown constructor %#08x", e.ID)
}
