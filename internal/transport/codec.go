package transport

// Codec frames and unframes payloads for one direction of a connection.
// Implementations are stateful: Abridged and Intermediate send their tag
// only once, and Full tracks per-direction sequence numbers.
type Codec interface {
	// Encode returns payload wrapped in this codec's framing.
	Encode(payload []byte) []byte
	// Decode attempts to parse exactly one frame from the front of buf.
	// On success it returns the frame's payload and the number of bytes
	// consumed. ErrMissingBytes means buf holds an incomplete frame;
	// the caller must read more and retry without discarding buf.
	Decode(buf []byte) (payload []byte, consumed int, err error)
	// WireTag returns the byte sequence the codec writes once at the
	// start of a connection, or nil if it has none (full transport).
	WireTag() []byte
}

func isBadStatus(payload []byte) (BadStatus, bool) {
	if len(payload) != 4 {
		return 0, false
	}
	v := int32(payload[0]) | int32(payload[1])<<8 | int32(payload[2])<<16 | int32(payload[3])<<24
	if v < 0 {
		return BadStatus(v), true
	}
	return 0, false
}
