package tl

import "sync"

// MaxFrameSize bounds any single decoded frame body handed to the codec,
// matching the transport's own ~1 MiB + 8 KiB ceiling (see internal/transport).
const MaxFrameSize = 1<<20 + 8<<10

// BufferPool hands out reusable byte slices sized for one frame, avoiding
// a fresh allocation on every inbound read or outbound container build.
var BufferPool = sync.Pool{
	New: func() any {
		buf := make([]byte, 0, MaxFrameSize)
		return &buf
	},
}

// GetBuffer returns a zero-length buffer with MaxFrameSize capacity from
// the pool.
func GetBuffer() *[]byte {
	buf := BufferPool.Get().(*[]byte)
	*buf = (*buf)[:0]
	return buf
}

// PutBuffer returns buf to the pool for reuse.
func PutBuffer(buf *[]byte) {
	if cap(*buf) < MaxFrameSize {
		return
	}
	BufferPool.Put(buf)
}
