package session

import (
	"crypto/rand"
	"encoding/binary"
	"sync"
	"time"
)

// idState generates strictly monotonic message ids and sequence numbers
// for one session, per MTProto 2.0 §3: the low two bits of a message id
// encode direction (client messages are ≡0 mod 4), and the sequence
// number doubles an internal counter, adding 1 for content-related
// messages.
type idState struct {
	mu         sync.Mutex
	lastMsgID  int64
	seqCounter int32
	timeOffset int32
}

// nextMessageID returns a fresh client-originated message id, derived
// from the current time (adjusted by the session's clock offset) and
// guaranteed strictly greater than every previously generated id.
func (s *idState) nextMessageID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	sec := now.Unix() + int64(s.timeOffset)
	// 32.32 fixed-point Unix time, per MTProto's message-id convention:
	// whole seconds in the high word, a sub-second fraction in the low word.
	fraction := (int64(now.Nanosecond()) << 32) / 1_000_000_000
	id := (sec << 32) | fraction
	id &^= 3 // clear low two bits: client messages are ≡0 mod 4

	if id <= s.lastMsgID {
		id = s.lastMsgID + 4
	}
	s.lastMsgID = id
	return id
}

// nextSeqNo returns the sequence number for a new outgoing message,
// optionally advancing the internal counter for content-related messages.
func (s *idState) nextSeqNo(contentRelated bool) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	seq := s.seqCounter * 2
	if contentRelated {
		seq++
		s.seqCounter++
	}
	return seq
}

func (s *idState) setTimeOffset(offset int32) {
	s.mu.Lock()
	s.timeOffset = offset
	s.mu.Unlock()
}

func (s *idState) resetSeq() {
	s.mu.Lock()
	s.seqCounter = 0
	s.mu.Unlock()
}

func randInt64() int64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic("session: system entropy source failed: " + err.Error())
	}
	return int64(binary.LittleEndian.Uint64(b[:]))
}
