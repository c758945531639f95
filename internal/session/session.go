package session

import (
	"sync"
	"time"

	"github.com/dantte-lp/gomtproto/internal/mtcrypto"
)

// SaltLifetime is how long a server salt remains valid once received,
// matching Telegram's ~30 minute rotation window.
const SaltLifetime = 30 * time.Minute

// Salt is a server salt together with the time it was learned, so a
// Session can tell when it is due for renewal via get_future_salts.
type Salt struct {
	Value     int64
	IssuedAt  time.Time
}

func (s Salt) expired(now time.Time) bool { return now.Sub(s.IssuedAt) > SaltLifetime }

// Session is the MTProto message layer for one sender: one auth key, one
// session id, and the mutable bits (salt, clock offset, sequence
// counters, pending acks) that Pack and Unpack share.
type Session struct {
	authKey   [256]byte
	authKeyID int64

	ids idState

	mu              sync.Mutex
	sessionID       int64
	salt            Salt
	pendingAcks     []int64
	lastServerMsgID int64
}

// New builds a Session bound to authKey with a fresh random session id.
// timeOffset is the server-clock offset learned during the handshake.
func New(authKey [256]byte, timeOffset int32) *Session {
	s := &Session{
		authKey:   authKey,
		authKeyID: authKeyID(authKey),
		sessionID: randInt64(),
	}
	s.ids.setTimeOffset(timeOffset)
	return s
}

func authKeyID(authKey [256]byte) int64 {
	sum := mtcrypto.SHA1(authKey[:])
	return int64(uint64(sum[12])<<56 | uint64(sum[13])<<48 | uint64(sum[14])<<40 | uint64(sum[15])<<32 |
		uint64(sum[16])<<24 | uint64(sum[17])<<16 | uint64(sum[18])<<8 | uint64(sum[19]))
}

// SetSalt installs a freshly learned server salt.
func (s *Session) SetSalt(value int64) {
	s.mu.Lock()
	s.salt = Salt{Value: value, IssuedAt: time.Now()}
	s.mu.Unlock()
}

// CurrentSalt returns the session's current salt value.
func (s *Session) CurrentSalt() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.salt.Value
}

// SaltExpired reports whether the current salt is due for renewal.
func (s *Session) SaltExpired() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.salt.expired(time.Now())
}

// SessionID returns the session's 64-bit identifier.
func (s *Session) SessionID() int64 { return s.sessionID }

// SetTimeOffset updates the clock offset used for future message ids,
// e.g. after a bad_msg_notification code 16/17.
func (s *Session) SetTimeOffset(offset int32) { s.ids.setTimeOffset(offset) }

// ResetSeq resets the sequence counter, e.g. after a bad_msg_notification
// code 32/33.
func (s *Session) ResetSeq() { s.ids.resetSeq() }

// QueueAck marks msgID as needing acknowledgement on the next outgoing
// container.
func (s *Session) QueueAck(msgID int64) {
	s.mu.Lock()
	s.pendingAcks = append(s.pendingAcks, msgID)
	s.mu.Unlock()
}

// checkServerMsgID rejects a decrypted message id that is zero or that
// regresses behind the session's high-water mark. Equal ids are tolerated:
// a server may resend the same container.
func (s *Session) checkServerMsgID(msgID int64) error {
	if msgID == 0 {
		return ErrImplausibleMsgID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if msgID < s.lastServerMsgID {
		return ErrMsgIDNotMonotonic
	}
	s.lastServerMsgID = msgID
	return nil
}

// drainAcks empties and returns the pending ack set.
func (s *Session) drainAcks() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pendingAcks) == 0 {
		return nil
	}
	acks := s.pendingAcks
	s.pendingAcks = nil
	return acks
}
