package session

import (
	"bytes"
	"crypto/rand"
	"testing"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	var authKey [256]byte
	if _, err := rand.Read(authKey[:]); err != nil {
		t.Fatalf("rand.Read: %v", err)
	}
	s := New(authKey, 0)
	s.SetSalt(123456789)
	return s
}

func TestPackUnpackRoundTrip(t *testing.T) {
	s := newTestSession(t)

	body := []byte("ping request body, not a real TL object")
	packet, ids, leftover, err := s.Pack([]Message{{Body: body, ContentRelated: true}})
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	if leftover != nil {
		t.Fatalf("unexpected leftover: %v", leftover)
	}
	if len(ids) != 1 || ids[0] == 0 {
		t.Fatalf("expected one nonzero assigned id, got %v", ids)
	}

	decoded, err := s.Unpack(packet)
	if err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	if len(decoded) != 1 {
		t.Fatalf("got %d decoded messages, want 1", len(decoded))
	}
	if decoded[0].Kind != KindUpdate {
		t.Fatalf("got kind %v, want KindUpdate (body has no recognized constructor)", decoded[0].Kind)
	}
	if !bytes.Equal(decoded[0].Raw, body) {
		t.Fatalf("round-tripped body mismatch: got %q, want %q", decoded[0].Raw, body)
	}
}

func TestPackContainersMultipleMessages(t *testing.T) {
	s := newTestSession(t)

	msgs := []Message{
		{Body: []byte("first"), ContentRelated: true},
		{Body: []byte("second"), ContentRelated: true},
		{Body: []byte("third"), ContentRelated: false},
	}
	packet, ids, leftover, err := s.Pack(msgs)
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	if leftover != nil {
		t.Fatalf("unexpected leftover: %v", leftover)
	}
	for i, id := range ids {
		if id == 0 {
			t.Fatalf("message %d got a zero assigned id", i)
		}
	}

	decoded, err := s.Unpack(packet)
	if err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	if len(decoded) != 3 {
		t.Fatalf("got %d decoded messages, want 3", len(decoded))
	}
	for i, want := range [][]byte{[]byte("first"), []byte("second"), []byte("third")} {
		if !bytes.Equal(decoded[i].Raw, want) {
			t.Fatalf("message %d: got %q, want %q", i, decoded[i].Raw, want)
		}
	}
}

func TestPackContainerMessageCountLimit(t *testing.T) {
	s := newTestSession(t)

	msgs := make([]Message, maxContainerMessages+10)
	for i := range msgs {
		msgs[i] = Message{Body: []byte{byte(i)}, ContentRelated: true}
	}

	packet, ids, leftover, err := s.Pack(msgs)
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	for i := 0; i < maxContainerMessages; i++ {
		if ids[i] == 0 {
			t.Fatalf("fitted message %d got a zero assigned id", i)
		}
	}
	for i := maxContainerMessages; i < len(ids); i++ {
		if ids[i] != 0 {
			t.Fatalf("leftover message %d unexpectedly got assigned id %d", i, ids[i])
		}
	}
	if len(leftover) != 10 {
		t.Fatalf("got %d leftover messages, want 10", len(leftover))
	}

	decoded, err := s.Unpack(packet)
	if err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	if len(decoded) != maxContainerMessages {
		t.Fatalf("got %d decoded messages, want %d", len(decoded), maxContainerMessages)
	}
}

func TestPackNoMessagesIsError(t *testing.T) {
	s := newTestSession(t)
	if _, _, _, err := s.Pack(nil); err != ErrNoMessages {
		t.Fatalf("got %v, want ErrNoMessages", err)
	}
}

func TestUnpackRejectsWrongAuthKey(t *testing.T) {
	s := newTestSession(t)
	other := newTestSession(t)

	packet, _, _, err := s.Pack([]Message{{Body: []byte("hello"), ContentRelated: true}})
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	if _, err := other.Unpack(packet); err != ErrUnknownAuthKey {
		t.Fatalf("got %v, want ErrUnknownAuthKey", err)
	}
}

func TestMessageIDsAreStrictlyMonotonic(t *testing.T) {
	s := newTestSession(t)
	var prev int64
	for i := 0; i < 64; i++ {
		id := s.ids.nextMessageID()
		if id <= prev {
			t.Fatalf("iteration %d: id %d not greater than previous %d", i, id, prev)
		}
		if id&3 != 0 {
			t.Fatalf("iteration %d: id %d has nonzero low bits", i, id)
		}
		prev = id
	}
}

func TestSeqNoDoublesAndIncrementsForContentRelated(t *testing.T) {
	s := newTestSession(t)
	if got := s.ids.nextSeqNo(false); got != 0 {
		t.Fatalf("first non-content seqno: got %d, want 0", got)
	}
	if got := s.ids.nextSeqNo(true); got != 1 {
		t.Fatalf("first content-related seqno: got %d, want 1", got)
	}
	if got := s.ids.nextSeqNo(true); got != 3 {
		t.Fatalf("second content-related seqno: got %d, want 3", got)
	}
	if got := s.ids.nextSeqNo(false); got != 4 {
		t.Fatalf("non-content seqno after two content-related: got %d, want 4", got)
	}
}
