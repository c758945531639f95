package sender

import (
	"context"
	"crypto/rand"
	"io"
	"net"
	"testing"
	"time"

	"github.com/dantte-lp/gomtproto/internal/session"
	"github.com/dantte-lp/gomtproto/internal/transport"
)

func newTestSender(t *testing.T) (*Sender, *session.Session) {
	t.Helper()
	var authKey [256]byte
	if _, err := rand.Read(authKey[:]); err != nil {
		t.Fatalf("rand.Read: %v", err)
	}
	sess := session.New(authKey, 0)
	sess.SetSalt(42)

	client, server := net.Pipe()
	t.Cleanup(func() { client.Close(); server.Close() })
	go io.Copy(io.Discard, server)

	conn := transport.NewConn(client, &transport.Abridged{})
	return New(1, conn, sess, nil, nil), sess
}

func newPendingCall() *call {
	return &call{body: []byte("x"), resultCh: make(chan Result, 1)}
}

func TestWriteBatchRegistersRealMsgIDs(t *testing.T) {
	s, _ := newTestSender(t)
	c := newPendingCall()

	if err := s.writeBatch([]*call{c}); err != nil {
		t.Fatalf("writeBatch: %v", err)
	}
	if c.msgID == 0 {
		t.Fatalf("call was not assigned a real msg_id")
	}

	s.mu.Lock()
	got, ok := s.pending[c.msgID]
	s.mu.Unlock()
	if !ok || got != c {
		t.Fatalf("pending table not keyed by the assigned msg_id")
	}
}

func TestCompleteResolvesOnlyTheMatchingCall(t *testing.T) {
	s, _ := newTestSender(t)
	a, b := newPendingCall(), newPendingCall()
	s.registerPending([]*call{a, b}, []int64{111, 222})

	s.complete(111, Result{Body: []byte("for a")})

	select {
	case r := <-a.resultCh:
		if string(r.Body) != "for a" {
			t.Fatalf("got body %q, want %q", r.Body, "for a")
		}
	default:
		t.Fatalf("call a was not resolved")
	}

	select {
	case <-b.resultCh:
		t.Fatalf("call b should not have been resolved by a response addressed to a")
	default:
	}

	s.mu.Lock()
	_, stillPending := s.pending[222]
	_, aGone := s.pending[111]
	s.mu.Unlock()
	if !stillPending {
		t.Fatalf("call b should remain pending")
	}
	if aGone {
		t.Fatalf("call a should have been removed from pending once resolved")
	}
}

func TestCompleteIgnoresUnknownMsgID(t *testing.T) {
	s, _ := newTestSender(t)
	// No pending calls registered; a stray response must not panic or block.
	s.complete(999, Result{Body: []byte("nobody is waiting")})
}

func TestRetryReenqueuesUnderTheSameCall(t *testing.T) {
	s, _ := newTestSender(t)
	c := newPendingCall()
	s.registerPending([]*call{c}, []int64{55})

	s.retry(55)

	s.mu.Lock()
	_, stillPending := s.pending[55]
	s.mu.Unlock()
	if stillPending {
		t.Fatalf("retried call should have been removed from pending")
	}

	select {
	case got := <-s.enqueue:
		if got != c {
			t.Fatalf("enqueued a different call than the one retried")
		}
	default:
		t.Fatalf("retried call was not re-enqueued")
	}
}

func TestRetryBelowReenqueuesOnlyStaleCalls(t *testing.T) {
	s, _ := newTestSender(t)
	old, recent := newPendingCall(), newPendingCall()
	s.registerPending([]*call{old, recent}, []int64{100, 200})

	s.retryBelow(150)

	select {
	case got := <-s.enqueue:
		if got != old {
			t.Fatalf("enqueued a different call than the stale one")
		}
	default:
		t.Fatalf("stale call was not re-enqueued")
	}

	s.mu.Lock()
	_, oldStillPending := s.pending[100]
	_, recentStillPending := s.pending[200]
	s.mu.Unlock()
	if oldStillPending {
		t.Fatalf("stale call should have been removed from pending under its old id")
	}
	if !recentStillPending {
		t.Fatalf("recent call should remain pending")
	}
}

func TestHandleBadMsgNotificationRetriesByBadMsgID(t *testing.T) {
	s, _ := newTestSender(t)
	c := newPendingCall()
	s.registerPending([]*call{c}, []int64{7})

	s.handleBadMsg(0, session.BadMsgNotification{BadMsgID: 7, ErrorCode: 32})

	select {
	case got := <-s.enqueue:
		if got != c {
			t.Fatalf("enqueued a different call than the one named by BadMsgID")
		}
	default:
		t.Fatalf("call was not retried after bad_msg_notification")
	}
}

func TestHandleBadMsgNotificationCorrectsClockSkewAndRetries(t *testing.T) {
	s, sess := newTestSender(t)
	c := newPendingCall()
	s.registerPending([]*call{c}, []int64{7})

	skewedServerMsgID := time.Now().Add(90 * time.Second).Unix() << 32
	s.handleBadMsg(skewedServerMsgID, session.BadMsgNotification{BadMsgID: 7, ErrorCode: 16})

	select {
	case <-s.enqueue:
	default:
		t.Fatalf("call was not retried after bad_msg_notification")
	}

	_, ids, _, err := sess.Pack([]session.Message{{Body: []byte("x"), ContentRelated: false}})
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	wantSec := time.Now().Add(90 * time.Second).Unix()
	gotSec := ids[0] >> 32
	if gotSec < wantSec-2 || gotSec > wantSec+2 {
		t.Fatalf("got message id sec %d, want near %d after time offset correction", gotSec, wantSec)
	}
}

func TestHandleRPCErrorSurfacesOrdinaryErrors(t *testing.T) {
	s, _ := newTestSender(t)
	c := newPendingCall()
	s.registerPending([]*call{c}, []int64{9})

	s.handleRPCError(9, 400, "PEER_ID_INVALID")

	select {
	case r := <-c.resultCh:
		rpcErr, ok := r.Err.(*RPCError)
		if !ok {
			t.Fatalf("got %T, want *RPCError", r.Err)
		}
		if rpcErr.Code != 400 {
			t.Fatalf("got code %d, want 400", rpcErr.Code)
		}
	default:
		t.Fatalf("call was not resolved")
	}
}

func TestHandleRPCErrorSurfacesFloodWaitBeyondThreshold(t *testing.T) {
	s, _ := newTestSender(t)
	s.floodPolicy = FloodPolicy{Threshold: time.Second}
	c := newPendingCall()
	s.registerPending([]*call{c}, []int64{9})

	s.handleRPCError(9, 420, "FLOOD_WAIT_3600")

	select {
	case r := <-c.resultCh:
		if _, ok := r.Err.(*FloodWaitError); !ok {
			t.Fatalf("got %T, want *FloodWaitError", r.Err)
		}
	default:
		t.Fatalf("call was not resolved with the flood-wait error")
	}
}

func TestHandleRPCErrorAutoRetriesShortFloodWait(t *testing.T) {
	s, _ := newTestSender(t)
	s.floodPolicy = FloodPolicy{Threshold: time.Minute}
	c := newPendingCall()
	s.registerPending([]*call{c}, []int64{9})

	s.handleRPCError(9, 420, "FLOOD_WAIT_0")

	select {
	case got := <-s.enqueue:
		if got != c {
			t.Fatalf("enqueued a different call than the one flood-waited")
		}
	case <-time.After(time.Second):
		t.Fatalf("call was not re-enqueued after a short flood wait")
	}

	select {
	case <-c.resultCh:
		t.Fatalf("an auto-retried call must not also be resolved to its caller")
	default:
	}
}

func TestCloseDropsAllPendingCalls(t *testing.T) {
	s, _ := newTestSender(t)
	a, b := newPendingCall(), newPendingCall()
	s.registerPending([]*call{a, b}, []int64{1, 2})

	s.Close()

	for i, c := range []*call{a, b} {
		select {
		case r := <-c.resultCh:
			if r.Err != ErrDropped {
				t.Fatalf("call %d: got err %v, want ErrDropped", i, r.Err)
			}
		default:
			t.Fatalf("call %d was not dropped on Close", i)
		}
	}
}

func TestInvokeReturnsDroppedAfterClose(t *testing.T) {
	s, _ := newTestSender(t)
	s.Close()

	_, err := s.Invoke(context.Background(), []byte("anything"), true)
	if err != ErrDropped {
		t.Fatalf("got %v, want ErrDropped", err)
	}
}

func TestInvokeRespectsContextCancellation(t *testing.T) {
	s, _ := newTestSender(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Invoke(ctx, []byte("anything"), true)
	if err != context.Canceled {
		t.Fatalf("got %v, want context.Canceled", err)
	}
}

func TestClassifyRPCErrorParsesMigrateAndFloodWait(t *testing.T) {
	if err := classifyRPCError(303, "PHONE_MIGRATE_2"); err == nil {
		t.Fatalf("expected a MigrateError")
	} else if m, ok := err.(*MigrateError); !ok || m.Kind != "PHONE" || m.DCID != 2 {
		t.Fatalf("got %#v, want MigrateError{PHONE, 2}", err)
	}
	if err := classifyRPCError(420, "FLOOD_WAIT_30"); err == nil {
		t.Fatalf("expected a FloodWaitError")
	} else if f, ok := err.(*FloodWaitError); !ok || f.Seconds != 30 {
		t.Fatalf("got %#v, want FloodWaitError{30}", err)
	}
	if err := classifyRPCError(400, "SOMETHING_ELSE"); err == nil {
		t.Fatalf("expected a plain RPCError")
	} else if _, ok := err.(*RPCError); !ok {
		t.Fatalf("got %#v, want *RPCError", err)
	}
}
