package sender

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/dantte-lp/gomtproto/internal/session"
	"github.com/dantte-lp/gomtproto/internal/transport"
)

const (
	pingInterval   = 60 * time.Second
	pingTimeout    = 2 * pingInterval
	enqueueBuffer  = 256
	maxWriterBatch = 64
)

// Result is the outcome of one invoked RPC.
type Result struct {
	Body []byte
	Err  error
}

// call tracks one request from Enqueued through to completion.
type call struct {
	body           []byte
	contentRelated bool
	resultCh       chan Result

	msgID    int64 // the real session-assigned msg_id once written
	attempts int
}

// Sender owns one transport connection, one MTProto session, and the
// pending-call table for it: pending calls are keyed by the actual
// MTProto message id Pack assigned them, which is exactly what a
// subsequent rpc_result, bad_server_salt, or bad_msg_notification
// references back. Callers submit work with Invoke; Run drives the
// reader and writer loops until ctx is cancelled or the connection is
// abandoned.
type Sender struct {
	DCID int32

	conn *transport.Conn
	sess *session.Session

	logger *slog.Logger

	enqueue chan *call
	updates chan<- []byte // raw update bodies, wired only for the home sender

	mu      sync.Mutex
	pending map[int64]*call

	floodPolicy FloodPolicy

	lastPong   time.Time
	pingNonces map[int64]time.Time

	closeOnce sync.Once
	closed    chan struct{}
}

// New wraps conn and sess into a Sender for dcID. updates may be nil for
// a non-home sender, which never forwards updates.
func New(dcID int32, conn *transport.Conn, sess *session.Session, updates chan<- []byte, logger *slog.Logger) *Sender {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sender{
		DCID:        dcID,
		conn:        conn,
		sess:        sess,
		logger:      logger.With(slog.Int("dc_id", int(dcID))),
		enqueue:     make(chan *call, enqueueBuffer),
		updates:     updates,
		pending:     make(map[int64]*call),
		floodPolicy: DefaultFloodPolicy(),
		pingNonces:  make(map[int64]time.Time),
		closed:      make(chan struct{}),
	}
}

// SetFloodPolicy overrides the sender's default FloodPolicy. Callers
// should set it before the first Invoke; it is not safe for concurrent
// use with Invoke or Run.
func (s *Sender) SetFloodPolicy(p FloodPolicy) {
	s.floodPolicy = p
}

// Invoke enqueues body and blocks until a result arrives, ctx is done, or
// the Sender shuts down.
func (s *Sender) Invoke(ctx context.Context, body []byte, contentRelated bool) (Result, error) {
	c := &call{body: body, contentRelated: contentRelated, resultCh: make(chan Result, 1)}
	select {
	case s.enqueue <- c:
	case <-s.closed:
		return Result{}, ErrDropped
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}

	select {
	case r := <-c.resultCh:
		return r, r.Err
	case <-s.closed:
		return Result{}, ErrDropped
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Run drives the reader and writer loops until ctx is cancelled. It
// returns the error that ended the connection, if any.
func (s *Sender) Run(ctx context.Context) error {
	errCh := make(chan error, 2)
	go func() { errCh <- s.writeLoop(ctx) }()
	go func() { errCh <- s.readLoop(ctx) }()

	var firstErr error
	for i := 0; i < 2; i++ {
		// Only the loop that stopped first reports why: once it has,
		// Close unblocks the other (a reader parked in ReadFrame), whose
		// error is then just the closed connection.
		if err := <-errCh; err != nil && i == 0 {
			firstErr = err
		}
		s.Close()
	}
	return firstErr
}

// Close shuts the Sender down, surfacing ErrDropped to every still
// pending call.
func (s *Sender) Close() {
	s.closeOnce.Do(func() {
		close(s.closed)
		s.conn.Close()

		s.mu.Lock()
		pending := s.pending
		s.pending = nil
		s.mu.Unlock()

		for _, c := range pending {
			c.resultCh <- Result{Err: ErrDropped}
		}
	})
}

func (s *Sender) writeLoop(ctx context.Context) error {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.closed:
			return nil
		case <-ticker.C:
			if err := s.sendPing(); err != nil {
				return err
			}
		case c := <-s.enqueue:
			batch := []*call{c}
			batch = drainUpTo(s.enqueue, batch, maxWriterBatch)
			if err := s.writeBatch(batch); err != nil {
				return err
			}
		}
	}
}

// drainUpTo opportunistically collects any calls already queued, up to
// limit, so a burst of Invoke calls shares one container.
func drainUpTo(ch chan *call, batch []*call, limit int) []*call {
	for len(batch) < limit {
		select {
		case c := <-ch:
			batch = append(batch, c)
		default:
			return batch
		}
	}
	return batch
}

// writeBatch packs batch into one or more frames (Pack folds as much as
// fits into a single container, carrying the rest over to the next
// iteration) and registers each sent call under the real msg_id Pack
// assigned it.
func (s *Sender) writeBatch(batch []*call) error {
	for len(batch) > 0 {
		msgs := make([]session.Message, len(batch))
		for i, c := range batch {
			msgs[i] = session.Message{Body: c.body, ContentRelated: c.contentRelated}
		}

		packet, ids, leftoverMsgs, err := s.sess.Pack(msgs)
		if err != nil {
			return err
		}
		if err := s.conn.WriteFrame(packet); err != nil {
			return err
		}

		sent := len(batch) - len(leftoverMsgs)
		s.registerPending(batch[:sent], ids[:sent])
		batch = batch[sent:]
	}
	return nil
}

func (s *Sender) registerPending(batch []*call, ids []int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		for _, c := range batch {
			c.resultCh <- Result{Err: ErrDropped}
		}
		return
	}
	for i, c := range batch {
		c.msgID = ids[i]
		c.attempts++
		s.pending[c.msgID] = c
	}
}

func randInt64() int64 {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return int64(binary.LittleEndian.Uint64(b[:]))
}

func (s *Sender) sendPing() error {
	pingID := randInt64()
	s.mu.Lock()
	s.pingNonces[pingID] = time.Now()
	if time.Since(s.lastPong) > pingTimeout && !s.lastPong.IsZero() {
		s.mu.Unlock()
		return errors.New("sender: two consecutive pongs missed, connection considered dead")
	}
	s.mu.Unlock()

	packet, _, _, err := s.sess.Pack([]session.Message{{Body: session.EncodePing(pingID), ContentRelated: false}})
	if err != nil {
		return err
	}
	return s.conn.WriteFrame(packet)
}

func (s *Sender) readLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.closed:
			return nil
		default:
		}

		frame, err := s.conn.ReadFrame()
		if err != nil {
			return err
		}
		decoded, err := s.sess.Unpack(frame)
		if err != nil {
			s.logger.Warn("dropping undecodable frame", slog.String("error", err.Error()))
			continue
		}
		for _, d := range decoded {
			s.handle(d)
		}
	}
}

func (s *Sender) handle(d session.Decoded) {
	switch d.Kind {
	case session.KindRPCResult:
		s.sess.QueueAck(d.MsgID)
		s.complete(d.ReqMsgID, Result{Body: d.Result})
	case session.KindRPCError:
		s.sess.QueueAck(d.MsgID)
		s.handleRPCError(d.ReqMsgID, d.RPCErr.Code, d.RPCErr.Message)
	case session.KindBadServerSalt:
		s.sess.SetSalt(d.BadServerSalt.NewSalt)
		s.retry(d.BadServerSalt.BadMsgID)
	case session.KindBadMsgNotification:
		s.handleBadMsg(d.MsgID, d.BadMsgNotification)
	case session.KindNewSessionCreated:
		s.sess.SetSalt(d.FirstSalt)
		s.retryBelow(d.FirstMsgID)
		s.forwardUpdate(d.Raw)
	case session.KindPong:
		pong, err := session.DecodePong(d.Raw)
		if err == nil {
			s.mu.Lock()
			if _, ok := s.pingNonces[pong.PingID]; ok {
				delete(s.pingNonces, pong.PingID)
				s.lastPong = time.Now()
			}
			s.mu.Unlock()
		}
	case session.KindUpdate:
		s.forwardUpdate(d.Raw)
	case session.KindMsgDetailedInfo:
		s.sess.QueueAck(d.MsgID)
	case session.KindMsgsAck, session.KindFutureSalts:
		// Informational; no pending-call action required.
	}
}

// forwardUpdate hands a raw, still-undecoded update (or opaque new-session
// signal) to the caller-supplied channel, dropping it if the caller isn't
// keeping up rather than blocking the read loop.
func (s *Sender) forwardUpdate(raw []byte) {
	if s.updates == nil {
		return
	}
	select {
	case s.updates <- raw:
	default:
		s.logger.Warn("update channel full, dropping update")
	}
}

// handleRPCError classifies an rpc_error and either resolves the waiting
// caller directly or, for a FLOOD_WAIT within the configured policy's
// threshold, sleeps it out and retransmits the call automatically.
func (s *Sender) handleRPCError(msgID int64, code int32, message string) {
	err := classifyRPCError(code, message)
	flood, ok := err.(*FloodWaitError)
	if !ok {
		s.complete(msgID, Result{Err: err})
		return
	}
	wait, shouldWait := s.floodPolicy.ShouldWait(flood.Seconds)
	if !shouldWait {
		s.complete(msgID, Result{Err: err})
		return
	}

	s.mu.Lock()
	c, ok := s.pending[msgID]
	if ok {
		delete(s.pending, msgID)
	}
	s.mu.Unlock()
	if !ok {
		return
	}
	go func() {
		select {
		case <-time.After(wait):
		case <-s.closed:
			c.resultCh <- Result{Err: ErrDropped}
			return
		}
		select {
		case s.enqueue <- c:
		case <-s.closed:
			c.resultCh <- Result{Err: ErrDropped}
		}
	}()
}

// complete resolves the pending call registered under msgID, if any. A
// response for a call this Sender no longer tracks (already dropped, or
// a retransmit already completed it under a newer id) is discarded
// silently, matching MTProto's lack of a cancel primitive.
func (s *Sender) complete(msgID int64, r Result) {
	s.mu.Lock()
	c, ok := s.pending[msgID]
	if ok {
		delete(s.pending, msgID)
	}
	s.mu.Unlock()
	if ok {
		c.resultCh <- r
	}
}

// retry re-enqueues the call registered under msgID under a fresh id,
// per the Enqueued -> InFlight -> Retry lifecycle triggered by
// bad_server_salt and clock/seq bad_msg_notification codes.
func (s *Sender) retry(msgID int64) {
	s.mu.Lock()
	c, ok := s.pending[msgID]
	if ok {
		delete(s.pending, msgID)
	}
	s.mu.Unlock()
	if !ok {
		return
	}
	select {
	case s.enqueue <- c:
	case <-s.closed:
		c.resultCh <- Result{Err: ErrDropped}
	}
}

// handleBadMsg reacts to a bad_msg_notification. serverMsgID is the
// notification's own outer message id, a genuine server timestamp used to
// correct clock skew for codes 16/17.
func (s *Sender) handleBadMsg(serverMsgID int64, n session.BadMsgNotification) {
	switch n.ErrorCode {
	case 16, 17:
		offset := int32((serverMsgID >> 32) - time.Now().Unix())
		s.sess.SetTimeOffset(offset)
	case 32, 33:
		s.sess.ResetSeq()
	}
	s.retry(n.BadMsgID)
}

// retryBelow re-enqueues every pending call whose msg_id predates
// firstMsgID under a fresh id, per new_session_created's contract that such
// calls will never be answered under their original one.
func (s *Sender) retryBelow(firstMsgID int64) {
	s.mu.Lock()
	var stale []*call
	for id, c := range s.pending {
		if id < firstMsgID {
			stale = append(stale, c)
			delete(s.pending, id)
		}
	}
	s.mu.Unlock()
	for _, c := range stale {
		select {
		case s.enqueue <- c:
		case <-s.closed:
			c.resultCh <- Result{Err: ErrDropped}
		}
	}
}
