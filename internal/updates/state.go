package updates

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// entryState is the gap-tracking bookkeeping for one Entry.
type entryState struct {
	pts        int32
	lastSeen   time.Time
	buffered   []RawUpdate
	gapPending bool
	gapTimer   *time.Timer
}

// State is one account's update state box: the pts/qts/seq/date counters
// described in MTProto's updates machinery, plus per-channel pts and the
// buffering/recovery logic that keeps them consistent across gaps.
//
// State has no schema awareness of its own; it drives recovery through
// DifferenceSource, which the owning pool implements against the real
// updates.getDifference / updates.getChannelDifference RPCs.
type State struct {
	mu sync.Mutex

	qts  int32
	seq  int32
	date int32

	entries map[Entry]*entryState

	source DifferenceSource
	out    chan Update
	logger *slog.Logger
	isBot  bool
}

// NewState returns a State that delivers recovered and live updates to
// out, a bounded channel owned by the caller. A full channel causes the
// oldest queued update to be dropped, with a warning logged for every
// dropped update.
func NewState(source DifferenceSource, out chan Update, logger *slog.Logger, isBot bool) *State {
	if logger == nil {
		logger = slog.Default()
	}
	return &State{
		entries: make(map[Entry]*entryState),
		source:  source,
		out:     out,
		logger:  logger.With(slog.String("component", "updates")),
		isBot:   isBot,
	}
}

// Seed installs the account-wide counters a persisted UpdateState
// supplied, along with the account entry's own pts.
func (s *State) Seed(pts, qts, seq, date int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.qts, s.seq, s.date = qts, seq, date
	s.entry(Entry{Kind: AccountWide}).pts = pts
}

// SeedChannel installs a known pts for a channel entry, e.g. read back
// from a sessionstore.
func (s *State) SeedChannel(channelID int64, pts int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entry(Entry{Kind: ChannelStream, ChannelID: channelID}).pts = pts
}

// Snapshot returns the account-wide counters as they stand.
func (s *State) Snapshot() (pts, qts, seq, date int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entry(Entry{Kind: AccountWide}).pts, s.qts, s.seq, s.date
}

func (s *State) entry(e Entry) *entryState {
	es, ok := s.entries[e]
	if !ok {
		es = &entryState{lastSeen: time.Now()}
		s.entries[e] = es
	}
	return es
}

// HandlePts evaluates one pts-carrying update against its entry's stored
// pts. On a clean match it applies and delivers immediately; on a gap it
// buffers and arms the 500ms recovery timer; a duplicate is dropped.
func (s *State) HandlePts(u RawUpdate) {
	s.mu.Lock()
	es := s.entry(u.Entry)
	es.lastSeen = time.Now()

	switch EvaluatePts(es.pts, u.Pts, u.PtsCount) {
	case ActionDrop:
		s.mu.Unlock()
		s.logger.Debug("dropping duplicate update", slog.Int64("pts", int64(u.Pts)))
		return

	case ActionGap:
		es.buffered = append(es.buffered, u)
		pending := es.gapPending
		es.gapPending = true
		if !pending {
			entry := u.Entry
			es.gapTimer = time.AfterFunc(GapWindow, func() { s.recoverGap(entry) })
		}
		s.mu.Unlock()
		return

	default: // ActionApply
		es.pts = u.Pts
		s.mu.Unlock()
		s.deliver(Update{Entry: u.Entry, Pts: u.Pts, Body: u.Body})
		s.drainBuffer(u.Entry)
	}
}

// drainBuffer replays any buffered updates for entry that the latest
// applied pts may have unblocked, in pts order expectation; it stops at
// the first update that still doesn't fit.
func (s *State) drainBuffer(entry Entry) {
	for {
		s.mu.Lock()
		es := s.entries[entry]
		if es == nil || len(es.buffered) == 0 {
			s.mu.Unlock()
			return
		}
		next := es.buffered[0]
		action := EvaluatePts(es.pts, next.Pts, next.PtsCount)
		if action == ActionGap {
			s.mu.Unlock()
			return
		}
		es.buffered = es.buffered[1:]
		if len(es.buffered) == 0 {
			es.gapPending = false
			if es.gapTimer != nil {
				es.gapTimer.Stop()
			}
		}
		if action == ActionDrop {
			s.mu.Unlock()
			continue
		}
		es.pts = next.Pts
		s.mu.Unlock()
		s.deliver(Update{Entry: next.Entry, Pts: next.Pts, Body: next.Body})
	}
}

// HandleSeq evaluates an updates/updatesCombined envelope's overall
// sequence number against the account's stored seq. The individual
// updates it wraps are still run through HandlePts separately; HandleSeq
// only gates the combined-message layer itself.
func (s *State) HandleSeq(seqStart, seq, date int32) Action {
	s.mu.Lock()
	defer s.mu.Unlock()

	action := EvaluateSeq(s.seq, seqStart, seq)
	if action == ActionApply {
		s.seq = seq
		if date > s.date {
			s.date = date
		}
	}
	return action
}

// deliver pushes u to the output channel without blocking; if the
// channel is full, the oldest queued update is dropped to make room.
func (s *State) deliver(u Update) {
	for {
		select {
		case s.out <- u:
			return
		default:
		}
		select {
		case <-s.out:
			s.logger.Warn("update channel full, dropping oldest update")
		default:
			// Channel drained concurrently by the subscriber; retry the send.
		}
	}
}

// recoverGap is invoked after GapWindow elapses without the gap closing
// on its own; it fetches a difference and replays the result.
func (s *State) recoverGap(entry Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if entry.Kind == ChannelStream {
		s.fetchChannelDifference(ctx, entry.ChannelID)
		return
	}
	s.fetchDifference(ctx)
}

func (s *State) fetchDifference(ctx context.Context) {
	s.mu.Lock()
	pts, qts, date := s.entry(Entry{Kind: AccountWide}).pts, s.qts, s.date
	s.mu.Unlock()

	for {
		diff, err := s.source.GetDifference(ctx, pts, qts, date)
		if err != nil {
			s.logger.Warn("updates.getDifference failed", slog.String("error", err.Error()))
			return
		}

		s.mu.Lock()
		s.entry(Entry{Kind: AccountWide}).pts = diff.NewPts
		s.qts, s.date, s.seq = diff.NewQts, diff.NewDate, diff.NewSeq
		pts, qts, date = diff.NewPts, diff.NewQts, diff.NewDate
		s.mu.Unlock()

		for _, u := range diff.Updates {
			s.deliver(Update{Entry: u.Entry, Pts: u.Pts, Body: u.Body})
		}
		s.drainBuffer(Entry{Kind: AccountWide})

		if diff.Final && !diff.TooLong {
			return
		}
	}
}

func (s *State) fetchChannelDifference(ctx context.Context, channelID int64) {
	entry := Entry{Kind: ChannelStream, ChannelID: channelID}
	for {
		s.mu.Lock()
		pts := s.entry(entry).pts
		s.mu.Unlock()

		diff, err := s.source.GetChannelDifference(ctx, channelID, pts, ChannelDifferenceLimit(s.isBot))
		if err != nil {
			s.logger.Warn("updates.getChannelDifference failed",
				slog.Int64("channel_id", channelID), slog.String("error", err.Error()))
			return
		}

		s.mu.Lock()
		s.entry(entry).pts = diff.NewPts
		s.mu.Unlock()

		for _, u := range diff.Updates {
			s.deliver(Update{Entry: u.Entry, Pts: u.Pts, Body: u.Body})
		}
		s.drainBuffer(entry)

		if diff.Final {
			return
		}
	}
}

// Sweep checks every entry against now and kicks off a recovery fetch for
// any that have gone silent longer than NoUpdateTimeout. Call it
// periodically (e.g. from the owning sender's ping ticker).
func (s *State) Sweep(now time.Time) {
	var stale []Entry
	s.mu.Lock()
	for entry, es := range s.entries {
		if now.Sub(es.lastSeen) > NoUpdateTimeout {
			stale = append(stale, entry)
			es.lastSeen = now
		}
	}
	s.mu.Unlock()

	for _, entry := range stale {
		go s.recoverGap(entry)
	}
}
