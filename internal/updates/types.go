package updates

import (
	"context"
	"time"
)

// EntryKind names the three update streams MTProto multiplexes pts
// across: the main account stream, the secret-chat stream, and one
// stream per channel.
type EntryKind int

const (
	AccountWide EntryKind = iota
	SecretChats
	ChannelStream
)

// Entry identifies one pts stream. ChannelID is only meaningful when Kind
// is ChannelStream.
type Entry struct {
	Kind      EntryKind
	ChannelID int64
}

func (e Entry) String() string {
	if e.Kind == ChannelStream {
		return "channel"
	}
	if e.Kind == SecretChats {
		return "secret"
	}
	return "account"
}

// RawUpdate is one update as it arrives off the wire: a gap-tracking pts
// pair and the still-undecoded body, left to the caller's schema layer to
// interpret.
type RawUpdate struct {
	Entry    Entry
	Pts      int32
	PtsCount int32
	Body     []byte
}

// Update is what the state box hands to its subscriber once a RawUpdate
// has cleared gap checking (or been recovered via a difference fetch).
type Update struct {
	Entry Entry
	Pts   int32
	Body  []byte
}

// Difference is the result of an updates.getDifference call.
type Difference struct {
	NewPts   int32
	NewQts   int32
	NewDate  int32
	NewSeq   int32
	Updates  []RawUpdate
	TooLong  bool // true if the server wants another round before Final
	Final    bool
}

// ChannelDifference is the result of an updates.getChannelDifference call.
type ChannelDifference struct {
	NewPts  int32
	Updates []RawUpdate
	Final   bool
}

// DifferenceSource is the subset of the schema RPC surface the state box
// needs to recover from a gap or a no-update timeout. A pool or sender
// implements this against the real RPCs; the state box itself has no
// schema awareness.
type DifferenceSource interface {
	GetDifference(ctx context.Context, pts, qts, date int32) (Difference, error)
	GetChannelDifference(ctx context.Context, channelID int64, pts, limit int32) (ChannelDifference, error)
}

// GapWindow is how long the state box waits for a gap to close on its own
// before requesting a difference.
const GapWindow = 500 * time.Millisecond

// NoUpdateTimeout is how long an entry can go without any update before
// the state box preemptively requests a difference for it.
const NoUpdateTimeout = 15 * time.Minute

// ChannelDifferenceLimit returns the message limit to pass to
// updates.getChannelDifference, which differs for bot accounts.
func ChannelDifferenceLimit(isBot bool) int32 {
	if isBot {
		return 100000
	}
	return 100
}
