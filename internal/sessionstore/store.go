package sessionstore

import "github.com/dantte-lp/gomtproto/internal/dcaddr"

// PeerKind distinguishes the three peer families Telegram's schema uses
// for access-hash purposes.
type PeerKind int

const (
	PeerUser PeerKind = iota
	PeerChat
	PeerChannel
)

// PeerID identifies a peer independent of which field of the schema's
// Peer union it travels in.
type PeerID struct {
	Kind PeerKind
	ID   int64
}

// PeerInfo is one cached peer access hash. Min marks a hash obtained from
// a "min" constructor, which carries incomplete information and must
// never overwrite a previously cached full hash.
type PeerInfo struct {
	PeerID
	AccessHash int64
	Min        bool
}

// UpdateState is the account-wide position in the update stream, as
// tracked by internal/updates.
type UpdateState struct {
	Pts  int32
	Qts  int32
	Date int32
	Seq  int32
}

// Store is everything a pool needs to persist and recover: which
// datacenter is home, the address and auth key material for every known
// datacenter, cached peer access hashes, and the update state box.
//
// Implementations must be safe for concurrent use.
type Store interface {
	HomeDCID() int32
	SetHomeDCID(id int32)

	DCOption(id int32) (dcaddr.Option, bool)
	SetDCOption(opt dcaddr.Option)

	AuthKey(dcID int32) ([256]byte, bool)
	SetAuthKey(dcID int32, key [256]byte)

	Peer(id PeerID) (PeerInfo, bool)
	// CachePeer stores info, rejecting a min hash that would overwrite an
	// already-cached full hash. It reports whether the cache changed.
	CachePeer(info PeerInfo) bool

	UpdateState() (UpdateState, bool)
	SetUpdateState(state UpdateState)
}
