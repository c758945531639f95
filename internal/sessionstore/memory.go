package sessionstore

import (
	"sync"

	"github.com/dantte-lp/gomtproto/internal/dcaddr"
)

// MemoryStore is a Store that keeps everything in process memory. It is
// grounded on grammers-session's memory storage backend: a reference
// implementation good enough for short-lived processes, with nothing
// persisted across restarts.
type MemoryStore struct {
	mu sync.RWMutex

	homeDC int32

	dcOptions map[int32]dcaddr.Option
	authKeys  map[int32][256]byte
	peers     map[PeerID]PeerInfo

	updateState   UpdateState
	haveUpdateState bool
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		dcOptions: make(map[int32]dcaddr.Option),
		authKeys:  make(map[int32][256]byte),
		peers:     make(map[PeerID]PeerInfo),
	}
}

func (m *MemoryStore) HomeDCID() int32 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.homeDC
}

func (m *MemoryStore) SetHomeDCID(id int32) {
	m.mu.Lock()
	m.homeDC = id
	m.mu.Unlock()
}

func (m *MemoryStore) DCOption(id int32) (dcaddr.Option, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	opt, ok := m.dcOptions[id]
	return opt, ok
}

func (m *MemoryStore) SetDCOption(opt dcaddr.Option) {
	m.mu.Lock()
	m.dcOptions[opt.DCID] = opt
	m.mu.Unlock()
}

func (m *MemoryStore) AuthKey(dcID int32) ([256]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	key, ok := m.authKeys[dcID]
	return key, ok
}

func (m *MemoryStore) SetAuthKey(dcID int32, key [256]byte) {
	m.mu.Lock()
	m.authKeys[dcID] = key
	m.mu.Unlock()
}

func (m *MemoryStore) Peer(id PeerID) (PeerInfo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	info, ok := m.peers[id]
	return info, ok
}

func (m *MemoryStore) CachePeer(info PeerInfo) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.peers[info.PeerID]
	if ok && !existing.Min && info.Min {
		// Never let an incomplete "min" hash displace a full one.
		return false
	}
	m.peers[info.PeerID] = info
	return true
}

func (m *MemoryStore) UpdateState() (UpdateState, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.updateState, m.haveUpdateState
}

func (m *MemoryStore) SetUpdateState(state UpdateState) {
	m.mu.Lock()
	m.updateState = state
	m.haveUpdateState = true
	m.mu.Unlock()
}
