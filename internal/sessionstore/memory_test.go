package sessionstore

import "testing"

func TestCachePeerRejectsMinOverFull(t *testing.T) {
	s := NewMemoryStore()
	id := PeerID{Kind: PeerUser, ID: 42}

	if !s.CachePeer(PeerInfo{PeerID: id, AccessHash: 111, Min: false}) {
		t.Fatal("expected full hash to be cached")
	}
	if s.CachePeer(PeerInfo{PeerID: id, AccessHash: 222, Min: true}) {
		t.Fatal("min hash must not overwrite a cached full hash")
	}

	got, ok := s.Peer(id)
	if !ok || got.AccessHash != 111 {
		t.Fatalf("got %+v, want the original full hash preserved", got)
	}
}

func TestCachePeerAllowsFullOverMin(t *testing.T) {
	s := NewMemoryStore()
	id := PeerID{Kind: PeerChannel, ID: 7}

	s.CachePeer(PeerInfo{PeerID: id, AccessHash: 1, Min: true})
	if !s.CachePeer(PeerInfo{PeerID: id, AccessHash: 2, Min: false}) {
		t.Fatal("expected a full hash to replace a min hash")
	}

	got, _ := s.Peer(id)
	if got.AccessHash != 2 || got.Min {
		t.Fatalf("got %+v, want the full hash to have won", got)
	}
}

func TestUpdateStateRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	if _, ok := s.UpdateState(); ok {
		t.Fatal("expected no update state before one is set")
	}
	s.SetUpdateState(UpdateState{Pts: 10, Qts: 1, Date: 100, Seq: 3})
	got, ok := s.UpdateState()
	if !ok || got.Pts != 10 {
		t.Fatalf("got %+v, ok=%v", got, ok)
	}
}
