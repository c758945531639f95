package updates

import (
	"context"
	"testing"
	"time"
)

type stubSource struct {
	diff        Difference
	channelDiff ChannelDifference
}

func (s stubSource) GetDifference(ctx context.Context, pts, qts, date int32) (Difference, error) {
	return s.diff, nil
}

func (s stubSource) GetChannelDifference(ctx context.Context, channelID int64, pts, limit int32) (ChannelDifference, error) {
	return s.channelDiff, nil
}

func TestHandlePtsAppliesInOrderUpdate(t *testing.T) {
	out := make(chan Update, 4)
	st := NewState(stubSource{}, out, nil, false)
	entry := Entry{Kind: AccountWide}

	st.HandlePts(RawUpdate{Entry: entry, Pts: 5, PtsCount: 5, Body: []byte("a")})

	select {
	case u := <-out:
		if u.Pts != 5 {
			t.Fatalf("got pts %d, want 5", u.Pts)
		}
	default:
		t.Fatal("expected an update to be delivered")
	}

	pts, _, _, _ := st.Snapshot()
	if pts != 5 {
		t.Fatalf("stored pts %d, want 5", pts)
	}
}

func TestHandlePtsDropsDuplicate(t *testing.T) {
	out := make(chan Update, 4)
	st := NewState(stubSource{}, out, nil, false)
	entry := Entry{Kind: AccountWide}
	st.Seed(10, 0, 0, 0)

	st.HandlePts(RawUpdate{Entry: entry, Pts: 10, PtsCount: 3, Body: []byte("dup")})

	select {
	case u := <-out:
		t.Fatalf("expected no delivery for a duplicate, got %+v", u)
	default:
	}
}

func TestHandlePtsBuffersGapThenDrainsOnFollowUp(t *testing.T) {
	out := make(chan Update, 4)
	st := NewState(stubSource{}, out, nil, false)
	entry := Entry{Kind: AccountWide}

	// pts jumps from 0 straight to 10: a gap, buffered rather than applied.
	st.HandlePts(RawUpdate{Entry: entry, Pts: 10, PtsCount: 1, Body: []byte("late")})
	select {
	case u := <-out:
		t.Fatalf("gap update should not be delivered yet, got %+v", u)
	default:
	}

	es := st.entries[entry]
	if es == nil || len(es.buffered) != 1 {
		t.Fatalf("expected one buffered update, got %+v", es)
	}
	if es.gapTimer != nil {
		es.gapTimer.Stop() // avoid a background recovery fetch outliving the test
	}

	// The missing prefix arrives: applying it should also drain the buffer.
	st.HandlePts(RawUpdate{Entry: entry, Pts: 9, PtsCount: 9, Body: nil})

	var last Update
	timeout := time.After(time.Second)
	for i := 0; i < 2; i++ {
		select {
		case last = <-out:
		case <-timeout:
			t.Fatalf("expected two deliveries (prefix + drained gap), got %d", i)
		}
	}
	if last.Pts != 10 {
		t.Fatalf("last delivery pts %d, want 10 (the drained buffered update)", last.Pts)
	}
}

func TestNeverAppliesSamePtsTwiceAfterDifferenceRecovery(t *testing.T) {
	out := make(chan Update, 4)
	source := stubSource{diff: Difference{
		NewPts: 20, NewQts: 0, NewDate: 0, NewSeq: 0,
		Updates: []RawUpdate{{Entry: Entry{Kind: AccountWide}, Pts: 20, Body: []byte("recovered")}},
		Final:   true,
	}}
	st := NewState(source, out, nil, false)
	st.fetchDifference(context.Background())

	select {
	case u := <-out:
		if u.Pts != 20 {
			t.Fatalf("got pts %d, want 20", u.Pts)
		}
	default:
		t.Fatal("expected the recovered update to be delivered")
	}

	// A duplicate of the already-recovered pts must now be dropped.
	st.HandlePts(RawUpdate{Entry: Entry{Kind: AccountWide}, Pts: 20, PtsCount: 1, Body: []byte("dup")})
	select {
	case u := <-out:
		t.Fatalf("expected the post-recovery duplicate to be dropped, got %+v", u)
	default:
	}
}
