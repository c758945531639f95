package handshake

import "testing"

func TestApplyEventHappyPath(t *testing.T) {
	state := AwaitingPq

	res := ApplyEvent(state, EventResPQ)
	if !res.Changed || res.NewState != AwaitingDh {
		t.Fatalf("ResPQ: %+v", res)
	}
	state = res.NewState

	res = ApplyEvent(state, EventServerDHParamsOk)
	if !res.Changed || res.NewState != AwaitingResult {
		t.Fatalf("ServerDHParamsOk: %+v", res)
	}
	state = res.NewState

	res = ApplyEvent(state, EventDHGenOk)
	if !res.Changed || res.NewState != Done {
		t.Fatalf("DHGenOk: %+v", res)
	}
}

func TestApplyEventRetryLoopsBack(t *testing.T) {
	res := ApplyEvent(AwaitingResult, EventDHGenRetry)
	if !res.Changed || res.NewState != AwaitingDh {
		t.Fatalf("DHGenRetry: %+v", res)
	}
}

func TestApplyEventUnmatchedPairIsNoop(t *testing.T) {
	res := ApplyEvent(AwaitingPq, EventDHGenOk)
	if res.Changed {
		t.Fatalf("expected no transition, got %+v", res)
	}
	if res.NewState != AwaitingPq {
		t.Fatalf("state should be unchanged, got %s", res.NewState)
	}
}

func TestUint64ToMinimalBERoundTrip(t *testing.T) {
	for _, v := range []uint64{0, 1, 255, 256, 1 << 40, 1<<64 - 1} {
		b := uint64ToMinimalBE(v)
		if len(b) > 1 && b[0] == 0 {
			t.Fatalf("v=%d: leading zero byte in %x", v, b)
		}
		if got := beBytesToUint64(b); got != v {
			t.Fatalf("v=%d: round trip got %d", v, got)
		}
	}
}
