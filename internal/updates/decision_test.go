package updates

import "testing"

func TestEvaluatePts(t *testing.T) {
	cases := []struct {
		name               string
		local, pts, ptsCnt int32
		want               Action
	}{
		{"exact match applies", 100, 105, 5, ActionApply},
		{"already seen drops", 100, 103, 2, ActionDrop},
		{"missing updates gap", 100, 110, 5, ActionGap},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := EvaluatePts(c.local, c.pts, c.ptsCnt); got != c.want {
				t.Fatalf("got %v, want %v", got, c.want)
			}
		})
	}
}

func TestEvaluateSeq(t *testing.T) {
	cases := []struct {
		name            string
		local, start, s int32
		want            Action
	}{
		{"next seq applies", 10, 11, 12, ActionApply},
		{"old seq drops", 10, 10, 10, ActionDrop},
		{"future seq gap", 10, 15, 16, ActionGap},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := EvaluateSeq(c.local, c.start, c.s); got != c.want {
				t.Fatalf("got %v, want %v", got, c.want)
			}
		})
	}
}
