package updates

// Action is the outcome of evaluating one incoming counter against the
// state box's stored value.
type Action int

const (
	// ActionApply means the update is exactly the next one expected; bump
	// the stored counter and deliver it.
	ActionApply Action = iota
	// ActionDrop means the update has already been applied; discard it.
	ActionDrop
	// ActionGap means the update arrived out of order; buffer it and wait
	// for the gap to close, or fetch a difference if it doesn't.
	ActionGap
)

// EvaluatePts decides what to do with an incoming update carrying pts and
// pts_count against the entry's stored pts, per MTProto's pts gap rule.
func EvaluatePts(localPts, updatePts, ptsCount int32) Action {
	switch next := localPts + ptsCount; {
	case next == updatePts:
		return ActionApply
	case next > updatePts:
		return ActionDrop
	default:
		return ActionGap
	}
}

// EvaluateSeq decides what to do with an incoming updates/updatesCombined
// carrying seq_start and seq against the account's stored seq.
func EvaluateSeq(localSeq, seqStart, seq int32) Action {
	switch {
	case seqStart == localSeq+1:
		return ActionApply
	case seqStart <= localSeq:
		return ActionDrop
	default:
		return ActionGap
	}
}
