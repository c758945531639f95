package handshake

// State is a point in the authorization handshake's lifecycle.
type State int

const (
	AwaitingPq State = iota
	AwaitingDh
	AwaitingResult
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case AwaitingPq:
		return "AwaitingPq"
	case AwaitingDh:
		return "AwaitingDh"
	case AwaitingResult:
		return "AwaitingResult"
	case Done:
		return "Done"
	case Failed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Event is something observed while driving the handshake forward.
type Event int

const (
	EventResPQ Event = iota
	EventServerDHParamsOk
	EventServerDHParamsFail
	EventDHGenOk
	EventDHGenRetry
	EventDHGenFail
	EventProtocolError
)

func (e Event) String() string {
	switch e {
	case EventResPQ:
		return "ResPQ"
	case EventServerDHParamsOk:
		return "ServerDHParamsOk"
	case EventServerDHParamsFail:
		return "ServerDHParamsFail"
	case EventDHGenOk:
		return "DHGenOk"
	case EventDHGenRetry:
		return "DHGenRetry"
	case EventDHGenFail:
		return "DHGenFail"
	case EventProtocolError:
		return "ProtocolError"
	default:
		return "Unknown"
	}
}

type stateEvent struct {
	state State
	event Event
}

// table is the pure lookup driving state advancement; it never performs
// I/O or cryptography, only decides whether an observed event is valid in
// the current state and what state follows it. The actual request/response
// work for each step lives in Run.
var table = map[stateEvent]State{
	{AwaitingPq, EventResPQ}: AwaitingDh,

	{AwaitingDh, EventServerDHParamsOk}:   AwaitingResult,
	{AwaitingDh, EventServerDHParamsFail}: Failed,

	{AwaitingResult, EventDHGenOk}:     Done,
	{AwaitingResult, EventDHGenRetry}:  AwaitingDh,
	{AwaitingResult, EventDHGenFail}:   Failed,
}

// Result reports whether the table has a transition for the pair, and if
// so what state it leads to.
type Result struct {
	OldState, NewState State
	Changed             bool
}

// ApplyEvent looks up the transition for (state, event). Every state
// other than the one listed for an event is a protocol violation and the
// pair is left unmatched (Changed: false); Run treats that as fatal.
func ApplyEvent(state State, event Event) Result {
	next, ok := table[stateEvent{state, event}]
	if !ok {
		return Result{OldState: state, NewState: state, Changed: false}
	}
	return Result{OldState: state, NewState: next, Changed: true}
}
