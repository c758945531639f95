package sender

import (
	"errors"
	"fmt"
)

// ErrDropped is returned to every pending call when a Sender shuts down
// or abandons its connection without a response.
var ErrDropped = errors.New("sender: call dropped")

// ErrNotAuthorized reports an RPC that requires an auth key bound to an
// account, attempted before one is bound. Sender.Invoke does not check
// binding and never returns it.
var ErrNotAuthorized = errors.New("sender: not authorized")

// RPCError wraps a server-returned rpc_error{code, message}.
type RPCError struct {
	Code    int32
	Message string
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("sender: rpc_error %d: %s", e.Code, e.Message)
}

// MigrateError signals a *_MIGRATE_N rpc_error, which the pool intercepts
// to move the account to a different datacenter.
type MigrateError struct {
	Kind string // "PHONE", "NETWORK", or "USER"
	DCID int32
}

func (e *MigrateError) Error() string {
	return fmt.Sprintf("sender: %s_MIGRATE_%d", e.Kind, e.DCID)
}

// FloodWaitError signals an rpc_error 420 whose wait exceeded the
// configured FloodPolicy threshold and was not retried automatically.
type FloodWaitError struct {
	Seconds int32
}

func (e *FloodWaitError) Error() string {
	return fmt.Sprintf("sender: FLOOD_WAIT_%d", e.Seconds)
}
