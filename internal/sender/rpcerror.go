package sender

import (
	"strconv"
	"strings"
)

// classifyRPCError turns a raw rpc_error{code, message} into one of the
// sentinel error shapes the pool and Sender special-case, falling back to
// a plain *RPCError for ordinary "business" errors.
func classifyRPCError(code int32, message string) error {
	if code == 420 {
		if n, ok := suffixInt(message, "FLOOD_WAIT_"); ok {
			return &FloodWaitError{Seconds: n}
		}
	}
	if code == 303 {
		for _, kind := range []string{"PHONE_MIGRATE_", "NETWORK_MIGRATE_", "USER_MIGRATE_"} {
			if n, ok := suffixInt(message, kind); ok {
				return &MigrateError{Kind: strings.TrimSuffix(kind, "_MIGRATE_"), DCID: n}
			}
		}
	}
	return &RPCError{Code: code, Message: message}
}

func suffixInt(message, prefix string) (int32, bool) {
	if !strings.HasPrefix(message, prefix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(message, prefix))
	if err != nil {
		return 0, false
	}
	return int32(n), true
}
