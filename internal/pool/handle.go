package pool

import (
	"context"

	"github.com/dantte-lp/gomtproto/internal/sender"
)

// Handle is a cheap, copyable reference to a Pool's Invoke and Updates
// operations. It holds no pointer back into the Pool's sender map or
// mutex, only the two closures it needs, so a caller can clone and hand
// out Handles freely without the Pool having to track who holds one.
type Handle struct {
	invoke  func(ctx context.Context, dcID int32, body []byte, contentRelated bool) (sender.Result, error)
	updates <-chan []byte
}

// Invoke routes body to the sender for dcID, dialing and handshaking one
// into existence if needed, transparently following at most
// maxMigrationHops datacenter redirects.
func (h Handle) Invoke(ctx context.Context, dcID int32, body []byte, contentRelated bool) (sender.Result, error) {
	return h.invoke(ctx, dcID, body, contentRelated)
}

// Updates returns the pool's single bounded update channel, fed only by
// the home sender.
func (h Handle) Updates() <-chan []byte {
	return h.updates
}
