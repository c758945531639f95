package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/dantte-lp/gomtproto/internal/dcaddr"
	"github.com/dantte-lp/gomtproto/internal/handshake"
	"github.com/dantte-lp/gomtproto/internal/mtcrypto"
	"github.com/dantte-lp/gomtproto/internal/transport"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

// dialAndHandshake opens an intermediate-framed connection to dcID and
// runs the authorization-key handshake against it, for commands that
// need a fresh, already-authorized connection.
func dialAndHandshake(ctx context.Context) (*transport.Conn, handshake.Result, error) {
	table := dcaddr.NewTable()
	if testDC {
		table = dcaddr.NewTable(dcaddr.TestOptions)
	}

	opt, ok := table.Best(dcID)
	if !ok {
		return nil, handshake.Result{}, fmt.Errorf("no known address for dc %d", dcID)
	}

	raw, err := transport.Dial(ctx, opt.Addr(), transport.DialOptions{})
	if err != nil {
		return nil, handshake.Result{}, fmt.Errorf("dial dc %d at %s: %w", dcID, opt.Addr(), err)
	}
	conn := transport.NewConn(raw, &transport.Intermediate{})

	result, err := handshake.Run(conn, mtcrypto.DefaultRSAKeys, newLogger())
	if err != nil {
		_ = conn.Close()
		return nil, handshake.Result{}, fmt.Errorf("handshake with dc %d: %w", dcID, err)
	}
	return conn, result, nil
}
