package pool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dantte-lp/gomtproto/internal/dcaddr"
	"github.com/dantte-lp/gomtproto/internal/handshake"
	"github.com/dantte-lp/gomtproto/internal/mtcrypto"
	"github.com/dantte-lp/gomtproto/internal/sender"
	"github.com/dantte-lp/gomtproto/internal/session"
	"github.com/dantte-lp/gomtproto/internal/sessionstore"
	"github.com/dantte-lp/gomtproto/internal/transport"
	"golang.org/x/sync/errgroup"
)

// CodecFactory builds a fresh, unused transport.Codec for a new
// connection. Most deployments want the same framing for every DC; tests
// and callers that need per-DC framing can still vary it.
type CodecFactory func() transport.Codec

// Options configures a Pool at construction.
type Options struct {
	APIID            int32
	ConnParams       ConnParams
	ProxyURL         string
	UpdateQueueLimit int
	ReconnectPolicy  sender.ReconnectPolicy
	FloodPolicy      sender.FloodPolicy
	RSAKeys          []mtcrypto.RSAPublicKey
	DCTable          *dcaddr.Table
	NewCodec         CodecFactory
	Logger           *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.UpdateQueueLimit <= 0 {
		o.UpdateQueueLimit = 256
	}
	if o.ReconnectPolicy == nil {
		o.ReconnectPolicy = sender.DefaultReconnectPolicy()
	}
	if o.FloodPolicy == (sender.FloodPolicy{}) {
		o.FloodPolicy = sender.DefaultFloodPolicy()
	}
	if o.RSAKeys == nil {
		o.RSAKeys = mtcrypto.DefaultRSAKeys
	}
	if o.DCTable == nil {
		o.DCTable = dcaddr.NewTable()
	}
	if o.NewCodec == nil {
		o.NewCodec = func() transport.Codec { return &transport.Intermediate{} }
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// dcEntry is everything the pool tracks about one datacenter connection.
type dcEntry struct {
	snd          *sender.Sender
	layerSent    bool
	authKeyBound bool // an authorization has been imported here via migration
}

// Pool owns one Sender per datacenter and routes calls to them, handling
// lazy connection setup and account migration transparently. The zero
// value is not usable; construct with New.
type Pool struct {
	opts  Options
	store sessionstore.Store

	ctx    context.Context
	cancel context.CancelFunc
	group  *errgroup.Group

	mu      sync.Mutex
	senders map[int32]*dcEntry
	closed  bool

	updates chan []byte

	logger *slog.Logger
}

// New constructs a Pool. The returned Pool spawns no goroutines and
// dials no connections until the first Invoke or BorrowForDownload call
// for a given datacenter.
func New(store sessionstore.Store, opts Options) *Pool {
	opts = opts.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	group, ctx := errgroup.WithContext(ctx)

	return &Pool{
		opts:    opts,
		store:   store,
		ctx:     ctx,
		cancel:  cancel,
		group:   group,
		senders: make(map[int32]*dcEntry),
		updates: make(chan []byte, opts.UpdateQueueLimit),
		logger:  opts.Logger.With(slog.String("component", "pool")),
	}
}

// Handle returns a cheap, shareable Handle bound to this Pool's Invoke
// and update channel.
func (p *Pool) Handle() Handle {
	return Handle{invoke: p.Invoke, updates: p.updates}
}

// Invoke routes body to the sender for dcID, creating and handshaking
// one if necessary, and transparently migrating the account to a new
// datacenter and retransmitting the call if the server redirects it.
func (p *Pool) Invoke(ctx context.Context, dcID int32, body []byte, contentRelated bool) (sender.Result, error) {
	for hop := 0; ; hop++ {
		if hop >= maxMigrationHops {
			return sender.Result{}, ErrMigrationLoop
		}

		entry, err := p.ensureSender(ctx, dcID)
		if err != nil {
			return sender.Result{}, err
		}

		wire := body
		p.mu.Lock()
		if !entry.layerSent {
			wire = wrapFirstCall(p.opts.ConnParams, body)
			entry.layerSent = true
		}
		p.mu.Unlock()

		result, err := entry.snd.Invoke(ctx, wire, contentRelated)
		var migrate *sender.MigrateError
		if errors.As(err, &migrate) {
			if migrateErr := p.migrate(ctx, migrate.DCID); migrateErr != nil {
				return sender.Result{}, migrateErr
			}
			dcID = migrate.DCID
			continue
		}
		return result, err
	}
}

// BorrowForDownload returns a usable Sender for dcID without touching
// the account's home datacenter, for transferring files hosted on a
// non-home DC.
func (p *Pool) BorrowForDownload(ctx context.Context, dcID int32) (*sender.Sender, error) {
	entry, err := p.ensureSender(ctx, dcID)
	if err != nil {
		return nil, err
	}
	return entry.snd, nil
}

// Updates returns the pool's single bounded update channel.
func (p *Pool) Updates() <-chan []byte {
	return p.updates
}

// Quit marks the pool closed, closes every sender (draining their
// pending calls with sender.ErrDropped), and waits for all sender Run
// loops to return.
func (p *Pool) Quit() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	entries := make([]*dcEntry, 0, len(p.senders))
	for _, e := range p.senders {
		entries = append(entries, e)
	}
	p.mu.Unlock()

	p.cancel()
	for _, e := range entries {
		e.snd.Close()
	}
	err := p.group.Wait()
	close(p.updates)
	return err
}

// ensureSender returns the entry for dcID, dialing and handshaking a new
// connection under the pool's lock if none exists yet. Holding the lock
// across the dial is deliberate: it is the simplest way to guarantee at
// most one sender per DC, and dials are rare compared to Invoke calls.
func (p *Pool) ensureSender(ctx context.Context, dcID int32) (*dcEntry, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrClosed
	}
	if e, ok := p.senders[dcID]; ok {
		return e, nil
	}

	entry, err := p.dial(ctx, dcID)
	if err != nil {
		return nil, err
	}
	p.senders[dcID] = entry
	return entry, nil
}

// dial opens a fresh connection and sender for dcID and starts it under
// the pool's errgroup, supervised for automatic reconnection. Callers
// must hold p.mu.
func (p *Pool) dial(ctx context.Context, dcID int32) (*dcEntry, error) {
	entry, err := p.connect(ctx, dcID)
	if err != nil {
		return nil, err
	}
	p.group.Go(func() error { return p.supervise(dcID, entry) })
	return entry, nil
}

// connect opens a transport connection to dcID and handshakes an auth
// key if the store has none cached yet, but does not start or supervise
// a Run loop; callers that need supervision use dial, and the reconnect
// path in supervise calls connect directly to avoid spawning a second
// supervisor for the same slot.
func (p *Pool) connect(ctx context.Context, dcID int32) (*dcEntry, error) {
	opt, ok := p.store.DCOption(dcID)
	if !ok {
		opt, ok = p.opts.DCTable.Best(dcID)
		if !ok {
			return nil, fmt.Errorf("pool: no known address for dc %d", dcID)
		}
		p.store.SetDCOption(opt)
	}

	raw, err := transport.Dial(ctx, opt.Addr(), transport.DialOptions{ProxyURL: p.opts.ProxyURL})
	if err != nil {
		return nil, fmt.Errorf("pool: dial dc %d: %w", dcID, err)
	}
	conn := transport.NewConn(raw, p.opts.NewCodec())

	authKey, ok := p.store.AuthKey(dcID)
	var timeOffset int32
	if !ok {
		result, herr := handshake.Run(conn, p.opts.RSAKeys, p.logger)
		if herr != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("pool: handshake with dc %d: %w", dcID, herr)
		}
		authKey = result.AuthKey
		timeOffset = result.TimeOffset
		p.store.SetAuthKey(dcID, authKey)
	}

	sess := session.New(authKey, timeOffset)

	var updatesCh chan<- []byte
	if dcID == p.store.HomeDCID() {
		updatesCh = p.updates
	}

	snd := sender.New(dcID, conn, sess, updatesCh, p.logger)
	snd.SetFloodPolicy(p.opts.FloodPolicy)
	return &dcEntry{snd: snd}, nil
}

// supervise runs entry's sender until it dies, then redials per the
// pool's ReconnectPolicy, swapping the map entry for the fresh sender so
// that Invoke and BorrowForDownload pick it up transparently. It returns
// once the pool is closing or the policy gives up.
func (p *Pool) supervise(dcID int32, entry *dcEntry) error {
	for attempt := 0; ; {
		err := entry.snd.Run(p.ctx)
		if p.ctx.Err() != nil {
			return nil
		}
		if err == nil {
			return nil
		}

		for reconnected := false; !reconnected; {
			decision := p.opts.ReconnectPolicy(attempt)
			if decision.Break {
				p.mu.Lock()
				if p.senders[dcID] == entry {
					delete(p.senders, dcID)
				}
				p.mu.Unlock()
				p.logger.Error("giving up on reconnect", slog.Int("dc_id", int(dcID)), slog.Any("error", err))
				return err
			}

			select {
			case <-time.After(decision.Sleep):
			case <-p.ctx.Done():
				return nil
			}

			attempt++
			fresh, derr := p.redial(dcID)
			if derr != nil {
				continue
			}
			entry = fresh
			reconnected = true
		}
		attempt = 0
	}
}

// redial builds a new connection and sender for dcID, swapping it into
// the map in place of whatever is there now, and returns the new entry
// for the caller to keep supervising.
func (p *Pool) redial(dcID int32) (*dcEntry, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrClosed
	}
	entry, err := p.connect(p.ctx, dcID)
	if err != nil {
		return nil, err
	}
	p.senders[dcID] = entry
	return entry, nil
}

// migrate implements steps (a), (b), and (d) of the account-migration
// sequence spec.md §4.8 describes: it dials and, if needed, handshakes a
// sender at newDCID, and updates the session store's home DC. Step (c),
// exporting the current authorization from the old home DC and importing
// it at newDCID, is an auth.exportAuthorization/auth.importAuthorization
// RPC pair, which requires application-schema encoding the pool does not
// have; the schema-aware caller performs that exchange over the returned
// sender and then calls MarkAuthorized once it succeeds.
func (p *Pool) migrate(ctx context.Context, newDCID int32) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	p.mu.Unlock()

	// Home DC is flipped before dialing so that, if newDCID has no sender
	// yet, dial sees the new home and wires the update channel to it
	// immediately rather than to whatever was home a moment ago.
	oldHome := p.store.HomeDCID()
	p.store.SetHomeDCID(newDCID)
	if _, err := p.ensureSender(ctx, newDCID); err != nil {
		p.store.SetHomeDCID(oldHome)
		return err
	}
	return nil
}

// NeedsAuthImport reports whether dcID has a live sender that has not
// yet had an authorization imported into it via MarkAuthorized. A
// schema-aware caller checks this after a migration to decide whether it
// must run the export/import RPC pair before the account can make
// authorized calls against the new home DC.
func (p *Pool) NeedsAuthImport(dcID int32) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.senders[dcID]
	return ok && !e.authKeyBound
}

// MarkAuthorized records that dcID's auth key has had the account's
// authorization imported into it, so a later migration back to this DC
// does not repeat the export/import exchange.
func (p *Pool) MarkAuthorized(dcID int32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if e, ok := p.senders[dcID]; ok {
		e.authKeyBound = true
	}
}
