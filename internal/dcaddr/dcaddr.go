package dcaddr

import (
	"fmt"
	"sync"
)

// Option is one known address for a datacenter: an IP (v4 or v6), a port,
// and whether it is reachable only over a media/CDN-style connection.
type Option struct {
	DCID      int32
	IPv4      string
	IPv6      string
	Port      int
	MediaOnly bool
	CDN       bool
}

// Addr returns the preferred dial address for this option, v4 unless only
// a v6 address is known.
func (o Option) Addr() string {
	host := o.IPv4
	if host == "" {
		host = "[" + o.IPv6 + "]"
	}
	return fmt.Sprintf("%s:%d", host, o.Port)
}

// defaultOptions is Telegram's published set of production datacenter
// entry points, used before a client has fetched help.getConfig.
var defaultOptions = []Option{
	{DCID: 1, IPv4: "149.154.175.53", Port: 443},
	{DCID: 2, IPv4: "149.154.167.41", Port: 443},
	{DCID: 3, IPv4: "149.154.175.100", Port: 443},
	{DCID: 4, IPv4: "149.154.167.92", Port: 443},
	{DCID: 5, IPv4: "91.108.56.104", Port: 443},
}

// TestOptions is the test-network datacenter 2 entry point.
var TestOptions = []Option{
	{DCID: 2, IPv4: "149.154.167.40", Port: 443},
}

// Table tracks known datacenter options, seeded with the production
// defaults and extendable at runtime as a client learns more (e.g. a
// migration error naming a DC it has no address for, or an updated
// config from the server).
type Table struct {
	mu      sync.RWMutex
	options map[int32][]Option
}

// NewTable returns a Table seeded with Telegram's production datacenters.
// Pass opts to seed a different set (e.g. TestOptions) instead.
func NewTable(opts ...[]Option) *Table {
	t := &Table{options: make(map[int32][]Option)}
	seed := defaultOptions
	if len(opts) > 0 {
		seed = nil
		for _, group := range opts {
			seed = append(seed, group...)
		}
	}
	for _, o := range seed {
		t.Add(o)
	}
	return t
}

// Add records or updates a datacenter option.
func (t *Table) Add(o Option) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, existing := range t.options[o.DCID] {
		if existing.IPv4 == o.IPv4 && existing.IPv6 == o.IPv6 && existing.Port == o.Port {
			t.options[o.DCID][i] = o
			return
		}
	}
	t.options[o.DCID] = append(t.options[o.DCID], o)
}

// Best returns the preferred option for dcID, favoring a non-media,
// non-CDN entry, and reports whether any option is known at all.
func (t *Table) Best(dcID int32) (Option, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	opts := t.options[dcID]
	if len(opts) == 0 {
		return Option{}, false
	}
	for _, o := range opts {
		if !o.MediaOnly && !o.CDN {
			return o, true
		}
	}
	return opts[0], true
}

// MediaOption returns a media/CDN-capable option for dcID if one is
// known, falling back to Best.
func (t *Table) MediaOption(dcID int32) (Option, bool) {
	t.mu.RLock()
	for _, o := range t.options[dcID] {
		if o.MediaOnly || o.CDN {
			t.mu.RUnlock()
			return o, true
		}
	}
	t.mu.RUnlock()
	return t.Best(dcID)
}

// Known reports whether any option has been recorded for dcID.
func (t *Table) Known(dcID int32) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.options[dcID]) > 0
}
