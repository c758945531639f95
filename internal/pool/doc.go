// Package pool multiplexes RPCs across datacenters.
//
// A Pool owns one sender.Sender per datacenter it has talked to, dialing
// and handshaking lazily on first use. Callers interact through a Handle,
// a cheap value safe to copy and share across goroutines: it carries no
// pointer back into the Pool's internals, only the invoke function and
// the update channel it needs, so that closing a Pool never has to chase
// down outstanding Handles to unwind a reference cycle.
package pool
