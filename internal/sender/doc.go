// Package sender drives one MTProto connection: a transport.Conn, a
// session.Session, and the pending-call table that matches outgoing
// requests to their rpc_result. A Sender is never shared between
// datacenters; internal/pool owns one per DC and multiplexes calls to
// them.
package sender
