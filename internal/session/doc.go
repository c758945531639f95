// Package session implements the MTProto 2.0 encrypted message layer: it
// turns outgoing RPC bodies into an encrypted, possibly-containerized
// frame, and turns an incoming encrypted frame back into the structured
// set of system messages (rpc_result, bad_server_salt, acks, updates, ...)
// described in MTProto's own message layer.
//
// A Session owns exactly one auth key, session id, and salt, and is never
// shared between senders: see internal/sender for the read/write loop
// that drives one Session over one transport connection.
package session
