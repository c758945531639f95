// Package handshake implements the three-round-trip Diffie-Hellman
// exchange that produces a 256-byte auth key shared with one datacenter,
// plus the server-clock offset observed during the exchange.
//
// The wire shapes used here (resPQ, server_DH_params, dh_gen_ok, and
// their inner payloads) are MTProto's own bootstrapping layer: every
// MTProto implementation hand-codes them rather than generating them from
// the application schema, since they exist to get a key negotiated before
// any schema-driven RPC can run at all.
package handshake
