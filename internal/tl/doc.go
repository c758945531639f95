// Package tl implements the binary codec primitives of the MTProto wire
// schema: fixed-width little-endian integers, length-prefixed bytes and
// strings, boxed-vector framing, and constructor-id tagging.
//
// The codec is deterministic and allocation-light: Encoder grows a single
// backing buffer, and Decoder only ever slices into the buffer handed to
// it. Neither type is safe for concurrent use; each RPC body gets its own
// Encoder, and each inbound frame its own Decoder.
package tl
