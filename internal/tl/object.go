package tl

import "sync"

// Object is any boxed schema value the core needs to move across the wire
// without interpreting its contents: RPC bodies, inner update payloads, and
// constructor-tagged results. Implementations are generated from the
// schema language or hand-written by the embedding application; this
// package only needs the two methods below.
type Object interface {
	// ConstructorID returns the boxed id this value serializes under.
	ConstructorID() uint32
	// Encode appends this value's bare body (not its constructor id) to e.
	Encode(e *Encoder)
}

// Decoder function registered for a given constructor id. It receives a
// Decoder already positioned after the boxed id and returns the decoded
// value.
type DecodeFunc func(d *Decoder) (Object, error)

// Registry maps constructor ids to decoders. The core never needs to know
// the concrete schema; it only decodes by id and hands the result to the
// session/update layers as an opaque Object.
type Registry struct {
	mu       sync.RWMutex
	decoders map[uint32]DecodeFunc
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{decoders: make(map[uint32]DecodeFunc)}
}

// Register associates id with fn, overwriting any previous registration.
func (r *Registry) Register(id uint32, fn DecodeFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decoders[id] = fn
}

// Decode reads a boxed constructor id from d and dispatches to the
// registered decoder. Returns *UnknownConstructor if none is registered.
func (r *Registry) Decode(d *Decoder) (Object, error) {
	id, err := d.PeekID()
	if err != nil {
		return nil, err
	}
	r.mu.RLock()
	fn, ok := r.decoders[id]
	r.mu.RUnlock()
	if !ok {
		return nil, &UnknownConstructor{ID: id}
	}
	if _, err := d.UInt32(); err != nil {
		return nil, err
	}
	return fn(d)
}
