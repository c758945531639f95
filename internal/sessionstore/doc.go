// Package sessionstore defines the persistence contract a pool needs to
// survive a restart: which datacenter is home, what auth keys and peer
// access hashes were learned, and where the update state box left off.
// MemoryStore is the reference implementation; callers needing durability
// across process restarts implement Store against their own backend.
package sessionstore
