package store

import "github.com/cespare/xxhash/v2"

// hashKeyBytes computes the stable 64-bit hash used both for shard routing
// (pkg/router) and as the store's bucket hash, so a cache hit only ever
// requires one hash computation per request (spec.md §3 "Fingerprinting").
func hashKeyBytes(b []byte) uint64 {
	return xxhash.Sum64(b)
}

// MakeKey wraps raw key bytes with their xxhash, for callers (pkg/dispatch)
// that do not already have a precomputed hash from the router.
func MakeKey(b []byte) Key {
	return Key{Bytes: b, Hash: hashKeyBytes(b)}
}
