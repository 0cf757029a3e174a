// Package xhash provides the single injected string-hash function used
// by every HashIndex-backed structure in the engine (Keyspace,
// SortedSet). Swapping the algorithm happens in exactly one place.
package xhash

import "github.com/cespare/xxhash/v2"

// String hashes s into the 64-bit code HashIndex buckets on. It must be
// deterministic within a process; it need not be stable across
// processes or versions.
func String(s string) uint64 {
	return xxhash.Sum64String(s)
}
