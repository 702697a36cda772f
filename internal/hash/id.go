// Package hash computes the stable 64-bit identifiers used by the container
// index to look up signals by name.
package hash

import "github.com/cespare/xxhash/v2"

// SignalID computes the xxHash64 of a signal name.
func SignalID(name string) uint64 {
	return xxhash.Sum64String(name)
}
