// Package hash computes the xxHash64 fingerprints that key the schema registry.
package hash

import "github.com/cespare/xxhash/v2"

// Fingerprint computes the xxHash64 of a schema source document.
func Fingerprint(data []byte) uint64 {
	return xxhash.Sum64(data)
}

// FingerprintString computes the xxHash64 of s without copying it.
func FingerprintString(s string) uint64 {
	return xxhash.Sum64String(s)
}
