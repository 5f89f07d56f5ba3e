package util

import (
	"github.com/OneOfOne/xxhash"
)

// HashCode hashes key with xxhash64.
func HashCode(key []byte) uint64 {
	h := xxhash.New64()
	h.Write(key)
	return h.Sum64()
}

// HashString hashes key with a seeded xxhash64.
func HashString(key string, seed uint64) uint64 {
	return xxhash.ChecksumString64S(key, seed)
}
