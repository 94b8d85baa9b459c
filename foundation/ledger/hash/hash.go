// Package hash provides the mixing hash used to seal transactions and blocks.
// It is a fast integrity and linkage checksum, not a cryptographic hash.
package hash

import "hash/fnv"

// Mix folds the bytes into a 32 bit FNV-1a value. The seed is 0x811c9dc5 and
// every byte is xor'd in before multiplying by 0x01000193.
func Mix(data []byte) uint32 {
	h := fnv.New32a()
	h.Write(data)
	return h.Sum32()
}

// Solved reports whether a block digest satisfies the difficulty ceiling.
func Solved(digest uint32, ceiling uint32) bool {
	return digest <= ceiling
}
