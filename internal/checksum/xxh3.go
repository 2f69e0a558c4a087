// Package checksum provides checksum functions compatible with RocksDB.
//
// XXH3 block checksums are computed with github.com/zeebo/xxh3, the same
// algorithm RocksDB links via its vendored xxHash for format_version 5+.
package checksum

import "github.com/zeebo/xxh3"

// XXH3_64bits computes the 64-bit XXH3 hash of data, seeded with 0.
func XXH3_64bits(data []byte) uint64 {
	return xxh3.Hash(data)
}

// XXH3Checksum computes the XXH3 checksum of data, treating the last byte
// as a separately-mixed trailer rather than ordinary hash input.
func XXH3Checksum(data []byte) uint32 {
	if len(data) == 0 {
		return 0
	}
	return XXH3ChecksumWithLastByte(data[:len(data)-1], data[len(data)-1])
}

// XXH3ChecksumWithLastByte computes the RocksDB-style XXH3 block checksum.
// The hash is computed over data only (the trailing compression-type byte is
// not hashed), folded to its low 32 bits, and then XORed with lastByte times
// a fixed multiplier. Readers can therefore verify a checksum without ever
// materializing a data+compression-type buffer.
func XXH3ChecksumWithLastByte(data []byte, lastByte byte) uint32 {
	h := xxh3.Hash(data)
	v := uint32(h)

	const kRandomPrime = 0x6b9083d9
	return v ^ (uint32(lastByte) * kRandomPrime)
}
