// Package checksum provides checksum functions compatible with RocksDB.
//
// XXHash64 block checksums are computed with github.com/cespare/xxhash/v2,
// the same algorithm RocksDB links via its vendored xxHash for the
// kxxHash64 checksum type.
package checksum

import "github.com/cespare/xxhash/v2"

// XXHash64 computes the 64-bit XXHash of data with seed 0, matching
// RocksDB's use of XXH64(data, 0).
func XXHash64(data []byte) uint64 {
	return xxhash.Sum64(data)
}

// XXHash64ChecksumWithLastByte computes XXHash64 checksum with a separate
// last byte, returning the lower 32 bits as used by RocksDB.
func XXHash64ChecksumWithLastByte(data []byte, lastByte byte) uint32 {
	d := xxhash.New()
	d.Write(data)
	d.Write([]byte{lastByte})
	return uint32(d.Sum64())
}
