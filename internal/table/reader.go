// Package table provides SST file reading and writing functionality.
// This implements the RocksDB block-based table format (format_version 0-7).
//
// SST File Layout:
//
//	[data block 1]
//	[data block 2]
//	...
//	[data block N]
//	[meta block 1: index block]
//	[metaindex block]
//	[Footer]                         (fixed size, at end of file)
//
// Reference: RocksDB v10.7.5
//   - table/block_based/block_based_table_reader.h
//   - table/format.h
//   - table/format.cc
package table

import (
	"fmt"
	"io"

	"github.com/aalhour/sstfmt/internal/block"
	"github.com/aalhour/sstfmt/internal/checksum"
	"github.com/aalhour/sstfmt/internal/codecerr"
	"github.com/aalhour/sstfmt/internal/compression"
	"github.com/aalhour/sstfmt/internal/encoding"
)

var (
	// ErrInvalidSST indicates the file is not a valid SST file.
	ErrInvalidSST = fmt.Errorf("%w: table: invalid SST file", codecerr.ErrInvalidMagicNumber)

	// ErrUnsupportedVersion indicates the format version is not supported.
	ErrUnsupportedVersion = fmt.Errorf("%w: table: unsupported format version", codecerr.ErrUnsupportedFormatVersion)

	// ErrChecksumMismatch indicates a block checksum verification failed.
	ErrChecksumMismatch = fmt.Errorf("%w: table: checksum mismatch", codecerr.ErrDataCorruption)

	// ErrBlockNotFound indicates a requested block was not found.
	ErrBlockNotFound = fmt.Errorf("%w: table: block not found", codecerr.ErrInvalidBlockHandle)
)

// ReadableFile is an interface for reading from an SST file.
type ReadableFile interface {
	io.Closer

	// ReadAt reads len(p) bytes from the file starting at offset.
	ReadAt(p []byte, off int64) (n int, err error)

	// Size returns the total size of the file.
	Size() int64
}

// ReaderOptions controls the behavior of the table reader.
type ReaderOptions struct {
	// VerifyChecksums enables checksum verification for all blocks.
	VerifyChecksums bool

	// CacheBlocks enables caching of data blocks.
	// (Not implemented yet - for future block cache integration)
	CacheBlocks bool
}

// Reader reads an SST file in the block-based table format.
type Reader struct {
	file    ReadableFile
	size    int64
	options ReaderOptions

	// Parsed from footer
	footer *block.Footer

	// Block handles from metaindex
	indexHandle block.Handle

	// Cached blocks (loaded on Open)
	indexBlock *block.Block
}

// Open opens an SST file for reading.
func Open(file ReadableFile, opts ReaderOptions) (*Reader, error) {
	size := file.Size()
	if size < int64(block.MinEncodedLength) {
		return nil, fmt.Errorf("%w: table: file size %d below minimum footer size %d",
			codecerr.ErrFileTooSmall, size, block.MinEncodedLength)
	}

	r := &Reader{
		file:    file,
		size:    size,
		options: opts,
	}

	// Read and parse footer
	if err := r.readFooter(); err != nil {
		return nil, err
	}

	// Read metaindex block to find the index block handle (format_version >= 6)
	if err := r.readMetaindex(); err != nil {
		return nil, err
	}

	// Read index block (for format_version < 6 it's in footer,
	// for format_version >= 6 it's in metaindex)
	if err := r.readIndex(); err != nil {
		return nil, err
	}

	return r, nil
}

// readFooter reads and parses the footer from the end of the file.
func (r *Reader) readFooter() error {
	// Footer is at the end of the file
	footerSize := block.MaxEncodedFooterLength
	if r.size < int64(footerSize) {
		footerSize = int(r.size)
	}

	buf := make([]byte, footerSize)
	offset := r.size - int64(footerSize)
	if _, err := r.file.ReadAt(buf, offset); err != nil {
		return err
	}

	// Decode footer
	footer, err := block.DecodeFooter(buf, uint64(offset), 0)
	if err != nil {
		return err
	}

	// Verify it's a block-based table
	if footer.TableMagicNumber != block.BlockBasedTableMagicNumber &&
		footer.TableMagicNumber != block.LegacyBlockBasedTableMagicNumber {
		return ErrInvalidSST
	}

	r.footer = footer
	return nil
}

// readMetaindex reads and parses the metaindex block.
func (r *Reader) readMetaindex() error {
	if r.footer.MetaindexHandle.IsNull() {
		return nil // No metaindex
	}

	// Read metaindex block
	metaBlock, err := r.readBlock(r.footer.MetaindexHandle)
	if err != nil {
		return err
	}

	// Parse metaindex entries. This codec writes a single entry,
	// "rocksdb.index", for format_version >= 6.
	iter := metaBlock.NewIterator()
	for iter.SeekToFirst(); iter.Valid(); iter.Next() {
		name := string(iter.Key())
		handleBytes := iter.Value()

		handle, _, err := block.DecodeHandle(handleBytes)
		if err != nil {
			continue // Skip invalid entries
		}

		if name == "rocksdb.index" {
			r.indexHandle = handle
		}
	}

	return nil
}

// readIndex reads and caches the index block.
func (r *Reader) readIndex() error {
	// For format_version < 6, index handle is in footer
	// For format_version >= 6, index handle is in metaindex
	var handle block.Handle
	if r.footer.FormatVersion < 6 {
		handle = r.footer.IndexHandle
	} else {
		handle = r.indexHandle
	}

	if handle.IsNull() {
		return ErrBlockNotFound
	}

	// Use readBlock to properly handle checksums
	indexBlock, err := r.readBlock(handle)
	if err != nil {
		return err
	}

	r.indexBlock = indexBlock
	return nil
}

// maxBlockSize is the maximum size we'll allocate for a single block.
// This prevents memory exhaustion from corrupted block handles.
// 256 MiB is well above typical block sizes (4 KiB to 4 MiB).
const maxBlockSize = 256 * 1024 * 1024

// readBlock reads and optionally verifies a block from the file.
func (r *Reader) readBlock(handle block.Handle) (*block.Block, error) {
	// Block format:
	// [block data] [compression type: 1 byte] [checksum: 4 bytes]
	// Total size = handle.Size + BlockTrailerSize

	trailerSize := int(r.footer.BlockTrailerSize)

	// Reject offsets that cannot be represented as int64.
	// ReadAt takes an int64 offset, and some test files use slices that panic on negative offsets.
	const maxInt64AsUint64 = ^uint64(0) >> 1
	if handle.Offset > maxInt64AsUint64 {
		return nil, fmt.Errorf("block offset %d exceeds maximum %d: %w", handle.Offset, maxInt64AsUint64, codecerr.ErrInvalidBlockHandle)
	}

	// Validate block size to prevent memory exhaustion from corrupted handles
	if handle.Size > maxBlockSize {
		return nil, fmt.Errorf("block size %d exceeds maximum %d: %w", handle.Size, maxBlockSize, ErrInvalidSST)
	}

	totalSize := int(handle.Size) + trailerSize

	// Additional validation: block must fit within the file
	end := handle.Offset + uint64(totalSize)
	if end < handle.Offset || end > uint64(r.size) {
		return nil, fmt.Errorf("block at offset %d size %d exceeds file size %d: %w",
			handle.Offset, totalSize, r.size, codecerr.ErrInvalidBlockHandle)
	}

	buf := make([]byte, totalSize)
	n, err := r.file.ReadAt(buf, int64(handle.Offset))
	if err != nil {
		return nil, err
	}
	if n < totalSize {
		return nil, ErrInvalidSST
	}

	// Verify checksum if requested
	if r.options.VerifyChecksums && trailerSize > 0 {
		blockData := buf[:len(buf)-trailerSize]
		compressionType := buf[len(buf)-trailerSize]
		storedChecksum := encoding.DecodeFixed32(buf[len(buf)-4:])

		// Compute checksum (includes compression type)
		var computed uint32
		switch r.footer.ChecksumType {
		case block.ChecksumTypeCRC32C:
			crc := checksum.Value(blockData)
			crc = checksum.Extend(crc, []byte{compressionType})
			computed = checksum.Mask(crc)
		case block.ChecksumTypeXXHash:
			computed = checksum.XXHashChecksumWithLastByte(blockData, compressionType)
		case block.ChecksumTypeXXHash64:
			computed = checksum.XXHash64ChecksumWithLastByte(blockData, compressionType)
		case block.ChecksumTypeXXH3:
			computed = checksum.XXH3ChecksumWithLastByte(blockData, compressionType)
		default:
			// Skip verification for unsupported types (kNoChecksum)
			computed = storedChecksum
		}

		// For format_version >= 6, add context checksum modifier
		if r.footer.FormatVersion >= 6 && r.footer.BaseContextChecksum != 0 {
			computed += checksum.ChecksumModifierForContext(r.footer.BaseContextChecksum, handle.Offset)
		}

		if computed != storedChecksum {
			return nil, ErrChecksumMismatch
		}
	}

	// Get block data and compression type
	blockData := buf[:handle.Size]
	compressionType := compression.NoCompression
	if trailerSize > 0 {
		compressionType = compression.Type(buf[len(buf)-trailerSize])
	}

	// Decompress if needed
	if compressionType != compression.NoCompression {
		// For format_version >= 2, most compression types have a varint32 prefix
		// containing the decompressed size. Exception: Snappy, LZ4 and LZ4HC
		// carry the size in their own framing, so no external prefix is used.
		// Reference: RocksDB util/compression.h lines 873-874
		compressedData := blockData
		expectedSize := 0
		if r.footer.FormatVersion >= 2 && !compressionHasEmbeddedSize(compressionType) {
			// Read the varint32 decompressed size prefix
			size, prefixLen, err := encoding.DecodeVarint32(compressedData)
			if err != nil {
				return nil, fmt.Errorf("decode compressed block size prefix: %w", err)
			}
			expectedSize = int(size)
			compressedData = compressedData[prefixLen:]
		}

		decompressed, err := compression.DecompressWithSize(compressionType, compressedData, expectedSize)
		if err != nil {
			return nil, fmt.Errorf("decompress block: %w", err)
		}
		blockData = decompressed
	}

	return block.NewBlock(blockData)
}

// NewIterator returns an iterator over the table contents.
// The iterator is initially invalid; call SeekToFirst or Seek before use.
func (r *Reader) NewIterator() *TableIterator {
	return &TableIterator{
		reader:    r,
		indexIter: r.indexBlock.NewIterator(),
	}
}

// Close releases resources associated with the reader.
func (r *Reader) Close() error {
	return r.file.Close()
}

// Footer returns the parsed footer.
func (r *Reader) Footer() *block.Footer {
	return r.footer
}

// TableIterator iterates over key-value pairs in an SST file.
type TableIterator struct {
	reader    *Reader
	indexIter *block.Iterator // over separator key -> data block handle
	dataBlock *block.Block    // Current data block
	dataIter  *block.Iterator // Iterator over current data block
	err       error
}

// Valid returns true if the iterator is positioned at a valid entry.
func (it *TableIterator) Valid() bool {
	return it.err == nil && it.dataIter != nil && it.dataIter.Valid()
}

// SeekToFirst positions the iterator at the first entry.
func (it *TableIterator) SeekToFirst() {
	it.indexIter.SeekToFirst()
	it.loadDataBlock()
	if it.dataIter != nil {
		it.dataIter.SeekToFirst()
	}
}

// SeekToLast positions the iterator at the last entry.
func (it *TableIterator) SeekToLast() {
	it.indexIter.SeekToLast()
	it.loadDataBlock()
	if it.dataIter != nil {
		it.dataIter.SeekToLast()
	}
}

// Seek positions the iterator at the first entry with key >= target.
func (it *TableIterator) Seek(target []byte) {
	// Use index to find the data block that may contain target
	it.indexIter.Seek(target)
	if !it.indexIter.Valid() {
		it.dataIter = nil
		return
	}
	it.loadDataBlock()
	if it.dataIter != nil {
		it.dataIter.Seek(target)
	}
}

// Next moves to the next entry.
func (it *TableIterator) Next() {
	if it.dataIter == nil {
		return
	}
	it.dataIter.Next()
	if !it.dataIter.Valid() {
		// Move to next data block
		it.indexIter.Next()
		it.loadDataBlock()
		if it.dataIter != nil {
			it.dataIter.SeekToFirst()
		}
	}
}

// Prev moves to the previous entry.
func (it *TableIterator) Prev() {
	if it.dataIter == nil {
		return
	}
	it.dataIter.Prev()
	if !it.dataIter.Valid() {
		// Move to previous data block
		it.indexIter.Prev()
		it.loadDataBlock()
		if it.dataIter != nil {
			it.dataIter.SeekToLast()
		}
	}
}

// Key returns the current key.
func (it *TableIterator) Key() []byte {
	if it.dataIter == nil {
		return nil
	}
	return it.dataIter.Key()
}

// rawValue returns the current entry's stored payload: a one-byte EntryType
// tag followed by the value bytes.
func (it *TableIterator) rawValue() []byte {
	if it.dataIter == nil {
		return nil
	}
	return it.dataIter.Value()
}

// Value returns the current value, with the leading entry-type tag stripped.
// For a Delete entry this is always empty.
func (it *TableIterator) Value() []byte {
	v := it.rawValue()
	if len(v) == 0 {
		return v
	}
	return v[1:]
}

// EntryType returns the entry type (Put, Delete, or Merge) of the current entry.
func (it *TableIterator) EntryType() EntryType {
	v := it.rawValue()
	if len(v) == 0 {
		return EntryPut
	}
	return EntryType(v[0])
}

// Error returns any error encountered during iteration.
func (it *TableIterator) Error() error {
	return it.err
}

// loadDataBlock loads the data block pointed to by the current index entry.
func (it *TableIterator) loadDataBlock() {
	if !it.indexIter.Valid() {
		it.dataBlock = nil
		it.dataIter = nil
		return
	}

	// Index value contains the block handle
	handle, _, err := block.DecodeHandle(it.indexIter.Value())
	if err != nil {
		it.err = err
		it.dataBlock = nil
		it.dataIter = nil
		return
	}

	// Read the data block
	dataBlock, err := it.reader.readBlock(handle)
	if err != nil {
		it.err = err
		it.dataBlock = nil
		it.dataIter = nil
		return
	}

	it.dataBlock = dataBlock
	it.dataIter = dataBlock.NewIterator()
}
