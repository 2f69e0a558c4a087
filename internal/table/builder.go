// Package table provides SST file reading and writing.
//
// TableBuilder creates SST files in the block-based table format.
//
// Reference: RocksDB v10.7.5
//   - table/block_based/block_based_table_builder.h
//   - table/block_based/block_based_table_builder.cc
//   - table/table_builder.h
package table

import (
	"encoding/binary"
	"fmt"
	"io"
	"math/rand/v2"

	"github.com/aalhour/sstfmt/internal/block"
	"github.com/aalhour/sstfmt/internal/checksum"
	"github.com/aalhour/sstfmt/internal/codecerr"
	"github.com/aalhour/sstfmt/internal/compression"
	"github.com/aalhour/sstfmt/internal/encoding"
)

var (
	// ErrUnsupportedWriterFormatVersion indicates the requested format
	// version is not one the writer can emit.
	ErrUnsupportedWriterFormatVersion = fmt.Errorf("%w: table: writer only supports format versions 5, 6, and 7", codecerr.ErrUnsupportedFormatVersion)

	// ErrBuilderFinished indicates Add/AddDelete/AddMerge/Finish was called
	// on a TableBuilder that has already finished.
	ErrBuilderFinished = fmt.Errorf("%w: table: builder already finished", codecerr.ErrInvalidArgument)

	// ErrKeysOutOfOrder indicates a key was added out of strictly
	// increasing order.
	ErrKeysOutOfOrder = fmt.Errorf("%w: table: keys must be added in strictly increasing order", codecerr.ErrInvalidArgument)
)

// EntryType identifies what kind of record a value represents. It is
// written as a one-byte tag prefixed to the stored value; this codec has
// no internal-key trailer, so entry type travels with the value instead.
type EntryType uint8

const (
	// EntryPut is a live key-value pair.
	EntryPut EntryType = 0
	// EntryDelete is a tombstone for a key; the stored payload after the
	// tag byte is empty.
	EntryDelete EntryType = 1
	// EntryMerge is a merge operand to be combined with prior values by
	// the caller's merge operator; this codec does not interpret it.
	EntryMerge EntryType = 2
)

func (e EntryType) String() string {
	switch e {
	case EntryPut:
		return "Put"
	case EntryDelete:
		return "Delete"
	case EntryMerge:
		return "Merge"
	default:
		return "Unknown"
	}
}

// compressionHasEmbeddedSize returns true if the compression type embeds the
// uncompressed size in its format and doesn't need an external varint32 prefix.
// Reference: RocksDB util/compression.h lines 873-874:
// "Snappy and XPRESS instead extract the decompressed size from the
// compressed block itself, same as version 1."
//
// LZ4/LZ4HC are included here too: this codec's compression package already
// prepends its own 4-byte little-endian length header to LZ4 blocks (§4.2),
// so no second, table-level size prefix is needed on top of it.
func compressionHasEmbeddedSize(t compression.Type) bool {
	switch t {
	case compression.SnappyCompression, compression.LZ4Compression, compression.LZ4HCCompression:
		return true
	// Note: XpressCompression also has embedded size but is not supported
	default:
		return false
	}
}

// BuilderOptions configures the TableBuilder.
type BuilderOptions struct {
	// BlockSize is the target size for data blocks (default: 4KB).
	BlockSize int

	// BlockRestartInterval is the number of keys between restart points (default: 16).
	BlockRestartInterval int

	// FormatVersion is the SST format version. This codec writes V5, V6, or
	// V7 (default: V5); earlier versions are read-only.
	FormatVersion uint32

	// ChecksumType is the checksum algorithm (default: XXH3).
	ChecksumType checksum.Type

	// ComparatorName is the name of the key comparator.
	ComparatorName string

	// Compression is the compression type for data blocks.
	Compression compression.Type
}

// DefaultBuilderOptions returns default options for TableBuilder.
func DefaultBuilderOptions() BuilderOptions {
	return BuilderOptions{
		BlockSize:            4096,
		BlockRestartInterval: 16,
		FormatVersion:        block.MinWriterFormatVersion,
		ChecksumType:         checksum.TypeXXH3,
		ComparatorName:       "leveldb.BytewiseComparator",
		Compression:          compression.NoCompression,
	}
}

// TableBuilder builds SST files in the block-based table format.
//
// Keys must be added in strictly increasing order; Add returns an error on
// any key that is not greater than the previous one.
type TableBuilder struct {
	writer  io.Writer
	options BuilderOptions

	dataBlock  *block.Builder
	indexBlock *block.Builder

	pendingIndexEntry bool
	pendingHandle     block.Handle
	lastKey           []byte

	offset uint64

	numEntries    uint64
	numDataBlocks uint64
	rawKeySize    uint64
	rawValueSize  uint64
	dataSize      uint64
	indexSize     uint64

	finished bool
	err      error

	// baseContextChecksum seeds the position-dependent checksum modifier
	// used by format version 6+. Must be non-zero to enable it.
	baseContextChecksum uint32
}

// NewTableBuilder creates a new TableBuilder that writes to w.
// An unsupported FormatVersion is recorded as a deferred error, returned
// from the first Add or from Finish, matching this builder's existing
// error-on-use convention rather than failing construction itself.
func NewTableBuilder(w io.Writer, opts BuilderOptions) *TableBuilder {
	if opts.BlockSize <= 0 {
		opts.BlockSize = 4096
	}
	if opts.BlockRestartInterval <= 0 {
		opts.BlockRestartInterval = 16
	}
	if opts.FormatVersion == 0 {
		opts.FormatVersion = block.MinWriterFormatVersion
	}
	if opts.ChecksumType == 0 {
		opts.ChecksumType = checksum.TypeXXH3
	}
	if opts.ComparatorName == "" {
		opts.ComparatorName = "leveldb.BytewiseComparator"
	}

	tb := &TableBuilder{
		writer:     w,
		options:    opts,
		dataBlock:  block.NewBuilder(opts.BlockRestartInterval),
		indexBlock: block.NewBuilder(1),
	}

	if !block.IsSupportedWriterFormatVersion(opts.FormatVersion) {
		tb.err = ErrUnsupportedWriterFormatVersion
		return tb
	}

	// Format version 6+ enables position-dependent ("context") checksums;
	// the seed must be non-zero to turn the modifier on at all.
	if opts.FormatVersion >= 6 {
		for tb.baseContextChecksum == 0 {
			tb.baseContextChecksum = rand.Uint32()
		}
	}

	return tb
}

// Add adds a Put entry to the table. Keys must be added in strictly
// increasing order.
func (tb *TableBuilder) Add(key, value []byte) error {
	return tb.addEntry(key, value, EntryPut)
}

// AddDelete adds a tombstone for key to the table.
func (tb *TableBuilder) AddDelete(key []byte) error {
	return tb.addEntry(key, nil, EntryDelete)
}

// AddMerge adds a merge operand for key to the table.
func (tb *TableBuilder) AddMerge(key, value []byte) error {
	return tb.addEntry(key, value, EntryMerge)
}

// addEntry adds a key-value pair of the given entry type to the table.
func (tb *TableBuilder) addEntry(key, value []byte, entryType EntryType) error {
	if tb.finished {
		return ErrBuilderFinished
	}
	if tb.err != nil {
		return tb.err
	}
	if tb.lastKey != nil && !keyLess(tb.lastKey, key) {
		return ErrKeysOutOfOrder
	}

	if tb.pendingIndexEntry {
		tb.indexBlock.Add(tb.lastKey, tb.pendingHandle.EncodeToSlice())
		tb.pendingIndexEntry = false
	}

	payload := make([]byte, 1+len(value))
	payload[0] = byte(entryType)
	copy(payload[1:], value)

	tb.dataBlock.Add(key, payload)
	tb.numEntries++
	tb.rawKeySize += uint64(len(key))
	tb.rawValueSize += uint64(len(value))

	tb.lastKey = append(tb.lastKey[:0], key...)

	if tb.dataBlock.EstimatedSize() >= tb.options.BlockSize {
		if err := tb.flushDataBlock(); err != nil {
			tb.err = err
			return err
		}
	}

	return nil
}

// keyLess reports whether a sorts strictly before b under this codec's
// plain lexicographic byte comparator.
func keyLess(a, b []byte) bool {
	return compareBytes(a, b) < 0
}

func compareBytes(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

// flushDataBlock writes the current data block to the file.
func (tb *TableBuilder) flushDataBlock() error {
	if tb.dataBlock.Empty() {
		return nil
	}

	blockContents := tb.dataBlock.Finish()

	handle, err := tb.writeBlockWithTrailer(blockContents, block.TypeData)
	if err != nil {
		return err
	}

	tb.dataSize += handle.Size
	tb.numDataBlocks++

	tb.pendingHandle = handle
	tb.pendingIndexEntry = true

	tb.dataBlock.Reset()

	return nil
}

// writeBlockWithTrailer writes a block with its trailer (compression type + checksum).
// Returns the handle (offset, size) of the written block.
func (tb *TableBuilder) writeBlockWithTrailer(blockData []byte, blockType block.Type) (block.Handle, error) {
	compressedData := blockData
	compressionType := block.CompressionNone

	if tb.options.Compression != compression.NoCompression && blockType == block.TypeData {
		compressed, err := compression.Compress(tb.options.Compression, blockData)
		if err == nil && compressed != nil && len(compressed) < len(blockData) {
			// For format_version >= 2, prepend varint32 decompressed size for most algorithms.
			// Exception: Snappy, LZ4 and LZ4HC carry the uncompressed size in their own
			// framing (see compressionHasEmbeddedSize), so no prefix is needed.
			if tb.options.FormatVersion >= 2 && !compressionHasEmbeddedSize(tb.options.Compression) {
				prefix := encoding.AppendVarint32(nil, uint32(len(blockData)))
				compressedData = append(prefix, compressed...)
			} else {
				compressedData = compressed
			}
			compressionType = block.CompressionType(tb.options.Compression)
		}
	}

	handle := block.Handle{
		Offset: tb.offset,
		Size:   uint64(len(compressedData)),
	}

	n, err := tb.writer.Write(compressedData)
	if err != nil {
		return block.Handle{}, err
	}
	tb.offset += uint64(n)

	trailer := make([]byte, block.BlockTrailerSize)
	trailer[0] = byte(compressionType)

	cksum := checksum.ComputeChecksum(tb.options.ChecksumType, compressedData, trailer[0])

	// Format version 6+ mixes in a position-dependent modifier so that
	// relocating a block (without recomputing its contents) is detectable.
	if tb.options.FormatVersion >= 6 && tb.baseContextChecksum != 0 {
		cksum += checksum.ChecksumModifierForContext(tb.baseContextChecksum, handle.Offset)
	}

	binary.LittleEndian.PutUint32(trailer[1:], cksum)

	n, err = tb.writer.Write(trailer)
	if err != nil {
		return block.Handle{}, err
	}
	tb.offset += uint64(n)

	return handle, nil
}

// Finish finalizes the table and writes the footer.
// After calling Finish, the TableBuilder should not be used.
func (tb *TableBuilder) Finish() error {
	if tb.finished {
		return ErrBuilderFinished
	}
	if tb.err != nil {
		return tb.err
	}
	tb.finished = true

	if err := tb.flushDataBlock(); err != nil {
		tb.err = err
		return err
	}

	if tb.pendingIndexEntry {
		tb.indexBlock.Add(tb.lastKey, tb.pendingHandle.EncodeToSlice())
		tb.pendingIndexEntry = false
	}

	indexContents := tb.indexBlock.Finish()
	indexHandle, err := tb.writeBlockWithTrailer(indexContents, block.TypeIndex)
	if err != nil {
		tb.err = err
		return err
	}
	tb.indexSize = indexHandle.Size

	// For format_version >= 6 the index handle is unreachable from the
	// footer; it is always recorded in the metaindex block instead so the
	// file stays self-describing.
	metaindexBuilder := block.NewBuilder(1)
	if !block.FormatVersionUsesIndexHandleInFooter(tb.options.FormatVersion) {
		metaindexBuilder.Add([]byte("rocksdb.index"), indexHandle.EncodeToSlice())
	}

	metaindexContents := metaindexBuilder.Finish()
	metaindexHandle, err := tb.writeBlockWithTrailer(metaindexContents, block.TypeMetaIndex)
	if err != nil {
		tb.err = err
		return err
	}

	if err := tb.writeFooter(metaindexHandle, indexHandle); err != nil {
		tb.err = err
		return err
	}

	return nil
}

// writeFooter writes the SST file footer.
func (tb *TableBuilder) writeFooter(metaindexHandle, indexHandle block.Handle) error {
	footer := &block.Footer{
		TableMagicNumber:    block.BlockBasedTableMagicNumber,
		FormatVersion:       tb.options.FormatVersion,
		ChecksumType:        block.ToChecksumType(uint8(tb.options.ChecksumType)),
		MetaindexHandle:     metaindexHandle,
		IndexHandle:         indexHandle,
		BlockTrailerSize:    block.BlockTrailerSize,
		BaseContextChecksum: tb.baseContextChecksum,
	}

	footerOffset := tb.offset
	footerData := footer.EncodeToAt(footerOffset)
	_, err := tb.writer.Write(footerData)
	if err != nil {
		return err
	}
	tb.offset += uint64(len(footerData))

	return nil
}

// Abandon abandons the table being built.
// After calling Abandon, the TableBuilder should not be used.
func (tb *TableBuilder) Abandon() {
	tb.finished = true
}

// NumEntries returns the number of entries added so far.
func (tb *TableBuilder) NumEntries() uint64 {
	return tb.numEntries
}

// FileSize returns the size of the file generated so far.
func (tb *TableBuilder) FileSize() uint64 {
	return tb.offset
}

// NumDataBlocks returns the number of data blocks flushed so far.
func (tb *TableBuilder) NumDataBlocks() uint64 {
	return tb.numDataBlocks
}

// DataSize returns the total on-disk size of data blocks (including trailers).
func (tb *TableBuilder) DataSize() uint64 {
	return tb.dataSize
}

// IndexSize returns the on-disk size of the index block (including trailer).
func (tb *TableBuilder) IndexSize() uint64 {
	return tb.indexSize
}

// Status returns any error encountered during building.
func (tb *TableBuilder) Status() error {
	return tb.err
}
