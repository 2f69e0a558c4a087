// Package codecerr defines the canonical error-kind taxonomy shared across
// this module's packages. Every package keeps its own sentinel errors (e.g.
// block.ErrBadBlockHandle, table.ErrChecksumMismatch) for precise call-site
// matching, but each one wraps exactly one of the kinds declared here so a
// caller that only cares about the kind — not which package raised it — can
// test with errors.Is(err, codecerr.ErrDataCorruption) regardless of whether
// the error came from the block, table, or encoding layer.
//
// Wrapping goes through fmt.Errorf("%w: ...", ErrX), never errors.Join, so a
// single kind stays the unambiguous target of errors.Is up the call stack.
package codecerr

import "errors"

var (
	// ErrIO marks an underlying read/write/seek failure from the supplied file.
	ErrIO = errors.New("codecerr: i/o failure")

	// ErrInvalidMagicNumber marks a file tail that matches neither the legacy
	// nor the extended RocksDB magic number.
	ErrInvalidMagicNumber = errors.New("codecerr: invalid magic number")

	// ErrInvalidFooterSize marks a footer slice whose length doesn't match
	// the layout implied by its detected format version.
	ErrInvalidFooterSize = errors.New("codecerr: invalid footer size")

	// ErrUnsupportedCompressionType marks a compression tag outside the
	// known range.
	ErrUnsupportedCompressionType = errors.New("codecerr: unsupported compression type")

	// ErrUnsupportedChecksumType marks a checksum tag outside the known
	// range.
	ErrUnsupportedChecksumType = errors.New("codecerr: unsupported checksum type")

	// ErrUnsupportedFormatVersion marks a footer format_version this codec
	// doesn't know how to parse.
	ErrUnsupportedFormatVersion = errors.New("codecerr: unsupported format version")

	// ErrInvalidVarint marks a varint whose continuation byte runs past the
	// maximum encoded length, or whose input is truncated.
	ErrInvalidVarint = errors.New("codecerr: invalid varint")

	// ErrInvalidBlockHandle marks a BlockHandle addressing bytes beyond the
	// file, or into the footer region.
	ErrInvalidBlockHandle = errors.New("codecerr: invalid block handle")

	// ErrInvalidBlockFormat marks a structurally malformed block: zero
	// restart count, an out-of-range restart offset, shared > len(last_key),
	// or an entry that extends past its block's payload.
	ErrInvalidBlockFormat = errors.New("codecerr: invalid block format")

	// ErrDataCorruption marks a checksum mismatch, a non-zero reserved field
	// in a v6+ footer, or a malformed extended magic number.
	ErrDataCorruption = errors.New("codecerr: data corruption")

	// ErrInvalidArgument marks caller misuse: a writer used out of state, or
	// keys supplied out of order.
	ErrInvalidArgument = errors.New("codecerr: invalid argument")

	// ErrUnsupported marks a v6+ footer declaring a future reserved feature
	// this codec does not implement.
	ErrUnsupported = errors.New("codecerr: unsupported feature")

	// ErrFileTooSmall marks a file shorter than the minimum possible footer.
	ErrFileTooSmall = errors.New("codecerr: file too small")
)
