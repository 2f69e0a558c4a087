// Package options implements config-file loading for this codec's writer and
// reader options.
//
// This package is internal and not part of the public API. Every
// table.TableBuilder / table.Reader constructor also accepts its options
// struct directly; a config file is purely a convenience for callers that
// want to externalize these settings (e.g. a CLI flag file).
//
// Reference: RocksDB v10.7.5
//   - options/options_helper.cc
//   - options/db_options.cc
package options

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/aalhour/sstfmt/internal/checksum"
	"github.com/aalhour/sstfmt/internal/compression"
	"github.com/aalhour/sstfmt/internal/table"
)

// ReadWriteOptions reads a config file and decodes it into table.BuilderOptions,
// starting from table.DefaultBuilderOptions.
func ReadWriteOptions(r io.Reader) (table.BuilderOptions, error) {
	opts := table.DefaultBuilderOptions()

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		key, value, ok := parseLine(scanner.Text())
		if !ok {
			continue
		}

		switch key {
		case "block_size":
			if n, err := strconv.Atoi(value); err == nil {
				opts.BlockSize = n
			}
		case "block_restart_interval":
			if n, err := strconv.Atoi(value); err == nil {
				opts.BlockRestartInterval = n
			}
		case "format_version":
			if n, err := strconv.ParseUint(value, 10, 32); err == nil {
				opts.FormatVersion = uint32(n)
			}
		case "checksum_type":
			opts.ChecksumType = stringToChecksumType(value)
		case "comparator":
			opts.ComparatorName = value
		case "compression":
			opts.Compression = stringToCompressionType(value)
		}
	}

	return opts, scanner.Err()
}

// ReadReadOptions reads a config file and decodes it into table.ReaderOptions,
// defaulting to VerifyChecksums: true per this codec's reader default.
func ReadReadOptions(r io.Reader) (table.ReaderOptions, error) {
	opts := table.ReaderOptions{VerifyChecksums: true}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		key, value, ok := parseLine(scanner.Text())
		if !ok {
			continue
		}

		switch key {
		case "verify_checksums":
			if b, err := strconv.ParseBool(value); err == nil {
				opts.VerifyChecksums = b
			}
		case "cache_blocks":
			if b, err := strconv.ParseBool(value); err == nil {
				opts.CacheBlocks = b
			}
		}
	}

	return opts, scanner.Err()
}

// parseLine extracts a key=value pair from a config line, skipping blank
// lines, comments, and section headers.
func parseLine(raw string) (key, value string, ok bool) {
	line := strings.TrimSpace(raw)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", "", false
	}
	if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
		return "", "", false
	}

	parts := strings.SplitN(line, "=", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), true
}

// stringToCompressionType converts a config value to compression.Type.
func stringToCompressionType(s string) compression.Type {
	switch s {
	case "none", "kNoCompression":
		return compression.NoCompression
	case "snappy", "kSnappyCompression":
		return compression.SnappyCompression
	case "zlib", "kZlibCompression":
		return compression.ZlibCompression
	case "lz4", "kLZ4Compression":
		return compression.LZ4Compression
	case "lz4hc", "kLZ4HCCompression":
		return compression.LZ4HCCompression
	case "zstd", "kZSTD":
		return compression.ZstdCompression
	default:
		return compression.NoCompression
	}
}

// stringToChecksumType converts a config value to checksum.Type.
func stringToChecksumType(s string) checksum.Type {
	switch s {
	case "none", "kNoChecksum":
		return checksum.TypeNoChecksum
	case "crc32c", "kCRC32c":
		return checksum.TypeCRC32C
	case "xxhash", "kxxHash":
		return checksum.TypeXXHash
	case "xxhash64", "kxxHash64":
		return checksum.TypeXXHash64
	case "xxh3", "kXXH3":
		return checksum.TypeXXH3
	default:
		return checksum.TypeXXH3
	}
}
