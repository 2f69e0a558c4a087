// Package main provides the sstdump CLI tool for inspecting SST files.
//
// Usage:
//
//	sstdump --file=<path> [options]
//
// Commands:
//
//	scan    Scan all key-value pairs (default)
//	check   Verify SST file integrity (footer, index, block checksums)
//	raw     Show footer handles and entry counts in estimated blocks of 16 entries
//
// This is a thin convenience wrapper over the public table.Reader API; it is
// not part of the library's contract.
//
// Reference: RocksDB v10.7.5 tools/sst_dump_tool.cc
package main

import (
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/aalhour/sstfmt/internal/block"
	"github.com/aalhour/sstfmt/internal/table"
)

var (
	filePath        = flag.String("file", "", "Path to the SST file (required)")
	command         = flag.String("command", "scan", "Command: scan, check, raw")
	hexOutput       = flag.Bool("hex", false, "Output keys and values in hex format")
	limit           = flag.Int("limit", 0, "Limit number of entries (0 = unlimited)")
	fromKey         = flag.String("from", "", "Start key for scan")
	toKey           = flag.String("to", "", "End key for scan (exclusive)")
	showValues      = flag.Bool("values", true, "Show values in scan output")
	help            = flag.Bool("help", false, "Print help")
	showSummary     = flag.Bool("summary", true, "Show summary statistics")
	verifyChecksums = flag.Bool("verify_checksums", true, "Verify block checksums during check")
)

func main() {
	flag.Parse()

	if *help {
		printUsage()
		return
	}

	if *filePath == "" {
		fmt.Fprintln(os.Stderr, "Error: --file flag is required")
		printUsage()
		os.Exit(1)
	}

	var err error
	switch *command {
	case "scan":
		err = cmdScan()
	case "check":
		err = cmdCheck()
	case "raw":
		err = cmdRaw()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", *command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("sstdump - SST file inspection tool")
	fmt.Println()
	fmt.Println("Usage: sstdump --file=<path> [--command=<cmd>] [options]")
	fmt.Println()
	fmt.Println("Commands (--command):")
	fmt.Println("  scan   Scan all key-value pairs (default)")
	fmt.Println("  check  Verify SST file integrity")
	fmt.Println("  raw    Show footer handles and entry counts in estimated blocks of 16 entries")
	fmt.Println()
	fmt.Println("Options:")
	flag.PrintDefaults()
}

// osFile adapts *os.File to table.ReadableFile by caching the file size.
type osFile struct {
	*os.File
	size int64
}

func openFile(path string) (*osFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &osFile{File: f, size: info.Size()}, nil
}

func (f *osFile) Size() int64 { return f.size }

func openSST(verifyChecksums bool) (*table.Reader, *osFile, error) {
	file, err := openFile(*filePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}

	opts := table.ReaderOptions{VerifyChecksums: verifyChecksums}
	reader, err := table.Open(file, opts)
	if err != nil {
		_ = file.Close()
		return nil, nil, fmt.Errorf("failed to open SST: %w", err)
	}

	return reader, file, nil
}

func formatOutput(data []byte) string {
	if *hexOutput {
		return hex.EncodeToString(data)
	}
	for _, b := range data {
		if b < 32 || b > 126 {
			return hex.EncodeToString(data)
		}
	}
	return string(data)
}

func cmdScan() error {
	reader, file, err := openSST(false)
	if err != nil {
		return err
	}
	defer file.Close()

	fmt.Printf("SST file: %s\n", *filePath)
	fmt.Println("---")

	iter := reader.NewIterator()

	if *fromKey != "" {
		iter.Seek([]byte(*fromKey))
	} else {
		iter.SeekToFirst()
	}

	count := 0
	var totalKeyBytes, totalValueBytes int64

	for iter.Valid() {
		key := iter.Key()

		if *toKey != "" && string(key) >= *toKey {
			break
		}

		value := iter.Value()

		if *showValues {
			fmt.Printf("%s => %s\n", formatOutput(key), formatOutput(value))
		} else {
			fmt.Printf("%s\n", formatOutput(key))
		}

		totalKeyBytes += int64(len(key))
		totalValueBytes += int64(len(value))
		count++

		if *limit > 0 && count >= *limit {
			break
		}

		iter.Next()
	}

	if err := iter.Error(); err != nil {
		return fmt.Errorf("iterator error: %w", err)
	}

	if *showSummary {
		fmt.Println("---")
		fmt.Printf("Total entries: %d\n", count)
		fmt.Printf("Total key bytes: %d\n", totalKeyBytes)
		fmt.Printf("Total value bytes: %d\n", totalValueBytes)
	}

	return nil
}

func cmdCheck() error {
	reader, file, err := openSST(*verifyChecksums)
	if err != nil {
		return err
	}
	defer file.Close()

	fmt.Printf("Checking SST file: %s\n", *filePath)
	if *verifyChecksums {
		fmt.Println("Block checksum verification: ENABLED")
	} else {
		fmt.Println("Block checksum verification: DISABLED")
	}
	fmt.Println("---")

	footer := reader.Footer()
	fmt.Printf("Format version: %d\n", footer.FormatVersion)
	fmt.Printf("Checksum type: %s\n", checksumTypeName(footer.ChecksumType))

	iter := reader.NewIterator()
	count := 0

	for iter.SeekToFirst(); iter.Valid(); iter.Next() {
		count++
	}

	fmt.Println("---")
	fmt.Printf("Total entries scanned: %d\n", count)

	if err := iter.Error(); err != nil {
		if errors.Is(err, table.ErrChecksumMismatch) {
			fmt.Printf("Checksum verification: FAILED (%v)\n", err)
		} else {
			fmt.Printf("Iterator error: %v\n", err)
		}
		return err
	}

	if *verifyChecksums {
		fmt.Println("Checksum verification: PASSED")
	}
	fmt.Println("SST file is valid")
	return nil
}

func checksumTypeName(t block.ChecksumType) string {
	switch t {
	case block.ChecksumTypeNone:
		return "None"
	case block.ChecksumTypeCRC32C:
		return "CRC32C"
	case block.ChecksumTypeXXHash:
		return "XXHash"
	case block.ChecksumTypeXXHash64:
		return "XXHash64"
	case block.ChecksumTypeXXH3:
		return "XXH3"
	default:
		return "Unknown"
	}
}

func cmdRaw() error {
	reader, file, err := openSST(false)
	if err != nil {
		return err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}

	fmt.Printf("SST file: %s\n", *filePath)
	fmt.Printf("File size: %d bytes\n", info.Size())
	footer := reader.Footer()
	fmt.Printf("Format version: %d\n", footer.FormatVersion)
	fmt.Printf("Metaindex handle: offset=%d size=%d\n", footer.MetaindexHandle.Offset, footer.MetaindexHandle.Size)
	fmt.Println("---")

	iter := reader.NewIterator()
	count := 0
	blockCount := 0
	entriesInBlock := 0
	blockStart := 0

	for iter.SeekToFirst(); iter.Valid(); iter.Next() {
		entriesInBlock++
		count++

		// Data block boundaries aren't exposed by the reader's flat iterator;
		// approximate them by entry count for a human-readable summary.
		if entriesInBlock >= 16 {
			fmt.Printf("Block %d: %d entries (entries %d-%d)\n", blockCount, entriesInBlock, blockStart, count-1)
			blockCount++
			blockStart = count
			entriesInBlock = 0
		}
	}

	if entriesInBlock > 0 {
		fmt.Printf("Block %d: %d entries (entries %d-%d)\n", blockCount, entriesInBlock, blockStart, count-1)
		blockCount++
	}

	if err := iter.Error(); err != nil {
		return fmt.Errorf("iterator error: %w", err)
	}

	fmt.Println("---")
	fmt.Printf("Total entries: %d\n", count)
	fmt.Printf("Estimated blocks: %d\n", blockCount)

	return nil
}
