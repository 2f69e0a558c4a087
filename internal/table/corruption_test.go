// Corruption detection tests for the table package.
//
// These tests verify that corrupted SST files are properly detected and
// appropriate errors are returned.
package table

import (
	"bytes"
	"testing"

	"github.com/aalhour/sstfmt/internal/block"
)

func padCorruptKey(i int) string {
	return string([]byte{byte('a' + i/26), byte('a' + i%26), byte('0' + i%10)})
}

// corruptMemFile implements ReadableFile for in-memory testing
type corruptMemFile struct {
	data []byte
}

func (m *corruptMemFile) ReadAt(p []byte, off int64) (n int, err error) {
	if off >= int64(len(m.data)) {
		return 0, nil
	}
	n = copy(p, m.data[off:])
	return n, nil
}

func (m *corruptMemFile) Close() error {
	return nil
}

func (m *corruptMemFile) Size() int64 {
	return int64(len(m.data))
}

// TestCorruptedFooter tests detection of corrupted SST footer.
func TestCorruptedFooter(t *testing.T) {
	// Create a valid SST file first
	var buf bytes.Buffer
	opts := DefaultBuilderOptions()
	builder := NewTableBuilder(&buf, opts)

	builder.Add([]byte("key"), []byte("value"))

	if err := builder.Finish(); err != nil {
		t.Fatal(err)
	}

	data := buf.Bytes()

	testCases := []struct {
		name     string
		corrupt  func([]byte) []byte
		wantOpen bool // true if Open should succeed despite corruption
	}{
		{
			name: "truncated_file",
			corrupt: func(d []byte) []byte {
				return d[:len(d)/2]
			},
			wantOpen: false,
		},
		{
			name: "corrupted_magic_number",
			corrupt: func(d []byte) []byte {
				c := make([]byte, len(d))
				copy(c, d)
				// Corrupt last 8 bytes (magic number)
				for i := len(c) - 8; i < len(c); i++ {
					c[i] ^= 0xFF
				}
				return c
			},
			wantOpen: false,
		},
		{
			name: "zero_footer",
			corrupt: func(d []byte) []byte {
				c := make([]byte, len(d))
				copy(c, d)
				// Zero out footer (last 53 bytes for format_version >= 1)
				footerSize := block.NewVersionsEncodedLength
				for i := len(c) - footerSize; i < len(c); i++ {
					c[i] = 0
				}
				return c
			},
			wantOpen: false,
		},
		{
			name: "too_small_file",
			corrupt: func(d []byte) []byte {
				return []byte{0, 1, 2, 3} // Only 4 bytes
			},
			wantOpen: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			corrupted := tc.corrupt(data)
			_, err := Open(&corruptMemFile{data: corrupted}, ReaderOptions{})

			if tc.wantOpen && err != nil {
				t.Errorf("expected Open to succeed, got error: %v", err)
			}
			if !tc.wantOpen && err == nil {
				t.Error("expected Open to fail with corrupted data")
			}
		})
	}
}

// TestCorruptedChecksum tests detection of checksum mismatches.
func TestCorruptedChecksum(t *testing.T) {
	// Create a valid SST file with checksum verification enabled
	var buf bytes.Buffer
	opts := DefaultBuilderOptions()
	builder := NewTableBuilder(&buf, opts)

	// Add some entries
	for i := range 10 {
		builder.Add([]byte(padCorruptKey(i)), []byte("value"))
	}

	if err := builder.Finish(); err != nil {
		t.Fatal(err)
	}

	data := buf.Bytes()

	// Corrupt a byte in the middle of the file (data block area)
	corrupted := make([]byte, len(data))
	copy(corrupted, data)
	if len(corrupted) > 100 {
		corrupted[50] ^= 0xFF // Flip bits in data area
	}

	// Open should succeed (footer is intact)
	reader, err := Open(&corruptMemFile{data: corrupted}, ReaderOptions{VerifyChecksums: true})
	if err != nil {
		t.Skipf("Open failed (might be footer corruption): %v", err)
	}
	defer reader.Close()

	// Iteration should fail with checksum error
	iter := reader.NewIterator()
	iter.SeekToFirst()

	// Either the seek fails or iteration eventually hits the error
	foundError := false
	for iter.Valid() {
		iter.Next()
	}
	if iter.Error() != nil {
		foundError = true
		t.Logf("Got expected error during iteration: %v", iter.Error())
	}

	// Note: Depending on where corruption is, error might not be detected
	// if the corrupted block is never read
	if !foundError {
		t.Log("Note: Corruption not detected (may be in unread area)")
	}
}

// TestCorruptedBlock tests detection of corrupted data blocks.
func TestCorruptedBlock(t *testing.T) {
	var buf bytes.Buffer
	opts := DefaultBuilderOptions()
	opts.BlockSize = 100 // Small blocks
	builder := NewTableBuilder(&buf, opts)

	// Add entries to create multiple blocks
	for i := range 50 {
		value := bytes.Repeat([]byte{'v'}, 20)
		builder.Add([]byte(padCorruptKey(i)), value)
	}

	if err := builder.Finish(); err != nil {
		t.Fatal(err)
	}

	data := buf.Bytes()

	// Corrupt the beginning of the file (first data block)
	corrupted := make([]byte, len(data))
	copy(corrupted, data)
	if len(corrupted) > 20 {
		// Corrupt two bytes inside the first data block's leading entries
		corrupted[10] ^= 0xFF
		corrupted[11] ^= 0xFF
	}

	reader, err := Open(&corruptMemFile{data: corrupted}, ReaderOptions{VerifyChecksums: false})
	if err != nil {
		t.Skipf("Open failed: %v", err)
	}
	defer reader.Close()

	// Try to iterate - must not panic; the corruption may or may not surface
	iter := reader.NewIterator()
	iter.SeekToFirst()

	if iter.Valid() {
		// If valid, iteration might still work for some entries
		t.Log("Iterator is valid despite corruption - corruption may be in unused area")
	}

	if iter.Error() != nil {
		t.Logf("Got expected error: %v", iter.Error())
	}
}

// TestLargeKeysAndValues tests handling of very large keys and values.
func TestLargeKeysAndValues(t *testing.T) {
	var buf bytes.Buffer
	opts := DefaultBuilderOptions()
	opts.BlockSize = 64 * 1024 // 64KB blocks
	builder := NewTableBuilder(&buf, opts)

	testCases := []struct {
		keySize   int
		valueSize int
	}{
		{100, 100},     // Normal
		{1000, 1000},   // Large
		{10000, 10000}, // Very large
		{100, 100000},  // Small key, huge value
		{10000, 100},   // Huge key, small value
	}

	for i, tc := range testCases {
		// Vary a leading byte per entry so keys stay strictly increasing
		// whatever the length of the repeated 'k' run that follows.
		key := append([]byte{byte(i)}, bytes.Repeat([]byte{'k'}, tc.keySize)...)
		value := bytes.Repeat([]byte{'v'}, tc.valueSize)
		if err := builder.Add(key, value); err != nil {
			t.Fatalf("Add failed for keySize=%d, valueSize=%d: %v", tc.keySize, tc.valueSize, err)
		}
	}

	if err := builder.Finish(); err != nil {
		t.Fatal(err)
	}

	reader, err := Open(&corruptMemFile{data: buf.Bytes()}, ReaderOptions{})
	if err != nil {
		t.Fatal(err)
	}
	defer reader.Close()

	// Verify all entries can be read
	iter := reader.NewIterator()
	count := 0
	for iter.SeekToFirst(); iter.Valid(); iter.Next() {
		count++
	}

	if err := iter.Error(); err != nil {
		t.Fatalf("iteration error: %v", err)
	}

	if count != len(testCases) {
		t.Errorf("count: got %d, want %d", count, len(testCases))
	}

	t.Logf("Successfully read %d entries with large keys/values", count)
}

// TestBinaryKeysWithNulls tests keys containing null bytes.
func TestBinaryKeysWithNulls(t *testing.T) {
	var buf bytes.Buffer
	opts := DefaultBuilderOptions()
	builder := NewTableBuilder(&buf, opts)

	// Keys with embedded nulls, already in strictly increasing order.
	testKeys := [][]byte{
		{0, 0, 0},
		{0, 0, 'x', 0, 0},
		{0, 'a', 'b', 'c'},
		{'a', 0, 'b'},
		{'a', 'b', 'c', 0},
	}

	for _, userKey := range testKeys {
		value := []byte("value")
		if err := builder.Add(userKey, value); err != nil {
			t.Fatalf("Add failed for key with nulls: %v", err)
		}
	}

	if err := builder.Finish(); err != nil {
		t.Fatal(err)
	}

	reader, err := Open(&corruptMemFile{data: buf.Bytes()}, ReaderOptions{})
	if err != nil {
		t.Fatal(err)
	}
	defer reader.Close()

	// Verify all entries
	iter := reader.NewIterator()
	i := 0
	for iter.SeekToFirst(); iter.Valid(); iter.Next() {
		if !bytes.Equal(iter.Key(), testKeys[i]) {
			t.Errorf("key %d: got %v, want %v", i, iter.Key(), testKeys[i])
		}
		i++
	}

	if i != len(testKeys) {
		t.Errorf("count: got %d, want %d", i, len(testKeys))
	}

	t.Logf("Successfully handled %d keys with null bytes", i)
}

// TestBinaryValuesWithNulls tests values containing null bytes.
func TestBinaryValuesWithNulls(t *testing.T) {
	var buf bytes.Buffer
	opts := DefaultBuilderOptions()
	builder := NewTableBuilder(&buf, opts)

	// Values with embedded nulls
	testValues := [][]byte{
		{0, 0, 0},
		{'a', 0, 'b'},
		{0, 'a', 'b', 'c'},
		{'a', 'b', 'c', 0},
		{0, 0, 'x', 0, 0},
		bytes.Repeat([]byte{0}, 1000), // 1000 nulls
	}

	for i, value := range testValues {
		if err := builder.Add([]byte(padCorruptKey(i)), value); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}

	if err := builder.Finish(); err != nil {
		t.Fatal(err)
	}

	reader, err := Open(&corruptMemFile{data: buf.Bytes()}, ReaderOptions{})
	if err != nil {
		t.Fatal(err)
	}
	defer reader.Close()

	// Verify all values
	iter := reader.NewIterator()
	i := 0
	for iter.SeekToFirst(); iter.Valid(); iter.Next() {
		if !bytes.Equal(iter.Value(), testValues[i]) {
			t.Errorf("value %d mismatch", i)
		}
		i++
	}

	if i != len(testValues) {
		t.Errorf("count: got %d, want %d", i, len(testValues))
	}

	t.Logf("Successfully handled %d values with null bytes", i)
}

// TestEmptyValue tests handling of empty values.
func TestEmptyValue(t *testing.T) {
	var buf bytes.Buffer
	opts := DefaultBuilderOptions()
	builder := NewTableBuilder(&buf, opts)

	// Mix of empty and non-empty values
	entries := []struct {
		key   string
		value []byte
	}{
		{"aaa", []byte{}},        // Empty
		{"bbb", []byte("value")}, // Non-empty
		{"ccc", []byte{}},        // Empty
		{"ddd", nil},             // Nil (treated as empty)
		{"eee", []byte("x")},     // Single byte
	}

	for _, e := range entries {
		if err := builder.Add([]byte(e.key), e.value); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}

	if err := builder.Finish(); err != nil {
		t.Fatal(err)
	}

	reader, err := Open(&corruptMemFile{data: buf.Bytes()}, ReaderOptions{})
	if err != nil {
		t.Fatal(err)
	}
	defer reader.Close()

	iter := reader.NewIterator()
	i := 0
	for iter.SeekToFirst(); iter.Valid(); iter.Next() {
		expected := entries[i].value
		if expected == nil {
			expected = []byte{}
		}
		if !bytes.Equal(iter.Value(), expected) {
			t.Errorf("value %d: got %v, want %v", i, iter.Value(), expected)
		}
		i++
	}

	if i != len(entries) {
		t.Errorf("count: got %d, want %d", i, len(entries))
	}
}
