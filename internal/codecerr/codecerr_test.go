package codecerr

import (
	"errors"
	"fmt"
	"testing"
)

// Contract: each taxonomy sentinel is non-nil and distinct from the others.
func TestSentinels_Distinct(t *testing.T) {
	sentinels := []error{
		ErrIO,
		ErrInvalidMagicNumber,
		ErrInvalidFooterSize,
		ErrUnsupportedCompressionType,
		ErrUnsupportedChecksumType,
		ErrUnsupportedFormatVersion,
		ErrInvalidVarint,
		ErrInvalidBlockHandle,
		ErrInvalidBlockFormat,
		ErrDataCorruption,
		ErrInvalidArgument,
		ErrUnsupported,
		ErrFileTooSmall,
	}

	for i, a := range sentinels {
		if a == nil {
			t.Fatalf("sentinel %d is nil", i)
		}
		for j, b := range sentinels {
			if i == j {
				continue
			}
			if errors.Is(a, b) {
				t.Errorf("sentinel %d unexpectedly matches sentinel %d (%v vs %v)", i, j, a, b)
			}
		}
	}
}

// Contract: a wrapped sentinel still satisfies errors.Is against its kind.
func TestSentinels_WrappedStillMatches(t *testing.T) {
	wrapped := fmt.Errorf("%w: table: checksum mismatch", ErrDataCorruption)
	if !errors.Is(wrapped, ErrDataCorruption) {
		t.Error("wrapped error should match its wrapped kind via errors.Is")
	}
	if errors.Is(wrapped, ErrInvalidArgument) {
		t.Error("wrapped error should not match an unrelated kind")
	}
}
