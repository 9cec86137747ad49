package conv

import (
	"fmt"
	"math"
)

// IntToUint32 converts a length to a uint32 block header field.
func IntToUint32(v int) (uint32, error) {
	if v < 0 {
		return 0, fmt.Errorf("integer overflow: %d cannot be converted to uint32 (negative)", v)
	}
	if uint64(v) > math.MaxUint32 {
		return 0, fmt.Errorf("integer overflow: %d cannot be converted to uint32 (too large)", v)
	}
	return uint32(v), nil
}

// Uint32ToInt converts a header field read from disk to an allocation size.
func Uint32ToInt(v uint32) (int, error) {
	if uint64(v) > uint64(math.MaxInt) {
		return 0, fmt.Errorf("integer overflow: %d cannot be converted to int (too large)", v)
	}
	return int(v), nil
}
