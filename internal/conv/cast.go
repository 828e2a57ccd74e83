package conv

import (
	"fmt"
	"math"
)

func overflow(v any, target, reason string) error {
	return fmt.Errorf("integer overflow: %v does not fit %s (%s)", v, target, reason)
}

// IntToUint32 converts a non-negative int to uint32.
func IntToUint32(v int) (uint32, error) {
	if v < 0 {
		return 0, overflow(v, "uint32", "negative")
	}
	if uint64(v) > math.MaxUint32 {
		return 0, overflow(v, "uint32", "too large")
	}
	return uint32(v), nil
}

// IntToUint64 converts a non-negative int to uint64.
func IntToUint64(v int) (uint64, error) {
	if v < 0 {
		return 0, overflow(v, "uint64", "negative")
	}
	return uint64(v), nil
}

// Uint64ToInt converts uint64 to int.
func Uint64ToInt(v uint64) (int, error) {
	if v > uint64(math.MaxInt) {
		return 0, overflow(v, "int", "too large")
	}
	return int(v), nil
}

// Uint32ToInt converts uint32 to int.
func Uint32ToInt(v uint32) (int, error) {
	if uint64(v) > uint64(math.MaxInt) {
		return 0, overflow(v, "int", "too large")
	}
	return int(v), nil
}

// NonNegInt64ToInt converts a count or size stored as int64 to int.
// Negative values are rejected since they never denote a valid length.
func NonNegInt64ToInt(v int64) (int, error) {
	if v < 0 {
		return 0, overflow(v, "int", "negative")
	}
	if uint64(v) > uint64(math.MaxInt) {
		return 0, overflow(v, "int", "too large")
	}
	return int(v), nil
}

// NonNegInt32ToInt converts a count stored as int32 to int.
func NonNegInt32ToInt(v int32) (int, error) {
	if v < 0 {
		return 0, overflow(v, "int", "negative")
	}
	return int(v), nil
}
