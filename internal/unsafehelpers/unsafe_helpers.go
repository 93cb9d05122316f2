// Package unsafehelpers centralises every unavoidable use of the `unsafe`
// standard-library package so the rest of shardkv stays clean and auditable.
// Each helper documents its pre-/post-conditions.
//
// shardkv uses these in one hot path: pkg/store keys its timer wheel by
// BytesToString of an entry's key bytes, so arming and disarming a deadline
// needs no string conversion allocation.
//
// ⚠️  DISCLAIMER — these helpers deliberately step outside the Go memory
// model for zero-allocation conversions. Use only inside this module; they
// are not part of the public API and may change without notice. Misuse leads
// to subtle data races or corrupted reads.
//
// All functions are go:linkname-free, cgo-free and pure Go.
//
// © 2025 shardkv authors. MIT License.
package unsafehelpers

import "unsafe"

/* -------------------------------------------------------------------------
   1. Zero-copy string/[]byte conversions
   ------------------------------------------------------------------------- */

// BytesToString converts a byte slice to a string without allocating. The
// caller must guarantee b is never mutated for the lifetime of the result;
// violating this is undefined behavior.
func BytesToString(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(&b[0], len(b))
}

// StringToBytes reinterprets string data as a byte slice. The result MUST
// remain read-only — writing to it mutates immutable string storage.
func StringToBytes(s string) []byte {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice(unsafe.StringData(s), len(s))
}

/* -------------------------------------------------------------------------
   2. Generic pointer -> slice helpers
   ------------------------------------------------------------------------- */

// PtrSlice converts a *T pointer plus element count into a []T without
// copying. Used to view an arena-allocated array as a slice for iteration.
func PtrSlice[T any](ptr *T, n int) []T {
	if n == 0 {
		return nil
	}
	return unsafe.Slice(ptr, n)
}

/* -------------------------------------------------------------------------
   3. Alignment helpers
   ------------------------------------------------------------------------- */

// AlignUp rounds x up to the nearest multiple of align (a power of two).
func AlignUp(x, align uintptr) uintptr {
	return (x + align - 1) &^ (align - 1)
}

// IsPowerOfTwo reports whether x has exactly one bit set.
func IsPowerOfTwo(x uintptr) bool {
	return x != 0 && (x&(x-1)) == 0
}
