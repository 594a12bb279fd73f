// Package bits provides low-level integer range primitives.
package bits

import "math/bits"

// FastRange32 maps a 64-bit random value uniformly to [0, n) returning uint32.
// Uses the "fastrange" technique: multiply and take high bits.
// This is the standard way to map random words to ranges without modulo bias.
func FastRange32(hash uint64, n uint32) uint32 {
	if n == 0 {
		return 0
	}
	hi, _ := bits.Mul64(hash, uint64(n))
	return uint32(hi)
}

// Span returns the half-open range [lo, hi) owned by part i when n items
// are split into parts contiguous ranges. Range sizes differ by at most one
// and earlier parts take the remainder.
func Span(n, parts, i int) (lo, hi int) {
	if parts <= 0 {
		return 0, n
	}
	size := n / parts
	rem := n % parts
	lo = i*size + min(i, rem)
	hi = lo + size
	if i < rem {
		hi++
	}
	return lo, hi
}
