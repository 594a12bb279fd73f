// Package errors defines all exported error sentinels for the ldpc library.
//
// This is the single source of truth for error values. Both the top-level
// ldpc package and internal packages import from here, ensuring errors.Is
// checks work across package boundaries.
package errors

import "errors"

// Construction errors
var (
	ErrMalformedCodeDescription = errors.New("ldpc: malformed code description")
)

// Decode errors
var (
	ErrInvalidDecodeInput = errors.New("ldpc: invalid decode input")
)

// Compiled graph file errors
var (
	ErrInvalidMagic   = errors.New("ldpc: invalid magic number")
	ErrInvalidVersion = errors.New("ldpc: unsupported version")
	ErrChecksumFailed = errors.New("ldpc: file checksum verification failed")
	ErrTruncatedFile  = errors.New("ldpc: graph file is truncated")
	ErrCorruptedGraph = errors.New("ldpc: graph data is corrupted")
)

// Generator errors (used by internal/construct)
var (
	ErrInvalidGeometry = errors.New("ldpc: invalid code geometry")
	ErrNoConstruction  = errors.New("ldpc: no multi-edge-free construction found")
)
