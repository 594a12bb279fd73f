//go:build !linux

package ldpc

// fadviseSequential does nothing here; descriptions and compiled graphs are
// read with the platform's default readahead.
func fadviseSequential(fd int, offset, length int64) {}
