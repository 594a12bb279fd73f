//go:build !linux && !darwin

package ldpc

import "os"

// fallocateFile sizes a compiled graph file before WriteGraph maps it.
// Without a reservation call the blocks may stay sparse until the mapping
// is written.
func fallocateFile(file *os.File, size int64) error {
	return file.Truncate(size)
}
