//go:build linux

package ldpc

import (
	"os"

	"golang.org/x/sys/unix"
)

// fallocateFile sizes a compiled graph file before WriteGraph maps it.
// Reserving the blocks up front turns a full disk into an error here rather
// than a SIGBUS while the regions are being stored through the mapping.
// Filesystems without fallocate (NFS, some FUSE mounts) fall back to a
// plain ftruncate.
func fallocateFile(file *os.File, size int64) error {
	fd := int(file.Fd())
	// Mode 0 extends the file to size as well as reserving it.
	if err := unix.Fallocate(fd, 0, 0, size); err != nil {
		return unix.Ftruncate(fd, size)
	}
	return nil
}
