//go:build darwin

package ldpc

import (
	"os"

	"golang.org/x/sys/unix"
)

// fallocateFile sizes a compiled graph file before WriteGraph maps it.
// Reserving the blocks up front turns a full disk into an error here rather
// than a SIGBUS while the regions are being stored through the mapping.
// F_PREALLOCATE only reserves space, so the size is always set with
// ftruncate, which is also the whole job when the reservation is refused.
func fallocateFile(file *os.File, size int64) error {
	fst := unix.Fstore_t{
		Flags:   unix.F_ALLOCATEALL,
		Posmode: unix.F_PEOFPOSMODE,
		Length:  size,
	}
	_ = unix.FcntlFstore(file.Fd(), unix.F_PREALLOCATE, &fst)
	return unix.Ftruncate(int(file.Fd()), size)
}
