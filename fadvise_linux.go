//go:build linux

package ldpc

import "golang.org/x/sys/unix"

// fadviseSequential tells the kernel that [offset, offset+length) of fd is
// about to be consumed front to back: a text description streamed through
// the line scanner, or a compiled graph whose regions are copied out in
// order. Failure only costs readahead, so the error is dropped.
func fadviseSequential(fd int, offset, length int64) {
	_ = unix.Fadvise(fd, offset, length, unix.FADV_SEQUENTIAL)
}
