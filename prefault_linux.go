//go:build linux

package ldpc

import "golang.org/x/sys/unix"

// madvPopulateWrite is MADV_POPULATE_WRITE (Linux 5.14+).
const madvPopulateWrite = 23

// prefaultRegion populates the writable mapping of a compiled graph file so
// storing the adjacency and map regions does not take one page fault per
// page. Older kernels answer EINVAL and the pages fault in on demand.
func prefaultRegion(data []byte) {
	if len(data) == 0 {
		return
	}
	_ = unix.Madvise(data, madvPopulateWrite)
}
