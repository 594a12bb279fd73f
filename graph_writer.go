package ldpc

import (
	"errors"
	"fmt"
	"os"

	"github.com/cespare/xxhash/v2"
	"github.com/edsrzf/mmap-go"
	ldpcerrors "github.com/tamirms/ldpc/errors"
)

// graphWriter writes a compiled graph to disk through a writable mapping.
// File layout: [Header 64B][Body: six int32 regions][Footer 32B]
type graphWriter struct {
	file *os.File
	mmap mmap.MMap // Memory-mapped region
	data []byte    // View into mmap for direct writes

	bodySize int
}

// WriteGraph writes g to path in the compiled binary form read by
// OpenGraph. The file is created or truncated.
func WriteGraph(path string, g *TannerGraph) error {
	if g == nil {
		return fmt.Errorf("%w: nil graph", ldpcerrors.ErrCorruptedGraph)
	}
	w, err := newGraphWriter(path, bodySize(g.numVNodes, g.numCNodes, g.maxVNodeDeg, g.maxCNodeDeg))
	if err != nil {
		return err
	}
	return w.finalize(g)
}

// newGraphWriter creates path and maps exactly the space the file needs.
func newGraphWriter(path string, bodySize int) (*graphWriter, error) {
	size := headerSize + bodySize + footerSize

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create graph file: %w", err)
	}

	// Pre-allocate disk blocks to prevent SIGBUS on disk full
	if err := fallocateFile(file, int64(size)); err != nil {
		primaryErr := fmt.Errorf("failed to allocate disk space: %w", err)
		return nil, errors.Join(primaryErr, file.Close())
	}

	mm, err := mmap.MapRegion(file, size, mmap.RDWR, 0, 0)
	if err != nil {
		primaryErr := fmt.Errorf("failed to mmap file: %w", err)
		return nil, errors.Join(primaryErr, file.Close())
	}

	w := &graphWriter{
		file:     file,
		mmap:     mm,
		data:     []byte(mm),
		bodySize: bodySize,
	}
	prefaultRegion(w.data)
	return w, nil
}

// finalize encodes g into the mapping, flushes and closes the file.
// On error, delegates to close() for idempotent cleanup.
func (w *graphWriter) finalize(g *TannerGraph) error {
	body := w.data[headerSize : headerSize+w.bodySize]
	if n := g.encodeBody(body); n != w.bodySize {
		primaryErr := fmt.Errorf("encoded body is %d bytes, expected %d", n, w.bodySize)
		return errors.Join(primaryErr, w.close())
	}

	hdr := newHeader(g)
	hdr.encodeTo(w.data[:headerSize])

	ftr := footer{
		BodyHash:   xxhash.Sum64(body),
		HeaderHash: xxhash.Sum64(w.data[:headerSize]),
	}
	ftr.encodeTo(w.data[headerSize+w.bodySize:])

	// Flush dirty pages to file (ensures writes visible before unmap)
	if err := w.mmap.Flush(); err != nil {
		primaryErr := fmt.Errorf("mmap flush failed: %w", err)
		return errors.Join(primaryErr, w.close())
	}

	// Nil mmap regardless of outcome to prevent close() from retrying.
	unmapErr := w.mmap.Unmap()
	w.mmap = nil
	if unmapErr != nil {
		primaryErr := fmt.Errorf("mmap unmap failed: %w", unmapErr)
		return errors.Join(primaryErr, w.close())
	}

	closeErr := w.file.Close()
	w.file = nil
	return closeErr
}

// close releases the writer without finalizing (for error cleanup).
// Idempotent: safe to call multiple times.
func (w *graphWriter) close() error {
	var unmapErr error
	if w.mmap != nil {
		unmapErr = w.mmap.Unmap()
		w.mmap = nil
	}
	var closeErr error
	if w.file != nil {
		closeErr = w.file.Close()
		w.file = nil
	}
	return errors.Join(unmapErr, closeErr)
}
