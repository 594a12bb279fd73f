package ldpc

import (
	"errors"
	"fmt"
	"os"

	"github.com/cespare/xxhash/v2"
	"github.com/edsrzf/mmap-go"
	ldpcerrors "github.com/tamirms/ldpc/errors"
	"github.com/tamirms/ldpc/internal/encoding"
)

// OpenGraph reads a compiled graph written by WriteGraph.
// It memory-maps the file, decodes a private copy of the graph and unmaps
// before returning, so the result does not pin the file.
func OpenGraph(path string) (*TannerGraph, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open graph file: %w", err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat graph file: %w", err)
	}
	if stat.Size() < minFileSize {
		return nil, ldpcerrors.ErrTruncatedFile
	}
	fadviseSequential(int(file.Fd()), 0, stat.Size())

	mm, err := mmap.Map(file, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("mmap graph file: %w", err)
	}
	g, err := OpenGraphBytes(mm)
	if unmapErr := mm.Unmap(); unmapErr != nil {
		return nil, errors.Join(err, fmt.Errorf("mmap unmap failed: %w", unmapErr))
	}
	return g, err
}

// OpenGraphBytes decodes a compiled graph from an in-memory byte slice.
// The returned graph does not alias data.
//
// Checks run cheapest first: header (ErrInvalidMagic, ErrInvalidVersion,
// ErrCorruptedGraph), total size (ErrTruncatedFile, ErrCorruptedGraph),
// footer checksums (ErrChecksumFailed), then the decoded graph's
// fingerprint and structural invariants (ErrCorruptedGraph).
func OpenGraphBytes(data []byte) (*TannerGraph, error) {
	if len(data) < minFileSize {
		return nil, ldpcerrors.ErrTruncatedFile
	}
	hdr, err := decodeHeader(data[:headerSize])
	if err != nil {
		return nil, err
	}

	bodyLen := hdr.bodySize()
	want := headerSize + bodyLen + footerSize
	switch {
	case len(data) < want:
		return nil, ldpcerrors.ErrTruncatedFile
	case len(data) > want:
		return nil, fmt.Errorf("%w: %d trailing bytes", ldpcerrors.ErrCorruptedGraph, len(data)-want)
	}

	body := data[headerSize : headerSize+bodyLen]
	ft, err := decodeFooter(data[headerSize+bodyLen:])
	if err != nil {
		return nil, err
	}
	if xxhash.Sum64(data[:headerSize]) != ft.HeaderHash || xxhash.Sum64(body) != ft.BodyHash {
		return nil, ldpcerrors.ErrChecksumFailed
	}

	g := decodeBody(hdr, body)
	if g.Fingerprint() != hdr.Fingerprint {
		return nil, fmt.Errorf("%w: fingerprint mismatch", ldpcerrors.ErrCorruptedGraph)
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if uint64(g.numEdges) != hdr.NumEdges {
		return nil, fmt.Errorf("%w: header records %d edges, body has %d",
			ldpcerrors.ErrCorruptedGraph, hdr.NumEdges, g.numEdges)
	}
	return g, nil
}

// decodeBody copies the six int32 regions out of body. body must be exactly
// hdr.bodySize() bytes.
func decodeBody(hdr *header, body []byte) *TannerGraph {
	nv, nc := int(hdr.NumVNodes), int(hdr.NumCNodes)
	mv, mc := int(hdr.MaxVNodeDeg), int(hdr.MaxCNodeDeg)

	off := 0
	next := func(n int) []int32 {
		s := encoding.Int32s(body[off:], n)
		off += encoding.Int32sSize(n)
		return s
	}

	g := &TannerGraph{
		numVNodes:   nv,
		numCNodes:   nc,
		maxVNodeDeg: mv,
		maxCNodeDeg: mc,
	}
	g.vnodeDeg = next(nv)
	g.cnodeDeg = next(nc)
	g.vnodeAdj = next(nv * mv)
	g.cnodeAdj = next(nc * mc)
	g.vnodeCNodeMap = next(nv * mv)
	g.cnodeVNodeMap = next(nc * mc)

	// Validate compares this against the per-side degree sums.
	for _, d := range g.vnodeDeg {
		g.numEdges += int(d)
	}
	return g
}
