package ldpc

import (
	"encoding/binary"
	"fmt"

	ldpcerrors "github.com/tamirms/ldpc/errors"
)

const (
	// magic number for compiled graph files
	// "LDPC" in little-endian
	magic = uint32(0x4350444C)

	// version is the current format version
	version = uint16(0x0001)

	// headerSize is the exact size of the serialized header (64 bytes)
	headerSize = 64

	// footerSize is the exact size of the serialized footer (32 bytes)
	footerSize = 32

	// minFileSize is an empty body between header and footer.
	minFileSize = headerSize + footerSize
)

// header is the 64-byte compiled graph header.
//
// Layout:
//
//	Offset  Size  Field        Type
//	0       4     Magic        0x4350444C ("LDPC")
//	4       2     Version      0x0001
//	6       2     Reserved0    uint16 (zero)
//	8       4     NumVNodes    uint32_le
//	12      4     NumCNodes    uint32_le
//	16      4     MaxVNodeDeg  uint32_le
//	20      4     MaxCNodeDeg  uint32_le
//	24      8     NumEdges     uint64_le
//	32      16    Fingerprint  [16]byte (xxHash3-128 of the body)
//	48      16    Reserved     [16]byte (zero)
//
// The body that follows holds six int32 regions in order: vnodeDeg,
// cnodeDeg, vnodeAdj, cnodeAdj, vnodeCNodeMap, cnodeVNodeMap.
type header struct {
	Magic       uint32
	Version     uint16
	NumVNodes   uint32
	NumCNodes   uint32
	MaxVNodeDeg uint32
	MaxCNodeDeg uint32
	NumEdges    uint64
	Fingerprint Fingerprint
	Reserved    [16]byte
}

func newHeader(g *TannerGraph) header {
	return header{
		Magic:       magic,
		Version:     version,
		NumVNodes:   uint32(g.numVNodes),
		NumCNodes:   uint32(g.numCNodes),
		MaxVNodeDeg: uint32(g.maxVNodeDeg),
		MaxCNodeDeg: uint32(g.maxCNodeDeg),
		NumEdges:    uint64(g.numEdges),
		Fingerprint: g.Fingerprint(),
	}
}

// encodeTo serializes the header to an existing buffer.
func (h *header) encodeTo(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], h.Magic)
	binary.LittleEndian.PutUint16(buf[4:6], h.Version)
	binary.LittleEndian.PutUint16(buf[6:8], 0)
	binary.LittleEndian.PutUint32(buf[8:12], h.NumVNodes)
	binary.LittleEndian.PutUint32(buf[12:16], h.NumCNodes)
	binary.LittleEndian.PutUint32(buf[16:20], h.MaxVNodeDeg)
	binary.LittleEndian.PutUint32(buf[20:24], h.MaxCNodeDeg)
	binary.LittleEndian.PutUint64(buf[24:32], h.NumEdges)
	copy(buf[32:48], h.Fingerprint[:])
	copy(buf[48:64], h.Reserved[:])
}

// decodeHeader parses a 64-byte header and checks that its geometry is
// addressable. It does not look at the body.
func decodeHeader(buf []byte) (*header, error) {
	if len(buf) < headerSize {
		return nil, ldpcerrors.ErrTruncatedFile
	}

	h := &header{
		Magic:       binary.LittleEndian.Uint32(buf[0:4]),
		Version:     binary.LittleEndian.Uint16(buf[4:6]),
		NumVNodes:   binary.LittleEndian.Uint32(buf[8:12]),
		NumCNodes:   binary.LittleEndian.Uint32(buf[12:16]),
		MaxVNodeDeg: binary.LittleEndian.Uint32(buf[16:20]),
		MaxCNodeDeg: binary.LittleEndian.Uint32(buf[20:24]),
		NumEdges:    binary.LittleEndian.Uint64(buf[24:32]),
	}
	copy(h.Fingerprint[:], buf[32:48])
	copy(h.Reserved[:], buf[48:64])

	if h.Magic != magic {
		return nil, ldpcerrors.ErrInvalidMagic
	}
	if h.Version != version {
		return nil, ldpcerrors.ErrInvalidVersion
	}
	if h.NumVNodes == 0 || h.NumCNodes == 0 ||
		uint64(h.NumVNodes) > maxSlots || uint64(h.NumCNodes) > maxSlots ||
		uint64(h.NumVNodes)*uint64(h.MaxVNodeDeg) > maxSlots ||
		uint64(h.NumCNodes)*uint64(h.MaxCNodeDeg) > maxSlots {
		return nil, fmt.Errorf("%w: geometry %dx%d with max degrees %d, %d",
			ldpcerrors.ErrCorruptedGraph, h.NumVNodes, h.NumCNodes, h.MaxVNodeDeg, h.MaxCNodeDeg)
	}
	return h, nil
}

// bodySize returns the size of the int32 regions described by h.
func (h *header) bodySize() int {
	return bodySize(int(h.NumVNodes), int(h.NumCNodes), int(h.MaxVNodeDeg), int(h.MaxCNodeDeg))
}

// footer is the 32-byte file footer.
//
// Layout:
//
//	Offset  Size  Field       Type
//	0       8     BodyHash    uint64_le (xxHash64 of the body)
//	8       8     HeaderHash  uint64_le (xxHash64 of the 64 header bytes)
//	16      16    Reserved    [16]byte (zero)
type footer struct {
	BodyHash   uint64
	HeaderHash uint64
	Reserved   [16]byte
}

// encodeTo serializes the footer into an existing buffer.
func (f *footer) encodeTo(buf []byte) {
	binary.LittleEndian.PutUint64(buf[0:8], f.BodyHash)
	binary.LittleEndian.PutUint64(buf[8:16], f.HeaderHash)
	copy(buf[16:32], f.Reserved[:])
}

// decodeFooter parses a 32-byte footer.
func decodeFooter(buf []byte) (*footer, error) {
	if len(buf) < footerSize {
		return nil, ldpcerrors.ErrTruncatedFile
	}

	f := &footer{
		BodyHash:   binary.LittleEndian.Uint64(buf[0:8]),
		HeaderHash: binary.LittleEndian.Uint64(buf[8:16]),
	}
	copy(f.Reserved[:], buf[16:32])
	return f, nil
}
