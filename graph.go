package ldpc

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/zeebo/xxh3"

	ldpcerrors "github.com/tamirms/ldpc/errors"
	"github.com/tamirms/ldpc/internal/encoding"
)

// NoEdge marks an unused slot in a stride-padded adjacency or map row.
const NoEdge = -1

// TannerGraph is the immutable bipartite graph of an LDPC code.
//
// Per-node rows are packed into flat arrays with a fixed stride equal to the
// maximum degree of that node type. Row v of the variable-side arrays
// occupies [v*MaxVNodeDeg(), (v+1)*MaxVNodeDeg()); only the first
// VNodeDeg(v) slots are live and the rest hold NoEdge.
//
// The cross-reference maps let the decoder find its message slot in a
// neighbour's row without searching:
//
//	c := vnodeAdj[v*mv+i]
//	j := vnodeCNodeMap[v*mv+i]   // cnodeAdj[c*mc+j] == v
//	cnodeVNodeMap[c*mc+j] == i   // and back
//
// A TannerGraph is safe for concurrent use by any number of decoders.
// Slices returned by its accessors are views and must not be modified.
type TannerGraph struct {
	numVNodes   int
	numCNodes   int
	maxVNodeDeg int
	maxCNodeDeg int
	numEdges    int

	vnodeDeg []int32
	cnodeDeg []int32

	vnodeAdj []int32 // stride maxVNodeDeg, check indices
	cnodeAdj []int32 // stride maxCNodeDeg, variable indices

	vnodeCNodeMap []int32 // stride maxVNodeDeg, slot in the check's row
	cnodeVNodeMap []int32 // stride maxCNodeDeg, slot in the variable's row
}

// NumVNodes returns the number of variable nodes (codeword bits).
func (g *TannerGraph) NumVNodes() int { return g.numVNodes }

// NumCNodes returns the number of check nodes (parity constraints).
func (g *TannerGraph) NumCNodes() int { return g.numCNodes }

// MaxVNodeDeg returns the stride of variable-side rows.
func (g *TannerGraph) MaxVNodeDeg() int { return g.maxVNodeDeg }

// MaxCNodeDeg returns the stride of check-side rows.
func (g *TannerGraph) MaxCNodeDeg() int { return g.maxCNodeDeg }

// NumEdges returns the total edge count, Σ VNodeDeg == Σ CNodeDeg.
func (g *TannerGraph) NumEdges() int { return g.numEdges }

// VNodeDeg returns the degree of variable node v.
func (g *TannerGraph) VNodeDeg(v int) int { return int(g.vnodeDeg[v]) }

// CNodeDeg returns the degree of check node c.
func (g *TannerGraph) CNodeDeg(c int) int { return int(g.cnodeDeg[c]) }

// VNodeAdj returns the live check indices of variable node v.
func (g *TannerGraph) VNodeAdj(v int) []int32 {
	start := v * g.maxVNodeDeg
	return g.vnodeAdj[start : start+int(g.vnodeDeg[v]) : start+int(g.vnodeDeg[v])]
}

// CNodeAdj returns the live variable indices of check node c.
func (g *TannerGraph) CNodeAdj(c int) []int32 {
	start := c * g.maxCNodeDeg
	return g.cnodeAdj[start : start+int(g.cnodeDeg[c]) : start+int(g.cnodeDeg[c])]
}

// VNodeCNodeMap returns, for each live edge i of variable node v, the slot
// that check VNodeAdj(v)[i] uses for v.
func (g *TannerGraph) VNodeCNodeMap(v int) []int32 {
	start := v * g.maxVNodeDeg
	return g.vnodeCNodeMap[start : start+int(g.vnodeDeg[v]) : start+int(g.vnodeDeg[v])]
}

// CNodeVNodeMap returns, for each live edge i of check node c, the slot
// that variable CNodeAdj(c)[i] uses for c.
func (g *TannerGraph) CNodeVNodeMap(c int) []int32 {
	start := c * g.maxCNodeDeg
	return g.cnodeVNodeMap[start : start+int(g.cnodeDeg[c]) : start+int(g.cnodeDeg[c])]
}

// newGraph allocates a graph with sentinel-filled rows for the given degrees.
// Degrees must already be validated against the maxima.
func newGraph(maxVNodeDeg, maxCNodeDeg int, vnodeDeg, cnodeDeg []int32) *TannerGraph {
	g := &TannerGraph{
		numVNodes:   len(vnodeDeg),
		numCNodes:   len(cnodeDeg),
		maxVNodeDeg: maxVNodeDeg,
		maxCNodeDeg: maxCNodeDeg,
		vnodeDeg:    vnodeDeg,
		cnodeDeg:    cnodeDeg,
	}
	g.vnodeAdj = filled(g.numVNodes*maxVNodeDeg, NoEdge)
	g.cnodeAdj = filled(g.numCNodes*maxCNodeDeg, NoEdge)
	g.vnodeCNodeMap = filled(g.numVNodes*maxVNodeDeg, NoEdge)
	g.cnodeVNodeMap = filled(g.numCNodes*maxCNodeDeg, NoEdge)
	return g
}

func filled(n int, v int32) []int32 {
	s := make([]int32, n)
	for i := range s {
		s[i] = v
	}
	return s
}

// link derives both cross-reference maps from the adjacency rows.
//
// For every variable edge (v, i) with check c, c's row is scanned for the
// first slot that names v and is not yet claimed. Claiming in order pairs
// the k-th occurrence of c in v's row with the k-th occurrence of v in c's
// row, so repeated edges of a multigraph still get exact inverse maps.
// Cost is O(edges × max check degree), paid once per code.
//
// On failure it returns a *ParseError naming the variable (or check) whose
// edge has no counterpart on the other side.
func (g *TannerGraph) link() error {
	mv, mc := g.maxVNodeDeg, g.maxCNodeDeg
	for v := 0; v < g.numVNodes; v++ {
		for i := 0; i < int(g.vnodeDeg[v]); i++ {
			c := int(g.vnodeAdj[v*mv+i])
			base := c * mc
			j := -1
			for k := 0; k < int(g.cnodeDeg[c]); k++ {
				if int(g.cnodeAdj[base+k]) == v && g.cnodeVNodeMap[base+k] == NoEdge {
					j = k
					break
				}
			}
			if j < 0 {
				return &ParseError{
					Field:    fmt.Sprintf("variable %d adjacency", v+1),
					Expected: fmt.Sprintf("check %d to list variable %d", c+1, v+1),
					Got:      "no matching entry",
					node:     v,
					side:     sideVariable,
				}
			}
			g.vnodeCNodeMap[v*mv+i] = int32(j)
			g.cnodeVNodeMap[base+j] = int32(i)
			g.numEdges++
		}
	}
	for c := 0; c < g.numCNodes; c++ {
		for k := 0; k < int(g.cnodeDeg[c]); k++ {
			if g.cnodeVNodeMap[c*mc+k] == NoEdge {
				v := g.cnodeAdj[c*mc+k]
				return &ParseError{
					Field:    fmt.Sprintf("check %d adjacency", c+1),
					Expected: fmt.Sprintf("variable %d to list check %d", v+1, c+1),
					Got:      "no matching entry",
					node:     c,
					side:     sideCheck,
				}
			}
		}
	}
	return nil
}

// NewTannerGraph builds a graph from 0-based adjacency lists.
// vnodeAdj[v] lists the checks of variable v and cnodeAdj[c] the variables
// of check c; both must describe the same edge multiset. Strides are the
// longest row on each side.
//
// Errors wrap ErrMalformedCodeDescription.
func NewTannerGraph(vnodeAdj, cnodeAdj [][]int) (*TannerGraph, error) {
	if len(vnodeAdj) == 0 || len(cnodeAdj) == 0 {
		return nil, &ParseError{Field: "node counts", Expected: "at least one variable and one check",
			Got: fmt.Sprintf("%d variables, %d checks", len(vnodeAdj), len(cnodeAdj))}
	}
	vdeg := make([]int32, len(vnodeAdj))
	cdeg := make([]int32, len(cnodeAdj))
	maxV, maxC := 0, 0
	for v, row := range vnodeAdj {
		vdeg[v] = int32(len(row))
		maxV = max(maxV, len(row))
	}
	for c, row := range cnodeAdj {
		cdeg[c] = int32(len(row))
		maxC = max(maxC, len(row))
	}

	g := newGraph(maxV, maxC, vdeg, cdeg)
	if err := fillRows(g.vnodeAdj, maxV, vnodeAdj, len(cnodeAdj), "variable"); err != nil {
		return nil, err
	}
	if err := fillRows(g.cnodeAdj, maxC, cnodeAdj, len(vnodeAdj), "check"); err != nil {
		return nil, err
	}
	if err := g.link(); err != nil {
		return nil, err
	}
	return g, nil
}

func fillRows(dst []int32, stride int, rows [][]int, limit int, kind string) error {
	for n, row := range rows {
		for i, idx := range row {
			if idx < 0 || idx >= limit {
				return &ParseError{
					Field:    fmt.Sprintf("%s %d adjacency", kind, n+1),
					Expected: fmt.Sprintf("index in [1, %d]", limit),
					Got:      fmt.Sprint(idx + 1),
				}
			}
			dst[n*stride+i] = int32(idx)
		}
	}
	return nil
}

// Validate checks every structural invariant of the graph: degree bounds,
// sentinel padding, index ranges, matching edge totals on both sides, and
// that the two cross-reference maps round-trip every edge.
// Errors wrap ErrCorruptedGraph.
func (g *TannerGraph) Validate() error {
	if g.numVNodes <= 0 || g.numCNodes <= 0 || g.maxVNodeDeg < 0 || g.maxCNodeDeg < 0 {
		return fmt.Errorf("%w: invalid geometry %dx%d (max degrees %d, %d)", ldpcerrors.ErrCorruptedGraph,
			g.numVNodes, g.numCNodes, g.maxVNodeDeg, g.maxCNodeDeg)
	}
	mv, mc := g.maxVNodeDeg, g.maxCNodeDeg
	if len(g.vnodeDeg) != g.numVNodes || len(g.cnodeDeg) != g.numCNodes ||
		len(g.vnodeAdj) != g.numVNodes*mv || len(g.vnodeCNodeMap) != g.numVNodes*mv ||
		len(g.cnodeAdj) != g.numCNodes*mc || len(g.cnodeVNodeMap) != g.numCNodes*mc {
		return fmt.Errorf("%w: array sizes do not match geometry", ldpcerrors.ErrCorruptedGraph)
	}

	vEdges := 0
	for v := 0; v < g.numVNodes; v++ {
		deg := int(g.vnodeDeg[v])
		if deg < 0 || deg > mv {
			return fmt.Errorf("%w: variable %d degree %d outside [0, %d]", ldpcerrors.ErrCorruptedGraph, v, deg, mv)
		}
		vEdges += deg
		for i := 0; i < mv; i++ {
			c, j := g.vnodeAdj[v*mv+i], g.vnodeCNodeMap[v*mv+i]
			if i >= deg {
				if c != NoEdge || j != NoEdge {
					return fmt.Errorf("%w: variable %d slot %d past degree is not empty", ldpcerrors.ErrCorruptedGraph, v, i)
				}
				continue
			}
			if c < 0 || int(c) >= g.numCNodes || j < 0 || j >= g.cnodeDeg[c] {
				return fmt.Errorf("%w: variable %d slot %d points outside the graph", ldpcerrors.ErrCorruptedGraph, v, i)
			}
			if int(g.cnodeAdj[int(c)*mc+int(j)]) != v || int(g.cnodeVNodeMap[int(c)*mc+int(j)]) != i {
				return fmt.Errorf("%w: edge (variable %d, slot %d) does not round-trip through check %d", ldpcerrors.ErrCorruptedGraph, v, i, c)
			}
		}
	}

	cEdges := 0
	for c := 0; c < g.numCNodes; c++ {
		deg := int(g.cnodeDeg[c])
		if deg < 0 || deg > mc {
			return fmt.Errorf("%w: check %d degree %d outside [0, %d]", ldpcerrors.ErrCorruptedGraph, c, deg, mc)
		}
		cEdges += deg
		for k := 0; k < mc; k++ {
			v, i := g.cnodeAdj[c*mc+k], g.cnodeVNodeMap[c*mc+k]
			if k >= deg {
				if v != NoEdge || i != NoEdge {
					return fmt.Errorf("%w: check %d slot %d past degree is not empty", ldpcerrors.ErrCorruptedGraph, c, k)
				}
				continue
			}
			if v < 0 || int(v) >= g.numVNodes || i < 0 || i >= g.vnodeDeg[v] {
				return fmt.Errorf("%w: check %d slot %d points outside the graph", ldpcerrors.ErrCorruptedGraph, c, k)
			}
			if int(g.vnodeAdj[int(v)*mv+int(i)]) != c || int(g.vnodeCNodeMap[int(v)*mv+int(i)]) != k {
				return fmt.Errorf("%w: edge (check %d, slot %d) does not round-trip through variable %d", ldpcerrors.ErrCorruptedGraph, c, k, v)
			}
		}
	}

	if vEdges != cEdges || vEdges != g.numEdges {
		return fmt.Errorf("%w: edge totals differ (variables %d, checks %d, recorded %d)", ldpcerrors.ErrCorruptedGraph, vEdges, cEdges, g.numEdges)
	}
	return nil
}

// Fingerprint identifies a code's exact graph layout.
type Fingerprint [16]byte

// String returns the fingerprint as lowercase hex.
func (f Fingerprint) String() string {
	return hex.EncodeToString(f[:])
}

// Fingerprint returns the xxHash3-128 of the graph's canonical body
// encoding. Two graphs with equal fingerprints have identical geometry,
// degrees, adjacency order and maps.
func (g *TannerGraph) Fingerprint() Fingerprint {
	buf := make([]byte, bodySize(g.numVNodes, g.numCNodes, g.maxVNodeDeg, g.maxCNodeDeg))
	g.encodeBody(buf)
	h := xxh3.Hash128(buf)
	var f Fingerprint
	binary.LittleEndian.PutUint64(f[0:8], h.Lo)
	binary.LittleEndian.PutUint64(f[8:16], h.Hi)
	return f
}

// bodySize returns the encoded size of a graph's int32 regions.
func bodySize(nv, nc, mv, mc int) int {
	return encoding.Int32sSize(nv + nc + 2*nv*mv + 2*nc*mc)
}

// encodeBody writes the int32 regions in file order:
// vnodeDeg, cnodeDeg, vnodeAdj, cnodeAdj, vnodeCNodeMap, cnodeVNodeMap.
func (g *TannerGraph) encodeBody(dst []byte) int {
	off := 0
	for _, region := range [][]int32{g.vnodeDeg, g.cnodeDeg, g.vnodeAdj, g.cnodeAdj, g.vnodeCNodeMap, g.cnodeVNodeMap} {
		off += encoding.PutInt32s(dst[off:], region)
	}
	return off
}
