// Package construct generates LDPC code descriptions for tests and tools.
//
// Codes are produced as plain 0-based adjacency lists and rendered into the
// textual code-description format accepted by ldpc.ParseCodeDescription.
// This package must not import the ldpc package (the ldpc tests import it).
package construct

import (
	"bytes"
	"fmt"
	"math/rand/v2"
	"strconv"

	ldpcerrors "github.com/tamirms/ldpc/errors"
	intbits "github.com/tamirms/ldpc/internal/bits"
)

const (
	// maxAttempts bounds the number of fresh socket shuffles Regular tries.
	maxAttempts = 32

	// maxSwapTries bounds the random partners tried when repairing one
	// repeated edge.
	maxSwapTries = 256
)

// Code is a code given by both adjacency views, 0-based.
// VNodeAdj[v] lists the checks of variable v; CNodeAdj[c] lists the
// variables of check c. Both views describe the same edge multiset.
type Code struct {
	VNodeAdj [][]int
	CNodeAdj [][]int
}

// FromCheckRows builds a Code from the variable lists of each check.
// The variable-side rows list checks in increasing order.
func FromCheckRows(numVNodes int, rows [][]int) *Code {
	vadj := make([][]int, numVNodes)
	cadj := make([][]int, len(rows))
	for c, row := range rows {
		cadj[c] = append([]int(nil), row...)
		for _, v := range row {
			vadj[v] = append(vadj[v], c)
		}
	}
	return &Code{VNodeAdj: vadj, CNodeAdj: cadj}
}

// Hamming74 returns the (7,4) Hamming code as a 3-check Tanner graph.
// 1011010 is one of its codewords.
func Hamming74() *Code {
	return FromCheckRows(7, [][]int{
		{0, 1, 3, 4},
		{0, 2, 3, 5},
		{1, 2, 3, 6},
	})
}

// Regular generates a random (vDeg, cDeg)-regular code with numVNodes
// variables and numVNodes*vDeg/cDeg checks, free of repeated edges.
//
// Edges are placed by shuffling check sockets against variable sockets and
// then repairing repeated (v, c) pairs by swapping with random partners.
// The result depends only on rng's state.
func Regular(rng *rand.Rand, numVNodes, vDeg, cDeg int) (*Code, error) {
	if numVNodes <= 0 || vDeg <= 0 || cDeg <= 0 {
		return nil, fmt.Errorf("%w: numVNodes=%d vDeg=%d cDeg=%d", ldpcerrors.ErrInvalidGeometry, numVNodes, vDeg, cDeg)
	}
	sockets := numVNodes * vDeg
	if sockets%cDeg != 0 {
		return nil, fmt.Errorf("%w: %d edges not divisible by check degree %d", ldpcerrors.ErrInvalidGeometry, sockets, cDeg)
	}
	numCNodes := sockets / cDeg
	if vDeg > numCNodes || cDeg > numVNodes {
		return nil, fmt.Errorf("%w: degrees (%d,%d) too large for %d×%d graph", ldpcerrors.ErrInvalidGeometry, vDeg, cDeg, numVNodes, numCNodes)
	}

	perm := make([]int, sockets)
	for attempt := 0; attempt < maxAttempts; attempt++ {
		for i := range perm {
			perm[i] = i
		}
		for i := sockets - 1; i > 0; i-- {
			j := int(intbits.FastRange32(rng.Uint64(), uint32(i+1)))
			perm[i], perm[j] = perm[j], perm[i]
		}
		if repair(rng, perm, vDeg, cDeg) {
			return fromSockets(perm, numVNodes, numCNodes, vDeg, cDeg), nil
		}
	}
	return nil, fmt.Errorf("%w: %d attempts for (%d,%d) with %d variables", ldpcerrors.ErrNoConstruction, maxAttempts, vDeg, cDeg, numVNodes)
}

// repair removes repeated edges in place. perm[s] is the check socket wired
// to variable socket s. Returns false if some repetition could not be fixed.
func repair(rng *rand.Rand, perm []int, vDeg, cDeg int) bool {
	n := uint32(len(perm))
	for s := range perm {
		v := s / vDeg
		c := perm[s] / cDeg
		if !hasCheck(perm, v, s, c, vDeg, cDeg) {
			continue
		}
		fixed := false
		for try := 0; try < maxSwapTries; try++ {
			r := int(intbits.FastRange32(rng.Uint64(), n))
			w := r / vDeg
			if w == v {
				continue
			}
			cr := perm[r] / cDeg
			if hasCheck(perm, v, s, cr, vDeg, cDeg) || hasCheck(perm, w, r, c, vDeg, cDeg) {
				continue
			}
			perm[s], perm[r] = perm[r], perm[s]
			fixed = true
			break
		}
		if !fixed {
			return false
		}
	}
	return true
}

// hasCheck reports whether variable v is wired to check c through any of
// its sockets other than skip.
func hasCheck(perm []int, v, skip, c, vDeg, cDeg int) bool {
	for s := v * vDeg; s < (v+1)*vDeg; s++ {
		if s != skip && perm[s]/cDeg == c {
			return true
		}
	}
	return false
}

func fromSockets(perm []int, numVNodes, numCNodes, vDeg, cDeg int) *Code {
	vadj := make([][]int, numVNodes)
	cadj := make([][]int, numCNodes)
	for c := range cadj {
		cadj[c] = make([]int, cDeg)
	}
	for v := range vadj {
		vadj[v] = make([]int, vDeg)
		for i := range vDeg {
			q := perm[v*vDeg+i]
			vadj[v][i] = q / cDeg
			cadj[q/cDeg][q%cDeg] = v
		}
	}
	return &Code{VNodeAdj: vadj, CNodeAdj: cadj}
}

// NumEdges returns the number of edges (counted from the variable side).
func (c *Code) NumEdges() int {
	n := 0
	for _, row := range c.VNodeAdj {
		n += len(row)
	}
	return n
}

// Description renders the code in the textual code-description format:
// counts, max degrees, space-terminated degree lists, then one
// tab-separated 1-based adjacency line per variable and per check.
func (c *Code) Description() []byte {
	var buf bytes.Buffer
	maxV, maxC := maxLen(c.VNodeAdj), maxLen(c.CNodeAdj)
	fmt.Fprintf(&buf, "%d %d\n", len(c.VNodeAdj), len(c.CNodeAdj))
	fmt.Fprintf(&buf, "%d %d\n", maxV, maxC)
	writeDegrees(&buf, c.VNodeAdj)
	writeDegrees(&buf, c.CNodeAdj)
	writeRows(&buf, c.VNodeAdj)
	writeRows(&buf, c.CNodeAdj)
	return buf.Bytes()
}

func maxLen(rows [][]int) int {
	m := 0
	for _, row := range rows {
		m = max(m, len(row))
	}
	return m
}

func writeDegrees(buf *bytes.Buffer, rows [][]int) {
	for _, row := range rows {
		buf.WriteString(strconv.Itoa(len(row)))
		buf.WriteByte(' ')
	}
	buf.WriteByte('\n')
}

func writeRows(buf *bytes.Buffer, rows [][]int) {
	for _, row := range rows {
		for i, idx := range row {
			if i > 0 {
				buf.WriteByte('\t')
			}
			buf.WriteString(strconv.Itoa(idx + 1))
		}
		buf.WriteByte('\n')
	}
}
