package ldpc

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	ldpcerrors "github.com/tamirms/ldpc/errors"
)

// ParityCheckMatrix returns the dense NumCNodes × NumVNodes 0/1 parity-check
// matrix H of the code. Entry (c, v) is 1 when c and v share at least one
// edge; repeated edges do not cancel.
//
// The decoder never needs H; it is derived on each call.
func (g *TannerGraph) ParityCheckMatrix() *mat.Dense {
	h := mat.NewDense(g.numCNodes, g.numVNodes, nil)
	for c := 0; c < g.numCNodes; c++ {
		for _, v := range g.CNodeAdj(c) {
			h.Set(c, int(v), 1)
		}
	}
	return h
}

// FromParityCheck builds a Tanner graph from a 0/1 parity-check matrix with
// one row per check and one column per variable. Rows and columns are
// scanned in increasing order, so adjacency rows come out sorted.
// Entries other than 0 and 1 are rejected with ErrMalformedCodeDescription.
func FromParityCheck(h mat.Matrix) (*TannerGraph, error) {
	rows, cols := h.Dims()
	cnodeAdj := make([][]int, rows)
	vnodeAdj := make([][]int, cols)
	for c := 0; c < rows; c++ {
		for v := 0; v < cols; v++ {
			switch x := h.At(c, v); x {
			case 0:
			case 1:
				cnodeAdj[c] = append(cnodeAdj[c], v)
				vnodeAdj[v] = append(vnodeAdj[v], c)
			default:
				return nil, &ParseError{
					Field:    fmt.Sprintf("H[%d][%d]", c, v),
					Expected: "0 or 1",
					Got:      fmt.Sprint(x),
				}
			}
		}
	}
	return NewTannerGraph(vnodeAdj, cnodeAdj)
}

// Syndrome returns the parity of each check over the given hard decisions:
// entry c is the XOR of bits[v] for every variable v on check c.
// bits must hold NumVNodes values of 0 or 1.
func (g *TannerGraph) Syndrome(bits []uint8) ([]uint8, error) {
	if err := g.checkBits(bits); err != nil {
		return nil, err
	}
	s := make([]uint8, g.numCNodes)
	for c := range s {
		s[c] = g.checkParity(bits, c)
	}
	return s, nil
}

// CheckParity reports whether bits satisfies every parity check, i.e.
// whether it is a codeword.
func (g *TannerGraph) CheckParity(bits []uint8) (bool, error) {
	if err := g.checkBits(bits); err != nil {
		return false, err
	}
	return g.firstUnsatisfied(bits) < 0, nil
}

func (g *TannerGraph) checkBits(bits []uint8) error {
	if len(bits) != g.numVNodes {
		return fmt.Errorf("%w: %d bits for %d variable nodes", ldpcerrors.ErrInvalidDecodeInput, len(bits), g.numVNodes)
	}
	for v, b := range bits {
		if b > 1 {
			return fmt.Errorf("%w: bit %d is %d, want 0 or 1", ldpcerrors.ErrInvalidDecodeInput, v, b)
		}
	}
	return nil
}

// checkParity returns the XOR of the bits on check c.
func (g *TannerGraph) checkParity(bits []uint8, c int) uint8 {
	var p uint8
	base := c * g.maxCNodeDeg
	for k := 0; k < int(g.cnodeDeg[c]); k++ {
		p ^= bits[g.cnodeAdj[base+k]]
	}
	return p
}

// firstUnsatisfied returns the first check with odd parity, or -1.
func (g *TannerGraph) firstUnsatisfied(bits []uint8) int {
	for c := 0; c < g.numCNodes; c++ {
		if g.checkParity(bits, c) != 0 {
			return c
		}
	}
	return -1
}

// countUnsatisfied returns the number of checks with odd parity.
func (g *TannerGraph) countUnsatisfied(bits []uint8) int {
	n := 0
	for c := 0; c < g.numCNodes; c++ {
		n += int(g.checkParity(bits, c))
	}
	return n
}
