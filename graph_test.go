package ldpc

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gonum.org/v1/gonum/mat"

	ldpcerrors "github.com/tamirms/ldpc/errors"
	"github.com/tamirms/ldpc/internal/construct"
)

// checkGraphInvariants verifies the structural guarantees every graph must
// give the decoder, independently of Validate.
func checkGraphInvariants(t *testing.T, g *TannerGraph) {
	t.Helper()
	vEdges, cEdges := 0, 0
	for v := 0; v < g.NumVNodes(); v++ {
		deg := g.VNodeDeg(v)
		if deg < 0 || deg > g.MaxVNodeDeg() {
			t.Fatalf("variable %d degree %d outside [0, %d]", v, deg, g.MaxVNodeDeg())
		}
		vEdges += deg
		for i, c := range g.VNodeAdj(v) {
			j := g.VNodeCNodeMap(v)[i]
			if got := g.CNodeAdj(int(c))[j]; int(got) != v {
				t.Fatalf("CNodeAdj(%d)[%d] = %d, want %d", c, j, got, v)
			}
			if got := g.CNodeVNodeMap(int(c))[j]; int(got) != i {
				t.Fatalf("CNodeVNodeMap(%d)[%d] = %d, want %d", c, j, got, i)
			}
		}
	}
	for c := 0; c < g.NumCNodes(); c++ {
		deg := g.CNodeDeg(c)
		if deg < 0 || deg > g.MaxCNodeDeg() {
			t.Fatalf("check %d degree %d outside [0, %d]", c, deg, g.MaxCNodeDeg())
		}
		cEdges += deg
		for k, v := range g.CNodeAdj(c) {
			i := g.CNodeVNodeMap(c)[k]
			if got := g.VNodeAdj(int(v))[i]; int(got) != c {
				t.Fatalf("VNodeAdj(%d)[%d] = %d, want %d", v, i, got, c)
			}
		}
	}
	if vEdges != cEdges || vEdges != g.NumEdges() {
		t.Fatalf("edge totals: variables %d, checks %d, NumEdges %d", vEdges, cEdges, g.NumEdges())
	}
}

func TestRegularGraphInvariants(t *testing.T) {
	for _, tc := range []struct{ n, dv, dc int }{
		{12, 3, 6},
		{96, 3, 6},
		{100, 4, 5},
		{500, 3, 6},
	} {
		g := regularGraph(t, tc.n, tc.dv, tc.dc)
		checkGraphInvariants(t, g)
		if err := g.Validate(); err != nil {
			t.Errorf("(%d,%d,%d): Validate: %v", tc.n, tc.dv, tc.dc, err)
		}
		if want := tc.n * tc.dv; g.NumEdges() != want {
			t.Errorf("(%d,%d,%d): NumEdges = %d, want %d", tc.n, tc.dv, tc.dc, g.NumEdges(), want)
		}
	}
}

func TestNewTannerGraphMatchesParse(t *testing.T) {
	code := construct.Hamming74()
	g, err := NewTannerGraph(code.VNodeAdj, code.CNodeAdj)
	if err != nil {
		t.Fatalf("NewTannerGraph: %v", err)
	}
	if got, want := g.Fingerprint(), hammingGraph(t).Fingerprint(); got != want {
		t.Errorf("fingerprint %s, want %s", got, want)
	}
}

func TestMultiEdgePairing(t *testing.T) {
	// Variable 0 meets check 0 twice; variable 1 meets check 0 once.
	g, err := NewTannerGraph(
		[][]int{{0, 0, 1}, {0, 1}},
		[][]int{{0, 1, 0}, {0, 1}},
	)
	if err != nil {
		t.Fatalf("NewTannerGraph: %v", err)
	}
	checkGraphInvariants(t, g)

	// The k-th occurrence pairs with the k-th occurrence.
	if diff := cmp.Diff([]int32{0, 2, 0}, g.VNodeCNodeMap(0)); diff != "" {
		t.Errorf("VNodeCNodeMap(0) mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int32{0, 0, 1}, g.CNodeVNodeMap(0)); diff != "" {
		t.Errorf("CNodeVNodeMap(0) mismatch (-want +got):\n%s", diff)
	}
	if err := g.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestNewTannerGraphErrors(t *testing.T) {
	tests := []struct {
		name       string
		vadj, cadj [][]int
	}{
		{"no variables", nil, [][]int{{}}},
		{"no checks", [][]int{{}}, nil},
		{"check index out of range", [][]int{{1}}, [][]int{{0}}},
		{"variable index negative", [][]int{{0}}, [][]int{{-1}}},
		{"one-sided edge", [][]int{{0}, {0}}, [][]int{{0}}},
		{"multiplicity mismatch", [][]int{{0, 0}}, [][]int{{0}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTannerGraph(tt.vadj, tt.cadj)
			if !errors.Is(err, ldpcerrors.ErrMalformedCodeDescription) {
				t.Errorf("error = %v, want ErrMalformedCodeDescription", err)
			}
		})
	}
}

func TestValidateDetectsCorruption(t *testing.T) {
	corruptions := map[string]func(g *TannerGraph){
		"degree above max":       func(g *TannerGraph) { g.vnodeDeg[0] = int32(g.maxVNodeDeg + 1) },
		"padding overwritten":    func(g *TannerGraph) { g.vnodeAdj[4*g.maxVNodeDeg+1] = 0 },
		"adjacency out of range": func(g *TannerGraph) { g.cnodeAdj[0] = int32(g.numVNodes) },
		"map not inverse":        func(g *TannerGraph) { g.vnodeAdj[0], g.vnodeAdj[1] = g.vnodeAdj[1], g.vnodeAdj[0] },
		"edge count":             func(g *TannerGraph) { g.numEdges++ },
		"short array":            func(g *TannerGraph) { g.cnodeVNodeMap = g.cnodeVNodeMap[:1] },
	}
	for name, corrupt := range corruptions {
		t.Run(name, func(t *testing.T) {
			g := hammingGraph(t)
			corrupt(g)
			if err := g.Validate(); !errors.Is(err, ldpcerrors.ErrCorruptedGraph) {
				t.Errorf("Validate = %v, want ErrCorruptedGraph", err)
			}
		})
	}
}

func TestParityCheckMatrixRoundTrip(t *testing.T) {
	g := hammingGraph(t)
	h := g.ParityCheckMatrix()

	want := mat.NewDense(3, 7, []float64{
		1, 1, 0, 1, 1, 0, 0,
		1, 0, 1, 1, 0, 1, 0,
		0, 1, 1, 1, 0, 0, 1,
	})
	if !mat.Equal(h, want) {
		t.Errorf("H =\n%v\nwant\n%v", mat.Formatted(h), mat.Formatted(want))
	}

	back, err := FromParityCheck(h)
	if err != nil {
		t.Fatalf("FromParityCheck: %v", err)
	}
	if back.Fingerprint() != g.Fingerprint() {
		t.Error("FromParityCheck(ParityCheckMatrix()) differs from the original graph")
	}
}

func TestFromParityCheckRejectsNonBinary(t *testing.T) {
	h := mat.NewDense(2, 2, []float64{1, 0, 0.5, 1})
	_, err := FromParityCheck(h)
	if !errors.Is(err, ldpcerrors.ErrMalformedCodeDescription) {
		t.Errorf("error = %v, want ErrMalformedCodeDescription", err)
	}
}

func TestSyndrome(t *testing.T) {
	g := hammingGraph(t)

	s, err := g.Syndrome(hammingCodeword)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]uint8{0, 0, 0}, s); diff != "" {
		t.Errorf("codeword syndrome mismatch (-want +got):\n%s", diff)
	}

	// Flipping variable 4 (on all three checks) trips every check.
	word := append([]uint8(nil), hammingCodeword...)
	word[3] ^= 1
	s, err = g.Syndrome(word)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]uint8{1, 1, 1}, s); diff != "" {
		t.Errorf("syndrome mismatch (-want +got):\n%s", diff)
	}
	if ok, _ := g.CheckParity(word); ok {
		t.Error("CheckParity accepted a non-codeword")
	}
	if ok, _ := g.CheckParity(hammingCodeword); !ok {
		t.Error("CheckParity rejected a codeword")
	}
	if n := g.countUnsatisfied(word); n != 3 {
		t.Errorf("countUnsatisfied = %d, want 3", n)
	}

	if _, err := g.Syndrome([]uint8{0, 1}); !errors.Is(err, ldpcerrors.ErrInvalidDecodeInput) {
		t.Errorf("short word: error = %v, want ErrInvalidDecodeInput", err)
	}
	if _, err := g.Syndrome([]uint8{0, 0, 0, 2, 0, 0, 0}); !errors.Is(err, ldpcerrors.ErrInvalidDecodeInput) {
		t.Errorf("non-binary word: error = %v, want ErrInvalidDecodeInput", err)
	}
}

func TestFingerprintDistinguishesCodes(t *testing.T) {
	a := regularGraph(t, 60, 3, 6)
	b := hammingGraph(t)
	if a.Fingerprint() == b.Fingerprint() {
		t.Error("different codes share a fingerprint")
	}
	if a.Fingerprint() != a.Fingerprint() {
		t.Error("fingerprint is not deterministic")
	}
	if s := b.Fingerprint().String(); len(s) != 32 {
		t.Errorf("fingerprint string %q has length %d, want 32", s, len(s))
	}
}
