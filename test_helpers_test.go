package ldpc

import (
	"bytes"
	"encoding/binary"
	"hash/fnv"
	"math/rand/v2"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/tamirms/ldpc/internal/construct"
)

// Named seeds for deterministic reproduction.
const (
	testSeed1 = 0x1234567890ABCDEF
	testSeed2 = 0xFEDCBA9876543210
)

// hammingCodeword is a codeword of construct.Hamming74.
var hammingCodeword = []uint8{1, 0, 1, 1, 0, 1, 0}

func newTestRNG(t testing.TB) *rand.Rand {
	t.Helper()
	h := fnv.New128a()
	h.Write([]byte(t.Name()))
	sum := h.Sum(nil)
	s1 := binary.LittleEndian.Uint64(sum[:8])
	s2 := binary.LittleEndian.Uint64(sum[8:])
	return rand.New(rand.NewPCG(testSeed1^s1, testSeed2^s2))
}

// mustGraph builds the Tanner graph of code through its text description,
// the same path users take.
func mustGraph(t testing.TB, code *construct.Code) *TannerGraph {
	t.Helper()
	g, err := ParseCodeDescription(bytes.NewReader(code.Description()))
	if err != nil {
		t.Fatalf("ParseCodeDescription: %v", err)
	}
	return g
}

func hammingGraph(t testing.TB) *TannerGraph {
	t.Helper()
	return mustGraph(t, construct.Hamming74())
}

// regularGraph generates a random (vDeg, cDeg)-regular graph from the
// test's RNG.
func regularGraph(t testing.TB, numVNodes, vDeg, cDeg int) *TannerGraph {
	t.Helper()
	code, err := construct.Regular(newTestRNG(t), numVNodes, vDeg, cDeg)
	if err != nil {
		t.Fatalf("construct.Regular: %v", err)
	}
	return mustGraph(t, code)
}

// oddTriangleGraph has 6 variables and 3 weight-3 checks arranged in a
// ring: {0,1,2}, {2,3,4}, {4,5,0}. The all-ones word violates every check.
func oddTriangleGraph(t testing.TB) *TannerGraph {
	t.Helper()
	return mustGraph(t, construct.FromCheckRows(6, [][]int{
		{0, 1, 2},
		{2, 3, 4},
		{4, 5, 0},
	}))
}

// noiselessLLRs maps each bit to ±mag: +mag for 0, -mag for 1.
func noiselessLLRs(bits []uint8, mag float64) []float64 {
	llrs := make([]float64, len(bits))
	for i, b := range bits {
		if b == 0 {
			llrs[i] = mag
		} else {
			llrs[i] = -mag
		}
	}
	return llrs
}

// awgnLLRs returns channel LLRs for the all-zero codeword sent with BPSK
// (bit 0 → +1) over an AWGN channel with noise standard deviation sigma:
// llr = 2·y/σ².
func awgnLLRs(rng *rand.Rand, n int, sigma float64) []float64 {
	noise := distuv.Normal{Mu: 1, Sigma: sigma, Src: rng}
	llrs := make([]float64, n)
	scale := 2 / (sigma * sigma)
	for i := range llrs {
		llrs[i] = scale * noise.Rand()
	}
	return llrs
}

func tempGraphPath(t testing.TB) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "code.ldpc")
}
