package ldpc

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	ldpcerrors "github.com/tamirms/ldpc/errors"
)

// Result is the outcome of one decode.
type Result struct {
	// Bits holds the hard decision per variable node: 0 when the posterior
	// LLR is positive, 1 otherwise.
	Bits []uint8

	// LLRs holds the posterior LLR per variable node: the channel LLR plus
	// every incoming check message. Posteriors are not clipped.
	LLRs []float64

	// Iterations is the number of completed iterations, in [1, nIters].
	Iterations int

	// Converged reports whether Bits satisfies every parity check. A
	// decode that exhausts its budget returns its last hard decision with
	// Converged false; this is not an error.
	Converged bool

	// UnsatisfiedChecks counts the checks with odd parity over Bits.
	UnsatisfiedChecks int
}

// Decoder runs sum-product decoding on one Tanner graph and reuses its
// message buffers across calls.
//
// Usage:
//
//	dec, err := ldpc.NewDecoder(g, ldpc.WithWorkers(4))
//	if err != nil { return err }
//	for _, frame := range frames {
//	    res, err := dec.Decode(frame, 50)
//	    if err != nil { return err }
//	    use(res.Bits, res.Converged)
//	}
//
// A Decoder is NOT safe for concurrent use; give each goroutine its own.
// The graph may be shared.
type Decoder struct {
	g   *TannerGraph
	cfg *decodeConfig

	// Per-decode state, stride-aligned with the graph's rows.
	vnodeMsgs []float64 // variable → check, stride maxVNodeDeg
	cnodeMsgs []float64 // check → variable, stride maxCNodeDeg
	cnodeTanh []float64 // tanh(incoming/2) per check edge, stride maxCNodeDeg

	// Inputs and outputs of the decode in progress.
	llrs []float64
	bits []uint8
	post []float64

	// Phase partitions, one [lo, hi) node range per worker.
	vnodeSpans []span
	cnodeSpans []span
}

// NewDecoder creates a decoder for g.
func NewDecoder(g *TannerGraph, opts ...DecodeOption) (*Decoder, error) {
	if g == nil {
		return nil, fmt.Errorf("%w: nil graph", ldpcerrors.ErrInvalidDecodeInput)
	}
	cfg := defaultDecodeConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	d := &Decoder{
		g:          g,
		cfg:        cfg,
		vnodeMsgs:  make([]float64, g.numVNodes*g.maxVNodeDeg),
		cnodeMsgs:  make([]float64, g.numCNodes*g.maxCNodeDeg),
		cnodeTanh:  make([]float64, g.numCNodes*g.maxCNodeDeg),
		vnodeSpans: partition(g.numVNodes, cfg.workers),
		cnodeSpans: partition(g.numCNodes, cfg.workers),
	}
	return d, nil
}

// Decode runs sum-product decoding of one received word.
//
// llrs holds one channel LLR per variable node (positive favours 0).
// nIters is the iteration budget; decoding stops early as soon as the hard
// decision satisfies every parity check.
//
// Returns ErrInvalidDecodeInput, before any iteration, when len(llrs) differs
// from the graph's variable count, an LLR is NaN, or nIters < 1.
// The returned slices are owned by the caller.
func (d *Decoder) Decode(llrs []float64, nIters int) (*Result, error) {
	g := d.g
	if len(llrs) != g.numVNodes {
		return nil, fmt.Errorf("%w: %d LLRs for %d variable nodes", ldpcerrors.ErrInvalidDecodeInput, len(llrs), g.numVNodes)
	}
	if nIters < 1 {
		return nil, fmt.Errorf("%w: iteration budget %d < 1", ldpcerrors.ErrInvalidDecodeInput, nIters)
	}
	for v, x := range llrs {
		if math.IsNaN(x) {
			return nil, fmt.Errorf("%w: LLR %d is NaN", ldpcerrors.ErrInvalidDecodeInput, v)
		}
	}

	res := &Result{
		Bits: make([]uint8, g.numVNodes),
		LLRs: make([]float64, g.numVNodes),
	}
	d.llrs, d.bits, d.post = llrs, res.Bits, res.LLRs
	defer func() { d.llrs, d.bits, d.post = nil, nil, nil }()

	d.initMessages()
	for iter := 1; iter <= nIters; iter++ {
		d.runPhase(d.cnodeSpans, d.updateChecks)
		d.runPhase(d.vnodeSpans, d.updateVariables)
		res.Iterations = iter
		if g.firstUnsatisfied(res.Bits) < 0 {
			res.Converged = true
			break
		}
	}
	if !res.Converged {
		res.UnsatisfiedChecks = g.countUnsatisfied(res.Bits)
	}

	if d.cfg.metrics != nil {
		d.cfg.metrics.observe(res)
	}
	if d.cfg.logger.Enabled(context.Background(), slog.LevelDebug) {
		d.cfg.logger.Debug("ldpc decode",
			"vnodes", g.numVNodes,
			"iterations", res.Iterations,
			"budget", nIters,
			"converged", res.Converged,
			"unsatisfied_checks", res.UnsatisfiedChecks)
	}
	return res, nil
}

// Decode is a convenience wrapper that decodes one word with a fresh Decoder.
func Decode(llrs []float64, g *TannerGraph, nIters int, opts ...DecodeOption) (*Result, error) {
	d, err := NewDecoder(g, opts...)
	if err != nil {
		return nil, err
	}
	return d.Decode(llrs, nIters)
}

// initMessages seeds every live variable edge with its node's clipped
// channel LLR; no check information exists yet. Dead slots are never read.
func (d *Decoder) initMessages() {
	g := d.g
	mv := g.maxVNodeDeg
	for v := 0; v < g.numVNodes; v++ {
		m := clipLLR(d.llrs[v])
		row := d.vnodeMsgs[v*mv : v*mv+int(g.vnodeDeg[v])]
		for i := range row {
			row[i] = m
		}
	}
}

// updateChecks runs Phase A for checks [lo, hi): every outgoing message is
// 2·atanh of the product of tanh(m/2) over the check's other incoming
// messages.
//
// The product over the others is formed without dividing by zero: exact
// zero factors are counted and kept out of prod. With no zeros the edge
// gets prod/t_i; with one zero only the zero edge gets prod (all others see
// a zero factor and get 0); with two or more every edge gets 0.
//
// Reads vnodeMsgs, writes only this range's rows of cnodeMsgs and cnodeTanh.
func (d *Decoder) updateChecks(lo, hi int) {
	g := d.g
	mv, mc := g.maxVNodeDeg, g.maxCNodeDeg
	for c := lo; c < hi; c++ {
		base := c * mc
		deg := int(g.cnodeDeg[c])
		prod := 1.0
		zeros := 0
		for i := 0; i < deg; i++ {
			v := int(g.cnodeAdj[base+i])
			slot := int(g.cnodeVNodeMap[base+i])
			t := math.Tanh(d.vnodeMsgs[v*mv+slot] / 2)
			d.cnodeTanh[base+i] = t
			if t == 0 {
				zeros++
			} else {
				prod *= t
			}
		}
		for i := 0; i < deg; i++ {
			t := d.cnodeTanh[base+i]
			var x float64
			switch {
			case zeros == 0:
				x = prod / t
			case zeros == 1 && t == 0:
				x = prod
			}
			d.cnodeMsgs[base+i] = checkMessage(x)
		}
	}
}

// updateVariables runs Phase B for variables [lo, hi): every outgoing
// message is the channel LLR plus all incoming check messages except the
// edge's own, clipped. The posterior keeps the full sum and drives the hard
// decision.
//
// Reads cnodeMsgs, writes only this range's rows of vnodeMsgs, post and bits.
func (d *Decoder) updateVariables(lo, hi int) {
	g := d.g
	mv, mc := g.maxVNodeDeg, g.maxCNodeDeg
	for v := lo; v < hi; v++ {
		base := v * mv
		deg := int(g.vnodeDeg[v])
		sum := 0.0
		for i := 0; i < deg; i++ {
			c := int(g.vnodeAdj[base+i])
			slot := int(g.vnodeCNodeMap[base+i])
			sum += d.cnodeMsgs[c*mc+slot]
		}
		ch := d.llrs[v]
		for i := 0; i < deg; i++ {
			c := int(g.vnodeAdj[base+i])
			slot := int(g.vnodeCNodeMap[base+i])
			d.vnodeMsgs[base+i] = clipLLR(ch + sum - d.cnodeMsgs[c*mc+slot])
		}
		post := ch + sum
		d.post[v] = post
		if post > 0 {
			d.bits[v] = 0
		} else {
			d.bits[v] = 1
		}
	}
}
