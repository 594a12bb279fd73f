package ldpc

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"

	ldpcerrors "github.com/tamirms/ldpc/errors"
	"github.com/tamirms/ldpc/internal/ctxlog"
)

const (
	// maxLineLength bounds a single description line. Degree lines of large
	// codes hold one token per node.
	maxLineLength = 64 << 20

	// maxSlots bounds nodes × max degree on either side so every slot index
	// fits in int32.
	maxSlots = math.MaxInt32

	// headerLines is the number of lines before the first adjacency row.
	headerLines = 4
)

type side uint8

const (
	sideNone side = iota
	sideVariable
	sideCheck
)

// ParseError describes a malformed code description. It always unwraps to
// ErrMalformedCodeDescription.
//
// Node numbers in Field are 1-based, as in the description format.
type ParseError struct {
	Line     int // 1-based line number; 0 when the input was not a text description
	Field    string
	Expected string
	Got      string

	// Set by link so the parser can attach the row's line number.
	node int
	side side
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString(ldpcerrors.ErrMalformedCodeDescription.Error())
	if e.Line > 0 {
		fmt.Fprintf(&b, ": line %d", e.Line)
	}
	fmt.Fprintf(&b, ": %s: expected %s, got %s", e.Field, e.Expected, e.Got)
	return b.String()
}

func (e *ParseError) Unwrap() error {
	return ldpcerrors.ErrMalformedCodeDescription
}

// ParseCodeDescription reads a textual code description and builds its
// Tanner graph.
//
// The format is line oriented:
//
//	n_vnodes n_cnodes
//	max_vnode_deg max_cnode_deg
//	deg(v1) deg(v2) ... deg(vN)        (trailing separator allowed)
//	deg(c1) deg(c2) ... deg(cM)        (trailing separator allowed)
//	one line per variable: its 1-based check indices, tab separated
//	one line per check: its 1-based variable indices, tab separated
//
// The declared maxima only bound the degree lists. Row storage is sized by
// the largest degree actually listed, so MaxVNodeDeg and MaxCNodeDeg report
// that value.
//
// Tokens may be separated by any run of spaces or tabs. Malformed input
// returns a *ParseError (wrapping ErrMalformedCodeDescription) with the line
// number and the expected and actual values; no partial graph is returned.
// Read failures from r are returned wrapped as-is.
func ParseCodeDescription(r io.Reader) (*TannerGraph, error) {
	p := &descParser{sc: bufio.NewScanner(r)}
	p.sc.Buffer(make([]byte, 0, 64*1024), maxLineLength)

	nv, nc, err := p.pair("node counts", 1, maxSlots)
	if err != nil {
		return nil, err
	}
	declV, declC, err := p.pair("max degrees", 0, maxSlots)
	if err != nil {
		return nil, err
	}

	vdeg, err := p.degrees("variable degrees", nv, declV)
	if err != nil {
		return nil, err
	}
	mv := int(slices.Max(vdeg))
	if int64(nv)*int64(mv) > maxSlots {
		return nil, &ParseError{Line: p.line, Field: "variable degrees",
			Expected: fmt.Sprintf("nodes × max degree ≤ %d", maxSlots),
			Got:      fmt.Sprintf("%d×%d", nv, mv)}
	}
	cdeg, err := p.degrees("check degrees", nc, declC)
	if err != nil {
		return nil, err
	}
	mc := int(slices.Max(cdeg))
	if int64(nc)*int64(mc) > maxSlots {
		return nil, &ParseError{Line: p.line, Field: "check degrees",
			Expected: fmt.Sprintf("nodes × max degree ≤ %d", maxSlots),
			Got:      fmt.Sprintf("%d×%d", nc, mc)}
	}

	// Rows are held until the whole description has been read so the
	// padded graph is allocated only for input that is actually present.
	// The stride is the largest listed degree, not the declared maximum.
	vrows := make([][]int32, nv)
	for v := range vrows {
		if vrows[v], err = p.row(fmt.Sprintf("variable %d adjacency", v+1), int(vdeg[v]), nc); err != nil {
			return nil, err
		}
	}
	crows := make([][]int32, nc)
	for c := range crows {
		if crows[c], err = p.row(fmt.Sprintf("check %d adjacency", c+1), int(cdeg[c]), nv); err != nil {
			return nil, err
		}
	}
	if err := p.trailing(); err != nil {
		return nil, err
	}

	g := newGraph(mv, mc, vdeg, cdeg)
	for v, row := range vrows {
		copy(g.vnodeAdj[v*mv:], row)
	}
	for c, row := range crows {
		copy(g.cnodeAdj[c*mc:], row)
	}

	if err := g.link(); err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			switch pe.side {
			case sideVariable:
				pe.Line = headerLines + 1 + pe.node
			case sideCheck:
				pe.Line = headerLines + 1 + nv + pe.node
			}
		}
		return nil, err
	}
	return g, nil
}

// LoadCodeDescription opens path and parses it with ParseCodeDescription.
// The logger attached to ctx with ContextWithLogger receives one record
// describing the loaded code.
func LoadCodeDescription(ctx context.Context, path string) (*TannerGraph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open code description: %w", err)
	}
	defer f.Close()

	if stat, err := f.Stat(); err == nil {
		fadviseSequential(int(f.Fd()), 0, stat.Size())
	}

	g, err := ParseCodeDescription(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	ctxlog.FromContext(ctx).Info("loaded code description",
		"path", path,
		"vnodes", g.NumVNodes(),
		"cnodes", g.NumCNodes(),
		"edges", g.NumEdges(),
		"max_vnode_deg", g.MaxVNodeDeg(),
		"max_cnode_deg", g.MaxCNodeDeg())
	return g, nil
}

// descParser walks a description line by line.
type descParser struct {
	sc   *bufio.Scanner
	line int // number of the line most recently read
}

// next returns the whitespace-separated tokens of the next line.
func (p *descParser) next(field string) ([]string, error) {
	if !p.sc.Scan() {
		if err := p.sc.Err(); err != nil {
			return nil, fmt.Errorf("read code description at line %d: %w", p.line+1, err)
		}
		return nil, &ParseError{Line: p.line + 1, Field: field, Expected: "a line", Got: "end of input"}
	}
	p.line++
	return strings.Fields(p.sc.Text()), nil
}

// pair reads a line holding exactly two integers in [lo, hi].
func (p *descParser) pair(field string, lo, hi int) (int, int, error) {
	tokens, err := p.next(field)
	if err != nil {
		return 0, 0, err
	}
	if len(tokens) != 2 {
		return 0, 0, &ParseError{Line: p.line, Field: field, Expected: "2 values",
			Got: fmt.Sprintf("%d values", len(tokens))}
	}
	a, err := p.integer(field, tokens[0], lo, hi)
	if err != nil {
		return 0, 0, err
	}
	b, err := p.integer(field, tokens[1], lo, hi)
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}

// degrees reads a degree list of exactly n entries, each in [0, maxDeg].
func (p *descParser) degrees(field string, n, maxDeg int) ([]int32, error) {
	tokens, err := p.next(field)
	if err != nil {
		return nil, err
	}
	if len(tokens) != n {
		return nil, &ParseError{Line: p.line, Field: field, Expected: fmt.Sprintf("%d degrees", n),
			Got: fmt.Sprintf("%d degrees", len(tokens))}
	}
	out := make([]int32, n)
	for i, tok := range tokens {
		d, err := p.integer(fmt.Sprintf("%s[%d]", field, i+1), tok, 0, maxDeg)
		if err != nil {
			return nil, err
		}
		out[i] = int32(d)
	}
	return out, nil
}

// row reads one adjacency line of exactly deg 1-based indices in [1, limit]
// and returns them 0-based.
func (p *descParser) row(field string, deg, limit int) ([]int32, error) {
	tokens, err := p.next(field)
	if err != nil {
		return nil, err
	}
	if len(tokens) != deg {
		return nil, &ParseError{Line: p.line, Field: field, Expected: fmt.Sprintf("%d indices (declared degree)", deg),
			Got: fmt.Sprintf("%d indices", len(tokens))}
	}
	out := make([]int32, deg)
	for i, tok := range tokens {
		idx, err := p.integer(field, tok, 1, limit)
		if err != nil {
			return nil, err
		}
		out[i] = int32(idx - 1)
	}
	return out, nil
}

// trailing accepts only blank lines after the last check row.
func (p *descParser) trailing() error {
	for p.sc.Scan() {
		p.line++
		if strings.TrimSpace(p.sc.Text()) != "" {
			return &ParseError{Line: p.line, Field: "trailing data", Expected: "end of input",
				Got: fmt.Sprintf("%q", truncate(p.sc.Text(), 32))}
		}
	}
	if err := p.sc.Err(); err != nil {
		return fmt.Errorf("read code description at line %d: %w", p.line+1, err)
	}
	return nil
}

func (p *descParser) integer(field, tok string, lo, hi int) (int, error) {
	n, err := strconv.Atoi(tok)
	if err != nil {
		return 0, &ParseError{Line: p.line, Field: field, Expected: "an integer", Got: fmt.Sprintf("%q", truncate(tok, 32))}
	}
	if n < lo || n > hi {
		return 0, &ParseError{Line: p.line, Field: field, Expected: fmt.Sprintf("a value in [%d, %d]", lo, hi), Got: tok}
	}
	return n, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
