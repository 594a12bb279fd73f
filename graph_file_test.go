package ldpc

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/google/go-cmp/cmp"

	ldpcerrors "github.com/tamirms/ldpc/errors"
)

// compiledBytes writes g through WriteGraph and returns the file contents.
func compiledBytes(t *testing.T, g *TannerGraph) []byte {
	t.Helper()
	path := tempGraphPath(t)
	if err := WriteGraph(path, g); err != nil {
		t.Fatalf("WriteGraph: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

// reseal recomputes both footer checksums after a deliberate edit.
func reseal(data []byte) {
	body := data[headerSize : len(data)-footerSize]
	ft := footer{
		BodyHash:   xxhash.Sum64(body),
		HeaderHash: xxhash.Sum64(data[:headerSize]),
	}
	ft.encodeTo(data[len(data)-footerSize:])
}

func graphsEqual(t *testing.T, want, got *TannerGraph) {
	t.Helper()
	if diff := cmp.Diff(want, got, cmp.AllowUnexported(TannerGraph{})); diff != "" {
		t.Errorf("graph mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteOpenRoundTrip(t *testing.T) {
	for name, g := range map[string]*TannerGraph{
		"hamming": hammingGraph(t),
		"regular": regularGraph(t, 504, 3, 6),
	} {
		t.Run(name, func(t *testing.T) {
			path := tempGraphPath(t)
			if err := WriteGraph(path, g); err != nil {
				t.Fatalf("WriteGraph: %v", err)
			}
			stat, err := os.Stat(path)
			if err != nil {
				t.Fatal(err)
			}
			want := int64(headerSize + bodySize(g.numVNodes, g.numCNodes, g.maxVNodeDeg, g.maxCNodeDeg) + footerSize)
			if stat.Size() != want {
				t.Errorf("file size = %d, want %d", stat.Size(), want)
			}

			got, err := OpenGraph(path)
			if err != nil {
				t.Fatalf("OpenGraph: %v", err)
			}
			graphsEqual(t, g, got)
			if got.Fingerprint() != g.Fingerprint() {
				t.Error("fingerprint changed across the round trip")
			}
		})
	}
}

func TestWriteGraphOverwrites(t *testing.T) {
	path := tempGraphPath(t)
	if err := WriteGraph(path, regularGraph(t, 504, 3, 6)); err != nil {
		t.Fatal(err)
	}
	h := hammingGraph(t)
	if err := WriteGraph(path, h); err != nil {
		t.Fatal(err)
	}
	got, err := OpenGraph(path)
	if err != nil {
		t.Fatalf("OpenGraph: %v", err)
	}
	graphsEqual(t, h, got)
}

func TestOpenGraphBytesDoesNotAlias(t *testing.T) {
	g := hammingGraph(t)
	data := compiledBytes(t, g)
	got, err := OpenGraphBytes(data)
	if err != nil {
		t.Fatal(err)
	}
	clear(data)
	if err := got.Validate(); err != nil {
		t.Errorf("graph changed after its source bytes were cleared: %v", err)
	}
}

func TestHeaderLayout(t *testing.T) {
	g := hammingGraph(t)
	data := compiledBytes(t, g)
	if string(data[0:4]) != "LDPC" {
		t.Errorf("magic bytes = %q, want \"LDPC\"", data[0:4])
	}
	if v := binary.LittleEndian.Uint16(data[4:6]); v != version {
		t.Errorf("version = %d, want %d", v, version)
	}
	for off, want := range map[int]uint32{8: 7, 12: 3, 16: 3, 20: 4} {
		if got := binary.LittleEndian.Uint32(data[off:]); got != want {
			t.Errorf("uint32 at offset %d = %d, want %d", off, got, want)
		}
	}
	if edges := binary.LittleEndian.Uint64(data[24:32]); edges != 12 {
		t.Errorf("edges = %d, want 12", edges)
	}
	fp := g.Fingerprint()
	if diff := cmp.Diff(fp[:], data[32:48]); diff != "" {
		t.Errorf("fingerprint bytes mismatch (-want +got):\n%s", diff)
	}
}

func TestOpenGraphBytesErrors(t *testing.T) {
	base := compiledBytes(t, hammingGraph(t))
	bodyEnd := len(base) - footerSize

	tests := []struct {
		name   string
		mutate func([]byte) []byte
		want   error
	}{
		{"empty", func([]byte) []byte { return nil }, ldpcerrors.ErrTruncatedFile},
		{"header only", func(d []byte) []byte { return d[:headerSize] }, ldpcerrors.ErrTruncatedFile},
		{"missing footer", func(d []byte) []byte { return d[:bodyEnd] }, ldpcerrors.ErrTruncatedFile},
		{"trailing bytes", func(d []byte) []byte { return append(d, 0) }, ldpcerrors.ErrCorruptedGraph},
		{"bad magic", func(d []byte) []byte { d[0] ^= 0xFF; return d }, ldpcerrors.ErrInvalidMagic},
		{"bad version", func(d []byte) []byte { d[4] = 9; return d }, ldpcerrors.ErrInvalidVersion},
		{"zero variables", func(d []byte) []byte {
			binary.LittleEndian.PutUint32(d[8:12], 0)
			return d
		}, ldpcerrors.ErrCorruptedGraph},
		{"oversized geometry", func(d []byte) []byte {
			binary.LittleEndian.PutUint32(d[16:20], 1<<30)
			return d
		}, ldpcerrors.ErrCorruptedGraph},
		{"body bit flip", func(d []byte) []byte { d[headerSize+3] ^= 1; return d }, ldpcerrors.ErrChecksumFailed},
		{"fingerprint bit flip", func(d []byte) []byte { d[40] ^= 1; return d }, ldpcerrors.ErrChecksumFailed},
		{"footer bit flip", func(d []byte) []byte { d[bodyEnd] ^= 1; return d }, ldpcerrors.ErrChecksumFailed},
		{"resealed body edit", func(d []byte) []byte {
			d[headerSize] ^= 1 // variable 1 degree
			reseal(d)
			return d
		}, ldpcerrors.ErrCorruptedGraph},
		{"resealed edge count", func(d []byte) []byte {
			binary.LittleEndian.PutUint64(d[24:32], 13)
			reseal(d)
			return d
		}, ldpcerrors.ErrCorruptedGraph},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := tt.mutate(append([]byte(nil), base...))
			g, err := OpenGraphBytes(data)
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
			if g != nil {
				t.Error("graph returned with error")
			}
		})
	}
}

func TestOpenGraphFileErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := OpenGraph(filepath.Join(dir, "missing.ldpc")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file: error = %v, want os.ErrNotExist", err)
	}
	if _, err := OpenGraph(dir); err == nil {
		t.Error("expected an error when opening a directory")
	}

	empty := filepath.Join(dir, "empty.ldpc")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := OpenGraph(empty); !errors.Is(err, ldpcerrors.ErrTruncatedFile) {
		t.Errorf("empty file: error = %v, want ErrTruncatedFile", err)
	}

	corrupt := filepath.Join(dir, "corrupt.ldpc")
	data := compiledBytes(t, hammingGraph(t))
	data[headerSize+10] ^= 0x40
	if err := os.WriteFile(corrupt, data, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := OpenGraph(corrupt); !errors.Is(err, ldpcerrors.ErrChecksumFailed) {
		t.Errorf("corrupt file: error = %v, want ErrChecksumFailed", err)
	}
}

func TestWriteGraphErrors(t *testing.T) {
	if err := WriteGraph(tempGraphPath(t), nil); !errors.Is(err, ldpcerrors.ErrCorruptedGraph) {
		t.Errorf("nil graph: error = %v, want ErrCorruptedGraph", err)
	}
	if err := WriteGraph(filepath.Join(t.TempDir(), "no", "such", "dir", "g.ldpc"), hammingGraph(t)); err == nil {
		t.Error("expected an error for an uncreatable path")
	}
}

func TestDecodeFromCompiledGraph(t *testing.T) {
	g := regularGraph(t, 504, 3, 6)
	path := tempGraphPath(t)
	if err := WriteGraph(path, g); err != nil {
		t.Fatal(err)
	}
	loaded, err := OpenGraph(path)
	if err != nil {
		t.Fatal(err)
	}

	llrs := awgnLLRs(newTestRNG(t), g.NumVNodes(), 0.8)
	want, err := Decode(llrs, g, 30)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Decode(llrs, loaded, 30)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("decode differs on the reloaded graph (-original +reloaded):\n%s", diff)
	}
}
