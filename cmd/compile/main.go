// Compile converts a textual LDPC code description into the compiled binary
// graph form and checks that the result reloads to the same graph.
//
// Usage:
//
//	go run ./cmd/compile -in code.txt -out code.ldpc
//
// Flags:
//
//	-in        Code description to read (required)
//	-out       Compiled graph to write (default: -in with a .ldpc extension)
//	-verify    Reopen the written file and compare fingerprints (default: true)
//	-print-h   Print the parity-check matrix (codes up to 64 variables)
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/tamirms/ldpc"
)

// maxPrintVNodes bounds -print-h output to something a terminal can show.
const maxPrintVNodes = 64

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "compile: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	inFlag := flag.String("in", "", "code description to read")
	outFlag := flag.String("out", "", "compiled graph to write")
	verifyFlag := flag.Bool("verify", true, "reopen the written file and compare fingerprints")
	printH := flag.Bool("print-h", false, "print the parity-check matrix")
	flag.Parse()

	if *inFlag == "" {
		flag.Usage()
		return fmt.Errorf("-in is required")
	}
	out := *outFlag
	if out == "" {
		out = strings.TrimSuffix(*inFlag, filepath.Ext(*inFlag)) + ".ldpc"
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	ctx := ldpc.ContextWithLogger(context.Background(), logger)

	start := time.Now()
	g, err := ldpc.LoadCodeDescription(ctx, *inFlag)
	if err != nil {
		return err
	}
	parsed := time.Since(start)

	if err := ldpc.WriteGraph(out, g); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	fp := g.Fingerprint()
	logger.Info("compiled graph written", "path", out, "fingerprint", fp.String(), "parse_time", parsed.Round(time.Microsecond))

	if *verifyFlag {
		start = time.Now()
		reloaded, err := ldpc.OpenGraph(out)
		if err != nil {
			return fmt.Errorf("verify %s: %w", out, err)
		}
		if reloaded.Fingerprint() != fp {
			return fmt.Errorf("verify %s: fingerprint %s, want %s", out, reloaded.Fingerprint(), fp)
		}
		logger.Info("compiled graph verified", "path", out, "open_time", time.Since(start).Round(time.Microsecond))
	}

	if *printH {
		if g.NumVNodes() > maxPrintVNodes {
			return fmt.Errorf("-print-h supports at most %d variables, code has %d", maxPrintVNodes, g.NumVNodes())
		}
		fmt.Printf("H =\n%v\n", mat.Formatted(g.ParityCheckMatrix(), mat.Squeeze()))
	}
	return nil
}
