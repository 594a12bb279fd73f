// Bench measures the frame error rate and throughput of the LDPC decoder
// over a BPSK/AWGN channel.
//
// Every frame transmits the all-zero codeword, which belongs to any linear
// code, so no encoder is needed. Frame noise is seeded per frame from the
// run seed, the operating point and the frame index, so a profile gives the
// same frames on every run.
//
// Usage:
//
//	go run ./cmd/bench -n 1008 -ebn0 1,1.5,2 -frames 10000 -workers 4
//	go run ./cmd/bench -config profile.yaml -code code.ldpc
//
// Flags:
//
//	-config        YAML profile (flags override it)
//	-code          Code description file, or compiled graph ending in .ldpc
//	-n             Variable nodes of the generated regular code (default: 1008)
//	-dv, -dc       Variable and check degrees of the generated code (default: 3, 6)
//	-ebn0          Comma-separated Eb/N0 points in dB
//	-frames        Frames per point (default: 1000)
//	-max-errors    Stop a point after this many frame errors (default: 100)
//	-iters         Iteration budget (default: 50)
//	-workers       Goroutines per decode (default: 1)
//	-concurrency   Frames decoded at once (default: 1)
//	-metrics-addr  Serve Prometheus metrics on this address while running
package main

import (
	"context"
	"encoding/binary"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"net/http"
	"os"
	"path/filepath"
	"runtime/pprof"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spaolacci/murmur3"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/tamirms/ldpc"
	"github.com/tamirms/ldpc/internal/construct"
)

// pointResult aggregates one operating point.
type pointResult struct {
	EbN0dB      float64
	Sigma       float64
	Frames      int64
	FrameErrors int64
	BitErrors   int64
	Iterations  int64
	Elapsed     time.Duration
}

func (r *pointResult) fer() float64 { return float64(r.FrameErrors) / float64(max(r.Frames, 1)) }

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "bench: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configFlag := flag.String("config", "", "YAML benchmark profile")
	codeFlag := flag.String("code", "", "code description file, or compiled graph (.ldpc)")
	nFlag := flag.Int("n", 0, "variable nodes of the generated regular code")
	dvFlag := flag.Int("dv", 0, "variable degree of the generated code")
	dcFlag := flag.Int("dc", 0, "check degree of the generated code")
	ebn0Flag := flag.String("ebn0", "", "comma-separated Eb/N0 points in dB")
	framesFlag := flag.Int("frames", 0, "frames per operating point")
	maxErrFlag := flag.Int("max-errors", 0, "stop a point after this many frame errors")
	itersFlag := flag.Int("iters", 0, "iteration budget")
	workersFlag := flag.Int("workers", 0, "goroutines per decode")
	concFlag := flag.Int("concurrency", 0, "frames decoded at once")
	seedFlag := flag.Uint("seed", 0, "noise seed")
	metricsFlag := flag.String("metrics-addr", "", "serve Prometheus metrics on this address")
	verbose := flag.Bool("v", false, "log every decode at debug level")
	cpuprofile := flag.String("cpuprofile", "", "write cpu profile to file (decode phase only)")
	flag.Parse()

	cfg := DefaultConfig()
	if *configFlag != "" {
		var err error
		if cfg, err = LoadConfig(*configFlag); err != nil {
			return err
		}
	}

	// Only flags the user actually set override the profile.
	var flagErr error
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "code":
			cfg.Code.Path = *codeFlag
		case "n":
			cfg.Code.VNodes = *nFlag
		case "dv":
			cfg.Code.VNodeDegree = *dvFlag
		case "dc":
			cfg.Code.CNodeDegree = *dcFlag
		case "ebn0":
			points, err := parsePoints(*ebn0Flag)
			if err != nil {
				flagErr = errors.Join(flagErr, err)
			}
			cfg.Channel.EbN0dB = points
		case "frames":
			cfg.Run.Frames = *framesFlag
		case "max-errors":
			cfg.Run.MaxFrameErrors = *maxErrFlag
		case "iters":
			cfg.Decoder.Iterations = *itersFlag
		case "workers":
			cfg.Decoder.Workers = *workersFlag
		case "concurrency":
			cfg.Run.Concurrency = *concFlag
		case "seed":
			cfg.Run.Seed = uint32(*seedFlag)
		case "metrics-addr":
			cfg.Run.MetricsAddr = *metricsFlag
		}
	})
	if flagErr != nil {
		return flagErr
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	ctx := ldpc.ContextWithLogger(context.Background(), logger)

	g, err := loadCode(ctx, &cfg.Code)
	if err != nil {
		return err
	}
	rate := 1 - float64(g.NumCNodes())/float64(g.NumVNodes())
	if rate <= 0 {
		return fmt.Errorf("code %dx%d has no positive design rate", g.NumVNodes(), g.NumCNodes())
	}
	logger.Info("code ready",
		"vnodes", g.NumVNodes(),
		"cnodes", g.NumCNodes(),
		"edges", g.NumEdges(),
		"rate", rate,
		"fingerprint", g.Fingerprint().String())

	reg := prometheus.NewRegistry()
	metrics, err := ldpc.NewMetrics(reg)
	if err != nil {
		return err
	}
	if cfg.Run.MetricsAddr != "" {
		srv := &http.Server{Addr: cfg.Run.MetricsAddr, Handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{})}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", "addr", cfg.Run.MetricsAddr, "error", err)
			}
		}()
		defer func() { _ = srv.Close() }()
	}

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			return fmt.Errorf("could not create CPU profile: %w", err)
		}
		defer func() { _ = f.Close() }()
		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("could not start CPU profile: %w", err)
		}
		defer pprof.StopCPUProfile()
	}

	opts := []ldpc.DecodeOption{
		ldpc.WithWorkers(cfg.Decoder.Workers),
		ldpc.WithLogger(logger),
		ldpc.WithMetrics(metrics),
	}

	results := make([]*pointResult, 0, len(cfg.Channel.EbN0dB))
	for i, ebn0 := range cfg.Channel.EbN0dB {
		res, err := runPoint(g, cfg, uint32(i), ebn0, Sigma(ebn0, rate), opts)
		if err != nil {
			return err
		}
		logger.Info("point done",
			"ebn0_db", ebn0,
			"frames", res.Frames,
			"frame_errors", res.FrameErrors,
			"elapsed", res.Elapsed.Round(time.Millisecond))
		results = append(results, res)
	}

	printResults(g, cfg, results)
	return nil
}

func loadCode(ctx context.Context, cc *CodeConfig) (*ldpc.TannerGraph, error) {
	switch {
	case cc.Path == "":
		code, err := construct.Regular(rand.New(rand.NewPCG(cc.Seed, cc.Seed^0x9E3779B97F4A7C15)),
			cc.VNodes, cc.VNodeDegree, cc.CNodeDegree)
		if err != nil {
			return nil, err
		}
		return ldpc.NewTannerGraph(code.VNodeAdj, code.CNodeAdj)
	case filepath.Ext(cc.Path) == ".ldpc":
		return ldpc.OpenGraph(cc.Path)
	default:
		return ldpc.LoadCodeDescription(ctx, cc.Path)
	}
}

// runPoint decodes up to cfg.Run.Frames frames at one operating point.
// Each of the concurrency goroutines owns a Decoder and pulls frame indices
// from a shared counter until the frame budget or error budget runs out.
func runPoint(g *ldpc.TannerGraph, cfg *Config, point uint32, ebn0, sigma float64, opts []ldpc.DecodeOption) (*pointResult, error) {
	var next, frames, frameErrs, bitErrs, iters atomic.Int64
	n := g.NumVNodes()
	conc := max(cfg.Run.Concurrency, 1)

	start := time.Now()
	var eg errgroup.Group
	for range conc {
		eg.Go(func() error {
			dec, err := ldpc.NewDecoder(g, opts...)
			if err != nil {
				return err
			}
			llrs := make([]float64, n)
			for {
				frame := next.Add(1) - 1
				if frame >= int64(cfg.Run.Frames) {
					return nil
				}
				if cfg.Run.MaxFrameErrors > 0 && frameErrs.Load() >= int64(cfg.Run.MaxFrameErrors) {
					return nil
				}

				fillLLRs(llrs, frameRNG(cfg.Run.Seed, point, frame), sigma)
				res, err := dec.Decode(llrs, cfg.Decoder.Iterations)
				if err != nil {
					return err
				}

				wrong := 0
				for _, b := range res.Bits {
					wrong += int(b)
				}
				frames.Add(1)
				iters.Add(int64(res.Iterations))
				if wrong > 0 {
					frameErrs.Add(1)
					bitErrs.Add(int64(wrong))
				}
			}
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return &pointResult{
		EbN0dB:      ebn0,
		Sigma:       sigma,
		Frames:      frames.Load(),
		FrameErrors: frameErrs.Load(),
		BitErrors:   bitErrs.Load(),
		Iterations:  iters.Load(),
		Elapsed:     time.Since(start),
	}, nil
}

// frameRNG derives an independent noise stream for one frame by hashing
// (point, frame) under the run seed.
func frameRNG(seed, point uint32, frame int64) *rand.Rand {
	var key [12]byte
	binary.LittleEndian.PutUint32(key[0:4], point)
	binary.LittleEndian.PutUint64(key[4:12], uint64(frame))
	h1, h2 := murmur3.Sum128WithSeed(key[:], seed)
	return rand.New(rand.NewPCG(h1, h2))
}

// fillLLRs writes channel LLRs for the all-zero codeword: BPSK maps bit 0
// to +1, the channel adds N(0, σ²), and llr = 2y/σ².
func fillLLRs(llrs []float64, rng *rand.Rand, sigma float64) {
	noise := distuv.Normal{Mu: 1, Sigma: sigma, Src: rng}
	scale := 2 / (sigma * sigma)
	for i := range llrs {
		llrs[i] = scale * noise.Rand()
	}
}

func parsePoints(s string) ([]float64, error) {
	var points []float64
	for _, tok := range strings.Split(s, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		p, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid -ebn0 point %q: %w", tok, err)
		}
		points = append(points, p)
	}
	return points, nil
}

func printResults(g *ldpc.TannerGraph, cfg *Config, results []*pointResult) {
	fmt.Printf("\n")
	fmt.Printf("Code: %d x %d, %d edges, %d iterations max, %d workers x %d frames in flight\n",
		g.NumVNodes(), g.NumCNodes(), g.NumEdges(), cfg.Decoder.Iterations, max(cfg.Decoder.Workers, 1), max(cfg.Run.Concurrency, 1))
	fmt.Printf("╔══════════╦═════════╦══════════╦══════════╦════════════╦════════════╦═══════════╦════════════╗\n")
	fmt.Printf("║ Eb/N0 dB ║  sigma  ║  frames  ║  errors  ║    FER     ║    BER     ║ avg iters ║  Mbit/s    ║\n")
	fmt.Printf("╠══════════╬═════════╬══════════╬══════════╬════════════╬════════════╬═══════════╬════════════╣\n")
	for _, r := range results {
		bits := float64(r.Frames) * float64(g.NumVNodes())
		ber := float64(r.BitErrors) / math.Max(bits, 1)
		avgIters := float64(r.Iterations) / float64(max(r.Frames, 1))
		mbps := bits / math.Max(r.Elapsed.Seconds(), 1e-9) / 1e6
		fmt.Printf("║ %8.2f ║ %7.4f ║ %8d ║ %8d ║ %10.3e ║ %10.3e ║ %9.2f ║ %10.2f ║\n",
			r.EbN0dB, r.Sigma, r.Frames, r.FrameErrors, r.fer(), ber, avgIters, mbps)
	}
	fmt.Printf("╚══════════╩═════════╩══════════╩══════════╩════════════╩════════════╩═══════════╩════════════╝\n")
}
