// Package ldpc implements belief-propagation (sum-product) decoding of
// binary LDPC codes over a Tanner graph.
//
// A code is described once, as a bipartite graph of variable nodes (code
// bits) and check nodes (parity constraints), and then decodes any number of
// received words given as per-bit log-likelihood ratios. Positive LLRs
// favour bit value 0.
//
// # Basic Usage
//
// Loading a code and decoding:
//
//	g, err := ldpc.LoadCodeDescription(ctx, "code.txt")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	dec, err := ldpc.NewDecoder(g, ldpc.WithWorkers(4))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	res, err := dec.Decode(llrs, 50)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(res.Bits, res.Converged, res.Iterations)
//
// Compiling a code for fast reloads:
//
//	if err := ldpc.WriteGraph("code.ldpc", g); err != nil {
//	    log.Fatal(err)
//	}
//	g, err = ldpc.OpenGraph("code.ldpc")
//
// # Package Structure
//
// The implementation is organized as follows:
//
//   - Graph: graph.go (TannerGraph, NewTannerGraph, Validate, Fingerprint)
//   - Text format: parse.go (ParseCodeDescription, LoadCodeDescription, ParseError)
//   - Matrix form and parity: parity.go (ParityCheckMatrix, FromParityCheck, Syndrome)
//   - Decoding: decoder.go (Decoder, Decode), decoder_parallel.go (phase barriers), llr.go (clipping)
//   - Configuration: decoder_options.go (DecodeOption, With* functions)
//   - Observability: metrics.go (Prometheus collectors)
//   - Serialization: header.go (header, footer), graph_writer.go, graph_file.go
//   - Code generation: internal/construct/ (Hamming(7,4), random regular codes)
//   - Platform: fallocate_*.go, fadvise_*.go, prefault_*.go (OS-specific file hints)
package ldpc
