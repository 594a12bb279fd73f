//go:build !linux

package ldpc

// prefaultRegion does nothing here; graph file pages fault in as WriteGraph
// stores the regions.
func prefaultRegion(data []byte) {}
