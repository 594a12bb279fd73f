package ldpc

import (
	"sync"

	intbits "github.com/tamirms/ldpc/internal/bits"
)

// span is a half-open node range [lo, hi) owned by one worker for a phase.
type span struct {
	lo, hi int
}

// partition splits n nodes into at most workers contiguous spans of
// near-equal size. Empty spans are dropped, so small graphs with many
// workers still get one goroutine per non-empty range.
func partition(n, workers int) []span {
	workers = max(min(workers, n), 1)
	spans := make([]span, 0, workers)
	for i := 0; i < workers; i++ {
		lo, hi := intbits.Span(n, workers, i)
		if hi > lo {
			spans = append(spans, span{lo: lo, hi: hi})
		}
	}
	return spans
}

// runPhase applies update to every span and returns once all of them are
// done, which is the barrier between phases.
//
// Within a phase each node writes only its own rows (its outgoing messages,
// its posterior and its bit) and reads only the other phase's array, so
// spans never write the same slot and need no locking. With a single span
// the update runs on the calling goroutine.
func (d *Decoder) runPhase(spans []span, update func(lo, hi int)) {
	switch len(spans) {
	case 0:
		return
	case 1:
		update(spans[0].lo, spans[0].hi)
		return
	}

	var wg sync.WaitGroup
	for _, s := range spans[1:] {
		wg.Go(func() { update(s.lo, s.hi) })
	}
	update(spans[0].lo, spans[0].hi)
	wg.Wait()
}
