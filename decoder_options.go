package ldpc

import (
	"context"
	"log/slog"

	"github.com/tamirms/ldpc/internal/ctxlog"
)

// DecodeOption is a functional option for configuring a Decoder.
type DecodeOption func(*decodeConfig)

type decodeConfig struct {
	workers int
	logger  *slog.Logger
	metrics *Metrics
}

func defaultDecodeConfig() *decodeConfig {
	return &decodeConfig{
		workers: 1, // Default to a sequential sweep; use WithWorkers(n) to parallelize
		logger:  ctxlog.Discard(),
	}
}

// WithWorkers sets the number of goroutines that share each phase.
// Values below 1 select the sequential sweep. The worker count is capped at
// the number of nodes of each type. Results do not depend on it.
func WithWorkers(n int) DecodeOption {
	return func(c *decodeConfig) {
		c.workers = max(n, 1)
	}
}

// WithLogger sets the logger that receives one Debug record per decode.
// A nil logger discards.
func WithLogger(l *slog.Logger) DecodeOption {
	return func(c *decodeConfig) {
		if l == nil {
			l = ctxlog.Discard()
		}
		c.logger = l
	}
}

// WithMetrics records every decode outcome in m.
func WithMetrics(m *Metrics) DecodeOption {
	return func(c *decodeConfig) {
		c.metrics = m
	}
}

// ContextWithLogger attaches a logger to ctx for the context-taking
// functions of this package, such as LoadCodeDescription.
func ContextWithLogger(ctx context.Context, l *slog.Logger) context.Context {
	return ctxlog.WithLogger(ctx, l)
}
