package ldpc

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome label values for ldpc_decodes_total.
const (
	OutcomeConverged = "converged"
	OutcomeExhausted = "exhausted"
)

// Metrics holds the Prometheus collectors updated by decoders configured
// with WithMetrics. One Metrics may be shared by many decoders.
type Metrics struct {
	decodes     *prometheus.CounterVec // decodes by outcome
	iterations  prometheus.Histogram   // iterations used per decode
	unsatisfied prometheus.Histogram   // unsatisfied checks left by exhausted decodes
}

// NewMetrics creates the decoder collectors and registers them with reg.
// A collector that is already registered (for example by a second
// NewMetrics on the same registry) is reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		decodes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ldpc_decodes_total",
			Help: "Number of LDPC decodes by outcome.",
		}, []string{"outcome"}),
		iterations: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ldpc_decode_iterations",
			Help:    "Belief-propagation iterations used per decode.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
		unsatisfied: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ldpc_decode_unsatisfied_checks",
			Help:    "Parity checks still unsatisfied when a decode exhausts its budget.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
	}

	var err error
	if m.decodes, err = register(reg, m.decodes); err != nil {
		return nil, err
	}
	if m.iterations, err = register(reg, m.iterations); err != nil {
		return nil, err
	}
	if m.unsatisfied, err = register(reg, m.unsatisfied); err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (m *Metrics) observe(res *Result) {
	m.iterations.Observe(float64(res.Iterations))
	if res.Converged {
		m.decodes.WithLabelValues(OutcomeConverged).Inc()
		return
	}
	m.decodes.WithLabelValues(OutcomeExhausted).Inc()
	m.unsatisfied.Observe(float64(res.UnsatisfiedChecks))
}
