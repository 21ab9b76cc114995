package http

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ask outcome labels for the request counter.
const (
	outcomeAnswered = "answered"
	outcomeBlocked  = "blocked"
	outcomeNoMatch  = "no_match"
	outcomeInvalid  = "invalid"
	outcomeError    = "error"
)

// Metrics holds the Prometheus instruments for the ask endpoint.
type Metrics struct {
	askTotal    *prometheus.CounterVec
	askDuration prometheus.Histogram
}

// NewMetrics registers the ask metrics with the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		askTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ragd_ask_requests_total",
			Help: "Total /api/ask requests by outcome (answered, blocked, no_match, invalid, error).",
		}, []string{"outcome"}),
		askDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ragd_ask_duration_seconds",
			Help:    "End-to-end /api/ask latency in seconds, including retrieval and completion.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
	}
}

// observeAsk records one completed ask request.
func (m *Metrics) observeAsk(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.askTotal.WithLabelValues(outcome).Inc()
	m.askDuration.Observe(seconds)
}
