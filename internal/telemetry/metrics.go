package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the gateway.
type Metrics struct {
	CallsTotal  *prometheus.CounterVec
	CallLatency *prometheus.HistogramVec
	TokensTotal *prometheus.CounterVec
}

// NewMetrics creates and registers all gateway metrics against the
// given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_calls_total",
				Help: "Total number of gateway calls",
			},
			[]string{"task", "provider", "status"}, // status: success, failure
		),
		CallLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gateway_call_latency_ms",
				Help:    "Gateway call latency in milliseconds",
				Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
			},
			[]string{"provider"},
		),
		TokensTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_tokens_total",
				Help: "Total tokens consumed through the gateway",
			},
			[]string{"org"},
		),
	}
}
