package batch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics of a runner.
type Metrics struct {
	ItemsTotal   *prometheus.CounterVec
	ItemDuration prometheus.Histogram
	InFlight     prometheus.Gauge
}

// NewMetrics creates the runner metrics and registers them with reg. A nil
// reg creates unregistered metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ItemsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "curator_batch_items_total",
				Help: "Total number of batch items by final status",
			},
			[]string{"status"},
		),
		ItemDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "curator_batch_item_duration_seconds",
				Help:    "Duration of batch items in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		InFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "curator_batch_items_in_flight",
				Help: "Number of batch items currently being processed",
			},
		),
	}
}
