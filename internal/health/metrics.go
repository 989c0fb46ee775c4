package health

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the operational counters: batch drops under backpressure
// (§4.2), dedup fail-opens on cache failure (§4.4), validation drops on
// subgraph timeout (§4.5), and publish retries/drops on broker failure
// (§4.6). The gas-premium histogram is a supplemental observability
// signal — informational only, it never gates detection.
type Metrics struct {
	BatchesSealed    prometheus.Counter
	BatchesDropped   prometheus.Counter
	DedupFailOpen    prometheus.Counter
	DedupSuppressed  prometheus.Counter
	ValidationDrops  prometheus.Counter
	ValidationPasses prometheus.Counter
	PublishRetries   prometheus.Counter
	PublishDrops     prometheus.Counter
	GasPremiumWei    prometheus.Histogram
}

// NewMetrics registers all counters against reg. Passing a fresh
// prometheus.NewRegistry() in tests avoids collisions with the global
// default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		BatchesSealed: factory.NewCounter(prometheus.CounterOpts{
			Name: "sandwich_batches_sealed_total",
			Help: "Batches sealed by the batcher.",
		}),
		BatchesDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "sandwich_batches_dropped_total",
			Help: "Batches dropped because the detector was still busy (backpressure).",
		}),
		DedupFailOpen: factory.NewCounter(prometheus.CounterOpts{
			Name: "sandwich_dedup_fail_open_total",
			Help: "Findings allowed through because the dedup cache was unreachable.",
		}),
		DedupSuppressed: factory.NewCounter(prometheus.CounterOpts{
			Name: "sandwich_dedup_suppressed_total",
			Help: "Findings suppressed as repeats within the dedup TTL window.",
		}),
		ValidationDrops: factory.NewCounter(prometheus.CounterOpts{
			Name: "sandwich_validation_dropped_total",
			Help: "Findings dropped by the validator (low history or subgraph failure).",
		}),
		ValidationPasses: factory.NewCounter(prometheus.CounterOpts{
			Name: "sandwich_validation_confirmed_total",
			Help: "Findings confirmed by the validator.",
		}),
		PublishRetries: factory.NewCounter(prometheus.CounterOpts{
			Name: "sandwich_publish_retries_total",
			Help: "Publish attempts retried after a transient broker error.",
		}),
		PublishDrops: factory.NewCounter(prometheus.CounterOpts{
			Name: "sandwich_publish_dropped_total",
			Help: "Alerts dropped after exhausting publish retries.",
		}),
		GasPremiumWei: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "sandwich_gas_premium_wei",
			Help:    "Gas-price delta between the frontrun and victim transaction of a confirmed sandwich.",
			Buckets: prometheus.ExponentialBuckets(1e9, 4, 10),
		}),
	}
}
