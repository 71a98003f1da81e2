package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Cart mutation outcomes.
const (
	OutcomeSuccess      = "success"
	OutcomeUnauthorized = "unauthorized"
	OutcomeInvalid      = "invalid"
	OutcomeDuplicate    = "duplicate"
	OutcomePending      = "pending"
	OutcomeRejected     = "rejected"
	OutcomeFailed       = "failed"
)

// CartMetrics records cart engine activity on the client side.
type CartMetrics struct {
	mutations *prometheus.CounterVec
	dropped   prometheus.Counter
	duration  prometheus.Histogram
}

// NewCartMetrics registers the cart metrics on the provided registerer.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_cart_mutations_total",
		Help: "Cart quantity updates by outcome.",
	}, []string{"outcome"})
	dropped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "storefront_cart_dropped_records_total",
		Help: "Cart rows dropped during reconciliation because the product was missing from the catalog.",
	})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "storefront_cart_update_duration_seconds",
		Help:    "Round trip latency of authoritative cart updates.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(mutations, dropped, duration)
	return &CartMetrics{
		mutations: mutations,
		dropped:   dropped,
		duration:  duration,
	}
}

// IncMutation counts a SetQuantity call by outcome.
func (c *CartMetrics) IncMutation(outcome string) {
	if c == nil || c.mutations == nil {
		return
	}
	c.mutations.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// AddDropped counts reconciliation drops.
func (c *CartMetrics) AddDropped(n int) {
	if c == nil || c.dropped == nil || n <= 0 {
		return
	}
	c.dropped.Add(float64(n))
}

// ObserveUpdate records the backend round trip duration.
func (c *CartMetrics) ObserveUpdate(d time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.Observe(d.Seconds())
}
