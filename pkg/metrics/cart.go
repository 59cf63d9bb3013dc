package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Cart operation labels.
const (
	OpAdd         = "add"
	OpSetQuantity = "set_quantity"
	OpRemove      = "remove"
	OpClear       = "clear"
	OpCheckout    = "checkout"
)

// CartMetrics tracks cart commands and live sessions.
type CartMetrics struct {
	operations *prometheus.CounterVec
	sessions   prometheus.Gauge
	ended      *prometheus.CounterVec
}

// NewCartMetrics registers the cart metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_cart_operations_total",
		Help: "Cart commands applied, by operation.",
	}, []string{"op"})
	sessions := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "storefront_cart_active_sessions",
		Help: "Cart sessions currently held in memory.",
	})
	ended := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_cart_sessions_ended_total",
		Help: "Cart sessions discarded, by reason.",
	}, []string{"reason"})
	reg.MustRegister(operations, sessions, ended)
	return &CartMetrics{
		operations: operations,
		sessions:   sessions,
		ended:      ended,
	}
}

// IncOperation counts one applied cart command.
func (m *CartMetrics) IncOperation(op string) {
	if m == nil || m.operations == nil {
		return
	}
	m.operations.WithLabelValues(normalizeLabel(op)).Inc()
}

// SetActiveSessions reports the live session count.
func (m *CartMetrics) SetActiveSessions(n int) {
	if m == nil || m.sessions == nil {
		return
	}
	m.sessions.Set(float64(n))
}

// IncSessionEnded counts a dropped session. Reason is "ended" or "idle".
func (m *CartMetrics) IncSessionEnded(reason string) {
	if m == nil || m.ended == nil {
		return
	}
	m.ended.WithLabelValues(normalizeLabel(reason)).Inc()
}
