package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CartMetrics tracks cart mutations, live sessions and placed orders.
type CartMetrics struct {
	mutations    *prometheus.CounterVec
	sessions     prometheus.Gauge
	evictions    prometheus.Counter
	ordersPlaced *prometheus.CounterVec
	orderTotal   *prometheus.HistogramVec
}

// NewCartMetrics registers the cart metrics on reg. A nil registerer yields a no-op recorder.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	m := &CartMetrics{
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_mutations_total",
			Help:      "Cart ledger mutations by operation.",
		}, []string{"op"}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cart_sessions",
			Help:      "Carts currently held in memory.",
		}),
		evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_sessions_evicted_total",
			Help:      "Idle carts evicted from memory.",
		}),
		ordersPlaced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_placed_total",
			Help:      "Orders placed by fulfillment type.",
		}, []string{"fulfillment"}),
		orderTotal: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "order_total",
			Help:      "Grand total of placed orders in major currency units.",
			Buckets:   []float64{5, 10, 15, 25, 40, 60, 100, 200},
		}, []string{"fulfillment"}),
	}
	reg.MustRegister(m.mutations, m.sessions, m.evictions, m.ordersPlaced, m.orderTotal)
	return m
}

// IncMutation counts a ledger mutation such as "add" or "clear".
func (m *CartMetrics) IncMutation(op string) {
	if m == nil || m.mutations == nil {
		return
	}
	m.mutations.WithLabelValues(normalizeLabel(op)).Inc()
}

// SetSessions reports the number of carts in memory.
func (m *CartMetrics) SetSessions(n int) {
	if m == nil || m.sessions == nil {
		return
	}
	m.sessions.Set(float64(n))
}

// AddEvictions counts idle carts dropped by the sweeper.
func (m *CartMetrics) AddEvictions(n int) {
	if m == nil || m.evictions == nil || n <= 0 {
		return
	}
	m.evictions.Add(float64(n))
}

// ObserveOrder records a placed order and its grand total.
func (m *CartMetrics) ObserveOrder(fulfillment string, total float64) {
	if m == nil || m.ordersPlaced == nil {
		return
	}
	label := normalizeLabel(fulfillment)
	m.ordersPlaced.WithLabelValues(label).Inc()
	m.orderTotal.WithLabelValues(label).Observe(total)
}
