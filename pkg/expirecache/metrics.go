package expirecache

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts cache outcomes per namespace.
type Metrics struct {
	hits        *prometheus.CounterVec
	misses      *prometheus.CounterVec
	expirations *prometheus.CounterVec
	errors      *prometheus.CounterVec
}

// NewMetrics creates the cache counters and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		hits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crosspay_cache_hits_total",
				Help: "Reads that returned a live entry",
			},
			[]string{"namespace"},
		),
		misses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crosspay_cache_misses_total",
				Help: "Reads that found no usable entry",
			},
			[]string{"namespace"},
		),
		expirations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crosspay_cache_expirations_total",
				Help: "Entries evicted on read because their ttl had passed",
			},
			[]string{"namespace"},
		),
		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crosspay_cache_errors_total",
				Help: "Swallowed cache failures by kind (serialize, storage, deserialize)",
			},
			[]string{"namespace", "kind"},
		),
	}

	reg.MustRegister(m.hits, m.misses, m.expirations, m.errors)
	return m
}

func (m *Metrics) hit(ns string) {
	if m != nil {
		m.hits.WithLabelValues(ns).Inc()
	}
}

func (m *Metrics) miss(ns string) {
	if m != nil {
		m.misses.WithLabelValues(ns).Inc()
	}
}

func (m *Metrics) expired(ns string) {
	if m != nil {
		m.expirations.WithLabelValues(ns).Inc()
	}
}

func (m *Metrics) failed(ns string, kind error) {
	if m != nil {
		m.errors.WithLabelValues(ns, kindLabel(kind)).Inc()
	}
}
