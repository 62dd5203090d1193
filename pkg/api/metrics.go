package api

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the client's Prometheus collectors. A nil *Metrics records
// nothing.
type Metrics struct {
	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter
	requests    *prometheus.CounterVec
	retries     *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer, c *Client) *Metrics {
	if reg == nil {
		return nil
	}

	m := &Metrics{
		cacheHits: register(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bonfires",
			Subsystem: "api",
			Name:      "cache_hits_total",
			Help:      "GET requests answered from the response cache.",
		})),
		cacheMisses: register(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bonfires",
			Subsystem: "api",
			Name:      "cache_misses_total",
			Help:      "GET requests that had to go to the network.",
		})),
		requests: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bonfires",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Logical requests by method and outcome.",
		}, []string{"method", "outcome"})),
		retries: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bonfires",
			Subsystem: "api",
			Name:      "retries_total",
			Help:      "Retried attempts by reason.",
		}, []string{"reason"})),
	}

	register(reg, prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "bonfires",
		Subsystem: "api",
		Name:      "cache_entries",
		Help:      "Entries currently held by the response cache.",
	}, func() float64 { return float64(c.cache.Stats().Size) }))
	register(reg, prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "bonfires",
		Subsystem: "api",
		Name:      "inflight_requests",
		Help:      "GET requests currently in flight.",
	}, func() float64 { return float64(c.inflight.Len()) }))

	return m
}

// register returns the already registered collector when an identical one
// exists, so several clients can share a registry.
func register[C prometheus.Collector](reg prometheus.Registerer, collector C) C {
	if err := reg.Register(collector); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
	}
	return collector
}

func (m *Metrics) cacheHit() {
	if m != nil {
		m.cacheHits.Inc()
	}
}

func (m *Metrics) cacheMiss() {
	if m != nil {
		m.cacheMisses.Inc()
	}
}

func (m *Metrics) request(method, outcome string) {
	if m != nil {
		m.requests.WithLabelValues(method, outcome).Inc()
	}
}

func (m *Metrics) retry(reason string) {
	if m != nil {
		m.retries.WithLabelValues(reason).Inc()
	}
}
