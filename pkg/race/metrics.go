package race

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for one race. Instruments are
// created against an injected registerer so tests can use throwaway
// registries without tripping duplicate registration.
type Metrics struct {
	received   *prometheus.CounterVec
	bytes      *prometheus.CounterVec
	malformed  *prometheus.CounterVec
	duplicates *prometheus.CounterVec
	wins       *prometheus.CounterVec
	misses     *prometheus.CounterVec
	matches    prometheus.Counter
	lead       prometheus.Histogram
	pending    prometheus.Gauge
}

// NewMetrics registers the race instruments with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		received: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "shredrace_shreds_received_total",
			Help: "Datagrams received per stream.",
		}, []string{"stream"}),
		bytes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "shredrace_received_bytes_total",
			Help: "Payload bytes received per stream.",
		}, []string{"stream"}),
		malformed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "shredrace_malformed_total",
			Help: "Packets dropped because no shred identity could be parsed.",
		}, []string{"stream"}),
		duplicates: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "shredrace_duplicates_total",
			Help: "Arrivals discarded because the identity was already pending from the same stream.",
		}, []string{"stream"}),
		wins: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "shredrace_wins_total",
			Help: "Matches won per stream.",
		}, []string{"stream"}),
		misses: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "shredrace_misses_total",
			Help: "Pending entries evicted because the other stream never delivered.",
		}, []string{"stream"}),
		matches: factory.NewCounter(prometheus.CounterOpts{
			Name: "shredrace_matches_total",
			Help: "Identities seen on both streams.",
		}),
		lead: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "shredrace_lead_seconds",
			Help:    "Gap between the two arrivals of a matched shred.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 16),
		}),
		pending: factory.NewGauge(prometheus.GaugeOpts{
			Name: "shredrace_pending",
			Help: "Identities currently waiting for their counterpart.",
		}),
	}
}

// SetPending publishes the current correlation table size.
func (m *Metrics) SetPending(n int) {
	m.pending.Set(float64(n))
}
