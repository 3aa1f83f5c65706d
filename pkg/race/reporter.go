package race

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// StreamStats aggregates everything observed on one stream.
type StreamStats struct {
	Name       string `json:"name"`
	Received   uint64 `json:"received"`
	Bytes      uint64 `json:"bytes"`
	Wins       uint64 `json:"wins"`
	Misses     uint64 `json:"misses"`
	Duplicates uint64 `json:"duplicates"`
	Malformed  uint64 `json:"malformed"`
}

// Summary is the aggregate view of a race so far.
type Summary struct {
	Matches uint64        `json:"matches"`
	AvgLead time.Duration `json:"avg_lead_ns"`
	Streams []StreamStats `json:"streams"`
}

// Reporter is the production Sink. Every event becomes a structured log
// line, a metrics update and an increment on the in-memory aggregates that
// feed the periodic stats line and the status endpoint.
type Reporter struct {
	metrics *Metrics

	mu        sync.Mutex
	matches   uint64
	totalLead time.Duration
	order     []string
	streams   map[string]*StreamStats
}

// NewReporter builds a reporter for the named streams. Stream order is
// preserved in summaries.
func NewReporter(metrics *Metrics, streams ...string) *Reporter {
	r := &Reporter{
		metrics: metrics,
		order:   streams,
		streams: make(map[string]*StreamStats, len(streams)),
	}
	for _, name := range streams {
		r.streams[name] = &StreamStats{Name: name}
	}
	return r
}

// ReportReceived counts one datagram on the hot path. No log line; at shred
// rates that would drown everything else.
func (r *Reporter) ReportReceived(stream string, size int) {
	r.metrics.received.WithLabelValues(stream).Inc()
	r.metrics.bytes.WithLabelValues(stream).Add(float64(size))

	r.mu.Lock()
	if s := r.streams[stream]; s != nil {
		s.Received++
		s.Bytes += uint64(size)
	}
	r.mu.Unlock()
}

// ReportMalformed counts and logs a packet that carried no parseable
// identity.
func (r *Reporter) ReportMalformed(stream string, size int, err error) {
	r.metrics.malformed.WithLabelValues(stream).Inc()

	r.mu.Lock()
	if s := r.streams[stream]; s != nil {
		s.Malformed++
	}
	r.mu.Unlock()

	log.WithError(err).WithFields(log.Fields{
		"stream": stream,
		"size":   size,
	}).Warn("malformed packet")
}

// ReportDuplicate counts and logs an arrival discarded as a same-stream
// repeat.
func (r *Reporter) ReportDuplicate(a Arrival) {
	r.metrics.duplicates.WithLabelValues(a.Stream).Inc()

	r.mu.Lock()
	if s := r.streams[a.Stream]; s != nil {
		s.Duplicates++
	}
	r.mu.Unlock()

	log.WithFields(log.Fields{
		"stream": a.Stream,
		"slot":   a.ID.Slot,
		"index":  a.ID.Index,
	}).Warn("duplicate shred")
}

// ReportMatch resolves the winner of a completed pair and logs the result.
func (r *Reporter) ReportMatch(m Match) {
	winner, loser := m.Winner(), m.Loser()
	lead := m.Lead()

	r.metrics.matches.Inc()
	r.metrics.wins.WithLabelValues(winner.Stream).Inc()
	r.metrics.lead.Observe(lead.Seconds())

	r.mu.Lock()
	r.matches++
	r.totalLead += lead
	if s := r.streams[winner.Stream]; s != nil {
		s.Wins++
	}
	r.mu.Unlock()

	log.WithFields(log.Fields{
		"slot":   m.ID.Slot,
		"index":  m.ID.Index,
		"winner": winner.Stream,
		"loser":  loser.Stream,
		"delta":  lead,
	}).Info("match")
}

// ReportMiss logs an eviction: one stream delivered, the other stayed
// silent for the whole window.
func (r *Reporter) ReportMiss(miss Miss) {
	r.metrics.misses.WithLabelValues(miss.Stream).Inc()

	r.mu.Lock()
	if s := r.streams[miss.Stream]; s != nil {
		s.Misses++
	}
	r.mu.Unlock()

	log.WithFields(log.Fields{
		"slot":   miss.ID.Slot,
		"index":  miss.ID.Index,
		"stream": miss.Stream,
		"age":    miss.Age,
	}).Info("miss")
}

// Summary returns a copy of the aggregates.
func (r *Reporter) Summary() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := Summary{
		Matches: r.matches,
		Streams: make([]StreamStats, 0, len(r.order)),
	}
	if r.matches > 0 {
		s.AvgLead = r.totalLead / time.Duration(r.matches)
	}
	for _, name := range r.order {
		s.Streams = append(s.Streams, *r.streams[name])
	}
	return s
}

// LogStats emits the periodic one-line overview of the race.
func (r *Reporter) LogStats(pending int) {
	s := r.Summary()

	fields := log.Fields{
		"matches":  s.Matches,
		"avg_lead": s.AvgLead,
		"pending":  pending,
	}
	for _, st := range s.Streams {
		fields[st.Name+"_recv"] = st.Received
		fields[st.Name+"_wins"] = st.Wins
		fields[st.Name+"_miss"] = st.Misses
		fields[st.Name+"_dup"] = st.Duplicates
		fields[st.Name+"_malformed"] = st.Malformed
	}
	log.WithFields(fields).Info("stats")
}
