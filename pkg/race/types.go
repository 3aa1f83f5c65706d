package race

import (
	"time"

	"github.com/ssargent/shredrace/pkg/shred"
)

// Outcome classifies what a submitted arrival did to the correlation table.
type Outcome int

const (
	// Pending means the arrival is the first sighting of its identity and
	// now waits for the other stream.
	Pending Outcome = iota
	// Matched means the arrival completed a pair with the other stream.
	Matched
	// Duplicate means the identity was already pending from the same
	// stream; the arrival was discarded.
	Duplicate
)

func (o Outcome) String() string {
	switch o {
	case Pending:
		return "pending"
	case Matched:
		return "matched"
	case Duplicate:
		return "duplicate"
	default:
		return "unknown"
	}
}

// Arrival is one shred observed on one stream.
type Arrival struct {
	Stream string
	ID     shred.ID
	At     time.Time
	Size   int
}

// Match pairs the two arrivals of one identity. First is the arrival that
// was pending, Second the one that completed the pair. Under heavy
// interleaving the pending arrival is not always the earlier one, so the
// winner is decided by timestamp, not by submission order.
type Match struct {
	ID     shred.ID
	First  Arrival
	Second Arrival
}

// Winner returns the arrival with the earlier timestamp. Ties go to First.
func (m Match) Winner() Arrival {
	if m.Second.At.Before(m.First.At) {
		return m.Second
	}
	return m.First
}

// Loser returns the arrival with the later timestamp.
func (m Match) Loser() Arrival {
	if m.Second.At.Before(m.First.At) {
		return m.First
	}
	return m.Second
}

// Lead is the absolute gap between the two arrival timestamps.
func (m Match) Lead() time.Duration {
	d := m.Second.At.Sub(m.First.At)
	if d < 0 {
		return -d
	}
	return d
}

// Miss is an arrival whose counterpart never showed up inside the window.
type Miss struct {
	Arrival
	Age time.Duration
}

// Sink consumes the events a receiver or sweep produces. The Reporter is
// the production implementation; tests substitute their own.
type Sink interface {
	ReportReceived(stream string, size int)
	ReportMalformed(stream string, size int, err error)
	ReportDuplicate(a Arrival)
	ReportMatch(m Match)
	ReportMiss(miss Miss)
}
