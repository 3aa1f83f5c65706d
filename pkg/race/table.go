package race

import (
	"sync"
	"time"

	"github.com/ssargent/shredrace/pkg/shred"
)

// Table is the correlation table both receivers submit into. One mutex
// guards the pending map, so for a given identity exactly one submission
// can be the first and exactly one can complete the pair.
type Table struct {
	mu      sync.Mutex
	pending map[shred.ID]Arrival
	window  time.Duration
}

// NewTable returns an empty table. Entries older than window are eligible
// for eviction by Sweep.
func NewTable(window time.Duration) *Table {
	return &Table{
		pending: make(map[shred.ID]Arrival),
		window:  window,
	}
}

// Submit records an arrival and classifies it in one critical section.
//
// First sighting of an identity parks the arrival as pending. A second
// sighting from the other stream removes the pending entry and returns the
// completed Match. A second sighting from the same stream is a duplicate
// and leaves the pending entry untouched, preserving the first timestamp.
func (t *Table) Submit(a Arrival) (Outcome, *Match) {
	t.mu.Lock()
	defer t.mu.Unlock()

	prior, ok := t.pending[a.ID]
	if !ok {
		t.pending[a.ID] = a
		return Pending, nil
	}
	if prior.Stream == a.Stream {
		return Duplicate, nil
	}

	delete(t.pending, a.ID)
	return Matched, &Match{ID: a.ID, First: prior, Second: a}
}

// Sweep evicts every pending entry whose age at now meets or exceeds the
// window and returns them as misses. An evicted identity is gone; a later
// arrival of the same identity starts a fresh pending cycle.
func (t *Table) Sweep(now time.Time) []Miss {
	t.mu.Lock()
	defer t.mu.Unlock()

	var evicted []Miss
	for id, a := range t.pending {
		age := now.Sub(a.At)
		if age >= t.window {
			delete(t.pending, id)
			evicted = append(evicted, Miss{Arrival: a, Age: age})
		}
	}
	return evicted
}

// Len reports how many identities are currently pending.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

// Window reports the eviction window the table was built with.
func (t *Table) Window() time.Duration {
	return t.window
}
