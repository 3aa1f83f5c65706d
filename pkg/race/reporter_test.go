package race

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	logrustest "github.com/sirupsen/logrus/hooks/test"

	"github.com/ssargent/shredrace/pkg/shred"
)

func newTestReporter() *Reporter {
	return NewReporter(NewMetrics(prometheus.NewRegistry()), "uk", "de")
}

func TestReporterMatch(t *testing.T) {
	hook := logrustest.NewGlobal()
	defer hook.Reset()

	reporter := newTestReporter()
	t0 := time.Now()
	reporter.ReportMatch(Match{
		ID:     shred.ID{Slot: 100, Index: 3},
		First:  arrival("uk", 100, 3, t0),
		Second: arrival("de", 100, 3, t0.Add(7*time.Millisecond)),
	})

	entry := hook.LastEntry()
	if entry == nil {
		t.Fatal("no log entry emitted")
	}
	if entry.Level != log.InfoLevel || entry.Message != "match" {
		t.Errorf("got %v %q, want info match", entry.Level, entry.Message)
	}
	if entry.Data["winner"] != "uk" || entry.Data["loser"] != "de" {
		t.Errorf("winner=%v loser=%v, want uk/de", entry.Data["winner"], entry.Data["loser"])
	}
	if entry.Data["delta"] != 7*time.Millisecond {
		t.Errorf("delta = %v, want 7ms", entry.Data["delta"])
	}
	if entry.Data["slot"] != uint64(100) || entry.Data["index"] != uint32(3) {
		t.Errorf("identity logged as %v/%v, want 100/3", entry.Data["slot"], entry.Data["index"])
	}

	summary := reporter.Summary()
	if summary.Matches != 1 {
		t.Errorf("summary has %d matches, want 1", summary.Matches)
	}
	if summary.AvgLead != 7*time.Millisecond {
		t.Errorf("avg lead = %v, want 7ms", summary.AvgLead)
	}
	if summary.Streams[0].Wins != 1 || summary.Streams[1].Wins != 0 {
		t.Errorf("wins = %d/%d, want 1/0", summary.Streams[0].Wins, summary.Streams[1].Wins)
	}
}

// The pending entry is not automatically the winner: under interleaving the
// second submission can carry the earlier timestamp.
func TestReporterWinnerByTimestamp(t *testing.T) {
	hook := logrustest.NewGlobal()
	defer hook.Reset()

	reporter := newTestReporter()
	t0 := time.Now()
	reporter.ReportMatch(Match{
		ID:     shred.ID{Slot: 100, Index: 3},
		First:  arrival("de", 100, 3, t0.Add(5*time.Millisecond)),
		Second: arrival("uk", 100, 3, t0),
	})

	entry := hook.LastEntry()
	if entry == nil {
		t.Fatal("no log entry emitted")
	}
	if entry.Data["winner"] != "uk" {
		t.Errorf("winner = %v, want uk despite later submission", entry.Data["winner"])
	}
	if entry.Data["delta"] != 5*time.Millisecond {
		t.Errorf("delta = %v, want 5ms", entry.Data["delta"])
	}
}

func TestReporterTieGoesToFirst(t *testing.T) {
	hook := logrustest.NewGlobal()
	defer hook.Reset()

	reporter := newTestReporter()
	t0 := time.Now()
	reporter.ReportMatch(Match{
		ID:     shred.ID{Slot: 1, Index: 1},
		First:  arrival("de", 1, 1, t0),
		Second: arrival("uk", 1, 1, t0),
	})

	entry := hook.LastEntry()
	if entry.Data["winner"] != "de" {
		t.Errorf("winner = %v, want the pending side on a tie", entry.Data["winner"])
	}
	if entry.Data["delta"] != time.Duration(0) {
		t.Errorf("delta = %v, want 0", entry.Data["delta"])
	}
}

func TestReporterMiss(t *testing.T) {
	hook := logrustest.NewGlobal()
	defer hook.Reset()

	reporter := newTestReporter()
	reporter.ReportMiss(Miss{
		Arrival: arrival("de", 200, 1, time.Now().Add(-500*time.Millisecond)),
		Age:     500 * time.Millisecond,
	})

	entry := hook.LastEntry()
	if entry == nil {
		t.Fatal("no log entry emitted")
	}
	if entry.Level != log.InfoLevel || entry.Message != "miss" {
		t.Errorf("got %v %q, want info miss", entry.Level, entry.Message)
	}
	if entry.Data["stream"] != "de" {
		t.Errorf("stream = %v, want de", entry.Data["stream"])
	}
	if entry.Data["age"] != 500*time.Millisecond {
		t.Errorf("age = %v, want 500ms", entry.Data["age"])
	}

	summary := reporter.Summary()
	if summary.Streams[1].Misses != 1 {
		t.Errorf("de misses = %d, want 1", summary.Streams[1].Misses)
	}
	if summary.Matches != 0 {
		t.Errorf("miss counted as a match")
	}
}

func TestReporterDuplicateAndMalformedWarn(t *testing.T) {
	hook := logrustest.NewGlobal()
	defer hook.Reset()

	reporter := newTestReporter()
	reporter.ReportDuplicate(arrival("uk", 100, 3, time.Now()))

	entry := hook.LastEntry()
	if entry == nil || entry.Level != log.WarnLevel || entry.Message != "duplicate shred" {
		t.Errorf("duplicate did not produce a warning entry: %+v", entry)
	}

	reporter.ReportMalformed("de", 12, shred.ErrMalformed)
	entry = hook.LastEntry()
	if entry == nil || entry.Level != log.WarnLevel || entry.Message != "malformed packet" {
		t.Errorf("malformed did not produce a warning entry: %+v", entry)
	}
	if entry.Data["size"] != 12 {
		t.Errorf("size = %v, want 12", entry.Data["size"])
	}

	summary := reporter.Summary()
	if summary.Streams[0].Duplicates != 1 {
		t.Errorf("uk duplicates = %d, want 1", summary.Streams[0].Duplicates)
	}
	if summary.Streams[1].Malformed != 1 {
		t.Errorf("de malformed = %d, want 1", summary.Streams[1].Malformed)
	}
}

func TestReporterSummaryAverages(t *testing.T) {
	reporter := newTestReporter()
	t0 := time.Now()

	reporter.ReportMatch(Match{
		ID:     shred.ID{Slot: 1, Index: 0},
		First:  arrival("uk", 1, 0, t0),
		Second: arrival("de", 1, 0, t0.Add(4*time.Millisecond)),
	})
	reporter.ReportMatch(Match{
		ID:     shred.ID{Slot: 1, Index: 1},
		First:  arrival("de", 1, 1, t0),
		Second: arrival("uk", 1, 1, t0.Add(6*time.Millisecond)),
	})

	summary := reporter.Summary()
	if summary.Matches != 2 {
		t.Fatalf("matches = %d, want 2", summary.Matches)
	}
	if summary.AvgLead != 5*time.Millisecond {
		t.Errorf("avg lead = %v, want 5ms", summary.AvgLead)
	}
	if summary.Streams[0].Wins != 1 || summary.Streams[1].Wins != 1 {
		t.Errorf("wins = %d/%d, want 1/1", summary.Streams[0].Wins, summary.Streams[1].Wins)
	}
}

func TestReporterIgnoresUnknownStream(t *testing.T) {
	reporter := newTestReporter()
	reporter.ReportReceived("fr", 100)

	summary := reporter.Summary()
	if len(summary.Streams) != 2 {
		t.Errorf("unknown stream grew the summary to %d entries", len(summary.Streams))
	}
}

func TestReporterLogStats(t *testing.T) {
	hook := logrustest.NewGlobal()
	defer hook.Reset()

	reporter := newTestReporter()
	reporter.ReportReceived("uk", 1228)
	reporter.LogStats(3)

	entry := hook.LastEntry()
	if entry == nil || entry.Message != "stats" {
		t.Fatalf("no stats entry: %+v", entry)
	}
	if entry.Data["pending"] != 3 {
		t.Errorf("pending = %v, want 3", entry.Data["pending"])
	}
	if entry.Data["uk_recv"] != uint64(1) {
		t.Errorf("uk_recv = %v, want 1", entry.Data["uk_recv"])
	}
}
