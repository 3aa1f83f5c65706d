package race

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/ksuid"
	log "github.com/sirupsen/logrus"
)

// minSweepInterval floors the eviction cadence so tiny windows do not spin
// the sweeper.
const minSweepInterval = 50 * time.Millisecond

// StreamConfig names one UDP stream and the port it arrives on.
type StreamConfig struct {
	Name string
	Port int
}

// Config carries the runtime parameters of a race.
type Config struct {
	Streams       [2]StreamConfig
	Window        time.Duration
	StatsInterval time.Duration
}

// Race owns the full pipeline for one measurement session: two receivers,
// the shared correlation table, the sweeper that turns stale entries into
// misses, and the reporter everything funnels through.
type Race struct {
	cfg      Config
	session  ksuid.KSUID
	started  time.Time
	table    *Table
	metrics  *Metrics
	reporter *Reporter
	conns    []*net.UDPConn
}

// New assembles a race from its config. Metrics are registered with reg at
// construction time; nothing listens until Run.
func New(cfg Config, reg prometheus.Registerer) *Race {
	metrics := NewMetrics(reg)
	return &Race{
		cfg:      cfg,
		session:  ksuid.New(),
		started:  time.Now(),
		table:    NewTable(cfg.Window),
		metrics:  metrics,
		reporter: NewReporter(metrics, cfg.Streams[0].Name, cfg.Streams[1].Name),
	}
}

// Session identifies this measurement run in logs and status output.
func (r *Race) Session() string {
	return r.session.String()
}

// Bind opens both UDP sockets. It either binds every stream or none: any
// failure closes the sockets bound so far and reports the stream at fault.
// Bind is optional; Run binds on its own when needed.
func (r *Race) Bind() error {
	if r.conns != nil {
		return nil
	}

	conns := make([]*net.UDPConn, 0, len(r.cfg.Streams))
	for _, sc := range r.cfg.Streams {
		conn, err := Listen(sc.Name, sc.Port)
		if err != nil {
			for _, c := range conns {
				c.Close()
			}
			return err
		}
		conns = append(conns, conn)
	}
	r.conns = conns
	return nil
}

// LocalAddrs reports the bound socket addresses in stream order. It returns
// nil before Bind. Useful when a stream was configured with port 0.
func (r *Race) LocalAddrs() []*net.UDPAddr {
	addrs := make([]*net.UDPAddr, 0, len(r.conns))
	for _, conn := range r.conns {
		addrs = append(addrs, conn.LocalAddr().(*net.UDPAddr))
	}
	return addrs
}

// Run drives the race until ctx is cancelled or every receiver has failed.
// A single receiver failure is logged and the race continues on the
// surviving stream; when both are gone there is nothing left to measure and
// Run returns an error.
func (r *Race) Run(ctx context.Context) error {
	if err := r.Bind(); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"session": r.session.String(),
		"window":  r.cfg.Window,
		r.cfg.Streams[0].Name: r.cfg.Streams[0].Port,
		r.cfg.Streams[1].Name: r.cfg.Streams[1].Port,
	}).Info("race started")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	done := make(chan error, len(r.conns))
	for i, conn := range r.conns {
		receiver := NewReceiver(r.cfg.Streams[i].Name, conn, r.table, r.reporter)
		wg.Add(1)
		go func() {
			defer wg.Done()
			done <- receiver.Run(ctx)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		r.sweep(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		r.logStats(ctx)
	}()

	var failures int
	var err error
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case runErr := <-done:
			if runErr == nil {
				continue
			}
			failures++
			if failures == len(r.conns) {
				err = fmt.Errorf("all receivers terminated: %w", runErr)
				break loop
			}
		}
	}

	cancel()
	wg.Wait()
	r.conns = nil

	r.metrics.SetPending(r.table.Len())
	r.reporter.LogStats(r.table.Len())
	log.WithField("session", r.session.String()).Info("race stopped")
	return err
}

// Snapshot is the live view served by the status endpoint.
type Snapshot struct {
	Session string        `json:"session"`
	Uptime  time.Duration `json:"uptime_ns"`
	Window  time.Duration `json:"window_ns"`
	Pending int           `json:"pending"`
	Summary
}

// Snapshot captures the current state of the race.
func (r *Race) Snapshot() Snapshot {
	return Snapshot{
		Session: r.session.String(),
		Uptime:  time.Since(r.started),
		Window:  r.cfg.Window,
		Pending: r.table.Len(),
		Summary: r.reporter.Summary(),
	}
}

// sweep periodically evicts pending entries older than the window. Running
// at a quarter of the window keeps the eviction lag bounded without
// rescanning the table on every packet.
func (r *Race) sweep(ctx context.Context) {
	interval := r.cfg.Window / 4
	if interval < minSweepInterval {
		interval = minSweepInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			for _, miss := range r.table.Sweep(time.Now()) {
				r.reporter.ReportMiss(miss)
			}
			r.metrics.SetPending(r.table.Len())
		case <-ctx.Done():
			return
		}
	}
}

// logStats emits the aggregate line every StatsInterval. An interval of
// zero disables the ticker.
func (r *Race) logStats(ctx context.Context) {
	if r.cfg.StatsInterval <= 0 {
		return
	}

	ticker := time.NewTicker(r.cfg.StatsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.reporter.LogStats(r.table.Len())
		case <-ctx.Done():
			return
		}
	}
}
