package race

import (
	"context"
	"fmt"
	"net"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ssargent/shredrace/pkg/shred"
)

// recvBufSize comfortably holds the largest shred Solana puts on the wire
// (packets top out at 1228 bytes).
const recvBufSize = 2048

// Listen binds a UDP socket for one stream. The stream name only decorates
// the error so a failed bind names the stream that caused it.
func Listen(stream string, port int) (*net.UDPConn, error) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: port})
	if err != nil {
		return nil, fmt.Errorf("stream %s: bind udp port %d: %w", stream, port, err)
	}
	return conn, nil
}

// Receiver drains one UDP socket and submits every parsed arrival into the
// shared table. Each stream runs its own Receiver goroutine; the table and
// sink are shared between them.
type Receiver struct {
	stream string
	conn   *net.UDPConn
	table  *Table
	sink   Sink
}

// NewReceiver wires a bound socket to the shared table and sink.
func NewReceiver(stream string, conn *net.UDPConn, table *Table, sink Sink) *Receiver {
	return &Receiver{
		stream: stream,
		conn:   conn,
		table:  table,
		sink:   sink,
	}
}

// Run reads datagrams until ctx is cancelled or the socket fails. A
// malformed packet is counted, logged and skipped; the loop only ends on
// socket errors. Cancellation closes the socket to unblock the read, and
// Run returns nil in that case.
func (r *Receiver) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		r.conn.Close()
	}()

	log.WithFields(log.Fields{
		"stream": r.stream,
		"addr":   r.conn.LocalAddr().String(),
	}).Info("listening")

	buf := make([]byte, recvBufSize)
	for {
		n, _, err := r.conn.ReadFromUDP(buf)
		at := time.Now()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.WithError(err).WithField("stream", r.stream).Error("receive failed")
			return fmt.Errorf("stream %s: receive: %w", r.stream, err)
		}
		r.sink.ReportReceived(r.stream, n)

		id, err := shred.ParseID(buf[:n])
		if err != nil {
			r.sink.ReportMalformed(r.stream, n, err)
			continue
		}

		a := Arrival{Stream: r.stream, ID: id, At: at, Size: n}
		switch outcome, match := r.table.Submit(a); outcome {
		case Matched:
			r.sink.ReportMatch(*match)
		case Duplicate:
			r.sink.ReportDuplicate(a)
		}
	}
}
