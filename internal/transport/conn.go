// Package transport owns the TCP connection lifecycle for a QAP1 client:
// dialing, the initial handshake, and serializing one request at a time
// over the wire.
package transport

import (
	"context"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/marmos91/rserve-client/internal/logger"
	"github.com/marmos91/rserve-client/internal/metrics"
	"github.com/marmos91/rserve-client/internal/protocol/qap1"
	"github.com/marmos91/rserve-client/internal/telemetry"
)

// Conn is a single connection to an R compute server. QAP1 has no request
// ID: the server processes one command at a time on a connection, so Conn
// serializes Send/Receive pairs behind a mutex rather than allowing
// concurrent in-flight requests.
type Conn struct {
	id      string
	addr    string
	nc      net.Conn
	metrics *metrics.Metrics

	mu     sync.Mutex
	closed bool
}

// DialOptions configures Dial.
type DialOptions struct {
	// DialTimeout bounds the TCP connect and handshake read. Zero means no
	// deadline on the handshake read beyond the dialer's own default.
	DialTimeout time.Duration

	// Metrics receives connection and traffic counters. A nil value is
	// safe and disables metrics.
	Metrics *metrics.Metrics
}

// Dial opens a TCP connection to addr, reads and validates the QAP1
// handshake banner, and returns a ready-to-use Conn.
func Dial(ctx context.Context, addr string, opts DialOptions) (*Conn, error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanDial, trace.WithAttributes(telemetry.ServerAddr(addr)))
	defer span.End()

	dialer := &net.Dialer{Timeout: opts.DialTimeout}
	nc, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		telemetry.RecordError(ctx, err)
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	if opts.DialTimeout > 0 {
		if err := nc.SetReadDeadline(time.Now().Add(opts.DialTimeout)); err != nil {
			nc.Close()
			return nil, fmt.Errorf("set handshake deadline: %w", err)
		}
	}

	if err := qap1.ReceiveHandshake(nc); err != nil {
		nc.Close()
		telemetry.RecordError(ctx, err)
		return nil, fmt.Errorf("handshake with %s: %w", addr, err)
	}

	if opts.DialTimeout > 0 {
		if err := nc.SetReadDeadline(time.Time{}); err != nil {
			nc.Close()
			return nil, fmt.Errorf("clear handshake deadline: %w", err)
		}
	}

	c := &Conn{
		id:      uuid.NewString(),
		addr:    addr,
		nc:      nc,
		metrics: opts.Metrics,
	}
	c.metrics.IncConnectionsOpen()

	lc := logger.NewLogContext(addr)
	logger.InfoCtx(logger.WithContext(ctx, lc), "connected to server", "conn_id", c.id)
	span.SetStatus(codes.Ok, "")
	return c, nil
}

// ID returns the connection's locally-generated identifier, used only for
// correlating log lines and spans.
func (c *Conn) ID() string {
	return c.id
}

// Addr returns the server address this connection was dialed to.
func (c *Conn) Addr() string {
	return c.addr
}

// SendReceive writes msg and reads back the corresponding reply, holding
// the connection's lock for the whole round trip. QAP1 commands are
// strictly request/response with no interleaving, so this single mutex is
// sufficient — see the package doc.
func (c *Conn) SendReceive(ctx context.Context, command string, msg []byte) (qap1.Sexp, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, fmt.Errorf("transport: connection %s is closed", c.id)
	}

	ctx, span := telemetry.StartCommandSpan(ctx, command, c.addr, telemetry.ConnectionID(c.id))
	defer span.End()

	lc := logger.NewLogContext(c.addr).WithCommand(command)
	ctx = logger.WithContext(ctx, lc)
	start := time.Now()

	if err := qap1.WriteMessage(c.nc, msg); err != nil {
		c.recordOutcome(ctx, span, command, "send_error", start, err)
		return nil, fmt.Errorf("send %s: %w", command, err)
	}
	c.metrics.RecordBytesSent(len(msg))
	telemetry.SetAttributes(ctx, telemetry.BytesSent(len(msg)))

	counted := &countingReader{r: c.nc}
	value, err := qap1.ReceiveReply(counted)
	c.metrics.RecordBytesReceived(counted.n)
	telemetry.SetAttributes(ctx, telemetry.BytesReceived(counted.n))
	if err != nil {
		outcome := "decode_error"
		if serverErr, ok := err.(*qap1.ServerError); ok {
			outcome = "server_error"
			c.metrics.RecordServerError(serverErr.Kind.String())
			telemetry.SetAttributes(ctx,
				telemetry.ErrorKind(serverErr.Kind.String()),
				telemetry.ErrorCode(serverErr.Code),
			)
		}
		c.recordOutcome(ctx, span, command, outcome, start, err)
		return nil, err
	}

	c.recordOutcome(ctx, span, command, "ok", start, nil)
	return value, nil
}

// countingReader wraps a net.Conn to tally bytes actually read off the
// wire for one reply, since qap1.ReceiveReply only returns the decoded
// value, not a byte count.
type countingReader struct {
	r io.Reader
	n int
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	cr.n += n
	return n, err
}

func (c *Conn) recordOutcome(ctx context.Context, span trace.Span, command, outcome string, start time.Time, err error) {
	duration := time.Since(start).Seconds()
	c.metrics.RecordCommand(command, outcome, duration)
	if err != nil {
		telemetry.RecordError(ctx, err)
		if serverErr, ok := err.(*qap1.ServerError); ok {
			logger.WarnCtx(ctx, "server returned an error", "outcome", outcome, "duration_ms", logger.Duration(start),
				logger.ErrorKind(serverErr.Kind.String()), logger.ErrorCode(serverErr.Code), logger.Err(err))
			return
		}
		logger.ErrorCtx(ctx, "command failed", "outcome", outcome, "duration_ms", logger.Duration(start), "error", err)
		return
	}
	span.SetStatus(codes.Ok, "")
	logger.DebugCtx(ctx, "command completed", "outcome", outcome, "duration_ms", logger.Duration(start))
}

// Close closes the underlying TCP connection. Safe to call more than once.
// The socket is closed before the connection's lock is taken, so a
// SendReceive in progress on another goroutine fails with a transport
// error instead of delaying Close until its reply arrives.
func (c *Conn) Close() error {
	ncErr := c.nc.Close()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	c.metrics.DecConnectionsOpen()
	return ncErr
}
