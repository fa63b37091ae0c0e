// Package rclient is the public client API for talking to an R compute
// server over QAP1: it pairs internal/transport's connection lifecycle with
// internal/protocol/qap1's wire codec.
package rclient

import (
	"context"
	"fmt"
	"time"

	"github.com/marmos91/rserve-client/internal/metrics"
	"github.com/marmos91/rserve-client/internal/protocol/qap1"
	"github.com/marmos91/rserve-client/internal/transport"
)

// Client evaluates R expressions and assigns variables on a single
// connection to an R compute server.
type Client struct {
	conn *transport.Conn
}

// Options configures Connect.
type Options struct {
	// DialTimeout bounds the TCP connect and handshake. Zero disables the
	// deadline.
	DialTimeout time.Duration

	// Metrics receives connection and command counters. Nil disables
	// metrics.
	Metrics *metrics.Metrics
}

// Connect dials addr, performs the QAP1 handshake, and returns a Client
// ready to evaluate expressions.
func Connect(ctx context.Context, addr string, opts Options) (*Client, error) {
	conn, err := transport.Dial(ctx, addr, transport.DialOptions{
		DialTimeout: opts.DialTimeout,
		Metrics:     opts.Metrics,
	})
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Eval sends CMD_eval for expr and returns the decoded result.
func (c *Client) Eval(ctx context.Context, expr string) (qap1.Sexp, error) {
	msg, err := qap1.EncodeEval(expr)
	if err != nil {
		return nil, fmt.Errorf("encode eval %q: %w", expr, err)
	}
	return c.conn.SendReceive(ctx, "eval", msg)
}

// EvalVoid sends CMD_voidEval for expr. The server still returns a reply
// envelope, but its body is not meaningful and is discarded.
func (c *Client) EvalVoid(ctx context.Context, expr string) error {
	msg, err := qap1.EncodeEvalVoid(expr)
	if err != nil {
		return fmt.Errorf("encode void eval %q: %w", expr, err)
	}
	_, err = c.conn.SendReceive(ctx, "void_eval", msg)
	return err
}

// SetVariable sends CMD_setSEXP, assigning value to name in the server's
// top-level environment.
func (c *Client) SetVariable(ctx context.Context, name string, value qap1.Sexp) error {
	msg, err := qap1.EncodeSetVariable(name, value)
	if err != nil {
		return fmt.Errorf("encode set variable %q: %w", name, err)
	}
	_, err = c.conn.SendReceive(ctx, "set_sexp", msg)
	return err
}
