package logger

import (
	"fmt"
	"log/slog"
)

// Standard field keys for structured logging across the codec and transport
// layers. Use these keys consistently so log lines can be aggregated or
// queried by field.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id" // OpenTelemetry trace ID for request correlation
	KeySpanID  = "span_id"  // OpenTelemetry span ID for operation tracking

	// ========================================================================
	// Connection & Command
	// ========================================================================
	KeyServer  = "server"  // host:port of the server connection
	KeyCommand = "command" // eval, void_eval, set_sexp
	KeyExpr    = "expr"    // R expression text (eval/void_eval)
	KeyVarName = "var"     // variable name (set_sexp)

	// ========================================================================
	// Wire-level
	// ========================================================================
	KeySexpType     = "sexp_type"     // XT_* tag of a decoded/encoded value
	KeyDataType     = "data_type"     // DT_* tag of a top-level item
	KeyLength       = "length"        // declared payload length in bytes
	KeyHasAttr      = "has_attr"      // whether XT_HAS_ATTR was set
	KeyLarge        = "large"         // whether XT_LARGE was set
	KeyBytesRead    = "bytes_read"    // bytes consumed off the wire
	KeyBytesWritten = "bytes_written" // bytes written to the wire

	// ========================================================================
	// Errors
	// ========================================================================
	KeyError     = "error"      // error message
	KeyErrorKind = "error_kind" // mapped ErrorKind name
	KeyErrorCode = "error_code" // raw server error byte
)

// TraceID returns a trace_id attribute.
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID returns a span_id attribute.
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// Server returns a server attribute.
func Server(addr string) slog.Attr {
	return slog.String(KeyServer, addr)
}

// Command returns a command attribute.
func Command(name string) slog.Attr {
	return slog.String(KeyCommand, name)
}

// Expr returns an expr attribute.
func Expr(expr string) slog.Attr {
	return slog.String(KeyExpr, expr)
}

// VarName returns a var attribute.
func VarName(name string) slog.Attr {
	return slog.String(KeyVarName, name)
}

// SexpType returns a sexp_type attribute formatted as a hex byte.
func SexpType(t byte) slog.Attr {
	return slog.String(KeySexpType, fmt.Sprintf("0x%02x", t))
}

// DataType returns a data_type attribute formatted as a hex byte.
func DataType(t byte) slog.Attr {
	return slog.String(KeyDataType, fmt.Sprintf("0x%02x", t))
}

// Length returns a length attribute.
func Length(n uint64) slog.Attr {
	return slog.Uint64(KeyLength, n)
}

// HasAttr returns a has_attr attribute.
func HasAttr(v bool) slog.Attr {
	return slog.Bool(KeyHasAttr, v)
}

// Large returns a large attribute.
func Large(v bool) slog.Attr {
	return slog.Bool(KeyLarge, v)
}

// BytesRead returns a bytes_read attribute.
func BytesRead(n int) slog.Attr {
	return slog.Int(KeyBytesRead, n)
}

// BytesWritten returns a bytes_written attribute.
func BytesWritten(n int) slog.Attr {
	return slog.Int(KeyBytesWritten, n)
}

// Err returns an error attribute, or a no-op attribute if err is nil.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// ErrorKind returns an error_kind attribute.
func ErrorKind(kind string) slog.Attr {
	return slog.String(KeyErrorKind, kind)
}

// ErrorCode returns an error_code attribute formatted as a hex byte.
func ErrorCode(code byte) slog.Attr {
	return slog.String(KeyErrorCode, fmt.Sprintf("0x%02x", code))
}
