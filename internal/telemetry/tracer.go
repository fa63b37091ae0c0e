package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys for QAP1 client spans.
const (
	AttrServerAddr   = "rserve.server.address"
	AttrCommand      = "rserve.command"
	AttrSexpType     = "rserve.sexp.type"
	AttrDataType     = "rserve.data.type"
	AttrLength       = "rserve.length"
	AttrHasAttr      = "rserve.has_attr"
	AttrLarge        = "rserve.large"
	AttrBytesSent    = "rserve.bytes_sent"
	AttrBytesRecv    = "rserve.bytes_received"
	AttrErrorKind    = "rserve.error.kind"
	AttrErrorCode    = "rserve.error.code"
	AttrConnectionID = "rserve.connection.id"
)

// Span names for client operations.
const (
	SpanDial       = "rserve.dial"
	SpanHandshake  = "rserve.handshake"
	SpanEval       = "rserve.eval"
	SpanVoidEval   = "rserve.void_eval"
	SpanSetSEXP    = "rserve.set_sexp"
	SpanEncode     = "rserve.encode"
	SpanDecode     = "rserve.decode"
)

// ServerAddr returns an attribute for the target server address.
func ServerAddr(addr string) attribute.KeyValue {
	return attribute.String(AttrServerAddr, addr)
}

// Command returns an attribute for the QAP1 command name.
func Command(name string) attribute.KeyValue {
	return attribute.String(AttrCommand, name)
}

// SexpType returns an attribute for a decoded SEXP's Go type name.
func SexpType(typeName string) attribute.KeyValue {
	return attribute.String(AttrSexpType, typeName)
}

// DataType returns an attribute for an outer DT_* or XT_* tag value.
func DataType(tag byte) attribute.KeyValue {
	return attribute.Int(AttrDataType, int(tag))
}

// Length returns an attribute for a declared item length.
func Length(n int) attribute.KeyValue {
	return attribute.Int(AttrLength, n)
}

// HasAttr returns an attribute for the XT_HAS_ATTR modifier bit.
func HasAttr(has bool) attribute.KeyValue {
	return attribute.Bool(AttrHasAttr, has)
}

// Large returns an attribute for the XT_LARGE/DT_LARGE modifier bit.
func Large(large bool) attribute.KeyValue {
	return attribute.Bool(AttrLarge, large)
}

// BytesSent returns an attribute for bytes written to the connection.
func BytesSent(n int) attribute.KeyValue {
	return attribute.Int(AttrBytesSent, n)
}

// BytesReceived returns an attribute for bytes read from the connection.
func BytesReceived(n int) attribute.KeyValue {
	return attribute.Int(AttrBytesRecv, n)
}

// ErrorKind returns an attribute for a mapped server error kind.
func ErrorKind(kind string) attribute.KeyValue {
	return attribute.String(AttrErrorKind, kind)
}

// ErrorCode returns an attribute for the raw server error code byte.
func ErrorCode(code byte) attribute.KeyValue {
	return attribute.Int(AttrErrorCode, int(code))
}

// ConnectionID returns an attribute for a per-connection identifier.
func ConnectionID(id string) attribute.KeyValue {
	return attribute.String(AttrConnectionID, id)
}

// HandleHex formats an arbitrary byte payload (e.g. a closure body) as a hex
// attribute value, for spans that want to log opaque bytes without dumping
// them raw.
func HandleHex(label string, b []byte) attribute.KeyValue {
	return attribute.String(label, fmt.Sprintf("%x", b))
}

// StartCommandSpan starts a span for one QAP1 command round-trip.
func StartCommandSpan(ctx context.Context, command, addr string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{
		Command(command),
		ServerAddr(addr),
	}
	allAttrs = append(allAttrs, attrs...)
	return StartSpan(ctx, "rserve."+command, trace.WithAttributes(allAttrs...))
}

// StartCodecSpan starts a span for an encode or decode step.
func StartCodecSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return StartSpan(ctx, name, trace.WithAttributes(attrs...))
}
