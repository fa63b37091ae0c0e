package qap1

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validHandshake() []byte {
	b := make([]byte, 32)
	copy(b, "Rsrv0103QAP1\r\n")
	return b
}

func TestReceiveHandshakeAccepts(t *testing.T) {
	err := ReceiveHandshake(bytes.NewReader(validHandshake()))
	assert.NoError(t, err)
}

func TestReceiveHandshakeRejectsBadPrefix(t *testing.T) {
	b := validHandshake()
	copy(b, "XXXX")
	err := ReceiveHandshake(bytes.NewReader(b))
	require.Error(t, err)
	var badHandshake *BadHandshakeError
	assert.ErrorAs(t, err, &badHandshake)
}

// successReply builds a well-formed OK reply envelope around body.
func successReply(body []byte) []byte {
	var buf []byte
	buf = appendU32LE(buf, RespOK)
	buf = appendU32LE(buf, uint32(len(body)))
	buf = appendU32LE(buf, 0)
	buf = appendU32LE(buf, 0)
	buf = append(buf, body...)
	return buf
}

func TestEvalRoundTrip(t *testing.T) {
	// c(1,2,3) decoded as an ArrayDouble, wrapped in DT_SEXP.
	arr := ArrayDouble{DoubleVal(1), DoubleVal(2), DoubleVal(3)}
	inner, err := encodeSexp(arr)
	require.NoError(t, err)
	outer := appendItemHeader(nil, DTSEXP, inner)

	reply := successReply(outer)
	value, err := ReceiveReply(bytes.NewReader(reply))
	require.NoError(t, err)

	got, ok := value.(ArrayDouble)
	require.True(t, ok, "expected ArrayDouble, got %T", value)
	require.Len(t, got, 3)
	assert.Equal(t, 1.0, got[0].Value)
	assert.Equal(t, 2.0, got[1].Value)
	assert.Equal(t, 3.0, got[2].Value)
}

func TestReceiveReplyServerError(t *testing.T) {
	var ackWord []byte
	ackWord = appendU32LE(ackWord, respErrLow3|(uint32(AccessDenied)<<24))

	value, err := ReceiveReply(bytes.NewReader(ackWord))
	assert.Nil(t, value)
	require.Error(t, err)

	var serverErr *ServerError
	require.ErrorAs(t, err, &serverErr)
	assert.Equal(t, AccessDenied, serverErr.Kind)
	assert.Equal(t, byte(AccessDenied), serverErr.Code)
}

func TestReceiveReplyUnknownErrorCodePassesThrough(t *testing.T) {
	const unknownCode = byte(200)
	var ackWord []byte
	ackWord = appendU32LE(ackWord, respErrLow3|(uint32(unknownCode)<<24))

	_, err := ReceiveReply(bytes.NewReader(ackWord))
	require.Error(t, err)

	var serverErr *ServerError
	require.ErrorAs(t, err, &serverErr)
	assert.Equal(t, ErrorKind(unknownCode), serverErr.Kind)
}

func TestReceiveReplyMalformedAckIsDesync(t *testing.T) {
	var ackWord []byte
	ackWord = appendU32LE(ackWord, 0xDEADBEEF)

	_, err := ReceiveReply(bytes.NewReader(ackWord))
	require.Error(t, err)

	var desync *ProtocolDesyncError
	assert.ErrorAs(t, err, &desync)
}

func TestArrayIntNARoundTrip(t *testing.T) {
	arr := ArrayInt{IntVal(1), NAInt(), IntVal(3)}
	_, payload, err := encodeArrayIntPromoted(arr)
	require.NoError(t, err)

	decoded, err := parseArrayIntPayload(payload)
	require.NoError(t, err)
	require.Len(t, decoded, 3)
	assert.False(t, decoded[0].NA)
	assert.True(t, decoded[1].NA)
	assert.Equal(t, int32(3), decoded[2].Value)
}

func TestArrayDoubleNARoundTrip(t *testing.T) {
	payload := encodeArrayDoublePayload(ArrayDouble{NADouble(), DoubleVal(2.5)})
	decoded, err := parseArrayDoublePayload(payload)
	require.NoError(t, err)
	require.Len(t, decoded, 2)
	assert.True(t, decoded[0].NA)
	assert.False(t, decoded[1].NA)
	assert.Equal(t, 2.5, decoded[1].Value)
}

func TestArrayStrNARoundTrip(t *testing.T) {
	payload := encodeArrayStrPayload(ArrayStr{StrVal("a"), NAStr(), StrVal("bb")})
	decoded, err := parseArrayStrPayload(payload)
	require.NoError(t, err)
	require.Len(t, decoded, 3)
	assert.Equal(t, "a", decoded[0].Value)
	assert.True(t, decoded[1].NA)
	assert.Equal(t, "bb", decoded[2].Value)
}

func TestArrayStrPaddingIsMultipleOf4(t *testing.T) {
	payload := encodeArrayStrPayload(ArrayStr{StrVal("a")})
	assert.Equal(t, 0, len(payload)%4)
}

func TestArrayBoolRoundTripWithNA(t *testing.T) {
	payload := encodeArrayBoolPayload(ArrayBool{BoolVal(true), BoolVal(false), NABool()})
	assert.Equal(t, 0, (len(payload)-4)%4, "payload past the count word should pad to a 4-byte boundary")

	decoded, err := parseArrayBoolPayload(payload)
	require.NoError(t, err)
	require.Len(t, decoded, 3)
	assert.True(t, decoded[0].Value)
	assert.False(t, decoded[1].Value)
	assert.True(t, decoded[2].NA)
}

func TestArrayBoolAcceptsAlternateNAOnReceiveOnly(t *testing.T) {
	payload := append(appendU32LE(nil, 1), boolNAAlt)
	decoded, err := parseArrayBoolPayload(payload)
	require.NoError(t, err)
	require.Len(t, decoded, 1)
	assert.True(t, decoded[0].NA)
}

func TestIntegerPromotionFitsInt(t *testing.T) {
	typeByte, _, err := encodeArrayIntPromoted(ArrayInt{IntVal(1), IntVal(2)})
	require.NoError(t, err)
	assert.Equal(t, XTArrayInt, typeByte)
}

func TestIntegerPromotionAllNAStaysInt(t *testing.T) {
	typeByte, _, err := encodeArrayIntPromoted(ArrayInt{NAInt(), NAInt()})
	require.NoError(t, err)
	assert.Equal(t, XTArrayInt, typeByte)
}

func TestEncodeEvalProducesStringItem(t *testing.T) {
	msg, err := EncodeEval("1+1")
	require.NoError(t, err)

	require.True(t, len(msg) > 16)
	cmd := uint32(msg[0]) | uint32(msg[1])<<8 | uint32(msg[2])<<16 | uint32(msg[3])<<24
	assert.Equal(t, CmdEval, cmd)

	body := msg[16:]
	assert.Equal(t, DTString, body[0])
}

func TestDataFrameWireShape(t *testing.T) {
	names := ArrayStr{StrVal("x")}
	rowNames := ArrayInt{IntVal(1), IntVal(2)}
	class := ArrayStr{StrVal("data.frame")}
	attrs := ListTag{
		{Key: Str("names"), Value: names},
		{Key: Str("row.names"), Value: rowNames},
		{Key: Str("class"), Value: class},
	}
	values := Vector{ArrayDouble{DoubleVal(1), DoubleVal(2)}}
	df := HasAttr{Attr: attrs, Inner: values}

	encoded, err := encodeSexp(df)
	require.NoError(t, err)

	sr := bytes.NewReader(encoded)
	decoded, consumed, err := parseOneSexp(sr)
	require.NoError(t, err)
	assert.Equal(t, len(encoded), consumed)

	got, ok := decoded.(HasAttr)
	require.True(t, ok)

	pairs, ok := got.Attr.(ListTag)
	require.True(t, ok)
	require.Len(t, pairs, 3)
	assert.Equal(t, Str("names"), pairs[0].Key)
	assert.Equal(t, Str("row.names"), pairs[1].Key)
	assert.Equal(t, Str("class"), pairs[2].Key)
}

func TestLargeLengthReceive(t *testing.T) {
	// A length that doesn't fit in 24 bits: exercise the XT_LARGE receive
	// path directly rather than building gigabytes of payload.
	arr := make(ArrayInt, 5)
	for i := range arr {
		arr[i] = IntVal(int32(i))
	}
	_, payload, err := encodeArrayIntPromoted(arr)
	require.NoError(t, err)

	length := len(payload)
	header := []byte{
		XTArrayInt | XTLarge,
		byte(length & 0xFF), byte((length >> 8) & 0xFF), byte((length >> 16) & 0xFF),
	}
	extra := appendU32LE(nil, 0)
	full := append(header, extra...)
	full = append(full, payload...)

	decoded, consumed, err := parseOneSexp(bytes.NewReader(full))
	require.NoError(t, err)
	assert.Equal(t, len(full), consumed)
	got, ok := decoded.(ArrayInt)
	require.True(t, ok)
	assert.Len(t, got, 5)
}
