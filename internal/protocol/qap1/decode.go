package qap1

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// ============================================================================
// Decoder — reply body → typed SEXP tree
// ============================================================================

// ReceiveHandshake reads the 32-byte connection banner a server sends
// immediately after accepting a TCP connection and checks its "Rsrv"
// prefix. The remaining 28 bytes (version, protocol name, extra
// attributes) are read but not interpreted.
func ReceiveHandshake(r io.Reader) error {
	b, err := readExact(r, 32)
	if err != nil {
		return err
	}
	if !bytes.Equal(b[:4], []byte("Rsrv")) {
		return &BadHandshakeError{Got: append([]byte(nil), b[:4]...)}
	}
	return nil
}

// ReceiveReply reads one reply: the 4-byte ack word, then either the
// secondary header and body (success) or the server's opaque error tail.
func ReceiveReply(r io.Reader) (Sexp, error) {
	ackWord, err := readU32LE(r)
	if err != nil {
		return nil, err
	}
	if ackWord != RespOK {
		if ackWord&0x00FFFFFF != respErrLow3 {
			drainAvailable(r)
			return nil, &ProtocolDesyncError{Want: int(respErrLow3), Got: int(ackWord & 0x00FFFFFF)}
		}
		errCode := byte(ackWord >> 24)
		tail := drainAvailable(r)
		return nil, &ServerError{Kind: errorKindFromCode(errCode), Code: errCode, Tail: tail}
	}

	secHdr, err := readExact(r, 12)
	if err != nil {
		return nil, err
	}
	lengthLo := binary.LittleEndian.Uint32(secHdr[0:4])
	lengthHi := binary.LittleEndian.Uint32(secHdr[8:12])
	bodyLen := uint64(lengthLo) + (uint64(lengthHi) << 31)

	body, err := readExact(r, int(bodyLen))
	if err != nil {
		return nil, err
	}
	return parseBody(body)
}

// parseBody parses the sequence of top-level items in a reply body. A
// single item is returned unwrapped; more than one is returned as a
// Vector, in declaration order.
func parseBody(body []byte) (Sexp, error) {
	r := bytes.NewReader(body)
	var items []Sexp
	for r.Len() > 0 {
		item, err := parseTopLevelItem(r)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if len(items) == 0 {
		return Null{}, nil
	}
	if len(items) == 1 {
		return items[0], nil
	}
	return Vector(items), nil
}

// parseTopLevelItem reads one outer DT_* item header and its payload. A
// DT_SEXP item's payload is itself a single inner SEXP (header + payload);
// a DT_STRING item's payload is a NUL-terminated string; any other DT_*
// type is returned uninterpreted.
func parseTopLevelItem(r io.Reader) (Sexp, error) {
	hdr, err := readExact(r, 4)
	if err != nil {
		return nil, err
	}
	dtType := hdr[0]
	length := uint32(hdr[1]) | uint32(hdr[2])<<8 | uint32(hdr[3])<<16
	if dtType&DTLarge != 0 {
		extra, err := readU32LE(r)
		if err != nil {
			return nil, err
		}
		length |= extra << 23
		dtType &^= DTLarge
	}

	payload, err := readExact(r, int(length))
	if err != nil {
		return nil, err
	}

	switch dtType {
	case DTSEXP:
		sr := bytes.NewReader(payload)
		value, consumed, err := parseOneSexp(sr)
		if err != nil {
			return nil, err
		}
		if consumed != len(payload) {
			return nil, &ProtocolDesyncError{Want: len(payload), Got: consumed}
		}
		return value, nil
	case DTString:
		return Str(trimNulTerminated(payload)), nil
	default:
		return Unimplemented{Type: dtType, Data: payload}, nil
	}
}

// parseOneSexp reads one inner SEXP (4-byte header, optional attribute
// prefix, optional large-length extension, then payload) from r, and reports
// how many bytes were consumed so callers with a declared outer length can
// check for protocol desync.
func parseOneSexp(r io.Reader) (Sexp, int, error) {
	hdr, err := readExact(r, 4)
	if err != nil {
		return nil, 0, err
	}
	consumed := 4

	typeByte := hdr[0]
	length := uint32(hdr[1]) | uint32(hdr[2])<<8 | uint32(hdr[3])<<16

	hasAttr := typeByte&XTHasAttr != 0
	typeByte &^= XTHasAttr

	var attr Sexp
	if hasAttr {
		a, n, err := parseOneSexp(r)
		if err != nil {
			return nil, consumed, err
		}
		consumed += n
		attr = a
		length -= uint32(n)
	}

	large := typeByte&XTLarge != 0
	typeByte &^= XTLarge
	if large {
		extra, err := readU32LE(r)
		if err != nil {
			return nil, consumed, err
		}
		consumed += 4
		length |= extra << 23
	}
	typeByte &= xtTypeMask

	payload, err := readExact(r, int(length))
	if err != nil {
		return nil, consumed, err
	}
	consumed += len(payload)

	value, err := parsePayload(typeByte, payload)
	if err != nil {
		return nil, consumed, err
	}
	if hasAttr {
		value = HasAttr{Attr: attr, Inner: value}
	}
	return value, consumed, nil
}

// parsePayload dispatches on the (flag-cleared) XT_* type byte.
func parsePayload(typeByte byte, payload []byte) (Sexp, error) {
	switch typeByte {
	case XTNull:
		if len(payload) != 0 {
			return nil, fmt.Errorf("qap1: XT_NULL with non-zero length %d", len(payload))
		}
		return Null{}, nil

	case XTStr, XTSymName:
		elems, err := parseArrayStrPayload(payload)
		if err != nil {
			return nil, err
		}
		if len(elems) == 0 {
			return Str(""), nil
		}
		if elems[0].NA {
			return Str(""), nil
		}
		return Str(elems[0].Value), nil

	case XTArrayStr:
		elems, err := parseArrayStrPayload(payload)
		if err != nil {
			return nil, err
		}
		return ArrayStr(elems), nil

	case XTArrayInt:
		return parseArrayIntPayload(payload)

	case XTArrayDouble:
		return parseArrayDoublePayload(payload)

	case XTArrayBool:
		return parseArrayBoolPayload(payload)

	case XTVector, XTVectorExp, XTListNoTag, XTLangNoTag:
		items, err := parseSexpSequence(payload)
		if err != nil {
			return nil, err
		}
		return Vector(items), nil

	case XTListTag, XTLangTag:
		pairs, err := parseSexpPairs(payload)
		if err != nil {
			return nil, err
		}
		return pairs, nil

	case XTClos:
		return Closure(append([]byte(nil), payload...)), nil

	default:
		return Unimplemented{Type: typeByte, Data: append([]byte(nil), payload...)}, nil
	}
}

// parseArrayStrPayload splits a NUL-delimited, 0x01-padded string array
// payload into elements. The trailing token is pure padding once its
// leading 0x01 bytes are stripped and becomes empty; it is dropped rather
// than treated as a value. A single 0xFF byte denotes NA.
func parseArrayStrPayload(payload []byte) (ArrayStr, error) {
	tokens := bytes.Split(payload, []byte{0x00})
	result := make(ArrayStr, 0, len(tokens))
	for i, raw := range tokens {
		t := bytes.TrimLeft(raw, "\x01")
		if i == len(tokens)-1 && len(t) == 0 {
			continue
		}
		if len(t) == 1 && t[0] == NAStrByte {
			result = append(result, NAStr())
			continue
		}
		result = append(result, StrVal(string(t)))
	}
	return result, nil
}

// parseArrayIntPayload decodes a flat array of little-endian int32s.
func parseArrayIntPayload(payload []byte) (ArrayInt, error) {
	if len(payload)%4 != 0 {
		return nil, fmt.Errorf("qap1: XT_ARRAY_INT length %d is not a multiple of 4", len(payload))
	}
	n := len(payload) / 4
	result := make(ArrayInt, n)
	for i := 0; i < n; i++ {
		v := int32(binary.LittleEndian.Uint32(payload[i*4 : i*4+4]))
		if v == NAInt32 {
			result[i] = NAInt()
		} else {
			result[i] = IntVal(v)
		}
	}
	return result, nil
}

// parseArrayDoublePayload decodes a flat array of mixed-endian doubles,
// recognising the canonical NA payload and the two infinities.
func parseArrayDoublePayload(payload []byte) (ArrayDouble, error) {
	if len(payload)%8 != 0 {
		return nil, fmt.Errorf("qap1: XT_ARRAY_DOUBLE length %d is not a multiple of 8", len(payload))
	}
	n := len(payload) / 8
	result := make(ArrayDouble, n)
	for i := 0; i < n; i++ {
		chunk := payload[i*8 : i*8+8]
		var rev [8]byte
		for j := 0; j < 8; j++ {
			rev[j] = chunk[7-j]
		}
		bits := binary.BigEndian.Uint64(rev[:])
		sign, exp, mantissa := doubleFields(bits)

		switch {
		case exp == naDoubleExp && mantissa == 0:
			if sign == 1 {
				result[i] = DoubleVal(math.Inf(-1))
			} else {
				result[i] = DoubleVal(math.Inf(1))
			}
		case exp == naDoubleExp && mantissa == naDoubleMantissa:
			result[i] = NADouble()
		case exp == naDoubleExp:
			result[i] = DoubleVal(math.NaN())
		default:
			result[i] = DoubleVal(math.Float64frombits(bits))
		}
	}
	return result, nil
}

// parseArrayBoolPayload decodes a 4-byte little-endian element count
// followed by one byte per element; any bytes beyond count are alignment
// padding and are discarded.
func parseArrayBoolPayload(payload []byte) (ArrayBool, error) {
	if len(payload) < 4 {
		return nil, fmt.Errorf("qap1: XT_ARRAY_BOOL payload of %d bytes is too short for a count", len(payload))
	}
	n := binary.LittleEndian.Uint32(payload[:4])
	if uint64(4+n) > uint64(len(payload)) {
		return nil, fmt.Errorf("qap1: XT_ARRAY_BOOL count %d exceeds payload length %d", n, len(payload))
	}
	result := make(ArrayBool, n)
	for i := uint32(0); i < n; i++ {
		switch payload[4+i] {
		case boolFalse:
			result[i] = BoolVal(false)
		case boolTrue:
			result[i] = BoolVal(true)
		case boolNA, boolNAAlt:
			result[i] = NABool()
		default:
			return nil, fmt.Errorf("qap1: XT_ARRAY_BOOL element %d has invalid byte 0x%02x", i, payload[4+i])
		}
	}
	return result, nil
}

// parseSexpSequence parses a concatenation of SEXP items filling payload
// exactly.
func parseSexpSequence(payload []byte) ([]Sexp, error) {
	r := bytes.NewReader(payload)
	var items []Sexp
	for r.Len() > 0 {
		item, _, err := parseOneSexp(r)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// parseSexpPairs parses a concatenation of (value, key) SEXP pairs filling
// payload exactly, storing them in logical (key, value) order.
func parseSexpPairs(payload []byte) (ListTag, error) {
	r := bytes.NewReader(payload)
	var pairs ListTag
	for r.Len() > 0 {
		value, _, err := parseOneSexp(r)
		if err != nil {
			return nil, err
		}
		key, _, err := parseOneSexp(r)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, Pair{Key: key, Value: value})
	}
	return pairs, nil
}

// trimNulTerminated returns the bytes before the first NUL, or the whole
// slice if none is present.
func trimNulTerminated(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return string(b[:i])
	}
	return string(b)
}
