package qap1

import (
	"fmt"
	"io"
	"math"
	"strconv"
)

// ============================================================================
// Encoder — outbound commands and SEXP serialisation
// ============================================================================

const maxShortLength = 1<<24 - 1

// EncodeEval serialises a CMD_eval message for the given R expression.
func EncodeEval(expr string) ([]byte, error) {
	return encodeExprCommand(CmdEval, expr)
}

// EncodeEvalVoid serialises a CMD_voidEval message for the given R
// expression.
func EncodeEvalVoid(expr string) ([]byte, error) {
	return encodeExprCommand(CmdVoidEval, expr)
}

// encodeExprCommand builds a message whose body is a single DT_STRING item
// holding expr, NUL-terminated and unpadded.
func encodeExprCommand(cmd uint32, expr string) ([]byte, error) {
	item, err := encodeStringItem(expr)
	if err != nil {
		return nil, err
	}
	return encodeMessage(cmd, item), nil
}

// EncodeSetVariable serialises a CMD_setSEXP message assigning value to
// name: one DT_STRING (the name) followed by one DT_SEXP (the value).
func EncodeSetVariable(name string, value Sexp) ([]byte, error) {
	nameItem, err := encodeStringItem(name)
	if err != nil {
		return nil, err
	}
	valueItem, err := encodeSexpItem(value)
	if err != nil {
		return nil, err
	}
	body := append(nameItem, valueItem...)
	return encodeMessage(CmdSetSEXP, body), nil
}

// encodeMessage wraps body in the four-word outbound envelope. length_hi
// and offset are always zero: only the 32-bit length form is emitted.
func encodeMessage(cmd uint32, body []byte) []byte {
	msg := make([]byte, 0, 16+len(body))
	msg = appendU32LE(msg, cmd)
	msg = appendU32LE(msg, uint32(len(body)))
	msg = appendU32LE(msg, 0)
	msg = appendU32LE(msg, 0)
	msg = append(msg, body...)
	return msg
}

// encodeStringItem builds a DT_STRING item: expr/name bytes, a NUL
// terminator, and no 0x01 padding.
func encodeStringItem(s string) ([]byte, error) {
	payload := append([]byte(s), 0x00)
	if len(payload) > maxShortLength {
		return nil, &PayloadTooLargeError{Length: len(payload)}
	}
	return appendItemHeader(nil, DTString, payload), nil
}

// encodeSexpItem wraps an inner SEXP encoding in a DT_SEXP outer header.
func encodeSexpItem(v Sexp) ([]byte, error) {
	inner, err := encodeSexp(v)
	if err != nil {
		return nil, err
	}
	if len(inner) > maxShortLength {
		return nil, &PayloadTooLargeError{Length: len(inner)}
	}
	return appendItemHeader(nil, DTSEXP, inner), nil
}

// appendItemHeader appends a 4-byte item header (type + 24-bit length)
// followed by payload. Callers must have already checked payload fits in
// 24 bits.
func appendItemHeader(buf []byte, typeByte byte, payload []byte) []byte {
	buf = append(buf, typeByte, byte(len(payload)), byte(len(payload)>>8), byte(len(payload)>>16))
	return append(buf, payload...)
}

// encodeSexp serialises one SEXP as an inner header (type + 24-bit length)
// followed by its payload. HasAttr is handled by emitting the attribute
// SEXP first, then the inner value's payload, under a single header whose
// type carries XT_HAS_ATTR and whose length spans both.
func encodeSexp(v Sexp) ([]byte, error) {
	if wrapped, ok := v.(HasAttr); ok {
		return encodeHasAttr(wrapped)
	}

	typeByte, payload, err := encodeSexpPayload(v)
	if err != nil {
		return nil, err
	}
	if len(payload) > maxShortLength {
		return nil, &PayloadTooLargeError{Length: len(payload)}
	}
	return appendItemHeader(nil, typeByte, payload), nil
}

// encodeHasAttr emits the attribute SEXP (as a full inner SEXP), then the
// wrapped value's own payload, under one header whose length covers both
// and whose type is the inner value's type OR'd with XT_HAS_ATTR.
func encodeHasAttr(h HasAttr) ([]byte, error) {
	attrBytes, err := encodeSexp(h.Attr)
	if err != nil {
		return nil, err
	}
	innerType, innerPayload, err := encodeSexpPayload(h.Inner)
	if err != nil {
		return nil, err
	}
	combined := append(attrBytes, innerPayload...)
	if len(combined) > maxShortLength {
		return nil, &PayloadTooLargeError{Length: len(combined)}
	}
	return appendItemHeader(nil, innerType|XTHasAttr, combined), nil
}

// encodeSexpPayload returns the wire type byte and payload bytes for every
// SEXP variant except HasAttr (handled by the caller).
func encodeSexpPayload(v Sexp) (byte, []byte, error) {
	switch val := v.(type) {
	case Null:
		return XTNull, nil, nil

	case Str:
		return XTSymName, encodeStringPayload(string(val)), nil

	case Sym:
		return XTSymName, encodeStringPayload(string(val)), nil

	case ArrayStr:
		return XTArrayStr, encodeArrayStrPayload(val), nil

	case ArrayInt:
		return encodeArrayIntPromoted(val)

	case ArrayDouble:
		return XTArrayDouble, encodeArrayDoublePayload(val), nil

	case ArrayBool:
		return XTArrayBool, encodeArrayBoolPayload(val), nil

	case Vector:
		payload, err := encodeChildren(val)
		if err != nil {
			return 0, nil, err
		}
		return XTVector, payload, nil

	case ListTag:
		payload, err := encodeListTagPayload(val)
		if err != nil {
			return 0, nil, err
		}
		return XTListTag, payload, nil

	case Closure:
		return XTClos, []byte(val), nil

	case Unimplemented:
		return val.Type, val.Data, nil

	default:
		return 0, nil, fmt.Errorf("qap1: cannot encode SEXP of type %T", v)
	}
}

// encodeStringPayload is the shared payload for Str/SymName: bytes + NUL,
// no 0x01 padding (single-string payloads are not padded).
func encodeStringPayload(s string) []byte {
	return append([]byte(s), 0x00)
}

// encodeArrayStrPayload concatenates each element as bytes+NUL (NA as a
// single 0xFF byte + NUL), then pads with 0x01 to a 4-byte boundary.
func encodeArrayStrPayload(arr ArrayStr) []byte {
	var buf []byte
	for _, e := range arr {
		if e.NA {
			buf = append(buf, NAStrByte, 0x00)
			continue
		}
		buf = append(buf, []byte(e.Value)...)
		buf = append(buf, 0x00)
	}
	return padTo4(buf, 0)
}

// encodeArrayIntPromoted applies the integer promotion lattice: emit as
// XT_ARRAY_INT if every element fits signed 32-bit, else promote to
// XT_ARRAY_DOUBLE if every element is exactly representable as a double,
// else fall back to XT_ARRAY_STR with decimal text. The result is always
// the least-capable tag (Int < Double < Str) that accommodates every
// element.
func encodeArrayIntPromoted(arr ArrayInt) (byte, []byte, error) {
	const maxExactDouble = 1 << 53

	fitsInt := true
	fitsDouble := true
	for _, e := range arr {
		if e.NA {
			continue
		}
		v := int64(e.Value)
		if v <= math.MinInt32 || v > math.MaxInt32 {
			fitsInt = false
		}
		if v > maxExactDouble || v < -maxExactDouble {
			fitsDouble = false
		}
	}

	if fitsInt {
		buf := make([]byte, 0, len(arr)*4)
		for _, e := range arr {
			if e.NA {
				buf = appendU32LE(buf, 0x80000000) // bit pattern of NAInt32
			} else {
				buf = appendU32LE(buf, uint32(e.Value))
			}
		}
		return XTArrayInt, buf, nil
	}

	if fitsDouble {
		doubles := make(ArrayDouble, len(arr))
		for i, e := range arr {
			if e.NA {
				doubles[i] = NADouble()
			} else {
				doubles[i] = DoubleVal(float64(e.Value))
			}
		}
		return XTArrayDouble, encodeArrayDoublePayload(doubles), nil
	}

	strs := make(ArrayStr, len(arr))
	for i, e := range arr {
		if e.NA {
			strs[i] = StrVal("NA")
		} else {
			strs[i] = StrVal(strconv.FormatInt(int64(e.Value), 10))
		}
	}
	return XTArrayStr, encodeArrayStrPayload(strs), nil
}

// encodeArrayDoublePayload writes each element as a plain little-endian
// IEEE-754 double (no byte reversal: only receive reverses).
func encodeArrayDoublePayload(arr ArrayDouble) []byte {
	buf := make([]byte, 0, len(arr)*8)
	for _, e := range arr {
		if e.NA {
			buf = appendDoubleNA(buf)
			continue
		}
		buf = appendDoubleLE(buf, e.Value)
	}
	return buf
}

// appendDoubleNA appends the canonical R NA double's 8-byte little-endian
// encoding: sign 0, exponent all-ones, mantissa 0x7A2.
func appendDoubleNA(buf []byte) []byte {
	bits := uint64(naDoubleExp)<<52 | uint64(naDoubleMantissa)
	var b [8]byte
	for i := 0; i < 8; i++ {
		b[i] = byte(bits >> (8 * i))
	}
	return append(buf, b[:]...)
}

// encodeArrayBoolPayload writes a 4-byte little-endian count, one byte per
// element (1/0/NA-sentinel-2), then 0x01 padding to a 4-byte boundary.
func encodeArrayBoolPayload(arr ArrayBool) []byte {
	buf := appendU32LE(nil, uint32(len(arr)))
	for _, e := range arr {
		switch {
		case e.NA:
			buf = append(buf, boolNA)
		case e.Value:
			buf = append(buf, boolTrue)
		default:
			buf = append(buf, boolFalse)
		}
	}
	return padTo4(buf, 0)
}

// encodeChildren serialises each child SEXP as a full inner item (header +
// payload), concatenated with no separators or padding.
func encodeChildren(children []Sexp) ([]byte, error) {
	var buf []byte
	for _, c := range children {
		enc, err := encodeSexp(c)
		if err != nil {
			return nil, err
		}
		buf = append(buf, enc...)
	}
	return buf, nil
}

// encodeListTagPayload serialises each pair as value-SEXP then key-SEXP,
// matching receive order.
func encodeListTagPayload(pairs ListTag) ([]byte, error) {
	var buf []byte
	for _, p := range pairs {
		valueBytes, err := encodeSexp(p.Value)
		if err != nil {
			return nil, err
		}
		keyBytes, err := encodeSexp(p.Key)
		if err != nil {
			return nil, err
		}
		buf = append(buf, valueBytes...)
		buf = append(buf, keyBytes...)
	}
	return buf, nil
}

// WriteMessage writes a fully-encoded message to w.
func WriteMessage(w io.Writer, msg []byte) error {
	return writeAll(w, msg)
}
