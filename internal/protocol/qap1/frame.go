package qap1

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// ============================================================================
// Frame I/O — little-endian primitives shared by decode.go and encode.go
// ============================================================================

// readExact reads exactly n bytes from r, or returns an error. Unlike a bare
// io.Reader.Read, short reads are never silently accepted.
func readExact(r io.Reader, n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("read %d bytes: %w", n, err)
	}
	return buf, nil
}

// writeAll writes b to w in full, wrapping any short-write or error.
func writeAll(w io.Writer, b []byte) error {
	if _, err := w.Write(b); err != nil {
		return fmt.Errorf("write %d bytes: %w", len(b), err)
	}
	return nil
}

// readU32LE reads a 4-byte little-endian unsigned integer.
func readU32LE(r io.Reader) (uint32, error) {
	b, err := readExact(r, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// readI32LE reads a 4-byte little-endian signed integer.
func readI32LE(r io.Reader) (int32, error) {
	v, err := readU32LE(r)
	if err != nil {
		return 0, err
	}
	return int32(v), nil
}

func putU32LE(buf []byte, v uint32) {
	binary.LittleEndian.PutUint32(buf, v)
}

func appendU32LE(buf []byte, v uint32) []byte {
	var b [4]byte
	putU32LE(b[:], v)
	return append(buf, b[:]...)
}

// readDoubleMixedEndianBits reads 8 bytes and returns the IEEE-754 bit
// pattern using the reversed-byte-order quirk QAP1 uses on the wire: the
// byte order is reversed relative to a plain little-endian float64 before
// reinterpretation. Returning the raw bits (rather than a float64) lets the
// caller distinguish the canonical NA payload from an ordinary NaN. Used on
// receive only; send always emits a plain little-endian double (see
// encode.go).
func readDoubleMixedEndianBits(r io.Reader) (uint64, error) {
	b, err := readExact(r, 8)
	if err != nil {
		return 0, err
	}
	var rev [8]byte
	for i := range b {
		rev[i] = b[7-i]
	}
	return binary.BigEndian.Uint64(rev[:]), nil
}

// doubleFields splits a 64-bit pattern into IEEE-754 sign/exponent/mantissa,
// matching the layout QAP1 double NA detection is defined over.
func doubleFields(bits uint64) (sign uint64, exp uint64, mantissa uint64) {
	sign = bits >> 63
	exp = (bits >> 52) & 0x7FF
	mantissa = bits & ((1 << 52) - 1)
	return
}

// appendDoubleLE appends a plain little-endian IEEE-754 double. Unlike
// receive, QAP1 send never reverses the byte order.
func appendDoubleLE(buf []byte, v float64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], math.Float64bits(v))
	return append(buf, b[:]...)
}

// padTo4 appends 0x01 pad bytes (QAP1's pad byte, not XDR's zero byte) until
// len(buf)-from is a multiple of 4.
func padTo4(buf []byte, from int) []byte {
	for (len(buf)-from)%4 != 0 {
		buf = append(buf, 0x01)
	}
	return buf
}

// align4 returns n rounded up to the next multiple of 4.
func align4(n int) int {
	return (n + 3) &^ 3
}

// drainAvailable makes a best-effort, single, non-looping read to capture
// whatever trailing bytes the server sent alongside a non-OK ack. Callers
// that need a bound on how long this can block should set a short read
// deadline on the underlying connection before calling it.
func drainAvailable(r io.Reader) []byte {
	buf := make([]byte, 4096)
	n, _ := r.Read(buf)
	if n <= 0 {
		return nil
	}
	return buf[:n]
}
