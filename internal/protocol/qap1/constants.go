package qap1

// Wire-level constants for QAP1. All multi-byte integers are
// little-endian unless noted.
const (
	// cmdRespFlag is OR'ed into the command field of every reply message.
	cmdRespFlag uint32 = 0x010000

	// RespOK is the 32-bit ack word that precedes a successful reply's
	// secondary header. On the wire this is the little-endian byte
	// sequence 0x01 0x00 0x01 0x00.
	RespOK uint32 = cmdRespFlag | 0x0001

	// respErrLow3 is the low three bytes shared by every error ack word;
	// the error code itself is packed into the most significant byte, so
	// on the wire an error ack reads 0x02 0x00 0x01 <errcode>.
	respErrLow3 uint32 = cmdRespFlag | 0x0002

	// Command codes for the outer message envelope's `cmd` field.
	CmdLogin      uint32 = 0x001
	CmdVoidEval   uint32 = 0x002
	CmdEval       uint32 = 0x003
	CmdShutdown   uint32 = 0x004
	CmdSetSEXP    uint32 = 0x020
	CmdAssignSEXP uint32 = 0x021
)

// DT_* are outer data-type tags for a top-level item in a message body.
const (
	DTInt    byte = 1
	DTChar   byte = 2
	DTDouble byte = 3
	DTString byte = 4
	DTBytes  byte = 5
	DTSEXP   byte = 10
	DTArray  byte = 11

	// DTLarge is a modifier bit on a DT_* header: the 24-bit length is
	// extended by a further 32-bit little-endian word read immediately
	// after it.
	DTLarge byte = 64
)

// XT_* are expression-type tags inside a SEXP, and the two modifier bits
// that can be set on the type byte.
const (
	XTNull        byte = 0
	XTStr         byte = 3
	XTClos        byte = 18
	XTSymName     byte = 19
	XTListNoTag   byte = 20
	XTListTag     byte = 21
	XTLangNoTag   byte = 22
	XTLangTag     byte = 23
	XTVectorExp   byte = 26
	XTVector      byte = 16
	XTArrayInt    byte = 32
	XTArrayDouble byte = 33
	XTArrayStr    byte = 34
	XTArrayBool   byte = 36

	// XTHasAttr is a modifier bit: the value's own payload is preceded by
	// an attribute SEXP (DT_SEXP) whose bytes count towards the value's
	// declared length. It is checked and cleared before XTLarge.
	XTHasAttr byte = 0x80

	// XTLarge is a modifier bit: the 24-bit length is extended by a
	// further 32-bit little-endian word read immediately after the
	// header: total length is length24 | (extra << 23).
	XTLarge byte = 0x40

	// xtTypeMask isolates the base type from the two modifier bits.
	xtTypeMask byte = 0x3F
)

// NA sentinels.
const (
	// NAInt32 is the sentinel int32 value representing NA in an ArrayInt.
	NAInt32 int32 = -2147483648 // 0x80000000

	// naDoubleSign, naDoubleExp, naDoubleMantissa describe the canonical R
	// NA double once its 8 bytes have been reversed and decomposed into
	// IEEE-754 fields (sign:1 exponent:11 mantissa:52).
	naDoubleSign     = 0
	naDoubleExp      = 0x7FF
	naDoubleMantissa = 0x7A2

	// NAStrByte is the single-byte token representing NA in an ArrayStr.
	NAStrByte byte = 0xFF

	// boolFalse, boolTrue, boolNA, boolNAAlt are the one-byte encodings of
	// an ArrayBool element. boolNAAlt (3) is accepted on receive only; it
	// is never produced on send.
	boolFalse byte = 0
	boolTrue  byte = 1
	boolNA    byte = 2
	boolNAAlt byte = 3
)
