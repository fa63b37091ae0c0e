package rclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/rserve-client/internal/protocol/qap1"
)

func TestUnwrapScalarString(t *testing.T) {
	got, err := Unwrap(qap1.Str("hello"))
	require.NoError(t, err)
	assert.Equal(t, "hello", got)
}

func TestUnwrapArrayIntWithNA(t *testing.T) {
	arr := qap1.ArrayInt{qap1.IntVal(1), qap1.NAInt(), qap1.IntVal(3)}
	val, err := Unwrap(arr)
	require.NoError(t, err)
	got := val.([]any)
	require.Len(t, got, 3)
	assert.Equal(t, int32(1), got[0])
	assert.Nil(t, got[1])
	assert.Equal(t, int32(3), got[2])
}

func TestUnwrapListTagKeyedByName(t *testing.T) {
	list := qap1.ListTag{
		{Key: qap1.Str("a"), Value: qap1.ArrayInt{qap1.IntVal(1)}},
		{Key: qap1.Sym("b"), Value: qap1.Str("x")},
	}
	val, err := Unwrap(list)
	require.NoError(t, err)
	got := val.(map[string]any)
	require.Contains(t, got, "a")
	require.Contains(t, got, "b")
	assert.Equal(t, "x", got["b"])
}

func TestUnwrapHasAttr(t *testing.T) {
	h := qap1.HasAttr{
		Attr:  qap1.ArrayStr{qap1.StrVal("class")},
		Inner: qap1.ArrayInt{qap1.IntVal(1)},
	}
	val, err := Unwrap(h)
	require.NoError(t, err)
	got := val.(map[string]any)
	require.Contains(t, got, "attr")
	require.Contains(t, got, "value")
}

func TestUnwrapClosureErrors(t *testing.T) {
	_, err := Unwrap(qap1.Closure([]byte{1, 2, 3}))
	assert.Error(t, err)
}

func TestUnwrapUnimplementedErrors(t *testing.T) {
	_, err := Unwrap(qap1.Unimplemented{Type: 0x42, Data: []byte{1}})
	assert.Error(t, err)
}

func TestAsStringsRejectsNA(t *testing.T) {
	arr := qap1.ArrayStr{qap1.StrVal("ok"), qap1.NAStr()}
	_, err := AsStrings(arr)
	assert.Error(t, err)
}

func TestAsStringsRejectsWrongType(t *testing.T) {
	_, err := AsStrings(qap1.ArrayInt{qap1.IntVal(1)})
	assert.Error(t, err)
}

func TestAsIntsHappyPath(t *testing.T) {
	ints, err := AsInts(qap1.ArrayInt{qap1.IntVal(1), qap1.IntVal(2)})
	require.NoError(t, err)
	assert.Equal(t, []int32{1, 2}, ints)
}

func TestAsDoublesHappyPath(t *testing.T) {
	doubles, err := AsDoubles(qap1.ArrayDouble{qap1.DoubleVal(1.5)})
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5}, doubles)
}
