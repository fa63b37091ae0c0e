package rclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/rserve-client/internal/protocol/qap1"
)

func TestNewDataFrameShape(t *testing.T) {
	df, err := NewDataFrame([]DataFrameColumn{
		{Name: "x", Values: qap1.ArrayInt{qap1.IntVal(1), qap1.IntVal(2)}},
		{Name: "y", Values: qap1.ArrayStr{qap1.StrVal("a"), qap1.StrVal("b")}},
	})
	require.NoError(t, err)

	wrapped, ok := df.(qap1.HasAttr)
	require.True(t, ok)

	attrs, ok := wrapped.Attr.(qap1.ListTag)
	require.True(t, ok)
	require.Len(t, attrs, 3)
	assert.Equal(t, qap1.Str("names"), attrs[0].Key)
	assert.Equal(t, qap1.Str("row.names"), attrs[1].Key)
	assert.Equal(t, qap1.Str("class"), attrs[2].Key)

	class, ok := attrs[2].Value.(qap1.ArrayStr)
	require.True(t, ok)
	require.Len(t, class, 1)
	assert.Equal(t, "data.frame", class[0].Value)

	rowNames, ok := attrs[1].Value.(qap1.ArrayInt)
	require.True(t, ok)
	require.Len(t, rowNames, 2)
	assert.Equal(t, int32(1), rowNames[0].Value)
	assert.Equal(t, int32(2), rowNames[1].Value)

	values, ok := wrapped.Inner.(qap1.Vector)
	require.True(t, ok)
	require.Len(t, values, 2)
}

func TestNewDataFrameRejectsEmpty(t *testing.T) {
	_, err := NewDataFrame(nil)
	assert.Error(t, err)
}

func TestUnwrapDataFrameRoundTrip(t *testing.T) {
	sexp, err := NewDataFrame([]DataFrameColumn{
		{Name: "x", Values: qap1.ArrayInt{qap1.IntVal(1), qap1.IntVal(2)}},
		{Name: "y", Values: qap1.ArrayStr{qap1.StrVal("a"), qap1.StrVal("b")}},
	})
	require.NoError(t, err)

	df, err := UnwrapDataFrame(sexp)
	require.NoError(t, err)
	require.Len(t, df.Columns, 2)
	assert.Equal(t, 2, df.NRow)
	assert.Equal(t, "x", df.Columns[0].Name)
	assert.Equal(t, "y", df.Columns[1].Name)

	col, ok := df.Column("y")
	require.True(t, ok)
	assert.Equal(t, qap1.ArrayStr{qap1.StrVal("a"), qap1.StrVal("b")}, col)

	_, ok = df.Column("z")
	assert.False(t, ok)
}

func TestUnwrapDataFrameRejectsNonHasAttr(t *testing.T) {
	_, err := UnwrapDataFrame(qap1.ArrayInt{qap1.IntVal(1)})
	assert.Error(t, err)
}

func TestUnwrapDataFrameRejectsMissingClass(t *testing.T) {
	sexp := qap1.HasAttr{
		Attr: qap1.ListTag{
			{Key: qap1.Str("names"), Value: qap1.ArrayStr{qap1.StrVal("x")}},
		},
		Inner: qap1.Vector{qap1.ArrayInt{qap1.IntVal(1)}},
	}
	_, err := UnwrapDataFrame(sexp)
	assert.Error(t, err)
}
