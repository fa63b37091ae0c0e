package rclient

import (
	"fmt"

	"github.com/marmos91/rserve-client/internal/protocol/qap1"
)

// DataFrameColumn is one named column of an outbound data frame.
type DataFrameColumn struct {
	Name   string
	Values qap1.Sexp
}

// NewDataFrame builds the HasAttr(ListTag, Vector) shape a data-frame
// upload requires: a "names"/"row.names"/"class" attribute list wrapping a
// plain Vector of the column values, in column order. Row numbers are
// 1-based and derived from the first column's length; callers are
// responsible for giving every column the same length.
func NewDataFrame(columns []DataFrameColumn) (qap1.Sexp, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("rclient: data frame must have at least one column")
	}

	rows := columnLength(columns[0].Values)

	names := make(qap1.ArrayStr, len(columns))
	values := make(qap1.Vector, len(columns))
	for i, col := range columns {
		names[i] = qap1.StrVal(col.Name)
		values[i] = col.Values
	}

	rowNames := make(qap1.ArrayInt, rows)
	for i := 0; i < rows; i++ {
		rowNames[i] = qap1.IntVal(int32(i + 1))
	}

	attrs := qap1.ListTag{
		{Key: qap1.Str("names"), Value: names},
		{Key: qap1.Str("row.names"), Value: rowNames},
		{Key: qap1.Str("class"), Value: qap1.ArrayStr{qap1.StrVal("data.frame")}},
	}

	return qap1.HasAttr{Attr: attrs, Inner: values}, nil
}

// DataFrame is the receive-side counterpart of NewDataFrame: the decoded
// columns and row count of a HasAttr data-frame value.
type DataFrame struct {
	Columns []DataFrameColumn
	NRow    int
}

// Column returns the named column and whether it was found.
func (df *DataFrame) Column(name string) (qap1.Sexp, bool) {
	for _, col := range df.Columns {
		if col.Name == name {
			return col.Values, true
		}
	}
	return nil, false
}

// UnwrapDataFrame decodes the HasAttr(ListTag{names, row.names, class},
// Vector) shape NewDataFrame produces back into a DataFrame. It errors if
// s is not that shape, or if its "class" attribute does not include
// "data.frame".
func UnwrapDataFrame(s qap1.Sexp) (*DataFrame, error) {
	ha, ok := s.(qap1.HasAttr)
	if !ok {
		return nil, fmt.Errorf("rclient: expected a HasAttr data frame, got %T", s)
	}
	attrs, ok := ha.Attr.(qap1.ListTag)
	if !ok {
		return nil, fmt.Errorf("rclient: expected ListTag attributes, got %T", ha.Attr)
	}
	vec, ok := ha.Inner.(qap1.Vector)
	if !ok {
		return nil, fmt.Errorf("rclient: expected a Vector of columns, got %T", ha.Inner)
	}

	var names qap1.ArrayStr
	var isDataFrame bool
	var nrow int
	for _, p := range attrs {
		switch keyString(p.Key) {
		case "names":
			arr, ok := p.Value.(qap1.ArrayStr)
			if !ok {
				return nil, fmt.Errorf("rclient: 'names' attribute is %T, not ArrayStr", p.Value)
			}
			names = arr
		case "class":
			classes, err := AsStrings(p.Value)
			if err != nil {
				return nil, fmt.Errorf("rclient: 'class' attribute: %w", err)
			}
			for _, c := range classes {
				if c == "data.frame" {
					isDataFrame = true
				}
			}
		case "row.names":
			// R sends automatic row names in compact form c(NA, -n).
			if rn, ok := p.Value.(qap1.ArrayInt); ok && len(rn) == 2 && rn[0].NA && !rn[1].NA {
				nrow = int(rn[1].Value)
				if nrow < 0 {
					nrow = -nrow
				}
			} else {
				nrow = columnLength(p.Value)
			}
		}
	}
	if !isDataFrame {
		return nil, fmt.Errorf("rclient: value is not a data.frame (missing 'data.frame' class)")
	}
	if len(names) != len(vec) {
		return nil, fmt.Errorf("rclient: %d column names but %d columns", len(names), len(vec))
	}

	columns := make([]DataFrameColumn, len(vec))
	for i, col := range vec {
		name := ""
		if !names[i].NA {
			name = names[i].Value
		}
		columns[i] = DataFrameColumn{Name: name, Values: col}
	}
	if nrow == 0 && len(columns) > 0 {
		nrow = columnLength(columns[0].Values)
	}

	return &DataFrame{Columns: columns, NRow: nrow}, nil
}

// columnLength reports how many rows a column's SEXP represents.
func columnLength(v qap1.Sexp) int {
	switch val := v.(type) {
	case qap1.ArrayStr:
		return len(val)
	case qap1.ArrayInt:
		return len(val)
	case qap1.ArrayDouble:
		return len(val)
	case qap1.ArrayBool:
		return len(val)
	case qap1.Vector:
		return len(val)
	default:
		return 0
	}
}
