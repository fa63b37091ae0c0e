package rclient

import (
	"fmt"

	"github.com/marmos91/rserve-client/internal/protocol/qap1"
)

// Unwrap converts a decoded Sexp into a plain Go value suitable for
// printing or further processing: nil (Null), string (Str/Sym), []any for
// every Array* type (elements are string, int32, float64 or bool, with nil
// for NA) and for a Vector, map[string]any for a ListTag (keyed by
// stringified tag), or map[string]any{"attr": ..., "value": ...} for an
// attributed value. It errors on Unimplemented and Closure, since this
// package has no plain-value rendering for either.
func Unwrap(v qap1.Sexp) (any, error) {
	switch val := v.(type) {
	case qap1.Null:
		return nil, nil

	case qap1.Str:
		return string(val), nil

	case qap1.Sym:
		return string(val), nil

	case qap1.ArrayStr:
		out := make([]any, len(val))
		for i, e := range val {
			if e.NA {
				out[i] = nil
			} else {
				out[i] = e.Value
			}
		}
		return out, nil

	case qap1.ArrayInt:
		out := make([]any, len(val))
		for i, e := range val {
			if e.NA {
				out[i] = nil
			} else {
				out[i] = e.Value
			}
		}
		return out, nil

	case qap1.ArrayDouble:
		out := make([]any, len(val))
		for i, e := range val {
			if e.NA {
				out[i] = nil
			} else {
				out[i] = e.Value
			}
		}
		return out, nil

	case qap1.ArrayBool:
		out := make([]any, len(val))
		for i, e := range val {
			if e.NA {
				out[i] = nil
			} else {
				out[i] = e.Value
			}
		}
		return out, nil

	case qap1.Vector:
		out := make([]any, len(val))
		for i, item := range val {
			u, err := Unwrap(item)
			if err != nil {
				return nil, fmt.Errorf("rclient: unwrap vector element %d: %w", i, err)
			}
			out[i] = u
		}
		return out, nil

	case qap1.ListTag:
		out := make(map[string]any, len(val))
		for _, p := range val {
			u, err := Unwrap(p.Value)
			if err != nil {
				return nil, fmt.Errorf("rclient: unwrap list entry %q: %w", keyString(p.Key), err)
			}
			out[keyString(p.Key)] = u
		}
		return out, nil

	case qap1.HasAttr:
		attr, err := Unwrap(val.Attr)
		if err != nil {
			return nil, fmt.Errorf("rclient: unwrap attribute: %w", err)
		}
		inner, err := Unwrap(val.Inner)
		if err != nil {
			return nil, fmt.Errorf("rclient: unwrap attributed value: %w", err)
		}
		return map[string]any{"attr": attr, "value": inner}, nil

	case qap1.Unimplemented:
		return nil, fmt.Errorf("rclient: cannot unwrap SEXP type 0x%02x: not decoded by this codec", val.Type)

	case qap1.Closure:
		return nil, fmt.Errorf("rclient: cannot unwrap a closure value")

	default:
		return nil, fmt.Errorf("rclient: cannot unwrap %T", v)
	}
}

// keyString renders a ListTag key (almost always a Str/Sym) as a map key;
// anything else falls back to its Go-syntax representation.
func keyString(k qap1.Sexp) string {
	switch val := k.(type) {
	case qap1.Str:
		return string(val)
	case qap1.Sym:
		return string(val)
	default:
		return fmt.Sprintf("%v", k)
	}
}

// AsStrings unwraps v as []string, returning an error if v is not an
// ArrayStr or contains an NA element.
func AsStrings(v qap1.Sexp) ([]string, error) {
	arr, ok := v.(qap1.ArrayStr)
	if !ok {
		return nil, fmt.Errorf("rclient: expected ArrayStr, got %T", v)
	}
	out := make([]string, len(arr))
	for i, e := range arr {
		if e.NA {
			return nil, fmt.Errorf("rclient: element %d is NA", i)
		}
		out[i] = e.Value
	}
	return out, nil
}

// AsInts unwraps v as []int32, returning an error if v is not an ArrayInt
// or contains an NA element.
func AsInts(v qap1.Sexp) ([]int32, error) {
	arr, ok := v.(qap1.ArrayInt)
	if !ok {
		return nil, fmt.Errorf("rclient: expected ArrayInt, got %T", v)
	}
	out := make([]int32, len(arr))
	for i, e := range arr {
		if e.NA {
			return nil, fmt.Errorf("rclient: element %d is NA", i)
		}
		out[i] = e.Value
	}
	return out, nil
}

// AsDoubles unwraps v as []float64, returning an error if v is not an
// ArrayDouble or contains an NA element.
func AsDoubles(v qap1.Sexp) ([]float64, error) {
	arr, ok := v.(qap1.ArrayDouble)
	if !ok {
		return nil, fmt.Errorf("rclient: expected ArrayDouble, got %T", v)
	}
	out := make([]float64, len(arr))
	for i, e := range arr {
		if e.NA {
			return nil, fmt.Errorf("rclient: element %d is NA", i)
		}
		out[i] = e.Value
	}
	return out, nil
}
