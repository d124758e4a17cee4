// Package numeric provides the dense numeric array and tensor value types the
// codec serializes under the numpy/torch payload shapes: a dtype tag, a
// shape, and flat element storage with nested-list emission.
package numeric

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// DType names an array element type on the wire.
type DType string

const (
	Float64    DType = "float64"
	Float32    DType = "float32"
	Int64      DType = "int64"
	Int32      DType = "int32"
	Uint64     DType = "uint64"
	Bool       DType = "bool"
	Complex64  DType = "complex64"
	Complex128 DType = "complex128"
)

// Complex reports whether the dtype stores complex elements, which serialize
// as a [real, imag] nested pair.
func (d DType) Complex() bool { return strings.HasPrefix(string(d), "complex") }

var errRagged = errors.New("numeric: ragged nested data")

// Array is an n-dimensional numeric array: row-major flat storage plus shape.
type Array struct {
	dtype DType
	shape []int
	data  []any
}

// NewArray builds an array from flat row-major data. The element count must
// match the shape's volume; an empty shape is zero-dimensional with a volume
// of one, so it holds exactly one element.
func NewArray(dtype DType, shape []int, flat []any) (*Array, error) {
	n := 1
	for _, s := range shape {
		if s < 0 {
			return nil, fmt.Errorf("numeric: negative dimension %d", s)
		}
		n *= s
	}
	if n != len(flat) {
		return nil, fmt.Errorf("numeric: shape %v holds %d elements, got %d", shape, n, len(flat))
	}
	coerced := make([]any, len(flat))
	for i, v := range flat {
		cv, err := coerce(dtype, v)
		if err != nil {
			return nil, err
		}
		coerced[i] = cv
	}
	return &Array{dtype: dtype, shape: append([]int(nil), shape...), data: coerced}, nil
}

// FromFloat64 builds a one-dimensional float64 array.
func FromFloat64(vals []float64) *Array {
	flat := make([]any, len(vals))
	for i, v := range vals {
		flat[i] = v
	}
	a, _ := NewArray(Float64, []int{len(vals)}, flat)
	return a
}

// FromInt64 builds a one-dimensional int64 array.
func FromInt64(vals []int64) *Array {
	flat := make([]any, len(vals))
	for i, v := range vals {
		flat[i] = v
	}
	a, _ := NewArray(Int64, []int{len(vals)}, flat)
	return a
}

// FromComplex128 builds a one-dimensional complex128 array.
func FromComplex128(vals []complex128) *Array {
	flat := make([]any, len(vals))
	for i, v := range vals {
		flat[i] = v
	}
	a, _ := NewArray(Complex128, []int{len(vals)}, flat)
	return a
}

func (a *Array) DType() DType { return a.dtype }
func (a *Array) Shape() []int { return append([]int(nil), a.shape...) }
func (a *Array) Len() int     { return len(a.data) }
func (a *Array) Flat() []any  { return append([]any(nil), a.data...) }
func (a *Array) At(i int) any { return a.data[i] }

// Nested emits the nested-list representation ([1.5 2.5], [[1 2] [3 4]], ...).
// A zero-dimensional array emits its single element.
func (a *Array) Nested() any {
	if len(a.shape) == 0 {
		if len(a.data) == 1 {
			return a.data[0]
		}
		return []any{}
	}
	nested, _ := buildNested(a.shape, a.data)
	return nested
}

// RealImag emits the paired real and imaginary nested lists of a complex
// array. Elements of non-complex arrays report a zero imaginary part.
func (a *Array) RealImag() (any, any) {
	re := make([]any, len(a.data))
	im := make([]any, len(a.data))
	for i, v := range a.data {
		c, ok := v.(complex128)
		if !ok {
			re[i], im[i] = v, 0.0
			continue
		}
		re[i], im[i] = real(c), imag(c)
	}
	reN, _ := buildNested(a.shape, re)
	imN, _ := buildNested(a.shape, im)
	return reN, imN
}

// Equal reports dtype, shape, and element equality.
func (a *Array) Equal(b *Array) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.dtype == b.dtype &&
		reflect.DeepEqual(a.shape, b.shape) &&
		reflect.DeepEqual(a.data, b.data)
}

// FromNested rebuilds an array from nested-list data, inferring the shape and
// coercing elements to the dtype. Ragged nesting is an error.
func FromNested(dtype DType, nested any) (*Array, error) {
	shape, err := inferShape(nested)
	if err != nil {
		return nil, err
	}
	flat := make([]any, 0)
	if err := flattenNested(nested, len(shape), &flat); err != nil {
		return nil, err
	}
	return NewArray(dtype, shape, flat)
}

// FromRealImag rebuilds a complex array by pairwise combining the real and
// imaginary nested lists.
func FromRealImag(dtype DType, re, im any) (*Array, error) {
	if !dtype.Complex() {
		return nil, fmt.Errorf("numeric: dtype %s is not complex", dtype)
	}
	ra, err := FromNested(Float64, re)
	if err != nil {
		return nil, err
	}
	ia, err := FromNested(Float64, im)
	if err != nil {
		return nil, err
	}
	if !reflect.DeepEqual(ra.shape, ia.shape) {
		return nil, fmt.Errorf("numeric: real shape %v != imag shape %v", ra.shape, ia.shape)
	}
	flat := make([]any, len(ra.data))
	for i := range ra.data {
		flat[i] = complex(ra.data[i].(float64), ia.data[i].(float64))
	}
	return NewArray(dtype, ra.shape, flat)
}

// ---- helpers ----

func buildNested(shape []int, data []any) (any, int) {
	if len(shape) == 0 {
		return nil, 0
	}
	if len(shape) == 1 {
		out := make([]any, shape[0])
		copy(out, data[:shape[0]])
		return out, shape[0]
	}
	out := make([]any, shape[0])
	used := 0
	for i := 0; i < shape[0]; i++ {
		sub, n := buildNested(shape[1:], data[used:])
		out[i] = sub
		used += n
	}
	return out, used
}

func inferShape(nested any) ([]int, error) {
	list, ok := nested.([]any)
	if !ok {
		return nil, nil
	}
	shape := []int{len(list)}
	if len(list) == 0 {
		return shape, nil
	}
	first, err := inferShape(list[0])
	if err != nil {
		return nil, err
	}
	for _, item := range list[1:] {
		s, err := inferShape(item)
		if err != nil {
			return nil, err
		}
		if !reflect.DeepEqual(s, first) {
			return nil, errRagged
		}
	}
	return append(shape, first...), nil
}

func flattenNested(nested any, depth int, out *[]any) error {
	if depth == 0 {
		*out = append(*out, nested)
		return nil
	}
	list, ok := nested.([]any)
	if !ok {
		return errRagged
	}
	for _, item := range list {
		if err := flattenNested(item, depth-1, out); err != nil {
			return err
		}
	}
	return nil
}

// coerce converts a raw element (native or freshly parsed JSON) into the
// dtype's canonical Go representation.
func coerce(dtype DType, v any) (any, error) {
	switch dtype {
	case Float64, Float32:
		switch x := v.(type) {
		case float64:
			return x, nil
		case float32:
			return float64(x), nil
		case int:
			return float64(x), nil
		case int64:
			return float64(x), nil
		}
	case Int64, Int32:
		switch x := v.(type) {
		case int64:
			return x, nil
		case int:
			return int64(x), nil
		case int32:
			return int64(x), nil
		case float64:
			return int64(x), nil
		}
	case Uint64:
		switch x := v.(type) {
		case uint64:
			return x, nil
		case uint:
			return uint64(x), nil
		case int:
			return uint64(x), nil
		case int64:
			return uint64(x), nil
		case float64:
			return uint64(x), nil
		}
	case Bool:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case Complex64, Complex128:
		switch x := v.(type) {
		case complex128:
			return x, nil
		case complex64:
			return complex128(x), nil
		case float64:
			return complex(x, 0), nil
		}
	default:
		return nil, fmt.Errorf("numeric: unsupported dtype %q", dtype)
	}
	return nil, fmt.Errorf("numeric: cannot coerce %T to %s", v, dtype)
}

// Scalar is a zero-dimensional numeric wrapper. Encoding and sanitizing
// unwrap it to its native value instead of tagging it.
type Scalar struct {
	DType DType
	Value any
}

// Native returns the wrapped value.
func (s Scalar) Native() any { return s.Value }
