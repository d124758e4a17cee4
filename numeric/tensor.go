package numeric

import (
	"fmt"
	"strings"
)

// TensorType names a tensor's element type with its torch-style wire tag.
type TensorType string

const (
	DoubleTensor        TensorType = "torch.DoubleTensor"
	FloatTensor         TensorType = "torch.FloatTensor"
	LongTensor          TensorType = "torch.LongTensor"
	IntTensor           TensorType = "torch.IntTensor"
	BoolTensor          TensorType = "torch.BoolTensor"
	ComplexFloatTensor  TensorType = "torch.ComplexFloatTensor"
	ComplexDoubleTensor TensorType = "torch.ComplexDoubleTensor"
)

// Complex reports whether the tag names a complex element type.
func (t TensorType) Complex() bool { return strings.Contains(string(t), "Complex") }

func (t TensorType) elem() (DType, error) {
	switch t {
	case DoubleTensor:
		return Float64, nil
	case FloatTensor:
		return Float32, nil
	case LongTensor:
		return Int64, nil
	case IntTensor:
		return Int32, nil
	case BoolTensor:
		return Bool, nil
	case ComplexFloatTensor:
		return Complex64, nil
	case ComplexDoubleTensor:
		return Complex128, nil
	}
	return "", fmt.Errorf("numeric: unsupported tensor type %q", t)
}

// Tensor is an n-dimensional tensor sharing Array's storage model but tagged
// with a torch-style element type.
type Tensor struct {
	ttype TensorType
	arr   *Array
}

// NewTensor builds a tensor from flat row-major data.
func NewTensor(ttype TensorType, shape []int, flat []any) (*Tensor, error) {
	elem, err := ttype.elem()
	if err != nil {
		return nil, err
	}
	arr, err := NewArray(elem, shape, flat)
	if err != nil {
		return nil, err
	}
	return &Tensor{ttype: ttype, arr: arr}, nil
}

func (t *Tensor) Type() TensorType { return t.ttype }
func (t *Tensor) Complex() bool    { return t.ttype.Complex() }
func (t *Tensor) Shape() []int     { return t.arr.Shape() }
func (t *Tensor) Len() int         { return t.arr.Len() }
func (t *Tensor) Flat() []any      { return t.arr.Flat() }
func (t *Tensor) Nested() any      { return t.arr.Nested() }

// RealImag emits the paired real and imaginary nested lists.
func (t *Tensor) RealImag() (any, any) { return t.arr.RealImag() }

// Equal reports type, shape, and element equality.
func (t *Tensor) Equal(o *Tensor) bool {
	if t == nil || o == nil {
		return t == o
	}
	return t.ttype == o.ttype && t.arr.Equal(o.arr)
}

// TensorFromNested rebuilds a tensor from nested-list data.
func TensorFromNested(ttype TensorType, nested any) (*Tensor, error) {
	elem, err := ttype.elem()
	if err != nil {
		return nil, err
	}
	arr, err := FromNested(elem, nested)
	if err != nil {
		return nil, err
	}
	return &Tensor{ttype: ttype, arr: arr}, nil
}

// TensorFromRealImag rebuilds a complex tensor by pairwise combining the real
// and imaginary nested lists.
func TensorFromRealImag(ttype TensorType, re, im any) (*Tensor, error) {
	elem, err := ttype.elem()
	if err != nil {
		return nil, err
	}
	if !elem.Complex() {
		return nil, fmt.Errorf("numeric: tensor type %s is not complex", ttype)
	}
	arr, err := FromRealImag(elem, re, im)
	if err != nil {
		return nil, err
	}
	return &Tensor{ttype: ttype, arr: arr}, nil
}
