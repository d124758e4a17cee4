package numeric_test

import (
	"reflect"
	"testing"

	"github.com/reoring/mson/numeric"
)

func TestArray_NestedAndBack(t *testing.T) {
	a, err := numeric.NewArray(numeric.Float64, []int{2, 3}, []any{1.0, 2.0, 3.0, 4.0, 5.0, 6.0})
	if err != nil {
		t.Fatal(err)
	}
	nested := a.Nested()
	want := []any{[]any{1.0, 2.0, 3.0}, []any{4.0, 5.0, 6.0}}
	if !reflect.DeepEqual(nested, want) {
		t.Fatalf("nested: %#v", nested)
	}
	b, err := numeric.FromNested(numeric.Float64, nested)
	if err != nil {
		t.Fatal(err)
	}
	if !a.Equal(b) {
		t.Fatalf("round trip through nesting lost data: %#v", b)
	}
}

func TestArray_ShapeMismatch(t *testing.T) {
	if _, err := numeric.NewArray(numeric.Float64, []int{3}, []any{1.0}); err == nil {
		t.Fatal("expected shape mismatch error")
	}
}

func TestArray_ZeroDimHoldsExactlyOneElement(t *testing.T) {
	if _, err := numeric.NewArray(numeric.Float64, nil, nil); err == nil {
		t.Fatal("a zero-dimensional array requires one element")
	}
	a, err := numeric.NewArray(numeric.Float64, []int{}, []any{2.5})
	if err != nil {
		t.Fatal(err)
	}
	if a.Nested() != 2.5 {
		t.Fatalf("zero-dim emission: %v", a.Nested())
	}
}

func TestArray_RaggedNestedFails(t *testing.T) {
	ragged := []any{[]any{1.0, 2.0}, []any{3.0}}
	if _, err := numeric.FromNested(numeric.Float64, ragged); err == nil {
		t.Fatal("expected ragged error")
	}
}

func TestArray_IntCoercionFromJSONNumbers(t *testing.T) {
	a, err := numeric.FromNested(numeric.Int64, []any{1.0, 2.0, 3.0})
	if err != nil {
		t.Fatal(err)
	}
	if a.At(0) != int64(1) {
		t.Fatalf("coercion: %v (%T)", a.At(0), a.At(0))
	}
}

func TestArray_ComplexRealImag(t *testing.T) {
	a := numeric.FromComplex128([]complex128{1 + 2i, 3 - 1i})
	re, im := a.RealImag()
	if !reflect.DeepEqual(re, []any{1.0, 3.0}) {
		t.Fatalf("real: %#v", re)
	}
	if !reflect.DeepEqual(im, []any{2.0, -1.0}) {
		t.Fatalf("imag: %#v", im)
	}
	b, err := numeric.FromRealImag(numeric.Complex128, re, im)
	if err != nil {
		t.Fatal(err)
	}
	if !a.Equal(b) {
		t.Fatalf("complex recombination lost data: %#v", b)
	}
}

func TestFromRealImag_ShapeMismatchFails(t *testing.T) {
	_, err := numeric.FromRealImag(numeric.Complex128, []any{1.0, 2.0}, []any{3.0})
	if err == nil {
		t.Fatal("expected shape mismatch error")
	}
}

func TestTensor_TypeMapping(t *testing.T) {
	tt, err := numeric.NewTensor(numeric.LongTensor, []int{2}, []any{1.0, 2.0})
	if err != nil {
		t.Fatal(err)
	}
	if tt.Flat()[0] != int64(1) {
		t.Fatalf("element coercion: %v", tt.Flat())
	}
	if tt.Complex() {
		t.Fatal("LongTensor is not complex")
	}
	if _, err := numeric.NewTensor(numeric.TensorType("torch.Imaginary"), []int{0}, nil); err == nil {
		t.Fatal("expected unsupported tensor type error")
	}
}

func TestTensor_ComplexRoundTrip(t *testing.T) {
	tt, err := numeric.NewTensor(numeric.ComplexDoubleTensor, []int{2}, []any{complex(1, 2), complex(3, 4)})
	if err != nil {
		t.Fatal(err)
	}
	re, im := tt.RealImag()
	back, err := numeric.TensorFromRealImag(numeric.ComplexDoubleTensor, re, im)
	if err != nil {
		t.Fatal(err)
	}
	if !tt.Equal(back) {
		t.Fatalf("complex tensor recombination lost data: %#v", back)
	}
}
