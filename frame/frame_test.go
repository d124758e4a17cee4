package frame_test

import (
	"reflect"
	"testing"

	"github.com/reoring/mson/frame"
)

func TestDataFrame_Records(t *testing.T) {
	df := frame.New([]string{"a", "b"}, []map[string]any{
		{"a": 1.0, "b": "x"},
		{"a": 2.0, "b": "y"},
	})
	if df.Len() != 2 {
		t.Fatalf("len: %d", df.Len())
	}
	recs := df.Records()
	recs[0]["a"] = 99.0
	if df.At(0, "a") != 1.0 {
		t.Fatal("Records must not alias internal storage")
	}
}

func TestDataFrame_FromRecordsSortsColumns(t *testing.T) {
	df := frame.FromRecords([]map[string]any{{"b": 1.0, "a": 2.0}})
	if !reflect.DeepEqual(df.Columns(), []string{"a", "b"}) {
		t.Fatalf("columns: %v", df.Columns())
	}
}

func TestDataFrame_EqualIgnoresColumnOrder(t *testing.T) {
	rows := []map[string]any{{"a": 1.0, "b": 2.0}}
	x := frame.New([]string{"b", "a"}, rows)
	y := frame.New([]string{"a", "b"}, rows)
	if !x.Equal(y) {
		t.Fatal("column order must not participate in equality")
	}
	if x.Equal(frame.New([]string{"a", "c"}, rows)) {
		t.Fatal("different column sets must not compare equal")
	}
}

func TestDataFrame_Dict(t *testing.T) {
	df := frame.New([]string{"a"}, []map[string]any{{"a": 1.0}, {"a": 2.0}})
	d := df.Dict()
	col := d["a"].(map[string]any)
	if col["0"] != 1.0 || col["1"] != 2.0 {
		t.Fatalf("dict: %#v", d)
	}
}

func TestSeries_DictAndEqual(t *testing.T) {
	s := frame.NewSeries("heights", []any{1.0, 2.0})
	d := s.Dict()
	if d["0"] != 1.0 || d["1"] != 2.0 {
		t.Fatalf("dict: %#v", d)
	}
	if !s.Equal(frame.NewSeries("heights", []any{1.0, 2.0})) {
		t.Fatal("equal series must compare equal")
	}
	if s.Equal(frame.NewSeries("heights", []any{1.0, 3.0})) {
		t.Fatal("different values must not compare equal")
	}
}
