// Package frame provides the minimal tabular value types the codec
// serializes under the pandas payload shapes: a DataFrame of column-keyed row
// records and a Series of positionally indexed values.
package frame

import (
	"reflect"
	"sort"
	"strconv"
)

// DataFrame is an ordered set of columns over row records.
type DataFrame struct {
	columns []string
	rows    []map[string]any
}

// New builds a DataFrame with an explicit column order. Columns absent from a
// row read as nil.
func New(columns []string, rows []map[string]any) *DataFrame {
	return &DataFrame{
		columns: append([]string(nil), columns...),
		rows:    cloneRows(rows),
	}
}

// FromRecords builds a DataFrame from row records, with columns ordered by
// name for determinism.
func FromRecords(rows []map[string]any) *DataFrame {
	seen := map[string]struct{}{}
	var columns []string
	for _, r := range rows {
		for k := range r {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				columns = append(columns, k)
			}
		}
	}
	sort.Strings(columns)
	return New(columns, rows)
}

func (df *DataFrame) Columns() []string { return append([]string(nil), df.columns...) }
func (df *DataFrame) Len() int          { return len(df.rows) }

// Records returns the row records in order.
func (df *DataFrame) Records() []map[string]any { return cloneRows(df.rows) }

// At returns the value at (row, column).
func (df *DataFrame) At(row int, column string) any { return df.rows[row][column] }

// Dict is the plain-mapping extraction used by the sanitizer:
// column -> {row index -> value}.
func (df *DataFrame) Dict() map[string]any {
	out := make(map[string]any, len(df.columns))
	for _, col := range df.columns {
		byIndex := make(map[string]any, len(df.rows))
		for i, r := range df.rows {
			byIndex[strconv.Itoa(i)] = r[col]
		}
		out[col] = byIndex
	}
	return out
}

// Equal reports column-set and record equality. Records serialize as JSON
// objects, so column order is presentation only and is normalized to sorted
// on decode; it does not participate in equality.
func (df *DataFrame) Equal(o *DataFrame) bool {
	if df == nil || o == nil {
		return df == o
	}
	a := append([]string(nil), df.columns...)
	b := append([]string(nil), o.columns...)
	sort.Strings(a)
	sort.Strings(b)
	return reflect.DeepEqual(a, b) && reflect.DeepEqual(df.rows, o.rows)
}

func cloneRows(rows []map[string]any) []map[string]any {
	out := make([]map[string]any, len(rows))
	for i, r := range rows {
		m := make(map[string]any, len(r))
		for k, v := range r {
			m[k] = v
		}
		out[i] = m
	}
	return out
}

// Series is a named, positionally indexed column of values. The name is not
// part of the wire payload.
type Series struct {
	name   string
	values []any
}

// NewSeries builds a Series.
func NewSeries(name string, values []any) *Series {
	return &Series{name: name, values: append([]any(nil), values...)}
}

func (s *Series) Name() string  { return s.name }
func (s *Series) Len() int      { return len(s.values) }
func (s *Series) Values() []any { return append([]any(nil), s.values...) }
func (s *Series) At(i int) any  { return s.values[i] }

// Dict is the plain-mapping extraction used by the sanitizer:
// {stringified index -> value}.
func (s *Series) Dict() map[string]any {
	out := make(map[string]any, len(s.values))
	for i, v := range s.values {
		out[strconv.Itoa(i)] = v
	}
	return out
}

// Equal reports value equality; names are compared too.
func (s *Series) Equal(o *Series) bool {
	if s == nil || o == nil {
		return s == o
	}
	return s.name == o.name && reflect.DeepEqual(s.values, o.values)
}
