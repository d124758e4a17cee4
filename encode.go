package mson

import (
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/reoring/mson/frame"
	"github.com/reoring/mson/numeric"
)

// Timestamp formats: fractional seconds are printed only when nonzero, and
// decoding tries the fractional layout before the whole-second one.
const (
	timeLayoutFrac  = "2006-01-02 15:04:05.000000"
	timeLayoutPlain = "2006-01-02 15:04:05"
)

func formatTimestamp(t time.Time) string {
	if t.Nanosecond() == 0 {
		return t.Format(timeLayoutPlain)
	}
	return t.Format(timeLayoutFrac)
}

// Encode converts v into a JSON-safe tree of maps, slices, and primitives,
// tagging every value that is not natively representable.
func Encode(v any) (any, error) {
	return encodeValue(v, newVisitSet())
}

func encodeValue(v any, seen *visitSet) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case bool, string, float64, float32,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return x, nil
	case []any:
		out := make([]any, len(x))
		for i, it := range x {
			ev, err := encodeValue(it, seen)
			if err != nil {
				return nil, err
			}
			out[i] = ev
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, it := range x {
			ev, err := encodeValue(it, seen)
			if err != nil {
				return nil, err
			}
			out[k] = ev
		}
		return out, nil
	}
	// Typed containers ([]float64, map[string]int, ...) encode element-wise
	// before any tagging applies.
	if !isBuiltinLeaf(v) && !isDerivable(v) {
		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.Slice, reflect.Array:
			if rv.Kind() == reflect.Slice && rv.IsNil() {
				return nil, nil
			}
			out := make([]any, rv.Len())
			for i := 0; i < rv.Len(); i++ {
				ev, err := encodeValue(rv.Index(i).Interface(), seen)
				if err != nil {
					return nil, err
				}
				out[i] = ev
			}
			return out, nil
		case reflect.Map:
			out := make(map[string]any, rv.Len())
			iter := rv.MapRange()
			for iter.Next() {
				ev, err := encodeValue(iter.Value().Interface(), seen)
				if err != nil {
					return nil, err
				}
				out[fmt.Sprint(iter.Key().Interface())] = ev
			}
			return out, nil
		case reflect.Bool, reflect.String,
			reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
			reflect.Float32, reflect.Float64:
			// Named basic types that are not registered enums encode as
			// their underlying value.
			if _, registered := lookupType(rv.Type()); !registered {
				if rv.Kind() == reflect.Bool {
					return rv.Bool(), nil
				}
				return enumValue(rv), nil
			}
		}
	}
	d, err := toTagged(v, seen)
	if err != nil {
		return nil, err
	}
	return encodeTree(d, seen)
}

// encodeTree re-encodes the values of a freshly tagged map or the payload of
// an unwrapped scalar, so that nested non-native leaves are tagged too.
func encodeTree(d any, seen *visitSet) (any, error) {
	switch t := d.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, v := range t {
			ev, err := encodeValue(v, seen)
			if err != nil {
				return nil, err
			}
			out[k] = ev
		}
		return out, nil
	case []any:
		return encodeValue(t, seen)
	default:
		return encodeValue(t, seen)
	}
}

// toTagged is the fixed-priority dispatch. First match wins; the order is
// load-bearing for values matching several branches.
func toTagged(v any, seen *visitSet) (any, error) {
	// 1. timestamp
	if t, ok := v.(time.Time); ok {
		return map[string]any{
			keyModule: "datetime", keyClass: "datetime",
			"string": formatTimestamp(t),
		}, nil
	}
	// 2. unique identifier
	if u, ok := v.(uuid.UUID); ok {
		return map[string]any{
			keyModule: "uuid", keyClass: "UUID",
			"string": u.String(),
		}, nil
	}
	// 3. filesystem path
	if p, ok := v.(Path); ok {
		return map[string]any{
			keyModule: "pathlib", keyClass: "Path",
			"string": string(p),
		}, nil
	}
	// 4. tensor
	if t, ok := v.(*numeric.Tensor); ok {
		d := map[string]any{
			keyModule: "torch", keyClass: "Tensor",
			"dtype": string(t.Type()),
		}
		if t.Complex() {
			re, im := t.RealImag()
			d["data"] = []any{re, im}
		} else {
			d["data"] = t.Nested()
		}
		return d, nil
	}
	// 5. numeric array; a zero-dimensional scalar wrapper unwraps instead
	if a, ok := v.(*numeric.Array); ok {
		d := map[string]any{
			keyModule: "numpy", keyClass: "array",
			"dtype": string(a.DType()),
		}
		if a.DType().Complex() {
			re, im := a.RealImag()
			d["data"] = []any{re, im}
		} else {
			d["data"] = a.Nested()
		}
		return d, nil
	}
	if s, ok := v.(numeric.Scalar); ok {
		return s.Native(), nil
	}
	// 6. tabular frame / column: data is JSON text of recursively encoded records
	if df, ok := v.(*frame.DataFrame); ok {
		text, err := encodeRecordsJSON(df.Records(), seen)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			keyModule: "pandas", keyClass: "DataFrame", "data": text,
		}, nil
	}
	if s, ok := v.(*frame.Series); ok {
		indexed := make(map[string]any, s.Len())
		for i, val := range s.Values() {
			ev, err := encodeValue(val, seen)
			if err != nil {
				return nil, err
			}
			indexed[strconv.Itoa(i)] = ev
		}
		text, err := getDriver().Marshal(indexed)
		if err != nil {
			return nil, wrapError(CodeParse, "marshal failed", err)
		}
		return map[string]any{
			keyModule: "pandas", keyClass: "Series", "data": string(text),
		}, nil
	}
	// 7. opaque identifier
	if oid, ok := v.(primitive.ObjectID); ok {
		return map[string]any{
			keyModule: "bson.objectid", keyClass: "ObjectId",
			"oid": oid.Hex(),
		}, nil
	}
	// 8. callable, unless the value is itself derivable
	if isCallable(v) && !isDerivable(v) {
		return encodeCallable(v, seen)
	}

	// 9-12. model / dataclass / derivable / enum, then ensure tags.
	d, err := baseFields(v, seen)
	if err != nil {
		return nil, err
	}
	attachIdentity(d, reflect.TypeOf(v))
	if _, ok := d[keyVersion]; !ok {
		version := any(nil)
		if e, registered := lookupType(derefType(reflect.TypeOf(v))); registered && e.version != "" {
			version = e.version
		}
		d[keyVersion] = version
	}
	return d, nil
}

// baseFields produces the pre-tag dict for the generic branches of the
// dispatch: model extraction, structural extraction for plain structs,
// derivation for derivable values, enum value payloads.
func baseFields(v any, seen *visitSet) (map[string]any, error) {
	if m, ok := v.(DictProvider); ok {
		return m.ModelDict(), nil
	}
	t := derefType(reflect.TypeOf(v))
	if t.Kind() == reflect.Struct && !isDerivable(v) {
		return structExtract(v, seen)
	}
	if d, ok := v.(Dicter); ok {
		return d.AsDict()
	}
	if e, registered := lookupType(t); registered {
		if e.enum {
			rv := reflect.ValueOf(v)
			for rv.Kind() == reflect.Pointer {
				rv = rv.Elem()
			}
			return map[string]any{"value": enumValue(rv)}, nil
		}
		return derive(v, seen)
	}
	return nil, typedError(CodeNotSerializable, reflect.TypeOf(v).String(),
		"value is not JSON serializable")
}

// isDerivable reports whether v has a derivation path: a custom AsDict or a
// registered non-enum type.
func isDerivable(v any) bool {
	if _, ok := v.(Dicter); ok {
		return true
	}
	t := reflect.TypeOf(v)
	if t == nil {
		return false
	}
	e, ok := lookupType(derefType(t))
	return ok && !e.enum
}

func isCallable(v any) bool {
	if _, ok := v.(Bound); ok {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Func && !rv.IsNil()
}

func encodeRecordsJSON(records []map[string]any, seen *visitSet) (string, error) {
	out := make([]any, len(records))
	for i, rec := range records {
		er, err := encodeValue(rec, seen)
		if err != nil {
			return "", err
		}
		out[i] = er
	}
	b, err := getDriver().Marshal(out)
	if err != nil {
		return "", wrapError(CodeParse, "marshal failed", err)
	}
	return string(b), nil
}
