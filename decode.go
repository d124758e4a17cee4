package mson

import (
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/reoring/mson/frame"
	"github.com/reoring/mson/numeric"
)

// Decoder reconstructs values from self-describing JSON. The zero value is
// not ready for use; NewDecoder wires the process-default redirect table.
type Decoder struct {
	// Redirects is applied to every tagged node before reconstruction,
	// exactly once per node.
	Redirects RedirectTable
	// Strict turns the lenient keep-as-map fallback for unresolvable types
	// into an error.
	Strict bool
}

// DecodeOption customizes NewDecoder.
type DecodeOption func(*Decoder)

// WithRedirects supplies an explicit redirect table instead of the
// process-default ~/.mson.yaml one.
func WithRedirects(t RedirectTable) DecodeOption {
	return func(d *Decoder) { d.Redirects = t }
}

// Strict makes unresolvable tagged nodes an error instead of returning them
// as plain maps.
func Strict() DecodeOption {
	return func(d *Decoder) { d.Strict = true }
}

// NewDecoder builds a Decoder. Without WithRedirects it lazily loads the
// per-user redirect file; that load happens exactly once per process.
func NewDecoder(opts ...DecodeOption) *Decoder {
	d := &Decoder{}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Unmarshal parses JSON text and resolves every tagged node it contains.
// Malformed JSON is always a hard failure.
func (d *Decoder) Unmarshal(data []byte) (any, error) {
	var tree any
	if err := getDriver().Unmarshal(data, &tree); err != nil {
		return nil, wrapError(CodeParse, "malformed JSON", err)
	}
	return d.Resolve(tree)
}

// Resolve recursively reconstructs a parsed JSON tree: tagged nodes become
// values, callable references become callables, lists and untagged maps are
// traversed, primitives pass through.
func (d *Decoder) Resolve(node any) (any, error) {
	switch n := node.(type) {
	case map[string]any:
		_, hasModule := n[keyModule]
		if _, hasClass := n[keyClass]; hasModule && hasClass {
			return d.resolveTagged(n)
		}
		if _, hasCallable := n[keyCallable]; hasModule && hasCallable {
			return d.resolveCallable(n)
		}
		out := make(map[string]any, len(n))
		for k, v := range n {
			rv, err := d.Resolve(v)
			if err != nil {
				return nil, err
			}
			out[k] = rv
		}
		return out, nil
	case []any:
		out := make([]any, len(n))
		for i, v := range n {
			rv, err := d.Resolve(v)
			if err != nil {
				return nil, err
			}
			out[i] = rv
		}
		return out, nil
	default:
		return node, nil
	}
}

func (d *Decoder) redirects() (RedirectTable, error) {
	if d.Redirects != nil {
		return d.Redirects, nil
	}
	return processRedirects()
}

func (d *Decoder) resolveTagged(n map[string]any) (any, error) {
	id := Identity{
		Module: asString(n[keyModule]),
		Class:  asString(n[keyClass]),
	}
	table, err := d.redirects()
	if err != nil {
		return nil, err
	}
	if target, ok := table.Lookup(id); ok {
		id = target
	}

	if v, ok, err := d.resolveBuiltin(id, n); ok || err != nil {
		return v, err
	}

	if e, ok := lookupName(id); ok {
		fields := make(map[string]any)
		for k, v := range n {
			if strings.HasPrefix(k, "@") {
				continue
			}
			rv, err := d.Resolve(v)
			if err != nil {
				return nil, err
			}
			fields[k] = rv
		}
		return reconstruct(e, fields)
	}

	if d.Strict {
		return nil, &Error{Code: CodeUnresolvedType, Type: id.String(),
			Message: "no registered constructor for tagged value"}
	}
	// Lenient default: keep the node as a plain map, resolving the non-tag
	// values so nested reconstructible content still comes back.
	out := make(map[string]any, len(n))
	for k, v := range n {
		if strings.HasPrefix(k, "@") {
			out[k] = v
			continue
		}
		rv, err := d.Resolve(v)
		if err != nil {
			return nil, err
		}
		out[k] = rv
	}
	return out, nil
}

// resolveBuiltin handles the seven fixed payload shapes. ok reports whether
// the identity matched a built-in.
func (d *Decoder) resolveBuiltin(id Identity, n map[string]any) (any, bool, error) {
	switch {
	case id.Module == "datetime" && id.Class == "datetime":
		s := asString(n["string"])
		if t, err := time.Parse(timeLayoutFrac, s); err == nil {
			return t, true, nil
		}
		t, err := time.Parse(timeLayoutPlain, s)
		if err != nil {
			return nil, true, wrapError(CodeParse, "invalid datetime payload", err)
		}
		return t, true, nil

	case id.Module == "uuid" && id.Class == "UUID":
		u, err := uuid.Parse(asString(n["string"]))
		if err != nil {
			return nil, true, wrapError(CodeParse, "invalid UUID payload", err)
		}
		return u, true, nil

	case id.Module == "pathlib" && id.Class == "Path":
		return Path(asString(n["string"])), true, nil

	case id.Module == "numpy" && id.Class == "array":
		dtype := numeric.DType(asString(n["dtype"]))
		if dtype.Complex() {
			re, im, err := splitRealImag(n["data"])
			if err != nil {
				return nil, true, err
			}
			a, err := numeric.FromRealImag(dtype, re, im)
			if err != nil {
				return nil, true, wrapError(CodeShape, "invalid complex array payload", err)
			}
			return a, true, nil
		}
		a, err := numeric.FromNested(dtype, n["data"])
		if err != nil {
			return nil, true, wrapError(CodeShape, "invalid array payload", err)
		}
		return a, true, nil

	case id.Module == "torch" && id.Class == "Tensor":
		tt := numeric.TensorType(asString(n["dtype"]))
		if tt.Complex() {
			re, im, err := splitRealImag(n["data"])
			if err != nil {
				return nil, true, err
			}
			t, err := numeric.TensorFromRealImag(tt, re, im)
			if err != nil {
				return nil, true, wrapError(CodeShape, "invalid complex tensor payload", err)
			}
			return t, true, nil
		}
		t, err := numeric.TensorFromNested(tt, n["data"])
		if err != nil {
			return nil, true, wrapError(CodeShape, "invalid tensor payload", err)
		}
		return t, true, nil

	case id.Module == "pandas" && id.Class == "DataFrame":
		var records []any
		if err := getDriver().Unmarshal([]byte(asString(n["data"])), &records); err != nil {
			return nil, true, wrapError(CodeParse, "malformed DataFrame payload", err)
		}
		resolved, err := d.Resolve(records)
		if err != nil {
			return nil, true, err
		}
		rows := make([]map[string]any, 0, len(records))
		for _, r := range resolved.([]any) {
			rec, ok := r.(map[string]any)
			if !ok {
				return nil, true, newError(CodeParse, "DataFrame records must be objects")
			}
			rows = append(rows, rec)
		}
		return frame.FromRecords(rows), true, nil

	case id.Module == "pandas" && id.Class == "Series":
		var indexed map[string]any
		if err := getDriver().Unmarshal([]byte(asString(n["data"])), &indexed); err != nil {
			return nil, true, wrapError(CodeParse, "malformed Series payload", err)
		}
		resolved, err := d.Resolve(indexed)
		if err != nil {
			return nil, true, err
		}
		return seriesFromIndexed(resolved.(map[string]any)), true, nil

	case id.Module == "bson.objectid" && id.Class == "ObjectId":
		oid, err := primitive.ObjectIDFromHex(asString(n["oid"]))
		if err != nil {
			return nil, true, wrapError(CodeParse, "invalid ObjectId payload", err)
		}
		return oid, true, nil
	}
	return nil, false, nil
}

// resolveCallable reconstructs a callable reference. A failed attribute walk
// leaves the node unresolved rather than failing.
func (d *Decoder) resolveCallable(n map[string]any) (any, error) {
	module := asString(n[keyModule])
	qual := asString(n[keyCallable])
	segments := strings.Split(qual, ".")

	if bound, ok := n[keyBound]; ok && bound != nil {
		owner, err := d.Resolve(bound)
		if err != nil {
			return nil, err
		}
		// The leading segment names the owner itself; walk the rest from
		// an addressable copy so pointer-receiver methods resolve too.
		if len(segments) <= 1 {
			return owner, nil
		}
		ov := reflect.ValueOf(owner)
		pv := reflect.New(ov.Type())
		pv.Elem().Set(ov)
		if fn, ok := walkAttrs(pv, segments[1:]); ok {
			return fn, nil
		}
		return n, nil
	}

	root, ok := lookupCallable(module, segments[0])
	if !ok {
		return n, nil
	}
	if len(segments) == 1 {
		return root.Interface(), nil
	}
	if fn, ok := walkAttrs(root, segments[1:]); ok {
		return fn, nil
	}
	return n, nil
}

// reconstruct performs keyword construction for a registered type: factory
// override first, then enum-by-value, then field assignment plus validation.
func reconstruct(e *entry, fields map[string]any) (any, error) {
	if e.factory != nil {
		return e.factory(fields)
	}
	if e.enum {
		out := reflect.New(e.typ).Elem()
		if err := convertAssign(out, fields["value"]); err != nil {
			return nil, &Error{Code: CodeReconstruct, Type: e.typ.String(), Field: "value", Cause: err,
				Message: "cannot reconstruct enumeration"}
		}
		return out.Interface(), nil
	}

	pv := reflect.New(e.typ)
	rv := pv.Elem()
	byKey := make(map[string]fieldSpec)
	var kwargs *fieldSpec
	for _, s := range structFields(e.typ) {
		if s.kwargs {
			s := s
			kwargs = &s
			continue
		}
		byKey[s.key] = s
	}
	bag := map[string]any{}
	for k, v := range fields {
		s, ok := byKey[k]
		if !ok {
			s, ok = byKey["_"+k]
		}
		if !ok {
			// Undeclared keys land in the kwargs bag; a type without one
			// rejects them below.
			bag[k] = v
			continue
		}
		if err := convertAssign(rv.Field(s.index), v); err != nil {
			return nil, &Error{Code: CodeReconstruct, Type: e.typ.String(), Field: k, Cause: err,
				Message: "cannot assign field"}
		}
	}
	if len(bag) > 0 {
		if kwargs == nil {
			keys := make([]string, 0, len(bag))
			for k := range bag {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			return nil, &Error{Code: CodeReconstruct, Type: e.typ.String(), Field: keys[0],
				Message: "unexpected keyword"}
		}
		if err := convertAssign(rv.Field(kwargs.index), bag); err != nil {
			return nil, &Error{Code: CodeReconstruct, Type: e.typ.String(), Field: kwargs.key, Cause: err,
				Message: "cannot assign kwargs"}
		}
	}
	if validator, ok := pv.Interface().(Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, &Error{Code: CodeValidation, Type: e.typ.String(), Cause: err,
				Message: "error while deserializing"}
		}
	}
	return rv.Interface(), nil
}

// convertAssign sets dst from a resolved JSON value, converting numeric kinds
// and recursing into slices, maps, and nested structs.
func convertAssign(dst reflect.Value, v any) error {
	if v == nil {
		dst.SetZero()
		return nil
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(dst.Type()) {
		dst.Set(rv)
		return nil
	}
	switch dst.Kind() {
	case reflect.Interface:
		dst.Set(rv)
		return nil
	case reflect.Pointer:
		p := reflect.New(dst.Type().Elem())
		if err := convertAssign(p.Elem(), v); err != nil {
			return err
		}
		dst.Set(p)
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64,
		reflect.String, reflect.Bool:
		if rv.Type().ConvertibleTo(dst.Type()) && isScalarKind(rv.Kind()) {
			dst.Set(rv.Convert(dst.Type()))
			return nil
		}
	case reflect.Slice:
		items, ok := v.([]any)
		if !ok {
			break
		}
		out := reflect.MakeSlice(dst.Type(), len(items), len(items))
		for i, it := range items {
			if err := convertAssign(out.Index(i), it); err != nil {
				return err
			}
		}
		dst.Set(out)
		return nil
	case reflect.Map:
		m, ok := v.(map[string]any)
		if !ok {
			break
		}
		out := reflect.MakeMapWithSize(dst.Type(), len(m))
		for k, it := range m {
			kv := reflect.New(dst.Type().Key()).Elem()
			if err := convertAssign(kv, k); err != nil {
				return err
			}
			vv := reflect.New(dst.Type().Elem()).Elem()
			if err := convertAssign(vv, it); err != nil {
				return err
			}
			out.SetMapIndex(kv, vv)
		}
		dst.Set(out)
		return nil
	case reflect.Struct:
		m, ok := v.(map[string]any)
		if !ok {
			break
		}
		for _, s := range structFields(dst.Type()) {
			key := strings.TrimPrefix(s.key, "_")
			fv, present := m[key]
			if !present {
				continue
			}
			if err := convertAssign(dst.Field(s.index), fv); err != nil {
				return err
			}
		}
		return nil
	}
	return typedError(CodeReconstruct, dst.Type().String(),
		"cannot convert "+reflect.TypeOf(v).String())
}

func isScalarKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64, reflect.String, reflect.Bool:
		return true
	}
	return false
}

// ---- helpers ----

func asString(v any) string {
	s, _ := v.(string)
	return s
}

// splitRealImag unpacks the [real, imag] nested-list pair of a complex
// payload.
func splitRealImag(data any) (any, any, error) {
	pair, ok := data.([]any)
	if !ok || len(pair) != 2 {
		return nil, nil, newError(CodeShape, "complex payload must be a [real, imag] pair")
	}
	return pair[0], pair[1], nil
}

// seriesFromIndexed rebuilds a Series from its stringified-index map,
// ordering entries by numeric index.
func seriesFromIndexed(indexed map[string]any) *frame.Series {
	keys := make([]string, 0, len(indexed))
	for k := range indexed {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, erra := strconv.Atoi(keys[i])
		b, errb := strconv.Atoi(keys[j])
		if erra != nil || errb != nil {
			return keys[i] < keys[j]
		}
		return a < b
	})
	values := make([]any, 0, len(keys))
	for _, k := range keys {
		values = append(values, indexed[k])
	}
	return frame.NewSeries("", values)
}
