package mson

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/reoring/mson/frame"
	"github.com/reoring/mson/numeric"
)

// fieldSpec describes one struct field's wire behavior.
type fieldSpec struct {
	index   int
	key     string // wire key, possibly underscore-prefixed stored form
	kwargs  bool
	varargs bool
	skip    bool
}

// resolveFieldKey applies the repository-wide rule for a struct field's wire
// key. Priority: mson tag name > json tag name > field name with the first
// rune lowercased; "-" disables the field.
func resolveFieldKey(sf reflect.StructField) fieldSpec {
	spec := fieldSpec{key: lowerFirst(sf.Name)}
	if jt := sf.Tag.Get("json"); jt != "" {
		name := jt
		if i := strings.IndexByte(jt, ','); i >= 0 {
			name = jt[:i]
		}
		if name != "" {
			spec.key = name
		}
	}
	if mt, ok := sf.Tag.Lookup("mson"); ok {
		parts := strings.Split(mt, ",")
		if parts[0] != "" {
			spec.key = parts[0]
		}
		for _, p := range parts[1:] {
			switch strings.TrimSpace(p) {
			case "kwargs":
				spec.kwargs = true
			case "varargs":
				spec.varargs = true
			}
		}
	}
	if spec.key == "-" {
		spec.skip = true
	}
	return spec
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// structFields enumerates the exported fields of t with resolved wire keys.
func structFields(t reflect.Type) []fieldSpec {
	specs := make([]fieldSpec, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		spec := resolveFieldKey(sf)
		if spec.skip {
			continue
		}
		spec.index = i
		specs = append(specs, spec)
	}
	return specs
}

// Derive produces the tagged field map for v the way the encoder's derive
// path does: the registered parameter list is read from v's fields (plain or
// underscore-prefixed stored form), each value recursively normalized, plus
// kwargs/varargs bags and the enum value where applicable. A missing
// parameter is a hard derive failure naming the type and parameter.
func Derive(v any) (map[string]any, error) {
	return derive(v, newVisitSet())
}

func derive(v any, seen *visitSet) (map[string]any, error) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, typedError(CodeDerive, rv.Type().String(), "cannot derive nil pointer")
		}
		leave, err := seen.enter(rv)
		if err != nil {
			return nil, err
		}
		defer leave()
		rv = rv.Elem()
	}
	t := rv.Type()
	e, registered := lookupType(t)

	d := map[string]any{}
	id := typeIdentity(t)
	version := any(nil)
	if registered {
		id = e.id
		if e.version != "" {
			version = e.version
		}
	}
	d[keyModule] = id.Module
	d[keyClass] = id.Class
	d[keyVersion] = version

	if registered && e.enum {
		d["value"] = enumValue(rv)
		return d, nil
	}
	if t.Kind() != reflect.Struct {
		return nil, typedError(CodeDerive, t.String(), "cannot derive non-struct value")
	}

	specs := structFields(t)
	byKey := make(map[string]fieldSpec, len(specs))
	var params []string
	for _, s := range specs {
		byKey[s.key] = s
		if s.kwargs || s.varargs {
			continue
		}
		if strings.HasPrefix(s.key, "_") {
			params = append(params, s.key[1:])
		} else {
			params = append(params, s.key)
		}
	}
	if registered && e.fields != nil {
		params = e.fields
	}

	for _, p := range params {
		s, ok := byKey[p]
		if !ok {
			s, ok = byKey["_"+p]
		}
		if !ok {
			return nil, &Error{
				Code: CodeDerive, Type: t.String(), Field: p,
				Message: "unable to automatically derive fields: parameter must be present as a field named after it or its underscore-prefixed form, or the type needs a custom AsDict",
			}
		}
		val, err := normalizeMember(rv.Field(s.index).Interface(), seen)
		if err != nil {
			return nil, err
		}
		d[p] = val
	}

	for _, s := range specs {
		switch {
		case s.kwargs:
			bag := rv.Field(s.index)
			if bag.Kind() != reflect.Map {
				return nil, &Error{Code: CodeDerive, Type: t.String(), Field: s.key, Message: "kwargs field must be a map"}
			}
			iter := bag.MapRange()
			for iter.Next() {
				val, err := normalizeMember(iter.Value().Interface(), seen)
				if err != nil {
					return nil, err
				}
				d[fmt.Sprint(iter.Key().Interface())] = val
			}
		case s.varargs:
			val, err := normalizeMember(rv.Field(s.index).Interface(), seen)
			if err != nil {
				return nil, err
			}
			d[strings.TrimPrefix(s.key, "_")] = val
		}
	}
	return d, nil
}

// normalizeMember recursively prepares a derived member value: containers are
// traversed, nested derivables derived, plain structs converted through
// structural extraction with their identity attached. Built-in payload types
// are left alone for the encoder's dispatch to tag.
func normalizeMember(v any, seen *visitSet) (any, error) {
	if v == nil {
		return nil, nil
	}
	if isBuiltinLeaf(v) {
		return v, nil
	}
	if d, ok := v.(Dicter); ok {
		m, err := d.AsDict()
		if err != nil {
			return nil, err
		}
		attachIdentity(m, reflect.TypeOf(v))
		return m, nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			nv, err := normalizeMember(rv.Index(i).Interface(), seen)
			if err != nil {
				return nil, err
			}
			out[i] = nv
		}
		return out, nil
	case reflect.Map:
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			nv, err := normalizeMember(iter.Value().Interface(), seen)
			if err != nil {
				return nil, err
			}
			out[fmt.Sprint(iter.Key().Interface())] = nv
		}
		return out, nil
	case reflect.Pointer:
		if rv.IsNil() {
			return nil, nil
		}
		if rv.Elem().Kind() == reflect.Struct {
			return structMember(v, seen)
		}
		return normalizeMember(rv.Elem().Interface(), seen)
	case reflect.Struct:
		return structMember(v, seen)
	default:
		if _, registered := lookupType(rv.Type()); registered {
			return derive(v, seen)
		}
		return v, nil
	}
}

func structMember(v any, seen *visitSet) (any, error) {
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if _, registered := lookupType(t); registered {
		return derive(v, seen)
	}
	return structExtract(v, seen)
}

// structExtract is the dataclass path: every exported field under its wire
// key, recursively normalized, with the type identity attached.
func structExtract(v any, seen *visitSet) (map[string]any, error) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, typedError(CodeDerive, rv.Type().String(), "cannot extract nil pointer")
		}
		leave, err := seen.enter(rv)
		if err != nil {
			return nil, err
		}
		defer leave()
		rv = rv.Elem()
	}
	t := rv.Type()
	d := map[string]any{}
	for _, s := range structFields(t) {
		val, err := normalizeMember(rv.Field(s.index).Interface(), seen)
		if err != nil {
			return nil, err
		}
		d[s.key] = val
	}
	attachIdentity(d, t)
	return d, nil
}

func attachIdentity(d map[string]any, t reflect.Type) {
	id := typeIdentity(t)
	if e, ok := lookupType(derefType(t)); ok {
		id = e.id
	}
	if _, ok := d[keyModule]; !ok {
		d[keyModule] = id.Module
	}
	if _, ok := d[keyClass]; !ok {
		d[keyClass] = id.Class
	}
}

func derefType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

func enumValue(rv reflect.Value) any {
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint()
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	default:
		return rv.Interface()
	}
}

// isBuiltinLeaf reports whether v has a fixed tagged payload shape and must
// reach the encoder's dispatch untouched.
func isBuiltinLeaf(v any) bool {
	switch v.(type) {
	case time.Time, *time.Time, uuid.UUID, Path, primitive.ObjectID,
		*numeric.Array, *numeric.Tensor, numeric.Scalar,
		*frame.DataFrame, *frame.Series:
		return true
	}
	return false
}

// ---- cycle guard ----

// visitSet tracks pointer identities on the active derivation path. A
// revisited pointer means a cycle and fails instead of recursing unboundedly.
// Pointers leave the set when their subtree completes, so a value shared by
// two branches is not mistaken for a cycle.
type visitSet struct {
	ptrs map[uintptr]struct{}
}

func newVisitSet() *visitSet { return &visitSet{ptrs: map[uintptr]struct{}{}} }

func (s *visitSet) enter(rv reflect.Value) (func(), error) {
	p := rv.Pointer()
	if _, seen := s.ptrs[p]; seen {
		return nil, typedError(CodeCycle, rv.Type().String(), "cyclic object graph during derivation")
	}
	s.ptrs[p] = struct{}{}
	return func() { delete(s.ptrs, p) }, nil
}
