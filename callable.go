package mson

import (
	"fmt"
	"reflect"
	"runtime"
	"strings"
)

// Bound couples a callable with the value it is attached to. The owner is
// encoded alongside the reference, so it must itself be encodable. Method is
// the dot-separated path from the owner to the callable (method or func-typed
// field names, e.g. "Scale" or "Inner.Hook").
type Bound struct {
	Owner  any
	Method string
}

// funcIdentity splits a func value's runtime name into (module, qualified
// name, isMethodValue). Runtime names look like "github.com/user/pkg.Fn",
// "github.com/user/pkg.(*T).Method-fm" or "pkg.glob..func1" for closures.
func funcIdentity(rv reflect.Value) (string, string, bool, error) {
	f := runtime.FuncForPC(rv.Pointer())
	if f == nil {
		return "", "", false, newError(CodeCallable, "callable has no runtime identity")
	}
	full := f.Name()
	bound := strings.HasSuffix(full, "-fm")
	full = strings.TrimSuffix(full, "-fm")
	slash := strings.LastIndexByte(full, '/')
	dot := strings.IndexByte(full[slash+1:], '.')
	if dot < 0 {
		return "", "", false, &Error{Code: CodeCallable, Message: fmt.Sprintf("cannot split callable name %q", full)}
	}
	dot += slash + 1
	qual := strings.ReplaceAll(full[dot+1:], "(*", "")
	qual = strings.ReplaceAll(qual, ")", "")
	return full[:dot], qual, bound, nil
}

// encodeCallable builds the callable-reference payload for a func value or a
// Bound wrapper.
func encodeCallable(v any, seen *visitSet) (map[string]any, error) {
	if b, ok := v.(Bound); ok {
		return encodeBound(b, seen)
	}
	rv := reflect.ValueOf(v)
	module, qual, bound, err := funcIdentity(rv)
	if err != nil {
		return nil, err
	}
	if bound {
		// A method value carries its receiver in a closure the runtime
		// cannot expose; only Bound makes the owner recoverable.
		return nil, typedError(CodeCallable, rv.Type().String(),
			"only bound methods with an encodable owner are supported; wrap the receiver in mson.Bound")
	}
	return map[string]any{
		keyModule:   module,
		keyCallable: qual,
		keyBound:    nil,
	}, nil
}

func encodeBound(b Bound, seen *visitSet) (map[string]any, error) {
	if b.Owner == nil || b.Method == "" {
		return nil, newError(CodeCallable, "Bound requires both an owner and a method path")
	}
	owner, err := encodeValue(b.Owner, seen)
	if err != nil {
		return nil, wrapError(CodeCallable, "only bound methods with an encodable owner are supported", err)
	}
	id := typeIdentity(reflect.TypeOf(b.Owner))
	if e, ok := lookupType(derefType(reflect.TypeOf(b.Owner))); ok {
		id = e.id
	}
	return map[string]any{
		keyModule:   id.Module,
		keyCallable: id.Class + "." + b.Method,
		keyBound:    owner,
	}, nil
}

// walkAttrs resolves a dot-separated name path against base, trying methods
// first, then struct fields. A failed step returns false and the caller
// leaves the node unresolved.
func walkAttrs(base reflect.Value, segments []string) (any, bool) {
	v := base
	for _, seg := range segments {
		if !v.IsValid() {
			return nil, false
		}
		if m := v.MethodByName(seg); m.IsValid() {
			v = m
			continue
		}
		if v.Kind() != reflect.Pointer && v.CanAddr() {
			if m := v.Addr().MethodByName(seg); m.IsValid() {
				v = m
				continue
			}
		}
		fv := v
		for fv.Kind() == reflect.Pointer {
			if fv.IsNil() {
				return nil, false
			}
			fv = fv.Elem()
		}
		if fv.Kind() == reflect.Struct {
			if f := fv.FieldByName(seg); f.IsValid() {
				v = f
				continue
			}
		}
		return nil, false
	}
	if !v.IsValid() {
		return nil, false
	}
	return v.Interface(), true
}
