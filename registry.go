package mson

import (
	"reflect"
	"strings"
	"sync"
)

// Identity names a type on the wire: @module is the package import path and
// @class the type name (built-in payloads keep their fixed identities).
type Identity struct {
	Module string
	Class  string
}

func (id Identity) String() string { return id.Module + "." + id.Class }

// entry is the registry record for one reconstructible type.
type entry struct {
	typ     reflect.Type // struct type for derivables, basic-kind type for enums
	id      Identity
	version string   // "" encodes @version as null
	fields  []string // derive parameter list; nil means all exported fields
	enum    bool
	factory func(fields map[string]any) (any, error)
}

var (
	registryMu    sync.RWMutex
	registryName  = make(map[Identity]*entry)
	registryType  = make(map[reflect.Type]*entry)
	callableMu    sync.RWMutex
	callablesByID = make(map[string]reflect.Value)
)

// RegisterOption customizes a Register call.
type RegisterOption func(*entry)

// WithVersion declares the producing package's release identifier, attached to
// encoded values as @version.
func WithVersion(v string) RegisterOption {
	return func(e *entry) { e.version = v }
}

// WithIdentity overrides the wire identity, e.g. to stay compatible with a
// producer in another language or an older package path.
func WithIdentity(module, class string) RegisterOption {
	return func(e *entry) { e.id = Identity{Module: module, Class: class} }
}

// WithFields fixes the derive parameter list. Without it the list is every
// exported field in declaration order.
func WithFields(names ...string) RegisterOption {
	return func(e *entry) { e.fields = names }
}

// WithFactory installs a custom reconstruction function, consulted before
// keyword construction. It receives the resolved non-tag fields.
func WithFactory(f func(fields map[string]any) (any, error)) RegisterOption {
	return func(e *entry) { e.factory = f }
}

// Register makes T encodable via auto-derive and reconstructible by name.
// T must be a struct type. Registration is idempotent per identity; the last
// call wins.
func Register[T any](opts ...RegisterOption) error {
	t := reflect.TypeOf((*T)(nil)).Elem()
	if t.Kind() != reflect.Struct {
		return typedError(CodeRegistry, t.String(), "Register requires a struct type")
	}
	return register(t, false, opts...)
}

// RegisterEnum makes an enumeration type (a named basic type) encodable as a
// {value: ...} payload and reconstructible by value.
func RegisterEnum[T any](opts ...RegisterOption) error {
	t := reflect.TypeOf((*T)(nil)).Elem()
	switch t.Kind() {
	case reflect.String, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Float64, reflect.Float32:
	default:
		return typedError(CodeRegistry, t.String(), "RegisterEnum requires a named basic type")
	}
	return register(t, true, opts...)
}

func register(t reflect.Type, enum bool, opts ...RegisterOption) error {
	e := &entry{typ: t, id: typeIdentity(t), enum: enum}
	for _, o := range opts {
		o(e)
	}
	if e.id.Class == "" {
		return typedError(CodeRegistry, t.String(), "unnamed types cannot be registered")
	}
	registryMu.Lock()
	registryName[e.id] = e
	registryType[t] = e
	registryMu.Unlock()
	return nil
}

// ResetRegistry clears all registrations. Primarily useful for test isolation.
func ResetRegistry() {
	registryMu.Lock()
	registryName = make(map[Identity]*entry)
	registryType = make(map[reflect.Type]*entry)
	registryMu.Unlock()
	callableMu.Lock()
	callablesByID = make(map[string]reflect.Value)
	callableMu.Unlock()
}

func lookupName(id Identity) (*entry, bool) {
	registryMu.RLock()
	e, ok := registryName[id]
	registryMu.RUnlock()
	return e, ok
}

func lookupType(t reflect.Type) (*entry, bool) {
	registryMu.RLock()
	e, ok := registryType[t]
	registryMu.RUnlock()
	return e, ok
}

// typeIdentity derives the wire identity from a Go type.
func typeIdentity(t reflect.Type) Identity {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return Identity{Module: t.PkgPath(), Class: t.Name()}
}

// RegisterCallable records fn under its runtime name so that decoded callable
// references can resolve back to it. fn must be a func value.
func RegisterCallable(fn any) error {
	rv := reflect.ValueOf(fn)
	if rv.Kind() != reflect.Func || rv.IsNil() {
		return newError(CodeRegistry, "RegisterCallable requires a non-nil func")
	}
	module, qual, bound, err := funcIdentity(rv)
	if err != nil {
		return err
	}
	if bound {
		return newError(CodeCallable, "method values cannot be registered; register the package-level func or use Bound")
	}
	root := qual
	if i := strings.IndexByte(qual, '.'); i >= 0 {
		root = qual[:i]
	}
	RegisterCallableAs(module, root, fn)
	return nil
}

// RegisterCallableAs records fn under an explicit module and root name.
func RegisterCallableAs(module, name string, fn any) {
	callableMu.Lock()
	callablesByID[module+"."+name] = reflect.ValueOf(fn)
	callableMu.Unlock()
}

func lookupCallable(module, name string) (reflect.Value, bool) {
	callableMu.RLock()
	v, ok := callablesByID[module+"."+name]
	callableMu.RUnlock()
	return v, ok
}
