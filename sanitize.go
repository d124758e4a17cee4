package mson

import (
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/reoring/mson/frame"
	"github.com/reoring/mson/numeric"
)

// SanitizeOptions controls the best-effort normalization policy.
type SanitizeOptions struct {
	// Strict makes values without a derivation or tagging path a hard
	// failure; lenient mode stringifies them instead.
	Strict bool
	// AllowBSON passes BSON-native kinds (timestamps, byte slices,
	// ObjectIds) through unmodified, for document-store writers.
	AllowBSON bool
	// EnumValues reduces registered enumeration members to their underlying
	// value.
	EnumValues bool
	// RecursiveDerived prefers a value's derived form whenever one exists,
	// before the strict/lenient split.
	RecursiveDerived bool
}

// Sanitize cleans an arbitrary value into a plain JSON-safe structure: map
// keys are coerced to strings, containers traversed, and every other value
// reduced per the options. Unlike Encode, the output is not round-trippable;
// it is meant for consumers that want plain JSON.
func Sanitize(v any, opt SanitizeOptions) (any, error) {
	return sanitize(v, opt, newVisitSet())
}

func sanitize(v any, opt SanitizeOptions, seen *visitSet) (any, error) {
	if v == nil {
		return nil, nil
	}

	// Enumerations first: value form, else derived form, else full tagging.
	if t := reflect.TypeOf(v); t != nil {
		if e, ok := lookupType(derefType(t)); ok && e.enum {
			rv := reflect.ValueOf(v)
			for rv.Kind() == reflect.Pointer {
				rv = rv.Elem()
			}
			if opt.EnumValues {
				return enumValue(rv), nil
			}
			if d, ok := v.(Dicter); ok {
				m, err := d.AsDict()
				if err != nil {
					return nil, err
				}
				attachIdentity(m, t)
				return sanitize(m, opt, seen)
			}
			tagged, err := toTagged(v, seen)
			if err != nil {
				return nil, err
			}
			return sanitize(tagged, opt, seen)
		}
	}

	if opt.AllowBSON {
		switch v.(type) {
		case time.Time, []byte, primitive.ObjectID:
			return v, nil
		}
	}

	switch x := v.(type) {
	case *numeric.Array:
		return sanitize(x.Nested(), opt, seen)
	case numeric.Scalar:
		return x.Native(), nil
	case *numeric.Tensor:
		return sanitize(x.Nested(), opt, seen)
	case *frame.DataFrame:
		return x.Dict(), nil
	case *frame.Series:
		return x.Dict(), nil
	case bool, string, float64, float32,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return x, nil
	case Path:
		return string(x), nil
	case time.Time:
		return formatTimestamp(x), nil
	case uuid.UUID:
		return x.String(), nil
	case primitive.ObjectID:
		return x.Hex(), nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			sv, err := sanitize(rv.Index(i).Interface(), opt, seen)
			if err != nil {
				return nil, err
			}
			out[i] = sv
		}
		return out, nil
	case reflect.Map:
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			sv, err := sanitize(iter.Value().Interface(), opt, seen)
			if err != nil {
				return nil, err
			}
			out[fmt.Sprint(iter.Key().Interface())] = sv
		}
		return out, nil
	}

	if isCallable(v) && !isDerivable(v) {
		return encodeCallable(v, seen)
	}

	if opt.RecursiveDerived && isDerivable(v) {
		d, err := deriveOrDict(v, seen)
		if err != nil {
			return nil, err
		}
		return sanitize(d, opt, seen)
	}

	if !opt.Strict {
		return fmt.Sprint(v), nil
	}

	if m, ok := v.(DictProvider); ok {
		return sanitize(m.ModelDict(), opt, seen)
	}
	if isDerivable(v) {
		d, err := deriveOrDict(v, seen)
		if err != nil {
			return nil, err
		}
		return sanitize(d, opt, seen)
	}
	if t := derefType(reflect.TypeOf(v)); t.Kind() == reflect.Struct {
		d, err := structExtract(v, seen)
		if err != nil {
			return nil, err
		}
		return sanitize(d, opt, seen)
	}
	return nil, typedError(CodeNotSanitizable, reflect.TypeOf(v).String(),
		"no derivation or tagging path under strict sanitization")
}

// deriveOrDict returns a value's derived form: the custom AsDict when the
// type provides one, auto-derive otherwise.
func deriveOrDict(v any, seen *visitSet) (map[string]any, error) {
	if d, ok := v.(Dicter); ok {
		m, err := d.AsDict()
		if err != nil {
			return nil, err
		}
		attachIdentity(m, reflect.TypeOf(v))
		return m, nil
	}
	return derive(v, seen)
}
