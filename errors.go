package mson

import (
	"errors"
	"fmt"
)

// Error codes (exported consts for programmatic handling and test assertions).
const (
	CodeNotSerializable = "not_serializable"
	CodeDerive          = "derive_error"
	CodeReconstruct     = "reconstruct_error"
	CodeUnresolvedType  = "unresolved_type"
	CodeParse           = "parse_error"
	CodeValidation      = "validation"
	CodeNotSanitizable  = "not_sanitizable"
	CodeCallable        = "callable_error"
	CodeCycle           = "cycle_error"
	CodeRegistry        = "registry_error"
	CodeShape           = "shape_error"
)

// Error is the structured error type for encode/decode/derive failures.
type Error struct {
	Code    string // One of the codes listed above.
	Type    string // Go type name of the offending value, when known.
	Field   string // Field or parameter name, when the failure is field-scoped.
	Message string
	Cause   error // Optional: underlying error.
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Code
	}
	switch {
	case e.Type != "" && e.Field != "":
		msg = fmt.Sprintf("%s: type %s, field %q", msg, e.Type, e.Field)
	case e.Type != "":
		msg = fmt.Sprintf("%s: type %s", msg, e.Type)
	case e.Field != "":
		msg = fmt.Sprintf("%s: field %q", msg, e.Field)
	}
	if e.Cause != nil {
		return fmt.Sprintf("mson: %s: %v", msg, e.Cause)
	}
	return "mson: " + msg
}

func (e *Error) Unwrap() error { return e.Cause }

// CodeOf extracts the mson error code from err, or "" when err carries none.
func CodeOf(err error) string {
	var me *Error
	if errors.As(err, &me) {
		return me.Code
	}
	return ""
}

// ---- constructors ----

func newError(code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

func typedError(code, typeName, msg string) *Error {
	return &Error{Code: code, Type: typeName, Message: msg}
}

func wrapError(code, msg string, cause error) *Error {
	return &Error{Code: code, Message: msg, Cause: cause}
}
