// Package errs defines the error kinds returned by the data layer.
//
// Every failure surfaced by a repository is an *Error carrying one of four
// kinds: NotFound, Conflict, Validation or Storage. Callers branch on the
// kind with errors.Is against the package sentinels:
//
//	if errors.Is(err, errs.ErrNotFound) { ... }
package errs

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an Error.
type Kind string

const (
	KindNotFound   Kind = "NOT_FOUND"
	KindConflict   Kind = "CONFLICT"
	KindValidation Kind = "VALIDATION_ERROR"
	KindStorage    Kind = "STORAGE_ERROR"
)

// FieldError describes a single invalid input field.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// Error is the data layer's error type.
//
// Code is machine friendly (e.g. "USER_ALREADY_EXISTS"), Message is meant for
// people. Err keeps the underlying driver error for logging and errors.As.
type Error struct {
	Kind    Kind         `json:"kind"`
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Fields  []FieldError `json:"fields,omitempty"`
	Err     error        `json:"-"`
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}

	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+" "+f.Error)
	}
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(parts, ", "))
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind. Code and Message
// are not compared, so the sentinels below match any error of their kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrNotFound   = &Error{Kind: KindNotFound, Code: string(KindNotFound), Message: "not found"}
	ErrConflict   = &Error{Kind: KindConflict, Code: string(KindConflict), Message: "conflict"}
	ErrValidation = &Error{Kind: KindValidation, Code: string(KindValidation), Message: "validation failed"}
	ErrStorage    = &Error{Kind: KindStorage, Code: string(KindStorage), Message: "storage error"}
)

// NewNotFound returns a NotFound error. An empty code defaults to NOT_FOUND.
func NewNotFound(code, message string, err error) *Error {
	return newError(KindNotFound, code, message, nil, err)
}

// NewConflict returns a Conflict error. An empty code defaults to CONFLICT.
func NewConflict(code, message string, err error) *Error {
	return newError(KindConflict, code, message, nil, err)
}

// NewValidation returns a Validation error with optional field details.
func NewValidation(code, message string, fields []FieldError, err error) *Error {
	return newError(KindValidation, code, message, fields, err)
}

// NewStorage wraps a connection or transport failure.
func NewStorage(err error) *Error {
	return newError(KindStorage, "", "storage error", nil, err)
}

func newError(kind Kind, code, message string, fields []FieldError, err error) *Error {
	if code == "" {
		code = string(kind)
	}
	return &Error{
		Kind:    kind,
		Code:    code,
		Message: message,
		Fields:  fields,
		Err:     err,
	}
}

// KindOf returns the kind of the first *Error in err's chain, or KindStorage
// when err is non-nil but carries no *Error. It returns "" for nil.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}

	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStorage
}
