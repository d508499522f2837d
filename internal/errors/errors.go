// Package errors defines the typed failures of a mapping run.
//
// Every failure carries a Type. Data errors also carry the version and the
// point at which mapping stopped, so callers can report where a run failed.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Type identifies the category of error
type Type string

const (
	// TypeInput indicates an unreadable file or an invalid flag
	TypeInput Type = "INPUT_ERROR"

	// TypeParsing indicates a decoding error (HCL, CSV, XLSX, YAML, JSON)
	TypeParsing Type = "PARSING_ERROR"

	// TypeConfig indicates an invalid mapping configuration
	TypeConfig Type = "CONFIG_ERROR"

	// TypeData indicates invalid data met while mapping a point
	TypeData Type = "DATA_ERROR"

	// TypeNotFound indicates an unknown equipment or time series
	TypeNotFound Type = "NOT_FOUND"

	// TypeInternal indicates a broken invariant or a failed write
	TypeInternal Type = "INTERNAL_ERROR"
)

const (
	keyVersion = "version"
	keyPoint   = "point"
)

// exitCodes maps each type to the process exit status of the CLI
var exitCodes = map[Type]int{
	TypeInput:    2,
	TypeParsing:  3,
	TypeConfig:   4,
	TypeNotFound: 4,
	TypeData:     5,
	TypeInternal: 1,
}

// Error is a typed failure with optional context
type Error struct {
	Type    Type                   `json:"type"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("[%s] %s", e.Type, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// WithContext records key on e and returns e
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{}, 2)
	}
	e.Context[key] = value
	return e
}

// Newf creates an error of type t
func Newf(t Type, format string, args ...interface{}) *Error {
	return &Error{Type: t, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a type and a message to cause
func Wrap(t Type, message string, cause error) *Error {
	return &Error{Type: t, Message: message, Cause: cause}
}

// Wrapf is Wrap with a formatted message
func Wrapf(t Type, cause error, format string, args ...interface{}) *Error {
	return Wrap(t, fmt.Sprintf(format, args...), cause)
}

func Input(message string) *Error {
	return &Error{Type: TypeInput, Message: message}
}

func Parsing(message string, cause error) *Error {
	return Wrap(TypeParsing, message, cause)
}

func Config(format string, args ...interface{}) *Error {
	return Newf(TypeConfig, format, args...)
}

// Data creates an error located at a version and a point
func Data(version, point int, format string, args ...interface{}) *Error {
	return Newf(TypeData, format, args...).
		WithContext(keyVersion, version).
		WithContext(keyPoint, point)
}

// NotFound reports an unknown equipment or time series
func NotFound(what, id string) *Error {
	return Newf(TypeNotFound, "%s not found: %s", what, id)
}

// TypeOf returns the type of the outermost *Error in err's chain,
// TypeInternal for untyped errors.
func TypeOf(err error) Type {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}
	return TypeInternal
}

// IsType reports whether the outermost *Error in err's chain has type t
func IsType(err error, t Type) bool {
	var e *Error
	return stderrors.As(err, &e) && e.Type == t
}

// Location returns the version and point recorded by Data
func Location(err error) (version, point int, ok bool) {
	var e *Error
	if !stderrors.As(err, &e) {
		return 0, 0, false
	}
	version, vok := e.Context[keyVersion].(int)
	point, pok := e.Context[keyPoint].(int)
	return version, point, vok && pok
}

// ExitCode returns the process status for err, 0 when err is nil
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if code, ok := exitCodes[TypeOf(err)]; ok {
		return code
	}
	return 1
}
