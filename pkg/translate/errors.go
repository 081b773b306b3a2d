package translate

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	ErrUnknownKind     = errors.New("unrecognised input kind")
	ErrEmptyInput      = errors.New("empty input")
	ErrOutputCollision = errors.New("output name already claimed")
)

// TranslateError records which stage of a translation failed and for
// which input.
type TranslateError struct {
	Op    string // stage that failed (e.g. "detect", "parse", "write")
	Kind  Kind
	Path  string
	Cause error
}

// Error implements the error interface.
func (e *TranslateError) Error() string {
	switch {
	case e.Kind != "" && e.Path != "":
		return fmt.Sprintf("%s %s %s: %v", e.Op, e.Kind, e.Path, e.Cause)
	case e.Path != "":
		return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Cause)
	case e.Kind != "":
		return fmt.Sprintf("%s %s: %v", e.Op, e.Kind, e.Cause)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *TranslateError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target error matches this error's cause.
func (e *TranslateError) Is(target error) bool {
	if target == nil {
		return false
	}
	return errors.Is(e.Cause, target)
}

// ErrorBuilder provides a fluent interface for building TranslateErrors.
type ErrorBuilder struct {
	err TranslateError
}

// NewError creates a new error builder for the given stage.
func NewError(op string) *ErrorBuilder {
	return &ErrorBuilder{err: TranslateError{Op: op}}
}

// Kind sets the input kind.
func (b *ErrorBuilder) Kind(k Kind) *ErrorBuilder {
	b.err.Kind = k
	return b
}

// Path sets the input path or URI.
func (b *ErrorBuilder) Path(p string) *ErrorBuilder {
	b.err.Path = p
	return b
}

// Cause sets the underlying error cause.
func (b *ErrorBuilder) Cause(err error) *ErrorBuilder {
	b.err.Cause = err
	return b
}

// Build returns the constructed TranslateError.
func (b *ErrorBuilder) Build() *TranslateError {
	return &b.err
}

// Err returns the error as an error interface.
func (b *ErrorBuilder) Err() error {
	return &b.err
}
