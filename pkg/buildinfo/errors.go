package buildinfo

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingField is returned when a mandatory header is absent.
	ErrMissingField = errors.New("missing required field")
	// ErrTooLarge is returned when the input exceeds the line size limit.
	ErrTooLarge = errors.New("buildinfo line too long")
)

// ParseError locates a failure within a .buildinfo file.
type ParseError struct {
	Path  string
	Line  int
	Field string
	Cause error
}

func (e *ParseError) Error() string {
	switch {
	case e.Line > 0 && e.Path != "":
		return fmt.Sprintf("buildinfo %s:%d: %v", e.Path, e.Line, e.Cause)
	case e.Field != "" && e.Path != "":
		return fmt.Sprintf("buildinfo %s (field %s): %v", e.Path, e.Field, e.Cause)
	case e.Field != "":
		return fmt.Sprintf("buildinfo (field %s): %v", e.Field, e.Cause)
	case e.Path != "":
		return fmt.Sprintf("buildinfo %s: %v", e.Path, e.Cause)
	default:
		return fmt.Sprintf("buildinfo: %v", e.Cause)
	}
}

func (e *ParseError) Unwrap() error { return e.Cause }
