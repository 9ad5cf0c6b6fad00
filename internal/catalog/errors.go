package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidAttribute matches every *InvalidAttributeError.
	ErrInvalidAttribute = errors.New("invalid attribute")
	// ErrDuplicateValue matches every *DuplicateValueError.
	ErrDuplicateValue = errors.New("duplicate value")
)

// InvalidAttributeError reports a field that failed its format check, or a
// delimited line with the wrong number of fields (Field == "line").
type InvalidAttributeError struct {
	Field  string
	Value  string
	Reason string
}

func (e *InvalidAttributeError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
	}
	return fmt.Sprintf("invalid %s %q", e.Field, e.Value)
}

func (e *InvalidAttributeError) Is(target error) bool {
	return target == ErrInvalidAttribute
}

// DuplicateValueError is returned by Add when the plate is already present.
type DuplicateValueError struct {
	Plate string
}

func (e *DuplicateValueError) Error() string {
	return fmt.Sprintf("plate %s already exists", e.Plate)
}

func (e *DuplicateValueError) Is(target error) bool {
	return target == ErrDuplicateValue
}

// LineError locates a load failure in the source text. Line is 1-based.
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }

func invalidAttribute(field, value, reason string) error {
	return &InvalidAttributeError{Field: field, Value: value, Reason: reason}
}
