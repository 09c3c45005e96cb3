package parser

import (
	"errors"
	"fmt"
)

// Sentinel errors for classification outcomes.
var (
	// ErrNoMatch indicates no parser pattern applied to a line.
	ErrNoMatch = errors.New("no matching parser")

	// ErrCoercion indicates a pattern matched but a field could not be coerced.
	ErrCoercion = errors.New("field coercion failed")
)

// CoercionError describes a line that matched a pattern but could not be
// turned into an event. It names the parser, the field, the pattern and the
// offending line.
type CoercionError struct {
	Parser  string
	Field   string
	Pattern string
	Line    string
	Reason  string
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("%s: field %s: %s (pattern %s) in line %q",
		e.Parser, e.Field, e.Reason, e.Pattern, e.Line)
}

// Is reports whether target is ErrCoercion.
func (e *CoercionError) Is(target error) bool {
	return target == ErrCoercion
}

// NoMatchError is the failure for a line no parser matched. Its message is
// the detail recorded in the live log.
type NoMatchError struct {
	Line string
}

func (e *NoMatchError) Error() string {
	return "No matching parser for " + e.Line
}

// Is reports whether target is ErrNoMatch.
func (e *NoMatchError) Is(target error) bool {
	return target == ErrNoMatch
}
