// Package errs defines the error taxonomy shared by the scheduling engine.
//
// Structural problems with caller input surface as *ValidationError, problems
// with generator settings or resident caps as *ConfigurationError. Both match
// their sentinel through errors.Is so callers can branch without type
// assertions. An understaffed schedule is not an error; see assign.Result.
package errs

import (
	"errors"
	"fmt"
)

// Sentinel errors for broad classification.
var (
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
)

// ValidationError reports malformed input detected at the engine boundary.
type ValidationError struct {
	Op     string
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string { return format(e.Op, e.Field, e.Reason, e.Err) }

// Unwrap returns the underlying cause, if any.
func (e *ValidationError) Unwrap() error { return e.Err }

// Is reports ErrValidation as a match.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// ConfigurationError reports an unusable generator or capacity configuration.
type ConfigurationError struct {
	Op     string
	Field  string
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string { return format(e.Op, e.Field, e.Reason, e.Err) }

// Unwrap returns the underlying cause, if any.
func (e *ConfigurationError) Unwrap() error { return e.Err }

// Is reports ErrConfiguration as a match.
func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// Validation builds a *ValidationError with a formatted reason.
func Validation(op, field, reason string, args ...any) error {
	return &ValidationError{Op: op, Field: field, Reason: fmt.Sprintf(reason, args...)}
}

// Configuration builds a *ConfigurationError with a formatted reason.
func Configuration(op, field, reason string, args ...any) error {
	return &ConfigurationError{Op: op, Field: field, Reason: fmt.Sprintf(reason, args...)}
}

// IsValidation reports whether err carries a validation failure.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// IsConfiguration reports whether err carries a configuration failure.
func IsConfiguration(err error) bool { return errors.Is(err, ErrConfiguration) }

func format(op, field, reason string, cause error) string {
	msg := op
	if field != "" {
		msg += fmt.Sprintf(" (%s)", field)
	}
	if reason != "" {
		msg += ": " + reason
	}
	if cause != nil {
		msg += fmt.Sprintf(": %v", cause)
	}
	return msg
}
