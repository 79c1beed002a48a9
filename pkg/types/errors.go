package types

import (
	"errors"
	"fmt"
)

// The session core sorts failures into four categories. Configuration
// problems are fatal, validation problems are caller-correctable, a
// corrupt state file needs an operator, and precondition failures mean
// the caller skipped a step. Nothing in the core retries.

// ConfigurationError reports a fatal configuration problem, such as a
// generated scratch-database name that violates the required pattern.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}

// ValidationError reports caller-correctable bad input on a single
// state field. No partial state is persisted when one is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// CorruptStateError reports a state file that exists but cannot be
// trusted. The core never auto-deletes such a file; the message tells
// the operator to remove it manually.
type CorruptStateError struct {
	Path   string
	Reason string
}

func (e *CorruptStateError) Error() string {
	return fmt.Sprintf("test session state file %s is unreadable (%s); remove the file manually to recover", e.Path, e.Reason)
}

// PreconditionError reports an operation invoked in the wrong session
// phase, usually one requiring an active session with none running.
type PreconditionError struct {
	Op     string
	Reason string
}

func (e *PreconditionError) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = "no test session is running"
	}
	return fmt.Sprintf("%s: %s", e.Op, reason)
}

// IsValidationError reports whether err wraps a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsCorruptStateError reports whether err wraps a CorruptStateError.
func IsCorruptStateError(err error) bool {
	var ce *CorruptStateError
	return errors.As(err, &ce)
}

// IsPreconditionError reports whether err wraps a PreconditionError.
func IsPreconditionError(err error) bool {
	var pe *PreconditionError
	return errors.As(err, &pe)
}

// IsConfigurationError reports whether err wraps a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}
