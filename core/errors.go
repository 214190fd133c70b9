package core

import "github.com/pkg/errors"

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// PermissionError denies an action on a branch- or athlete-scoped resource.
// It is always reported distinctly from NotFoundError so that out-of-scope
// lookups never leak (or deny) existence information across branches.
type PermissionError struct {
	message string
}

func NewPermissionError(msg string) error { return &PermissionError{message: msg} }

func (err PermissionError) Error() string { return err.message }

// NotFoundError indicates that the target entity does not exist at all.
type NotFoundError struct {
	message string
}

func NewNotFoundError(msg string) error { return &NotFoundError{message: msg} }

func (err NotFoundError) Error() string { return err.message }

// ConfigurationError indicates a client-correctable configuration gap,
// eg. a branch without a usable practice-days schedule.
type ConfigurationError struct {
	message string
}

func NewConfigurationError(msg string) error { return &ConfigurationError{message: msg} }

func (err ConfigurationError) Error() string { return err.message }

func IsPermissionDenied(err error) bool {
	_, ok := errors.Cause(err).(*PermissionError)
	return ok
}

func IsNotFound(err error) bool {
	_, ok := errors.Cause(err).(*NotFoundError)
	return ok
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
