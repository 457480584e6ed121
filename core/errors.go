package core

import "github.com/pkg/errors"

// FieldError points at the request field that failed a check.
type FieldError struct {
	Field string
	Error string
}

// ValidationError is a client mistake, answered with 400. Fields, when set, are reported per field.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{Err: err, Fields: flds}
}

// NewFieldError is a ValidationError about a single field.
func NewFieldError(field, msg string) error {
	return NewValidationError(nil, FieldError{Field: field, Error: msg})
}

func (err ValidationError) Error() string {
	switch {
	case err.Err != nil:
		return err.Err.Error()
	case len(err.Fields) > 0:
		return err.Fields[0].Field + ": " + err.Fields[0].Error
	}
	return "validation failed"
}

func (err ValidationError) Unwrap() error { return err.Err }

// ShutdownError asks the API server to stop gracefully once the response is written.
type ShutdownError struct {
	Reason string
}

func NewShutdownError(reason string) error {
	return &ShutdownError{Reason: reason}
}

func (s ShutdownError) Error() string { return "shutdown: " + s.Reason }

func IsShutdown(err error) bool {
	var s *ShutdownError
	return errors.As(err, &s)
}
