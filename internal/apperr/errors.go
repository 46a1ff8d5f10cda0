// Package apperr holds the error taxonomy shared by every layer.
package apperr

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrValidation = errors.New("validation failed")
	ErrStorage    = errors.New("storage failure")
	ErrNetwork    = errors.New("network failure")
	ErrParse      = errors.New("parse failure")
)

// ValidationError carries per-field messages from ozzo-validation.
// errors.Is(err, ErrValidation) holds for every ValidationError.
type ValidationError struct {
	Fields map[string]string
	err    error
}

// Validation wraps err as a ValidationError. Field messages are extracted
// when err is a validation.Errors map.
func Validation(err error) error {
	if err == nil {
		return nil
	}
	ve := &ValidationError{Fields: map[string]string{}, err: err}
	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		for name, fe := range fieldErrs {
			if fe != nil {
				ve.Fields[name] = fe.Error()
			}
		}
	}
	return ve
}

func (e *ValidationError) Error() string {
	return ErrValidation.Error() + ": " + e.err.Error()
}

func (e *ValidationError) Unwrap() []error {
	return []error{ErrValidation, e.err}
}

// FieldErrors returns the per-field messages of err, or nil.
func FieldErrors(err error) map[string]string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Fields
	}
	return nil
}
