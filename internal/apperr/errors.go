package apperr

import "errors"

// Sentinel errors shared by services and mapped to HTTP statuses at the API
// boundary. Wrap with fmt.Errorf("...: %w", Err...) to add context.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrValidation   = errors.New("validation failed")
)
