// Package common defines shared constants and sentinel errors used across
// the server layers of filevault. Callers should use errors.Is / errors.As
// to match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound  = errors.New("not found")
	ErrorDuplicate = errors.New("already exists")

	// Service-level errors.
	ErrorInternal       = errors.New("internal error")
	ErrorAuthentication = errors.New("invalid email or password")
	ErrorUnauthorized   = errors.New("unauthorized")
	ErrorForbidden      = errors.New("forbidden")
	ErrorValidation     = errors.New("validation error")
	ErrorTooLarge       = errors.New("file too large")
	// ErrorBodyRead means the client's upload body broke off or was malformed.
	ErrorBodyRead = errors.New("upload body could not be read")

	// Token errors. Every token failure is reported as ErrorInvalidToken.
	ErrorInvalidToken = errors.New("invalid token")

	// Storage errors.
	ErrorStorage = errors.New("storage error")
	// ErrorOrphanedRecord means the stored object is gone but its ledger
	// record could not be removed.
	ErrorOrphanedRecord = errors.New("file record orphaned")
)

// DuplicateError reports which unique field collided on create.
type DuplicateError struct {
	Field string
}

func (e *DuplicateError) Error() string {
	switch e.Field {
	case "email":
		return "email already registered"
	case "username":
		return "username already taken"
	default:
		return fmt.Sprintf("%s already exists", e.Field)
	}
}

// Is makes errors.Is(err, ErrorDuplicate) hold for any DuplicateError.
func (e *DuplicateError) Is(target error) bool {
	return target == ErrorDuplicate
}

// ValidationError carries a client-facing message describing rejected input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Is makes errors.Is(err, ErrorValidation) hold for any ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrorValidation
}

// NewValidationError formats a ValidationError.
func NewValidationError(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}
