package apperr

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrValidation       = errors.New("validation failed")
	ErrConflict         = errors.New("conflict")
	ErrConfiguration    = errors.New("configuration error")
	// ErrRaceLost reports that another writer advanced a sequence counter first.
	ErrRaceLost = errors.New("sequence race lost")
	// ErrRetryExhausted is what callers see once ErrRaceLost retries run out.
	ErrRetryExhausted = errors.New("please retry")
)

// Validation wraps ErrValidation with a human readable message.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Configuration wraps ErrConfiguration.
func Configuration(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

// ConflictError carries what an operator needs to resolve the conflict,
// e.g. the act templates that must be deleted first.
type ConflictError struct {
	Reason             string
	DependentCount     int
	DependentIDs       []uuid.UUID
	RedirectTemplateID *uuid.UUID
}

func (e *ConflictError) Error() string {
	if e.DependentCount > 0 {
		return fmt.Sprintf("%s: %s (%d)", ErrConflict, e.Reason, e.DependentCount)
	}
	return fmt.Sprintf("%s: %s", ErrConflict, e.Reason)
}

func (e *ConflictError) Unwrap() error {
	return ErrConflict
}

// AsConflict extracts a *ConflictError from the chain.
func AsConflict(err error) (*ConflictError, bool) {
	var conflict *ConflictError
	if errors.As(err, &conflict) {
		return conflict, true
	}
	return nil, false
}
