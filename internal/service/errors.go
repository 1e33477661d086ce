package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/nurpe/podryad/internal/apperr"
	"github.com/nurpe/podryad/internal/model"
	"github.com/nurpe/podryad/internal/repository"
)

// storeError turns storage errors into the application's error kinds.
func storeError(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: %s", apperr.ErrNotFound, what)
	case repository.IsDuplicate(err):
		return &apperr.ConflictError{Reason: what + " already exists"}
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return &apperr.ConflictError{Reason: what + " is still referenced"}
	default:
		return err
	}
}

func requireAuthor(principal model.Principal) error {
	if !principal.CanAuthor() {
		return apperr.ErrPermissionDenied
	}
	return nil
}
