package repository

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// ErrNumberTaken marks a document whose number already exists in its scope.
// Only this duplicate means another writer won the numbering race.
var ErrNumberTaken = errors.New("document number taken")

// numberTaken wraps a duplicate raised by a document header insert.
func numberTaken(err error) error {
	if IsDuplicate(err) {
		return fmt.Errorf("%w: %w", ErrNumberTaken, err)
	}
	return err
}

// IsDuplicate recognises unique violations whether or not the driver
// translated them.
func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	errLower := strings.ToLower(err.Error())
	return strings.Contains(errLower, "unique constraint") ||
		strings.Contains(errLower, "duplicate key") ||
		strings.Contains(errLower, "sqlstate 23505")
}
