package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/nurpe/podryad/internal/apperr"
)

type SequenceRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewSequenceRepository(db *gorm.DB) *SequenceRepository {
	return &SequenceRepository{db: db, now: time.Now}
}

func (r *SequenceRepository) LastIssued(ctx context.Context, scopeKey string) (int, error) {
	var last int
	if err := r.db.WithContext(ctx).Raw(`
		SELECT COALESCE(MAX(last_issued_number), 0)
		FROM sequence_counters
		WHERE scope_key = ?
	`, scopeKey).Scan(&last).Error; err != nil {
		return 0, err
	}
	return last, nil
}

// Advance moves the counter with an optimistic check on its previous
// value, records next in issued_numbers and runs commit, all in one
// transaction. A concurrent writer makes it fail with apperr.ErrRaceLost,
// as does a commit that reports ErrNumberTaken.
func (r *SequenceRepository) Advance(ctx context.Context, scopeKey string, last, next int, commit func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := r.now().UTC()

		var res *gorm.DB
		if last == 0 {
			res = tx.Exec(`
				INSERT INTO sequence_counters (scope_key, last_issued_number, last_updated)
				VALUES (?, ?, ?)
				ON CONFLICT (scope_key) DO NOTHING
			`, scopeKey, next, now)
		} else {
			res = tx.Exec(`
				UPDATE sequence_counters
				SET last_issued_number = ?, last_updated = ?
				WHERE scope_key = ? AND last_issued_number = ?
			`, next, now, scopeKey, last)
		}
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.ErrRaceLost
		}

		if err := tx.Exec(`
			INSERT INTO issued_numbers (scope_key, issued_number, issued_at)
			VALUES (?, ?, ?)
		`, scopeKey, next, now).Error; err != nil {
			if IsDuplicate(err) {
				return apperr.ErrRaceLost
			}
			return err
		}

		if err := commit(tx); err != nil {
			if errors.Is(err, ErrNumberTaken) {
				return apperr.ErrRaceLost
			}
			return err
		}
		return nil
	})
}
