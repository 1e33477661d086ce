// Package numbering issues contract and act numbers. A number is only
// consumed when the document that carries it is committed.
package numbering

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/nurpe/podryad/internal/apperr"
)

const DefaultMaxAttempts = 5

// CommitFunc persists the document that owns number inside tx. An error
// rolls back both the document and the counter advance.
type CommitFunc func(tx *gorm.DB, number Number) error

// CounterStore keeps the last issued value per scope key.
type CounterStore interface {
	LastIssued(ctx context.Context, scopeKey string) (int, error)
	// Advance moves the counter from last to next and runs commit in the
	// same transaction. It returns apperr.ErrRaceLost when the counter is no
	// longer at last or next was already issued.
	Advance(ctx context.Context, scopeKey string, last, next int, commit func(tx *gorm.DB) error) error
}

type Authority struct {
	store       CounterStore
	maxAttempts int
	log         zerolog.Logger
}

func NewAuthority(store CounterStore, maxAttempts int, log zerolog.Logger) *Authority {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Authority{store: store, maxAttempts: maxAttempts, log: log}
}

// Next returns the number the next successful Issue in scope would get.
// It changes nothing, so repeated calls agree until a commit happens.
func (a *Authority) Next(ctx context.Context, scope Scope) (Number, error) {
	last, err := a.store.LastIssued(ctx, scope.Key())
	if err != nil {
		return Number{}, fmt.Errorf("read counter %s: %w", scope.Key(), err)
	}
	return a.number(scope, last+1), nil
}

// Issue reserves the next number in scope and commits the owning document
// with it atomically. Lost races are retried up to the configured number
// of attempts.
func (a *Authority) Issue(ctx context.Context, scope Scope, commit CommitFunc) (Number, error) {
	key := scope.Key()
	for attempt := 1; attempt <= a.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return Number{}, err
		}
		last, err := a.store.LastIssued(ctx, key)
		if err != nil {
			return Number{}, fmt.Errorf("read counter %s: %w", key, err)
		}
		number := a.number(scope, last+1)

		err = a.store.Advance(ctx, key, last, number.Sequence, func(tx *gorm.DB) error {
			return commit(tx, number)
		})
		if err == nil {
			a.log.Debug().Str("scope", key).Str("number", number.Formatted).Int("attempt", attempt).Msg("number issued")
			return number, nil
		}
		if !errors.Is(err, apperr.ErrRaceLost) {
			return Number{}, err
		}
		a.log.Warn().Str("scope", key).Int("sequence", number.Sequence).Int("attempt", attempt).Msg("numbering race lost, retrying")
	}
	return Number{}, fmt.Errorf("%w: scope %s contended after %d attempts", apperr.ErrRetryExhausted, key, a.maxAttempts)
}

func (a *Authority) number(scope Scope, sequence int) Number {
	return Number{Scope: scope, Sequence: sequence, Formatted: scope.Format(sequence)}
}
