package numbering

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/nurpe/podryad/internal/apperr"
)

type memoryStore struct {
	mu       sync.Mutex
	counters map[string]int
	issued   map[string]map[int]bool
	// interfere runs before each Advance, e.g. to simulate a concurrent writer.
	interfere func(key string)
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		counters: make(map[string]int),
		issued:   make(map[string]map[int]bool),
	}
}

func (s *memoryStore) LastIssued(_ context.Context, key string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counters[key], nil
}

func (s *memoryStore) Advance(_ context.Context, key string, last, next int, commit func(tx *gorm.DB) error) error {
	if s.interfere != nil {
		s.interfere(key)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.counters[key] != last || s.issued[key][next] {
		return apperr.ErrRaceLost
	}
	if err := commit(nil); err != nil {
		return err
	}
	s.counters[key] = next
	if s.issued[key] == nil {
		s.issued[key] = make(map[int]bool)
	}
	s.issued[key][next] = true
	return nil
}

func (s *memoryStore) bump(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[key]++
}

func committed(*gorm.DB, Number) error { return nil }

func TestContractFormat(t *testing.T) {
	scope, err := ContractScope("11118", 2025)
	require.NoError(t, err)
	assert.Equal(t, "02/25/11118", scope.Format(2))
	assert.Equal(t, "123/25/11118", scope.Format(123))
	assert.Equal(t, "contract:11118:2025", scope.Key())

	scope, err = ContractScope("7", 2009)
	require.NoError(t, err)
	assert.Equal(t, "01/09/7", scope.Format(1))
}

func TestActFormat(t *testing.T) {
	scope, err := ActScope("02/25/11118")
	require.NoError(t, err)
	assert.Equal(t, "003", scope.Format(3))
	assert.Equal(t, "1000", scope.Format(1000))
	assert.Equal(t, "act:02/25/11118", scope.Key())
}

func TestScopeValidation(t *testing.T) {
	_, err := ContractScope(" ", 2025)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = ContractScope("11118", 0)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = ActScope("")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestIssueSequence(t *testing.T) {
	authority := NewAuthority(newMemoryStore(), 3, zerolog.Nop())
	scope, err := ContractScope("11118", 2025)
	require.NoError(t, err)

	var got []string
	for i := 0; i < 3; i++ {
		n, err := authority.Issue(context.Background(), scope, committed)
		require.NoError(t, err)
		got = append(got, n.Formatted)
	}
	assert.Equal(t, []string{"01/25/11118", "02/25/11118", "03/25/11118"}, got)
}

func TestNextIsIdempotent(t *testing.T) {
	authority := NewAuthority(newMemoryStore(), 3, zerolog.Nop())
	scope, err := ActScope("01/25/11118")
	require.NoError(t, err)

	first, err := authority.Next(context.Background(), scope)
	require.NoError(t, err)
	second, err := authority.Next(context.Background(), scope)
	require.NoError(t, err)
	assert.Equal(t, "001", first.Formatted)
	assert.Equal(t, first, second)
}

func TestFailedCommitDoesNotAdvance(t *testing.T) {
	store := newMemoryStore()
	authority := NewAuthority(store, 3, zerolog.Nop())
	scope, err := ActScope("01/25/11118")
	require.NoError(t, err)

	_, err = authority.Issue(context.Background(), scope, committed)
	require.NoError(t, err)

	invalid := apperr.Validation("act has no lines")
	var attempted Number
	_, err = authority.Issue(context.Background(), scope, func(_ *gorm.DB, n Number) error {
		attempted = n
		return invalid
	})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, "002", attempted.Formatted)

	next, err := authority.Next(context.Background(), scope)
	require.NoError(t, err)
	assert.Equal(t, "002", next.Formatted)

	issued, err := authority.Issue(context.Background(), scope, committed)
	require.NoError(t, err)
	assert.Equal(t, attempted.Formatted, issued.Formatted)
}

func TestRaceLostIsRetried(t *testing.T) {
	store := newMemoryStore()
	losses := 2
	store.interfere = func(key string) {
		if losses > 0 {
			losses--
			store.bump(key)
		}
	}
	authority := NewAuthority(store, 5, zerolog.Nop())
	scope, err := ContractScope("11118", 2025)
	require.NoError(t, err)

	n, err := authority.Issue(context.Background(), scope, committed)
	require.NoError(t, err)
	assert.Equal(t, 3, n.Sequence)
}

func TestRetriesExhausted(t *testing.T) {
	store := newMemoryStore()
	store.interfere = store.bump
	authority := NewAuthority(store, 3, zerolog.Nop())
	scope, err := ContractScope("11118", 2025)
	require.NoError(t, err)

	calls := 0
	_, err = authority.Issue(context.Background(), scope, func(*gorm.DB, Number) error {
		calls++
		return nil
	})
	assert.ErrorIs(t, err, apperr.ErrRetryExhausted)
	assert.False(t, errors.Is(err, apperr.ErrRaceLost))
	assert.Zero(t, calls)
}

func TestConcurrentIssueYieldsDistinctNumbers(t *testing.T) {
	const writers = 20
	authority := NewAuthority(newMemoryStore(), writers+5, zerolog.Nop())
	scope, err := ActScope("05/25/11118")
	require.NoError(t, err)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[string]bool)
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := authority.Issue(context.Background(), scope, committed)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			assert.False(t, seen[n.Formatted], "duplicate %s", n.Formatted)
			seen[n.Formatted] = true
		}()
	}
	wg.Wait()

	assert.Len(t, seen, writers)
	assert.True(t, seen["001"])
	assert.True(t, seen["020"])
}

func TestIssueHonoursCancelledContext(t *testing.T) {
	authority := NewAuthority(newMemoryStore(), 3, zerolog.Nop())
	scope, err := ActScope("01/25/1")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = authority.Issue(ctx, scope, committed)
	assert.ErrorIs(t, err, context.Canceled)
}
