package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"checkout-backend/internal/domains/checkout/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession(t *testing.T, customerID uuid.UUID) *model.Session {
	t.Helper()
	item, err := model.NewLineItem(uuid.New(), "Clean Architecture", decimal.NewFromInt(30), 1)
	require.NoError(t, err)
	s, _, err := model.StartSession(uuid.New(), customerID, []model.LineItem{item})
	require.NoError(t, err)
	return s
}

func TestMemoryRepository_SaveAndFind(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	s := newSession(t, uuid.New())

	require.NoError(t, repo.Save(ctx, s))
	assert.Equal(t, 1, s.Version())

	found, err := repo.FindByID(ctx, s.ID())
	require.NoError(t, err)
	assert.Equal(t, s.State(), found.State())

	byCart, err := repo.FindActiveByCartID(ctx, s.CartID())
	require.NoError(t, err)
	assert.Equal(t, s.ID(), byCart.ID())

	byCustomer, err := repo.FindActiveByCustomerID(ctx, s.CustomerID())
	require.NoError(t, err)
	assert.Equal(t, s.ID(), byCustomer.ID())

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, model.ErrSessionNotFound)
}

func TestMemoryRepository_ReturnsIndependentCopies(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	s := newSession(t, uuid.New())
	require.NoError(t, repo.Save(ctx, s))

	loaded, err := repo.FindByID(ctx, s.ID())
	require.NoError(t, err)
	_, err = loaded.Abandon("not saved")
	require.NoError(t, err)

	again, err := repo.FindByID(ctx, s.ID())
	require.NoError(t, err)
	assert.Equal(t, model.StatusActive, again.Status())
}

func TestMemoryRepository_VersionConflict(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	s := newSession(t, uuid.New())
	require.NoError(t, repo.Save(ctx, s))

	first, err := repo.FindByID(ctx, s.ID())
	require.NoError(t, err)
	second, err := repo.FindByID(ctx, s.ID())
	require.NoError(t, err)

	info, err := model.NewBuyerInfo("a@example.com", "A", "B", "")
	require.NoError(t, err)
	_, err = first.SubmitBuyerInfo(info)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, first))
	assert.Equal(t, 2, first.Version())

	_, err = second.Abandon("")
	require.NoError(t, err)
	assert.ErrorIs(t, repo.Save(ctx, second), model.ErrVersionConflict)

	stored, err := repo.FindByID(ctx, s.ID())
	require.NoError(t, err)
	assert.Equal(t, model.StatusActive, stored.Status())
	assert.Equal(t, model.StepDelivery, stored.CurrentStep())
}

func TestMemoryRepository_NewSessionWithVersionConflicts(t *testing.T) {
	repo := NewMemoryRepository()
	s := newSession(t, uuid.New())
	s.MarkSaved(3)

	assert.ErrorIs(t, repo.Save(context.Background(), s), model.ErrVersionConflict)
}

func TestMemoryRepository_OneActivePerCustomer(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	customer := uuid.New()

	first := newSession(t, customer)
	require.NoError(t, repo.Save(ctx, first))

	second := newSession(t, customer)
	assert.ErrorIs(t, repo.Save(ctx, second), model.ErrActiveSessionExists)

	_, err := first.Abandon("replaced")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, first))
	require.NoError(t, repo.Save(ctx, second))
}

func TestMemoryRepository_SaveReplacing(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	customerID := uuid.New()

	previous := newSession(t, customerID)
	require.NoError(t, repo.Save(ctx, previous))

	next := newSession(t, customerID)
	_, err := previous.Abandon("superseded")
	require.NoError(t, err)
	require.NoError(t, repo.SaveReplacing(ctx, previous, next))
	assert.Equal(t, 2, previous.Version())
	assert.Equal(t, 1, next.Version())

	active, err := repo.FindActiveByCustomerID(ctx, customerID)
	require.NoError(t, err)
	assert.Equal(t, next.ID(), active.ID())
	stored, err := repo.FindByID(ctx, previous.ID())
	require.NoError(t, err)
	assert.Equal(t, model.StatusAbandoned, stored.Status())
}

func TestMemoryRepository_SaveReplacingWritesNothingOnConflict(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	customerID := uuid.New()

	previous := newSession(t, customerID)
	require.NoError(t, repo.Save(ctx, previous))
	stale, err := repo.FindByID(ctx, previous.ID())
	require.NoError(t, err)

	// someone else moves the previous session on first
	_, err = previous.Abandon("closed elsewhere")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, previous))

	_, err = stale.Abandon("superseded")
	require.NoError(t, err)
	next := newSession(t, customerID)
	err = repo.SaveReplacing(ctx, stale, next)
	assert.ErrorIs(t, err, model.ErrVersionConflict)

	_, err = repo.FindByID(ctx, next.ID())
	assert.ErrorIs(t, err, model.ErrSessionNotFound)
	assert.Equal(t, 0, next.Version())
}

func TestMemoryRepository_SaveReplacingKeepsOneActive(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	customerID := uuid.New()

	previous := newSession(t, customerID)
	require.NoError(t, repo.Save(ctx, previous))

	// previous still active, so next would be a second active session
	next := newSession(t, customerID)
	err := repo.SaveReplacing(ctx, previous, next)
	assert.ErrorIs(t, err, model.ErrActiveSessionExists)
	assert.Equal(t, 1, previous.Version())
}

func TestMemoryRepository_FindExpiredSessions(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	stale := newSession(t, uuid.New())
	require.NoError(t, repo.Save(ctx, stale))
	done := newSession(t, uuid.New())
	_, err := done.Abandon("")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, done))

	cutoff := time.Now().Add(time.Second)
	expired, err := repo.FindExpiredSessions(ctx, cutoff, 10)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, stale.ID(), expired[0].ID())

	none, err := repo.FindExpiredSessions(ctx, time.Now().Add(-time.Hour), 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemoryRepository_ConcurrentSavesOneWins(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	s := newSession(t, uuid.New())
	require.NoError(t, repo.Save(ctx, s))

	const writers = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < writers; i++ {
		loaded, err := repo.FindByID(ctx, s.ID())
		require.NoError(t, err)
		wg.Add(1)
		go func(sess *model.Session) {
			defer wg.Done()
			if _, err := sess.Expire(); err != nil {
				return
			}
			if repo.Save(ctx, sess) == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}(loaded)
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
}

func TestMemoryCartReader(t *testing.T) {
	reader := NewMemoryCartReader()
	item, err := model.NewLineItem(uuid.New(), "Refactoring", decimal.NewFromInt(45), 2)
	require.NoError(t, err)
	cart := CartSnapshot{ID: uuid.New(), CustomerID: uuid.New(), Items: []model.LineItem{item}}
	reader.Put(cart)

	got, err := reader.GetCart(context.Background(), cart.ID)
	require.NoError(t, err)
	assert.Equal(t, cart.CustomerID, got.CustomerID)
	require.Len(t, got.Items, 1)

	_, err = reader.GetCart(context.Background(), uuid.New())
	assert.ErrorIs(t, err, model.ErrCartNotFound)
}
