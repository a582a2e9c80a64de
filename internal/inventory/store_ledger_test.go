package inventory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticket-inventory/internal/status"
	"ticket-inventory/models"
)

// fakeCategoryStore mimics the conditional-update semantics of the real
// store without a database.
type fakeCategoryStore struct {
	categories map[string]*models.TicketCategory
}

func newFakeCategoryStore(categories ...models.TicketCategory) *fakeCategoryStore {
	store := &fakeCategoryStore{categories: make(map[string]*models.TicketCategory)}
	for i := range categories {
		c := categories[i]
		store.categories[c.ID] = &c
	}
	return store
}

func (s *fakeCategoryStore) Get(ctx context.Context, categoryID string) (models.TicketCategory, error) {
	c, ok := s.categories[categoryID]
	if !ok {
		return models.TicketCategory{}, status.ErrCategoryNotFound
	}
	return *c, nil
}

func (s *fakeCategoryStore) List(ctx context.Context) ([]models.TicketCategory, error) {
	out := make([]models.TicketCategory, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, *c)
	}
	return out, nil
}

func (s *fakeCategoryStore) IncrementSoldIfAvailable(ctx context.Context, categoryID string, qty int) error {
	c, ok := s.categories[categoryID]
	if !ok {
		return status.ErrCategoryNotFound
	}
	if !c.Active {
		return status.ErrCategoryInactive
	}
	if c.TicketsSold+qty > c.TotalTickets {
		return status.ErrSoldOut
	}
	c.TicketsSold += qty
	return nil
}

func (s *fakeCategoryStore) DecrementSold(ctx context.Context, categoryID string, qty int) error {
	c, ok := s.categories[categoryID]
	if !ok {
		return status.ErrCategoryNotFound
	}
	c.TicketsSold -= qty
	if c.TicketsSold < 0 {
		c.TicketsSold = 0
	}
	return nil
}

func (s *fakeCategoryStore) UpdateCapacityGuarded(ctx context.Context, categoryID string, newTotal int) error {
	c, ok := s.categories[categoryID]
	if !ok {
		return status.ErrCategoryNotFound
	}
	if newTotal < c.TicketsSold {
		return status.ErrCapacityBelowSold
	}
	c.TotalTickets = newTotal
	return nil
}

func (s *fakeCategoryStore) SetActive(ctx context.Context, categoryID string, active bool) error {
	c, ok := s.categories[categoryID]
	if !ok {
		return status.ErrCategoryNotFound
	}
	c.Active = active
	return nil
}

func TestStoreLedger_ReserveReleaseRoundTrip(t *testing.T) {
	store := newFakeCategoryStore(models.TicketCategory{
		ID: "cat-1", TotalTickets: 2, TicketsSold: 0, Active: true,
	})
	ledger := NewStoreLedger(store)
	ctx := context.Background()

	reservation, err := ledger.TryReserve(ctx, "cat-1", 1)
	require.NoError(t, err)
	assert.Equal(t, "cat-1", reservation.CategoryID)

	snapshot, err := ledger.Snapshot(ctx, "cat-1")
	require.NoError(t, err)
	assert.Equal(t, 1, snapshot.TicketsSold)

	require.NoError(t, ledger.Release(ctx, "cat-1", 1))

	snapshot, err = ledger.Snapshot(ctx, "cat-1")
	require.NoError(t, err)
	assert.Equal(t, 0, snapshot.TicketsSold)
}

func TestStoreLedger_PassesThroughTypedErrors(t *testing.T) {
	store := newFakeCategoryStore(models.TicketCategory{
		ID: "cat-1", TotalTickets: 1, TicketsSold: 1, Active: true,
	})
	ledger := NewStoreLedger(store)
	ctx := context.Background()

	_, err := ledger.TryReserve(ctx, "cat-1", 1)
	assert.ErrorIs(t, err, status.ErrSoldOut)

	_, err = ledger.TryReserve(ctx, "missing", 1)
	assert.ErrorIs(t, err, status.ErrCategoryNotFound)

	err = ledger.AdjustCapacity(ctx, "cat-1", 0)
	assert.ErrorIs(t, err, status.ErrCapacityBelowSold)
}

func TestStoreLedger_SetActiveBlocksReserves(t *testing.T) {
	store := newFakeCategoryStore(models.TicketCategory{
		ID: "cat-1", TotalTickets: 10, Active: true,
	})
	ledger := NewStoreLedger(store)
	ctx := context.Background()

	require.NoError(t, ledger.SetActive(ctx, "cat-1", false))

	_, err := ledger.TryReserve(ctx, "cat-1", 1)
	assert.ErrorIs(t, err, status.ErrCategoryInactive)
}

func TestStoreLedger_Snapshots(t *testing.T) {
	store := newFakeCategoryStore(
		models.TicketCategory{ID: "cat-1", TotalTickets: 10, TicketsSold: 3, Active: true},
		models.TicketCategory{ID: "cat-2", TotalTickets: 5, TicketsSold: 5, Active: true},
	)
	ledger := NewStoreLedger(store)

	snapshots, err := ledger.Snapshots(context.Background())

	require.NoError(t, err)
	assert.Len(t, snapshots, 2)
}
