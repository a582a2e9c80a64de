package inventory

import (
	"context"
	"time"

	"ticket-inventory/models"
)

// StoreLedger delegates atomicity to the persistence collaborator's
// conditional updates. It is the default backend: correct across processes
// without any shared in-memory state.
type StoreLedger struct {
	store CategoryStore
}

func NewStoreLedger(store CategoryStore) *StoreLedger {
	return &StoreLedger{store: store}
}

func (l *StoreLedger) TryReserve(ctx context.Context, categoryID string, qty int) (models.Reservation, error) {
	if err := l.store.IncrementSoldIfAvailable(ctx, categoryID, qty); err != nil {
		return models.Reservation{}, err
	}

	return models.Reservation{
		CategoryID: categoryID,
		Quantity:   qty,
		ReservedAt: time.Now(),
	}, nil
}

func (l *StoreLedger) Release(ctx context.Context, categoryID string, qty int) error {
	return l.store.DecrementSold(ctx, categoryID, qty)
}

func (l *StoreLedger) AdjustCapacity(ctx context.Context, categoryID string, newTotal int) error {
	return l.store.UpdateCapacityGuarded(ctx, categoryID, newTotal)
}

func (l *StoreLedger) SetActive(ctx context.Context, categoryID string, active bool) error {
	return l.store.SetActive(ctx, categoryID, active)
}

func (l *StoreLedger) Snapshots(ctx context.Context) ([]Snapshot, error) {
	categories, err := l.store.List(ctx)
	if err != nil {
		return nil, err
	}

	snapshots := make([]Snapshot, len(categories))
	for i, category := range categories {
		snapshots[i] = Snapshot{
			CategoryID:   category.ID,
			TotalTickets: category.TotalTickets,
			TicketsSold:  category.TicketsSold,
			Active:       category.Active,
		}
	}
	return snapshots, nil
}

func (l *StoreLedger) Snapshot(ctx context.Context, categoryID string) (Snapshot, error) {
	category, err := l.store.Get(ctx, categoryID)
	if err != nil {
		return Snapshot{}, err
	}

	return Snapshot{
		CategoryID:   category.ID,
		TotalTickets: category.TotalTickets,
		TicketsSold:  category.TicketsSold,
		Active:       category.Active,
	}, nil
}
