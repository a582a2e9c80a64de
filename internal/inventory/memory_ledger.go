package inventory

import (
	"context"
	"sync"
	"time"

	"ticket-inventory/internal/status"
	"ticket-inventory/models"
)

type categoryState struct {
	mu     sync.Mutex
	total  int
	sold   int
	active bool
}

// MemoryLedger keeps counts in process memory with a mutex per category.
// Suitable for single-process deployments and tests; locking granularity is
// per category, so different categories never contend.
type MemoryLedger struct {
	mu         sync.RWMutex
	categories map[string]*categoryState
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{categories: make(map[string]*categoryState)}
}

// Seed registers or overwrites a category's counts. Used at boot and by the
// category hooks.
func (l *MemoryLedger) Seed(ctx context.Context, categoryID string, total, sold int, active bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.categories[categoryID] = &categoryState{
		total:  total,
		sold:   sold,
		active: active,
	}
	return nil
}

// Sync updates a category's definition (total, active) while preserving the
// live sold count. The ledger is authoritative for sold; a record edit made
// while tickets are selling must never reset it. The sold argument is used
// only when the category is not in the ledger yet.
func (l *MemoryLedger) Sync(ctx context.Context, categoryID string, total, sold int, active bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	state, ok := l.categories[categoryID]
	if !ok {
		l.categories[categoryID] = &categoryState{
			total:  total,
			sold:   sold,
			active: active,
		}
		return nil
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	state.total = total
	state.active = active
	return nil
}

// Remove drops a category from the ledger after its record is deleted.
func (l *MemoryLedger) Remove(ctx context.Context, categoryID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.categories, categoryID)
	return nil
}

func (l *MemoryLedger) get(categoryID string) (*categoryState, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	state, ok := l.categories[categoryID]
	if !ok {
		return nil, status.ErrCategoryNotFound
	}
	return state, nil
}

func (l *MemoryLedger) TryReserve(ctx context.Context, categoryID string, qty int) (models.Reservation, error) {
	state, err := l.get(categoryID)
	if err != nil {
		return models.Reservation{}, err
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	if !state.active {
		return models.Reservation{}, status.ErrCategoryInactive
	}
	if state.sold+qty > state.total {
		return models.Reservation{}, status.ErrSoldOut
	}
	state.sold += qty

	return models.Reservation{
		CategoryID: categoryID,
		Quantity:   qty,
		ReservedAt: time.Now(),
	}, nil
}

func (l *MemoryLedger) Release(ctx context.Context, categoryID string, qty int) error {
	state, err := l.get(categoryID)
	if err != nil {
		return err
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	state.sold -= qty
	if state.sold < 0 {
		state.sold = 0
	}
	return nil
}

func (l *MemoryLedger) AdjustCapacity(ctx context.Context, categoryID string, newTotal int) error {
	state, err := l.get(categoryID)
	if err != nil {
		return err
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	if newTotal < state.sold {
		return status.ErrCapacityBelowSold
	}
	state.total = newTotal
	return nil
}

func (l *MemoryLedger) SetActive(ctx context.Context, categoryID string, active bool) error {
	state, err := l.get(categoryID)
	if err != nil {
		return err
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	state.active = active
	return nil
}

func (l *MemoryLedger) Snapshots(ctx context.Context) ([]Snapshot, error) {
	l.mu.RLock()
	ids := make([]string, 0, len(l.categories))
	for id := range l.categories {
		ids = append(ids, id)
	}
	l.mu.RUnlock()

	snapshots := make([]Snapshot, 0, len(ids))
	for _, id := range ids {
		snapshot, err := l.Snapshot(ctx, id)
		if err != nil {
			continue
		}
		snapshots = append(snapshots, snapshot)
	}
	return snapshots, nil
}

func (l *MemoryLedger) Snapshot(ctx context.Context, categoryID string) (Snapshot, error) {
	state, err := l.get(categoryID)
	if err != nil {
		return Snapshot{}, err
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	return Snapshot{
		CategoryID:   categoryID,
		TotalTickets: state.total,
		TicketsSold:  state.sold,
		Active:       state.active,
	}, nil
}
