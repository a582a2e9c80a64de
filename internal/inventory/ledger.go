package inventory

import (
	"context"

	"ticket-inventory/models"
)

// Snapshot is a point-in-time view of one category's ledger state.
type Snapshot struct {
	CategoryID   string `json:"category_id"`
	TotalTickets int    `json:"total_tickets"`
	TicketsSold  int    `json:"tickets_sold"`
	Active       bool   `json:"active"`
}

func (s Snapshot) Available() int {
	remaining := s.TotalTickets - s.TicketsSold
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Ledger is the source of truth for ticket counts per category. TryReserve
// must behave as a single atomic compare-and-increment per category: no two
// concurrent callers may both win the last slot. Operations on different
// categories never block each other.
type Ledger interface {
	// TryReserve atomically checks capacity and the active flag, increments
	// the sold count by qty and returns a reservation token. Fails fast with
	// status.ErrSoldOut, status.ErrCategoryInactive or
	// status.ErrCategoryNotFound.
	TryReserve(ctx context.Context, categoryID string, qty int) (models.Reservation, error)

	// Release decrements the sold count by qty, floored at zero. Used as the
	// compensating action on cancellation and failed issuance.
	Release(ctx context.Context, categoryID string, qty int) error

	// AdjustCapacity sets a new total, rejecting with
	// status.ErrCapacityBelowSold when newTotal < sold.
	AdjustCapacity(ctx context.Context, categoryID string, newTotal int) error

	// SetActive flips the admin lifecycle flag, independent of the derived
	// availability status.
	SetActive(ctx context.Context, categoryID string, active bool) error

	// Snapshot returns the ledger state at call time. Read paths must not
	// cache it independently.
	Snapshot(ctx context.Context, categoryID string) (Snapshot, error)
}

// CategoryStore is the persistence collaborator backing the store ledger.
// IncrementSoldIfAvailable must be atomic with respect to concurrent
// callers (a conditional update or equivalent locking read).
type CategoryStore interface {
	Get(ctx context.Context, categoryID string) (models.TicketCategory, error)
	List(ctx context.Context) ([]models.TicketCategory, error)
	IncrementSoldIfAvailable(ctx context.Context, categoryID string, qty int) error
	DecrementSold(ctx context.Context, categoryID string, qty int) error
	UpdateCapacityGuarded(ctx context.Context, categoryID string, newTotal int) error
	SetActive(ctx context.Context, categoryID string, active bool) error
}
