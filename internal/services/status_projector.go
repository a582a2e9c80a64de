package services

import (
	"context"

	"ticket-inventory/internal/inventory"
	"ticket-inventory/models"
)

// StatusOf derives a category's availability from ledger state. Pure
// function: inactive wins, then sold out, then available.
func StatusOf(snapshot inventory.Snapshot) models.CategoryStatus {
	if !snapshot.Active {
		return models.CategoryInactive
	}
	if snapshot.TicketsSold >= snapshot.TotalTickets {
		return models.CategorySoldOut
	}
	return models.CategoryAvailable
}

// CategoryAvailability is the read-path projection served over HTTP.
type CategoryAvailability struct {
	CategoryID       string                `json:"category_id"`
	Status           models.CategoryStatus `json:"status"`
	TotalTickets     int                   `json:"total_tickets"`
	TicketsSold      int                   `json:"tickets_sold"`
	AvailableTickets int                   `json:"available_tickets"`
}

// StatusProjector reads a fresh ledger snapshot on every call. Projections
// are never cached independently; a stale projection is a correctness bug.
type StatusProjector struct {
	ledger inventory.Ledger
}

func NewStatusProjector(ledger inventory.Ledger) *StatusProjector {
	return &StatusProjector{ledger: ledger}
}

func (p *StatusProjector) ProjectCategory(ctx context.Context, categoryID string) (CategoryAvailability, error) {
	snapshot, err := p.ledger.Snapshot(ctx, categoryID)
	if err != nil {
		return CategoryAvailability{}, err
	}

	return projectSnapshot(snapshot), nil
}

func projectSnapshot(snapshot inventory.Snapshot) CategoryAvailability {
	return CategoryAvailability{
		CategoryID:       snapshot.CategoryID,
		Status:           StatusOf(snapshot),
		TotalTickets:     snapshot.TotalTickets,
		TicketsSold:      snapshot.TicketsSold,
		AvailableTickets: snapshot.Available(),
	}
}

// SnapshotLister lists the live state of every category.
type SnapshotLister interface {
	Snapshots(ctx context.Context) ([]inventory.Snapshot, error)
}

// ProjectAll renders the dashboard view from a snapshot listing ledger.
func ProjectAll(ctx context.Context, lister SnapshotLister) ([]CategoryAvailability, error) {
	snapshots, err := lister.Snapshots(ctx)
	if err != nil {
		return nil, err
	}

	projections := make([]CategoryAvailability, len(snapshots))
	for i, snapshot := range snapshots {
		projections[i] = projectSnapshot(snapshot)
	}
	return projections, nil
}
