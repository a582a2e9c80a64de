package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"

	"ticket-inventory/internal/status"
	"ticket-inventory/models"
)

// CategoryStore reads and mutates ticket_categories rows through dbx. The
// conditional updates are the atomic primitives the ledger relies on: the
// database serializes concurrent writers on the row, so a check inside the
// UPDATE's WHERE clause can never be raced past.
type CategoryStore struct {
	app core.App
}

func NewCategoryStore(app core.App) *CategoryStore {
	return &CategoryStore{app: app}
}

type categoryRow struct {
	ID           string  `db:"id"`
	Event        string  `db:"event"`
	Name         string  `db:"name"`
	Price        float64 `db:"price"`
	TotalTickets int     `db:"total_tickets"`
	TicketsSold  int     `db:"tickets_sold"`
	Active       bool    `db:"active"`
}

func (r categoryRow) toModel() models.TicketCategory {
	return models.TicketCategory{
		ID:           r.ID,
		EventID:      r.Event,
		Name:         r.Name,
		Price:        r.Price,
		TotalTickets: r.TotalTickets,
		TicketsSold:  r.TicketsSold,
		Active:       r.Active,
	}
}

func (s *CategoryStore) Get(ctx context.Context, categoryID string) (models.TicketCategory, error) {
	var row categoryRow
	err := s.app.DB().
		NewQuery(`SELECT id, event, name, price, total_tickets, tickets_sold, active
			FROM ticket_categories WHERE id = {:id}`).
		Bind(dbx.Params{"id": categoryID}).
		WithContext(ctx).
		One(&row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.TicketCategory{}, status.ErrCategoryNotFound
		}
		return models.TicketCategory{}, fmt.Errorf("get category: %w", err)
	}

	return row.toModel(), nil
}

func (s *CategoryStore) List(ctx context.Context) ([]models.TicketCategory, error) {
	var rows []categoryRow
	err := s.app.DB().
		NewQuery(`SELECT id, event, name, price, total_tickets, tickets_sold, active
			FROM ticket_categories ORDER BY name`).
		WithContext(ctx).
		All(&rows)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	categories := make([]models.TicketCategory, len(rows))
	for i, row := range rows {
		categories[i] = row.toModel()
	}
	return categories, nil
}

// IncrementSoldIfAvailable is the increment-if-not-exceeded primitive. The
// capacity and active checks live in the WHERE clause so the read and the
// write are one statement.
func (s *CategoryStore) IncrementSoldIfAvailable(ctx context.Context, categoryID string, qty int) error {
	result, err := s.app.DB().
		NewQuery(`UPDATE ticket_categories
			SET tickets_sold = tickets_sold + {:qty}
			WHERE id = {:id} AND active = 1 AND tickets_sold + {:qty} <= total_tickets`).
		Bind(dbx.Params{"id": categoryID, "qty": qty}).
		WithContext(ctx).
		Execute()
	if err != nil {
		return fmt.Errorf("increment sold: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("increment sold: %w", err)
	}
	if rows > 0 {
		return nil
	}

	// The guarded update matched nothing; read the row to tell the caller why.
	category, err := s.Get(ctx, categoryID)
	if err != nil {
		return err
	}
	if !category.Active {
		return status.ErrCategoryInactive
	}
	return status.ErrSoldOut
}

// DecrementSold floors at zero.
func (s *CategoryStore) DecrementSold(ctx context.Context, categoryID string, qty int) error {
	result, err := s.app.DB().
		NewQuery(`UPDATE ticket_categories
			SET tickets_sold = MAX(tickets_sold - {:qty}, 0)
			WHERE id = {:id}`).
		Bind(dbx.Params{"id": categoryID, "qty": qty}).
		WithContext(ctx).
		Execute()
	if err != nil {
		return fmt.Errorf("decrement sold: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("decrement sold: %w", err)
	}
	if rows == 0 {
		return status.ErrCategoryNotFound
	}
	return nil
}

func (s *CategoryStore) UpdateCapacityGuarded(ctx context.Context, categoryID string, newTotal int) error {
	result, err := s.app.DB().
		NewQuery(`UPDATE ticket_categories
			SET total_tickets = {:total}
			WHERE id = {:id} AND tickets_sold <= {:total}`).
		Bind(dbx.Params{"id": categoryID, "total": newTotal}).
		WithContext(ctx).
		Execute()
	if err != nil {
		return fmt.Errorf("update capacity: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update capacity: %w", err)
	}
	if rows > 0 {
		return nil
	}

	if _, err := s.Get(ctx, categoryID); err != nil {
		return err
	}
	return status.ErrCapacityBelowSold
}

func (s *CategoryStore) SetActive(ctx context.Context, categoryID string, active bool) error {
	result, err := s.app.DB().
		NewQuery(`UPDATE ticket_categories SET active = {:active} WHERE id = {:id}`).
		Bind(dbx.Params{"id": categoryID, "active": active}).
		WithContext(ctx).
		Execute()
	if err != nil {
		return fmt.Errorf("set active: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set active: %w", err)
	}
	if rows == 0 {
		return status.ErrCategoryNotFound
	}
	return nil
}

// SetSoldCount overwrites the durable sold count. Only the Redis flusher
// uses it; the value comes from the authoritative live ledger.
func (s *CategoryStore) SetSoldCount(ctx context.Context, categoryID string, sold int) error {
	result, err := s.app.DB().
		NewQuery(`UPDATE ticket_categories SET tickets_sold = {:sold} WHERE id = {:id}`).
		Bind(dbx.Params{"id": categoryID, "sold": sold}).
		WithContext(ctx).
		Execute()
	if err != nil {
		return fmt.Errorf("set sold count: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set sold count: %w", err)
	}
	if rows == 0 {
		return status.ErrCategoryNotFound
	}
	return nil
}
