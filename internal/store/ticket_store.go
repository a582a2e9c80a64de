package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/types"

	"ticket-inventory/internal/status"
	"ticket-inventory/models"
)

// TicketStore persists individual tickets as PocketBase records.
type TicketStore struct {
	app core.App
}

func NewTicketStore(app core.App) *TicketStore {
	return &TicketStore{app: app}
}

func (s *TicketStore) Create(ctx context.Context, ticket models.Ticket) (models.Ticket, error) {
	collection, err := s.app.FindCollectionByNameOrId("tickets")
	if err != nil {
		return models.Ticket{}, fmt.Errorf("create ticket: %w", err)
	}

	record := core.NewRecord(collection)
	record.Set("category", ticket.CategoryID)
	record.Set("user", ticket.UserID)
	record.Set("code", ticket.Code)
	record.Set("price", ticket.Price)
	record.Set("status", string(ticket.Status))
	record.Set("purchased_at", ticket.PurchasedAt)
	record.Set("active", ticket.Active)

	if err := s.app.Save(record); err != nil {
		return models.Ticket{}, fmt.Errorf("create ticket: %w", err)
	}

	ticket.ID = record.Id
	return ticket, nil
}

func (s *TicketStore) Get(ctx context.Context, ticketID string) (models.Ticket, error) {
	record, err := s.app.FindRecordById("tickets", ticketID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Ticket{}, status.ErrTicketNotFound
		}
		return models.Ticket{}, fmt.Errorf("get ticket: %w", err)
	}

	return recordToTicket(record), nil
}

// MarkCancelled flips the ticket into its terminal state. The status check
// lives in the UPDATE's WHERE clause so two concurrent cancels cannot both
// observe an active ticket; exactly one caller sees changed=true.
// Already-cancelled tickets come back unchanged so callers can stay
// idempotent.
func (s *TicketStore) MarkCancelled(ctx context.Context, ticketID string, at time.Time) (models.Ticket, bool, error) {
	cancelledAt, err := types.ParseDateTime(at)
	if err != nil {
		return models.Ticket{}, false, fmt.Errorf("cancel ticket: %w", err)
	}

	result, err := s.app.DB().
		NewQuery(`UPDATE tickets
			SET status = {:cancelled}, cancelled_at = {:at}, active = 0
			WHERE id = {:id} AND status = {:active}`).
		Bind(dbx.Params{
			"id":        ticketID,
			"cancelled": string(models.TicketCancelled),
			"active":    string(models.TicketActive),
			"at":        cancelledAt.String(),
		}).
		WithContext(ctx).
		Execute()
	if err != nil {
		return models.Ticket{}, false, fmt.Errorf("cancel ticket: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return models.Ticket{}, false, fmt.Errorf("cancel ticket: %w", err)
	}

	ticket, err := s.Get(ctx, ticketID)
	if err != nil {
		return models.Ticket{}, false, err
	}
	return ticket, rows > 0, nil
}

func (s *TicketStore) ListByUser(ctx context.Context, userID string) ([]models.Ticket, error) {
	records, err := s.app.FindRecordsByFilter(
		"tickets",
		"user = {:user}",
		"-purchased_at",
		0,
		0,
		dbx.Params{"user": userID},
	)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}

	tickets := make([]models.Ticket, len(records))
	for i, record := range records {
		tickets[i] = recordToTicket(record)
	}
	return tickets, nil
}

// CountActiveByCategory reports issued tickets still active for a category,
// used by the admin dashboard to cross-check the ledger.
func (s *TicketStore) CountActiveByCategory(ctx context.Context, categoryID string) (int, error) {
	var count struct {
		Total int `db:"total"`
	}
	err := s.app.DB().
		NewQuery(`SELECT COUNT(*) AS total FROM tickets
			WHERE category = {:category} AND status = 'active'`).
		Bind(dbx.Params{"category": categoryID}).
		WithContext(ctx).
		One(&count)
	if err != nil {
		return 0, fmt.Errorf("count active tickets: %w", err)
	}
	return count.Total, nil
}

func recordToTicket(record *core.Record) models.Ticket {
	ticket := models.Ticket{
		ID:          record.Id,
		CategoryID:  record.GetString("category"),
		UserID:      record.GetString("user"),
		Code:        record.GetString("code"),
		Price:       record.GetFloat("price"),
		Status:      models.TicketStatus(record.GetString("status")),
		PurchasedAt: record.GetDateTime("purchased_at").Time(),
		Active:      record.GetBool("active"),
	}

	if cancelledAt := record.GetDateTime("cancelled_at"); !cancelledAt.IsZero() {
		t := cancelledAt.Time()
		ticket.CancelledAt = &t
	}

	return ticket
}
