package services

import (
	"context"
	"fmt"
	"time"

	"ticket-inventory/internal/status"
	"ticket-inventory/models"
	"ticket-inventory/utils"
)

// TicketRecords is the persistence surface the issuer writes through.
type TicketRecords interface {
	Create(ctx context.Context, ticket models.Ticket) (models.Ticket, error)
	Get(ctx context.Context, ticketID string) (models.Ticket, error)
	MarkCancelled(ctx context.Context, ticketID string, at time.Time) (models.Ticket, bool, error)
	ListByUser(ctx context.Context, userID string) ([]models.Ticket, error)
}

// TicketService materializes and voids individual tickets. It never checks
// capacity; that is the coordinator's job through the ledger.
type TicketService struct {
	records TicketRecords
}

func NewTicketService(records TicketRecords) *TicketService {
	return &TicketService{records: records}
}

// Issue creates an active ticket at the given price, stamped now. A
// persistence failure comes back wrapped in status.ErrIssuanceFailed.
func (s *TicketService) Issue(ctx context.Context, categoryID, userID string, price float64) (models.Ticket, error) {
	code, err := utils.GenerateTicketCode(6)
	if err != nil {
		return models.Ticket{}, fmt.Errorf("%w: generating code: %v", status.ErrIssuanceFailed, err)
	}

	ticket := models.Ticket{
		CategoryID:  categoryID,
		UserID:      userID,
		Code:        code,
		Price:       price,
		Status:      models.TicketActive,
		PurchasedAt: time.Now(),
		Active:      true,
	}

	created, err := s.records.Create(ctx, ticket)
	if err != nil {
		return models.Ticket{}, fmt.Errorf("%w: %v", status.ErrIssuanceFailed, err)
	}
	return created, nil
}

// Void marks a ticket cancelled and inactive. The record is retained for
// audit. The second return reports whether this call changed anything.
func (s *TicketService) Void(ctx context.Context, ticketID string) (models.Ticket, bool, error) {
	return s.records.MarkCancelled(ctx, ticketID, time.Now())
}

func (s *TicketService) Get(ctx context.Context, ticketID string) (models.Ticket, error) {
	return s.records.Get(ctx, ticketID)
}

func (s *TicketService) ListByUser(ctx context.Context, userID string) ([]models.Ticket, error) {
	return s.records.ListByUser(ctx, userID)
}
