package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"ticket-inventory/internal/inventory"
	"ticket-inventory/internal/status"
	"ticket-inventory/models"
	"ticket-inventory/monitoring"
)

// CategoryReader supplies the current price for a purchase.
type CategoryReader interface {
	Get(ctx context.Context, categoryID string) (models.TicketCategory, error)
}

// Issuer is the ticket materialization surface the coordinator drives.
type Issuer interface {
	Issue(ctx context.Context, categoryID, userID string, price float64) (models.Ticket, error)
	Void(ctx context.Context, ticketID string) (models.Ticket, bool, error)
}

// ReservationService orchestrates purchases end to end: reserve on the
// ledger, issue the ticket, and undo the reservation when issuance fails.
// It is the only mutator of the ledger besides admin capacity changes.
type ReservationService struct {
	ledger     inventory.Ledger
	issuer     Issuer
	categories CategoryReader
	notifier   *Notifier
	monitor    *monitoring.Monitor
}

func NewReservationService(
	ledger inventory.Ledger,
	issuer Issuer,
	categories CategoryReader,
	notifier *Notifier,
	monitor *monitoring.Monitor,
) *ReservationService {
	return &ReservationService{
		ledger:     ledger,
		issuer:     issuer,
		categories: categories,
		notifier:   notifier,
		monitor:    monitor,
	}
}

type PurchaseInput struct {
	CategoryID    string
	UserID        string
	PriceOverride *float64
}

// Purchase converts one unit of capacity into an owned ticket. Business
// rejections (not found, inactive, sold out) pass through as typed errors;
// a persistence failure after the reservation succeeded triggers a
// compensating release and surfaces as a retryable ErrIssuanceFailed.
func (s *ReservationService) Purchase(ctx context.Context, in PurchaseInput) (models.Ticket, error) {
	started := time.Now()

	category, err := s.categories.Get(ctx, in.CategoryID)
	if err != nil {
		s.track("purchase", in.CategoryID, err)
		return models.Ticket{}, err
	}

	reservation, err := s.ledger.TryReserve(ctx, in.CategoryID, 1)
	if err != nil {
		s.track("purchase", in.CategoryID, err)
		return models.Ticket{}, err
	}

	price := category.Price
	if in.PriceOverride != nil {
		price = *in.PriceOverride
	}

	ticket, err := s.issuer.Issue(ctx, in.CategoryID, in.UserID, price)
	if err != nil {
		// Compensating action: the reservation must not outlive the failed
		// issuance. This is the one condition worth logging as a system error.
		if releaseErr := s.ledger.Release(ctx, reservation.CategoryID, reservation.Quantity); releaseErr != nil {
			slog.Error("compensating release failed",
				"category_id", reservation.CategoryID,
				"qty", reservation.Quantity,
				"error", releaseErr,
			)
		}
		slog.Error("ticket issuance failed after reservation",
			"category_id", in.CategoryID,
			"user_id", in.UserID,
			"error", err,
		)
		s.track("purchase", in.CategoryID, err)
		return models.Ticket{}, err
	}

	s.track("purchase", in.CategoryID, nil)
	if s.monitor != nil {
		s.monitor.TrackPurchaseDuration(in.CategoryID, time.Since(started))
	}
	if s.notifier != nil {
		s.notifier.TicketPurchased(ctx, ticket)
	}

	return ticket, nil
}

// Cancel voids a ticket and releases its unit of capacity. Cancelling an
// already-cancelled ticket is a successful no-op; the ledger is decremented
// exactly once because only the call that changed the record releases.
func (s *ReservationService) Cancel(ctx context.Context, ticketID string) error {
	ticket, changed, err := s.issuer.Void(ctx, ticketID)
	if err != nil {
		s.track("cancel", "", err)
		return err
	}
	if !changed {
		s.track("cancel", ticket.CategoryID, nil)
		return nil
	}

	if err := s.ledger.Release(ctx, ticket.CategoryID, 1); err != nil {
		if errors.Is(err, status.ErrCategoryNotFound) {
			// The category vanished from the ledger; nothing left to release.
			slog.Warn("release skipped, category missing from ledger",
				"category_id", ticket.CategoryID,
				"ticket_id", ticketID,
			)
		} else {
			s.track("cancel", ticket.CategoryID, err)
			return err
		}
	}

	s.track("cancel", ticket.CategoryID, nil)
	if s.notifier != nil {
		s.notifier.TicketCancelled(ctx, ticket)
	}

	return nil
}

// AdjustCapacity forwards the admin capacity change to the ledger.
func (s *ReservationService) AdjustCapacity(ctx context.Context, categoryID string, newTotal int) error {
	err := s.ledger.AdjustCapacity(ctx, categoryID, newTotal)
	s.track("adjust_capacity", categoryID, err)
	return err
}

// SetActive flips a category's admin lifecycle flag.
func (s *ReservationService) SetActive(ctx context.Context, categoryID string, active bool) error {
	err := s.ledger.SetActive(ctx, categoryID, active)
	s.track("set_active", categoryID, err)
	return err
}

func (s *ReservationService) track(operation, categoryID string, err error) {
	if s.monitor == nil {
		return
	}

	outcome := "success"
	switch {
	case err == nil:
	case errors.Is(err, status.ErrSoldOut):
		outcome = "sold_out"
	case errors.Is(err, status.ErrCategoryInactive):
		outcome = "inactive"
	case errors.Is(err, status.ErrCategoryNotFound), errors.Is(err, status.ErrTicketNotFound):
		outcome = "not_found"
	case errors.Is(err, status.ErrCapacityBelowSold):
		outcome = "capacity_below_sold"
	default:
		outcome = "error"
	}

	s.monitor.TrackReservation(operation, categoryID, outcome)
}
