package handlers

import (
	"errors"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"ticket-inventory/internal/services"
	"ticket-inventory/internal/status"
)

type BookingHandler struct {
	app          *pocketbase.PocketBase
	reservations *services.ReservationService
	tickets      *services.TicketService
	payments     *services.PaymentService
}

func NewBookingHandler(
	app *pocketbase.PocketBase,
	reservations *services.ReservationService,
	tickets *services.TicketService,
	payments *services.PaymentService,
) *BookingHandler {
	return &BookingHandler{
		app:          app,
		reservations: reservations,
		tickets:      tickets,
		payments:     payments,
	}
}

// Purchase - buy one ticket from a category
func (h *BookingHandler) Purchase(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req struct {
		CategoryID    string   `json:"category_id"`
		PriceOverride *float64 `json:"price_override"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if req.CategoryID == "" {
		return apis.NewBadRequestError("category_id is required", nil)
	}

	ticket, err := h.reservations.Purchase(e.Request.Context(), services.PurchaseInput{
		CategoryID:    req.CategoryID,
		UserID:        e.Auth.Id,
		PriceOverride: req.PriceOverride,
	})
	if err != nil {
		return mapBusinessError(err)
	}

	return e.JSON(http.StatusCreated, ticket)
}

// Cancel - cancel an owned ticket; idempotent
func (h *BookingHandler) Cancel(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req struct {
		TicketID string `json:"ticket_id"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if req.TicketID == "" {
		return apis.NewBadRequestError("ticket_id is required", nil)
	}

	ticket, err := h.tickets.Get(e.Request.Context(), req.TicketID)
	if err != nil {
		return mapBusinessError(err)
	}
	if ticket.UserID != e.Auth.Id {
		return apis.NewForbiddenError("Not your ticket", nil)
	}

	if err := h.reservations.Cancel(e.Request.Context(), req.TicketID); err != nil {
		return mapBusinessError(err)
	}

	return e.JSON(http.StatusOK, map[string]string{"status": "cancelled"})
}

// GetHistory - the caller's tickets, newest first
func (h *BookingHandler) GetHistory(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	tickets, err := h.tickets.ListByUser(e.Request.Context(), e.Auth.Id)
	if err != nil {
		return apis.NewBadRequestError("Failed to load tickets", err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"tickets": tickets,
		"total":   len(tickets),
	})
}

// CreatePaymentSession - open a payment session for an owned active ticket
func (h *BookingHandler) CreatePaymentSession(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req struct {
		TicketID string `json:"ticket_id"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	ticket, err := h.tickets.Get(e.Request.Context(), req.TicketID)
	if err != nil {
		return mapBusinessError(err)
	}
	if ticket.UserID != e.Auth.Id {
		return apis.NewForbiddenError("Not your ticket", nil)
	}
	if ticket.IsCancelled() {
		return apis.NewBadRequestError("Ticket is cancelled", nil)
	}

	session, err := h.payments.CreateSession(e.Request.Context(), ticket)
	if err != nil {
		return apis.NewApiError(http.StatusServiceUnavailable, "Failed to open payment session", err)
	}

	return e.JSON(http.StatusCreated, session)
}

// GetPaymentSession - payment session details
func (h *BookingHandler) GetPaymentSession(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	paymentID := e.Request.PathValue("paymentId")

	session, err := h.payments.GetSession(e.Request.Context(), paymentID)
	if err != nil {
		return apis.NewBadRequestError("Failed to load payment session", err)
	}
	if session.UserID != "" && session.UserID != e.Auth.Id {
		return apis.NewForbiddenError("Not your payment session", nil)
	}

	return e.JSON(http.StatusOK, session)
}

// CompletePaymentSession - mark an owned pending session as paid
func (h *BookingHandler) CompletePaymentSession(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	paymentID := e.Request.PathValue("paymentId")

	session, err := h.payments.GetSession(e.Request.Context(), paymentID)
	if err != nil {
		return apis.NewBadRequestError("Failed to load payment session", err)
	}
	if session.Status == "expired" {
		return apis.NewNotFoundError("Payment session expired or unknown", nil)
	}
	if session.UserID != e.Auth.Id {
		return apis.NewForbiddenError("Not your payment session", nil)
	}

	if err := h.payments.CompleteSession(e.Request.Context(), paymentID); err != nil {
		return apis.NewApiError(http.StatusServiceUnavailable, "Failed to complete payment session", err)
	}

	return e.JSON(http.StatusOK, map[string]string{
		"payment_id": paymentID,
		"status":     "completed",
	})
}

// mapBusinessError translates the typed business outcomes into transport
// responses. Unknown errors surface as a retryable 503.
func mapBusinessError(err error) error {
	switch {
	case errors.Is(err, status.ErrCategoryNotFound):
		return apis.NewNotFoundError("Ticket category not found", err)
	case errors.Is(err, status.ErrTicketNotFound):
		return apis.NewNotFoundError("Ticket not found", err)
	case errors.Is(err, status.ErrSoldOut):
		return apis.NewApiError(http.StatusConflict, "Tickets sold out", err)
	case errors.Is(err, status.ErrCategoryInactive):
		return apis.NewApiError(http.StatusGone, "Ticket category is not on sale", err)
	case errors.Is(err, status.ErrCapacityBelowSold):
		return apis.NewApiError(http.StatusConflict, "Capacity below tickets already sold", err)
	case errors.Is(err, status.ErrIssuanceFailed):
		return apis.NewApiError(http.StatusServiceUnavailable, "Ticket issuance failed, please retry", err)
	default:
		return apis.NewApiError(http.StatusInternalServerError, "Unexpected error", err)
	}
}
