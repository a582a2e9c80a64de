package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"ticket-inventory/internal/services"
)

type CategoryHandler struct {
	app          *pocketbase.PocketBase
	projector    *services.StatusProjector
	reservations *services.ReservationService
}

func NewCategoryHandler(
	app *pocketbase.PocketBase,
	projector *services.StatusProjector,
	reservations *services.ReservationService,
) *CategoryHandler {
	return &CategoryHandler{
		app:          app,
		projector:    projector,
		reservations: reservations,
	}
}

// GetStatus - derived availability for one category
func (h *CategoryHandler) GetStatus(e *core.RequestEvent) error {
	categoryID := e.Request.PathValue("categoryId")

	availability, err := h.projector.ProjectCategory(e.Request.Context(), categoryID)
	if err != nil {
		return mapBusinessError(err)
	}

	return e.JSON(http.StatusOK, availability)
}

// AdjustCapacity - admin change of a category's total, never below sold
func (h *CategoryHandler) AdjustCapacity(e *core.RequestEvent) error {
	if e.Auth == nil || !e.Auth.IsSuperuser() {
		return apis.NewForbiddenError("Admin only", nil)
	}

	categoryID := e.Request.PathValue("categoryId")

	var req struct {
		TotalTickets int `json:"total_tickets"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if req.TotalTickets < 0 {
		return apis.NewBadRequestError("total_tickets must be >= 0", nil)
	}

	if err := h.reservations.AdjustCapacity(e.Request.Context(), categoryID, req.TotalTickets); err != nil {
		return mapBusinessError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"category_id":   categoryID,
		"total_tickets": req.TotalTickets,
	})
}

// Activate - put a category back on sale
func (h *CategoryHandler) Activate(e *core.RequestEvent) error {
	return h.setActive(e, true)
}

// Deactivate - take a category off sale without touching its counts
func (h *CategoryHandler) Deactivate(e *core.RequestEvent) error {
	return h.setActive(e, false)
}

func (h *CategoryHandler) setActive(e *core.RequestEvent, active bool) error {
	if e.Auth == nil || !e.Auth.IsSuperuser() {
		return apis.NewForbiddenError("Admin only", nil)
	}

	categoryID := e.Request.PathValue("categoryId")

	if err := h.reservations.SetActive(e.Request.Context(), categoryID, active); err != nil {
		return mapBusinessError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"category_id": categoryID,
		"active":      active,
	})
}
