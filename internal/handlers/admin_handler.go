package handlers

import (
	"net/http"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"ticket-inventory/internal/services"
	"ticket-inventory/internal/store"
)

type AdminHandler struct {
	app     *pocketbase.PocketBase
	ledger  services.SnapshotLister
	tickets *store.TicketStore
}

func NewAdminHandler(app *pocketbase.PocketBase, ledger services.SnapshotLister, tickets *store.TicketStore) *AdminHandler {
	return &AdminHandler{
		app:     app,
		ledger:  ledger,
		tickets: tickets,
	}
}

// GetInventoryDashboard - live ledger state for every category, with the
// issued-ticket count as a cross-check
func (h *AdminHandler) GetInventoryDashboard(e *core.RequestEvent) error {
	if e.Auth == nil || !e.Auth.IsSuperuser() {
		return apis.NewForbiddenError("Admin only", nil)
	}

	ctx := e.Request.Context()

	projections, err := services.ProjectAll(ctx, h.ledger)
	if err != nil {
		return apis.NewBadRequestError("Failed to read ledger", err)
	}

	rows := make([]map[string]any, 0, len(projections))
	for _, projection := range projections {
		row := map[string]any{
			"category_id":       projection.CategoryID,
			"status":            projection.Status,
			"total_tickets":     projection.TotalTickets,
			"tickets_sold":      projection.TicketsSold,
			"available_tickets": projection.AvailableTickets,
		}

		if active, err := h.tickets.CountActiveByCategory(ctx, projection.CategoryID); err == nil {
			row["active_tickets"] = active
			row["ledger_drift"] = projection.TicketsSold - active
		}

		rows = append(rows, row)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"categories":   rows,
		"generated_at": time.Now(),
	})
}
