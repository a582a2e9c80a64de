package models

// CategoryStatus is derived from ledger state, never stored.
type CategoryStatus string

const (
	CategoryAvailable CategoryStatus = "available"
	CategorySoldOut   CategoryStatus = "sold_out"
	CategoryInactive  CategoryStatus = "inactive"
)

type TicketCategory struct {
	ID           string  `json:"id"`
	EventID      string  `json:"event_id"`
	Name         string  `json:"name"`
	Price        float64 `json:"price"`
	TotalTickets int     `json:"total_tickets"`
	TicketsSold  int     `json:"tickets_sold"`
	Active       bool    `json:"active"`
}

// AvailableTickets is never negative, even if stored counts drift.
func (c *TicketCategory) AvailableTickets() int {
	remaining := c.TotalTickets - c.TicketsSold
	if remaining < 0 {
		return 0
	}
	return remaining
}

type Event struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Venue       string `json:"venue"`
	Status      string `json:"status"` // draft, published, ended
}
