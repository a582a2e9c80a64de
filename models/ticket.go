package models

import (
	"time"
)

type TicketStatus string

const (
	TicketActive    TicketStatus = "active"
	TicketCancelled TicketStatus = "cancelled"
)

type Ticket struct {
	ID          string       `json:"id"`
	CategoryID  string       `json:"category_id"`
	UserID      string       `json:"user_id"`
	Code        string       `json:"code"`
	Price       float64      `json:"price"` // captured at purchase time
	Status      TicketStatus `json:"status"`
	PurchasedAt time.Time    `json:"purchased_at"`
	CancelledAt *time.Time   `json:"cancelled_at,omitempty"`
	Active      bool         `json:"active"`
}

func (t *Ticket) IsCancelled() bool {
	return t.Status == TicketCancelled
}

// Reservation is the ephemeral token returned by the inventory ledger.
// It is never persisted; the coordinator either converts it into a ticket
// or releases it.
type Reservation struct {
	CategoryID string    `json:"category_id"`
	Quantity   int       `json:"quantity"`
	ReservedAt time.Time `json:"reserved_at"`
}
