package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentSession struct {
	ID        string          `json:"payment_id"`
	UserID    string          `json:"user_id"`
	TicketID  string          `json:"ticket_id"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Status    string          `json:"status"` // pending, completed, expired
	CreatedAt time.Time       `json:"created_at"`
	ExpiresAt time.Time       `json:"expires_at"`
}
