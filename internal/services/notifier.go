package services

import (
	"context"
	"fmt"
	"log/slog"

	pubnub "github.com/pubnub/go"

	"ticket-inventory/models"
	"ticket-inventory/utils"
)

// Notifier pushes purchase lifecycle events to the buyer's channel. All
// publishes are best effort behind a circuit breaker: a degraded PubNub
// never fails a purchase.
type Notifier struct {
	pubnub  *pubnub.PubNub
	breaker *utils.CircuitBreaker
}

func NewNotifier(pn *pubnub.PubNub) *Notifier {
	return &Notifier{
		pubnub:  pn,
		breaker: utils.NewCircuitBreaker("pubnub-notify"),
	}
}

func (n *Notifier) TicketPurchased(ctx context.Context, ticket models.Ticket) {
	n.publish(ctx, ticket.UserID, map[string]any{
		"type":        "ticket_purchased",
		"ticket_id":   ticket.ID,
		"category_id": ticket.CategoryID,
		"code":        ticket.Code,
		"price":       ticket.Price,
	})
}

func (n *Notifier) TicketCancelled(ctx context.Context, ticket models.Ticket) {
	n.publish(ctx, ticket.UserID, map[string]any{
		"type":        "ticket_cancelled",
		"ticket_id":   ticket.ID,
		"category_id": ticket.CategoryID,
	})
}

func (n *Notifier) PaymentSessionOpened(ctx context.Context, session models.PaymentSession) {
	n.publish(ctx, session.UserID, map[string]any{
		"type":       "payment_session",
		"payment_id": session.ID,
		"ticket_id":  session.TicketID,
		"amount":     session.Amount.String(),
		"currency":   session.Currency,
		"expires_at": session.ExpiresAt.Unix(),
	})
}

func (n *Notifier) publish(ctx context.Context, userID string, message map[string]any) {
	if n == nil || n.pubnub == nil {
		return
	}

	channel := fmt.Sprintf("user-%s", userID)

	_, err := n.breaker.Execute(ctx, func() (interface{}, error) {
		_, _, err := n.pubnub.Publish().
			Channel(channel).
			Message(message).
			Execute()
		return nil, err
	})
	if err != nil {
		slog.Warn("notify publish skipped", "channel", channel, "error", err)
	}
}
