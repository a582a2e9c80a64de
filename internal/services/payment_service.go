package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"ticket-inventory/models"
	"ticket-inventory/utils"
)

// PaymentService keeps short-lived payment sessions in Redis. Gateway
// protocol details live outside this service; a session only tracks what
// the buyer owes for an issued ticket and when the offer expires.
type PaymentService struct {
	Redis      *redis.Client
	notifier   *Notifier
	currency   string
	sessionTTL time.Duration
	newRef     func(n int) (string, error)
}

func NewPaymentService(redisClient *redis.Client, notifier *Notifier, currency string, sessionTTL time.Duration) *PaymentService {
	return &PaymentService{
		Redis:      redisClient,
		notifier:   notifier,
		currency:   currency,
		sessionTTL: sessionTTL,
		newRef:     utils.GenerateReference,
	}
}

func paymentKey(paymentID string) string {
	return fmt.Sprintf("payment:%s", paymentID)
}

// CreateSession opens a pending session for a purchased ticket. Amounts are
// decimal, never floats, so repeated sessions for the same ticket always
// agree to the cent.
func (s *PaymentService) CreateSession(ctx context.Context, ticket models.Ticket) (models.PaymentSession, error) {
	ref, err := s.newRef(8)
	if err != nil {
		return models.PaymentSession{}, fmt.Errorf("payment session id: %w", err)
	}

	now := time.Now()
	session := models.PaymentSession{
		ID:        fmt.Sprintf("pay_%s", ref),
		UserID:    ticket.UserID,
		TicketID:  ticket.ID,
		Amount:    decimal.NewFromFloat(ticket.Price),
		Currency:  s.currency,
		Status:    "pending",
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	}

	key := paymentKey(session.ID)
	if err := s.Redis.HSet(ctx, key,
		"user_id", session.UserID,
		"ticket_id", session.TicketID,
		"amount", session.Amount.String(),
		"currency", session.Currency,
		"status", session.Status,
		"created_at", session.CreatedAt.Unix(),
		"expires_at", session.ExpiresAt.Unix(),
	).Err(); err != nil {
		return models.PaymentSession{}, fmt.Errorf("store payment session: %w", err)
	}

	if err := s.Redis.Expire(ctx, key, s.sessionTTL).Err(); err != nil {
		return models.PaymentSession{}, fmt.Errorf("expire payment session: %w", err)
	}

	if s.notifier != nil {
		s.notifier.PaymentSessionOpened(ctx, session)
	}

	return session, nil
}

// GetSession loads a session; an expired key reads back as expired.
func (s *PaymentService) GetSession(ctx context.Context, paymentID string) (models.PaymentSession, error) {
	fields, err := s.Redis.HGetAll(ctx, paymentKey(paymentID)).Result()
	if err != nil {
		return models.PaymentSession{}, fmt.Errorf("load payment session: %w", err)
	}
	if len(fields) == 0 {
		return models.PaymentSession{ID: paymentID, Status: "expired"}, nil
	}

	amount, err := decimal.NewFromString(fields["amount"])
	if err != nil {
		return models.PaymentSession{}, fmt.Errorf("parse payment amount: %w", err)
	}

	session := models.PaymentSession{
		ID:       paymentID,
		UserID:   fields["user_id"],
		TicketID: fields["ticket_id"],
		Amount:   amount,
		Currency: fields["currency"],
		Status:   fields["status"],
	}

	createdAt, err := strconv.ParseInt(fields["created_at"], 10, 64)
	if err != nil {
		return models.PaymentSession{}, fmt.Errorf("parse payment created_at: %w", err)
	}
	expiresAt, err := strconv.ParseInt(fields["expires_at"], 10, 64)
	if err != nil {
		return models.PaymentSession{}, fmt.Errorf("parse payment expires_at: %w", err)
	}
	session.CreatedAt = time.Unix(createdAt, 0)
	session.ExpiresAt = time.Unix(expiresAt, 0)

	return session, nil
}

// CompleteSession marks a pending session as paid.
func (s *PaymentService) CompleteSession(ctx context.Context, paymentID string) error {
	key := paymentKey(paymentID)

	exists, err := s.Redis.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("complete payment session: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("complete payment session: session %s expired or unknown", paymentID)
	}

	if err := s.Redis.HSet(ctx, key, "status", "completed").Err(); err != nil {
		return fmt.Errorf("complete payment session: %w", err)
	}
	return nil
}
