package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticket-inventory/internal/inventory"
	"ticket-inventory/internal/status"
	"ticket-inventory/models"
)

type fakeCategoryReader struct {
	categories map[string]models.TicketCategory
}

func (r *fakeCategoryReader) Get(ctx context.Context, categoryID string) (models.TicketCategory, error) {
	c, ok := r.categories[categoryID]
	if !ok {
		return models.TicketCategory{}, status.ErrCategoryNotFound
	}
	return c, nil
}

// fakeIssuer records issued tickets and can be told to fail, simulating a
// persistence outage after the reservation succeeded.
type fakeIssuer struct {
	mu      sync.Mutex
	failing bool
	nextID  int
	tickets map[string]models.Ticket
}

func newFakeIssuer() *fakeIssuer {
	return &fakeIssuer{tickets: make(map[string]models.Ticket)}
}

func (f *fakeIssuer) Issue(ctx context.Context, categoryID, userID string, price float64) (models.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failing {
		return models.Ticket{}, fmt.Errorf("%w: storage unavailable", status.ErrIssuanceFailed)
	}

	f.nextID++
	ticket := models.Ticket{
		ID:          fmt.Sprintf("tkt-%d", f.nextID),
		CategoryID:  categoryID,
		UserID:      userID,
		Code:        fmt.Sprintf("TKT-%06d", f.nextID),
		Price:       price,
		Status:      models.TicketActive,
		PurchasedAt: time.Now(),
		Active:      true,
	}
	f.tickets[ticket.ID] = ticket
	return ticket, nil
}

func (f *fakeIssuer) Void(ctx context.Context, ticketID string) (models.Ticket, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ticket, ok := f.tickets[ticketID]
	if !ok {
		return models.Ticket{}, false, status.ErrTicketNotFound
	}
	if ticket.Status == models.TicketCancelled {
		return ticket, false, nil
	}

	now := time.Now()
	ticket.Status = models.TicketCancelled
	ticket.CancelledAt = &now
	ticket.Active = false
	f.tickets[ticketID] = ticket
	return ticket, true, nil
}

func setupReservationService(t *testing.T, category models.TicketCategory) (*ReservationService, *inventory.MemoryLedger, *fakeIssuer) {
	t.Helper()

	ledger := inventory.NewMemoryLedger()
	require.NoError(t, ledger.Seed(context.Background(),
		category.ID, category.TotalTickets, category.TicketsSold, category.Active))

	issuer := newFakeIssuer()
	reader := &fakeCategoryReader{categories: map[string]models.TicketCategory{category.ID: category}}

	return NewReservationService(ledger, issuer, reader, nil, nil), ledger, issuer
}

func TestReservationService_Purchase_Success(t *testing.T) {
	service, ledger, _ := setupReservationService(t, models.TicketCategory{
		ID: "cat-1", Price: 25.50, TotalTickets: 100, Active: true,
	})
	ctx := context.Background()

	ticket, err := service.Purchase(ctx, PurchaseInput{CategoryID: "cat-1", UserID: "user-1"})

	require.NoError(t, err)
	assert.Equal(t, "cat-1", ticket.CategoryID)
	assert.Equal(t, "user-1", ticket.UserID)
	assert.Equal(t, 25.50, ticket.Price)
	assert.Equal(t, models.TicketActive, ticket.Status)
	assert.NotEmpty(t, ticket.Code)

	snapshot, err := ledger.Snapshot(ctx, "cat-1")
	require.NoError(t, err)
	assert.Equal(t, 1, snapshot.TicketsSold)
}

func TestReservationService_Purchase_PriceOverride(t *testing.T) {
	service, _, _ := setupReservationService(t, models.TicketCategory{
		ID: "cat-1", Price: 25.50, TotalTickets: 100, Active: true,
	})

	override := 10.0
	ticket, err := service.Purchase(context.Background(), PurchaseInput{
		CategoryID:    "cat-1",
		UserID:        "user-1",
		PriceOverride: &override,
	})

	require.NoError(t, err)
	assert.Equal(t, 10.0, ticket.Price)
}

func TestReservationService_Purchase_SoldOut(t *testing.T) {
	service, ledger, issuer := setupReservationService(t, models.TicketCategory{
		ID: "cat-1", TotalTickets: 3, TicketsSold: 3, Active: true,
	})
	ctx := context.Background()

	_, err := service.Purchase(ctx, PurchaseInput{CategoryID: "cat-1", UserID: "user-1"})

	assert.ErrorIs(t, err, status.ErrSoldOut)
	assert.Empty(t, issuer.tickets, "no ticket may be issued without a reservation")

	snapshot, err := ledger.Snapshot(ctx, "cat-1")
	require.NoError(t, err)
	assert.Equal(t, 3, snapshot.TicketsSold)
}

func TestReservationService_Purchase_Inactive(t *testing.T) {
	service, _, issuer := setupReservationService(t, models.TicketCategory{
		ID: "cat-1", TotalTickets: 10, Active: false,
	})

	_, err := service.Purchase(context.Background(), PurchaseInput{CategoryID: "cat-1", UserID: "user-1"})

	assert.ErrorIs(t, err, status.ErrCategoryInactive)
	assert.Empty(t, issuer.tickets)
}

func TestReservationService_Purchase_UnknownCategory(t *testing.T) {
	service, _, _ := setupReservationService(t, models.TicketCategory{
		ID: "cat-1", TotalTickets: 10, Active: true,
	})

	_, err := service.Purchase(context.Background(), PurchaseInput{CategoryID: "missing", UserID: "user-1"})

	assert.ErrorIs(t, err, status.ErrCategoryNotFound)
}

func TestReservationService_Purchase_IssuanceFailureReleasesReservation(t *testing.T) {
	service, ledger, issuer := setupReservationService(t, models.TicketCategory{
		ID: "cat-1", TotalTickets: 10, Active: true,
	})
	ctx := context.Background()

	issuer.failing = true
	_, err := service.Purchase(ctx, PurchaseInput{CategoryID: "cat-1", UserID: "user-1"})

	assert.ErrorIs(t, err, status.ErrIssuanceFailed)

	snapshot, snapErr := ledger.Snapshot(ctx, "cat-1")
	require.NoError(t, snapErr)
	assert.Equal(t, 0, snapshot.TicketsSold, "failed issuance must release the reserved unit")

	// The slot stays sellable afterwards.
	issuer.failing = false
	_, err = service.Purchase(ctx, PurchaseInput{CategoryID: "cat-1", UserID: "user-1"})
	assert.NoError(t, err)
}

func TestReservationService_PurchaseCancelRoundTrip(t *testing.T) {
	service, ledger, _ := setupReservationService(t, models.TicketCategory{
		ID: "cat-1", TotalTickets: 5, Active: true,
	})
	ctx := context.Background()

	ticket, err := service.Purchase(ctx, PurchaseInput{CategoryID: "cat-1", UserID: "user-1"})
	require.NoError(t, err)

	require.NoError(t, service.Cancel(ctx, ticket.ID))

	snapshot, err := ledger.Snapshot(ctx, "cat-1")
	require.NoError(t, err)
	assert.Equal(t, 0, snapshot.TicketsSold, "cancel must return the unit to inventory")
}

func TestReservationService_Cancel_Idempotent(t *testing.T) {
	service, ledger, issuer := setupReservationService(t, models.TicketCategory{
		ID: "cat-1", TotalTickets: 5, Active: true,
	})
	ctx := context.Background()

	ticket, err := service.Purchase(ctx, PurchaseInput{CategoryID: "cat-1", UserID: "user-1"})
	require.NoError(t, err)

	require.NoError(t, service.Cancel(ctx, ticket.ID))
	require.NoError(t, service.Cancel(ctx, ticket.ID))
	require.NoError(t, service.Cancel(ctx, ticket.ID))

	snapshot, err := ledger.Snapshot(ctx, "cat-1")
	require.NoError(t, err)
	assert.Equal(t, 0, snapshot.TicketsSold, "repeated cancels must release exactly once")

	voided, ok := issuer.tickets[ticket.ID]
	require.True(t, ok, "cancelled ticket record is retained")
	assert.Equal(t, models.TicketCancelled, voided.Status)
	assert.NotNil(t, voided.CancelledAt)
}

func TestReservationService_ConcurrentCancels_ReleaseOnce(t *testing.T) {
	service, ledger, _ := setupReservationService(t, models.TicketCategory{
		ID: "cat-1", TotalTickets: 5, Active: true,
	})
	ctx := context.Background()

	ticket, err := service.Purchase(ctx, PurchaseInput{CategoryID: "cat-1", UserID: "user-1"})
	require.NoError(t, err)

	// Only the cancel that wins the status transition may release; the
	// losers observe changed=false and leave the ledger alone.
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, service.Cancel(ctx, ticket.ID))
		}()
	}
	wg.Wait()

	snapshot, err := ledger.Snapshot(ctx, "cat-1")
	require.NoError(t, err)
	assert.Equal(t, 0, snapshot.TicketsSold, "concurrent cancels must not free phantom capacity")
}

func TestReservationService_Cancel_UnknownTicket(t *testing.T) {
	service, _, _ := setupReservationService(t, models.TicketCategory{
		ID: "cat-1", TotalTickets: 5, Active: true,
	})

	err := service.Cancel(context.Background(), "missing")

	assert.ErrorIs(t, err, status.ErrTicketNotFound)
}

func TestReservationService_ConcurrentPurchases_LastSlot(t *testing.T) {
	service, ledger, issuer := setupReservationService(t, models.TicketCategory{
		ID: "cat-1", TotalTickets: 1, Active: true,
	})
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := service.Purchase(ctx, PurchaseInput{
				CategoryID: "cat-1",
				UserID:     fmt.Sprintf("user-%d", n),
			})
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	var successes, soldOuts int
	for err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, status.ErrSoldOut):
			soldOuts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, soldOuts)
	assert.Len(t, issuer.tickets, 1)

	snapshot, err := ledger.Snapshot(ctx, "cat-1")
	require.NoError(t, err)
	assert.Equal(t, 1, snapshot.TicketsSold)
}

func TestReservationService_AdjustCapacity(t *testing.T) {
	service, ledger, _ := setupReservationService(t, models.TicketCategory{
		ID: "cat-1", TotalTickets: 10, TicketsSold: 4, Active: true,
	})
	ctx := context.Background()

	require.NoError(t, service.AdjustCapacity(ctx, "cat-1", 4))

	err := service.AdjustCapacity(ctx, "cat-1", 3)
	assert.ErrorIs(t, err, status.ErrCapacityBelowSold)

	snapshot, err := ledger.Snapshot(ctx, "cat-1")
	require.NoError(t, err)
	assert.Equal(t, 4, snapshot.TotalTickets)
}

func TestReservationService_SetActive(t *testing.T) {
	service, _, _ := setupReservationService(t, models.TicketCategory{
		ID: "cat-1", TotalTickets: 10, Active: true,
	})
	ctx := context.Background()

	require.NoError(t, service.SetActive(ctx, "cat-1", false))

	_, err := service.Purchase(ctx, PurchaseInput{CategoryID: "cat-1", UserID: "user-1"})
	assert.ErrorIs(t, err, status.ErrCategoryInactive)
}
