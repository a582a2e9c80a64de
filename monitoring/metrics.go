package monitoring

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"ticket-inventory/internal/inventory"
)

var (
	ticketsAvailable = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "inventory_tickets_available",
			Help: "Remaining tickets per category",
		},
		[]string{"category_id"},
	)

	ticketsSold = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "inventory_tickets_sold",
			Help: "Sold tickets per category",
		},
		[]string{"category_id"},
	)

	reservationOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reservation_operations_total",
			Help: "Total reservation operations by outcome",
		},
		[]string{"operation", "category_id", "outcome"},
	)

	purchaseDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "purchase_duration_seconds",
			Help:    "End-to-end duration of purchase requests",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"category_id"},
	)
)

// SnapshotLister is the ledger surface the collector samples.
type SnapshotLister interface {
	Snapshots(ctx context.Context) ([]inventory.Snapshot, error)
}

type Monitor struct {
	ledger   SnapshotLister
	interval time.Duration

	stopChan chan struct{}
	stopOnce sync.Once
}

func NewMonitor(ledger SnapshotLister, interval time.Duration) *Monitor {
	monitor := &Monitor{
		ledger:   ledger,
		interval: interval,
		stopChan: make(chan struct{}),
	}

	go monitor.collectMetrics()

	return monitor
}

func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopChan) })
}

func (m *Monitor) collectMetrics() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.collectInventoryMetrics(context.Background())
		case <-m.stopChan:
			return
		}
	}
}

func (m *Monitor) collectInventoryMetrics(ctx context.Context) {
	snapshots, err := m.ledger.Snapshots(ctx)
	if err != nil {
		return
	}

	for _, snapshot := range snapshots {
		ticketsAvailable.WithLabelValues(snapshot.CategoryID).Set(float64(snapshot.Available()))
		ticketsSold.WithLabelValues(snapshot.CategoryID).Set(float64(snapshot.TicketsSold))
	}
}

// TrackReservation counts one purchase/cancel/adjust outcome.
func (m *Monitor) TrackReservation(operation, categoryID, outcome string) {
	reservationOps.WithLabelValues(operation, categoryID, outcome).Inc()
}

// TrackPurchaseDuration records the wall time of one purchase request.
func (m *Monitor) TrackPurchaseDuration(categoryID string, duration time.Duration) {
	purchaseDuration.WithLabelValues(categoryID).Observe(duration.Seconds())
}
