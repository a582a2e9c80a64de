package inventory

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// SoldWriter is the narrow store surface the flusher needs.
type SoldWriter interface {
	SetSoldCount(ctx context.Context, categoryID string, sold int) error
}

// Flusher periodically mirrors Redis ledger counts back to the durable
// store. Only relevant for the Redis backend; the store and memory backends
// have nothing to flush.
type Flusher struct {
	ledger   *RedisLedger
	writer   SoldWriter
	interval time.Duration

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewFlusher(ledger *RedisLedger, writer SoldWriter, interval time.Duration) *Flusher {
	return &Flusher{
		ledger:   ledger,
		writer:   writer,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

func (f *Flusher) Start() {
	f.wg.Add(1)
	go f.run()
}

func (f *Flusher) Stop() {
	f.stopOnce.Do(func() { close(f.stopChan) })
	f.wg.Wait()
}

func (f *Flusher) run() {
	defer f.wg.Done()

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			f.FlushOnce(context.Background())
		case <-f.stopChan:
			// Final flush so a clean shutdown loses nothing.
			f.FlushOnce(context.Background())
			return
		}
	}
}

func (f *Flusher) FlushOnce(ctx context.Context) {
	snapshots, err := f.ledger.Snapshots(ctx)
	if err != nil {
		slog.Error("inventory flush: listing snapshots", "error", err)
		return
	}

	for _, snapshot := range snapshots {
		if err := f.writer.SetSoldCount(ctx, snapshot.CategoryID, snapshot.TicketsSold); err != nil {
			slog.Error("inventory flush: writing sold count",
				"category_id", snapshot.CategoryID,
				"sold", snapshot.TicketsSold,
				"error", err,
			)
		}
	}
}
