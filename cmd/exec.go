package cmd

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	pubnub "github.com/pubnub/go"

	"ticket-inventory/config"
	"ticket-inventory/internal/handlers"
	"ticket-inventory/internal/inventory"
	"ticket-inventory/internal/services"
	"ticket-inventory/internal/store"
	"ticket-inventory/monitoring"
	"ticket-inventory/utils"

	_ "ticket-inventory/migrations"
)

// ledgerSeeder is implemented by the Redis and memory backends, which hold
// live state separate from the store and need boot-time seeding. Sync is
// the record-edit path: it may change a category's definition but never its
// live sold count, which only reserve and release move.
type ledgerSeeder interface {
	Seed(ctx context.Context, categoryID string, total, sold int, active bool) error
	Sync(ctx context.Context, categoryID string, total, sold int, active bool) error
	Remove(ctx context.Context, categoryID string) error
}

func Start() error {
	app := pocketbase.New()

	// Load configuration
	cfg := config.LoadConfig()

	// Initialize Redis
	redisClient := utils.NewRedisClient(cfg.RedisURL)
	defer redisClient.Close()

	// Initialize PubNub (optional; notifications are best effort)
	var pn *pubnub.PubNub
	if cfg.PubNubPublishKey != "" {
		pnConfig := pubnub.NewConfig()
		pnConfig.PublishKey = cfg.PubNubPublishKey
		pnConfig.SubscribeKey = cfg.PubNubSubscribeKey
		pnConfig.SecretKey = cfg.PubNubSecretKey
		pn = pubnub.NewPubNub(pnConfig)
	}
	notifier := services.NewNotifier(pn)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Stores
	categoryStore := store.NewCategoryStore(app)
	ticketStore := store.NewTicketStore(app)

	// Pick the inventory ledger backend
	var ledger inventory.Ledger
	var seeder ledgerSeeder
	var flusher *inventory.Flusher
	var lister services.SnapshotLister

	switch cfg.InventoryBackend {
	case "redis":
		redisLedger := inventory.NewRedisLedger(redisClient)
		ledger = redisLedger
		seeder = redisLedger
		lister = redisLedger
		flusher = inventory.NewFlusher(redisLedger, categoryStore, cfg.FlushInterval)
	case "memory":
		memoryLedger := inventory.NewMemoryLedger()
		ledger = memoryLedger
		seeder = memoryLedger
		lister = memoryLedger
	default:
		storeLedger := inventory.NewStoreLedger(categoryStore)
		ledger = storeLedger
		lister = storeLedger
	}

	// Monitoring
	var monitor *monitoring.Monitor
	if cfg.EnableMetrics {
		monitor = monitoring.NewMonitor(lister, cfg.MetricsInterval)
		go serveMetrics(cfg.MetricsPort)
		go func() {
			<-ctx.Done()
			monitor.Stop()
		}()
	}

	// Initialize services
	ticketService := services.NewTicketService(ticketStore)
	reservationService := services.NewReservationService(ledger, ticketService, categoryStore, notifier, monitor)
	projector := services.NewStatusProjector(ledger)
	paymentService := services.NewPaymentService(redisClient, notifier, cfg.Currency, cfg.PaymentSessionTTL)

	// Initialize handlers
	bookingHandler := handlers.NewBookingHandler(app, reservationService, ticketService, paymentService)
	categoryHandler := handlers.NewCategoryHandler(app, projector, reservationService)
	adminHandler := handlers.NewAdminHandler(app, lister, ticketStore)

	// Enable migrations
	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: true,
	})

	// Setup graceful shutdown
	go handleShutdown(cancel)

	app.OnServe().BindFunc(func(e *core.ServeEvent) error {
		if seeder != nil {
			seedInventory(ctx, categoryStore, seeder)
		}
		if flusher != nil {
			flusher.Start()
			go func() {
				<-ctx.Done()
				flusher.Stop()
			}()
		}

		// Booking endpoints
		e.Router.POST("/api/v1/booking/purchase", bookingHandler.Purchase)
		e.Router.POST("/api/v1/booking/cancel", bookingHandler.Cancel)
		e.Router.GET("/api/v1/booking/history", bookingHandler.GetHistory)

		// Payment endpoints
		e.Router.POST("/api/v1/payment/session", bookingHandler.CreatePaymentSession)
		e.Router.GET("/api/v1/payment/{paymentId}", bookingHandler.GetPaymentSession)
		e.Router.POST("/api/v1/payment/{paymentId}/complete", bookingHandler.CompletePaymentSession)

		// Category endpoints
		e.Router.GET("/api/v1/categories/{categoryId}/status", categoryHandler.GetStatus)

		// Admin endpoints
		e.Router.POST("/api/v1/admin/categories/{categoryId}/capacity", categoryHandler.AdjustCapacity)
		e.Router.POST("/api/v1/admin/categories/{categoryId}/activate", categoryHandler.Activate)
		e.Router.POST("/api/v1/admin/categories/{categoryId}/deactivate", categoryHandler.Deactivate)
		e.Router.GET("/api/v1/admin/inventory-dashboard", adminHandler.GetInventoryDashboard)

		// Health check
		e.Router.GET("/health", func(e *core.RequestEvent) error {
			if err := utils.RedisHealthCheck(redisClient); err != nil {
				return e.JSON(503, map[string]string{
					"status": "unhealthy",
					"error":  err.Error(),
				})
			}
			return e.JSON(200, map[string]string{"status": "healthy"})
		})

		log.Println("Server routes registered")

		setupCategoryHooks(app, seeder)

		return e.Next()
	})

	// Start server
	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
	return nil
}

// seedInventory loads every category from the store into the live ledger.
func seedInventory(ctx context.Context, categories *store.CategoryStore, seeder ledgerSeeder) {
	log.Println("Seeding inventory ledger from store...")

	all, err := categories.List(ctx)
	if err != nil {
		slog.Error("seeding inventory ledger", "error", err)
		return
	}

	for _, category := range all {
		if err := seeder.Seed(ctx, category.ID, category.TotalTickets, category.TicketsSold, category.Active); err != nil {
			slog.Error("seeding category",
				"category_id", category.ID,
				"error", err,
			)
		}
	}

	log.Printf("Seeded %d categories into the inventory ledger", len(all))
}

// setupCategoryHooks keeps a seeded ledger in sync with record changes made
// through the PocketBase record API. Store-backed deployments need no
// syncing; the store is the ledger.
func setupCategoryHooks(app *pocketbase.PocketBase, seeder ledgerSeeder) {
	if seeder == nil {
		return
	}

	app.OnRecordAfterCreateSuccess("ticket_categories").BindFunc(func(e *core.RecordEvent) error {
		err := seeder.Seed(
			context.Background(),
			e.Record.Id,
			e.Record.GetInt("total_tickets"),
			e.Record.GetInt("tickets_sold"),
			e.Record.GetBool("active"),
		)
		if err != nil {
			slog.Error("seeding created category into ledger", "category_id", e.Record.Id, "error", err)
		}
		return e.Next()
	})

	// Updates sync only the definition. The record's stored tickets_sold may
	// lag the live ledger, so re-seeding it here would resell capacity that
	// is already reserved.
	app.OnRecordAfterUpdateSuccess("ticket_categories").BindFunc(func(e *core.RecordEvent) error {
		err := seeder.Sync(
			context.Background(),
			e.Record.Id,
			e.Record.GetInt("total_tickets"),
			e.Record.GetInt("tickets_sold"),
			e.Record.GetBool("active"),
		)
		if err != nil {
			slog.Error("syncing category into ledger", "category_id", e.Record.Id, "error", err)
		}
		return e.Next()
	})

	app.OnRecordAfterDeleteSuccess("ticket_categories").BindFunc(func(e *core.RecordEvent) error {
		if err := seeder.Remove(context.Background(), e.Record.Id); err != nil {
			slog.Error("removing category from ledger", "category_id", e.Record.Id, "error", err)
		}
		return e.Next()
	})
}

func serveMetrics(port string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	log.Printf("Metrics server listening on :%s", port)
	if err := http.ListenAndServe(":"+port, mux); err != nil {
		log.Printf("Metrics server error: %v", err)
	}
}

// handleShutdown handles graceful shutdown
func handleShutdown(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Println("Shutdown signal received, cleaning up...")
	cancel()
}
