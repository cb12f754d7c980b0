package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/urban-harvest/kiosk/internal/catalog"
	"github.com/urban-harvest/kiosk/internal/handlers"
	"github.com/urban-harvest/kiosk/internal/machine"
	"github.com/urban-harvest/kiosk/internal/platform/config"
	"github.com/urban-harvest/kiosk/internal/platform/idempotency"
	"github.com/urban-harvest/kiosk/internal/platform/observability"
	"github.com/urban-harvest/kiosk/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	baseLogger, err := observability.NewLogger(cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("kiosk")
	events := observability.EventLogger(logger)

	machineClient, err := machine.NewClient(machine.Config{
		BaseURL:    cfg.Machine.BaseURL,
		HTTPClient: &http.Client{Timeout: cfg.Machine.RequestTimeout},
		Logger:     events,
	})
	if err != nil {
		logger.Fatal("failed to initialise machine client", zap.Error(err))
	}

	inventory, err := services.NewInventoryService(services.InventoryServiceDeps{
		Machine:         machineClient,
		MachineID:       cfg.Machine.MachineID,
		RefreshInterval: cfg.Machine.InventoryRefresh,
		Logger:          events,
	})
	if err != nil {
		logger.Fatal("failed to initialise inventory service", zap.Error(err))
	}

	sessions, err := services.NewSessionService(services.SessionServiceDeps{
		TTL:           cfg.Session.TTL,
		AlertDuration: cfg.Session.AlertDuration,
		Logger:        events,
	})
	if err != nil {
		logger.Fatal("failed to initialise session service", zap.Error(err))
	}

	tracker, err := services.NewOrderTracker(services.OrderTrackerDeps{
		Machine:      machineClient,
		PollInterval: cfg.Orders.PollInterval,
		PollTimeout:  cfg.Orders.PollTimeout,
		Logger:       events,
	})
	if err != nil {
		logger.Fatal("failed to initialise order tracker", zap.Error(err))
	}

	orders, err := services.NewOrderService(services.OrderServiceDeps{
		Machine:            machineClient,
		Assembler:          services.NewOrderAssembler(services.OrderAssemblerDeps{Logger: events}),
		Tracker:            tracker,
		PaymentDelay:       cfg.Orders.PaymentDelay,
		PaymentFailureRate: cfg.Orders.PaymentFailureRate,
		Logger:             events,
	})
	if err != nil {
		logger.Fatal("failed to initialise order service", zap.Error(err))
	}

	menu := catalog.NewStore()

	idempotencyStore := idempotency.NewMemoryStore()
	idempotencyMiddleware := idempotency.Middleware(
		idempotencyStore,
		idempotency.WithHeader(cfg.Idempotency.Header),
		idempotency.WithTTL(cfg.Idempotency.TTL),
		idempotency.WithLogger(observability.NewPrintfAdapter(logger.Named("idempotency"))),
	)

	health := handlers.NewHealthHandlers(map[string]handlers.ReadinessCheck{
		"machine": func(r *http.Request) error {
			_, err := inventory.Snapshot(r.Context())
			return err
		},
	})

	router := handlers.NewRouter(
		handlers.WithMiddlewares(
			observability.InjectLoggerMiddleware(logger),
			observability.RequestLoggerMiddleware(),
			observability.RecoveryMiddleware(logger),
		),
		handlers.WithHealthHandlers(health),
		handlers.WithSessionRoutes(handlers.NewSessionHandlers(sessions, inventory, machineClient, menu, cfg.Machine.MachineID).Routes),
		handlers.WithCatalogRoutes(handlers.NewCatalogHandlers(menu).Routes),
		handlers.WithMachineRoutes(handlers.NewMachineHandlers(inventory, machineClient, cfg.Machine.MachineID).Routes),
		handlers.WithOrderRoutes(handlers.NewOrderHandlers(sessions, orders, inventory, cfg.Machine.MachineID).Routes),
		handlers.WithOrderMiddlewares(idempotencyMiddleware),
	)

	backgroundCtx, stopBackground := context.WithCancel(context.Background())
	var background sync.WaitGroup

	background.Add(1)
	go func() {
		defer background.Done()
		inventory.Run(backgroundCtx)
	}()

	background.Add(1)
	go func() {
		defer background.Done()
		sessions.Run(backgroundCtx)
	}()

	if cfg.Idempotency.Sweep > 0 {
		background.Add(1)
		go func() {
			defer background.Done()
			sweepLogger := logger.Named("idempotency")
			ticker := time.NewTicker(cfg.Idempotency.Sweep)
			defer ticker.Stop()
			for {
				select {
				case <-backgroundCtx.Done():
					return
				case <-ticker.C:
					removed, err := idempotencyStore.CleanupExpired(backgroundCtx, time.Now().UTC(), 0)
					if err != nil {
						sweepLogger.Error("idempotency sweep error", zap.Error(err))
						continue
					}
					if removed > 0 {
						sweepLogger.Info("idempotency sweep removed records", zap.Int("count", removed))
					}
				}
			}
		}()
	}

	// Warm the inventory cache so the first shopper does not pay the fetch.
	warmCtx, warmCancel := context.WithTimeout(backgroundCtx, cfg.Machine.RequestTimeout)
	if _, err := inventory.Refresh(warmCtx); err != nil {
		logger.Warn("initial inventory fetch failed", zap.Error(err))
	}
	warmCancel()

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("kiosk api listening",
			zap.String("addr", server.Addr),
			zap.String("machineId", cfg.Machine.MachineID),
		)
		serverErr <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-stop:
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}

	stopBackground()
	background.Wait()
	logger.Info("kiosk api stopped")
}
