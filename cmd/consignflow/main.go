package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/consignflow/consignflow/internal/app"
	"github.com/consignflow/consignflow/internal/documents"
	"github.com/consignflow/consignflow/internal/imports"
	"github.com/consignflow/consignflow/internal/inventory"
	"github.com/consignflow/consignflow/internal/ledger"
	"github.com/consignflow/consignflow/internal/locations"
	"github.com/consignflow/consignflow/internal/platform/cache"
	"github.com/consignflow/consignflow/internal/platform/db"
	"github.com/consignflow/consignflow/internal/shared"
	"github.com/consignflow/consignflow/internal/tickets"
	"github.com/consignflow/consignflow/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		// Caching degrades to pass-through without Redis; listings are
		// recomputed per request.
		logger.Warn("redis unavailable, caching disabled", slog.Any("error", err))
		redisClient = nil
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}
	inventoryCache := cache.NewVersioned(redisClient, "inventory", cfg.ListingCacheTTL)
	ticketsCache := cache.NewVersioned(redisClient, "tickets", cfg.ListingCacheTTL)

	var refresher documents.Refresher
	var importRefresher imports.Refresher
	if redisClient != nil {
		jobsClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
		if err != nil {
			logger.Error("init jobs client", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() {
			if err := jobsClient.Close(); err != nil {
				logger.Warn("jobs client close", slog.Any("error", err))
			}
		}()
		refresher = jobsClient
		importRefresher = jobsClient
	}

	ledgerRepo := ledger.NewRepository(pool)
	calc := ledger.NewCalculator(ledgerRepo)
	auditLogger := shared.NewAuditLogger(pool)

	locationsRepo := locations.NewRepository(pool)
	locationsService := locations.NewService(logger, locationsRepo)

	inventoryService := inventory.NewService(logger, ledgerRepo)
	ticketsService := tickets.NewService(logger, ledgerRepo)
	documentsService := documents.NewService(logger, ledgerRepo, auditLogger, refresher)
	importsService := imports.NewService(logger, ledgerRepo, locationsService, auditLogger, importRefresher)

	router := app.NewRouter(app.RouterParams{
		Logger:              logger,
		Config:              cfg,
		InventoryHandler:    inventory.NewHandler(logger, inventoryService, inventoryCache),
		TicketsHandler:      tickets.NewHandler(logger, ticketsService, ticketsCache),
		DocumentsHandler:    documents.NewHandler(logger, documentsService),
		ImportsHandler:      imports.NewHandler(logger, importsService),
		LocationsHandler:    locations.NewHandler(logger, locationsService),
		AvailabilityHandler: ledger.NewHandler(logger, calc),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
