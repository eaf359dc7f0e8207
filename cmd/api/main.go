package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	httptransport "github.com/spec-kit/rental-portal/internal/api/http"
	"github.com/spec-kit/rental-portal/internal/api/http/handlers"
	"github.com/spec-kit/rental-portal/internal/auth"
	"github.com/spec-kit/rental-portal/internal/backend"
	"github.com/spec-kit/rental-portal/internal/config"
	"github.com/spec-kit/rental-portal/internal/events"
	"github.com/spec-kit/rental-portal/internal/observability"
	"github.com/spec-kit/rental-portal/internal/persistence"
	"github.com/spec-kit/rental-portal/internal/session"
	"github.com/spec-kit/rental-portal/internal/tickets"
	"github.com/spec-kit/rental-portal/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, "api")
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	metrics := observability.NewMetrics()

	sessionBackend, err := persistence.NewSessionBackend(cfg, logger)
	if err != nil {
		logger.Fatal("failed to open session store", zap.Error(err))
	}
	defer sessionBackend.Close()

	dispatcher := events.NewInMemoryDispatcher(func(e events.Event, err error) {
		logger.Warn("event handler failed", zap.String("event", string(e.Type)), zap.Error(err))
	})
	worker.StartAuditWorker(dispatcher, logger)

	sessions := session.NewManager(sessionBackend.Store, dispatcher, cfg.Session.TokenTTL, logger)
	client := backend.New(cfg.Backend.BaseURL, cfg.Backend.Timeout(), metrics, logger)

	registry := tickets.NewRegistry(func(sessionID string) *tickets.Controller {
		handle := sessions.Handle(sessionID)
		return tickets.NewController(tickets.Dependencies{
			Backend:    client.WithSession(handle),
			Identity:   handle,
			Dispatcher: dispatcher,
			Logger:     logger.Named("tickets"),
		})
	})
	worker.StartSessionCleanup(dispatcher, registry.ReleaseOnSignOut)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go worker.SessionSweeper{
		Sessions: registry.Sessions,
		Lookup: func(ctx context.Context, id string) error {
			_, err := sessions.Get(ctx, id)
			return err
		},
		Release:  registry.Release,
		Interval: time.Minute,
		Logger:   logger.Named("sweeper"),
	}.Run(ctx)

	app := httptransport.NewApp(httptransport.AppConfig{
		Name:           cfg.App.Name,
		Logger:         logger,
		Metrics:        metrics,
		RequestTimeout: cfg.App.RequestTimeout(),
		Routes: httptransport.RouteConfig{
			Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
				"session_store": sessionBackend,
			}, metrics),
			Auth:      handlers.NewAuthHandler(client, sessions, cfg.Session.CookieName, cfg.Session.CookieSecure, logger),
			Tickets:   handlers.NewTicketsHandler(registry),
			Contracts: handlers.NewContractsHandler(client, dispatcher, logger, time.Now),
			Reports:   handlers.NewReportsHandler(client, logger, time.Now),
			Sessions:  auth.NewSessionMiddleware(sessions, cfg.Session.CookieName),
		},
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()
	logger.Info("portal listening",
		zap.String("addr", cfg.App.Addr()),
		zap.String("backend", cfg.Backend.BaseURL),
		zap.String("session_store", sessionBackend.Kind),
	)

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
