package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/admin-sync/internal/actions"
	httptransport "github.com/spec-kit/admin-sync/internal/api/http"
	"github.com/spec-kit/admin-sync/internal/api/http/handlers"
	"github.com/spec-kit/admin-sync/internal/backend"
	"github.com/spec-kit/admin-sync/internal/bridge"
	"github.com/spec-kit/admin-sync/internal/config"
	"github.com/spec-kit/admin-sync/internal/events"
	"github.com/spec-kit/admin-sync/internal/ingest"
	"github.com/spec-kit/admin-sync/internal/observability"
	"github.com/spec-kit/admin-sync/internal/persistence"
	"github.com/spec-kit/admin-sync/internal/selection"
	"github.com/spec-kit/admin-sync/internal/session"
	"github.com/spec-kit/admin-sync/internal/store"
	"github.com/spec-kit/admin-sync/internal/syncer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics()

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	sess := session.New(cfg.Backend.Token, logger)
	sess.OnAuthRequired(func() {
		// The UI reads this as its redirect-to-login signal; the daemon
		// itself stays up so a fresh token can be installed.
		logger.Error("admin session no longer valid, re-authentication required",
			zap.String("subject", sess.Subject()))
	})
	if sess.Expired() {
		logger.Warn("admin token already expired", zap.Time("expires_at", sess.ExpiresAt()))
	}

	stores := store.New()
	ing := ingest.New(stores, logger, metrics)

	client := backend.NewClient(backend.Options{
		BaseURL:    cfg.Backend.BaseURL,
		Session:    sess,
		HTTPClient: &http.Client{Timeout: cfg.Backend.Timeout()},
		MaxRetries: cfg.Sync.RetryCount,
		RetryDelay: cfg.Sync.RetryDelay(),
		Logger:     logger,
		Metrics:    metrics,
	})

	dispatcher := events.NewInMemoryDispatcher(logger, metrics)
	subscriptions := ing.RegisterHandlers(dispatcher)
	defer func() {
		for _, sub := range subscriptions {
			sub.Unsubscribe()
		}
	}()

	push := bridge.New(bridge.Options{
		URL:           cfg.Push.URL,
		Dispatcher:    dispatcher,
		Session:       sess,
		CheckInterval: cfg.Push.ReconnectInterval(),
		Logger:        logger,
	})
	unwatch := push.OnStateChange(func(state bridge.ConnState) {
		if state == bridge.StateDisconnected {
			logger.Warn("push channel down, reconciliation continues on degraded cadence")
		}
	})
	defer unwatch()

	push.Connect(ctx)
	defer push.Close()

	sync := syncer.New(client, ing, sess, logger, metrics)

	guard := selection.NewGuard(stores, selection.NewRedisSlot(redis, cfg.Sync.FocusKey), logger)
	defer guard.Close()
	guard.Rehydrate(ctx)
	sync.OnKindSynced(guard.MarkSynced)

	if err := sync.RefreshAll(ctx); err != nil {
		logger.Warn("initial refresh incomplete", zap.Error(err))
	}

	scheduler := syncer.NewScheduler(sync, push, cfg.Sync.Interval(), cfg.Sync.DegradedInterval(), logger)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	actionDispatcher := actions.NewDispatcher(client, ing, logger)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:      handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, redis, push),
		Collections: handlers.NewCollectionsHandler(stores),
		Sync:        handlers.NewSyncHandler(sync, push, guard, metrics),
		Actions:     handlers.NewActionsHandler(actionDispatcher),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
