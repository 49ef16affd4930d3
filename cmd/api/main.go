package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quiz_funnel_backend/internal/events"
	"quiz_funnel_backend/internal/funnel"
	"quiz_funnel_backend/internal/funnel/content"
	"quiz_funnel_backend/internal/funnel/repository"
	apphttp "quiz_funnel_backend/internal/http"
	"quiz_funnel_backend/internal/http/router"
	"quiz_funnel_backend/internal/leaddispatch"
	"quiz_funnel_backend/platform/config"
	"quiz_funnel_backend/platform/logger"
	"quiz_funnel_backend/platform/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Shared validator instance for dependency injection
	val := validator.New()

	def, err := content.Load(cfg.GetFunnelContentPath())
	if err != nil {
		log.Error("failed to load funnel content", "error", err)
		panic("failed to load funnel content: " + err.Error())
	}

	store, health, closeStore := initSessionStore(ctx, cfg, log)
	defer closeStore()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	funnelModule := funnel.NewModule(store, def, eventBus, cfg, val, log)

	// Dispatch gateway subscribes to lead capture events (not HTTP-facing)
	dispatchService := leaddispatch.NewService(cfg, funnelModule.Service(), eventBus, log)
	dispatchService.RegisterHandlers(eventBus)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   health,
		EventBus: eventBus,
		Modules: []apphttp.Module{
			funnelModule,
		},
	}

	engine := router.New(app)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// initSessionStore picks the session store: Redis when REDIS_URL is set,
// in-memory otherwise. The health checker is nil for the in-memory store
// since there is nothing external to probe.
func initSessionStore(ctx context.Context, cfg config.SessionStoreConfig, log *logger.Logger) (repository.SessionStore, apphttp.HealthChecker, func()) {
	if cfg.GetRedisURL() == "" {
		log.Info("using in-memory session store", "ttl", cfg.GetSessionTTL().String())
		store := repository.NewMemoryStore(cfg.GetSessionTTL())
		return store, nil, store.Close
	}

	store, err := repository.NewRedisStore(cfg.GetRedisURL(), cfg.GetSessionTTL())
	if err != nil {
		log.Error("failed to initialize redis session store", "error", err)
		panic("failed to initialize redis session store: " + err.Error())
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := store.Ping(pingCtx); err != nil {
		log.Error("failed to reach redis", "error", err)
		panic("failed to reach redis: " + err.Error())
	}

	log.Info("using redis session store", "ttl", cfg.GetSessionTTL().String())
	return store, store, func() { _ = store.Close() }
}
