// @title        Branch Dashboard API
// @version      1.0
// @description  Role-gated finance dashboard over the identity, ledger and reporting services.
// @BasePath     /
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	_ "github.com/branchledger/dashboard/docs"
	"github.com/branchledger/dashboard/internal/api"
	"github.com/branchledger/dashboard/internal/api/handler"
	"github.com/branchledger/dashboard/internal/core/ports"
	"github.com/branchledger/dashboard/internal/core/service"
	"github.com/branchledger/dashboard/internal/core/session"
	"github.com/branchledger/dashboard/internal/infrastructure/config"
	filestore "github.com/branchledger/dashboard/internal/infrastructure/db/file"
	mongostore "github.com/branchledger/dashboard/internal/infrastructure/db/mongo"
	redisstore "github.com/branchledger/dashboard/internal/infrastructure/db/redis"
	"github.com/branchledger/dashboard/internal/infrastructure/upstream"
	"github.com/branchledger/dashboard/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

type sessionBackend interface {
	ports.SessionStorage
	handler.Pinger
}

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "dashboard",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("dashboard stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	backend, closeBackend, err := openSessionBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeBackend()

	store := session.NewStore(backend, logger.Component("session"))
	if err := store.Hydrate(ctx); err != nil {
		log.Warn().Err(err).Msg("persisted session could not be restored")
	}

	identity, err := upstream.NewIdentityClient(cfg.Upstream.IdentityURL, cfg.Upstream.Timeout, logger.Component("upstream"))
	if err != nil {
		return err
	}
	ledger, err := upstream.NewLedgerClient(cfg.Upstream.LedgerURL, cfg.Upstream.Timeout, logger.Component("upstream"))
	if err != nil {
		return err
	}
	reporting, err := upstream.NewReportingClient(cfg.Upstream.ReportingURL, cfg.Upstream.Timeout, logger.Component("upstream"))
	if err != nil {
		return err
	}

	refresh, err := service.ParseRefreshPolicy(cfg.RefreshPolicy)
	if err != nil {
		return err
	}
	dashboard := service.NewDashboardService(store, identity, ledger, reporting, service.Options{
		PageSize:      cfg.PageSize,
		RefreshPolicy: refresh,
	}, logger.Component("dashboard"))

	// A restored session starts with data, as if the operator had just signed in.
	if store.IsAuthenticated() {
		if _, err := dashboard.LoadDashboardData(ctx); err != nil {
			log.Warn().Err(err).Msg("initial dashboard load failed")
		}
	}

	e := api.NewRouter(api.Deps{
		Sessions:  store,
		Auth:      dashboard,
		Dashboard: dashboard,
		Users:     dashboard,
		Reports:   dashboard,
		Probes:    []handler.Pinger{backend, identity, ledger, reporting},
		Log:       logger.Component("http"),
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("session_backend", backend.Name()).Msg("dashboard listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// openSessionBackend returns the configured session storage and a func that
// releases its connection.
func openSessionBackend(ctx context.Context, cfg *config.Config) (sessionBackend, func(), error) {
	switch cfg.Session.Backend {
	case "redis":
		client, err := redisstore.Connect(ctx, redisstore.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, nil, err
		}
		return redisstore.NewSessionStore(client, "", cfg.Session.TTL), func() { _ = client.Close() }, nil
	case "mongo":
		client, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, nil, err
		}
		disconnect := func() {
			dctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = client.Disconnect(dctx)
		}
		store, err := mongostore.NewSessionStore(ctx, db, cfg.Session.TTL)
		if err != nil {
			disconnect()
			return nil, nil, err
		}
		return store, disconnect, nil
	case "file":
		return filestore.NewSessionStore(cfg.Session.File), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown session backend %q", cfg.Session.Backend)
	}
}
