package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/castlegateit/memberdir/pkg/api"
	"github.com/castlegateit/memberdir/pkg/config"
	"github.com/castlegateit/memberdir/pkg/observability"
	"github.com/castlegateit/memberdir/pkg/schema"
	"github.com/castlegateit/memberdir/pkg/store"
	"github.com/castlegateit/memberdir/pkg/store/cache"
	"github.com/castlegateit/memberdir/pkg/store/sqlstore"
)

func main() {
	// A .env file is optional; the environment wins either way.
	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		observability.NewLogger(observability.ErrorLevel, os.Stderr).
			WithError(err).Error("invalid configuration")
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Log.Level, os.Stdout)

	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Error("service stopped")
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *observability.Logger) error {
	sqlStore, err := openStore(cfg.Store)
	if err != nil {
		return err
	}
	defer sqlStore.Close()

	var directory store.DirectoryStore = sqlStore
	if cfg.Store.RedisURL != "" {
		cached, err := cache.New(sqlStore, cfg.Store)
		if err != nil {
			return err
		}
		defer cached.Close()
		directory = cached
		logger.WithField("redis", cfg.Store.RedisURL).Info("account cache enabled")
	}

	// Extension fields come from an optional YAML file, re-read on change.
	loader, err := schema.NewLoader(cfg.Search.SchemaPath)
	if err != nil {
		return err
	}
	defer loader.Close()

	if cfg.Search.SchemaPath != "" {
		if err := loader.Watch(func(err error) {
			logger.WithError(err).Warn("schema reload failed")
		}); err != nil {
			return err
		}
		logger.WithField("path", cfg.Search.SchemaPath).Info("watching schema file")
	}

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)

	server := api.NewServer(directory, cfg.Search, logger, api.Options{
		RegistryFn: func() *schema.Registry { return loader.Registry(nil) },
		Metrics:    metrics,
	})

	apiServer := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      server,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	health := observability.NewHealthHandler()
	health.Register("store", sqlStore)

	healthMux := http.NewServeMux()
	healthMux.HandleFunc("/healthz", health.Live)
	healthMux.HandleFunc("/readyz", health.Ready)
	healthMux.Handle("/metrics", promhttp.Handler())

	healthServer := &http.Server{
		Addr:    cfg.Server.Host + ":" + cfg.Server.HealthPort,
		Handler: healthMux,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		logger.WithField("addr", apiServer.Addr).Info("starting member directory server")
		if err := apiServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		logger.WithField("addr", healthServer.Addr).Info("starting health server")
		if err := healthServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		healthServer.Shutdown(shutdownCtx)
		return apiServer.Shutdown(shutdownCtx)
	})

	return group.Wait()
}

func openStore(cfg store.Config) (*sqlstore.SQLStore, error) {
	if cfg.Driver == "postgres" {
		return sqlstore.NewPostgres(cfg)
	}
	return sqlstore.NewSQLite(cfg.SQLitePath)
}
