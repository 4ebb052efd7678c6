// Command web serves the basketwatch HTTP API: combined price data for the
// chart front end plus the bearer-gated admin refresh endpoints.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"basketwatch/internal/config"
	apierrors "basketwatch/internal/errors"
	"basketwatch/internal/fetch"
	"basketwatch/internal/infrastructure"
	"basketwatch/internal/pipeline"
	"basketwatch/internal/services"
	"basketwatch/internal/store"
	transporthttp "basketwatch/internal/transport/http"
)

const backupsKept = 10

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	metrics := infrastructure.NewMetrics(prometheus.DefaultRegisterer)

	kv := store.NewRedisStore(cfg.Redis)
	defer kv.Close()

	commodityStore := store.NewCommodityStore(kv, logger)
	runner := pipeline.NewRunner(cfg.Pipeline, commodityStore, logger, metrics)

	clients := map[string]fetch.Client{
		"bls": fetch.NewBLSClient(cfg.Upstream),
		"eia": fetch.NewEIAClient(cfg.Upstream),
	}
	ingestService := services.NewIngestService(cfg, commodityStore, clients, logger, metrics)
	priceService := services.NewPriceService(commodityStore, runner, logger)
	adminService := services.NewAdminService(ingestService, priceService, commodityStore)

	errHandler := apierrors.NewErrorHandler(logger)
	router := transporthttp.NewRouter(transporthttp.RouterDeps{
		Prices:  transporthttp.NewPricesHandler(priceService, logger, errHandler),
		Admin:   transporthttp.NewAdminHandler(adminService, logger, errHandler, backupsKept),
		Health:  transporthttp.NewHealthHandler(priceService, logger),
		Logger:  logger,
		Metrics: metrics,
		Config:  cfg,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", slog.Int("port", cfg.Server.Port))
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case sig := <-shutdown:
		logger.Info("shutting down", slog.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
	}
	return nil
}
