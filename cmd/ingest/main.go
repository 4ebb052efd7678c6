// Command ingest is the cron entry point: it fetches the configured
// commodity series, merges new observations into the store, reruns the
// pipeline, and prunes old backups.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"basketwatch/internal/config"
	"basketwatch/internal/fetch"
	"basketwatch/internal/infrastructure"
	"basketwatch/internal/pipeline"
	"basketwatch/internal/services"
	"basketwatch/internal/store"
)

func main() {
	commodity := flag.String("commodity", "", "ingest a single commodity instead of all configured ones")
	skipFetch := flag.Bool("skip-fetch", false, "rerun the pipeline over stored data without fetching")
	keepBackups := flag.Int("keep-backups", 10, "number of backup snapshots to retain")
	timeout := flag.Duration("timeout", 5*time.Minute, "overall run timeout")
	flag.Parse()

	if err := run(*commodity, *skipFetch, *keepBackups, *timeout); err != nil {
		slog.Error("ingest run failed", "error", err)
		os.Exit(1)
	}
}

func run(commodity string, skipFetch bool, keepBackups int, timeout time.Duration) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	metrics := infrastructure.NewMetrics(prometheus.NewRegistry())

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	kv := store.NewRedisStore(cfg.Redis)
	defer kv.Close()

	commodityStore := store.NewCommodityStore(kv, logger)
	if err := commodityStore.Ping(ctx); err != nil {
		return err
	}

	runner := pipeline.NewRunner(cfg.Pipeline, commodityStore, logger, metrics)

	if !skipFetch {
		clients := map[string]fetch.Client{
			"bls": fetch.NewBLSClient(cfg.Upstream),
			"eia": fetch.NewEIAClient(cfg.Upstream),
		}
		ingestService := services.NewIngestService(cfg, commodityStore, clients, logger, metrics)

		if commodity != "" {
			result, err := ingestService.IngestCommodity(ctx, commodity)
			if err != nil {
				return err
			}
			logger.Info("commodity ingested",
				slog.String("commodity", result.Commodity),
				slog.Int("added", result.Added))
		} else {
			results, err := ingestService.IngestAll(ctx)
			if err != nil {
				return err
			}
			for _, result := range results {
				logger.Info("ingest result",
					slog.String("commodity", result.Commodity),
					slog.Int("added", result.Added),
					slog.String("error", result.Error))
			}
		}
	}

	dataset, err := runner.Run(ctx)
	if err != nil {
		return err
	}
	logger.Info("pipeline complete",
		slog.Int("aligned_prices", len(dataset.AlignedPrices)),
		slog.Int("basket_points", len(dataset.Basket)))

	pruned, err := commodityStore.CleanupBackups(ctx, keepBackups)
	if err != nil {
		logger.Warn("backup cleanup failed", slog.String("error", err.Error()))
	} else if pruned > 0 {
		logger.Info("backups pruned", slog.Int("count", pruned))
	}
	return nil
}
