// Command pointobs serves the point observation query engine over HTTP.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/hydroframe/point-obs/internal/adapter/http"
	"github.com/hydroframe/point-obs/internal/archive"
	"github.com/hydroframe/point-obs/internal/config"
	"github.com/hydroframe/point-obs/internal/observability"
	"github.com/hydroframe/point-obs/internal/query"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	arc, err := archive.Open(cfg.ArchiveRoot, cfg.ArchiveDB, logger)
	if err != nil {
		logger.Error("failed to open archive", "root", cfg.ArchiveRoot, "db", cfg.ArchiveDB, "error", err)
		os.Exit(1)
	}

	index := archive.NewCachedIndex(arc, cfg.IndexCacheSize, cfg.IndexCacheTTL)
	index.OnLookup(func(result string) {
		metrics.IndexCacheTotal.WithLabelValues(result).Inc()
	})

	engine := query.New(index, arc, arc, logger, metrics, cfg.LoadWorkers)

	srv := httpadapter.NewServer(cfg.HTTPAddr, engine, httpadapter.ReadinessFunc(arc.Ping), logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	logger.Info("archive opened",
		"root", cfg.ArchiveRoot,
		"db", cfg.ArchiveDB,
		"load_workers", cfg.LoadWorkers,
		"index_cache_ttl", cfg.IndexCacheTTL,
	)

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := arc.Close(); err != nil {
		logger.Error("archive close error", "error", err)
	}

	logger.Info("shutdown complete")
}
