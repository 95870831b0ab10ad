package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/pgn-l0-service/internal/adapter/archive"
	"github.com/couchcryptid/pgn-l0-service/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/pgn-l0-service/internal/adapter/kafka"
	"github.com/couchcryptid/pgn-l0-service/internal/config"
	"github.com/couchcryptid/pgn-l0-service/internal/observability"
	"github.com/couchcryptid/pgn-l0-service/internal/pipeline"
	"github.com/couchcryptid/pgn-l0-service/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	client := archive.NewClient(cfg.ArchiveBaseURL, cfg.FetchTimeout, logger, metrics)
	arch := archive.NewCachedArchive(client, cfg.ArchiveCacheSize, metrics)
	logger.Info("archive configured", "base_url", cfg.ArchiveBaseURL, "cache_size", cfg.ArchiveCacheSize, "timeout", cfg.FetchTimeout)

	// Republishing is feature-flagged via KAFKA_ENABLED / KAFKA_BROKERS.
	var publisher pipeline.Publisher
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger, metrics)
		publisher = writer
		logger.Info("kafka publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic, "batch_size", cfg.BatchSize)
	} else {
		logger.Info("kafka publishing disabled")
	}

	store := session.NewStore()
	loader := pipeline.New(arch, publisher, store, cfg.ParseConfig(), cfg.FetchTimeout, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, store, loader, arch, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
