// Command server runs the rainfall-ENSO analysis service: a multipart upload
// endpoint that normalizes station, precipitation, and climate files, joins
// them, and returns the analysis as JSON.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hidromet/rainfall-enso-etl/internal/adapter/httpadapter"
	kafkaadapter "github.com/hidromet/rainfall-enso-etl/internal/adapter/kafka"
	"github.com/hidromet/rainfall-enso-etl/internal/config"
	"github.com/hidromet/rainfall-enso-etl/internal/domain"
	"github.com/hidromet/rainfall-enso-etl/internal/observability"
	"github.com/hidromet/rainfall-enso-etl/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	p := pipeline.New(logger, metrics, cfg.ParseCacheSize, pipeline.Options{
		EnsoDelimiter: cfg.EnsoDelimiterRune(),
		Thresholds:    domain.PhaseThresholds{Warm: cfg.WarmThreshold, Cold: cfg.ColdThreshold},
		SourceEPSG:    cfg.SourceEPSG,
	})

	// Row sink is feature-flagged via KAFKA_ENABLED.
	var sink httpadapter.RowSink
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		sink = writer
		logger.Info("kafka row sink enabled", "topic", cfg.KafkaSinkTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("kafka row sink disabled")
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, cfg.MaxUploadBytes, p, sink, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
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
