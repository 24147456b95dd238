package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"
	httpadapter "github.com/meteopt/aviso/internal/adapter/http"
	"github.com/meteopt/aviso/internal/adapter/ipma"
	kafkaadapter "github.com/meteopt/aviso/internal/adapter/kafka"
	"github.com/meteopt/aviso/internal/config"
	"github.com/meteopt/aviso/internal/monitor"
	"github.com/meteopt/aviso/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	gateway := ipma.NewClient(cfg.IPMABaseURL, cfg.IPMATimeout, metrics, logger)

	// Alert publishing is feature-flagged via KAFKA_ENABLED / KAFKA_BROKERS.
	var notifier monitor.Notifier = monitor.NopNotifier{}
	var publisher *kafkaadapter.Publisher
	if cfg.KafkaEnabled {
		publisher = kafkaadapter.NewPublisher(cfg, logger)
		notifier = publisher
		logger.Info("kafka alert publishing enabled", "topic", cfg.KafkaAlertTopic)
	} else {
		logger.Info("kafka alert publishing disabled")
	}

	m := monitor.New(gateway, notifier, logger, metrics, clockwork.NewRealClock(), cfg.RefreshInterval)

	srv := httpadapter.NewServer(cfg.HTTPAddr, m, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start the warning monitor.
	go func() {
		if err := m.Run(ctx); err != nil {
			logger.Error("monitor error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
