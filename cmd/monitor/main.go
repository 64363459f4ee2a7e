package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/nexioai/nexio-ingest/internal/ai"
	"github.com/nexioai/nexio-ingest/internal/alert"
	"github.com/nexioai/nexio-ingest/internal/config"
	"github.com/nexioai/nexio-ingest/internal/db"
	"github.com/nexioai/nexio-ingest/internal/metrics"
	"github.com/nexioai/nexio-ingest/internal/monitor"
	"github.com/nexioai/nexio-ingest/internal/secrets"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Failed to create logger:", err)
	}
	defer logger.Sync()

	if !cfg.Monitor.Enabled {
		logger.Fatal("Monitor is disabled, set NEXIO_MONITOR_ENABLED=true to run the sweep daemon")
	}

	conn, err := db.NewConnection(cfg.Database.URL, cfg.Database.MaxConnections, cfg.Database.MaxIdleConns)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer conn.Close()

	repo := db.NewRepository(conn)

	cipher, err := secrets.NewCipher(cfg.Monitor.EncryptionKey, logger)
	if err != nil {
		logger.Fatal("Failed to initialize cipher", zap.Error(err))
	}

	collector := metrics.NewCollector()

	service := monitor.NewService(
		repo,
		monitor.NewEngineClient(cfg.Monitor.RequestTimeout),
		cipher,
		ai.NewAnalyzer(cfg.AI, logger),
		alert.NewWhatsAppSender(cfg.Alert, logger),
		collector,
		logger,
		cfg.Monitor.ExecutionLimit,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info("Shutting down monitor")
		cancel()
	}()

	logger.Info("Monitor daemon started", zap.Duration("interval", cfg.Monitor.SweepInterval))

	runSweep(ctx, service, logger)

	ticker := time.NewTicker(cfg.Monitor.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Monitor exited")
			return
		case <-ticker.C:
			runSweep(ctx, service, logger)
		}
	}
}

func runSweep(ctx context.Context, service *monitor.Service, logger *zap.Logger) {
	results, err := service.Sweep(ctx)
	if err != nil {
		logger.Error("Sweep failed", zap.Error(err))
		return
	}

	newErrors := 0
	failed := 0
	for _, r := range results {
		newErrors += r.NewErrors
		if !r.Success {
			failed++
		}
	}

	logger.Info("Sweep completed",
		zap.Int("instances", len(results)),
		zap.Int("new_errors", newErrors),
		zap.Int("failed_instances", failed))
}
