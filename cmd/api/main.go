package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/nexioai/nexio-ingest/internal/ai"
	"github.com/nexioai/nexio-ingest/internal/alert"
	"github.com/nexioai/nexio-ingest/internal/api"
	"github.com/nexioai/nexio-ingest/internal/api/handlers"
	"github.com/nexioai/nexio-ingest/internal/config"
	"github.com/nexioai/nexio-ingest/internal/db"
	"github.com/nexioai/nexio-ingest/internal/forms"
	"github.com/nexioai/nexio-ingest/internal/metrics"
	"github.com/nexioai/nexio-ingest/internal/monitor"
	"github.com/nexioai/nexio-ingest/internal/secrets"
	"github.com/nexioai/nexio-ingest/internal/storage/redis"
	"github.com/nexioai/nexio-ingest/internal/webhook"
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

	// Database
	conn, err := db.NewConnection(cfg.Database.URL, cfg.Database.MaxConnections, cfg.Database.MaxIdleConns)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer conn.Close()

	repo := db.NewRepository(conn)

	// Redis cache for public form configs (optional)
	var cache *redis.Client
	if cfg.Redis.URL != "" {
		cache = redis.NewClient(cfg.Redis.URL)
		defer cache.Close()
	}

	collector := metrics.NewCollector()
	webhookClient := webhook.NewClient(cfg.Webhook.Timeout, cfg.Webhook.MaxBodyBytes, logger)
	formsService := forms.NewService(repo, webhookClient, collector, logger)

	var cipher *secrets.Cipher
	var monitorService *monitor.Service
	if cfg.Monitor.Enabled {
		cipher, err = secrets.NewCipher(cfg.Monitor.EncryptionKey, logger)
		if err != nil {
			logger.Fatal("Failed to initialize cipher", zap.Error(err))
		}

		monitorService = monitor.NewService(
			repo,
			monitor.NewEngineClient(cfg.Monitor.RequestTimeout),
			cipher,
			ai.NewAnalyzer(cfg.AI, logger),
			alert.NewWhatsAppSender(cfg.Alert, logger),
			collector,
			logger,
			cfg.Monitor.ExecutionLimit,
		)
	}

	handler := handlers.NewHandler(repo, formsService, monitorService, webhookClient, cipher, cache, cfg, logger)
	server := api.NewServer(cfg, handler, logger)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: server.Router,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	logger.Info("API server started", zap.String("port", cfg.Server.Port))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
