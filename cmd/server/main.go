package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/jafarshop/storefront/internal/api"
	"github.com/jafarshop/storefront/internal/backend"
	"github.com/jafarshop/storefront/internal/config"
	"github.com/jafarshop/storefront/internal/logging"
	"github.com/jafarshop/storefront/internal/metrics"
	"github.com/jafarshop/storefront/internal/ordersync"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Starting storefront server",
		zap.String("port", cfg.Port),
		zap.String("environment", cfg.Environment),
		zap.String("backend", cfg.Driver),
	)

	m := metrics.New(prometheus.DefaultRegisterer)

	b, err := backend.Open(context.Background(), cfg, m, logger)
	if err != nil {
		logger.Fatal("Failed to open commerce backend", zap.Error(err))
	}
	defer b.Close()

	var (
		notifier ordersync.Notifier
		webhook  *ordersync.WebhookNotifier
	)
	if cfg.OrderSync.WebhookURL != "" {
		webhook = ordersync.NewWebhookNotifier(cfg.OrderSync.WebhookURL, logger)
		notifier = webhook
		logger.Info("Order status webhook enabled", zap.String("url", cfg.OrderSync.WebhookURL))
	}

	router := api.NewRouter(cfg, api.Dependencies{
		Backend:   b,
		OrdersFor: b.OrdersFor,
		Notifier:  notifier,
		Metrics:   m,
		Gatherer:  prometheus.DefaultGatherer,
	}, logger)

	// Request contexts derive from baseCtx so shutdown can end open order streams
	baseCtx, cancelStreams := context.WithCancel(context.Background())
	defer cancelStreams()

	// No WriteTimeout: order streams stay open for the whole browsing session
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}

	// Start server in a goroutine
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	logger.Info("Server started successfully", zap.String("address", srv.Addr))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	cancelStreams()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	if webhook != nil {
		webhook.Wait()
	}

	logger.Info("Server exited")
}
