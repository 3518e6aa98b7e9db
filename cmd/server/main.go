package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"docparse/internal/config"
	"docparse/internal/handler"
	"docparse/internal/logger"
	"docparse/internal/metrics"
	"docparse/internal/parser"
	"docparse/internal/parser/claude"
	"docparse/internal/parser/gemini"
	"docparse/internal/parser/openai"
	"docparse/internal/router"
	"docparse/internal/service"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	zl, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = zl.Sync() }()

	rec := metrics.New()

	// Initialize gateway
	parser.RegisterProvider("openai", openai.Factory)
	parser.RegisterProvider("claude", claude.Factory)
	parser.RegisterProvider("gemini", gemini.Factory)
	gw, err := parser.NewGateway(&cfg.Gateway)
	if err != nil {
		return fmt.Errorf("failed to initialize gateway: %w", err)
	}
	gw = parser.WithCircuitBreaker(gw, &cfg.Gateway, zl)

	selector := parser.NewStrategySelector()
	if cfg.Strategy.File != "" {
		n, err := parser.LoadStrategies(selector, cfg.Strategy.File)
		if err != nil {
			return fmt.Errorf("failed to load strategies: %w", err)
		}
		zl.Info("loaded strategy extensions", zap.String("file", cfg.Strategy.File), zap.Int("count", n))
	}
	normalizer := parser.NewNormalizer()

	// Initialize services
	extractionSvc := service.NewExtractionService(gw, selector, normalizer, zl, rec)
	batchSvc := service.NewBatchService(nil, gw, selector, normalizer, cfg.Batch, zl, rec)

	// Initialize handlers
	parseH := handler.NewParseHandler(extractionSvc, batchSvc, service.DefaultBatchOptions(cfg.Batch), zl)
	healthH := handler.NewHealthHandler(cfg.Gateway.Provider, cfg.Gateway.Model)

	r := router.Setup(cfg, zl, parseH, healthH, rec.Handler())

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		zl.Info("server starting",
			zap.String("addr", cfg.Server.Port),
			zap.String("provider", cfg.Gateway.Provider),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	zl.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
