// Command batch runs type detection and extraction over a list of document
// locations (local paths or s3://bucket/key) and prints the results as JSON.
// Usage: go run ./cmd/batch [-concurrency N] [-no-extract] [-xlsx out.xlsx] [-csv out.csv] [-report-dir dir] <location>...
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"docparse/internal/config"
	"docparse/internal/domain"
	"docparse/internal/logger"
	"docparse/internal/metrics"
	"docparse/internal/parser"
	"docparse/internal/parser/claude"
	"docparse/internal/parser/gemini"
	"docparse/internal/parser/openai"
	"docparse/internal/report"
	"docparse/internal/service"
	"docparse/internal/storage"
	"docparse/internal/storage/localfs"
	s3loader "docparse/internal/storage/s3"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	var (
		concurrency = flag.Int("concurrency", cfg.Batch.Concurrency, "documents processed at once")
		noExtract   = flag.Bool("no-extract", !cfg.Batch.Extract, "classify only, skip record extraction")
		xlsxPath    = flag.String("xlsx", "", "also write an XLSX report to this path")
		csvPath     = flag.String("csv", "", "also write a CSV report to this path")
		reportDir   = flag.String("report-dir", "", "write dated XLSX and CSV reports into this directory")
		reportName  = flag.String("report-name", "batch", "filename prefix for -report-dir reports")
	)
	flag.Parse()

	locations := flag.Args()
	if len(locations) == 0 {
		flag.Usage()
		return fmt.Errorf("at least one document location is required")
	}
	if *concurrency < 1 {
		return fmt.Errorf("-concurrency must be at least 1")
	}

	zl, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer func() { _ = zl.Sync() }()

	parser.RegisterProvider("openai", openai.Factory)
	parser.RegisterProvider("claude", claude.Factory)
	parser.RegisterProvider("gemini", gemini.Factory)
	gw, err := parser.NewGateway(&cfg.Gateway)
	if err != nil {
		return fmt.Errorf("initializing gateway: %w", err)
	}
	gw = parser.WithCircuitBreaker(gw, &cfg.Gateway, zl)

	selector := parser.NewStrategySelector()
	if cfg.Strategy.File != "" {
		if _, err := parser.LoadStrategies(selector, cfg.Strategy.File); err != nil {
			return fmt.Errorf("loading strategies: %w", err)
		}
	}

	loader := storage.NewRouter(localfs.NewLoader())
	if needsS3(locations) {
		s3, err := s3loader.NewLoader(&cfg.S3)
		if err != nil {
			return fmt.Errorf("initializing s3 loader: %w", err)
		}
		loader.Handle(s3loader.Scheme, s3)
	}

	batchSvc := service.NewBatchService(loader, gw, selector, parser.NewNormalizer(), cfg.Batch, zl, metrics.New())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results := batchSvc.ProcessAll(ctx, locations, service.BatchOptions{
		Concurrency: *concurrency,
		Extract:     !*noExtract,
	})

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return fmt.Errorf("writing results: %w", err)
	}

	if *reportDir != "" {
		now := time.Now()
		if *xlsxPath == "" {
			*xlsxPath = filepath.Join(*reportDir, report.BuildFilename(*reportName, "xlsx", now))
		}
		if *csvPath == "" {
			*csvPath = filepath.Join(*reportDir, report.BuildFilename(*reportName, "csv", now))
		}
	}
	if *xlsxPath != "" {
		if err := report.WriteFile(*xlsxPath, results); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		zl.Info("report written", zap.String("path", *xlsxPath))
	}
	if *csvPath != "" {
		if err := report.WriteCSVFile(*csvPath, results); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		zl.Info("report written", zap.String("path", *csvPath))
	}

	zl.Info("batch finished",
		zap.Int("documents", len(results)),
		zap.Int("failed", countFailed(results)),
	)
	return nil
}

func needsS3(locations []string) bool {
	for _, loc := range locations {
		if storage.Scheme(loc) == s3loader.Scheme {
			return true
		}
	}
	return false
}

func countFailed(results []domain.BatchResult) int {
	n := 0
	for i := range results {
		if results[i].State == domain.StateFailed {
			n++
		}
	}
	return n
}
