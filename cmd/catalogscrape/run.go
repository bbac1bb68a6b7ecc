package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/aluiziolira/go-scrape-catalog/config"
	"github.com/aluiziolira/go-scrape-catalog/creators"
	"github.com/aluiziolira/go-scrape-catalog/models"
	"github.com/aluiziolira/go-scrape-catalog/pipeline"
	"github.com/aluiziolira/go-scrape-catalog/scraper"
	"github.com/aluiziolira/go-scrape-catalog/sources"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// runSources scrapes each named source in turn. A source that fails is
// reported and the remaining sources still run; the first failure is returned.
func runSources(ctx context.Context, cfg *config.Config, names []string, outputFor func(string) string) error {
	metrics := scraper.NewMetrics()
	fetcher, err := scraper.NewFetcher(cfg, metrics)
	if err != nil {
		return fmt.Errorf("initialise fetcher: %w", err)
	}

	index, closeIndex, err := creators.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open creator index: %w", err)
	}
	defer closeIndex()

	checker, err := creators.NewChecker(index, cfg.CreatorCache)
	if err != nil {
		return fmt.Errorf("creator checker: %w", err)
	}

	stopMetrics := serveMetrics(cfg.MetricsAddr, metrics)
	defer stopMetrics()

	deps := sources.Deps{Fetcher: fetcher, Creators: checker}
	runner := scraper.NewRunner(cfg, fetcher)

	var firstErr error
	for _, name := range names {
		if ctx.Err() != nil {
			break
		}
		output := outputFor(name)
		start := time.Now()
		result, err := scrapeSource(ctx, cfg, runner, deps, name, output)
		if result != nil {
			printSummary(result, time.Since(start), output)
		}
		if err != nil {
			slog.Error("source failed",
				slog.String("source", name),
				slog.Any("error", err),
			)
			if firstErr == nil {
				firstErr = fmt.Errorf("%s: %w", name, err)
			}
		}
	}
	if firstErr == nil {
		firstErr = ctx.Err()
	}
	return firstErr
}

func scrapeSource(ctx context.Context, cfg *config.Config, runner *scraper.Runner, deps sources.Deps, name, output string) (*models.RunResult, error) {
	src, err := sources.New(name, deps, sources.WithMaxPages(cfg.MaxPages))
	if err != nil {
		return nil, err
	}

	writer, err := pipeline.NewWriter(cfg.OutputFormat, output, src.Columns())
	if err != nil {
		return nil, fmt.Errorf("create writer: %w", err)
	}

	p := pipeline.NewPipeline(writer, cfg)
	p.Start()
	if cfg.Verbose {
		p.StartMetricsReporting(10 * time.Second)
	}

	slog.Info("starting scrape",
		slog.String("source", name),
		slog.String("output", output),
		slog.String("format", cfg.OutputFormat),
	)

	result, runErr := runner.Run(ctx, src, p)
	closeErr := p.Close()
	writerErr := writer.Close()
	if result != nil {
		result.Written = p.Written()
	}

	if result == nil {
		for _, path := range pipeline.OutputPaths(cfg.OutputFormat, output) {
			if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
				slog.Warn("remove partial output", slog.String("path", path), slog.Any("error", err))
			}
		}
		return nil, runErr
	}

	if err := errors.Join(runErr, closeErr, writerErr); err != nil {
		return result, err
	}
	if err := writer.Validate(); err != nil {
		return result, fmt.Errorf("output validation failed: %w", err)
	}
	return result, nil
}

func serveMetrics(addr string, metrics *scraper.Metrics) func() {
	if addr == "" {
		return func() {}
	}
	srv := &http.Server{
		Addr:    addr,
		Handler: promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}),
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", slog.Any("error", err))
		}
	}()
	slog.Info("metrics server enabled", slog.String("addr", addr))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", err))
		}
	}
}

func printSummary(result *models.RunResult, duration time.Duration, output string) {
	separator := strings.Repeat("-", 50)
	fmt.Println(separator)
	fmt.Printf("Scrape complete: %s\n", result.Source)
	fmt.Printf("  Rows written:  %d of %d discovered\n", result.Written, result.Discovered)
	fmt.Printf("  Failed items:  %d\n", result.Failed)
	if len(result.ErrorsByType) > 0 {
		fmt.Printf("  Error types:   %v\n", result.ErrorsByType)
	}
	fmt.Printf("  Requests:      %d\n", result.RequestCount)
	fmt.Printf("  Retries:       %d\n", result.RetryCount)
	fmt.Printf("  Fetch errors:  %d\n", result.FetchErrors)
	if result.PaginationCapped {
		fmt.Println("  Pagination:    stopped at the page bound")
	}
	fmt.Printf("  Duration:      %v\n", duration.Round(time.Millisecond))
	fmt.Printf("  Output file:   %s\n", output)
	fmt.Println(separator)
}
