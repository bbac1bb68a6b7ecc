package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aluiziolira/go-scrape-catalog/config"
	"github.com/aluiziolira/go-scrape-catalog/models"
	"github.com/aluiziolira/go-scrape-catalog/pipeline"
	"golang.org/x/sync/errgroup"
)

// Source is the adapter surface a run drives.
type Source interface {
	Name() string
	DiscoverItemURLs(ctx context.Context) ([]string, error)
	ParseDetailPage(ctx context.Context, url string) (*models.Record, error)
}

type paginationCapper interface {
	PaginationCapped() bool
}

// Runner executes one scrape run per source: discover item URLs, parse each
// detail page, and commit records to the pipeline in discovery order.
type Runner struct {
	cfg     *config.Config
	fetcher *Fetcher
	Metrics *Metrics

	mu           sync.Mutex
	failedURLs   []string
	errorsByType map[string]int
}

// NewRunner builds a runner. fetcher is only consulted for request and
// retry counts and may be nil.
func NewRunner(cfg *config.Config, fetcher *Fetcher) *Runner {
	r := &Runner{cfg: cfg, fetcher: fetcher}
	if fetcher != nil {
		r.Metrics = fetcher.Metrics
	}
	return r
}

// itemSlot holds one URL's outcome until every earlier URL has committed.
type itemSlot struct {
	record *models.Record
	done   bool
}

// Run scrapes src into p. A discovery failure is returned; per-item failures
// are logged, counted and skipped.
func (r *Runner) Run(ctx context.Context, src Source, p *pipeline.Pipeline) (*models.RunResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	r.reset()
	start := time.Now()
	name := src.Name()
	var baseRequests, baseRetries, baseErrors int
	if r.fetcher != nil {
		baseRequests, baseRetries, baseErrors = r.fetcher.RequestCount(), r.fetcher.RetryCount(), r.fetcher.ErrorCount()
	}

	urls, err := src.DiscoverItemURLs(ctx)
	if err != nil {
		return nil, err
	}
	r.Metrics.AddDiscovered(name, len(urls))
	slog.Info("starting detail pages",
		slog.String("source", name),
		slog.Int("urls", len(urls)),
		slog.Int("concurrency", r.concurrency()),
	)

	var (
		commitMu sync.Mutex
		slots    = make([]itemSlot, len(urls))
		next     int
		written  int
		sinkErr  error
	)
	commit := func(i int, record *models.Record) {
		commitMu.Lock()
		defer commitMu.Unlock()
		slots[i] = itemSlot{record: record, done: true}
		for next < len(slots) && slots[next].done {
			if rec := slots[next].record; rec != nil && sinkErr == nil {
				if err := p.Process(rec); err != nil {
					sinkErr = err
				} else {
					written++
				}
			}
			slots[next].record = nil
			next++
		}
	}

	var g errgroup.Group
	g.SetLimit(r.concurrency())
	for i, u := range urls {
		if ctx.Err() != nil {
			break
		}
		i, u := i, u
		g.Go(func() error {
			if ctx.Err() != nil {
				commit(i, nil)
				return nil
			}
			slog.Info(fmt.Sprintf("[%d/%d] %s", i+1, len(urls), u), slog.String("source", name))

			rec, err := r.parse(ctx, src, u)
			if err != nil {
				r.recordFailure(name, u, err)
				commit(i, nil)
				return nil
			}
			r.Metrics.IncItems(name)
			commit(i, rec)
			return nil
		})
	}
	_ = g.Wait()

	result := &models.RunResult{
		Source:       name,
		StartTime:    start,
		EndTime:      time.Now(),
		Discovered:   len(urls),
		Written:      written,
		FailedURLs:   r.snapshotFailedURLs(),
		ErrorsByType: r.snapshotErrors(),
	}
	result.Failed = len(result.FailedURLs)
	if r.fetcher != nil {
		result.RequestCount = r.fetcher.RequestCount() - baseRequests
		result.RetryCount = r.fetcher.RetryCount() - baseRetries
		result.FetchErrors = r.fetcher.ErrorCount() - baseErrors
	}
	if c, ok := src.(paginationCapper); ok {
		result.PaginationCapped = c.PaginationCapped()
	}

	if sinkErr != nil {
		return result, fmt.Errorf("write records: %w", sinkErr)
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

// parse runs one detail page, turning a panic into an ErrParse.
func (r *Runner) parse(ctx context.Context, src Source, url string) (rec *models.Record, err error) {
	defer func() {
		if v := recover(); v != nil {
			rec, err = nil, ErrParse{Err: fmt.Errorf("panic: %v", v)}
		}
	}()
	rec, err = src.ParseDetailPage(ctx, url)
	if err == nil && rec == nil {
		err = ErrParse{Err: fmt.Errorf("no record for %s", url)}
	}
	return rec, err
}

func (r *Runner) recordFailure(source, url string, err error) {
	category := errorTypeLabel(err)

	r.mu.Lock()
	r.errorsByType[category]++
	r.failedURLs = append(r.failedURLs, url)
	r.mu.Unlock()

	r.Metrics.IncItemFailure(source, category)
	slog.Error("item failed, skipping",
		slog.String("source", source),
		slog.String("url", url),
		slog.String("category", category),
		slog.Any("error", err),
	)
}

func (r *Runner) concurrency() int {
	if r.cfg == nil || r.cfg.Concurrency < 1 {
		return 1
	}
	return r.cfg.Concurrency
}

func (r *Runner) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failedURLs = nil
	r.errorsByType = make(map[string]int)
}

func (r *Runner) snapshotFailedURLs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.failedURLs))
	copy(out, r.failedURLs)
	return out
}

func (r *Runner) snapshotErrors() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]int, len(r.errorsByType))
	for k, v := range r.errorsByType {
		out[k] = v
	}
	return out
}
