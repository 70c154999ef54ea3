// Package collector drives the sequential fetch/normalize/accumulate loop:
// probe candidate endpoints, fetch pages one at a time with a pacing delay,
// deduplicate by identifier, and stop when the target count is reached or
// the source is exhausted.
package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hwanjo/gsshop-catalog-client/pkg/client"
	"github.com/hwanjo/gsshop-catalog-client/pkg/normalize"
)

// Prometheus metrics for collection runs.
var (
	pagesFetchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_pages_fetched_total",
		Help: "Total listing pages fetched",
	})

	productsCollectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_products_collected_total",
		Help: "Total unique products collected",
	})

	entriesSkippedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_entries_skipped_total",
		Help: "Total payload entries skipped for lacking an identifier",
	})
)

// PageError reports an unrecoverable fetch failure for one page.
type PageError struct {
	Page int
	Err  error
}

// Error implements the error interface.
func (e *PageError) Error() string {
	return fmt.Sprintf("page %d: %v", e.Page, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *PageError) Unwrap() error {
	return e.Err
}

// Config holds the collection parameters.
type Config struct {
	// TargetCount is the number of unique products to collect.
	TargetCount int

	// PageSize is the number of products requested per page.
	PageSize int

	// Delay is the unconditional pause between consecutive page requests.
	Delay time.Duration
}

// DefaultConfig mirrors the storefront category UI: 60 items per batch,
// 1000 records, one request per second.
func DefaultConfig() Config {
	return Config{
		TargetCount: 1000,
		PageSize:    60,
		Delay:       1 * time.Second,
	}
}

// Collector runs the accumulate loop against a fetcher.
type Collector struct {
	fetcher PageFetcher
	config  Config
	logger  zerolog.Logger
}

// PageFetcher is the fetching dependency of the collector. *client.Client
// implements it.
type PageFetcher interface {
	FetchPage(ctx context.Context, ep client.Endpoint, page, pageSize int) ([]byte, error)
}

// New creates a collector.
func New(fetcher PageFetcher, cfg Config) (*Collector, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	if cfg.PageSize <= 0 {
		return nil, fmt.Errorf("page size must be positive (got %d)", cfg.PageSize)
	}
	if cfg.TargetCount < 0 {
		return nil, fmt.Errorf("target count must not be negative (got %d)", cfg.TargetCount)
	}

	return &Collector{
		fetcher: fetcher,
		config:  cfg,
		logger:  log.With().Str("component", "collector").Logger(),
	}, nil
}

// Run collects unique products from ep until the target count is reached or
// the source is exhausted. The returned state is never nil: on failure it
// holds the partial collection gathered before the failing page, and the
// error carries the page index via *PageError.
//
// Pages are fetched strictly one at a time; the cursor only advances, and a
// page is never re-fetched. At least one page is always fetched, so a target
// of 0 still issues exactly one request.
func (c *Collector) Run(ctx context.Context, ep client.Endpoint) (*FetchState, error) {
	state := NewFetchState(ep)

	for state.Status == StatusRunning {
		body, err := c.fetcher.FetchPage(ctx, ep, state.Page, c.config.PageSize)
		if err != nil {
			state.Status = StatusFailed
			c.logger.Error().
				Err(err).
				Int("page", state.Page).
				Int("collected", state.Count()).
				Msg("Page fetch failed, surfacing partial results")
			return state, &PageError{Page: state.Page, Err: err}
		}
		state.PagesFetched++
		pagesFetchedTotal.Inc()

		result := normalize.Extract(body)
		state.Skipped += result.Skipped
		entriesSkippedTotal.Add(float64(result.Skipped))

		added := state.Merge(result.Products)
		productsCollectedTotal.Add(float64(added))

		c.logger.Info().
			Int("page", state.Page).
			Int("new", added).
			Int("skipped", result.Skipped).
			Int("collected", state.Count()).
			Int("target", c.config.TargetCount).
			Msg("Page merged")

		switch {
		case state.Count() >= c.config.TargetCount:
			state.Status = StatusTargetReached
		case result.Empty || added == 0:
			// The source has fewer items than requested. Valid stop.
			state.Status = StatusExhausted
		default:
			state.Page++
			if err := c.pace(ctx); err != nil {
				state.Status = StatusFailed
				return state, &PageError{Page: state.Page, Err: err}
			}
		}
	}

	return state, nil
}

// pace applies the inter-request delay. The pause is a plain synchronous
// wait; only context cancellation cuts it short.
func (c *Collector) pace(ctx context.Context) error {
	if c.config.Delay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(c.config.Delay):
		return nil
	}
}
