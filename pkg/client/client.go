// Package client provides the storefront HTTP page fetcher with retry,
// request pacing support, and error classification.
package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for page fetch operations.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_requests_total",
		Help: "Total storefront requests by endpoint and status",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_request_duration_seconds",
		Help:    "Storefront request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_errors_total",
		Help: "Total storefront errors by class",
	}, []string{"class"})
)

// Endpoint identifies one candidate product-listing API and how it is paged.
// Storefront endpoints disagree on whether they take a 1-based page number
// or a zero-based item offset; Offset selects the latter.
type Endpoint struct {
	// URL is the base URL of the listing API, without paging parameters.
	URL string

	// PageParam is the query parameter carrying the page cursor.
	// Defaults to "page" ("offset" when Offset is set).
	PageParam string

	// SizeParam is the query parameter carrying the page size. Defaults to "size".
	SizeParam string

	// Offset selects zero-based item-offset paging instead of 1-based page numbers.
	Offset bool
}

func (e Endpoint) pageParam() string {
	if e.PageParam != "" {
		return e.PageParam
	}
	if e.Offset {
		return "offset"
	}
	return "page"
}

func (e Endpoint) sizeParam() string {
	if e.SizeParam != "" {
		return e.SizeParam
	}
	return "size"
}

// cursorValue converts a 1-based page number into the wire value for this endpoint.
func (e Endpoint) cursorValue(page, pageSize int) string {
	if e.Offset {
		return strconv.Itoa((page - 1) * pageSize)
	}
	return strconv.Itoa(page)
}

// Config holds the fetcher configuration.
type Config struct {
	// UserAgent sent with every request.
	UserAgent string

	// Headers are additional request headers (cookies, referer, ...).
	Headers map[string]string

	// Params are additional query parameters sent with every request
	// (category/section identifiers and caller overrides).
	Params map[string]string

	// Timeout bounds each HTTP call. The storefront must not be able to
	// stall the run on a hung connection.
	Timeout time.Duration

	// Retry controls transient-failure retries.
	Retry RetryConfig
}

// DefaultConfig returns a safe default configuration with browser-like headers.
func DefaultConfig() Config {
	return Config{
		UserAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
			"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		Headers: map[string]string{
			"Accept": "application/json, text/plain, */*",
		},
		Timeout: 15 * time.Second,
		Retry:   DefaultRetryConfig(),
	}
}

// Client fetches single listing pages from a storefront API.
type Client struct {
	httpClient *http.Client
	config     Config
	logger     zerolog.Logger
}

// New creates a new page fetcher.
func New(cfg Config) (*Client, error) {
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive (got %v)", cfg.Timeout)
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = DefaultRetryConfig()
	}

	logger := log.With().Str("component", "fetcher").Logger()

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		config: cfg,
		logger: logger,
	}, nil
}

// FetchPage issues a single GET for one listing page and returns the raw body.
// page is 1-based; the endpoint's paging mode decides how it goes on the wire.
// Network errors, 5xx, and 429 are retried up to the configured bound; other
// 4xx are returned immediately as a *StatusError.
func (c *Client) FetchPage(ctx context.Context, ep Endpoint, page, pageSize int) ([]byte, error) {
	reqURL, err := c.buildURL(ep, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("build request URL: %w", err)
	}

	endpoint := ep.URL
	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	c.logger.Debug().
		Str("url", reqURL).
		Int("page", page).
		Msg("Fetching listing page")

	var body []byte

	retryErr := retryWithBackoff(ctx, c.logger, c.config.Retry, func() error {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if reqErr != nil {
			return reqErr
		}
		c.applyHeaders(req)

		resp, reqErr := c.httpClient.Do(req)
		if reqErr != nil {
			c.logger.Warn().Err(reqErr).Str("url", reqURL).Msg("HTTP request failed")
			errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			requestsTotal.WithLabelValues(endpoint, "network_error").Inc()
			return reqErr
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			class := classifyStatus(resp.StatusCode)
			errorsTotal.WithLabelValues(string(class)).Inc()
			requestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

			c.logger.Warn().
				Str("url", reqURL).
				Int("status", resp.StatusCode).
				Str("error_class", string(class)).
				Msg("Storefront request error")

			return &StatusError{
				StatusCode: resp.StatusCode,
				Class:      class,
				URL:        reqURL,
			}
		}

		body, reqErr = io.ReadAll(resp.Body)
		if reqErr != nil {
			errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			return reqErr
		}

		requestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()
		return nil
	})
	if retryErr != nil {
		return nil, retryErr
	}

	return body, nil
}

// buildURL merges the endpoint's existing query string with paging and
// configured parameters.
func (c *Client) buildURL(ep Endpoint, page, pageSize int) (string, error) {
	u, err := url.Parse(ep.URL)
	if err != nil {
		return "", err
	}

	q := u.Query()
	for key, value := range c.config.Params {
		q.Set(key, value)
	}
	q.Set(ep.sizeParam(), strconv.Itoa(pageSize))
	q.Set(ep.pageParam(), ep.cursorValue(page, pageSize))
	u.RawQuery = q.Encode()

	return u.String(), nil
}

func (c *Client) applyHeaders(req *http.Request) {
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}
	for key, value := range c.config.Headers {
		req.Header.Set(key, value)
	}
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}
