package visionclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"binanceDataCollector/internal/domain"
	"binanceDataCollector/internal/ports"

	"github.com/cenkalti/backoff/v4"
)

const (
	// Binance publishes its historical data bucket through this S3 endpoint.
	defaultBaseURL = "https://s3-ap-northeast-1.amazonaws.com/data.binance.vision"

	defaultTimeout      = 60 * time.Second
	defaultMaxRetries   = 3
	defaultRetryDelay   = 2 * time.Second
	defaultRequestPause = 100 * time.Millisecond
)

// Client implements the ports.ArchiveSource interface against the Binance
// Vision public bucket.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	logger       ports.Logger
	maxRetries   int
	retryDelay   time.Duration
	requestPause time.Duration
}

// Config holds configuration specific to the Binance Vision adapter.
type Config struct {
	BaseURL      string
	Timeout      time.Duration // per-request timeout
	MaxRetries   int           // total fetch attempts per archive
	RetryDelay   time.Duration // fixed delay between attempts
	RequestPause time.Duration // mandatory pause after every attempt
	Logger       ports.Logger
}

// New creates a new Binance Vision client adapter.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Binance Vision client")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = defaultRetryDelay
	}
	requestPause := cfg.RequestPause
	if requestPause < 0 {
		requestPause = defaultRequestPause
	}

	return &Client{
		httpClient:   &http.Client{Timeout: timeout},
		baseURL:      baseURL,
		logger:       cfg.Logger,
		maxRetries:   maxRetries,
		retryDelay:   retryDelay,
		requestPause: requestPause,
	}, nil
}

// prefix returns the bucket key prefix holding the monthly klines of one
// (symbol, interval) pair.
func prefix(symbol, interval string) string {
	return fmt.Sprintf("data/spot/monthly/klines/%s/%s/", symbol, interval)
}

// archiveURL builds the download URL for one archive ref.
func (c *Client) archiveURL(ref domain.ArchiveRef) string {
	return fmt.Sprintf("%s/%s%s", c.baseURL, prefix(ref.Symbol, ref.Interval), ref.FileName())
}

// pause enforces the fixed self-imposed rate limit after a request.
func (c *Client) pause() {
	if c.requestPause > 0 {
		time.Sleep(c.requestPause)
	}
}

// translateError maps transport failures onto the standard ports errors.
func translateError(err error, operation string) error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w: %w", operation, ports.ErrTimeout, err)
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("%s: %w: %w", operation, ports.ErrContextCanceled, err)
	case errors.As(err, &netErr) && netErr.Timeout():
		return fmt.Errorf("%s: %w: %w", operation, ports.ErrTimeout, err)
	default:
		return fmt.Errorf("%s: %w: %w", operation, ports.ErrConnectionFailed, err)
	}
}

// Fetch retrieves one archive by ref. A 404 is an expected miss and returns
// an error wrapping ports.ErrNotFound after a single attempt; other failures
// are retried with a fixed delay up to the configured attempt budget.
func (c *Client) Fetch(ctx context.Context, ref domain.ArchiveRef) ([]byte, error) {
	op := "Fetch " + ref.FileName()
	url := c.archiveURL(ref)

	var body []byte
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("%s: building request: %w", op, err))
		}

		resp, err := c.httpClient.Do(req)
		c.pause()
		if err != nil {
			return translateError(err, op)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			// Expected for months with no published data. Terminal, no retry.
			return backoff.Permanent(fmt.Errorf("%s: %w", op, ports.ErrNotFound))
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("%s: unexpected status %s: %w", op, resp.Status, ports.ErrSourceUnavailable)
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return translateError(err, op)
		}
		return nil
	}

	policy := backoff.WithMaxRetries(backoff.NewConstantBackOff(c.retryDelay), uint64(c.maxRetries-1))
	if err := backoff.Retry(operation, backoff.WithContext(policy, ctx)); err != nil {
		if !errors.Is(err, ports.ErrNotFound) {
			c.logger.Warn(ctx, "Archive fetch failed after retries", map[string]interface{}{
				"archive":  ref.FileName(),
				"attempts": c.maxRetries,
				"error":    err.Error(),
			})
		}
		return nil, err
	}

	c.logger.Debug(ctx, "Archive fetched", map[string]interface{}{
		"archive": ref.FileName(),
		"bytes":   len(body),
	})
	return body, nil
}
