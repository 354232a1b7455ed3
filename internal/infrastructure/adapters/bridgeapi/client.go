package bridgeapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/rail-service/bridge_service/internal/domain/entities"
	apperrors "github.com/rail-service/bridge_service/internal/domain/errors"
	"github.com/rail-service/bridge_service/pkg/metrics"
	"github.com/rail-service/bridge_service/pkg/retry"
	"github.com/rail-service/bridge_service/pkg/tracing"
)

// Config represents bridge API client configuration
type Config struct {
	BaseURL           string
	ClientID          string
	ClientVersion     string
	Timeout           time.Duration
	MaxRetries        int
	RequestsPerSecond int
}

// Client is a bridge API token client
type Client struct {
	config         Config
	httpClient     *http.Client
	circuitBreaker *gobreaker.CircuitBreaker
	rateLimiter    *rate.Limiter
	retrier        *retry.Retrier
	metrics        *metrics.Metrics
	logger         *zap.Logger
}

type Option func(*Client)

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRetryPolicy replaces the default retry policy, keeping the client's error classification
func WithRetryPolicy(p retry.Policy) Option {
	return func(c *Client) {
		p.RetryableFunc = isRetryable
		c.retrier = retry.NewRetrier(p, c.logger)
	}
}

// NewClient creates a new bridge API client
func NewClient(config Config, logger *zap.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.RequestsPerSecond <= 0 {
		config.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = defaultMaxRetries
	}

	cbSettings := gobreaker.Settings{
		Name:        "BridgeAPI",
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		// client errors are the caller's fault, not the upstream's
		IsSuccessful: func(err error) bool {
			return err == nil || !isRetryable(err)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("Bridge API circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}

	policy := retry.DefaultPolicy()
	policy.MaxRetries = config.MaxRetries
	policy.RetryableFunc = isRetryable

	c := &Client{
		config:         config,
		httpClient:     &http.Client{Timeout: config.Timeout},
		circuitBreaker: gobreaker.NewCircuitBreaker(cbSettings),
		rateLimiter:    rate.NewLimiter(rate.Limit(config.RequestsPerSecond), config.RequestsPerSecond),
		logger:         logger,
	}
	c.retrier = retry.NewRetrier(policy, logger)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// URL returns the absolute URL of an API path
func (c *Client) URL(path string) string {
	return c.config.BaseURL + path
}

// FetchPopularTokens returns the popular tokens of the requested chains.
// Entries that fail schema validation are dropped.
func (c *Client) FetchPopularTokens(ctx context.Context, req PopularTokensRequest) ([]entities.Asset, error) {
	var raw []jsoniter.RawMessage
	if err := c.doRequest(ctx, PopularTokensPath, req, &raw); err != nil {
		return nil, fmt.Errorf("fetch popular tokens failed: %w", err)
	}
	return ValidateAssets(raw, c.logger), nil
}

// FetchTokensBySearchQuery returns one page of search results
func (c *Client) FetchTokensBySearchQuery(ctx context.Context, req SearchTokensRequest) (*entities.TokenSearchResult, error) {
	var resp searchResponse
	if err := c.doRequest(ctx, SearchTokensPath, req, &resp); err != nil {
		return nil, fmt.Errorf("search tokens failed: %w", err)
	}
	return &entities.TokenSearchResult{
		Data:     ValidateAssets(resp.Data, c.logger),
		PageInfo: resp.PageInfo,
	}, nil
}

func (c *Client) doRequest(ctx context.Context, path string, body, response interface{}) error {
	ctx, span := tracing.StartSpan(ctx, "bridgeapi.request", attribute.String("bridgeapi.path", path))

	payload, err := json.Marshal(body)
	if err != nil {
		err = fmt.Errorf("encode request: %w", err)
		tracing.EndSpan(span, err)
		return err
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		err = fmt.Errorf("rate limiter: %w", err)
		tracing.EndSpan(span, err)
		return err
	}

	_, err = c.circuitBreaker.Execute(func() (interface{}, error) {
		return nil, c.retrier.Do(ctx, func(ctx context.Context) error {
			return c.doOnce(ctx, path, payload, response)
		})
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = apperrors.ServiceUnavailableError("bridge API", err)
	}
	tracing.EndSpan(span, err)
	return err
}

func (c *Client) doOnce(ctx context.Context, path string, payload []byte, response interface{}) error {
	start := time.Now()
	status := 0
	defer func() {
		c.metrics.ObserveUpstream(path, status, time.Since(start))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL(path), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(HeaderClientID, c.config.ClientID)
	if c.config.ClientVersion != "" {
		req.Header.Set(HeaderClientVersion, c.config.ClientVersion)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	status = resp.StatusCode

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errResp := &ErrorResponse{}
		if json.Unmarshal(body, errResp) != nil || errResp.Message == "" {
			errResp.Message = truncate(string(body), 256)
		}
		errResp.StatusCode = resp.StatusCode
		c.logger.Debug("Bridge API returned an error",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("message", errResp.Message))
		return errResp
	}

	if err := json.Unmarshal(body, response); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

func isRetryable(err error) bool {
	var apiErr *ErrorResponse
	if errors.As(err, &apiErr) {
		return apiErr.IsRetryable()
	}
	if errors.Is(err, ErrMalformedResponse) {
		return false
	}
	return apperrors.ShouldRetry(err)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
