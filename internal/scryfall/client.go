// Package scryfall fetches the set catalogue used to enrich set metadata.
package scryfall

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/ramonehamilton/mtga-ratings-sync/internal/version"
)

const (
	// APIBase is the base URL for the Scryfall API.
	APIBase = "https://api.scryfall.com"

	DefaultTimeout = 30 * time.Second

	rateLimitDelay = 100 * time.Millisecond // 10 req/sec
	maxRetries     = 3
	initialBackoff = 1 * time.Second
	maxBackoff     = 16 * time.Second
)

// Client represents a Scryfall API client with rate limiting.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	userAgent   string
}

// ClientOptions configures the Scryfall client.
type ClientOptions struct {
	// BaseURL overrides APIBase.
	BaseURL string

	// RateLimit controls request frequency (default: 10 req/second)
	RateLimit rate.Limit

	// Timeout for HTTP requests (default: 30 seconds)
	Timeout time.Duration

	// HTTPClient allows custom HTTP client
	HTTPClient *http.Client

	UserAgent string
}

// DefaultClientOptions returns the default options.
func DefaultClientOptions() ClientOptions {
	return ClientOptions{
		BaseURL:   APIBase,
		RateLimit: rate.Every(rateLimitDelay),
		Timeout:   DefaultTimeout,
		UserAgent: version.UserAgent(),
	}
}

// NewClient creates a new Scryfall API client.
func NewClient(options ClientOptions) *Client {
	defaults := DefaultClientOptions()
	if options.BaseURL == "" {
		options.BaseURL = defaults.BaseURL
	}
	if options.RateLimit == 0 {
		options.RateLimit = defaults.RateLimit
	}
	if options.Timeout == 0 {
		options.Timeout = defaults.Timeout
	}
	if options.UserAgent == "" {
		options.UserAgent = defaults.UserAgent
	}

	httpClient := options.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: options.Timeout}
	}

	return &Client{
		baseURL:     strings.TrimRight(options.BaseURL, "/"),
		httpClient:  httpClient,
		rateLimiter: rate.NewLimiter(options.RateLimit, 1),
		userAgent:   options.UserAgent,
	}
}

// GetSets retrieves a list of all sets.
func (c *Client) GetSets(ctx context.Context) (*SetList, error) {
	var sets SetList
	if err := c.doRequest(ctx, c.baseURL+"/sets", &sets); err != nil {
		return nil, fmt.Errorf("failed to get sets: %w", err)
	}
	if sets.Data == nil {
		return nil, &APIError{Type: ErrParseError, Message: "set list has no data array"}
	}
	return &sets, nil
}

// doRequest performs a GET with rate limiting. Only HTTP 429 is retried.
func (c *Client) doRequest(ctx context.Context, url string, result any) error {
	backoff := initialBackoff

	for attempt := 0; ; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return &APIError{Type: ErrRateLimited, Message: "rate limiter error", Err: err}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return &APIError{Type: ErrUnavailable, Message: "HTTP request failed", Err: err}
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			if readErr != nil {
				return &APIError{Type: ErrUnavailable, StatusCode: resp.StatusCode, Message: "failed to read response body", Err: readErr}
			}
			if err := json.Unmarshal(body, result); err != nil {
				return &APIError{Type: ErrParseError, StatusCode: resp.StatusCode, Message: "failed to parse JSON response", Err: err}
			}
			return nil

		case resp.StatusCode == http.StatusTooManyRequests && attempt < maxRetries:
			wait := backoff
			if d, err := time.ParseDuration(resp.Header.Get("Retry-After") + "s"); err == nil {
				wait = d
			}
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff = min(backoff*2, maxBackoff)

		default:
			message := fmt.Sprintf("unexpected status code: %d", resp.StatusCode)
			var eb errorBody
			if json.Unmarshal(body, &eb) == nil && eb.Details != "" {
				message += ": " + eb.Details
			}
			errType := ErrUnavailable
			if resp.StatusCode == http.StatusTooManyRequests {
				errType = ErrRateLimited
			}
			return &APIError{Type: errType, StatusCode: resp.StatusCode, Message: message}
		}
	}
}
