// Package seventeenlands downloads per-card draft statistics from 17Lands.
package seventeenlands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/ramonehamilton/mtga-ratings-sync/internal/version"
)

const (
	// APIBase is the base URL for 17Lands API
	APIBase = "https://www.17lands.com"

	// Request timeout
	DefaultTimeout = 30 * time.Second
)

// Conservative rate limit: 1 request per second
var DefaultRateLimit = rate.Every(1 * time.Second)

// Client provides access to 17Lands draft statistics.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// ClientOptions configures the 17Lands client.
type ClientOptions struct {
	// BaseURL overrides APIBase
	BaseURL string

	// RateLimit controls request frequency (default: 1 req/second)
	RateLimit rate.Limit

	// Timeout for HTTP requests (default: 30 seconds)
	Timeout time.Duration

	// HTTPClient allows custom HTTP client
	HTTPClient *http.Client
}

// DefaultClientOptions returns conservative default options.
func DefaultClientOptions() ClientOptions {
	return ClientOptions{
		BaseURL:   APIBase,
		RateLimit: DefaultRateLimit,
		Timeout:   DefaultTimeout,
	}
}

// NewClient creates a new 17Lands API client with conservative rate limiting.
func NewClient(options ClientOptions) *Client {
	if options.BaseURL == "" {
		options.BaseURL = APIBase
	}
	if options.RateLimit == 0 {
		options.RateLimit = DefaultRateLimit
	}
	if options.Timeout == 0 {
		options.Timeout = DefaultTimeout
	}

	httpClient := options.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: options.Timeout,
		}
	}

	return &Client{
		baseURL:    strings.TrimRight(options.BaseURL, "/"),
		httpClient: httpClient,
		limiter:    rate.NewLimiter(options.RateLimit, 1),
	}
}

// GetCardRatings fetches card performance statistics for a set.
func (c *Client) GetCardRatings(ctx context.Context, params QueryParams) ([]CardRating, error) {
	if params.Expansion == "" {
		return nil, &APIError{
			Type:    ErrInvalidParams,
			Message: "expansion is required",
		}
	}
	if params.Format == "" {
		return nil, &APIError{
			Type:    ErrInvalidParams,
			Message: "format is required",
		}
	}

	queryParams := url.Values{}
	queryParams.Set("expansion", params.Expansion)
	queryParams.Set("format", params.Format)
	if params.StartDate != "" {
		queryParams.Set("start_date", params.StartDate)
	}
	if params.EndDate != "" {
		queryParams.Set("end_date", params.EndDate)
	}

	fullURL := c.baseURL + "/card_ratings/data?" + queryParams.Encode()

	body, err := c.doRequest(ctx, fullURL)
	if err != nil {
		return nil, err
	}

	var ratings []CardRating
	if err := json.Unmarshal(body, &ratings); err != nil {
		return nil, &APIError{
			Type:    ErrParseError,
			Message: "failed to parse card ratings response",
			Err:     err,
		}
	}

	return ratings, nil
}

// doRequest performs an HTTP request with rate limiting.
func (c *Client) doRequest(ctx context.Context, url string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &APIError{
			Type:    ErrRateLimited,
			Message: "rate limiter error",
			Err:     err,
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &APIError{
			Type:    ErrInvalidParams,
			Message: "failed to create request",
			Err:     err,
		}
	}
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &APIError{
			Type:    ErrUnavailable,
			Message: "failed to execute request",
			Err:     err,
		}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &APIError{
			Type:       ErrUnavailable,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("unexpected status code: %d, body: %s", resp.StatusCode, string(body)),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{
			Type:    ErrUnavailable,
			Message: "failed to read response body",
			Err:     err,
		}
	}

	return body, nil
}
