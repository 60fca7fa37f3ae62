// Package mtgahelper talks to the MTGA Helper rating-hosting API: set list,
// account session and the user's custom draft ratings.
package mtgahelper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"
)

const (
	// APIBase is the base URL for the MTGA Helper API.
	APIBase = "https://mtgahelper.com"

	DefaultTimeout = 30 * time.Second

	// DefaultTripThreshold is the number of consecutive failures that opens the breaker.
	DefaultTripThreshold = 10

	breakerName = "mtgahelper-api"
)

// DefaultRateLimit allows a short burst of template and upload calls.
var DefaultRateLimit = rate.Every(100 * time.Millisecond)

// Client is an MTGA Helper API client. The session cookie set by SignIn lives
// in the client's cookie jar and authenticates the /api/User calls.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[[]byte]
	logger     *slog.Logger
}

// ClientOptions configures the MTGA Helper client.
type ClientOptions struct {
	// BaseURL overrides APIBase.
	BaseURL string

	// RateLimit controls request frequency (default: 10 req/second)
	RateLimit rate.Limit

	// Timeout for HTTP requests (default: 30 seconds)
	Timeout time.Duration

	// TripThreshold is the consecutive failure count that opens the circuit
	// breaker (default: 10). The breaker half-opens after BreakerTimeout.
	TripThreshold  uint32
	BreakerTimeout time.Duration

	// OnStateChange is called on every breaker transition.
	OnStateChange func(name string, from, to gobreaker.State)

	Logger *slog.Logger
}

// DefaultClientOptions returns the default options.
func DefaultClientOptions() ClientOptions {
	return ClientOptions{
		BaseURL:        APIBase,
		RateLimit:      DefaultRateLimit,
		Timeout:        DefaultTimeout,
		TripThreshold:  DefaultTripThreshold,
		BreakerTimeout: time.Minute,
	}
}

// NewClient creates a new MTGA Helper API client with an empty session.
func NewClient(options ClientOptions) (*Client, error) {
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
	if options.TripThreshold == 0 {
		options.TripThreshold = defaults.TripThreshold
	}
	if options.BreakerTimeout == 0 {
		options.BreakerTimeout = defaults.BreakerTimeout
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	logger := options.Logger.With("component", "mtgahelper")
	threshold := options.TripThreshold
	onStateChange := options.OnStateChange

	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Timeout:     options.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state transition", "from", from.String(), "to", to.String())
			if onStateChange != nil {
				onStateChange(name, from, to)
			}
		},
		// 4xx responses do not count toward tripping.
		IsSuccessful: func(err error) bool {
			var apiErr *APIError
			if errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
				return true
			}
			return err == nil
		},
	})

	return &Client{
		baseURL: strings.TrimRight(options.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: options.Timeout,
			Jar:     jar,
		},
		limiter: rate.NewLimiter(options.RateLimit, 1),
		breaker: breaker,
		logger:  logger,
	}, nil
}

// GetSets fetches the set list. A missing sets array is a parse error; an
// empty one is returned as is.
func (c *Client) GetSets(ctx context.Context) (*SetsResponse, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/Misc/Sets", nil, nil)
	if err != nil {
		return nil, err
	}

	var resp SetsResponse
	if err := decode(body, &resp); err != nil {
		return nil, err
	}
	if resp.Sets == nil {
		return nil, &APIError{Type: ErrParseError, Message: "response has no sets array"}
	}
	return &resp, nil
}

// SignIn starts a session.
func (c *Client) SignIn(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return ErrMissingCredentials
	}

	query := url.Values{}
	query.Set("email", email)
	query.Set("password", password)

	body, err := c.do(ctx, http.MethodGet, "/api/Account/Signin", query, nil)
	if err != nil {
		return err
	}

	var resp SignInResponse
	if err := decode(body, &resp); err != nil {
		return err
	}
	if !resp.IsAuthenticated {
		return ErrNotAuthenticated
	}
	return nil
}

// SignOut ends the session.
func (c *Client) SignOut(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, "/api/Account/Signout", nil, nil)
	return err
}

// GetCustomRatings fetches the user's rating template.
func (c *Client) GetCustomRatings(ctx context.Context) ([]CustomDraftRating, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/User/customDraftRatingsForDisplay", nil, nil)
	if err != nil {
		return nil, err
	}

	var ratings []CustomDraftRating
	if err := decode(body, &ratings); err != nil {
		return nil, err
	}
	return ratings, nil
}

// PutCustomRating uploads the rating and note of one card.
func (c *Client) PutCustomRating(ctx context.Context, update CustomDraftRatingUpdate) error {
	payload, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("failed to encode rating %d: %w", update.IDArena, err)
	}
	_, err = c.do(ctx, http.MethodPut, "/api/User/CustomDraftRating", nil, payload)
	return err
}

// BreakerState returns the current circuit breaker state.
func (c *Client) BreakerState() gobreaker.State {
	return c.breaker.State()
}

func decode(body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return &APIError{Type: ErrParseError, Message: "failed to parse response", Err: err}
	}
	return nil
}

// do runs one request through the rate limiter and the circuit breaker.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload []byte) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &APIError{Type: ErrUnavailable, Message: "rate limiter error", Err: err}
	}

	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.roundTrip(ctx, method, fullURL, payload)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, &APIError{Type: ErrCircuitOpen, Message: "request rejected by circuit breaker", Err: err}
	}
	return body, err
}

func (c *Client) roundTrip(ctx context.Context, method, fullURL string, payload []byte) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reqBody)
	if err != nil {
		return nil, &APIError{Type: ErrInvalidParam, Message: "failed to create request", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &APIError{Type: ErrUnavailable, Message: "failed to execute request", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{Type: ErrUnavailable, StatusCode: resp.StatusCode, Message: "failed to read response body", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{
			Type:       ErrUnavailable,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("unexpected status code: %d", resp.StatusCode),
		}
	}
	return body, nil
}
