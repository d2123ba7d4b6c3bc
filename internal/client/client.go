package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"gridiron/ingestion/internal/metrics"

	"github.com/rs/zerolog/log"
)

// Query carries the filters for one upstream resource unit. Zero fields are
// not sent.
type Query struct {
	TeamID   int
	GameID   int
	LeagueID int
	Season   int
}

// Upstream fetches raw records for each resource type from one provider
type Upstream interface {
	Provider() string
	FetchTeams(ctx context.Context, q Query) ([]json.RawMessage, error)
	FetchPlayers(ctx context.Context, q Query) ([]json.RawMessage, error)
	FetchGames(ctx context.Context, q Query) ([]json.RawMessage, error)
	FetchGameStatistics(ctx context.Context, q Query) ([]json.RawMessage, error)
}

// Limiter gates every outbound call
type Limiter interface {
	Acquire(ctx context.Context) error
}

// HTTPDoer is the subset of *http.Client the client needs
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// StatusError is returned when a provider answers with a non-success status
type StatusError struct {
	Provider   string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s returned status %d: %s", e.Provider, e.Path, e.StatusCode, e.Body)
}

// Client is the shared HTTP core used by the provider clients. Calls are
// rate limited and never retried; a failure is reported to the caller.
type Client struct {
	provider   string
	baseURL    string
	headers    map[string]string
	httpClient HTTPDoer
	limiter    Limiter
}

// Config configures the shared HTTP core
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient HTTPDoer
}

func newClient(provider string, cfg Config, limiter Limiter, headers map[string]string) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}

	return &Client{
		provider:   provider,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		headers:    headers,
		httpClient: httpClient,
		limiter:    limiter,
	}
}

// Provider returns the provider name used in logs and metrics
func (c *Client) Provider() string {
	return c.provider
}

// get performs one rate-limited GET and returns the body and response headers
func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, http.Header, error) {
	if c.limiter != nil {
		if err := c.limiter.Acquire(ctx); err != nil {
			return nil, nil, err
		}
	}

	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "gridiron-ingestion/1.0")

	log.Debug().
		Str("provider", c.provider).
		Str("url", u).
		Msg("Making API request")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordUpstreamCall(c.provider, path, "network_error", time.Since(start).Seconds())
		return nil, nil, fmt.Errorf("%s request %s failed: %w", c.provider, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	metrics.RecordUpstreamCall(c.provider, path, strconv.Itoa(resp.StatusCode), time.Since(start).Seconds())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s response body: %w", c.provider, err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return nil, nil, &StatusError{
			Provider:   c.provider,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       truncate(body, 200),
		}
	}

	log.Debug().
		Str("provider", c.provider).
		Str("path", path).
		Int("status", resp.StatusCode).
		Int("size", len(body)).
		Msg("API request successful")

	return body, resp.Header, nil
}

// truncate returns a shortened string form of a body for error messages
func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}
