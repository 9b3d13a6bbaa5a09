// Package ingestion fetches official draw results and stores them.
package ingestion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"lotofacil-lab/internal/domain"
	"lotofacil-lab/internal/observability"
)

const (
	// DefaultBaseURL is the official lotofacil results endpoint.
	DefaultBaseURL = "https://servicebus2.caixa.gov.br/portaldeloterias/api/lotofacil/"

	DefaultTimeout     = 30 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultBackoffMult = 2.0
)

// ErrDrawNotPublished is returned when the API has no result for a draw id.
var ErrDrawNotPublished = errors.New("draw not published")

// ResultsClient is the subset of the results API used by the syncer.
type ResultsClient interface {
	// Latest returns the newest published draw id.
	Latest(ctx context.Context) (int64, error)
	// Fetch returns one published draw.
	Fetch(ctx context.Context, id int64) (domain.Draw, error)
}

// HTTPClient implements ResultsClient over HTTP.
type HTTPClient struct {
	baseURL     string
	client      *http.Client
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
}

// ClientOption configures HTTPClient.
type ClientOption func(*HTTPClient)

// WithTimeout sets the HTTP timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets the maximum number of retries.
func WithMaxRetries(n int) ClientOption {
	return func(c *HTTPClient) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets the initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.retryDelay = d
	}
}

// WithMaxDelay caps the backoff delay.
func WithMaxDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.maxDelay = d
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.client = hc
	}
}

// NewHTTPClient creates a results API client. An empty baseURL uses DefaultBaseURL.
func NewHTTPClient(baseURL string, opts ...ClientOption) *HTTPClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	c := &HTTPClient{
		baseURL:     baseURL,
		client:      &http.Client{Timeout: DefaultTimeout},
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// resultPayload mirrors the fields we read from the API response.
type resultPayload struct {
	Numero       int64    `json:"numero"`
	ListaDezenas []string `json:"listaDezenas"`
}

// Latest returns the newest published draw id.
func (c *HTTPClient) Latest(ctx context.Context) (int64, error) {
	var p resultPayload
	if err := c.get(ctx, c.baseURL, &p); err != nil {
		return 0, fmt.Errorf("fetch latest: %w", err)
	}
	if p.Numero <= 0 {
		return 0, fmt.Errorf("fetch latest: invalid draw id %d", p.Numero)
	}
	return p.Numero, nil
}

// Fetch returns one published draw with validated numbers.
func (c *HTTPClient) Fetch(ctx context.Context, id int64) (domain.Draw, error) {
	var p resultPayload
	if err := c.get(ctx, c.baseURL+strconv.FormatInt(id, 10), &p); err != nil {
		return domain.Draw{}, fmt.Errorf("fetch draw %d: %w", id, err)
	}
	return p.toDraw(id)
}

func (p resultPayload) toDraw(requested int64) (domain.Draw, error) {
	if p.Numero != requested {
		return domain.Draw{}, fmt.Errorf("fetch draw %d: response carries draw %d", requested, p.Numero)
	}
	numbers := make([]int, 0, len(p.ListaDezenas))
	for _, s := range p.ListaDezenas {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return domain.Draw{}, fmt.Errorf("%w: draw %d: number %q", domain.ErrInvalidDraw, requested, s)
		}
		numbers = append(numbers, n)
	}
	return domain.NewDraw(p.Numero, numbers)
}

// get performs a GET with retries. 404 is not retried.
func (c *HTTPClient) get(ctx context.Context, url string, out any) error {
	var lastErr error
	delay := c.retryDelay

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		start := time.Now()
		resp, err := c.client.Do(req)
		observability.RecordAPILatency(time.Since(start).Seconds())
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return ErrDrawNotPublished
		case resp.StatusCode == http.StatusTooManyRequests:
			lastErr = fmt.Errorf("rate limited (429)")
			continue
		case resp.StatusCode != http.StatusOK:
			lastErr = fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(body, 200))
			continue
		}

		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

var _ ResultsClient = (*HTTPClient)(nil)
