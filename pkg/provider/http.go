package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"
)

const (
	defaultMaxRetries = 3
	defaultTimeout    = 60 * time.Second
	baseBackoff       = 500 * time.Millisecond
)

// Option configures a provider adapter.
type Option func(*settings)

type settings struct {
	baseURL    string
	client     *http.Client
	maxRetries int
	logger     *slog.Logger
}

func newSettings(baseURL string, opts []Option) settings {
	s := settings{
		baseURL:    baseURL,
		client:     &http.Client{Timeout: defaultTimeout},
		maxRetries: defaultMaxRetries,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// WithHTTPClient sets a custom HTTP client (useful for testing).
func WithHTTPClient(c *http.Client) Option {
	return func(s *settings) { s.client = c }
}

// WithBaseURL overrides the vendor API base URL.
func WithBaseURL(url string) Option {
	return func(s *settings) { s.baseURL = strings.TrimSuffix(url, "/") }
}

// WithMaxRetries sets the maximum number of retry attempts for retryable errors.
func WithMaxRetries(n int) Option {
	return func(s *settings) { s.maxRetries = n }
}

// WithTimeout sets the per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) {
		s.client = &http.Client{Transport: s.client.Transport, Timeout: d}
	}
}

// WithLogger sets the logger used for usage and retry diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

// jsonClient performs JSON requests against a vendor REST API, retrying
// 429 and 5xx responses with exponential backoff.
type jsonClient struct {
	settings
	provider string
	// header sets vendor-specific request headers such as credentials.
	header func(http.Header)
	// errorText extracts the human-readable message from an error body.
	errorText func([]byte) string
}

func (c *jsonClient) do(ctx context.Context, method, path string, in, out any) error {
	var body []byte
	if in != nil {
		var err error
		body, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("building request body: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := baseBackoff * time.Duration(math.Pow(2, float64(attempt-1)))
			select {
			case <-ctx.Done():
				return unavailable(c.provider, ctx.Err())
			case <-time.After(backoff):
			}
		}

		err := c.doOnce(ctx, method, path, body, out)
		if err == nil {
			return nil
		}
		if !isRetryable(err) {
			return err
		}
		c.logger.Debug("retrying provider request",
			slog.String("provider", c.provider),
			slog.Int("attempt", attempt+1),
			slog.String("error", err.Error()),
		)
		lastErr = err
	}

	var re *retryableError
	if errors.As(lastErr, &re) {
		lastErr = re.err
	}
	return fmt.Errorf("%s API request failed after %d attempts: %w", c.provider, c.maxRetries+1, lastErr)
}

func (c *jsonClient) doOnce(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating HTTP request: %w", err)
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.header != nil {
		c.header(httpReq.Header)
	}

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return unavailable(c.provider, ctx.Err())
		}
		return &retryableError{err: unavailable(c.provider, fmt.Errorf("sending HTTP request: %w", err))}
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return &retryableError{err: unavailable(c.provider, fmt.Errorf("reading response body: %w", err))}
	}

	if httpResp.StatusCode != http.StatusOK {
		msg := string(respBody)
		if c.errorText != nil {
			if m := c.errorText(respBody); m != "" {
				msg = m
			}
		}
		apiErr := classifyStatus(c.provider, httpResp.StatusCode, msg)
		if httpResp.StatusCode == http.StatusTooManyRequests || httpResp.StatusCode >= 500 {
			return &retryableError{err: apiErr}
		}
		return apiErr
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return unavailable(c.provider, fmt.Errorf("decoding response: %w", err))
	}
	return nil
}
