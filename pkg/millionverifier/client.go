// Package millionverifier provides a client for the MillionVerifier single
// email verification API.
package millionverifier

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/dataforge/internal/email"
	"github.com/sells-group/dataforge/internal/model"
	"github.com/sells-group/dataforge/internal/resilience"
)

// DefaultBaseURL is the production v3 API root.
const DefaultBaseURL = "https://api.millionverifier.com/api/v3"

const maxBodyBytes = 1 << 20

// ErrNotConfigured is returned when no API key is set.
var ErrNotConfigured = eris.New("millionverifier: api key not configured")

// Client verifies email deliverability.
type Client interface {
	// Verify classifies addr. The role-account check is local, so the
	// returned Verification is non-nil even when the API call fails.
	Verify(ctx context.Context, addr string) (*model.Verification, error)
}

// verifyResponse is the subset of the API reply that is used. Older
// accounts report "quality" instead of "result".
type verifyResponse struct {
	Result  string `json:"result"`
	Quality string `json:"quality"`
}

// Option configures the MillionVerifier client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit caps outgoing requests per second.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		}
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a MillionVerifier client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Verify(ctx context.Context, addr string) (*model.Verification, error) {
	v := &model.Verification{
		Status:        model.EmailUnknown,
		IsRoleAccount: email.IsRoleAccount(addr),
	}
	if c.apiKey == "" {
		return v, resilience.ConfigError(ErrNotConfigured)
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return v, resilience.TransportError(eris.Wrap(err, "millionverifier: rate limit"), 0)
		}
	}

	q := url.Values{}
	q.Set("api", c.apiKey)
	q.Set("email", addr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/?"+q.Encode(), nil)
	if err != nil {
		return v, eris.Wrap(err, "millionverifier: create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		// The request URL carries the key; keep it out of the message.
		return v, resilience.TransportError(eris.New("millionverifier: request failed: "+redact(err, c.apiKey)), 0)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return v, resilience.TransportError(eris.Wrap(err, "millionverifier: read response body"), resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return v, resilience.TransportError(
			eris.Errorf("millionverifier: unexpected status %d", resp.StatusCode),
			resp.StatusCode,
		)
	}

	var result verifyResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return v, resilience.ParseError(eris.Wrap(err, "millionverifier: unmarshal response"))
	}

	raw := result.Result
	if raw == "" {
		raw = result.Quality
	}
	v.Status = ParseStatus(raw)
	return v, nil
}

// ParseStatus maps an API result or quality string onto an EmailStatus.
func ParseStatus(raw string) model.EmailStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "ok", "valid", "good":
		return model.EmailValid
	case "invalid", "bad", "error":
		return model.EmailInvalid
	case "risky", "catch_all", "disposable":
		return model.EmailRisky
	default:
		return model.EmailUnknown
	}
}

func redact(err error, secret string) string {
	msg := err.Error()
	if secret == "" {
		return msg
	}
	msg = strings.ReplaceAll(msg, url.QueryEscape(secret), "REDACTED")
	return strings.ReplaceAll(msg, secret, "REDACTED")
}
