// Package icypeas provides a client for the Icypeas email-search API.
package icypeas

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/dataforge/internal/resilience"
)

// DefaultBaseURL is the production API root.
const DefaultBaseURL = "https://app.icypeas.com/api"

const maxBodyBytes = 1 << 20

// ErrNotConfigured is returned when the key or secret is missing.
var ErrNotConfigured = eris.New("icypeas: api credentials not configured")

// Client looks up a person's email address.
type Client interface {
	// Find returns the address Icypeas reports for the person at domain, or
	// "" when none is known.
	Find(ctx context.Context, firstName, lastName, domain string) (string, error)
}

// searchRequest is the email-search request body.
type searchRequest struct {
	FirstName       string `json:"firstname"`
	LastName        string `json:"lastname"`
	DomainOrCompany string `json:"domainOrCompany"`
}

// searchResponse covers both reply shapes the API uses.
type searchResponse struct {
	Email  string   `json:"email"`
	Emails []string `json:"emails"`
}

// Option configures the Icypeas client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		if url != "" {
			c.baseURL = strings.TrimRight(url, "/")
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit caps outgoing requests per second. A burst equal to the
// integer portion of rps is allowed.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		}
	}
}

type httpClient struct {
	apiKey    string
	apiSecret string
	baseURL   string
	http      *http.Client
	limiter   *rate.Limiter
}

// NewClient creates an Icypeas client authenticated with key and secret.
func NewClient(apiKey, apiSecret string, opts ...Option) Client {
	c := &httpClient{
		apiKey:    apiKey,
		apiSecret: apiSecret,
		baseURL:   DefaultBaseURL,
		http:      &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Find(ctx context.Context, firstName, lastName, domain string) (string, error) {
	if c.apiKey == "" || c.apiSecret == "" {
		return "", resilience.ConfigError(ErrNotConfigured)
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", resilience.TransportError(eris.Wrap(err, "icypeas: rate limit"), 0)
		}
	}

	payload, err := json.Marshal(searchRequest{
		FirstName:       firstName,
		LastName:        lastName,
		DomainOrCompany: domain,
	})
	if err != nil {
		return "", eris.Wrap(err, "icypeas: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/email-search", bytes.NewReader(payload))
	if err != nil {
		return "", eris.Wrap(err, "icypeas: create request")
	}
	req.SetBasicAuth(c.apiKey, c.apiSecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", resilience.TransportError(eris.Wrap(err, "icypeas: request failed"), 0)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", resilience.TransportError(eris.Wrap(err, "icypeas: read response body"), resp.StatusCode)
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return "", resilience.ConfigError(eris.Errorf("icypeas: credentials rejected (status %d)", resp.StatusCode))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", resilience.TransportError(
			eris.Errorf("icypeas: unexpected status %d", resp.StatusCode),
			resp.StatusCode,
		)
	}

	var result searchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", resilience.ParseError(eris.Wrap(err, "icypeas: unmarshal response"))
	}

	if addr := strings.TrimSpace(result.Email); addr != "" {
		return addr, nil
	}
	for _, addr := range result.Emails {
		if addr = strings.TrimSpace(addr); addr != "" {
			return addr, nil
		}
	}
	return "", nil
}
