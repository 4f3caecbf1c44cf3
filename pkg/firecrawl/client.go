// Package firecrawl provides a scrape-only client for the Firecrawl API.
package firecrawl

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/dataforge/internal/resilience"
)

// DefaultBaseURL is the Firecrawl v1 API root.
const DefaultBaseURL = "https://api.firecrawl.dev/v1"

const maxBodyBytes = 4 << 20

// Client scrapes single pages through Firecrawl.
type Client interface {
	Scrape(ctx context.Context, req ScrapeRequest) (*ScrapeResponse, error)
}

// ScrapeRequest is the body for POST /scrape.
type ScrapeRequest struct {
	URL             string   `json:"url"`
	Formats         []string `json:"formats,omitempty"`
	OnlyMainContent bool     `json:"onlyMainContent,omitempty"`
}

// ScrapeResponse is the response from POST /scrape.
type ScrapeResponse struct {
	Success bool     `json:"success"`
	Error   string   `json:"error,omitempty"`
	Data    PageData `json:"data"`
}

// PageData is one scraped page.
type PageData struct {
	Markdown string       `json:"markdown"`
	Metadata PageMetadata `json:"metadata"`
}

// PageMetadata carries the page's URL, title and upstream status.
type PageMetadata struct {
	Title      string `json:"title"`
	SourceURL  string `json:"sourceURL"`
	StatusCode int    `json:"statusCode"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the API root. Empty values are ignored.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		if url != "" {
			c.baseURL = url
		}
	}
}

// WithHTTPClient sets a custom *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a Firecrawl client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		http: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Scrape(ctx context.Context, sr ScrapeRequest) (*ScrapeResponse, error) {
	if c.apiKey == "" {
		return nil, resilience.ConfigError(eris.New("firecrawl: api key not configured"))
	}

	buf, err := json.Marshal(sr)
	if err != nil {
		return nil, eris.Wrap(err, "firecrawl: marshal request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/scrape", bytes.NewReader(buf))
	if err != nil {
		return nil, eris.Wrap(err, "firecrawl: create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, resilience.TransportError(eris.Wrap(err, "firecrawl: request failed"), 0)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, resilience.TransportError(eris.Wrap(err, "firecrawl: read response body"), resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resilience.TransportError(
			eris.Errorf("firecrawl: HTTP %d: %s", resp.StatusCode, truncateBody(body)),
			resp.StatusCode,
		)
	}

	var out ScrapeResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, resilience.ParseError(eris.Wrap(err, "firecrawl: unmarshal response"))
	}
	return &out, nil
}

func truncateBody(b []byte) string {
	const limit = 200
	if len(b) > limit {
		return string(b[:limit]) + "..."
	}
	return string(b)
}
