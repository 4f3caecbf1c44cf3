package firecrawl

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/dataforge/internal/resilience"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient("test-api-key", WithBaseURL(srv.URL))
}

func TestScrape_Success(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/scrape", r.URL.Path)
		assert.Equal(t, "Bearer test-api-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req ScrapeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "https://acmegolf.com", req.URL)
		assert.Equal(t, []string{"markdown"}, req.Formats)
		assert.True(t, req.OnlyMainContent)

		_, _ = w.Write([]byte(`{"success":true,"data":{"markdown":"# Acme Golf\nAnn Lee, Owner","metadata":{"title":"Acme Golf","sourceURL":"https://acmegolf.com","statusCode":200}}}`))
	})

	resp, err := c.Scrape(context.Background(), ScrapeRequest{
		URL:             "https://acmegolf.com",
		Formats:         []string{"markdown"},
		OnlyMainContent: true,
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "# Acme Golf\nAnn Lee, Owner", resp.Data.Markdown)
	assert.Equal(t, "Acme Golf", resp.Data.Metadata.Title)
	assert.Equal(t, 200, resp.Data.Metadata.StatusCode)
}

func TestScrape_HTTPErrorIsTransport(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"unauthorized", http.StatusUnauthorized},
		{"payment required", http.StatusPaymentRequired},
		{"server error", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error":"nope"}`))
			})

			_, err := c.Scrape(context.Background(), ScrapeRequest{URL: "https://acme.com"})
			require.Error(t, err)
			assert.Equal(t, resilience.KindTransport, resilience.Classify(err))

			var re *resilience.Error
			require.True(t, errors.As(err, &re))
			assert.Equal(t, tt.status, re.StatusCode)
		})
	}
}

func TestScrape_MalformedJSON(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	})

	_, err := c.Scrape(context.Background(), ScrapeRequest{URL: "https://acme.com"})
	require.Error(t, err)
	assert.Equal(t, resilience.KindParse, resilience.Classify(err))
}

func TestScrape_MissingKey(t *testing.T) {
	_, err := NewClient("").Scrape(context.Background(), ScrapeRequest{URL: "https://acme.com"})
	require.Error(t, err)
	assert.Equal(t, resilience.KindConfig, resilience.Classify(err))
}

func TestTruncateBody(t *testing.T) {
	assert.Equal(t, "short", truncateBody([]byte("short")))
	long := make([]byte, 300)
	for i := range long {
		long[i] = 'x'
	}
	got := truncateBody(long)
	assert.Len(t, got, 203)
	assert.Equal(t, "...", got[200:])
}
