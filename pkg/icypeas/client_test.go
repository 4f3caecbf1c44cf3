package icypeas

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/sells-group/dataforge/internal/resilience"
)

func TestFind_Success(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/email-search", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "key", user)
		assert.Equal(t, "secret", pass)

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{
			"firstname":       "Bob",
			"lastname":        "Smith",
			"domainOrCompany": "bobsgolf.com",
		}, body)

		_, _ = w.Write([]byte(`{"email":"bob@bobsgolf.com"}`))
	}))
	defer srv.Close()

	addr, err := NewClient("key", "secret", WithBaseURL(srv.URL+"/")).
		Find(context.Background(), "Bob", "Smith", "bobsgolf.com")
	require.NoError(t, err)
	assert.Equal(t, "bob@bobsgolf.com", addr)
}

func TestFind_ResponseShapes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want string
	}{
		{"email field", `{"email":" ann@acme.com "}`, "ann@acme.com"},
		{"emails list", `{"emails":["ann@acme.com","a.lee@acme.com"]}`, "ann@acme.com"},
		{"blank first entry", `{"emails":["", "a.lee@acme.com"]}`, "a.lee@acme.com"},
		{"nothing found", `{"status":"NOT_FOUND"}`, ""},
		{"empty list", `{"emails":[]}`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			addr, err := NewClient("k", "s", WithBaseURL(srv.URL)).Find(context.Background(), "Ann", "Lee", "acme.com")
			require.NoError(t, err)
			assert.Equal(t, tt.want, addr)
		})
	}
}

func TestFind_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   string
		kind   resilience.Kind
	}{
		{"unauthorized", http.StatusUnauthorized, `{}`, resilience.KindConfig},
		{"rate limited", http.StatusTooManyRequests, `{}`, resilience.KindTransport},
		{"server error", http.StatusBadGateway, `{}`, resilience.KindTransport},
		{"malformed", http.StatusOK, `{"email":`, resilience.KindParse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewClient("k", "s", WithBaseURL(srv.URL)).Find(context.Background(), "Ann", "Lee", "acme.com")
			require.Error(t, err)
			assert.Equal(t, tt.kind, resilience.Classify(err))
			assert.Equal(t, int32(1), calls.Load())
		})
	}
}

func TestFind_MissingCredentials(t *testing.T) {
	t.Parallel()

	for _, creds := range [][2]string{{"", ""}, {"key", ""}, {"", "secret"}} {
		_, err := NewClient(creds[0], creds[1]).Find(context.Background(), "Ann", "Lee", "acme.com")
		assert.ErrorIs(t, err, ErrNotConfigured)
		assert.Equal(t, resilience.KindConfig, resilience.Classify(err))
	}
}

func TestFind_Unreachable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient("k", "s", WithBaseURL(url)).Find(context.Background(), "Ann", "Lee", "acme.com")
	require.Error(t, err)
	var re *resilience.Error
	require.ErrorAs(t, err, &re)
	assert.Equal(t, resilience.KindTransport, re.Kind)
	assert.Zero(t, re.StatusCode)
}

func TestFind_RateLimitHonoursContext(t *testing.T) {
	t.Parallel()

	c := NewClient("k", "s").(*httpClient)
	c.limiter = rate.NewLimiter(rate.Every(time.Hour), 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Find(ctx, "Ann", "Lee", "acme.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "icypeas: rate limit")
}

func TestNewClient_Options(t *testing.T) {
	t.Parallel()

	hc := &http.Client{}
	c := NewClient("k", "s", WithHTTPClient(hc), WithRateLimit(5), WithBaseURL("")).(*httpClient)
	assert.Same(t, hc, c.http)
	assert.Equal(t, DefaultBaseURL, c.baseURL)
	assert.Equal(t, rate.Limit(5), c.limiter.Limit())
	assert.Equal(t, 5, c.limiter.Burst())

	c = NewClient("k", "s", WithRateLimit(0)).(*httpClient)
	assert.Nil(t, c.limiter)
}
