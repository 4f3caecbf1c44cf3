package millionverifier

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/dataforge/internal/model"
	"github.com/sells-group/dataforge/internal/resilience"
)

func TestVerify_Success(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/", r.URL.Path)
		assert.Equal(t, "mv-key", r.URL.Query().Get("api"))
		assert.Equal(t, "bob+golf@acme.com", r.URL.Query().Get("email"))
		_, _ = w.Write([]byte(`{"email":"bob+golf@acme.com","result":"ok","resultcode":1}`))
	}))
	defer srv.Close()

	v, err := NewClient("mv-key", WithBaseURL(srv.URL)).Verify(context.Background(), "bob+golf@acme.com")
	require.NoError(t, err)
	assert.Equal(t, &model.Verification{Status: model.EmailValid}, v)
}

func TestVerify_QualityFallbackAndRoleAccount(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"quality":"catch_all"}`))
	}))
	defer srv.Close()

	v, err := NewClient("k", WithBaseURL(srv.URL)).Verify(context.Background(), "info@acme.com")
	require.NoError(t, err)
	assert.Equal(t, model.EmailRisky, v.Status)
	assert.True(t, v.IsRoleAccount)
}

func TestVerify_FailuresKeepRoleCheck(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   string
		kind   resilience.Kind
	}{
		{"server error", http.StatusInternalServerError, `{}`, resilience.KindTransport},
		{"payment required", http.StatusPaymentRequired, `{}`, resilience.KindTransport},
		{"malformed", http.StatusOK, `not json`, resilience.KindParse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			v, err := NewClient("k", WithBaseURL(srv.URL)).Verify(context.Background(), "sales@acme.com")
			require.Error(t, err)
			assert.Equal(t, tt.kind, resilience.Classify(err))
			require.NotNil(t, v)
			assert.Equal(t, model.EmailUnknown, v.Status)
			assert.True(t, v.IsRoleAccount)
		})
	}
}

func TestVerify_NoKey(t *testing.T) {
	t.Parallel()

	v, err := NewClient("").Verify(context.Background(), "office@acme.com")
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Equal(t, resilience.KindConfig, resilience.Classify(err))
	assert.Equal(t, &model.Verification{Status: model.EmailUnknown, IsRoleAccount: true}, v)
}

func TestVerify_UnreachableRedactsKey(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	u := srv.URL
	srv.Close()

	_, err := NewClient("top-secret", WithBaseURL(u)).Verify(context.Background(), "bob@acme.com")
	require.Error(t, err)
	assert.Equal(t, resilience.KindTransport, resilience.Classify(err))
	assert.NotContains(t, err.Error(), "top-secret")
}

func TestParseStatus(t *testing.T) {
	t.Parallel()

	tests := map[string]model.EmailStatus{
		"ok":           model.EmailValid,
		"Valid":        model.EmailValid,
		"good":         model.EmailValid,
		"invalid":      model.EmailInvalid,
		"bad":          model.EmailInvalid,
		"error":        model.EmailInvalid,
		"risky":        model.EmailRisky,
		"catch_all":    model.EmailRisky,
		" disposable ": model.EmailRisky,
		"unknown":      model.EmailUnknown,
		"":             model.EmailUnknown,
		"whatever":     model.EmailUnknown,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseStatus(in), in)
	}
}

func TestRedact(t *testing.T) {
	t.Parallel()

	err := errors.New(`Get "http://x/?api=a%2Bb&email=e": refused; key a+b`)
	assert.Equal(t, `Get "http://x/?api=REDACTED&email=e": refused; key REDACTED`, redact(err, "a+b"))
	assert.Equal(t, "plain", redact(errors.New("plain"), ""))
}
