package scrape

import (
	"context"
	"net/http"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/dataforge/internal/email"
	"github.com/sells-group/dataforge/internal/resilience"
	"github.com/sells-group/dataforge/pkg/jina"
)

// JinaExtractor reads a site through the Jina Reader API. It only sees the
// page it is given, so it is a fallback for sites that block LocalExtractor.
type JinaExtractor struct {
	client  jina.Client
	maxText int
}

// NewJinaExtractor wraps a Jina client. maxText caps the returned text.
func NewJinaExtractor(client jina.Client, maxText int) *JinaExtractor {
	if maxText <= 0 {
		maxText = DefaultMaxTextLength
	}
	return &JinaExtractor{client: client, maxText: maxText}
}

// Name identifies the extractor in logs.
func (j *JinaExtractor) Name() string { return "jina" }

// Extract returns the Reader text for rawURL.
func (j *JinaExtractor) Extract(ctx context.Context, rawURL string) (string, error) {
	target := email.NormalizeURL(rawURL)
	if target == "" {
		return "", resilience.DataError(eris.New("scrape: empty url"))
	}

	resp, err := j.client.Read(ctx, target)
	if err != nil {
		return "", eris.Wrapf(err, "scrape: jina read %s", target)
	}
	if resp == nil {
		return "", resilience.ParseError(eris.New("scrape: jina returned no response"))
	}
	if resp.Code != 0 && resp.Code != http.StatusOK {
		return "", resilience.TransportError(eris.Errorf("scrape: jina code %d", resp.Code), resp.Code)
	}

	text := collapse(resp.Data.Content)
	if isChallengeText(text) {
		return "", resilience.DataError(eris.Wrap(ErrBlocked, "scrape: jina returned a challenge page"))
	}
	return truncateRunes(strings.TrimSpace(text), j.maxText), nil
}
