package scrape

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/dataforge/internal/email"
	"github.com/sells-group/dataforge/internal/resilience"
	"github.com/sells-group/dataforge/pkg/firecrawl"
)

// FirecrawlExtractor renders a page through Firecrawl. It is the paid last
// resort for sites that block both direct fetches and the Reader API.
type FirecrawlExtractor struct {
	client  firecrawl.Client
	maxText int
}

// NewFirecrawlExtractor wraps a Firecrawl client. maxText caps the returned
// text.
func NewFirecrawlExtractor(client firecrawl.Client, maxText int) *FirecrawlExtractor {
	if maxText <= 0 {
		maxText = DefaultMaxTextLength
	}
	return &FirecrawlExtractor{client: client, maxText: maxText}
}

// Name identifies the extractor in logs.
func (f *FirecrawlExtractor) Name() string { return "firecrawl" }

// Extract returns the main-content markdown for rawURL as collapsed text.
func (f *FirecrawlExtractor) Extract(ctx context.Context, rawURL string) (string, error) {
	target := email.NormalizeURL(rawURL)
	if target == "" {
		return "", resilience.DataError(eris.New("scrape: empty url"))
	}

	resp, err := f.client.Scrape(ctx, firecrawl.ScrapeRequest{
		URL:             target,
		Formats:         []string{"markdown"},
		OnlyMainContent: true,
	})
	if err != nil {
		return "", eris.Wrapf(err, "scrape: firecrawl %s", target)
	}
	if resp == nil || !resp.Success {
		msg := "no response"
		if resp != nil && resp.Error != "" {
			msg = resp.Error
		}
		return "", resilience.TransportError(eris.Errorf("scrape: firecrawl unsuccessful: %s", msg), 0)
	}
	if code := resp.Data.Metadata.StatusCode; code >= 400 {
		return "", resilience.TransportError(eris.Errorf("scrape: firecrawl upstream status %d", code), code)
	}

	text := collapse(resp.Data.Markdown)
	if isChallengeText(text) {
		return "", resilience.DataError(eris.Wrap(ErrBlocked, "scrape: firecrawl returned a challenge page"))
	}
	return truncateRunes(strings.TrimSpace(text), f.maxText), nil
}
