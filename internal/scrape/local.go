package scrape

import (
	"bytes"
	"context"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/dataforge/internal/email"
	"github.com/sells-group/dataforge/internal/resilience"
)

const maxPageBytes = 2 << 20

// LocalExtractor fetches a homepage plus up to MaxSubPages about/team/contact
// pages over plain HTTP and returns their combined visible text. Free, no
// API calls.
type LocalExtractor struct {
	client  *http.Client
	cfg     Config
	exclude *PathMatcher
}

// LocalOption configures a LocalExtractor.
type LocalOption func(*LocalExtractor)

// WithHTTPClient replaces the HTTP client. Its timeout is left as is.
func WithHTTPClient(hc *http.Client) LocalOption {
	return func(l *LocalExtractor) { l.client = hc }
}

// NewLocalExtractor creates a LocalExtractor. A zero MaxSubPages fetches the
// homepage only.
func NewLocalExtractor(cfg Config, opts ...LocalOption) *LocalExtractor {
	cfg = cfg.withDefaults()
	l := &LocalExtractor{
		cfg:     cfg,
		exclude: NewPathMatcher(cfg.ExcludePaths),
		client: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: cfg.Timeout,
				}).DialContext,
				TLSHandshakeTimeout: cfg.Timeout,
			},
		},
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Name identifies the extractor in logs.
func (l *LocalExtractor) Name() string { return "local_http" }

// page is one fetched HTML document.
type page struct {
	url  *url.URL
	doc  *html.Node
	text string
}

// Extract fetches rawURL (https:// is assumed when no scheme is given) and
// its sub-pages. Sub-page failures are ignored; a homepage failure is not.
func (l *LocalExtractor) Extract(ctx context.Context, rawURL string) (string, error) {
	target := email.NormalizeURL(rawURL)
	if target == "" {
		return "", resilience.DataError(eris.New("scrape: empty url"))
	}

	home, err := l.fetch(ctx, target)
	if err != nil {
		return "", eris.Wrapf(err, "scrape: fetch %s", target)
	}

	links := subPageLinks(home.doc, home.url, l.cfg.MaxSubPages, l.exclude)
	texts := append([]string{home.text}, l.fetchSubPages(ctx, links)...)

	var parts []string
	for _, t := range texts {
		if t != "" {
			parts = append(parts, t)
		}
	}

	zap.L().Debug("scrape: extracted site text",
		zap.String("url", target),
		zap.Int("sub_pages", len(links)),
		zap.Int("parts", len(parts)),
	)
	return truncateRunes(strings.Join(parts, "\n\n"), l.cfg.MaxTextLength), nil
}

// fetchSubPages fetches links concurrently and returns their texts in link
// order, with "" for pages that failed.
func (l *LocalExtractor) fetchSubPages(ctx context.Context, links []string) []string {
	texts := make([]string, len(links))
	if len(links) == 0 {
		return texts
	}

	var g errgroup.Group
	g.SetLimit(l.cfg.MaxSubPages)
	for i, link := range links {
		g.Go(func() error {
			p, err := l.fetch(ctx, link)
			if err != nil {
				zap.L().Debug("scrape: sub-page skipped", zap.String("url", link), zap.Error(err))
				return nil
			}
			texts[i] = p.text
			return nil
		})
	}
	_ = g.Wait()
	return texts
}

func (l *LocalExtractor) fetch(ctx context.Context, target string) (*page, error) {
	ctx, cancel := context.WithTimeout(ctx, l.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, resilience.DataError(eris.Wrap(err, "scrape: create request"))
	}
	req.Header.Set("User-Agent", l.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, resilience.TransportError(eris.Wrap(err, "scrape: request"), 0)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, resilience.TransportError(eris.Wrap(err, "scrape: read body"), resp.StatusCode)
	}

	if bt := DetectBlock(resp, body); bt != BlockNone {
		return nil, resilience.TransportError(eris.Wrapf(ErrBlocked, "scrape: %s", bt), resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resilience.TransportError(eris.Errorf("scrape: status %d", resp.StatusCode), resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !isHTML(ct) {
		return nil, resilience.DataError(eris.Wrapf(ErrNotHTML, "scrape: content type %q", ct))
	}

	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, resilience.ParseError(eris.Wrap(err, "scrape: parse html"))
	}

	final := req.URL
	if resp.Request != nil && resp.Request.URL != nil {
		final = resp.Request.URL
	}
	return &page{url: final, doc: doc, text: visibleText(doc)}, nil
}

func isHTML(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.Contains(strings.ToLower(contentType), "text/html")
	}
	return mt == "text/html"
}
