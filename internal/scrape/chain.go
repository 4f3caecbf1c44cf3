package scrape

import (
	"context"
	"errors"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/dataforge/internal/resilience"
)

// Chain tries extractors in order and returns the first non-empty text.
// An extractor with a breaker is skipped while its breaker is open.
type Chain struct {
	links []link
}

type link struct {
	ext     Extractor
	breaker *resilience.Breaker
}

// NewChain creates an empty Chain.
func NewChain() *Chain {
	return &Chain{}
}

// Add appends ext to the chain. breaker may be nil for extractors whose
// failures are per-site rather than per-service.
func (c *Chain) Add(ext Extractor, breaker *resilience.Breaker) *Chain {
	c.links = append(c.links, link{ext: ext, breaker: breaker})
	return c
}

// Len returns the number of extractors in the chain.
func (c *Chain) Len() int { return len(c.links) }

// Extract runs the chain for one URL. It returns "" with a nil error when
// every extractor succeeded without text, and the last error otherwise.
func (c *Chain) Extract(ctx context.Context, url string) (string, error) {
	if len(c.links) == 0 {
		return "", resilience.ConfigError(eris.New("scrape: no extractors configured"))
	}

	var lastErr error
	for _, l := range c.links {
		text, err := l.extract(ctx, url)
		if err == nil && strings.TrimSpace(text) != "" {
			return text, nil
		}
		if err != nil {
			level := zap.DebugLevel
			if errors.Is(err, resilience.ErrCircuitOpen) {
				level = zap.InfoLevel
			}
			zap.L().Log(level, "scrape: extractor failed, trying next",
				zap.String("extractor", l.ext.Name()),
				zap.String("url", url),
				zap.Error(err),
			)
			lastErr = err
		}
	}
	if lastErr != nil {
		return "", eris.Wrap(lastErr, "scrape: all extractors failed")
	}
	return "", nil
}

func (l link) extract(ctx context.Context, url string) (string, error) {
	if l.breaker == nil {
		return l.ext.Extract(ctx, url)
	}
	return resilience.Do(ctx, l.breaker, func(ctx context.Context) (string, error) {
		return l.ext.Extract(ctx, url)
	})
}

// ServiceFailure reports whether err points at the remote service rather
// than the site being read: network errors, 408, 429 and 5xx.
func ServiceFailure(err error) bool {
	var re *resilience.Error
	if errors.As(err, &re) {
		return re.Kind == resilience.KindTransport && (re.StatusCode == 0 || resilience.IsServerStatus(re.StatusCode))
	}
	return resilience.Classify(err) == resilience.KindTransport
}
