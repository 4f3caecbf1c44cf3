// Package scrape turns a business website into plain text for contact
// inference.
package scrape

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Defaults for Config fields left at their zero value.
const (
	DefaultTimeout       = 10 * time.Second
	DefaultMaxSubPages   = 3
	DefaultMaxTextLength = 8000
	DefaultUserAgent     = "Mozilla/5.0 (compatible; DataForge/1.0; +https://dataforge.app)"
)

var (
	// ErrNotHTML is returned when a page is not served as text/html.
	ErrNotHTML = eris.New("scrape: not an html page")
	// ErrBlocked is returned when a page looks like an anti-bot challenge.
	ErrBlocked = eris.New("scrape: blocked")
)

// Extractor fetches a website and returns its visible text.
type Extractor interface {
	Extract(ctx context.Context, url string) (string, error)
	Name() string
}

// Config controls page fetching and text limits.
type Config struct {
	Timeout       time.Duration
	MaxSubPages   int
	MaxTextLength int
	UserAgent     string
	// ExcludePaths are glob patterns for sub-page links to skip. Nil uses
	// DefaultExcludePaths.
	ExcludePaths []string
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxSubPages < 0 {
		c.MaxSubPages = 0
	}
	if c.MaxTextLength <= 0 {
		c.MaxTextLength = DefaultMaxTextLength
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	return c
}

// DefaultConfig returns the standard fetch settings.
func DefaultConfig() Config {
	return Config{
		Timeout:       DefaultTimeout,
		MaxSubPages:   DefaultMaxSubPages,
		MaxTextLength: DefaultMaxTextLength,
		UserAgent:     DefaultUserAgent,
	}
}

// collapse squeezes every whitespace run to a single space.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncateRunes cuts s to at most n characters without splitting a rune.
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
