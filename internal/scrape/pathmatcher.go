package scrape

import (
	"net/url"
	"path"
	"strings"
)

// DefaultExcludePaths keep sub-page discovery off content sections whose
// slugs often mention a team or contact without listing anyone.
var DefaultExcludePaths = []string{
	"/blog/*",
	"/news/*",
	"/press/*",
	"/careers/*",
	"/jobs/*",
	"/*.pdf",
}

// PathMatcher reports whether a link's path matches any glob pattern.
// A trailing "/*" also matches deeper paths, so "/blog/*" covers
// "/blog/2024/meet-the-team".
type PathMatcher struct {
	patterns []string
}

// NewPathMatcher lowercases patterns once. Nil patterns use
// DefaultExcludePaths; an empty non-nil slice matches nothing.
func NewPathMatcher(patterns []string) *PathMatcher {
	if patterns == nil {
		patterns = DefaultExcludePaths
	}
	lower := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			lower = append(lower, p)
		}
	}
	return &PathMatcher{patterns: lower}
}

// Match reports whether u's path matches a pattern. A nil matcher matches
// nothing.
func (m *PathMatcher) Match(u *url.URL) bool {
	if m == nil || u == nil {
		return false
	}
	p := strings.ToLower(u.Path)
	for _, pattern := range m.patterns {
		if globMatch(pattern, p) {
			return true
		}
	}
	return false
}

// MatchString parses raw and reports a match. Unparseable input matches.
func (m *PathMatcher) MatchString(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return true
	}
	return m.Match(u)
}

func globMatch(pattern, p string) bool {
	if ok, _ := path.Match(pattern, p); ok {
		return true
	}
	if dir, ok := strings.CutSuffix(pattern, "/*"); ok {
		return p == dir || strings.HasPrefix(p, dir+"/")
	}
	return false
}
