package scrape

import (
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// skipTags hold chrome and non-content elements.
var skipTags = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Nav:      true,
	atom.Footer:   true,
	atom.Header:   true,
	atom.Noscript: true,
	atom.Iframe:   true,
}

// subPagePattern picks pages likely to name the people behind a business.
var subPagePattern = regexp.MustCompile(`about|team|contact|staff|people|leadership|our-team|management`)

// visibleText returns the body text of doc with chrome removed and
// whitespace collapsed.
func visibleText(doc *html.Node) string {
	root := findElement(doc, atom.Body)
	if root == nil {
		root = doc
	}

	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			if skipTags[n.DataAtom] {
				return
			}
		case html.TextNode:
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return collapse(sb.String())
}

// subPageLinks returns up to limit same-origin links whose path looks like
// an about, team or contact page, in document order. Paths matched by
// exclude are skipped.
func subPageLinks(doc *html.Node, base *url.URL, limit int, exclude *PathMatcher) []string {
	if limit <= 0 || base == nil {
		return nil
	}

	self := withoutFragment(base)
	seen := map[string]bool{self: true}
	var out []string

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if len(out) >= limit {
			return
		}
		if n.Type == html.ElementNode && n.DataAtom == atom.A {
			if link, ok := subPageLink(attr(n, "href"), base, exclude); ok && !seen[link] {
				seen[link] = true
				out = append(out, link)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return out
}

func subPageLink(href string, base *url.URL, exclude *PathMatcher) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", false
	}
	u, err := base.Parse(href)
	if err != nil {
		return "", false
	}
	if !strings.EqualFold(u.Scheme, base.Scheme) || !strings.EqualFold(u.Host, base.Host) {
		return "", false
	}
	if !subPagePattern.MatchString(strings.ToLower(u.Path)) || exclude.Match(u) {
		return "", false
	}
	return withoutFragment(u), true
}

func withoutFragment(u *url.URL) string {
	c := *u
	c.Fragment = ""
	c.RawFragment = ""
	return c.String()
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
