// Package email holds the fixed lookup sets and pure helpers shared by
// cleanup and enrichment: free-provider detection, role accounts, domain
// extraction and local-part pattern generation.
package email

import (
	"net/url"
	"strings"
)

var freeDomains = toSet(
	"gmail.com", "yahoo.com", "hotmail.com", "outlook.com", "aol.com",
	"icloud.com", "mail.com", "protonmail.com", "zoho.com", "yandex.com",
	"gmx.com", "gmx.net", "live.com", "msn.com", "me.com", "mac.com",
	"inbox.com", "fastmail.com", "tutanota.com", "hushmail.com",
	"mailfence.com", "disroot.org", "riseup.net", "posteo.de", "runbox.com",
	"kolabnow.com", "proton.me", "pm.me", "yahoo.co.uk", "yahoo.co.in",
	"hotmail.co.uk",
)

var rolePrefixes = toSet(
	"info", "support", "admin", "sales", "contact", "hello", "office", "help",
	"billing", "team", "marketing", "noreply", "no-reply", "webmaster",
	"careers", "jobs", "hr", "press", "media", "postmaster",
)

func toSet(vals ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		m[v] = struct{}{}
	}
	return m
}

// Normalize lower-cases and trims an address.
func Normalize(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

// IsFreeDomain reports whether domain belongs to a free/personal provider.
func IsFreeDomain(domain string) bool {
	_, ok := freeDomains[strings.ToLower(strings.TrimSpace(domain))]
	return ok
}

// Domain returns the lower-cased part after "@". Addresses without exactly
// one "@" have no domain.
func Domain(addr string) string {
	addr = strings.TrimSpace(addr)
	if strings.Count(addr, "@") != 1 {
		return ""
	}
	_, d, _ := strings.Cut(addr, "@")
	return strings.ToLower(d)
}

// LocalPart returns the lower-cased part before the last "@".
func LocalPart(addr string) string {
	addr = Normalize(addr)
	i := strings.LastIndex(addr, "@")
	if i < 0 {
		return addr
	}
	return addr[:i]
}

// IsPersonal reports whether addr is hosted by a free provider.
func IsPersonal(addr string) bool {
	d := Domain(addr)
	return d != "" && IsFreeDomain(d)
}

// IsRoleAccount reports whether the local part is a generic business mailbox.
func IsRoleAccount(addr string) bool {
	_, ok := rolePrefixes[LocalPart(addr)]
	return ok
}

// WebsiteDomain returns the host of a website value with "www." stripped.
// Schemeless values are treated as https. Unparseable values yield "".
func WebsiteDomain(raw string) string {
	u := NormalizeURL(raw)
	if u == "" {
		return ""
	}
	parsed, err := url.Parse(u)
	if err != nil {
		return ""
	}
	host := strings.ToLower(parsed.Hostname())
	return strings.TrimPrefix(host, "www.")
}

// NormalizeURL trims raw and prepends https:// when it has no scheme.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	lower := strings.ToLower(raw)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		raw = "https://" + raw
	}
	return raw
}

// Patterns returns the twelve candidate addresses for a person at domain in
// fixed priority order. Any blank input yields nil.
func Patterns(first, last, domain string) []string {
	f := Normalize(first)
	l := Normalize(last)
	d := Normalize(domain)
	if f == "" || l == "" || d == "" {
		return nil
	}
	fi := string([]rune(f)[:1])
	li := string([]rune(l)[:1])

	locals := []string{
		f,
		f + "." + l,
		fi + l,
		f + li,
		f + "_" + l,
		f + l,
		l + f,
		l + "." + f,
		l + fi,
		fi + "." + l,
		f + "-" + l,
		l,
	}
	out := make([]string, len(locals))
	for i, lp := range locals {
		out[i] = lp + "@" + d
	}
	return out
}
