package scrape

import (
	"net/http"
	"strings"
)

// BlockType describes the kind of block detected.
type BlockType string

const (
	BlockNone       BlockType = ""
	BlockCloudflare BlockType = "cloudflare"
	BlockCaptcha    BlockType = "captcha"
	BlockJSShell    BlockType = "js_shell"
)

// Body sizes below which a page may be a captcha interstitial or a
// JS-only shell. Full pages often embed a captcha widget on a form.
const (
	captchaSize = 16 << 10
	shellSize   = 2000
)

type marker struct {
	needle string
	kind   BlockType
}

var bodyMarkers = []marker{
	{"checking your browser", BlockCloudflare},
	{"cf-browser-verification", BlockCloudflare},
	{"just a moment...", BlockCloudflare},
}

var captchaMarkers = []marker{
	{"g-recaptcha", BlockCaptcha},
	{"h-captcha", BlockCaptcha},
	{"captcha", BlockCaptcha},
}

var shellMarkers = []marker{
	{`http-equiv="refresh"`, BlockJSShell},
	{"please enable javascript", BlockJSShell},
	{"you need to enable javascript", BlockJSShell},
}

// challengeText matches rendered text of interstitial pages.
var challengeText = []string{
	"checking your browser",
	"enable javascript",
	"please enable cookies",
	"access denied",
	"403 forbidden",
	"just a moment",
	"attention required",
}

// DetectBlock reports whether a response is an anti-bot page instead of
// site content.
func DetectBlock(resp *http.Response, body []byte) BlockType {
	if resp != nil && (resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusServiceUnavailable) {
		if resp.Header.Get("cf-ray") != "" || strings.EqualFold(resp.Header.Get("server"), "cloudflare") {
			return BlockCloudflare
		}
	}

	lower := strings.ToLower(string(body))
	if bt := firstMarker(lower, bodyMarkers); bt != BlockNone {
		return bt
	}
	if len(body) < captchaSize {
		if bt := firstMarker(lower, captchaMarkers); bt != BlockNone {
			return bt
		}
	}
	if len(body) < shellSize {
		return firstMarker(lower, shellMarkers)
	}
	return BlockNone
}

func firstMarker(lower string, markers []marker) BlockType {
	for _, m := range markers {
		if strings.Contains(lower, m.needle) {
			return m.kind
		}
	}
	return BlockNone
}

// isChallengeText reports whether short extracted text is an interstitial.
func isChallengeText(text string) bool {
	if len(text) >= 1000 {
		return false
	}
	lower := strings.ToLower(text)
	for _, sig := range challengeText {
		if strings.Contains(lower, sig) {
			return true
		}
	}
	return false
}
