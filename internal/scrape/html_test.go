package scrape

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func parse(t *testing.T, s string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(s))
	require.NoError(t, err)
	return doc
}

func TestVisibleText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `<p>Hello</p><p>World</p>`, "Hello World"},
		{"entities", `<p>Fish &amp; Chips &lt;daily&gt;</p>`, "Fish & Chips <daily>"},
		{"chrome removed", `<header>H</header><nav>N</nav><main>Body</main><footer>F</footer>`, "Body"},
		{"scripts removed", `<body><script>x()</script><style>p{}</style><noscript>js</noscript><iframe>f</iframe>Text</body>`, "Text"},
		{"whitespace", "<p>a \n\t  b</p>\n\n<div>   c</div>", "a b c"},
		{"head ignored", `<html><head><title>Title</title></head><body>Only body</body></html>`, "Only body"},
		{"empty", ``, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, visibleText(parse(t, tt.in)))
		})
	}
}

func TestSubPageLinks(t *testing.T) {
	t.Parallel()

	base, err := url.Parse("https://acme.com/")
	require.NoError(t, err)

	doc := parse(t, `<body>
<a href="/About-Us">About</a>
<a href="https://acme.com/About-Us#story">dup with fragment</a>
<a href="http://acme.com/team">other scheme</a>
<a href="https://www.acme.com/team">other host</a>
<a href="mailto:bob@acme.com">mail</a>
<a href="">empty</a>
<a href="/">home</a>
<a href="leadership">relative</a>
<a href="/products">products</a>
<a href="/our-team/">our team</a>
<a href="/management">management</a>
</body>`)

	assert.Equal(t, []string{
		"https://acme.com/About-Us",
		"https://acme.com/leadership",
		"https://acme.com/our-team/",
	}, subPageLinks(doc, base, 3, nil))

	assert.Len(t, subPageLinks(doc, base, 10, nil), 4)
	assert.Nil(t, subPageLinks(doc, base, 0, nil))
	assert.Nil(t, subPageLinks(doc, nil, 3, nil))
}

func TestSubPageLinks_SkipsSelf(t *testing.T) {
	t.Parallel()

	base, err := url.Parse("https://acme.com/about")
	require.NoError(t, err)
	doc := parse(t, `<a href="/about">self</a><a href="/about#top">self again</a><a href="/contact">c</a>`)
	assert.Equal(t, []string{"https://acme.com/contact"}, subPageLinks(doc, base, 3, nil))
}

func TestTruncateRunes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "abc", truncateRunes("abcdef", 3))
	assert.Equal(t, "ab", truncateRunes("ab", 3))
	assert.Equal(t, "日本", truncateRunes("日本語", 2))
	assert.Equal(t, "abc", truncateRunes("abc", 0))
}

func TestCollapse(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "a b c", collapse("  a\n\n b \t c  "))
	assert.Equal(t, "", collapse(" \n "))
}
