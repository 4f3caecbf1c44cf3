package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"jane@Acme.IO", "acme.io"},
		{"  jane@acme.io  ", "acme.io"},
		{"jane", ""},
		{"a@b@c.com", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Domain(tt.in))
		})
	}
}

func TestIsPersonal(t *testing.T) {
	t.Parallel()

	assert.True(t, IsPersonal("jane@gmail.com"))
	assert.True(t, IsPersonal("JANE@GMAIL.COM"))
	assert.True(t, IsPersonal("bob@yahoo.co.uk"))
	assert.False(t, IsPersonal("jane@acme.io"))
	assert.False(t, IsPersonal("not-an-email"))
	assert.True(t, IsFreeDomain(" Proton.me "))
}

func TestIsRoleAccount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		addr string
		want bool
	}{
		{"info@acme.io", true},
		{"Support@acme.io", true},
		{"no-reply@acme.io", true},
		{"postmaster@acme.io", true},
		{"jane@acme.io", false},
		{"information@acme.io", false},
	}
	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsRoleAccount(tt.addr))
		})
	}
}

func TestWebsiteDomain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"acme.com", "acme.com"},
		{"www.acme.com", "acme.com"},
		{"https://www.Acme.com/about", "acme.com"},
		{"http://shop.acme.com:8080/x", "shop.acme.com"},
		{"", ""},
		{"   ", ""},
		{"https://%zz", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, WebsiteDomain(tt.in))
		})
	}
}

func TestNormalizeURL(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "https://acme.com", NormalizeURL(" acme.com "))
	assert.Equal(t, "http://acme.com", NormalizeURL("http://acme.com"))
	assert.Equal(t, "HTTPS://acme.com", NormalizeURL("HTTPS://acme.com"))
	assert.Equal(t, "", NormalizeURL(""))
}

func TestPatterns(t *testing.T) {
	t.Parallel()

	got := Patterns("Jane", "Doe", "acme.io")
	require.Len(t, got, 12)
	assert.Equal(t, []string{
		"jane@acme.io",
		"jane.doe@acme.io",
		"jdoe@acme.io",
		"janed@acme.io",
		"jane_doe@acme.io",
		"janedoe@acme.io",
		"doejane@acme.io",
		"doe.jane@acme.io",
		"doej@acme.io",
		"j.doe@acme.io",
		"jane-doe@acme.io",
		"doe@acme.io",
	}, got)
}

func TestPatterns_Deterministic(t *testing.T) {
	t.Parallel()

	for range 5 {
		assert.Equal(t, "jane@acme.io", Patterns(" JANE ", "Doe", "ACME.io")[0])
	}
}

func TestPatterns_MissingInput(t *testing.T) {
	t.Parallel()

	assert.Nil(t, Patterns("", "Doe", "acme.io"))
	assert.Nil(t, Patterns("Jane", " ", "acme.io"))
	assert.Nil(t, Patterns("Jane", "Doe", ""))
}
