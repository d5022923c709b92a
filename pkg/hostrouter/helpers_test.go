package hostrouter_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/bxsite/pkg/hostrouter"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		host     string
		expected string
	}{
		{host: "bxsite.com", expected: "bxsite.com"},
		{host: "bxsite.com:8080", expected: "bxsite.com"},
		{host: "MySlug.BXSite.com", expected: "myslug.bxsite.com"},
		{host: "blog.example.com.", expected: "blog.example.com"},
		{host: "blog.example.com.:443", expected: "blog.example.com"},
		{host: "192.168.1.1:8080", expected: "192.168.1.1"},
		{host: "[::1]", expected: "[::1]"},
		{host: "[2001:db8::1]:8080", expected: "[2001:db8::1]"},
		{host: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			t.Parallel()

			require.Equal(t, tt.expected, hostrouter.Normalize(tt.host))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Host = tt.host
			require.Equal(t, tt.expected, hostrouter.GetDomain(req))
		})
	}
}

func TestSubdomain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		host     string
		base     string
		expected string
	}{
		{name: "single label", host: "foo.bxsite.com", base: "bxsite.com", expected: "foo"},
		{name: "multi label", host: "bar.foo.bxsite.com", base: "bxsite.com", expected: "bar.foo"},
		{name: "apex", host: "bxsite.com", base: "bxsite.com", expected: ""},
		{name: "lookalike", host: "notbxsite.com", base: "bxsite.com", expected: ""},
		{name: "foreign", host: "foo.other.com", base: "bxsite.com", expected: ""},
		{name: "empty base", host: "foo.bxsite.com", base: "", expected: ""},
		{name: "localhost", host: "tenant1.localhost", base: "localhost", expected: "tenant1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			require.Equal(t, tt.expected, hostrouter.Subdomain(tt.host, tt.base))
		})
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		host  string
		kind  hostrouter.Kind
		label string
	}{
		{host: "bxsite.com", kind: hostrouter.KindPlatform},
		{host: "www.bxsite.com:443", kind: hostrouter.KindPlatform},
		{host: "myslug.bxsite.com", kind: hostrouter.KindSubdomain, label: "myslug"},
		{host: "a.b.bxsite.com", kind: hostrouter.KindSubdomain, label: "a"},
		{host: "blog.example.com", kind: hostrouter.KindCustom},
		{host: "notbxsite.com", kind: hostrouter.KindCustom},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			t.Parallel()

			m := hostrouter.Classify(tt.host, "bxsite.com")
			require.Equal(t, tt.kind, m.Kind, m.Kind.String())
			require.Equal(t, tt.label, m.Label)
		})
	}
}

func TestClassify_NoPlatform(t *testing.T) {
	t.Parallel()

	require.Equal(t, hostrouter.KindCustom, hostrouter.Classify("anything.com", "").Kind)
}
