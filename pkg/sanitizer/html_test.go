package sanitizer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/bxsite/pkg/sanitizer"
)

func TestStripHTML(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "strips script injection",
			input:    `<p>Hello</p><script>alert('xss')</script>`,
			expected: "Hello",
		},
		{
			name:     "strips all HTML tags",
			input:    `<p>Hello <strong>world</strong></p>`,
			expected: "Hello world",
		},
		{
			name:     "strips event handlers",
			input:    `<img src="x" onerror="alert('xss')">`,
			expected: "",
		},
		{
			name:     "strips javascript URLs",
			input:    `<a href="javascript:alert('xss')">click</a>`,
			expected: "click",
		},
		{
			name:     "strips data URLs",
			input:    `<a href="data:text/html,<script>alert('xss')</script>">click</a>`,
			expected: "click",
		},
		{
			name:     "strips CSS injection",
			input:    `<div style="background:url(javascript:alert('xss'))">content</div>`,
			expected: "content",
		},
		{
			name:     "strips nested tags",
			input:    `<div><p>nested <span>content</span></p></div>`,
			expected: "nested content",
		},
		{
			name:     "handles plain text",
			input:    "normal text without HTML",
			expected: "normal text without HTML",
		},
		{
			name:     "handles empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "strips style tags",
			input:    `Hello <STYLE>.XSS{background-image:url("javascript:alert('XSS')");}</STYLE>World`,
			expected: "Hello World",
		},
		{
			name:     "strips iframe",
			input:    `<iframe src="https://evil.com"></iframe>content`,
			expected: "content",
		},
		{
			name:     "strips object tags",
			input:    `<object data="data:text/html,<script>alert(1)</script>"></object>text`,
			expected: "text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result := sanitizer.StripHTML(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestSanitizeMarkdownHTML(t *testing.T) {
	t.Parallel()

	t.Run("keeps rendered markdown structure", func(t *testing.T) {
		t.Parallel()

		input := `<h1 id="intro">Hi</h1><table><thead><tr><th>a</th></tr></thead><tbody><tr><td>b</td></tr></tbody></table><pre><code class="language-go">x := 1</code></pre><del>old</del>`
		assert.Equal(t, input, sanitizer.SanitizeMarkdownHTML(input))
	})

	t.Run("keeps task list checkboxes", func(t *testing.T) {
		t.Parallel()

		got := sanitizer.SanitizeMarkdownHTML(`<ul><li><input checked="" disabled="" type="checkbox"> done</li></ul>`)
		assert.Contains(t, got, `type="checkbox"`)
		assert.Contains(t, got, `checked`)
	})

	t.Run("marks external links", func(t *testing.T) {
		t.Parallel()

		got := sanitizer.SanitizeMarkdownHTML(`<a href="https://example.com">x</a>`)
		assert.Contains(t, got, `href="https://example.com"`)
		assert.Contains(t, got, `nofollow`)
		assert.Contains(t, got, `target="_blank"`)
	})

	t.Run("leaves relative links alone", func(t *testing.T) {
		t.Parallel()

		got := sanitizer.SanitizeMarkdownHTML(`<a href="/about">about</a>`)
		assert.NotContains(t, got, `target="_blank"`)
	})

	xss := []struct {
		name  string
		input string
		bad   string
	}{
		{name: "script", input: `<p>ok</p><script>alert(1)</script>`, bad: "<script"},
		{name: "javascript url", input: `<a href="javascript:alert(1)">x</a>`, bad: "javascript:"},
		{name: "event handler", input: `<img src="https://example.com/a.png" onerror="alert(1)">`, bad: "onerror"},
		{name: "iframe", input: `<iframe src="https://evil.com"></iframe>`, bad: "<iframe"},
		{name: "inline style", input: `<p style="background:url(javascript:alert(1))">x</p>`, bad: "style="},
		{name: "code class injection", input: `<code class="language-go onclick">x</code>`, bad: "class="},
	}
	for _, tt := range xss {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.NotContains(t, sanitizer.SanitizeMarkdownHTML(tt.input), tt.bad)
		})
	}
}
