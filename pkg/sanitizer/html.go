package sanitizer

import (
	"regexp"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictPolicy   *bluemonday.Policy
	markdownPolicy *bluemonday.Policy
	initOnce       sync.Once
)

func initPolicies() {
	initOnce.Do(func() {
		// StrictPolicy strips ALL HTML, returns plain text
		strictPolicy = bluemonday.StrictPolicy()

		// MarkdownPolicy covers everything a GFM renderer emits for a
		// published page: headings, tables, task lists, images and
		// fenced code with a language class.
		markdownPolicy = bluemonday.UGCPolicy()
		markdownPolicy.AllowAttrs("class").Matching(regexp.MustCompile(`^language-[\w+#-]+$`)).OnElements("code")
		markdownPolicy.AllowAttrs("type").Matching(regexp.MustCompile(`^checkbox$`)).OnElements("input")
		markdownPolicy.AllowAttrs("checked", "disabled").OnElements("input")
		markdownPolicy.AllowAttrs("id").Matching(regexp.MustCompile(`^[\w-]+$`)).OnElements("h1", "h2", "h3", "h4", "h5", "h6")
		markdownPolicy.RequireNoFollowOnFullyQualifiedLinks(true)
		markdownPolicy.AddTargetBlankToFullyQualifiedLinks(true)
	})
}

// StripHTML removes every tag and returns the remaining text with
// surrounding whitespace trimmed. Entities stay escaped.
func StripHTML(s string) string {
	initPolicies()
	return strings.TrimSpace(strictPolicy.Sanitize(s))
}

// SanitizeMarkdownHTML cleans HTML produced by a markdown renderer from
// untrusted source. External links get rel="nofollow noopener" and open in
// a new tab.
func SanitizeMarkdownHTML(s string) string {
	initPolicies()
	return markdownPolicy.Sanitize(s)
}
