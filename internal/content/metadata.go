package content

import (
	"html"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dmitrymomot/bxsite/pkg/sanitizer"
)

const (
	maxDescriptionLen = 160
	longTitleLen      = 50
)

var (
	headingRe  = regexp.MustCompile(`(?m)^#\s+(.+)$`)
	numberedRe = regexp.MustCompile(`^\d+\.`)
	boldRe     = regexp.MustCompile(`\*\*(.+?)\*\*`)
	italicRe   = regexp.MustCompile(`\*(.+?)\*`)
	linkRe     = regexp.MustCompile(`\[(.+?)\]\(.+?\)`)
	codeRe     = regexp.MustCompile("`(.+?)`")
)

// Metadata is the SEO summary of a markdown document.
type Metadata struct {
	Title       string
	Description string
}

// ExtractMetadata takes the title from the first level-one heading and the
// description from the first prose line. Lines that open a heading, list,
// code span, quote or numbered item are skipped. Inline emphasis, links
// and code are reduced to their text and the result is capped at 160
// characters.
func ExtractMetadata(markdown string) Metadata {
	if strings.TrimSpace(markdown) == "" {
		return Metadata{}
	}

	var m Metadata
	if match := headingRe.FindStringSubmatch(markdown); match != nil {
		m.Title = strings.TrimSpace(match[1])
	}

	for line := range strings.SplitSeq(markdown, "\n") {
		line = strings.TrimSpace(line)
		if !isProse(line) {
			continue
		}

		desc := boldRe.ReplaceAllString(line, "$1")
		desc = italicRe.ReplaceAllString(desc, "$1")
		desc = linkRe.ReplaceAllString(desc, "$1")
		desc = codeRe.ReplaceAllString(desc, "$1")
		desc = html.UnescapeString(sanitizer.StripHTML(desc))
		if desc == "" {
			continue
		}

		if utf8.RuneCountInString(desc) > maxDescriptionLen {
			desc = truncate(desc, maxDescriptionLen-3) + "..."
		}
		m.Description = desc
		break
	}

	if m.Description == "" && utf8.RuneCountInString(m.Title) > longTitleLen {
		m.Description = truncate(m.Title, maxDescriptionLen-3) + "..."
	}

	return m
}

func isProse(line string) bool {
	if line == "" {
		return false
	}
	switch line[0] {
	case '#', '-', '*', '`', '>':
		return false
	}
	return !numberedRe.MatchString(line)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// TitleFromIdentifier turns "my-cool-site" into "My Cool Site".
func TitleFromIdentifier(identifier string) string {
	words := strings.Split(identifier, "-")
	for i, w := range words {
		if w == "" {
			continue
		}
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
