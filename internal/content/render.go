package content

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/dmitrymomot/bxsite/internal/sites"
	"github.com/dmitrymomot/bxsite/pkg/sanitizer"
)

// SiteName is shown in page metadata.
const SiteName = "bxsite"

// Page is everything the page template needs.
type Page struct {
	Title        string
	Description  string
	CanonicalURL string
	SiteName     string
	Body         template.HTML
}

// Renderer converts site markdown into sanitized HTML pages.
// It is safe for concurrent use.
type Renderer struct {
	md       goldmark.Markdown
	platform string
}

// NewRenderer creates a Renderer for sites served under platformDomain.
func NewRenderer(platformDomain string) *Renderer {
	return &Renderer{
		platform: platformDomain,
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
			// Single newlines are line breaks, as in the editor preview.
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
	}
}

// Render builds the page for site. Raw HTML in the markdown is never
// passed through, and the rendered output is sanitized again.
func (r *Renderer) Render(site *sites.Site) (*Page, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(site.Content), &buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}

	meta := ExtractMetadata(site.Content)
	page := &Page{
		Title:        meta.Title,
		Description:  meta.Description,
		CanonicalURL: CanonicalURL(site, r.platform),
		SiteName:     SiteName,
		Body:         template.HTML(sanitizer.SanitizeMarkdownHTML(buf.String())), //nolint:gosec // sanitized above
	}
	if page.Title == "" {
		page.Title = TitleFromIdentifier(site.Identifier)
	}
	if page.Description == "" {
		page.Description = fmt.Sprintf("View %s on %s", site.Identifier, SiteName)
	}
	return page, nil
}

// CanonicalURL is the verified custom domain when there is one, otherwise
// the platform subdomain.
func CanonicalURL(site *sites.Site, platformDomain string) string {
	if site.CustomDomain != "" && site.Verified {
		return "https://" + site.CustomDomain
	}
	return "https://" + site.Identifier + "." + platformDomain
}
