package content

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/bxsite/internal/routing"
	"github.com/dmitrymomot/bxsite/internal/sites"
	"github.com/dmitrymomot/bxsite/pkg/logger"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// SiteGetter loads a site record. *sites.Index satisfies it.
type SiteGetter interface {
	GetSite(ctx context.Context, identifier string) (*sites.Site, error)
}

// Handler serves published sites at /content/{identifier}.
type Handler struct {
	sites    SiteGetter
	renderer *Renderer
	logger   *slog.Logger
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithLogger sets the logger used for render failures.
func WithLogger(l *slog.Logger) HandlerOption {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// NewHandler creates a content Handler.
func NewHandler(s SiteGetter, r *Renderer, opts ...HandlerOption) *Handler {
	h := &Handler{sites: s, renderer: r, logger: logger.NewNope()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes registers the content route on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/content/{identifier}", h.ServeHTTP)
}

// ServeHTTP renders the site named by the identifier URL parameter.
// Requests whose host routing decision does not allow content, such as an
// unverified custom domain asking for /content/<id> directly, get 404.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if d, ok := routing.FromContext(r.Context()); ok && !d.ServesContent() {
		h.notFound(w)
		return
	}

	identifier := sites.NormalizeIdentifier(chi.URLParam(r, "identifier"))
	if !sites.ValidIdentifier(identifier) {
		h.notFound(w)
		return
	}

	site, err := h.sites.GetSite(r.Context(), identifier)
	if errors.Is(err, sites.ErrSiteNotFound) {
		h.notFound(w)
		return
	}
	if err != nil {
		h.fail(w, r, identifier, err)
		return
	}

	page, err := h.renderer.Render(site)
	if err != nil {
		h.fail(w, r, identifier, err)
		return
	}

	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, "page", page); err != nil {
		h.fail(w, r, identifier, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (h *Handler) notFound(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	_ = pages.ExecuteTemplate(w, "not_found", nil)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, identifier string, err error) {
	h.logger.ErrorContext(r.Context(), "failed to serve site content",
		slog.String("identifier", identifier),
		slog.Any("error", err))
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}
