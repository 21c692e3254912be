package web

import (
	"bytes"
	"embed"
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/csrf"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"voidsyn/internal/adapters/email"
	"voidsyn/internal/adapters/http/middleware"
	"voidsyn/internal/domain/entitlement"
	"voidsyn/internal/domain/lesson"
	"voidsyn/internal/domain/user"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// mdRenderer is a goldmark instance configured for safe HTML output.
// Raw HTML in markdown input is escaped (WithUnsafe is NOT set).
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// internalError logs the real error and returns a generic message to the client.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// maxBodyBytes bounds JSON and webhook request bodies.
const maxBodyBytes = 1 << 20

// decodeBody decodes a JSON request body. Unknown fields are ignored.
func decodeBody(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func isHTMLRequest(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "text/html") || strings.Contains(accept, "application/xhtml+xml")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("json_encode_failed", "error", err)
	}
}

func jsonError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func plainText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	w.Write([]byte(msg))
}

func (s *server) renderTemplate(w http.ResponseWriter, r *http.Request, templateName string, data any) {
	s.renderStatus(w, r, http.StatusOK, templateName, data)
}

func (s *server) renderStatus(w http.ResponseWriter, r *http.Request, status int, templateName string, data any) {
	u, _ := middleware.GetUserFromContext(r.Context())

	funcMap := template.FuncMap{
		"currentUser":    func() *user.User { return u },
		"isLoggedIn":     func() bool { return u != nil },
		"hasPro":         func() bool { return u.HasProClaim() },
		"csrfToken":      func() string { return csrf.Token(r) },
		"requestID":      func() string { return middleware.RequestIDFromContext(r.Context()) },
		"isPro":          func(e lesson.Entry) bool { return e.IsPro() },
		"title":          func(e lesson.Entry) string { return e.DisplayTitle() },
		"formatPrice":    func(o entitlement.Offer) string { return email.FormatAmount(o.AmountMinor, o.Currency) },
		"add":            func(a, b int) int { return a + b },
		"sub":            func(a, b int) int { return a - b },
		"renderMarkdown": renderMarkdown,
	}

	tpl, err := template.New("layout.html").Funcs(funcMap).ParseFS(templateFS,
		"templates/layout.html", "templates/"+templateName)
	if err != nil {
		internalError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		internalError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// notFound renders the 404 page for browsers and plain text otherwise.
func (s *server) notFound(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.NotFound(w, r)
		return
	}
	s.renderStatus(w, r, http.StatusNotFound, "404.html", nil)
}

// serverError renders the 500 page. Used by the panic recovery middleware.
func (s *server) serverError(w http.ResponseWriter, r *http.Request) {
	if !isHTMLRequest(r) {
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	s.renderStatus(w, r, http.StatusInternalServerError, "500.html", nil)
}

// pageError maps an unexpected error to the 500 page or a plain response.
func (s *server) pageError(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("internal_error", "path", r.URL.Path, "request_id", middleware.RequestIDFromContext(r.Context()), "error", err.Error())
	s.serverError(w, r)
}

// renderMarkdown converts lesson summary Markdown to HTML. Raw HTML in the
// source is escaped by mdRenderer.
func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}
