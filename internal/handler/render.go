package handler

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"
	goahttp "goa.design/goa/v3/http"
	goamiddleware "goa.design/goa/v3/middleware"

	"portfolio/internal/services"
)

//go:embed templates
var templateFS embed.FS

// view is the data every page template receives
type view struct {
	Title       string
	Site        map[string]string
	Flashes     []flash
	Identity    *services.Identity
	CSRFToken   string
	ChatEnabled bool
	Path        string
	Year        int
	Data        any
}

type renderer struct {
	pages map[string]*template.Template
}

var templateFuncs = template.FuncMap{
	"date": func(t time.Time) string {
		return t.Format("January 2, 2006")
	},
	"datetime": func(t time.Time) string {
		return t.Format("Jan 2, 2006 15:04")
	},
	"timeSince": func(t time.Time) string {
		return services.TimeSince(t, time.Now())
	},
	"truncate": func(s string, n int) string {
		r := []rune(s)
		if len(r) <= n {
			return s
		}
		return strings.TrimSpace(string(r[:n])) + "..."
	},
	"hasPrefix": strings.HasPrefix,
}

// newRenderer parses each page together with the shared layouts. Pages under
// templates/admin use the admin layout.
func newRenderer() (*renderer, error) {
	base, err := template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/layouts/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse layouts: %w", err)
	}

	r := &renderer{pages: make(map[string]*template.Template)}
	for _, dir := range []string{"pages", "admin"} {
		files, err := fs.Glob(templateFS, "templates/"+dir+"/*.html")
		if err != nil {
			return nil, err
		}
		for _, file := range files {
			t, err := template.Must(base.Clone()).ParseFS(templateFS, file)
			if err != nil {
				return nil, fmt.Errorf("failed to parse %s: %w", file, err)
			}
			name := strings.TrimSuffix(path.Base(file), ".html")
			if dir == "admin" {
				name = "admin/" + name
			}
			r.pages[name] = t
		}
	}
	return r, nil
}

func layoutFor(page string) string {
	if strings.HasPrefix(page, "admin/") {
		return "admin"
	}
	return "base"
}

// render executes page into a buffer first so a template error never leaves
// a half-written response.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, page, title string, data any) {
	t, ok := h.views.pages[page]
	if !ok {
		h.log.Error("unknown template", zap.String("page", page))
		http.Error(w, "Could not load template", http.StatusInternalServerError)
		return
	}

	v := view{
		Title:       title,
		Site:        h.siteSettings(r),
		Flashes:     append(h.takeFlashes(w, r), pendingFlashes(r)...),
		CSRFToken:   h.csrfToken(w, r),
		ChatEnabled: h.cfg.Features.ChatEnabled,
		Path:        r.URL.Path,
		Year:        time.Now().Year(),
		Data:        data,
	}
	if id, ok := services.IdentityFrom(r.Context()); ok {
		v.Identity = id
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, layoutFor(page), v); err != nil {
		h.log.Error("failed to render template", zap.String("page", page), zap.Error(err))
		http.Error(w, "Could not render template", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (h *Handler) siteSettings(r *http.Request) map[string]string {
	if h.svc.Settings == nil {
		return map[string]string{services.SettingSiteName: h.cfg.Mail.SiteName}
	}
	site, err := h.svc.Settings.All(r.Context())
	if err != nil {
		h.log.Warn("failed to load site settings", zap.Error(err))
	}
	return site
}

var errorPages = map[int]struct{ title, text string }{
	http.StatusBadRequest:            {"Bad Request", "The request could not be understood."},
	http.StatusNotFound:              {"Page Not Found", "The page you are looking for does not exist or has been moved."},
	http.StatusForbidden:             {"Access Forbidden", "You do not have permission to view this page."},
	http.StatusRequestEntityTooLarge: {"File Too Large", "The uploaded file is too large."},
	http.StatusTooManyRequests:       {"Too Many Requests", "You are sending requests too quickly. Please wait a minute and try again."},
	http.StatusInternalServerError:   {"Server Error", "Something went wrong on our side. Please try again later."},
}

// renderError writes the error page for status, or a JSON error for API routes
func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, status int) {
	page, ok := errorPages[status]
	if !ok {
		page = errorPages[http.StatusInternalServerError]
	}
	if strings.HasPrefix(r.URL.Path, "/api/") {
		h.writeJSON(w, r, status, errorBody{Error: page.title})
		return
	}
	h.render(w, r, status, "error", page.title, struct {
		Status int
		Text   string
	}{status, page.text})
}

type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// writeJSON encodes v with goa's response encoder
func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	enc := goahttp.ResponseEncoder(r.Context(), w)
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "application/json")
	}
	w.WriteHeader(status)
	if err := enc.Encode(v); err != nil {
		h.log.Error("failed to encode response", zap.Error(err))
	}
}

func requestID(r *http.Request) string {
	id, _ := r.Context().Value(goamiddleware.RequestIDKey).(string)
	return id
}

// reqLog returns the handler logger tagged with the request id
func (h *Handler) reqLog(r *http.Request) *zap.Logger {
	if id := requestID(r); id != "" {
		return h.log.With(zap.String("request_id", id))
	}
	return h.log
}
