// Package handler implements the public site, the JSON API, the admin panel
// and the chat socket on top of the services package.
package handler

import (
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	goahttp "goa.design/goa/v3/http"

	"portfolio/internal/config"
	"portfolio/internal/services"
)

// Services groups everything the handlers call into
type Services struct {
	Contact   *services.ContactService
	Projects  *services.ProjectService
	Blog      *services.BlogService
	Messages  *services.MessageService
	Profile   *services.ProfileService
	Settings  *services.SettingsService
	Dashboard *services.DashboardService
	Auth      *services.AuthService
	Images    *services.ImageService
	Resume    *services.ResumeService
	Chat      *services.ChatService
	Health    *services.HealthService
	Limiter   *services.RateLimiter
}

// Handler serves every dynamic route
type Handler struct {
	svc      Services
	cfg      *config.Config
	views    *renderer
	log      *zap.Logger
	vars     func(*http.Request) map[string]string
	upgrader websocket.Upgrader
}

// New creates a handler and parses the embedded page templates
func New(cfg *config.Config, svc Services, log *zap.Logger) (*Handler, error) {
	views, err := newRenderer()
	if err != nil {
		return nil, err
	}
	h := &Handler{
		svc:   svc,
		cfg:   cfg,
		views: views,
		log:   log.Named("http"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	h.upgrader.CheckOrigin = h.checkOrigin
	return h, nil
}

// Mount registers every route on mux
func (h *Handler) Mount(mux goahttp.Muxer) {
	h.vars = mux.Vars

	// Public pages
	mux.Handle("GET", "/", h.home)
	mux.Handle("GET", "/projects", h.projects)
	mux.Handle("GET", "/project/{id}", h.projectDetail)
	mux.Handle("GET", "/blog", h.blogList)
	mux.Handle("GET", "/blog/{slug}", h.blogPost)
	mux.Handle("GET", "/contact", h.contactForm)
	mux.Handle("POST", "/contact", h.limited("contact", h.cfg.RateLimit.ContactPerMinute, h.csrfProtect(h.contactSubmit)))
	mux.Handle("GET", "/resume", h.resumePage)
	mux.Handle("GET", "/download/resume", h.downloadResume)

	// API
	mux.Handle("GET", "/api/projects", h.apiProjects)
	mux.Handle("POST", "/api/contact", h.limited("api_contact", h.cfg.RateLimit.APIContactPerMinute, h.apiContact))
	mux.Handle("GET", "/health", h.health)
	mux.Handle("GET", "/ws/chat", h.chat)

	// Admin
	mux.Handle("GET", "/admin/login", h.loginForm)
	mux.Handle("POST", "/admin/login", h.csrfProtect(h.login))
	mux.Handle("GET", "/admin/logout", h.requireAdmin(h.logout))
	mux.Handle("POST", "/admin/logout", h.requireAdmin(h.csrfProtect(h.logout)))
	mux.Handle("GET", "/admin", h.requireAdmin(h.dashboard))

	mux.Handle("GET", "/admin/projects", h.requireAdmin(h.adminProjects))
	mux.Handle("GET", "/admin/projects/new", h.requireAdmin(h.newProjectForm))
	mux.Handle("POST", "/admin/projects/new", h.requireAdmin(h.csrfProtect(h.createProject)))
	mux.Handle("GET", "/admin/projects/{id}/edit", h.requireAdmin(h.editProjectForm))
	mux.Handle("POST", "/admin/projects/{id}/edit", h.requireAdmin(h.csrfProtect(h.updateProject)))
	mux.Handle("POST", "/admin/projects/{id}/delete", h.requireAdmin(h.csrfProtect(h.deleteProject)))

	mux.Handle("GET", "/admin/blog", h.requireAdmin(h.adminBlog))
	mux.Handle("GET", "/admin/blog/new", h.requireAdmin(h.newPostForm))
	mux.Handle("POST", "/admin/blog/new", h.requireAdmin(h.csrfProtect(h.createPost)))
	mux.Handle("GET", "/admin/blog/{id}/edit", h.requireAdmin(h.editPostForm))
	mux.Handle("POST", "/admin/blog/{id}/edit", h.requireAdmin(h.csrfProtect(h.updatePost)))
	mux.Handle("POST", "/admin/blog/{id}/delete", h.requireAdmin(h.csrfProtect(h.deletePost)))

	mux.Handle("GET", "/admin/messages", h.requireAdmin(h.adminMessages))
	mux.Handle("GET", "/admin/messages/{id}", h.requireAdmin(h.viewMessage))
	mux.Handle("POST", "/admin/messages/{id}/read", h.requireAdmin(h.csrfProtect(h.markMessageRead)))
	mux.Handle("POST", "/admin/messages/{id}/delete", h.requireAdmin(h.csrfProtect(h.deleteMessage)))

	mux.Handle("GET", "/admin/skills", h.requireAdmin(h.adminSkills))
	mux.Handle("POST", "/admin/skills", h.requireAdmin(h.csrfProtect(h.createSkill)))
	mux.Handle("POST", "/admin/skills/{id}/delete", h.requireAdmin(h.csrfProtect(h.deleteSkill)))

	mux.Handle("GET", "/admin/testimonials", h.requireAdmin(h.adminTestimonials))
	mux.Handle("POST", "/admin/testimonials", h.requireAdmin(h.csrfProtect(h.createTestimonial)))
	mux.Handle("POST", "/admin/testimonials/{id}/delete", h.requireAdmin(h.csrfProtect(h.deleteTestimonial)))

	mux.Handle("GET", "/admin/settings", h.requireAdmin(h.settingsForm))
	mux.Handle("POST", "/admin/settings", h.requireAdmin(h.csrfProtect(h.saveSettings)))
}

// NotFound renders the 404 page, or JSON under /api/
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.renderError(w, r, http.StatusNotFound)
}

// ServerError renders the 500 page, or JSON under /api/
func (h *Handler) ServerError(w http.ResponseWriter, r *http.Request) {
	h.renderError(w, r, http.StatusInternalServerError)
}

// idParam parses the {id} path segment
func (h *Handler) idParam(r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(h.vars(r)["id"], 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.cfg.CORS.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	// Same-host connections are always allowed
	return origin == "http://"+r.Host || origin == "https://"+r.Host
}
