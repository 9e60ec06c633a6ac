package handler

import (
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"portfolio/internal/domain"
	"portfolio/internal/services"
	"portfolio/internal/util"
	apperrors "portfolio/pkg/errors"
)

type homePage struct {
	Projects     []domain.Project
	Testimonials []domain.Testimonial
	Skills       []domain.Skill
	Posts        []domain.BlogPost
}

// home renders the landing page. Sections whose query fails are left empty.
func (h *Handler) home(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := h.reqLog(r)
	var (
		page homePage
		err  error
	)
	if page.Projects, err = h.svc.Projects.Featured(ctx, 6); err != nil {
		log.Error("failed to load featured projects", zap.Error(err))
	}
	if page.Testimonials, err = h.svc.Profile.FeaturedTestimonials(ctx); err != nil {
		log.Error("failed to load testimonials", zap.Error(err))
	}
	if page.Skills, err = h.svc.Profile.FeaturedSkills(ctx); err != nil {
		log.Error("failed to load skills", zap.Error(err))
	}
	if page.Posts, err = h.svc.Blog.Published(ctx, 3); err != nil {
		log.Error("failed to load latest posts", zap.Error(err))
	}
	h.render(w, r, http.StatusOK, "home", "Home", page)
}

type projectsPage struct {
	Projects   []domain.Project
	Categories []string
	Selected   string
}

func (h *Handler) projects(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	category := strings.TrimSpace(r.URL.Query().Get("category"))
	filter := category
	if filter == "all" {
		filter = ""
	}
	if category == "" {
		category = "all"
	}

	page := projectsPage{Selected: category}
	var err error
	if page.Projects, err = h.svc.Projects.List(ctx, filter); err != nil {
		h.reqLog(r).Error("failed to load projects", zap.Error(err))
	}
	if page.Categories, err = h.svc.Projects.Categories(ctx); err != nil {
		h.reqLog(r).Error("failed to load categories", zap.Error(err))
	}
	h.render(w, r, http.StatusOK, "projects", "Projects", page)
}

func (h *Handler) projectDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(r)
	if !ok {
		h.redirectWithFlash(w, r, "/projects", services.FlashError, "Project not found")
		return
	}
	project, err := h.svc.Projects.View(r.Context(), id)
	if err != nil {
		if !apperrors.IsNotFound(err) {
			h.reqLog(r).Error("failed to load project", zap.Uint("id", id), zap.Error(err))
		}
		h.redirectWithFlash(w, r, "/projects", services.FlashError, "Project not found")
		return
	}
	h.render(w, r, http.StatusOK, "project_detail", project.Title, project)
}

func (h *Handler) blogList(w http.ResponseWriter, r *http.Request) {
	posts, err := h.svc.Blog.Published(r.Context(), 0)
	if err != nil {
		h.reqLog(r).Error("failed to load blog posts", zap.Error(err))
	}
	h.render(w, r, http.StatusOK, "blog", "Blog", posts)
}

type blogPostPage struct {
	Post    *domain.BlogPost
	Content template.HTML
}

func (h *Handler) blogPost(w http.ResponseWriter, r *http.Request) {
	slug := h.vars(r)["slug"]
	post, err := h.svc.Blog.Read(r.Context(), slug)
	if err != nil {
		if !apperrors.IsNotFound(err) {
			h.reqLog(r).Error("failed to load blog post", zap.String("slug", slug), zap.Error(err))
		}
		h.redirectWithFlash(w, r, "/blog", services.FlashError, "Blog post not found")
		return
	}
	content, err := h.svc.Blog.Render(post.Content)
	if err != nil {
		h.reqLog(r).Error("failed to render markdown", zap.String("slug", slug), zap.Error(err))
		h.redirectWithFlash(w, r, "/blog", services.FlashError, "Blog post not found")
		return
	}
	h.render(w, r, http.StatusOK, "blog_post", post.Title, blogPostPage{Post: post, Content: content})
}

type contactPage struct {
	Form   services.ContactSubmission
	Errors map[string]string
}

func (h *Handler) contactForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "contact", "Contact", contactPage{})
}

// contactSubmit runs the contact pipeline for the HTML form. Invalid input
// re-renders the form; everything else redirects back with a flash.
func (h *Handler) contactSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, http.StatusBadRequest)
		return
	}
	sub := services.ContactSubmission{
		Name:    r.PostForm.Get("name"),
		Email:   r.PostForm.Get("email"),
		Subject: r.PostForm.Get("subject"),
		Message: r.PostForm.Get("message"),
	}

	res, err := h.svc.Contact.Submit(r.Context(), sub, util.ClientIP(r, h.cfg.App.TrustedProxies))
	switch {
	case apperrors.IsValidation(err):
		h.render(w, r, http.StatusOK, "contact", "Contact", contactPage{
			Form:   sub.Normalize(),
			Errors: apperrors.FieldsOf(err),
		})
	case err != nil:
		h.reqLog(r).Error("contact submission failed", zap.Error(err))
		h.redirectWithFlash(w, r, "/contact", services.FlashError, services.ContactFailureMessage)
	default:
		h.redirectWithFlash(w, r, "/contact", res.Outcome.Category(), res.Outcome.Message())
	}
}

func (h *Handler) resumePage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "resume", "Resume", nil)
}

// downloadResume serves the résumé PDF. Only PDF exists; other formats get
// an info flash and the PDF anyway.
func (h *Handler) downloadResume(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	format := strings.ToLower(strings.TrimSpace(q.Get("format")))
	if format == "" {
		format = "pdf"
	}

	file, err := h.svc.Resume.Download(q.Get("name"))
	if err != nil {
		h.reqLog(r).Error("resume download failed", zap.Error(err))
		h.redirectWithFlash(w, r, "/resume", services.FlashError, "Error downloading resume. Please try again.")
		return
	}
	if format != "pdf" {
		h.setFlash(w, services.FlashInfo, "Currently only PDF format is available.")
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	w.Header().Set("Content-Length", fmt.Sprint(len(file.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(file.Data)
}
