package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"portfolio/internal/domain"
	"portfolio/internal/services"
	apperrors "portfolio/pkg/errors"
)

// formPage backs every admin create/edit form
type formPage struct {
	Heading string
	Action  string
	Form    any
	Errors  map[string]string
}

func checked(r *http.Request, field string) bool {
	switch strings.ToLower(r.PostForm.Get(field)) {
	case "on", "true", "1", "yes", "y":
		return true
	}
	return false
}

func formInt(r *http.Request, field string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(r.PostForm.Get(field)))
	return n
}

// formErrors returns the field errors carried by err, or a generic message
func formErrors(err error) map[string]string {
	if fields := apperrors.FieldsOf(err); len(fields) > 0 {
		return fields
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return map[string]string{"form": appErr.Message}
	}
	return map[string]string{"form": err.Error()}
}

func isFormError(err error) bool {
	return apperrors.IsValidation(err) || apperrors.IsConflict(err)
}

// Login

type loginPage struct {
	Username string
	Next     string
	Error    string
}

func (h *Handler) loginForm(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		if _, err := h.svc.Auth.Authenticate(r.Context(), c.Value); err == nil {
			http.Redirect(w, r, "/admin", http.StatusSeeOther)
			return
		}
	}
	h.render(w, r, http.StatusOK, "login", "Admin Login", loginPage{Next: r.URL.Query().Get("next")})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, http.StatusBadRequest)
		return
	}
	username := r.PostForm.Get("username")
	next := r.PostForm.Get("next")
	remember := checked(r, "remember_me")

	session, err := h.svc.Auth.Login(r.Context(), username, r.PostForm.Get("password"), remember)
	if err != nil {
		msg := "Invalid username or password"
		if !apperrors.IsUnauthorized(err) {
			h.reqLog(r).Error("login error", zap.Error(err))
			msg = "Login error. Please try again."
		}
		h.render(w, r, http.StatusOK, "login", "Admin Login", loginPage{Username: username, Next: next, Error: msg})
		return
	}

	h.setSession(w, session, remember)
	h.redirectWithFlash(w, r, safeNext(next), services.FlashSuccess, "Logged in successfully!")
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	h.svc.Auth.Logout(r.Context())
	h.clearSession(w)
	h.redirectWithFlash(w, r, "/", services.FlashSuccess, "Logged out successfully!")
}

// Dashboard

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.Dashboard.Load(r.Context())
	if err != nil {
		h.reqLog(r).Error("failed to load dashboard", zap.Error(err))
		r = withFlash(r, services.FlashError, "Error loading dashboard")
		d = &services.Dashboard{}
	}
	h.render(w, r, http.StatusOK, "admin/dashboard", "Dashboard", d)
}

// Projects

func (h *Handler) adminProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.svc.Projects.All(r.Context())
	if err != nil {
		h.reqLog(r).Error("failed to load projects", zap.Error(err))
		r = withFlash(r, services.FlashError, "Error loading projects")
	}
	h.render(w, r, http.StatusOK, "admin/projects", "Projects", projects)
}

type projectForm struct {
	services.ProjectInput
	ImageURL string
}

func (h *Handler) newProjectForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "admin/project_form", "New Project", formPage{
		Heading: "New Project",
		Action:  "/admin/projects/new",
		Form:    projectForm{},
	})
}

// readProjectForm parses the multipart form and stores an uploaded image
func (h *Handler) readProjectForm(w http.ResponseWriter, r *http.Request) (services.ProjectInput, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.Uploads.MaxBytes+1<<20)
	if err := r.ParseMultipartForm(8 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return services.ProjectInput{}, "", services.NewFieldError("image", "upload is too large")
	}
	if r.PostForm == nil {
		if err := r.ParseForm(); err != nil {
			return services.ProjectInput{}, "", apperrors.Wrap(apperrors.ErrCodeBadRequest, "invalid form", err)
		}
	}

	in := services.ProjectInput{
		Title:        r.PostForm.Get("title"),
		Description:  r.PostForm.Get("description"),
		Technologies: r.PostForm.Get("technologies"),
		GitHubURL:    r.PostForm.Get("github_url"),
		LiveURL:      r.PostForm.Get("live_url"),
		Category:     r.PostForm.Get("category"),
		Featured:     checked(r, "featured"),
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		// No file chosen
		return in, "", nil
	}
	defer file.Close()
	url, err := h.svc.Images.SaveProjectImage(r.Context(), header.Filename, file)
	return in, url, err
}

func (h *Handler) createProject(w http.ResponseWriter, r *http.Request) {
	in, imageURL, err := h.readProjectForm(w, r)
	if err == nil {
		_, err = h.svc.Projects.Create(r.Context(), in, imageURL)
		if err != nil && imageURL != "" {
			h.svc.Images.Discard(r.Context(), imageURL)
		}
	}
	switch {
	case isFormError(err):
		h.render(w, r, http.StatusOK, "admin/project_form", "New Project", formPage{
			Heading: "New Project",
			Action:  "/admin/projects/new",
			Form:    projectForm{ProjectInput: in},
			Errors:  formErrors(err),
		})
	case err != nil:
		h.reqLog(r).Error("failed to create project", zap.Error(err))
		h.redirectWithFlash(w, r, "/admin/projects", services.FlashError, "Error creating project")
	default:
		h.redirectWithFlash(w, r, "/admin/projects", services.FlashSuccess, "Project created successfully!")
	}
}

func (h *Handler) editProjectForm(w http.ResponseWriter, r *http.Request) {
	id, _ := h.idParam(r)
	p, err := h.svc.Projects.Get(r.Context(), id)
	if err != nil {
		h.redirectWithFlash(w, r, "/admin/projects", services.FlashError, "Project not found")
		return
	}
	h.render(w, r, http.StatusOK, "admin/project_form", "Edit Project", formPage{
		Heading: "Edit Project",
		Action:  r.URL.Path,
		Form: projectForm{
			ProjectInput: services.ProjectInput{
				Title:        p.Title,
				Description:  p.Description,
				Technologies: p.Technologies,
				GitHubURL:    p.GitHubURL,
				LiveURL:      p.LiveURL,
				Category:     p.Category,
				Featured:     p.Featured,
			},
			ImageURL: p.ImageURL,
		},
	})
}

func (h *Handler) updateProject(w http.ResponseWriter, r *http.Request) {
	id, _ := h.idParam(r)
	ctx := r.Context()

	previous, err := h.svc.Projects.Get(ctx, id)
	if err != nil {
		h.redirectWithFlash(w, r, "/admin/projects", services.FlashError, "Project not found")
		return
	}

	in, imageURL, err := h.readProjectForm(w, r)
	if err == nil {
		_, err = h.svc.Projects.Update(ctx, id, in, imageURL)
		switch {
		case err != nil && imageURL != "":
			h.svc.Images.Discard(ctx, imageURL)
		case err == nil && imageURL != "" && previous.ImageURL != "":
			h.svc.Images.Discard(ctx, previous.ImageURL)
		}
	}
	switch {
	case isFormError(err):
		h.render(w, r, http.StatusOK, "admin/project_form", "Edit Project", formPage{
			Heading: "Edit Project",
			Action:  r.URL.Path,
			Form:    projectForm{ProjectInput: in, ImageURL: previous.ImageURL},
			Errors:  formErrors(err),
		})
	case err != nil:
		h.reqLog(r).Error("failed to update project", zap.Uint("id", id), zap.Error(err))
		h.redirectWithFlash(w, r, "/admin/projects", services.FlashError, "Error editing project")
	default:
		h.redirectWithFlash(w, r, "/admin/projects", services.FlashSuccess, "Project updated successfully!")
	}
}

func (h *Handler) deleteProject(w http.ResponseWriter, r *http.Request) {
	id, _ := h.idParam(r)
	ctx := r.Context()
	p, err := h.svc.Projects.Get(ctx, id)
	if err == nil {
		err = h.svc.Projects.Delete(ctx, id)
	}
	if err != nil {
		h.reqLog(r).Warn("failed to delete project", zap.Uint("id", id), zap.Error(err))
		h.redirectWithFlash(w, r, "/admin/projects", services.FlashError, "Error deleting project")
		return
	}
	if p.ImageURL != "" {
		h.svc.Images.Discard(ctx, p.ImageURL)
	}
	h.redirectWithFlash(w, r, "/admin/projects", services.FlashSuccess, "Project deleted successfully!")
}

// Blog

func (h *Handler) adminBlog(w http.ResponseWriter, r *http.Request) {
	posts, err := h.svc.Blog.List(r.Context())
	if err != nil {
		h.reqLog(r).Error("failed to load blog posts", zap.Error(err))
		r = withFlash(r, services.FlashError, "Error loading blog posts")
	}
	h.render(w, r, http.StatusOK, "admin/blog", "Blog Posts", posts)
}

func readBlogForm(r *http.Request) (services.BlogInput, error) {
	if err := r.ParseForm(); err != nil {
		return services.BlogInput{}, apperrors.Wrap(apperrors.ErrCodeBadRequest, "invalid form", err)
	}
	return services.BlogInput{
		Title:     r.PostForm.Get("title"),
		Slug:      r.PostForm.Get("slug"),
		Content:   r.PostForm.Get("content"),
		Excerpt:   r.PostForm.Get("excerpt"),
		Published: checked(r, "published"),
	}, nil
}

func (h *Handler) newPostForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "admin/blog_form", "New Blog Post", formPage{
		Heading: "New Blog Post",
		Action:  "/admin/blog/new",
		Form:    services.BlogInput{},
	})
}

func (h *Handler) createPost(w http.ResponseWriter, r *http.Request) {
	in, err := readBlogForm(r)
	if err == nil {
		id, _ := services.IdentityFrom(r.Context())
		_, err = h.svc.Blog.Create(r.Context(), in, id.UserID)
	}
	switch {
	case isFormError(err):
		h.render(w, r, http.StatusOK, "admin/blog_form", "New Blog Post", formPage{
			Heading: "New Blog Post",
			Action:  "/admin/blog/new",
			Form:    in,
			Errors:  formErrors(err),
		})
	case err != nil:
		h.reqLog(r).Error("failed to create blog post", zap.Error(err))
		h.redirectWithFlash(w, r, "/admin/blog", services.FlashError, "Error creating blog post")
	default:
		h.redirectWithFlash(w, r, "/admin/blog", services.FlashSuccess, "Blog post created successfully!")
	}
}

func (h *Handler) editPostForm(w http.ResponseWriter, r *http.Request) {
	id, _ := h.idParam(r)
	post, err := h.svc.Blog.Get(r.Context(), id)
	if err != nil {
		h.redirectWithFlash(w, r, "/admin/blog", services.FlashError, "Blog post not found")
		return
	}
	h.render(w, r, http.StatusOK, "admin/blog_form", "Edit Blog Post", formPage{
		Heading: "Edit Blog Post",
		Action:  r.URL.Path,
		Form: services.BlogInput{
			Title:     post.Title,
			Slug:      post.Slug,
			Content:   post.Content,
			Excerpt:   post.Excerpt,
			Published: post.Published,
		},
	})
}

func (h *Handler) updatePost(w http.ResponseWriter, r *http.Request) {
	id, _ := h.idParam(r)
	in, err := readBlogForm(r)
	if err == nil {
		_, err = h.svc.Blog.Update(r.Context(), id, in)
	}
	switch {
	case apperrors.IsNotFound(err):
		h.redirectWithFlash(w, r, "/admin/blog", services.FlashError, "Blog post not found")
	case isFormError(err):
		h.render(w, r, http.StatusOK, "admin/blog_form", "Edit Blog Post", formPage{
			Heading: "Edit Blog Post",
			Action:  r.URL.Path,
			Form:    in,
			Errors:  formErrors(err),
		})
	case err != nil:
		h.reqLog(r).Error("failed to update blog post", zap.Uint("id", id), zap.Error(err))
		h.redirectWithFlash(w, r, "/admin/blog", services.FlashError, "Error updating blog post")
	default:
		h.redirectWithFlash(w, r, "/admin/blog", services.FlashSuccess, "Blog post updated successfully!")
	}
}

func (h *Handler) deletePost(w http.ResponseWriter, r *http.Request) {
	id, _ := h.idParam(r)
	if err := h.svc.Blog.Delete(r.Context(), id); err != nil {
		h.reqLog(r).Warn("failed to delete blog post", zap.Uint("id", id), zap.Error(err))
		h.redirectWithFlash(w, r, "/admin/blog", services.FlashError, "Error deleting blog post")
		return
	}
	h.redirectWithFlash(w, r, "/admin/blog", services.FlashSuccess, "Blog post deleted successfully!")
}

// Messages

func (h *Handler) adminMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := h.svc.Messages.List(r.Context())
	if err != nil {
		h.reqLog(r).Error("failed to load messages", zap.Error(err))
		r = withFlash(r, services.FlashError, "Error loading messages")
	}
	h.render(w, r, http.StatusOK, "admin/messages", "Messages", messages)
}

func (h *Handler) viewMessage(w http.ResponseWriter, r *http.Request) {
	id, _ := h.idParam(r)
	msg, err := h.svc.Messages.View(r.Context(), id)
	if err != nil {
		if !apperrors.IsNotFound(err) {
			h.reqLog(r).Error("failed to view message", zap.Uint("id", id), zap.Error(err))
		}
		h.redirectWithFlash(w, r, "/admin/messages", services.FlashError, "Error viewing message")
		return
	}
	h.render(w, r, http.StatusOK, "admin/message", msg.Subject, msg)
}

func (h *Handler) markMessageRead(w http.ResponseWriter, r *http.Request) {
	id, _ := h.idParam(r)
	if err := h.svc.Messages.MarkRead(r.Context(), id); err != nil {
		h.reqLog(r).Warn("failed to mark message read", zap.Uint("id", id), zap.Error(err))
		h.redirectWithFlash(w, r, "/admin/messages", services.FlashError, "Error marking message as read")
		return
	}
	h.redirectWithFlash(w, r, backTo(r, "/admin/messages"), services.FlashSuccess, "Message marked as read")
}

func (h *Handler) deleteMessage(w http.ResponseWriter, r *http.Request) {
	id, _ := h.idParam(r)
	if err := h.svc.Messages.Delete(r.Context(), id); err != nil {
		h.reqLog(r).Warn("failed to delete message", zap.Uint("id", id), zap.Error(err))
		h.redirectWithFlash(w, r, "/admin/messages", services.FlashError, "Error deleting message")
		return
	}
	h.redirectWithFlash(w, r, "/admin/messages", services.FlashSuccess, "Message deleted successfully")
}

// backTo returns the referring admin page, or fallback
func backTo(r *http.Request, fallback string) string {
	ref := r.Referer()
	if ref == "" {
		return fallback
	}
	if i := strings.Index(ref, r.Host); i >= 0 {
		ref = ref[i+len(r.Host):]
	}
	if strings.HasPrefix(ref, "/admin") && !strings.HasPrefix(ref, "//") {
		return ref
	}
	return fallback
}

// Skills and testimonials

type skillsPage struct {
	Skills []domain.Skill
	Form   services.SkillInput
	Errors map[string]string
}

func (h *Handler) adminSkills(w http.ResponseWriter, r *http.Request) {
	h.renderSkills(w, r, services.SkillInput{}, nil)
}

func (h *Handler) renderSkills(w http.ResponseWriter, r *http.Request, form services.SkillInput, errs map[string]string) {
	skills, err := h.svc.Profile.Skills(r.Context())
	if err != nil {
		h.reqLog(r).Error("failed to load skills", zap.Error(err))
	}
	h.render(w, r, http.StatusOK, "admin/skills", "Skills", skillsPage{Skills: skills, Form: form, Errors: errs})
}

func (h *Handler) createSkill(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, http.StatusBadRequest)
		return
	}
	in := services.SkillInput{
		Name:        r.PostForm.Get("name"),
		Category:    r.PostForm.Get("category"),
		Proficiency: formInt(r, "proficiency"),
		Featured:    checked(r, "featured"),
	}
	_, err := h.svc.Profile.CreateSkill(r.Context(), in)
	switch {
	case isFormError(err):
		h.renderSkills(w, r, in, formErrors(err))
	case err != nil:
		h.reqLog(r).Error("failed to create skill", zap.Error(err))
		h.redirectWithFlash(w, r, "/admin/skills", services.FlashError, "Error adding skill")
	default:
		h.redirectWithFlash(w, r, "/admin/skills", services.FlashSuccess, "Skill added successfully!")
	}
}

func (h *Handler) deleteSkill(w http.ResponseWriter, r *http.Request) {
	id, _ := h.idParam(r)
	if err := h.svc.Profile.DeleteSkill(r.Context(), id); err != nil {
		h.redirectWithFlash(w, r, "/admin/skills", services.FlashError, "Error deleting skill")
		return
	}
	h.redirectWithFlash(w, r, "/admin/skills", services.FlashSuccess, "Skill deleted successfully!")
}

type testimonialsPage struct {
	Testimonials []domain.Testimonial
	Form         services.TestimonialInput
	Errors       map[string]string
}

func (h *Handler) adminTestimonials(w http.ResponseWriter, r *http.Request) {
	h.renderTestimonials(w, r, services.TestimonialInput{}, nil)
}

func (h *Handler) renderTestimonials(w http.ResponseWriter, r *http.Request, form services.TestimonialInput, errs map[string]string) {
	items, err := h.svc.Profile.Testimonials(r.Context())
	if err != nil {
		h.reqLog(r).Error("failed to load testimonials", zap.Error(err))
	}
	h.render(w, r, http.StatusOK, "admin/testimonials", "Testimonials", testimonialsPage{Testimonials: items, Form: form, Errors: errs})
}

func (h *Handler) createTestimonial(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, http.StatusBadRequest)
		return
	}
	in := services.TestimonialInput{
		ClientName: r.PostForm.Get("client_name"),
		Company:    r.PostForm.Get("company"),
		Content:    r.PostForm.Get("content"),
		Rating:     formInt(r, "rating"),
		Featured:   checked(r, "featured"),
	}
	_, err := h.svc.Profile.CreateTestimonial(r.Context(), in)
	switch {
	case isFormError(err):
		h.renderTestimonials(w, r, in, formErrors(err))
	case err != nil:
		h.reqLog(r).Error("failed to create testimonial", zap.Error(err))
		h.redirectWithFlash(w, r, "/admin/testimonials", services.FlashError, "Error adding testimonial")
	default:
		h.redirectWithFlash(w, r, "/admin/testimonials", services.FlashSuccess, "Testimonial added successfully!")
	}
}

func (h *Handler) deleteTestimonial(w http.ResponseWriter, r *http.Request) {
	id, _ := h.idParam(r)
	if err := h.svc.Profile.DeleteTestimonial(r.Context(), id); err != nil {
		h.redirectWithFlash(w, r, "/admin/testimonials", services.FlashError, "Error deleting testimonial")
		return
	}
	h.redirectWithFlash(w, r, "/admin/testimonials", services.FlashSuccess, "Testimonial deleted successfully!")
}

// Settings

type settingsPage struct {
	Keys   []string
	Values map[string]string
	Errors map[string]string
}

func (h *Handler) settingsForm(w http.ResponseWriter, r *http.Request) {
	values, err := h.svc.Settings.All(r.Context())
	if err != nil {
		h.reqLog(r).Error("failed to load settings", zap.Error(err))
	}
	h.render(w, r, http.StatusOK, "admin/settings", "Settings", settingsPage{Keys: services.SettingKeys, Values: values})
}

func (h *Handler) saveSettings(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, http.StatusBadRequest)
		return
	}
	values := make(map[string]string, len(services.SettingKeys))
	for _, key := range services.SettingKeys {
		values[key] = r.PostForm.Get(key)
	}

	err := h.svc.Settings.Save(r.Context(), values)
	switch {
	case isFormError(err):
		h.render(w, r, http.StatusOK, "admin/settings", "Settings", settingsPage{Keys: services.SettingKeys, Values: values, Errors: formErrors(err)})
	case err != nil:
		h.reqLog(r).Error("failed to save settings", zap.Error(err))
		h.redirectWithFlash(w, r, "/admin/settings", services.FlashError, "Error updating settings")
	default:
		h.redirectWithFlash(w, r, "/admin/settings", services.FlashSuccess, "Settings updated successfully!")
	}
}
