package handler

import (
	"net/http"

	"go.uber.org/zap"
	goahttp "goa.design/goa/v3/http"

	"portfolio/internal/services"
	"portfolio/internal/util"
	apperrors "portfolio/pkg/errors"
)

const maxJSONBody = 64 << 10

type projectJSON struct {
	ID           uint   `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Technologies string `json:"technologies"`
	GitHubURL    string `json:"github_url"`
	LiveURL      string `json:"live_url"`
	ImageURL     string `json:"image_url"`
	Category     string `json:"category"`
	Views        int    `json:"views"`
}

func (h *Handler) apiProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.svc.Projects.All(r.Context())
	if err != nil {
		h.reqLog(r).Error("API error - projects", zap.Error(err))
		h.writeJSON(w, r, http.StatusInternalServerError, errorBody{Error: "Unable to fetch projects"})
		return
	}

	out := make([]projectJSON, 0, len(projects))
	for _, p := range projects {
		out = append(out, projectJSON{
			ID:           p.ID,
			Title:        p.Title,
			Description:  p.Description,
			Technologies: p.Technologies,
			GitHubURL:    p.GitHubURL,
			LiveURL:      p.LiveURL,
			ImageURL:     p.ImageURL,
			Category:     p.Category,
			Views:        p.Views,
		})
	}
	h.writeJSON(w, r, http.StatusOK, out)
}

// contactRequest uses pointers so absent keys can be told apart from empty ones
type contactRequest struct {
	Name    *string `json:"name"`
	Email   *string `json:"email"`
	Subject *string `json:"subject"`
	Message *string `json:"message"`
}

type contactResponse struct {
	Message          string `json:"message"`
	Outcome          string `json:"outcome"`
	OperatorNotified bool   `json:"operator_notified"`
	ConfirmationSent bool   `json:"confirmation_sent"`
}

// apiContact runs the same pipeline as the HTML form
func (h *Handler) apiContact(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)

	var body contactRequest
	if err := goahttp.RequestDecoder(r).Decode(&body); err != nil ||
		body.Name == nil || body.Email == nil || body.Subject == nil || body.Message == nil {
		h.writeJSON(w, r, http.StatusBadRequest, errorBody{Error: "Missing required fields"})
		return
	}

	sub := services.ContactSubmission{Name: *body.Name, Email: *body.Email, Subject: *body.Subject, Message: *body.Message}
	res, err := h.svc.Contact.Submit(r.Context(), sub, util.ClientIP(r, h.cfg.App.TrustedProxies))
	switch {
	case apperrors.IsValidation(err):
		h.writeJSON(w, r, http.StatusBadRequest, errorBody{Error: "Invalid contact form", Fields: apperrors.FieldsOf(err)})
	case err != nil:
		h.reqLog(r).Error("API error - contact", zap.Error(err))
		h.writeJSON(w, r, http.StatusInternalServerError, errorBody{Error: "Unable to send message"})
	default:
		h.writeJSON(w, r, http.StatusCreated, contactResponse{
			Message:          "Contact message sent successfully",
			Outcome:          string(res.Outcome),
			OperatorNotified: res.OperatorNotified,
			ConfirmationSent: res.ConfirmationSent,
		})
	}
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	res := h.svc.Health.Check(r.Context())
	status := http.StatusOK
	if res.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	h.writeJSON(w, r, status, res)
}
