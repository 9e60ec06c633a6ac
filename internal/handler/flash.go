package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
)

const flashCookie = "portfolio_flash"

// flash is a one-shot message shown on the next rendered page
type flash struct {
	Category string `json:"c"`
	Message  string `json:"m"`
}

// setFlash queues a message for the next page the browser renders
func (h *Handler) setFlash(w http.ResponseWriter, category, message string) {
	raw, err := json.Marshal([]flash{{Category: category, Message: message}})
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    base64.RawURLEncoding.EncodeToString(raw),
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cfg.Auth.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// takeFlashes reads and clears the queued messages
func (h *Handler) takeFlashes(w http.ResponseWriter, r *http.Request) []flash {
	c, err := r.Cookie(flashCookie)
	if err != nil || c.Value == "" {
		return nil
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})

	raw, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return nil
	}
	var flashes []flash
	if err := json.Unmarshal(raw, &flashes); err != nil {
		return nil
	}
	return flashes
}

// redirectWithFlash queues a message and redirects with 303 See Other
func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, to, category, message string) {
	h.setFlash(w, category, message)
	http.Redirect(w, r, to, http.StatusSeeOther)
}

type pendingFlashesKey struct{}

// withFlash attaches a message to the page rendered for this request
func withFlash(r *http.Request, category, message string) *http.Request {
	pending, _ := r.Context().Value(pendingFlashesKey{}).([]flash)
	pending = append(pending[:len(pending):len(pending)], flash{Category: category, Message: message})
	return r.WithContext(context.WithValue(r.Context(), pendingFlashesKey{}, pending))
}

func pendingFlashes(r *http.Request) []flash {
	pending, _ := r.Context().Value(pendingFlashesKey{}).([]flash)
	return pending
}
