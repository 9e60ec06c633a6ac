package handler

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

const (
	csrfCookie = "portfolio_csrf"
	csrfField  = "csrf_token"
)

// newCSRFToken returns "<nonce>.<mac>" signed with the session secret
func (h *Handler) newCSRFToken() string {
	nonce := make([]byte, 32)
	_, _ = rand.Read(nonce)
	n := base64.RawURLEncoding.EncodeToString(nonce)
	return n + "." + h.signCSRF(n)
}

func (h *Handler) signCSRF(nonce string) string {
	mac := hmac.New(sha256.New, []byte(h.cfg.Auth.SecretKey))
	mac.Write([]byte("csrf:" + nonce))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func (h *Handler) validCSRF(token string) bool {
	nonce, sig, ok := strings.Cut(token, ".")
	if !ok || nonce == "" {
		return false
	}
	return hmac.Equal([]byte(sig), []byte(h.signCSRF(nonce)))
}

// csrfToken returns the browser's token, issuing a new cookie when it has
// none or the one it sent was not signed by us.
func (h *Handler) csrfToken(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(csrfCookie); err == nil && h.validCSRF(c.Value) {
		return c.Value
	}
	token := h.newCSRFToken()
	http.SetCookie(w, &http.Cookie{
		Name:     csrfCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cfg.Auth.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return token
}

// csrfProtect rejects form posts whose csrf_token field does not match the
// signed csrf cookie.
func (h *Handler) csrfProtect(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			r.Body = http.MaxBytesReader(w, r.Body, h.cfg.Uploads.MaxBytes+1<<20)
			if err := r.ParseMultipartForm(8 << 20); err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					h.renderError(w, r, http.StatusRequestEntityTooLarge)
					return
				}
				h.renderError(w, r, http.StatusBadRequest)
				return
			}
		}

		c, err := r.Cookie(csrfCookie)
		submitted := r.PostFormValue(csrfField)
		if err != nil || !h.validCSRF(c.Value) || !hmac.Equal([]byte(submitted), []byte(c.Value)) {
			h.reqLog(r).Warn("rejected form post without a valid csrf token", zap.String("path", r.URL.Path))
			h.renderError(w, r, http.StatusForbidden)
			return
		}
		next(w, r)
	}
}
