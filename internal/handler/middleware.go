package handler

import (
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"portfolio/internal/services"
	"portfolio/internal/util"
	apperrors "portfolio/pkg/errors"
)

const sessionCookie = "portfolio_session"

// requireAdmin resolves the session cookie into an Identity. Anonymous or
// expired sessions go to the login page; non-admins get the 403 page.
func (h *Handler) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(sessionCookie)
		if err != nil || c.Value == "" {
			h.redirectToLogin(w, r)
			return
		}

		id, err := h.svc.Auth.Authenticate(r.Context(), c.Value)
		switch {
		case apperrors.IsForbidden(err):
			h.renderError(w, r, http.StatusForbidden)
			return
		case apperrors.IsUnauthorized(err):
			h.clearSession(w)
			h.redirectToLogin(w, r)
			return
		case err != nil:
			h.reqLog(r).Error("session check failed", zap.Error(err))
			h.renderError(w, r, http.StatusInternalServerError)
			return
		}

		next(w, r.WithContext(services.WithIdentity(r.Context(), id)))
	}
}

func (h *Handler) redirectToLogin(w http.ResponseWriter, r *http.Request) {
	target := "/admin/login"
	if r.Method == http.MethodGet && r.URL.Path != "/admin/logout" {
		target += "?next=" + url.QueryEscape(r.URL.RequestURI())
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (h *Handler) setSession(w http.ResponseWriter, s *services.Session, remember bool) {
	c := &http.Cookie{
		Name:     sessionCookie,
		Value:    s.Token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cfg.Auth.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
	// Without "remember me" the cookie ends with the browser session
	if remember {
		c.Expires = s.ExpiresAt
		c.MaxAge = int(time.Until(s.ExpiresAt).Seconds())
	}
	http.SetCookie(w, c)
}

func (h *Handler) clearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cfg.Auth.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// limited applies a per-address, per-minute limit to next. Rejected requests
// get the 429 page, or JSON under /api/.
func (h *Handler) limited(scope string, perMinute int, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ok, retry := h.svc.Limiter.Allow(r.Context(), scope, util.ClientIP(r, h.cfg.App.TrustedProxies), perMinute)
		if !ok {
			secs := int(math.Ceil(retry.Seconds()))
			if secs < 1 {
				secs = 1
			}
			w.Header().Set("Retry-After", fmt.Sprint(secs))
			h.renderError(w, r, http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}

// safeNext keeps post-login redirects on this site's admin pages
func safeNext(next string) string {
	if strings.HasPrefix(next, "/admin") && !strings.HasPrefix(next, "//") && !strings.Contains(next, "\\") {
		return next
	}
	return "/admin"
}
