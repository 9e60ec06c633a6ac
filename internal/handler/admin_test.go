package handler

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"portfolio/internal/domain"
	"portfolio/internal/services"
)

func TestAdminRequiresLogin(t *testing.T) {
	env := newTestEnv(t)
	for _, path := range []string{"/admin", "/admin/projects", "/admin/messages", "/admin/settings"} {
		resp := env.get(path)
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode, path)
		assert.Equal(t, "/admin/login?next="+url.QueryEscape(path), resp.Header.Get("Location"), path)
	}

	resp := env.postForm("/admin/projects/1/delete", nil)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/admin/login", resp.Header.Get("Location"))
}

func TestAdminRejectsGarbageSession(t *testing.T) {
	env := newTestEnv(t)
	resp := env.get("/admin", &http.Cookie{Name: sessionCookie, Value: "not-a-token"})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	cleared := cookieNamed(resp, sessionCookie)
	require.NotNil(t, cleared)
	assert.Less(t, cleared.MaxAge, 0)
}

func TestLoginFlow(t *testing.T) {
	env := newTestEnv(t)

	t.Run("bad credentials", func(t *testing.T) {
		resp := env.postForm("/admin/login", url.Values{"username": {"admin"}, "password": {"wrong"}})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body(t, resp), "Invalid username or password")
		assert.Nil(t, cookieNamed(resp, sessionCookie))
	})

	t.Run("success", func(t *testing.T) {
		session := env.login(t)
		assert.True(t, session.HttpOnly)
		assert.Zero(t, session.MaxAge, "session cookie without remember me")

		resp := env.get("/admin", session)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body(t, resp), "Dashboard")
	})

	t.Run("remember me", func(t *testing.T) {
		resp := env.postForm("/admin/login", url.Values{
			"username": {"admin"}, "password": {"s3cret-pass"}, "remember_me": {"on"},
		})
		require.Equal(t, http.StatusSeeOther, resp.StatusCode)
		c := cookieNamed(resp, sessionCookie)
		require.NotNil(t, c)
		assert.Greater(t, c.MaxAge, 0)
	})

	t.Run("next is honoured on this site only", func(t *testing.T) {
		resp := env.postForm("/admin/login", url.Values{
			"username": {"admin"}, "password": {"s3cret-pass"}, "next": {"/admin/messages"},
		})
		assert.Equal(t, "/admin/messages", resp.Header.Get("Location"))

		resp = env.postForm("/admin/login", url.Values{
			"username": {"admin"}, "password": {"s3cret-pass"}, "next": {"//evil.example.com/admin"},
		})
		assert.Equal(t, "/admin", resp.Header.Get("Location"))
	})

	t.Run("logged in user skips the form", func(t *testing.T) {
		resp := env.get("/admin/login", env.login(t))
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, "/admin", resp.Header.Get("Location"))
	})

	t.Run("logout", func(t *testing.T) {
		resp := env.postForm("/admin/logout", nil, env.login(t))
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, "/", resp.Header.Get("Location"))
		flashes := flashesOf(t, resp)
		require.Len(t, flashes, 1)
		assert.Equal(t, "Logged out successfully!", flashes[0].Message)
	})
}

func TestAdminPagesRender(t *testing.T) {
	env := newTestEnv(t)
	session := env.login(t)
	require.NoError(t, env.db.Create(&domain.ContactMessage{Name: "Jo", Email: "jo@example.com", Subject: "Hello there", Message: "Body"}).Error)

	for _, path := range []string{
		"/admin", "/admin/projects", "/admin/projects/new", "/admin/blog", "/admin/blog/new",
		"/admin/messages", "/admin/skills", "/admin/testimonials", "/admin/settings",
	} {
		resp := env.get(path, session)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}

func pngUpload(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	fw, err := mw.CreateFormFile("image", "shot.png")
	require.NoError(t, err)
	img := image.NewRGBA(image.Rect(0, 0, 1200, 900))
	img.Set(0, 0, color.White)
	require.NoError(t, png.Encode(fw, img))
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestAdminProjectLifecycle(t *testing.T) {
	env := newTestEnv(t)
	session := env.login(t)

	payload, contentType := pngUpload(t, map[string]string{
		"title":        "Portfolio",
		"description":  "This site",
		"technologies": "Go, SQLite",
		"category":     "Web",
		"featured":     "on",
		csrfField:      env.csrf,
	})
	req := httptest.NewRequest(http.MethodPost, "/admin/projects/new", payload)
	req.Header.Set("Content-Type", contentType)
	resp := env.do(req, session, env.tokenCookie())
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "Project created successfully!", flashesOf(t, resp)[0].Message)

	var p domain.Project
	require.NoError(t, env.db.First(&p).Error)
	assert.True(t, p.Featured)
	require.True(t, strings.HasPrefix(p.ImageURL, "/uploads/projects/"))
	stored := filepath.Join(env.cfg.Uploads.Dir, strings.TrimPrefix(p.ImageURL, "/uploads/"))
	_, err := os.Stat(stored)
	require.NoError(t, err)

	// Editing without a new file keeps the image
	resp = env.postForm(fmt.Sprintf("/admin/projects/%d/edit", p.ID), url.Values{
		"title": {"Portfolio v2"}, "description": {"This site"}, "category": {"Web"},
	}, session)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.NoError(t, env.db.First(&p, p.ID).Error)
	assert.Equal(t, "Portfolio v2", p.Title)
	assert.False(t, p.Featured)
	assert.FileExists(t, stored)

	resp = env.postForm(fmt.Sprintf("/admin/projects/%d/delete", p.ID), nil, session)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "Project deleted successfully!", flashesOf(t, resp)[0].Message)
	assert.NoFileExists(t, stored)

	resp = env.postForm(fmt.Sprintf("/admin/projects/%d/delete", p.ID), nil, session)
	assert.Equal(t, "Error deleting project", flashesOf(t, resp)[0].Message)
}

func TestAdminProjectValidationRerendersForm(t *testing.T) {
	env := newTestEnv(t)
	session := env.login(t)

	resp := env.postForm("/admin/projects/new", url.Values{"title": {""}, "description": {""}}, session)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body(t, resp), "field-error")
}

func TestAdminBlogDuplicateSlug(t *testing.T) {
	env := newTestEnv(t)
	session := env.login(t)
	form := url.Values{"title": {"First"}, "slug": {"first"}, "content": {"Body text"}, "published": {"on"}}

	resp := env.postForm("/admin/blog/new", form, session)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "Blog post created successfully!", flashesOf(t, resp)[0].Message)

	var post domain.BlogPost
	require.NoError(t, env.db.First(&post).Error)
	require.NotNil(t, post.AuthorID)

	resp = env.postForm("/admin/blog/new", form, session)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body(t, resp), "field-error")

	var count int64
	require.NoError(t, env.db.Model(&domain.BlogPost{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestAdminMessages(t *testing.T) {
	env := newTestEnv(t)
	session := env.login(t)
	msg := &domain.ContactMessage{Name: "Jo", Email: "jo@example.com", Subject: "Hello there", Message: "Body"}
	require.NoError(t, env.db.Create(msg).Error)

	resp := env.get(fmt.Sprintf("/admin/messages/%d", msg.ID), session)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body(t, resp), "Hello there")

	var stored domain.ContactMessage
	require.NoError(t, env.db.First(&stored, msg.ID).Error)
	assert.True(t, stored.Read, "viewing marks the message read")

	resp = env.postForm(fmt.Sprintf("/admin/messages/%d/read", msg.ID), nil, session)
	assert.Equal(t, "Message marked as read", flashesOf(t, resp)[0].Message)

	resp = env.postForm(fmt.Sprintf("/admin/messages/%d/delete", msg.ID), nil, session)
	assert.Equal(t, "Message deleted successfully", flashesOf(t, resp)[0].Message)
	assert.ErrorIs(t, env.db.First(&stored, msg.ID).Error, gorm.ErrRecordNotFound)
}

func TestAdminSettings(t *testing.T) {
	env := newTestEnv(t)
	session := env.login(t)

	resp := env.postForm("/admin/settings", url.Values{
		services.SettingSiteName:    {"Renamed"},
		services.SettingSiteTagline: {"Builder of things"},
	}, session)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "Settings updated successfully!", flashesOf(t, resp)[0].Message)

	resp = env.get("/", session)
	html := body(t, resp)
	assert.Contains(t, html, "Renamed")
	assert.Contains(t, html, "Builder of things")
}

func TestAdminSkillsAndTestimonials(t *testing.T) {
	env := newTestEnv(t)
	session := env.login(t)

	resp := env.postForm("/admin/skills", url.Values{"name": {"Go"}, "category": {"Backend"}, "proficiency": {"90"}, "featured": {"on"}}, session)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	resp = env.postForm("/admin/testimonials", url.Values{"client_name": {"Ann"}, "content": {"Great work"}, "rating": {"5"}, "featured": {"on"}}, session)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	html := body(t, env.get("/"))
	assert.Contains(t, html, "Great work")
	assert.Contains(t, html, "Go")
}
