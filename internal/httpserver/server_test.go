package httpserver

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"portfolio/internal/config"
	"portfolio/internal/handler"
)

func newTestRoot(t *testing.T) (http.Handler, *config.Config) {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		App: config.AppConfig{Name: "Portfolio", StaticDir: filepath.Join(dir, "static")},
		CORS: config.CORSConfig{
			AllowedOrigins: []string{"https://example.com", "portfolio.example.org"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type"},
			MaxAge:         600,
		},
		Mail:    config.MailConfig{SiteName: "Test Site"},
		Uploads: config.UploadConfig{Dir: filepath.Join(dir, "uploads"), URLPrefix: "/uploads"},
	}
	require.NoError(t, os.MkdirAll(filepath.Join(cfg.App.StaticDir, "css"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.App.StaticDir, "css", "site.css"), []byte("body{}"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(cfg.Uploads.Dir, "projects"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Uploads.Dir, "projects", "a.png"), []byte("png"), 0o644))

	h, err := handler.New(cfg, handler.Services{}, zap.NewNop())
	require.NoError(t, err)
	return NewHandler(cfg, h, zap.NewNop()), cfg
}

func serve(root http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	root.ServeHTTP(rec, req)
	return rec
}

func TestSecurityHeadersAndRequestID(t *testing.T) {
	root, _ := newTestRoot(t)
	rec := serve(root, httptest.NewRequest(http.MethodGet, "/static/css/site.css", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "body{}", rec.Body.String())
}

func TestIncomingRequestIDIsKept(t *testing.T) {
	root, _ := newTestRoot(t)
	req := httptest.NewRequest(http.MethodGet, "/static/css/site.css", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := serve(root, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestUploadsServed(t *testing.T) {
	root, _ := newTestRoot(t)
	rec := serve(root, httptest.NewRequest(http.MethodGet, "/uploads/projects/a.png", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "png", rec.Body.String())

	rec = serve(root, httptest.NewRequest(http.MethodGet, "/uploads/projects/", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUnknownRouteRendersNotFoundPage(t *testing.T) {
	root, _ := newTestRoot(t)
	rec := serve(root, httptest.NewRequest(http.MethodGet, "/no/such/page", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Page Not Found")

	rec = serve(root, httptest.NewRequest(http.MethodGet, "/api/nothing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
}

func TestMetricsEndpoint(t *testing.T) {
	root, _ := newTestRoot(t)
	serve(root, httptest.NewRequest(http.MethodGet, "/static/css/site.css", nil))

	rec := serve(root, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "http_requests_total"))
}

func TestCORS(t *testing.T) {
	root, _ := newTestRoot(t)

	t.Run("allowed origin preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/contact", nil)
		req.Header.Set("Origin", "https://example.com")
		rec := serve(root, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "https://example.com", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "600", rec.Header().Get("Access-Control-Max-Age"))
	})

	t.Run("bare host entry", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/contact", nil)
		req.Header.Set("Origin", "https://portfolio.example.org")
		rec := serve(root, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("foreign origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/contact", nil)
		req.Header.Set("Origin", "https://evil.example.net")
		rec := serve(root, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("pages ignore origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/static/css/site.css", nil)
		req.Header.Set("Origin", "https://evil.example.net")
		rec := serve(root, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestRecovererRendersServerError(t *testing.T) {
	var failed bool
	h := recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}), zap.NewNop(), func(w http.ResponseWriter, _ *http.Request) {
		failed = true
		w.WriteHeader(http.StatusInternalServerError)
	})

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, failed)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestOriginAllowed(t *testing.T) {
	allowed := []string{"https://a.example", "b.example"}
	assert.True(t, originAllowed("https://a.example", allowed))
	assert.True(t, originAllowed("http://b.example:8080", allowed))
	assert.False(t, originAllowed("https://c.example", allowed))
	assert.True(t, originAllowed("https://anything", []string{"*"}))
}
