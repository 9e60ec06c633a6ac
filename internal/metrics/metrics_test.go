package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestEndpointLabel(t *testing.T) {
	cases := map[string]string{
		"":                       "/",
		"/":                      "/",
		"/blog":                  "/blog",
		"/blog/my-first-post":    "/blog",
		"/project/12":            "/project",
		"/admin":                 "/admin",
		"/admin/projects/3/edit": "/admin/projects",
		"/api/contact":           "/api/contact",
		"/static/css/site.css":   "/static",
		"/download/resume":       "/download",
	}
	for path, want := range cases {
		assert.Equal(t, want, EndpointLabel(path), path)
	}
}

func TestPrometheusMiddlewareRecordsStatus(t *testing.T) {
	handler := PrometheusMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/project", "418"))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/project/99", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/project", "418"))
	assert.Equal(t, before+1, after)
}

func TestRecordEmailDelivery(t *testing.T) {
	before := testutil.ToFloat64(emailDeliveriesTotal.WithLabelValues("operator", "failed"))
	RecordEmailDelivery("operator", "failed")
	assert.Equal(t, before+1, testutil.ToFloat64(emailDeliveriesTotal.WithLabelValues("operator", "failed")))
}
