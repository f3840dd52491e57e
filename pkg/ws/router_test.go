package ws

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRouter_Responses(t *testing.T) {
	const body = "<html>hi</html>"

	router := newRouter(body, nil)

	tests := []struct {
		method string
		target string
		status int
		body   string
	}{
		{http.MethodGet, "/", http.StatusOK, body},
		{http.MethodGet, "/x/index.html", http.StatusOK, body},
		{http.MethodGet, "/a/b/index.html?v=1", http.StatusOK, body},
		{http.MethodGet, "/other", http.StatusBadRequest, "Illegal request-target"},
		{http.MethodGet, "/index.htm", http.StatusBadRequest, "Illegal request-target"},
		{http.MethodPost, "/", http.StatusBadRequest, "Unknown HTTP-method"},
		{http.MethodDelete, "/index.html", http.StatusBadRequest, "Unknown HTTP-method"},
		{http.MethodHead, "/", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.target, nil))

			if rec.Code != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, rec.Code)
			}

			if got := rec.Body.String(); got != tt.body {
				t.Errorf("expected body %q, got %q", tt.body, got)
			}

			if got := rec.Header().Get("Content-Type"); got != "text/html" {
				t.Errorf("expected text/html, got %q", got)
			}
		})
	}
}

func TestRouter_HeadReportsLength(t *testing.T) {
	const body = "<html>hello</html>"

	rec := httptest.NewRecorder()
	newRouter(body, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodHead, "/", nil))

	if got := rec.Header().Get("Content-Length"); got != strconv.Itoa(len(body)) {
		t.Errorf("expected Content-Length %d, got %q", len(body), got)
	}

	if rec.Body.Len() != 0 {
		t.Errorf("HEAD response carried a body: %q", rec.Body.String())
	}
}

func TestRouter_CountsResponses(t *testing.T) {
	metrics := NewMetrics(WithRegistry(prometheus.NewRegistry()))
	router := newRouter("x", metrics)

	for _, target := range []string{"/", "/index.html", "/nope"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, target, nil))
	}

	if got := testutil.ToFloat64(metrics.httpResponses.WithLabelValues("200")); got != 2 {
		t.Errorf("expected 2 responses with 200, got %v", got)
	}

	if got := testutil.ToFloat64(metrics.httpResponses.WithLabelValues("400")); got != 1 {
		t.Errorf("expected 1 response with 400, got %v", got)
	}
}
