package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/muroom-studio/muroom-admin/middleware"
)

func TestAPIProxyForwards(t *testing.T) {
	var gotPath, gotQuery, gotRequestID string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotRequestID = r.Header.Get("X-Request-ID")
		w.WriteHeader(http.StatusTeapot)
	}))
	defer upstream.Close()

	proxy, err := NewAPIProxy(upstream.URL)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	RegisterRoutes(router, Handlers{Proxy: proxy})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/studios/filter-options?x=1", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusTeapot {
		t.Errorf("Expected upstream status, got %d", w.Code)
	}
	if gotPath != "/api/v1/studios/filter-options" || gotQuery != "x=1" {
		t.Errorf("Unexpected forwarded url %s?%s", gotPath, gotQuery)
	}
	if gotRequestID != "abc-123" {
		t.Errorf("Expected request id forwarded, got %q", gotRequestID)
	}
}

func TestAPIProxyUnavailable(t *testing.T) {
	upstream := httptest.NewServer(http.NotFoundHandler())
	url := upstream.URL
	upstream.Close()

	proxy, err := NewAPIProxy(url)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	router := gin.New()
	RegisterRoutes(router, Handlers{Proxy: proxy})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/terms", nil))
	if w.Code != http.StatusBadGateway {
		t.Errorf("Expected status 502, got %d", w.Code)
	}

	if _, err := NewAPIProxy("not a url"); err == nil {
		t.Error("Expected error for invalid upstream url")
	}
}
