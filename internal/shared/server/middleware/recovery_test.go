package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"portfolio-backend/internal/shared/telemetry"
)

func TestRecoveryReturns500AndLogs(t *testing.T) {
	var buf bytes.Buffer
	telemetry.SetOutput(&buf, false)
	t.Cleanup(func() { telemetry.Init("test") })

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID(), Recovery())
	router.GET("/boom", func(c *gin.Context) {
		c.Set(DocumentIDKey, "doc-1")
		panic("kaboom")
	})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
	logged := buf.String()
	for _, want := range []string{"request.panic", "kaboom", "doc-1"} {
		if !strings.Contains(logged, want) {
			t.Fatalf("expected %q in log, got %s", want, logged)
		}
	}
}

func TestRequestIDReusesValidHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID())
	router.GET("/", func(c *gin.Context) { c.String(http.StatusOK, RequestIDFromContext(c)) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Body.String() != "abc-123" || resp.Header().Get("X-Request-Id") != "abc-123" {
		t.Fatalf("expected forwarded id, got %q", resp.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "bad id\twith spaces")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if got := resp.Body.String(); got == "" || strings.ContainsAny(got, " \t") {
		t.Fatalf("expected regenerated id, got %q", got)
	}
}
