package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestRateLimitPerGroupBuckets(t *testing.T) {
	gin.SetMode(gin.TestMode)
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(func() time.Time { return now })
	rules := map[string]RateLimitRule{
		RateLimitGroupSubdomainCheck: {Rate: 1, Burst: 2},
		RateLimitGroupShareView:      {Rate: 5, Burst: 10},
	}

	r := gin.New()
	r.Use(func(c *gin.Context) {
		SetUserID(c, "user-1")
		c.Next()
	})
	r.GET("/api/v1/subdomains/check", RateLimit(RateLimitConfig{
		DefaultGroup: RateLimitGroupSubdomainCheck,
		Limiter:      limiter,
		Rules:        rules,
	}), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	r.GET("/api/v1/s/:token", RateLimit(RateLimitConfig{
		DefaultGroup: RateLimitGroupShareView,
		Limiter:      limiter,
		Rules:        rules,
	}), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	for i := 0; i < 2; i++ {
		if code := doGet(r, "/api/v1/subdomains/check"); code != http.StatusOK {
			t.Fatalf("check %d expected 200, got %d", i+1, code)
		}
	}
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/subdomains/check", nil))
	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", resp.Code)
	}
	if resp.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}
	var body struct {
		Error struct {
			Code    string         `json:"code"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Code != "rate_limited" || body.Error.Details["retryAfterMs"] == nil {
		t.Fatalf("unexpected body %s", resp.Body.String())
	}

	for i := 0; i < 10; i++ {
		if code := doGet(r, "/api/v1/s/abc"); code != http.StatusOK {
			t.Fatalf("share view %d expected 200, got %d", i+1, code)
		}
	}

	now = now.Add(time.Second)
	if code := doGet(r, "/api/v1/subdomains/check"); code != http.StatusOK {
		t.Fatalf("expected refill after 1s, got %d", code)
	}
}

func doGet(r http.Handler, path string) int {
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
	return resp.Code
}

func TestRateLimiterPrunesRefilledBuckets(t *testing.T) {
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(func() time.Time { return now })
	rule := RateLimitRule{Rate: 1, Burst: 5}

	for i := 0; i < pruneEvery-1; i++ {
		limiter.Allow("ip:10.0.0."+strconv.Itoa(i), rule)
	}
	if got := limiter.Len(); got != pruneEvery-1 {
		t.Fatalf("expected %d buckets, got %d", pruneEvery-1, got)
	}

	now = now.Add(5 * time.Second)
	limiter.Allow("ip:fresh", rule)
	if got := limiter.Len(); got != 1 {
		t.Fatalf("expected idle buckets pruned, got %d", got)
	}
}

func TestRateLimiterRetryAfter(t *testing.T) {
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(func() time.Time { return now })
	rule := RateLimitRule{Rate: 2, Burst: 1}

	if ok, _ := limiter.Allow("k", rule); !ok {
		t.Fatalf("first call should pass")
	}
	ok, wait := limiter.Allow("k", rule)
	if ok || wait != 500*time.Millisecond {
		t.Fatalf("expected 500ms wait, got ok=%v wait=%s", ok, wait)
	}
	if ok, _ := limiter.Allow("k", RateLimitRule{}); !ok {
		t.Fatalf("zero rule must not limit")
	}
}
