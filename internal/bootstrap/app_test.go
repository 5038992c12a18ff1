package bootstrap

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"portfolio-backend/internal/shared/config"
)

func devConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		Env:                "dev",
		CORSAllowOrigin:    []string{"http://localhost:5173"},
		BaseDomain:         "portify.example",
		MainSiteURL:        "https://portify.example",
		ShareTTL:           24 * time.Hour,
		ShareSweepInterval: time.Hour,
		ObjectStoreType:    "local",
		LocalStoreDir:      t.TempDir(),
	}
}

type client struct {
	t   *testing.T
	app *App
}

func (c client) do(method, host, path, user string, body any) *httptest.ResponseRecorder {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			c.t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Host = host
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req.Header.Set("X-User-Id", user)
	}
	resp := httptest.NewRecorder()
	c.app.Router.ServeHTTP(resp, req)
	return resp
}

func decode(t *testing.T, resp *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(resp.Body.Bytes(), out); err != nil {
		t.Fatalf("decode %q: %v", resp.Body.String(), err)
	}
}

func TestBuildDevFallsBackToMemory(t *testing.T) {
	app, err := Build(context.Background(), devConfig(t))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer app.Close()
	if app.DB != nil || app.Redis != nil {
		t.Fatalf("expected no external connections in dev without urls")
	}
	if app.Router == nil || app.Sweeper == nil {
		t.Fatalf("expected router and sweeper")
	}
}

func TestBuildProductionRequiresDatabase(t *testing.T) {
	cfg := devConfig(t)
	cfg.Env = "production"
	cfg.JWTSecret = "secret"
	if _, err := Build(context.Background(), cfg); err == nil {
		t.Fatalf("expected error without DATABASE_URL in production")
	}
}

func TestBuildClosesDatabaseWhenLaterStepFails(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	mock.ExpectClose()
	orig := openDatabase
	openDatabase = func(context.Context, config.Config) (*sql.DB, error) { return mockDB, nil }
	t.Cleanup(func() { openDatabase = orig })

	cfg := devConfig(t)
	cfg.ShareStore = "redis"
	if _, err := Build(context.Background(), cfg); err == nil {
		t.Fatalf("expected error without REDIS_URL")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("database was not closed: %v", err)
	}
}

func TestPublishShareAndTenantFlow(t *testing.T) {
	app, err := Build(context.Background(), devConfig(t))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer app.Close()
	c := client{t: t, app: app}
	const api = "portify.example"

	resp := c.do(http.MethodPost, api, "/api/v1/documents", "jane", map[string]any{
		"displayName": "Jane Doe",
		"content":     map[string]any{"name": "Jane Doe", "title": "Engineer"},
	})
	if resp.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var doc struct {
		DocumentID string `json:"documentId"`
		URL        string `json:"url"`
	}
	decode(t, resp, &doc)

	resp = c.do(http.MethodPost, api, "/api/v1/documents", "jane", map[string]any{"displayName": "Second"})
	if resp.Code != http.StatusForbidden {
		t.Fatalf("second free document: expected 403, got %d", resp.Code)
	}

	resp = c.do(http.MethodPost, api, "/api/v1/documents/"+doc.DocumentID+"/deploy", "jane", map[string]any{"subdomain": "jane-doe"})
	if resp.Code != http.StatusForbidden {
		t.Fatalf("free deploy: expected 403, got %d", resp.Code)
	}

	resp = c.do(http.MethodPost, api, "/api/v1/dev/profiles/jane/plan", "", map[string]any{"tier": "standard"})
	if resp.Code != http.StatusOK {
		t.Fatalf("set tier: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	resp = c.do(http.MethodPost, api, "/api/v1/documents/"+doc.DocumentID+"/deploy", "jane", map[string]any{"subdomain": "Jane-Doe"})
	if resp.Code != http.StatusOK {
		t.Fatalf("deploy: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	decode(t, resp, &doc)
	if doc.URL != "https://jane-doe.portify.example" {
		t.Fatalf("unexpected public url %q", doc.URL)
	}

	resp = c.do(http.MethodGet, api, "/api/v1/subdomains/check?name=jane-doe", "bob", nil)
	var avail struct {
		Status string `json:"status"`
	}
	decode(t, resp, &avail)
	if avail.Status != "taken" {
		t.Fatalf("expected taken, got %q", avail.Status)
	}

	resp = c.do(http.MethodGet, "jane-doe.portify.example", "/", "", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("tenant: expected 200, got %d", resp.Code)
	}
	var view struct {
		DisplayName  string `json:"displayName"`
		ShowBranding bool   `json:"showBranding"`
	}
	decode(t, resp, &view)
	if view.DisplayName != "Jane Doe" || !view.ShowBranding {
		t.Fatalf("unexpected tenant view %+v", view)
	}

	resp = c.do(http.MethodGet, "nobody.portify.example", "/", "", nil)
	if resp.Code != http.StatusFound || resp.Header().Get("Location") != "https://portify.example" {
		t.Fatalf("unknown tenant: expected redirect, got %d %q", resp.Code, resp.Header().Get("Location"))
	}

	resp = c.do(http.MethodPost, api, "/api/v1/documents/"+doc.DocumentID+"/share", "jane", nil)
	if resp.Code != http.StatusCreated {
		t.Fatalf("share: expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var link struct {
		Token string `json:"token"`
	}
	decode(t, resp, &link)

	resp = c.do(http.MethodGet, api, "/api/v1/s/"+link.Token, "", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("share view: expected 200, got %d", resp.Code)
	}

	resp = c.do(http.MethodDelete, api, "/api/v1/documents/"+doc.DocumentID+"/deploy", "jane", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("undeploy: expected 200, got %d", resp.Code)
	}
	resp = c.do(http.MethodGet, "jane-doe.portify.example", "/", "", nil)
	if resp.Code != http.StatusFound {
		t.Fatalf("undeployed tenant: expected redirect, got %d", resp.Code)
	}
}

func TestAPIRequiresIdentity(t *testing.T) {
	app, err := Build(context.Background(), devConfig(t))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer app.Close()
	c := client{t: t, app: app}

	if resp := c.do(http.MethodGet, "portify.example", "/api/v1/documents", "", nil); resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
	if resp := c.do(http.MethodGet, "portify.example", "/api/v1/health", "", nil); resp.Code != http.StatusOK {
		t.Fatalf("health: expected 200, got %d", resp.Code)
	}
	if resp := c.do(http.MethodGet, "portify.example", "/api/v1/plans", "", nil); resp.Code != http.StatusOK {
		t.Fatalf("plans: expected 200, got %d", resp.Code)
	}
}
