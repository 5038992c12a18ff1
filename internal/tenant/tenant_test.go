package tenant

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"portfolio-backend/internal/documents"
	"portfolio-backend/internal/plans"
	"portfolio-backend/internal/shared/apperr"
	"portfolio-backend/internal/subdomains"
)

type tierMap struct {
	mu    sync.Mutex
	tiers map[string]plans.Tier
}

func newTierMap(pairs ...any) *tierMap {
	m := &tierMap{tiers: make(map[string]plans.Tier)}
	for i := 0; i+1 < len(pairs); i += 2 {
		m.tiers[pairs[i].(string)] = pairs[i+1].(plans.Tier)
	}
	return m
}

func (m *tierMap) Tier(ctx context.Context, userID string) (plans.Tier, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return plans.ParseTier(string(m.tiers[userID])), nil
}

func (m *tierMap) set(userID string, tier plans.Tier) {
	m.mu.Lock()
	m.tiers[userID] = tier
	m.mu.Unlock()
}

type env struct {
	repo   *documents.MemoryRepo
	docs   *documents.Service
	tiers  *tierMap
	pub    *Publisher
	router *Router
}

func newEnv(t *testing.T) env {
	t.Helper()
	repo := documents.NewMemoryRepo()
	tiers := newTierMap("alice", plans.TierStandard, "bob", plans.TierPro, "carol", plans.TierFree)
	return env{
		repo:   repo,
		docs:   documents.NewService(repo, tiers),
		tiers:  tiers,
		pub:    NewPublisher(repo, tiers),
		router: NewRouter("portify.example", repo),
	}
}

func (e env) create(t *testing.T, owner, name string) documents.Document {
	t.Helper()
	doc, err := e.docs.Create(context.Background(), owner, documents.CreateInput{DisplayName: name})
	if err != nil {
		t.Fatalf("create %s: %v", name, err)
	}
	return doc
}

func TestResolveHostTenantThenNotFoundAfterUndeploy(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	doc := e.create(t, "alice", "Alice")
	if _, err := e.pub.Deploy(ctx, "alice", doc.ID, "alice"); err != nil {
		t.Fatalf("Deploy: %v", err)
	}

	d := e.router.ResolveHost(ctx, "Alice.Portify.Example:443")
	if d.Kind != KindTenant || d.Document.ID != doc.ID {
		t.Fatalf("expected tenant %s, got %+v", doc.ID, d)
	}

	if _, err := e.pub.Undeploy(ctx, "alice", doc.ID); err != nil {
		t.Fatalf("Undeploy: %v", err)
	}
	if d := e.router.ResolveHost(ctx, "alice.portify.example"); d.Kind != KindNotFound {
		t.Fatalf("expected not found after undeploy, got %+v", d)
	}
}

func TestResolveHostMainSite(t *testing.T) {
	e := newEnv(t)
	for _, host := range []string{
		"www.portify.example",
		"api.portify.example",
		"admin.portify.example",
		"portify.example",
		"localhost:8080",
		"app.localhost",
		"127.0.0.1:8080",
		"[::1]:8080",
		"intranet",
	} {
		if d := e.router.ResolveHost(context.Background(), host); d.Kind != KindMainSite {
			t.Fatalf("%s: expected main site, got %+v", host, d)
		}
	}
}

type failingLookup struct{}

func (failingLookup) GetBySubdomain(ctx context.Context, subdomain string) (documents.Document, error) {
	return documents.Document{}, apperr.Unavailable("documents.get_by_subdomain", errors.New("timeout"))
}

func TestResolveHostFailsClosed(t *testing.T) {
	r := NewRouter("portify.example", failingLookup{})
	if d := r.ResolveHost(context.Background(), "alice.portify.example"); d.Kind != KindNotFound {
		t.Fatalf("expected not found on store failure, got %+v", d)
	}
	if d := r.ResolveHost(context.Background(), "www.portify.example"); d.Kind != KindMainSite {
		t.Fatalf("reserved label must not touch the store, got %+v", d)
	}
}

func TestResolveHostReservedButNotDeployed(t *testing.T) {
	e := newEnv(t)
	doc := e.create(t, "alice", "Alice")
	if err := e.repo.ReserveSubdomain(context.Background(), "alice", doc.ID); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if d := e.router.ResolveHost(context.Background(), "alice.portify.example"); d.Kind != KindNotFound {
		t.Fatalf("undeployed document must not resolve, got %+v", d)
	}
}

func TestDeployDeniedOnFreeBeforeAnySideEffect(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	doc := e.create(t, "carol", "Carol")

	_, err := e.pub.Deploy(ctx, "carol", doc.ID, "carol")
	var denied *plans.DeniedError
	if !errors.As(err, &denied) || denied.Capability != plans.CapabilityDeploySubdomain {
		t.Fatalf("expected deploy denial, got %v", err)
	}
	if _, err := e.repo.GetBySubdomain(ctx, "carol"); !errors.Is(err, documents.ErrNotFound) {
		t.Fatalf("denied deploy must not reserve, got %v", err)
	}
}

func TestDeployInvalidAndReserved(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	doc := e.create(t, "alice", "Jo")

	for _, requested := range []string{"", "Jo", "www", "bad_label"} {
		_, err := e.pub.Deploy(ctx, "alice", doc.ID, requested)
		var invalid *subdomains.InvalidError
		if !errors.As(err, &invalid) {
			t.Fatalf("%q: expected invalid, got %v", requested, err)
		}
	}
}

func TestDeployDerivesFromDisplayName(t *testing.T) {
	e := newEnv(t)
	doc := e.create(t, "alice", "Alice Smith")
	got, err := e.pub.Deploy(context.Background(), "alice", doc.ID, "")
	if err != nil {
		t.Fatalf("Deploy: %v", err)
	}
	if got.Subdomain != "alice-smith" || !got.IsDeployed || got.DeploymentID == "" {
		t.Fatalf("unexpected deployed doc %+v", got)
	}
}

func TestDeployConcurrentSameCandidate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.create(t, "alice", "A")
	b := e.create(t, "bob", "B")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, pair := range [][2]string{{"alice", a.ID}, {"bob", b.ID}} {
		wg.Add(1)
		go func(i int, owner, id string) {
			defer wg.Done()
			_, errs[i] = e.pub.Deploy(ctx, owner, id, "shared-name")
		}(i, pair[0], pair[1])
	}
	wg.Wait()

	ok, conflict := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, documents.ErrConflict):
			conflict++
		default:
			t.Fatalf("unexpected error %v", err)
		}
	}
	if ok != 1 || conflict != 1 {
		t.Fatalf("expected one winner, got ok=%d conflict=%d", ok, conflict)
	}
}

type failingMark struct {
	*documents.MemoryRepo
}

func (failingMark) MarkDeployed(ctx context.Context, documentID, deploymentID string, at time.Time) error {
	return apperr.Unavailable("documents.mark_deployed", errors.New("timeout"))
}

func TestDeployReleasesReservationWhenMarkFails(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	doc := e.create(t, "alice", "Alice")
	pub := NewPublisher(failingMark{e.repo}, e.tiers)

	if _, err := pub.Deploy(ctx, "alice", doc.ID, "alice"); !errors.Is(err, apperr.ErrUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
	got, _ := e.repo.GetByID(ctx, doc.ID)
	if got.Subdomain != "" || got.IsDeployed {
		t.Fatalf("reservation should be released, got %+v", got)
	}
}

// markOnce fails the first MarkDeployed call after running during.
type markOnce struct {
	*documents.MemoryRepo
	failed bool
	during func()
}

func (m *markOnce) MarkDeployed(ctx context.Context, documentID, deploymentID string, at time.Time) error {
	if !m.failed {
		m.failed = true
		if m.during != nil {
			m.during()
		}
		return apperr.Unavailable("documents.mark_deployed", errors.New("timeout"))
	}
	return m.MemoryRepo.MarkDeployed(ctx, documentID, deploymentID, at)
}

func TestRedeployFailureKeepsPreviousDeployment(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	doc := e.create(t, "alice", "Alice")
	live, err := e.pub.Deploy(ctx, "alice", doc.ID, "alice")
	if err != nil {
		t.Fatalf("Deploy: %v", err)
	}

	var duringKind Kind
	flaky := &markOnce{MemoryRepo: e.repo}
	flaky.during = func() {
		duringKind = e.router.ResolveHost(ctx, "alice-new.portify.example").Kind
	}
	pub := NewPublisher(flaky, e.tiers)
	if _, err := pub.Deploy(ctx, "alice", doc.ID, "alice-new"); !errors.Is(err, apperr.ErrUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
	if duringKind == KindTenant {
		t.Fatalf("new label must not serve before the live flag is set")
	}

	got, _ := e.repo.GetByID(ctx, doc.ID)
	if got.Subdomain != "alice" || !got.IsDeployed || got.DeploymentID != live.DeploymentID {
		t.Fatalf("previous deployment should be restored, got %+v", got)
	}
	if d := e.router.ResolveHost(ctx, "alice.portify.example"); d.Kind != KindTenant {
		t.Fatalf("old host should still serve, got %s", d.Kind)
	}
	if d := e.router.ResolveHost(ctx, "alice-new.portify.example"); d.Kind != KindNotFound {
		t.Fatalf("new host should not serve, got %s", d.Kind)
	}
	other := e.create(t, "bob", "Bob")
	if err := e.repo.ReserveSubdomain(ctx, "alice-new", other.ID); err != nil {
		t.Fatalf("new label should be free again: %v", err)
	}
}

func TestRedeploySameLabelFailureStaysLive(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	doc := e.create(t, "alice", "Alice")
	if _, err := e.pub.Deploy(ctx, "alice", doc.ID, "alice"); err != nil {
		t.Fatalf("Deploy: %v", err)
	}
	pub := NewPublisher(failingMark{e.repo}, e.tiers)
	if _, err := pub.Deploy(ctx, "alice", doc.ID, "alice"); !errors.Is(err, apperr.ErrUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
	if d := e.router.ResolveHost(ctx, "alice.portify.example"); d.Kind != KindTenant {
		t.Fatalf("deployment should stay live, got %s", d.Kind)
	}
}

func TestDeployOtherOwnersDocumentNotFound(t *testing.T) {
	e := newEnv(t)
	doc := e.create(t, "alice", "Alice")
	if _, err := e.pub.Deploy(context.Background(), "bob", doc.ID, "alice"); !errors.Is(err, documents.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestMiddlewareRoutesByHost(t *testing.T) {
	gin.SetMode(gin.TestMode)
	e := newEnv(t)
	ctx := context.Background()
	doc := e.create(t, "bob", "Bob")
	hide := true
	if _, err := e.docs.Update(ctx, "bob", doc.ID, documents.UpdateInput{HideBranding: &hide}); err != nil {
		t.Fatalf("hide branding: %v", err)
	}
	if _, err := e.pub.Deploy(ctx, "bob", doc.ID, "bob"); err != nil {
		t.Fatalf("Deploy: %v", err)
	}

	engine := gin.New()
	engine.Use(Middleware(MiddlewareConfig{
		Router:      e.router,
		Tiers:       e.tiers,
		MainSiteURL: "https://portify.example",
	}))
	engine.GET("/api/v1/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	serve := func(host string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
		req.Host = host
		resp := httptest.NewRecorder()
		engine.ServeHTTP(resp, req)
		return resp
	}

	if resp := serve("www.portify.example"); resp.Code != http.StatusOK {
		t.Fatalf("main site should pass through, got %d", resp.Code)
	}

	resp := serve("bob.portify.example")
	if resp.Code != http.StatusOK {
		t.Fatalf("tenant should render, got %d", resp.Code)
	}
	var view View
	if err := json.Unmarshal(resp.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.DocumentID != doc.ID || view.ShowBranding {
		t.Fatalf("unexpected view %+v", view)
	}

	e.tiers.set("bob", plans.TierStandard)
	resp = serve("bob.portify.example")
	if err := json.Unmarshal(resp.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !view.ShowBranding {
		t.Fatalf("downgrade should restore branding")
	}

	resp = serve("ghost.portify.example")
	if resp.Code != http.StatusFound || resp.Header().Get("Location") != "https://portify.example" {
		t.Fatalf("expected redirect to main site, got %d %q", resp.Code, resp.Header().Get("Location"))
	}
}
