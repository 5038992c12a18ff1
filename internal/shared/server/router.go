package server

import (
	"time"

	"github.com/gin-gonic/gin"

	"portfolio-backend/internal/account"
	"portfolio-backend/internal/documents"
	"portfolio-backend/internal/imports"
	"portfolio-backend/internal/profiles"
	"portfolio-backend/internal/services/health"
	"portfolio-backend/internal/shared/auth"
	"portfolio-backend/internal/shared/config"
	"portfolio-backend/internal/shared/metrics"
	"portfolio-backend/internal/shared/server/middleware"
	"portfolio-backend/internal/sharelinks"
	"portfolio-backend/internal/subdomains"
	"portfolio-backend/internal/templates"
	"portfolio-backend/internal/tenant"
)

// RouterDeps carries the handlers mounted by NewRouter.
type RouterDeps struct {
	Config          config.Config
	Verifier        *auth.Verifier
	Tenant          gin.HandlerFunc
	Health          *health.Service
	AccountHandler  *account.Handler
	DocumentHandler *documents.Handler
	ImportHandler   *imports.Handler
	DeployHandler   *tenant.Handler
	ShareHandler    *sharelinks.Handler
	SubdomainCheck  *subdomains.Handler
	TemplateHandler *templates.Handler
	ProfileHandler  *profiles.Handler
	RateLimiter     *middleware.RateLimiter
}

// Public endpoints that are cheap to hammer get their own buckets.
var defaultRateLimitRules = map[string]middleware.RateLimitRule{
	middleware.RateLimitGroupShareView:      {Rate: 5, Burst: 30},
	middleware.RateLimitGroupSubdomainCheck: {Rate: 2, Burst: 10},
}

// NewRouter constructs the Gin engine with middleware and routes registered.
// The tenant middleware runs ahead of routing so custom subdomains never
// reach the API.
func NewRouter(deps RouterDeps) *gin.Engine {
	if !deps.Config.IsDevLike() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// Request id, logging and recovery wrap the tenant middleware only so that
	// tenant renders and redirects are logged and panic-safe; it still runs
	// before CORS, auth and every route.
	global := []gin.HandlerFunc{
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
	}
	if deps.Tenant != nil {
		global = append(global, deps.Tenant)
	}
	global = append(global, middleware.CORS(deps.Config.CORSAllowOrigin))
	r.Use(global...)

	limiter := deps.RateLimiter
	if limiter == nil {
		limiter = middleware.NewRateLimiter(time.Now)
	}
	limit := func(group string) gin.HandlerFunc {
		return middleware.RateLimit(middleware.RateLimitConfig{
			Rules:        defaultRateLimitRules,
			DefaultGroup: group,
			Limiter:      limiter,
		})
	}

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	if deps.Health != nil {
		deps.Health.RegisterRoutes(api)
	}
	if deps.AccountHandler != nil {
		deps.AccountHandler.RegisterPublicRoutes(api)
	}
	if deps.ShareHandler != nil {
		deps.ShareHandler.RegisterPublicRoutes(api, limit(middleware.RateLimitGroupShareView))
	}

	authed := api.Group("")
	authed.Use(middleware.Auth(middleware.AuthConfig{
		Verifier:       deps.Verifier,
		AllowDevHeader: deps.Config.IsDevLike(),
	}))
	if deps.AccountHandler != nil {
		deps.AccountHandler.RegisterRoutes(authed)
	}
	if deps.DocumentHandler != nil {
		deps.DocumentHandler.RegisterRoutes(authed)
	}
	if deps.ImportHandler != nil {
		deps.ImportHandler.RegisterRoutes(authed)
	}
	if deps.DeployHandler != nil {
		deps.DeployHandler.RegisterRoutes(authed)
	}
	if deps.ShareHandler != nil {
		deps.ShareHandler.RegisterRoutes(authed)
	}
	if deps.SubdomainCheck != nil {
		deps.SubdomainCheck.RegisterRoutes(authed, limit(middleware.RateLimitGroupSubdomainCheck))
	}
	if deps.TemplateHandler != nil {
		deps.TemplateHandler.RegisterRoutes(authed)
	}

	if deps.Config.IsDevLike() && deps.ProfileHandler != nil {
		dev := api.Group("/dev", middleware.DevAdmin(deps.Config.DevAdminToken))
		deps.ProfileHandler.RegisterDevRoutes(dev)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
