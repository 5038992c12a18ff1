package tenant

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"portfolio-backend/internal/plans"
	"portfolio-backend/internal/shared/server/middleware"
	"portfolio-backend/internal/shared/telemetry"
)

// TierSource reports an owner's current plan tier.
type TierSource interface {
	Tier(ctx context.Context, userID string) (plans.Tier, error)
}

// MiddlewareConfig wires the tenant middleware.
type MiddlewareConfig struct {
	Router      *Router
	Renderer    Renderer
	Tiers       TierSource
	MainSiteURL string
}

// Middleware must run before every other handler. Main-site hosts fall
// through, tenant hosts are rendered and unknown tenants are redirected.
func Middleware(cfg MiddlewareConfig) gin.HandlerFunc {
	renderer := cfg.Renderer
	if renderer == nil {
		renderer = JSONRenderer{}
	}
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		decision := cfg.Router.ResolveHost(ctx, c.Request.Host)
		switch decision.Kind {
		case KindMainSite:
			c.Next()
		case KindTenant:
			doc := decision.Document
			c.Set(middleware.TenantHostKey, decision.Host)
			c.Set(middleware.DocumentIDKey, doc.ID)
			renderer.Render(c, View{
				DocumentID:   doc.ID,
				Subdomain:    doc.Subdomain,
				DisplayName:  doc.DisplayName,
				TemplateID:   doc.TemplateID,
				Content:      doc.Content.Normalize(),
				ShowBranding: showBranding(ctx, cfg.Tiers, doc.OwnerID, doc.HideBranding),
			})
			c.Abort()
		default:
			c.Set(middleware.TenantHostKey, decision.Host)
			c.Redirect(http.StatusFound, cfg.MainSiteURL)
			c.Abort()
		}
	}
}

// showBranding reads the owner's tier at render time; a failed lookup keeps the badge.
func showBranding(ctx context.Context, tiers TierSource, ownerID string, hide bool) bool {
	if !hide || tiers == nil {
		return true
	}
	tier, err := tiers.Tier(ctx, ownerID)
	if err != nil {
		telemetry.Warn("tenant.tier_lookup_failed", map[string]any{
			"owner_id": ownerID,
			"error":    err,
		})
		return true
	}
	return plans.ShowBranding(hide, tier)
}
