package sharelinks

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"portfolio-backend/internal/plans"
	"portfolio-backend/internal/shared/server/middleware"
	"portfolio-backend/internal/shared/server/respond"
	"portfolio-backend/internal/shared/telemetry"
)

// TierSource reports an owner's current plan tier.
type TierSource interface {
	Tier(ctx context.Context, userID string) (plans.Tier, error)
}

// Handler exposes share link routes.
type Handler struct {
	Mgr         *Manager
	Tiers       TierSource
	MainSiteURL string
}

func NewHandler(mgr *Manager, tiers TierSource, mainSiteURL string) *Handler {
	return &Handler{Mgr: mgr, Tiers: tiers, MainSiteURL: strings.TrimRight(mainSiteURL, "/")}
}

// RegisterPublicRoutes attaches the unauthenticated viewer route.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup, extra ...gin.HandlerFunc) {
	handlers := append(append([]gin.HandlerFunc{}, extra...), h.view)
	rg.GET("/s/:token", handlers...)
}

// RegisterRoutes attaches owner routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/documents/:id/share", h.issue)
	rg.DELETE("/shares/:token", h.revoke)
}

func (h *Handler) issue(c *gin.Context) {
	snap, err := h.Mgr.Issue(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"))
	if err != nil {
		respond.Failure(c, err)
		return
	}
	c.Set(middleware.DocumentIDKey, snap.DocumentID)
	respond.Created(c, IssueResponse{
		Token:     snap.Token,
		URL:       h.MainSiteURL + "/s/" + snap.Token,
		ExpiresAt: snap.ExpiresAt,
	})
}

func (h *Handler) revoke(c *gin.Context) {
	if err := h.Mgr.Revoke(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("token")); err != nil {
		respond.Failure(c, err)
		return
	}
	respond.NoContent(c)
}

func (h *Handler) view(c *gin.Context) {
	ctx := c.Request.Context()
	snap, err := h.Mgr.Resolve(ctx, c.Param("token"))
	if err != nil {
		respond.Failure(c, err)
		return
	}
	c.Set(middleware.DocumentIDKey, snap.DocumentID)
	respond.Private(c)
	respond.OK(c, SharedView{
		DisplayName:  snap.DisplayName,
		TemplateID:   snap.TemplateID,
		Content:      snap.Content,
		ShowBranding: h.showBranding(ctx, snap),
		ExpiresAt:    snap.ExpiresAt,
		ViewCount:    snap.ViewCount,
	})
}

// showBranding reads the owner's tier at view time; a failed lookup keeps the badge.
func (h *Handler) showBranding(ctx context.Context, snap Snapshot) bool {
	if !snap.HideBranding || h.Tiers == nil {
		return true
	}
	tier, err := h.Tiers.Tier(ctx, snap.OwnerID)
	if err != nil {
		telemetry.Warn("share.tier_lookup_failed", map[string]any{
			"document_id": snap.DocumentID,
			"error":       err,
		})
		return true
	}
	return plans.ShowBranding(snap.HideBranding, tier)
}
