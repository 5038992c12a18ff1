package templates

import (
	"context"

	"github.com/gin-gonic/gin"

	"portfolio-backend/internal/plans"
	"portfolio-backend/internal/shared/server/middleware"
	"portfolio-backend/internal/shared/server/respond"
)

// TierSource reports an owner's current plan tier.
type TierSource interface {
	Tier(ctx context.Context, userID string) (plans.Tier, error)
}

type Handler struct {
	Tiers TierSource
}

func NewHandler(tiers TierSource) *Handler {
	return &Handler{Tiers: tiers}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/templates", h.list)
}

type templateView struct {
	Template
	Available bool `json:"available"`
}

func (h *Handler) list(c *gin.Context) {
	tier, err := h.Tiers.Tier(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		respond.Failure(c, err)
		return
	}
	all := All()
	out := make([]templateView, 0, len(all))
	for _, t := range all {
		out = append(out, templateView{
			Template:  t,
			Available: !t.Premium || plans.CanUsePremiumTemplate(tier),
		})
	}
	respond.OK(c, gin.H{"tier": tier, "templates": out})
}
