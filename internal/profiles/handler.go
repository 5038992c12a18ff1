package profiles

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"portfolio-backend/internal/plans"
	"portfolio-backend/internal/shared/server/respond"
)

// Handler exposes tier management. Payment verification happens elsewhere;
// these routes are only registered in dev-like environments.
type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterDevRoutes attaches the tier override route.
func (h *Handler) RegisterDevRoutes(rg *gin.RouterGroup) {
	rg.POST("/profiles/:id/plan", h.setPlan)
}

type setPlanRequest struct {
	Tier string `json:"tier" binding:"required"`
}

func (h *Handler) setPlan(c *gin.Context) {
	var req setPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "tier is required", nil)
		return
	}
	p, err := h.Svc.SetTier(c.Request.Context(), c.Param("id"), req.Tier)
	if err != nil {
		respond.Failure(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{
		"userId":       p.UserID,
		"tier":         p.Tier,
		"capabilities": plans.CapabilitiesFor(p.Tier),
		"updatedAt":    p.UpdatedAt,
	})
}
