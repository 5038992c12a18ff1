package account

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"portfolio-backend/internal/plans"
	"portfolio-backend/internal/shared/server/middleware"
	"portfolio-backend/internal/shared/server/respond"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterPublicRoutes attaches the pricing catalog.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.GET("/plans", h.catalog)
}

// RegisterRoutes attaches caller-scoped routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", h.me)
	rg.GET("/me/plan", h.plan)
}

type planResponse struct {
	Tier                  plans.Tier `json:"tier"`
	Name                  string     `json:"name"`
	PriceCents            int        `json:"priceCents"`
	MaxDocuments          *int       `json:"maxDocuments"`
	AllowDeploy           bool       `json:"allowDeploy"`
	AllowBrandingRemoval  bool       `json:"allowBrandingRemoval"`
	AllowPremiumTemplates bool       `json:"allowPremiumTemplates"`
}

type usageResponse struct {
	Plan          planResponse `json:"plan"`
	DocumentsUsed int          `json:"documentsUsed"`
	CanCreate     bool         `json:"canCreateDocument"`
	Reason        string       `json:"reason,omitempty"`
}

func toPlanResponse(p plans.Plan) planResponse {
	resp := planResponse{
		Tier:                  p.Tier,
		Name:                  p.Name,
		PriceCents:            p.PriceCents,
		AllowDeploy:           p.Capabilities.AllowDeploy,
		AllowBrandingRemoval:  p.Capabilities.AllowBrandingRemoval,
		AllowPremiumTemplates: p.Capabilities.AllowPremiumTemplates,
	}
	// null means unlimited
	if p.Capabilities.MaxDocuments != plans.Unlimited {
		max := p.Capabilities.MaxDocuments
		resp.MaxDocuments = &max
	}
	return resp
}

func (h *Handler) catalog(c *gin.Context) {
	catalog := plans.Catalog()
	out := make([]planResponse, 0, len(catalog))
	for _, p := range catalog {
		out = append(out, toPlanResponse(p))
	}
	respond.OK(c, gin.H{"plans": out})
}

func (h *Handler) me(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	if userID == "" {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
		return
	}
	response := gin.H{"userId": userID}
	if email := middleware.UserEmailFromContext(c); email != "" {
		response["email"] = email
	}
	respond.OK(c, response)
}

func (h *Handler) plan(c *gin.Context) {
	usage, err := h.Svc.Usage(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		respond.Failure(c, err)
		return
	}
	resp := usageResponse{
		Plan:          toPlanResponse(usage.Plan),
		DocumentsUsed: usage.DocumentsUsed,
		CanCreate:     usage.CanCreate.Allowed,
		Reason:        usage.CanCreate.Reason,
	}
	respond.OK(c, resp)
}
