package tenant

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"portfolio-backend/internal/documents"
	"portfolio-backend/internal/shared/server/middleware"
	"portfolio-backend/internal/shared/server/respond"
)

// Handler exposes deploy routes.
type Handler struct {
	Pub        *Publisher
	BaseDomain string
}

func NewHandler(pub *Publisher, baseDomain string) *Handler {
	return &Handler{Pub: pub, BaseDomain: baseDomain}
}

type deployRequest struct {
	Subdomain string `json:"subdomain" binding:"omitempty,max=63"`
}

// RegisterRoutes attaches deploy routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/documents/:id/deploy", h.deploy)
	rg.DELETE("/documents/:id/deploy", h.undeploy)
}

func (h *Handler) deploy(c *gin.Context) {
	var req deployRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
			return
		}
	}
	c.Set(middleware.DocumentIDKey, c.Param("id"))
	doc, err := h.Pub.Deploy(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"), req.Subdomain)
	if err != nil {
		respond.Failure(c, err)
		return
	}
	respond.OK(c, documents.ToResponse(doc, h.BaseDomain))
}

func (h *Handler) undeploy(c *gin.Context) {
	c.Set(middleware.DocumentIDKey, c.Param("id"))
	doc, err := h.Pub.Undeploy(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"))
	if err != nil {
		respond.Failure(c, err)
		return
	}
	respond.OK(c, documents.ToResponse(doc, h.BaseDomain))
}
