package documents

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"portfolio-backend/internal/shared/server/middleware"
	"portfolio-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc        *Service
	BaseDomain string
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, baseDomain string) *Handler {
	return &Handler{Svc: svc, BaseDomain: baseDomain}
}

// RegisterRoutes attaches document routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/documents", h.list)
	rg.POST("/documents", h.create)
	rg.GET("/documents/:id", h.get)
	rg.PATCH("/documents/:id", h.update)
	rg.DELETE("/documents/:id", h.delete)
}

func (h *Handler) create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	in := CreateInput{DisplayName: req.DisplayName, TemplateID: req.TemplateID}
	if req.Content != nil {
		in.Content = *req.Content
	}

	doc, err := h.Svc.Create(c.Request.Context(), middleware.UserIDFromContext(c), in)
	if err != nil {
		respond.Failure(c, err)
		return
	}
	c.Set(middleware.DocumentIDKey, doc.ID)
	respond.Created(c, ToResponse(doc, h.BaseDomain))
}

func (h *Handler) get(c *gin.Context) {
	doc, err := h.Svc.Get(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"))
	if err != nil {
		respond.Failure(c, err)
		return
	}
	respond.OK(c, ToResponse(doc, h.BaseDomain))
}

func (h *Handler) list(c *gin.Context) {
	docs, err := h.Svc.List(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		respond.Failure(c, err)
		return
	}
	resp := make([]DocumentSummary, 0, len(docs))
	for _, doc := range docs {
		resp = append(resp, toSummary(doc, h.BaseDomain))
	}
	respond.OK(c, gin.H{"documents": resp})
}

func (h *Handler) update(c *gin.Context) {
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	in := UpdateInput{
		DisplayName:  req.DisplayName,
		TemplateID:   req.TemplateID,
		HideBranding: req.HideBranding,
	}
	if req.Content != nil {
		content := *req.Content
		in.Content = &content
	}

	doc, err := h.Svc.Update(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"), in)
	if err != nil {
		respond.Failure(c, err)
		return
	}
	respond.OK(c, ToResponse(doc, h.BaseDomain))
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.Svc.Delete(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id")); err != nil {
		respond.Failure(c, err)
		return
	}
	respond.NoContent(c)
}
