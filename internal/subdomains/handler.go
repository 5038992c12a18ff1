package subdomains

import (
	"github.com/gin-gonic/gin"

	"portfolio-backend/internal/shared/server/respond"
)

// Handler exposes availability checks.
type Handler struct {
	Alloc *Allocator
}

func NewHandler(alloc *Allocator) *Handler {
	return &Handler{Alloc: alloc}
}

// RegisterRoutes attaches subdomain routes; extra handlers (e.g. a rate
// limiter) run before the check.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, extra ...gin.HandlerFunc) {
	handlers := append(append([]gin.HandlerFunc{}, extra...), h.check)
	rg.GET("/subdomains/check", handlers...)
}

func (h *Handler) check(c *gin.Context) {
	name := c.Query("name")
	candidate := name
	if c.Query("derive") == "true" {
		candidate = DeriveCandidate(name)
	}
	res, err := h.Alloc.CheckAvailability(c.Request.Context(), candidate)
	if err != nil {
		respond.Failure(c, err)
		return
	}
	respond.OK(c, res)
}
