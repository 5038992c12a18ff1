package tenant

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"portfolio-backend/internal/resume"
)

// View is what a renderer receives for a tenant request.
type View struct {
	DocumentID   string         `json:"documentId"`
	Subdomain    string         `json:"subdomain"`
	DisplayName  string         `json:"displayName"`
	TemplateID   string         `json:"templateId"`
	Content      resume.Content `json:"content"`
	ShowBranding bool           `json:"showBranding"`
}

// Renderer turns a View into a response. Template presentation lives
// outside this service; implementations only hand off content and template.
type Renderer interface {
	Render(c *gin.Context, view View)
}

// JSONRenderer answers tenant requests with the view payload for a
// front-end renderer to draw.
type JSONRenderer struct{}

func (JSONRenderer) Render(c *gin.Context, view View) {
	c.Header("Cache-Control", "public, max-age=60")
	c.JSON(http.StatusOK, view)
}
