package documents

import (
	"time"

	"portfolio-backend/internal/resume"
)

// Document is an owner's portfolio: resume content plus how it is published.
// Subdomain and IsDeployed move together: a deployed document always holds a
// subdomain, and releasing the subdomain also takes the document offline.
type Document struct {
	ID           string
	OwnerID      string
	DisplayName  string
	TemplateID   string
	Content      resume.Content
	Subdomain    string
	IsDeployed   bool
	DeploymentID string
	HideBranding bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeployedAt   *time.Time
}
