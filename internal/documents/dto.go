package documents

import (
	"time"

	"portfolio-backend/internal/resume"
)

// DocumentResponse is the outward-facing representation of a document.
type DocumentResponse struct {
	DocumentID   string         `json:"documentId"`
	DisplayName  string         `json:"displayName"`
	TemplateID   string         `json:"templateId"`
	Content      resume.Content `json:"content"`
	Subdomain    string         `json:"subdomain,omitempty"`
	IsDeployed   bool           `json:"isDeployed"`
	DeploymentID string         `json:"deploymentId,omitempty"`
	URL          string         `json:"url,omitempty"`
	HideBranding bool           `json:"hideBranding"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	DeployedAt   *time.Time     `json:"deployedAt,omitempty"`
}

// DocumentSummary is the list view of a document.
type DocumentSummary struct {
	DocumentID  string    `json:"documentId"`
	DisplayName string    `json:"displayName"`
	TemplateID  string    `json:"templateId"`
	Subdomain   string    `json:"subdomain,omitempty"`
	IsDeployed  bool      `json:"isDeployed"`
	URL         string    `json:"url,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type createRequest struct {
	DisplayName string          `json:"displayName" binding:"max=120"`
	TemplateID  string          `json:"templateId" binding:"omitempty,max=64"`
	Content     *resume.Content `json:"content"`
}

type updateRequest struct {
	DisplayName  *string         `json:"displayName" binding:"omitempty,max=120"`
	TemplateID   *string         `json:"templateId" binding:"omitempty,max=64"`
	Content      *resume.Content `json:"content"`
	HideBranding *bool           `json:"hideBranding"`
}

// PublicURL is the tenant address of a deployed document, or "" when it is not live.
func PublicURL(doc Document, baseDomain string) string {
	if !doc.IsDeployed || doc.Subdomain == "" || baseDomain == "" {
		return ""
	}
	return "https://" + doc.Subdomain + "." + baseDomain
}

// ToResponse renders doc for its owner.
func ToResponse(doc Document, baseDomain string) DocumentResponse {
	return DocumentResponse{
		DocumentID:   doc.ID,
		DisplayName:  doc.DisplayName,
		TemplateID:   doc.TemplateID,
		Content:      doc.Content.Normalize(),
		Subdomain:    doc.Subdomain,
		IsDeployed:   doc.IsDeployed,
		DeploymentID: doc.DeploymentID,
		URL:          PublicURL(doc, baseDomain),
		HideBranding: doc.HideBranding,
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
		DeployedAt:   doc.DeployedAt,
	}
}

func toSummary(doc Document, baseDomain string) DocumentSummary {
	return DocumentSummary{
		DocumentID:  doc.ID,
		DisplayName: doc.DisplayName,
		TemplateID:  doc.TemplateID,
		Subdomain:   doc.Subdomain,
		IsDeployed:  doc.IsDeployed,
		URL:         PublicURL(doc, baseDomain),
		UpdatedAt:   doc.UpdatedAt,
	}
}
