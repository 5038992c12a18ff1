package sharelinks

import (
	"time"

	"portfolio-backend/internal/resume"
)

// IssueResponse is returned to the owner after creating a link.
type IssueResponse struct {
	Token     string    `json:"token"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// SharedView is the public rendering payload of a snapshot.
type SharedView struct {
	DisplayName  string         `json:"displayName"`
	TemplateID   string         `json:"templateId"`
	Content      resume.Content `json:"content"`
	ShowBranding bool           `json:"showBranding"`
	ExpiresAt    time.Time      `json:"expiresAt"`
	ViewCount    int64          `json:"viewCount"`
}
