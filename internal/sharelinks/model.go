package sharelinks

import (
	"time"

	"portfolio-backend/internal/resume"
)

// Snapshot is a frozen copy of a document handed out under an unguessable
// token. Content never changes after Issue; only the view counters and
// RevokedAt move.
type Snapshot struct {
	Token        string
	DocumentID   string
	OwnerID      string
	DisplayName  string
	TemplateID   string
	Content      resume.Content
	HideBranding bool
	CreatedAt    time.Time
	ExpiresAt    time.Time
	ViewCount    int64
	LastViewedAt *time.Time
	RevokedAt    *time.Time
}

// Expired reports whether the snapshot is past its expiry at now. The expiry
// instant itself counts as expired.
func (s Snapshot) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Revoked reports whether the owner revoked the link.
func (s Snapshot) Revoked() bool {
	return s.RevokedAt != nil
}

func copySnapshot(s Snapshot) Snapshot {
	s.Content = s.Content.Clone()
	if s.LastViewedAt != nil {
		t := *s.LastViewedAt
		s.LastViewedAt = &t
	}
	if s.RevokedAt != nil {
		t := *s.RevokedAt
		s.RevokedAt = &t
	}
	return s
}
