package profiles

import (
	"time"

	"portfolio-backend/internal/plans"
)

// Profile is the per-owner record holding the current plan tier.
type Profile struct {
	UserID    string     `json:"userId"`
	Tier      plans.Tier `json:"tier"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}
