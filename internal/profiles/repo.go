package profiles

import (
	"context"
	"fmt"

	"portfolio-backend/internal/plans"
	"portfolio-backend/internal/shared/apperr"
)

// ErrNotFound indicates no profile row exists for the owner.
var ErrNotFound = fmt.Errorf("profile %w", apperr.ErrNotFound)

// Repo persists owner profiles.
type Repo interface {
	Get(ctx context.Context, userID string) (Profile, error)
	SetTier(ctx context.Context, userID string, tier plans.Tier) (Profile, error)
}
