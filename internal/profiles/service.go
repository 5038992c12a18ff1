package profiles

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"portfolio-backend/internal/plans"
	"portfolio-backend/internal/shared/apperr"
)

// Service reads and changes owner plan tiers.
type Service struct {
	Repo Repo
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

// Tier returns the owner's current tier, read fresh from the store on every
// call. A missing profile is the free tier; store failures are returned as
// apperr.ErrUnavailable so callers never grant or deny on a failed read.
func (s *Service) Tier(ctx context.Context, userID string) (plans.Tier, error) {
	if s == nil || s.Repo == nil {
		return plans.TierFree, errors.New("profiles service not configured")
	}
	p, err := s.Repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return plans.TierFree, nil
		}
		return plans.TierFree, apperr.Unavailable("profiles.tier", err)
	}
	return plans.ParseTier(string(p.Tier)), nil
}

// SetTier upgrades or downgrades an owner. Unknown tier labels are rejected
// here rather than silently mapped to free.
func (s *Service) SetTier(ctx context.Context, userID, rawTier string) (Profile, error) {
	if s == nil || s.Repo == nil {
		return Profile{}, errors.New("profiles service not configured")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Profile{}, fmt.Errorf("user id is required: %w", apperr.ErrInvalid)
	}
	normalized := strings.ToLower(strings.TrimSpace(rawTier))
	tier := plans.ParseTier(normalized)
	if string(tier) != normalized {
		return Profile{}, fmt.Errorf("unknown plan tier %q: %w", rawTier, apperr.ErrInvalid)
	}
	p, err := s.Repo.SetTier(ctx, userID, tier)
	if err != nil {
		return Profile{}, apperr.Unavailable("profiles.set_tier", err)
	}
	return p, nil
}
