package account

import (
	"context"

	"portfolio-backend/internal/plans"
)

// TierSource reports an owner's current plan tier.
type TierSource interface {
	Tier(ctx context.Context, userID string) (plans.Tier, error)
}

// DocumentCounter reports how many live documents an owner has.
type DocumentCounter interface {
	CountByOwner(ctx context.Context, ownerID string) (int, error)
}

// Service assembles the caller's plan usage.
type Service struct {
	Tiers TierSource
	Docs  DocumentCounter
}

func NewService(tiers TierSource, docs DocumentCounter) *Service {
	return &Service{Tiers: tiers, Docs: docs}
}

// PlanUsage is the caller's plan with current consumption.
type PlanUsage struct {
	Plan          plans.Plan
	DocumentsUsed int
	CanCreate     plans.Decision
}

// Usage reads the tier and document count fresh.
func (s *Service) Usage(ctx context.Context, userID string) (PlanUsage, error) {
	tier, err := s.Tiers.Tier(ctx, userID)
	if err != nil {
		return PlanUsage{}, err
	}
	used, err := s.Docs.CountByOwner(ctx, userID)
	if err != nil {
		return PlanUsage{}, err
	}
	return PlanUsage{
		Plan:          plans.PlanFor(tier),
		DocumentsUsed: used,
		CanCreate:     plans.CanCreateDocument(tier, used),
	}, nil
}
