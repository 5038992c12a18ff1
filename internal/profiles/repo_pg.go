package profiles

import (
	"context"
	"database/sql"
	"errors"

	"portfolio-backend/internal/plans"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) Get(ctx context.Context, userID string) (Profile, error) {
	const query = `
SELECT user_id, plan_tier, created_at, updated_at
FROM profiles
WHERE user_id = $1`
	var p Profile
	var tier string
	err := r.DB.QueryRowContext(ctx, query, userID).Scan(&p.UserID, &tier, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Profile{}, ErrNotFound
		}
		return Profile{}, err
	}
	p.Tier = plans.ParseTier(tier)
	return p, nil
}

func (r *PGRepo) SetTier(ctx context.Context, userID string, tier plans.Tier) (Profile, error) {
	const query = `
INSERT INTO profiles (user_id, plan_tier, created_at, updated_at)
VALUES ($1, $2, now(), now())
ON CONFLICT (user_id) DO UPDATE SET
  plan_tier = EXCLUDED.plan_tier,
  updated_at = now()
RETURNING user_id, plan_tier, created_at, updated_at`
	var p Profile
	var stored string
	if err := r.DB.QueryRowContext(ctx, query, userID, string(tier)).Scan(&p.UserID, &stored, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return Profile{}, err
	}
	p.Tier = plans.ParseTier(stored)
	return p, nil
}

var _ Repo = (*PGRepo)(nil)
