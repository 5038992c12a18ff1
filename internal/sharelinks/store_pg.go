package sharelinks

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"portfolio-backend/internal/shared/apperr"
)

// PGStore implements Store using Postgres.
type PGStore struct {
	DB *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{DB: db}
}

const snapshotColumns = `token, document_id, owner_id, display_name, template_id, content, hide_branding, created_at, expires_at, view_count, last_viewed_at, revoked_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row rowScanner) (Snapshot, error) {
	var (
		snap       Snapshot
		content    []byte
		lastViewed sql.NullTime
		revoked    sql.NullTime
	)
	if err := row.Scan(
		&snap.Token,
		&snap.DocumentID,
		&snap.OwnerID,
		&snap.DisplayName,
		&snap.TemplateID,
		&content,
		&snap.HideBranding,
		&snap.CreatedAt,
		&snap.ExpiresAt,
		&snap.ViewCount,
		&lastViewed,
		&revoked,
	); err != nil {
		return Snapshot{}, err
	}
	if len(content) > 0 {
		if err := json.Unmarshal(content, &snap.Content); err != nil {
			return Snapshot{}, err
		}
	}
	snap.Content = snap.Content.Normalize()
	if lastViewed.Valid {
		t := lastViewed.Time
		snap.LastViewedAt = &t
	}
	if revoked.Valid {
		t := revoked.Time
		snap.RevokedAt = &t
	}
	return snap, nil
}

func (s *PGStore) Insert(ctx context.Context, snap Snapshot) error {
	content, err := json.Marshal(snap.Content)
	if err != nil {
		return apperr.Unavailable("sharelinks.insert", err)
	}
	const query = `
INSERT INTO shared_snapshots (token, document_id, owner_id, display_name, template_id, content, hide_branding, created_at, expires_at, view_count)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 0)`
	if _, err := s.DB.ExecContext(ctx, query,
		snap.Token,
		snap.DocumentID,
		snap.OwnerID,
		snap.DisplayName,
		snap.TemplateID,
		content,
		snap.HideBranding,
		snap.CreatedAt,
		snap.ExpiresAt,
	); err != nil {
		return apperr.Unavailable("sharelinks.insert", err)
	}
	return nil
}

func (s *PGStore) Get(ctx context.Context, token string) (Snapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM shared_snapshots WHERE token = $1`
	snap, err := scanSnapshot(s.DB.QueryRowContext(ctx, query, token))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Snapshot{}, ErrNotFound
		}
		return Snapshot{}, apperr.Unavailable("sharelinks.get", err)
	}
	return snap, nil
}

// RecordView increments and reads back in one statement.
func (s *PGStore) RecordView(ctx context.Context, token string, now time.Time) (Snapshot, error) {
	query := `
UPDATE shared_snapshots
SET view_count = view_count + 1, last_viewed_at = $2
WHERE token = $1 AND expires_at > $2 AND revoked_at IS NULL
RETURNING ` + snapshotColumns
	snap, err := scanSnapshot(s.DB.QueryRowContext(ctx, query, token, now))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Snapshot{}, ErrNotFound
		}
		return Snapshot{}, apperr.Unavailable("sharelinks.record_view", err)
	}
	return snap, nil
}

func (s *PGStore) Revoke(ctx context.Context, token, ownerID string, at time.Time) error {
	const query = `
UPDATE shared_snapshots SET revoked_at = COALESCE(revoked_at, $3)
WHERE token = $1 AND owner_id = $2`
	res, err := s.DB.ExecContext(ctx, query, token, ownerID, at)
	if err != nil {
		return apperr.Unavailable("sharelinks.revoke", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperr.Unavailable("sharelinks.revoke", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) Delete(ctx context.Context, token string) error {
	if _, err := s.DB.ExecContext(ctx, `DELETE FROM shared_snapshots WHERE token = $1`, token); err != nil {
		return apperr.Unavailable("sharelinks.delete", err)
	}
	return nil
}

func (s *PGStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM shared_snapshots WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, apperr.Unavailable("sharelinks.delete_expired", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, apperr.Unavailable("sharelinks.delete_expired", err)
	}
	return int(n), nil
}

var _ Store = (*PGStore)(nil)
