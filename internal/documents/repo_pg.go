package documents

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"portfolio-backend/internal/plans"
	"portfolio-backend/internal/shared/apperr"
)

const (
	uniqueViolation    = "23505"
	invalidTextForUUID = "22P02"
)

// PGRepo implements Repo using Postgres. Subdomain uniqueness is enforced by
// the documents_subdomain_live_key partial unique index.
type PGRepo struct {
	DB *sql.DB
}

const documentColumns = `id, owner_id, display_name, template_id, content, subdomain, is_deployed, deployment_id, hide_branding, created_at, updated_at, deployed_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (Document, error) {
	var (
		doc          Document
		content      []byte
		subdomain    sql.NullString
		deploymentID sql.NullString
		deployedAt   sql.NullTime
	)
	if err := row.Scan(
		&doc.ID,
		&doc.OwnerID,
		&doc.DisplayName,
		&doc.TemplateID,
		&content,
		&subdomain,
		&doc.IsDeployed,
		&deploymentID,
		&doc.HideBranding,
		&doc.CreatedAt,
		&doc.UpdatedAt,
		&deployedAt,
	); err != nil {
		return Document{}, err
	}
	if len(content) > 0 {
		if err := json.Unmarshal(content, &doc.Content); err != nil {
			return Document{}, err
		}
	}
	doc.Content = doc.Content.Normalize()
	if subdomain.Valid {
		doc.Subdomain = subdomain.String
	}
	if deploymentID.Valid {
		doc.DeploymentID = deploymentID.String
	}
	if deployedAt.Valid {
		t := deployedAt.Time
		doc.DeployedAt = &t
	}
	return doc, nil
}

func (r *PGRepo) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	const query = `SELECT COUNT(*) FROM documents WHERE owner_id = $1 AND deleted_at IS NULL`
	var n int
	if err := r.DB.QueryRowContext(ctx, query, ownerID).Scan(&n); err != nil {
		return 0, apperr.Unavailable("documents.count", err)
	}
	return n, nil
}

func (r *PGRepo) GetByID(ctx context.Context, documentID string) (Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1 AND deleted_at IS NULL`
	doc, err := scanDocument(r.DB.QueryRowContext(ctx, query, documentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, byIDErr("documents.get", err)
	}
	return doc, nil
}

func (r *PGRepo) GetBySubdomain(ctx context.Context, subdomain string) (Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE subdomain = $1 AND deleted_at IS NULL`
	doc, err := scanDocument(r.DB.QueryRowContext(ctx, query, strings.ToLower(subdomain)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, apperr.Unavailable("documents.get_by_subdomain", err)
	}
	return doc, nil
}

func (r *PGRepo) ListByOwner(ctx context.Context, ownerID string) ([]Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE owner_id = $1 AND deleted_at IS NULL ORDER BY created_at DESC`
	rows, err := r.DB.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, apperr.Unavailable("documents.list", err)
	}
	defer rows.Close()

	out := make([]Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, apperr.Unavailable("documents.list", err)
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Unavailable("documents.list", err)
	}
	return out, nil
}

// CreateWithinLimit serializes creators of the same owner with a
// transaction-scoped advisory lock, then counts and inserts.
func (r *PGRepo) CreateWithinLimit(ctx context.Context, doc Document, limit int) (err error) {
	content, err := json.Marshal(doc.Content)
	if err != nil {
		return apperr.Unavailable("documents.create", err)
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Unavailable("documents.create", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, doc.OwnerID); err != nil {
		return apperr.Unavailable("documents.create", err)
	}

	if limit != plans.Unlimited {
		var n int
		if err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents WHERE owner_id = $1 AND deleted_at IS NULL`, doc.OwnerID).Scan(&n); err != nil {
			return apperr.Unavailable("documents.create", err)
		}
		if n >= limit {
			err = ErrLimitReached
			return err
		}
	}

	const insert = `
INSERT INTO documents (id, owner_id, display_name, template_id, content, hide_branding, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err = tx.ExecContext(ctx, insert,
		doc.ID,
		doc.OwnerID,
		doc.DisplayName,
		doc.TemplateID,
		content,
		doc.HideBranding,
		doc.CreatedAt,
		doc.UpdatedAt,
	); err != nil {
		return apperr.Unavailable("documents.create", err)
	}
	if err = tx.Commit(); err != nil {
		return apperr.Unavailable("documents.create", err)
	}
	return nil
}

func (r *PGRepo) Update(ctx context.Context, doc Document) error {
	content, err := json.Marshal(doc.Content)
	if err != nil {
		return apperr.Unavailable("documents.update", err)
	}
	const query = `
UPDATE documents
SET display_name = $3, template_id = $4, content = $5, hide_branding = $6, updated_at = $7
WHERE id = $1 AND owner_id = $2 AND deleted_at IS NULL`
	res, err := r.DB.ExecContext(ctx, query,
		doc.ID,
		doc.OwnerID,
		doc.DisplayName,
		doc.TemplateID,
		content,
		doc.HideBranding,
		doc.UpdatedAt,
	)
	if err != nil {
		return byIDErr("documents.update", err)
	}
	return requireRow(res, "documents.update")
}

// Delete soft-deletes the document and frees its subdomain in the same statement.
func (r *PGRepo) Delete(ctx context.Context, ownerID, documentID string) error {
	const query = `
UPDATE documents
SET deleted_at = now(), subdomain = NULL, is_deployed = false, deployment_id = NULL, deployed_at = NULL
WHERE id = $1 AND owner_id = $2 AND deleted_at IS NULL`
	res, err := r.DB.ExecContext(ctx, query, documentID, ownerID)
	if err != nil {
		return byIDErr("documents.delete", err)
	}
	return requireRow(res, "documents.delete")
}

func (r *PGRepo) ReserveSubdomain(ctx context.Context, candidate, documentID string) error {
	const query = `
UPDATE documents
SET subdomain = $1,
    is_deployed = is_deployed AND subdomain IS NOT DISTINCT FROM $1,
    deployment_id = CASE WHEN subdomain IS NOT DISTINCT FROM $1 THEN deployment_id END,
    deployed_at = CASE WHEN subdomain IS NOT DISTINCT FROM $1 THEN deployed_at END,
    updated_at = now()
WHERE id = $2 AND deleted_at IS NULL`
	res, err := r.DB.ExecContext(ctx, query, strings.ToLower(candidate), documentID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return byIDErr("documents.reserve_subdomain", err)
	}
	return requireRow(res, "documents.reserve_subdomain")
}

func (r *PGRepo) MarkDeployed(ctx context.Context, documentID, deploymentID string, at time.Time) error {
	const query = `
UPDATE documents SET is_deployed = true, deployment_id = $2, deployed_at = $3, updated_at = $3
WHERE id = $1 AND subdomain IS NOT NULL AND deleted_at IS NULL`
	res, err := r.DB.ExecContext(ctx, query, documentID, deploymentID, at)
	if err != nil {
		return byIDErr("documents.mark_deployed", err)
	}
	return requireRow(res, "documents.mark_deployed")
}

func (r *PGRepo) ReleaseSubdomain(ctx context.Context, documentID string) error {
	const query = `
UPDATE documents
SET subdomain = NULL, is_deployed = false, deployment_id = NULL, deployed_at = NULL, updated_at = now()
WHERE id = $1`
	if _, err := r.DB.ExecContext(ctx, query, documentID); err != nil {
		if isInvalidID(err) {
			return nil
		}
		return apperr.Unavailable("documents.release_subdomain", err)
	}
	return nil
}

func requireRow(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return apperr.Unavailable(op, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// byIDErr treats an id Postgres cannot parse as a uuid as a missing row.
func byIDErr(op string, err error) error {
	if isInvalidID(err) {
		return ErrNotFound
	}
	return apperr.Unavailable(op, err)
}

func isInvalidID(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == invalidTextForUUID
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

var _ Repo = (*PGRepo)(nil)
