package documents

import (
	"context"
	"time"
)

// Repo is the only component touching persistent document storage.
// Implementations return ErrNotFound/ErrConflict/ErrLimitReached for domain
// outcomes and wrap every other failure with apperr.ErrUnavailable.
type Repo interface {
	CountByOwner(ctx context.Context, ownerID string) (int, error)
	GetByID(ctx context.Context, documentID string) (Document, error)
	GetBySubdomain(ctx context.Context, subdomain string) (Document, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Document, error)

	// CreateWithinLimit inserts doc only if the owner currently has fewer than
	// limit live documents. Count and insert are one atomic step.
	// plans.Unlimited disables the check.
	CreateWithinLimit(ctx context.Context, doc Document, limit int) error
	Update(ctx context.Context, doc Document) error
	Delete(ctx context.Context, ownerID, documentID string) error

	// ReserveSubdomain assigns candidate to the document in a single
	// compare-and-set. It fails with ErrConflict if another live document
	// holds candidate and is a no-op if this document already holds it.
	// Moving a live document to a new label takes it offline in the same
	// step; MarkDeployed brings it back.
	ReserveSubdomain(ctx context.Context, candidate, documentID string) error
	MarkDeployed(ctx context.Context, documentID, deploymentID string, at time.Time) error
	// ReleaseSubdomain clears subdomain and deployment together. Idempotent.
	ReleaseSubdomain(ctx context.Context, documentID string) error
}
