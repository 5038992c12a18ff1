package tenant

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"portfolio-backend/internal/documents"
	"portfolio-backend/internal/plans"
	"portfolio-backend/internal/shared/metrics"
	"portfolio-backend/internal/shared/telemetry"
	"portfolio-backend/internal/subdomains"
)

// DeployStore is the slice of the document store that publishing touches.
type DeployStore interface {
	GetByID(ctx context.Context, documentID string) (documents.Document, error)
	ReserveSubdomain(ctx context.Context, candidate, documentID string) error
	MarkDeployed(ctx context.Context, documentID, deploymentID string, at time.Time) error
	ReleaseSubdomain(ctx context.Context, documentID string) error
}

// Publisher moves documents on and off their subdomains.
type Publisher struct {
	Docs  DeployStore
	Tiers TierSource

	now          func() time.Time
	deploymentID func() string
}

func NewPublisher(docs DeployStore, tiers TierSource) *Publisher {
	return &Publisher{
		Docs:         docs,
		Tiers:        tiers,
		now:          time.Now,
		deploymentID: func() string { return "dpl_" + uuid.NewString() },
	}
}

// Deploy publishes the document at requested, or at a label derived from its
// display name when requested is empty. The steps run in a fixed order:
// entitlement, validation, reservation, then the live flag. Nothing is
// written before the entitlement and validation checks pass. A failure
// after the reservation puts the document back where it was: a fresh
// reservation is released and a moved live deployment returns to its old label.
func (p *Publisher) Deploy(ctx context.Context, ownerID, documentID, requested string) (documents.Document, error) {
	doc, err := p.owned(ctx, ownerID, documentID)
	if err != nil {
		return documents.Document{}, err
	}

	tier, err := p.Tiers.Tier(ctx, ownerID)
	if err != nil {
		return documents.Document{}, err
	}
	if !plans.CanDeploySubdomain(tier) {
		metrics.IncEntitlementDenied(plans.CapabilityDeploySubdomain)
		return documents.Document{}, plans.Deny(tier, plans.CapabilityDeploySubdomain)
	}

	candidate := requested
	if candidate == "" {
		candidate = subdomains.DeriveCandidate(doc.DisplayName)
	}
	label, err := subdomains.Check(candidate)
	if err != nil {
		return documents.Document{}, err
	}

	if err := p.Docs.ReserveSubdomain(ctx, label, doc.ID); err != nil {
		if errors.Is(err, documents.ErrConflict) {
			metrics.IncSubdomainConflict()
		}
		return documents.Document{}, err
	}

	deploymentID := p.deploymentID()
	if err := p.Docs.MarkDeployed(ctx, doc.ID, deploymentID, p.now().UTC()); err != nil {
		p.restore(ctx, doc, label)
		return documents.Document{}, err
	}

	metrics.IncDeploy()
	telemetry.Info("deploy.complete", map[string]any{
		"document_id":   doc.ID,
		"owner_id":      ownerID,
		"subdomain":     label,
		"deployment_id": deploymentID,
	})
	return p.Docs.GetByID(ctx, doc.ID)
}

// Undeploy takes the document offline and frees its subdomain.
func (p *Publisher) Undeploy(ctx context.Context, ownerID, documentID string) (documents.Document, error) {
	doc, err := p.owned(ctx, ownerID, documentID)
	if err != nil {
		return documents.Document{}, err
	}
	if err := p.Docs.ReleaseSubdomain(ctx, doc.ID); err != nil {
		return documents.Document{}, err
	}
	metrics.IncUndeploy()
	telemetry.Info("deploy.removed", map[string]any{
		"document_id": doc.ID,
		"owner_id":    ownerID,
		"subdomain":   doc.Subdomain,
	})
	return p.Docs.GetByID(ctx, doc.ID)
}

// restore undoes a reservation whose live flag could not be set. prev is the
// document as read before the reservation.
func (p *Publisher) restore(ctx context.Context, prev documents.Document, label string) {
	if prev.Subdomain == label {
		return
	}
	var err error
	if prev.Subdomain == "" {
		err = p.Docs.ReleaseSubdomain(ctx, prev.ID)
	} else {
		err = p.Docs.ReserveSubdomain(ctx, prev.Subdomain, prev.ID)
		if err == nil && prev.IsDeployed && prev.DeployedAt != nil {
			err = p.Docs.MarkDeployed(ctx, prev.ID, prev.DeploymentID, *prev.DeployedAt)
		}
		if err != nil {
			// The old label is gone or unreachable; do not keep holding the new one.
			if relErr := p.Docs.ReleaseSubdomain(ctx, prev.ID); relErr != nil {
				err = errors.Join(err, relErr)
			}
		}
	}
	if err != nil {
		telemetry.Error("deploy.restore_failed", map[string]any{
			"document_id": prev.ID,
			"subdomain":   label,
			"previous":    prev.Subdomain,
			"error":       err,
		})
	}
}

func (p *Publisher) owned(ctx context.Context, ownerID, documentID string) (documents.Document, error) {
	doc, err := p.Docs.GetByID(ctx, documentID)
	if err != nil {
		return documents.Document{}, err
	}
	if doc.OwnerID != ownerID {
		return documents.Document{}, documents.ErrNotFound
	}
	return doc, nil
}
