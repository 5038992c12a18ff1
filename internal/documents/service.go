package documents

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"portfolio-backend/internal/plans"
	"portfolio-backend/internal/resume"
	"portfolio-backend/internal/templates"
)

const maxDisplayNameLen = 120

// TierSource reports an owner's current plan tier. Implementations must read
// fresh state so upgrades and downgrades take effect on the next call.
type TierSource interface {
	Tier(ctx context.Context, userID string) (plans.Tier, error)
}

// Service contains business logic for documents.
type Service struct {
	Repo  Repo
	Tiers TierSource
	now   func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repo, tiers TierSource) *Service {
	return &Service{Repo: repo, Tiers: tiers, now: time.Now}
}

// CreateInput is the owner-supplied part of a new document.
type CreateInput struct {
	DisplayName string
	TemplateID  string
	Content     resume.Content
}

// UpdateInput carries optional changes; nil fields are left untouched.
type UpdateInput struct {
	DisplayName  *string
	TemplateID   *string
	Content      *resume.Content
	HideBranding *bool
}

func (s *Service) clock() time.Time {
	if s.now == nil {
		return time.Now().UTC()
	}
	return s.now().UTC()
}

// Create adds a document for ownerID if the owner's plan allows another one.
// The count check is repeated inside the store so concurrent creates can
// never exceed the limit.
func (s *Service) Create(ctx context.Context, ownerID string, in CreateInput) (Document, error) {
	if strings.TrimSpace(ownerID) == "" {
		return Document{}, fmt.Errorf("%w: owner id is required", ErrInvalidInput)
	}
	tier, err := s.checkCreate(ctx, ownerID)
	if err != nil {
		return Document{}, err
	}

	tpl, err := templates.Authorize(tier, in.TemplateID)
	if err != nil {
		return Document{}, err
	}
	content := in.Content.Normalize()
	if err := resume.Validate(content); err != nil {
		return Document{}, err
	}
	name, err := displayName(in.DisplayName, content)
	if err != nil {
		return Document{}, err
	}

	now := s.clock()
	doc := Document{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		DisplayName: name,
		TemplateID:  tpl.ID,
		Content:     content,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	limit := plans.CapabilitiesFor(tier).MaxDocuments
	if err := s.Repo.CreateWithinLimit(ctx, doc, limit); err != nil {
		if errors.Is(err, ErrLimitReached) {
			return Document{}, createDenied(tier, plans.CanCreateDocument(tier, limit))
		}
		return Document{}, err
	}
	return doc, nil
}

// CanCreate reports whether ownerID may add a document right now. Callers
// doing expensive work before Create (imports) use it to fail early; Create
// still enforces the limit atomically.
func (s *Service) CanCreate(ctx context.Context, ownerID string) error {
	_, err := s.checkCreate(ctx, ownerID)
	return err
}

func (s *Service) checkCreate(ctx context.Context, ownerID string) (plans.Tier, error) {
	tier, err := s.Tiers.Tier(ctx, ownerID)
	if err != nil {
		return tier, err
	}
	count, err := s.Repo.CountByOwner(ctx, ownerID)
	if err != nil {
		return tier, err
	}
	if decision := plans.CanCreateDocument(tier, count); !decision.Allowed {
		return tier, createDenied(tier, decision)
	}
	return tier, nil
}

func createDenied(tier plans.Tier, decision plans.Decision) error {
	denied := plans.Deny(tier, plans.CapabilityCreateDocument)
	denied.Reason = decision.Reason
	return denied
}

// Get returns a document owned by ownerID. Documents of other owners are
// reported as not found.
func (s *Service) Get(ctx context.Context, ownerID, documentID string) (Document, error) {
	doc, err := s.Repo.GetByID(ctx, documentID)
	if err != nil {
		return Document{}, err
	}
	if doc.OwnerID != ownerID {
		return Document{}, ErrNotFound
	}
	return doc, nil
}

// List returns every live document of ownerID, newest first.
func (s *Service) List(ctx context.Context, ownerID string) ([]Document, error) {
	return s.Repo.ListByOwner(ctx, ownerID)
}

// Update applies in to the document. Template and branding changes are
// checked against the owner's current plan.
func (s *Service) Update(ctx context.Context, ownerID, documentID string, in UpdateInput) (Document, error) {
	doc, err := s.Get(ctx, ownerID, documentID)
	if err != nil {
		return Document{}, err
	}

	needsTier := in.TemplateID != nil || (in.HideBranding != nil && *in.HideBranding)
	var tier plans.Tier
	if needsTier {
		if tier, err = s.Tiers.Tier(ctx, ownerID); err != nil {
			return Document{}, err
		}
	}

	if in.DisplayName != nil {
		name, err := displayName(*in.DisplayName, doc.Content)
		if err != nil {
			return Document{}, err
		}
		doc.DisplayName = name
	}
	if in.TemplateID != nil {
		tpl, err := templates.Authorize(tier, *in.TemplateID)
		if err != nil {
			return Document{}, err
		}
		doc.TemplateID = tpl.ID
	}
	if in.Content != nil {
		content := in.Content.Normalize()
		if err := resume.Validate(content); err != nil {
			return Document{}, err
		}
		doc.Content = content
	}
	if in.HideBranding != nil {
		if *in.HideBranding && !plans.CanRemoveBranding(tier) {
			return Document{}, plans.Deny(tier, plans.CapabilityRemoveBranding)
		}
		doc.HideBranding = *in.HideBranding
	}

	doc.UpdatedAt = s.clock()
	if err := s.Repo.Update(ctx, doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// Delete removes the document and frees any subdomain it held.
func (s *Service) Delete(ctx context.Context, ownerID, documentID string) error {
	return s.Repo.Delete(ctx, ownerID, documentID)
}

func displayName(raw string, content resume.Content) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		name = strings.TrimSpace(content.Name)
	}
	if name == "" {
		name = "Untitled portfolio"
	}
	if len(name) > maxDisplayNameLen {
		return "", fmt.Errorf("%w: display name must be at most %d characters", ErrInvalidInput, maxDisplayNameLen)
	}
	return name, nil
}
