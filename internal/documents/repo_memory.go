package documents

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"portfolio-backend/internal/plans"
	"portfolio-backend/internal/shared/apperr"
)

// MemoryRepo is an in-memory implementation of Repo. A single mutex makes
// every compare-and-set and count-and-insert atomic.
type MemoryRepo struct {
	mu          sync.RWMutex
	docs        map[string]Document
	bySubdomain map[string]string // subdomain -> document id
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		docs:        make(map[string]Document),
		bySubdomain: make(map[string]string),
	}
}

var errDuplicateID = errors.New("duplicate document id")

func ctxErr(ctx context.Context, op string) error {
	return apperr.Unavailable(op, ctx.Err())
}

func (r *MemoryRepo) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	if err := ctxErr(ctx, "documents.count"); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.countLocked(ownerID), nil
}

func (r *MemoryRepo) countLocked(ownerID string) int {
	n := 0
	for _, d := range r.docs {
		if d.OwnerID == ownerID {
			n++
		}
	}
	return n
}

func (r *MemoryRepo) GetByID(ctx context.Context, documentID string) (Document, error) {
	if err := ctxErr(ctx, "documents.get"); err != nil {
		return Document{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.docs[documentID]
	if !ok {
		return Document{}, ErrNotFound
	}
	return copyDocument(d), nil
}

func (r *MemoryRepo) GetBySubdomain(ctx context.Context, subdomain string) (Document, error) {
	if err := ctxErr(ctx, "documents.get_by_subdomain"); err != nil {
		return Document{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.bySubdomain[strings.ToLower(subdomain)]
	if !ok {
		return Document{}, ErrNotFound
	}
	d, ok := r.docs[id]
	if !ok {
		return Document{}, ErrNotFound
	}
	return copyDocument(d), nil
}

// ListByOwner returns the owner's documents, newest first.
func (r *MemoryRepo) ListByOwner(ctx context.Context, ownerID string) ([]Document, error) {
	if err := ctxErr(ctx, "documents.list"); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]Document, 0)
	for _, d := range r.docs {
		if d.OwnerID == ownerID {
			out = append(out, copyDocument(d))
		}
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MemoryRepo) CreateWithinLimit(ctx context.Context, doc Document, limit int) error {
	if err := ctxErr(ctx, "documents.create"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.docs[doc.ID]; exists {
		return apperr.Unavailable("documents.create", errDuplicateID)
	}
	if limit != plans.Unlimited && r.countLocked(doc.OwnerID) >= limit {
		return ErrLimitReached
	}
	doc.Subdomain = ""
	doc.IsDeployed = false
	doc.DeploymentID = ""
	doc.DeployedAt = nil
	r.docs[doc.ID] = copyDocument(doc)
	return nil
}

func (r *MemoryRepo) Update(ctx context.Context, doc Document) error {
	if err := ctxErr(ctx, "documents.update"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.docs[doc.ID]
	if !ok || cur.OwnerID != doc.OwnerID {
		return ErrNotFound
	}
	cur.DisplayName = doc.DisplayName
	cur.TemplateID = doc.TemplateID
	cur.Content = doc.Content.Clone()
	cur.HideBranding = doc.HideBranding
	cur.UpdatedAt = doc.UpdatedAt
	r.docs[doc.ID] = cur
	return nil
}

func (r *MemoryRepo) Delete(ctx context.Context, ownerID, documentID string) error {
	if err := ctxErr(ctx, "documents.delete"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.docs[documentID]
	if !ok || cur.OwnerID != ownerID {
		return ErrNotFound
	}
	if cur.Subdomain != "" && r.bySubdomain[cur.Subdomain] == documentID {
		delete(r.bySubdomain, cur.Subdomain)
	}
	delete(r.docs, documentID)
	return nil
}

func (r *MemoryRepo) ReserveSubdomain(ctx context.Context, candidate, documentID string) error {
	if err := ctxErr(ctx, "documents.reserve_subdomain"); err != nil {
		return err
	}
	candidate = strings.ToLower(candidate)
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.docs[documentID]
	if !ok {
		return ErrNotFound
	}
	if holder, taken := r.bySubdomain[candidate]; taken {
		if holder == documentID {
			return nil
		}
		return ErrConflict
	}
	if cur.Subdomain != "" {
		delete(r.bySubdomain, cur.Subdomain)
	}
	r.bySubdomain[candidate] = documentID
	cur.Subdomain = candidate
	cur.IsDeployed = false
	cur.DeploymentID = ""
	cur.DeployedAt = nil
	cur.UpdatedAt = time.Now().UTC()
	r.docs[documentID] = cur
	return nil
}

func (r *MemoryRepo) MarkDeployed(ctx context.Context, documentID, deploymentID string, at time.Time) error {
	if err := ctxErr(ctx, "documents.mark_deployed"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.docs[documentID]
	if !ok || cur.Subdomain == "" {
		return ErrNotFound
	}
	cur.IsDeployed = true
	cur.DeploymentID = deploymentID
	cur.DeployedAt = &at
	cur.UpdatedAt = at
	r.docs[documentID] = cur
	return nil
}

func (r *MemoryRepo) ReleaseSubdomain(ctx context.Context, documentID string) error {
	if err := ctxErr(ctx, "documents.release_subdomain"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.docs[documentID]
	if !ok {
		return nil
	}
	if cur.Subdomain != "" && r.bySubdomain[cur.Subdomain] == documentID {
		delete(r.bySubdomain, cur.Subdomain)
	}
	cur.Subdomain = ""
	cur.IsDeployed = false
	cur.DeploymentID = ""
	cur.DeployedAt = nil
	cur.UpdatedAt = time.Now().UTC()
	r.docs[documentID] = cur
	return nil
}

func copyDocument(d Document) Document {
	d.Content = d.Content.Clone()
	if d.DeployedAt != nil {
		at := *d.DeployedAt
		d.DeployedAt = &at
	}
	return d
}

var _ Repo = (*MemoryRepo)(nil)
