package sharelinks

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"portfolio-backend/internal/documents"
	"portfolio-backend/internal/shared/metrics"
	"portfolio-backend/internal/shared/telemetry"
)

// DefaultTTL is how long an issued link stays viewable.
const DefaultTTL = 24 * time.Hour

const tokenBytes = 32

// DocumentSource returns a document owned by ownerID.
type DocumentSource interface {
	Get(ctx context.Context, ownerID, documentID string) (documents.Document, error)
}

// Manager issues and resolves time-limited share links.
type Manager struct {
	Store Store
	Docs  DocumentSource
	TTL   time.Duration

	now      func() time.Time
	newToken func() (string, error)
}

// NewManager constructs a Manager. A non-positive ttl selects DefaultTTL.
func NewManager(store Store, docs DocumentSource, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		Store:    store,
		Docs:     docs,
		TTL:      ttl,
		now:      time.Now,
		newToken: generateToken,
	}
}

func (m *Manager) clock() time.Time {
	if m.now == nil {
		return time.Now().UTC()
	}
	return m.now().UTC()
}

func generateToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Issue snapshots the document's current content under a fresh token.
// Later edits to the document do not reach the snapshot.
func (m *Manager) Issue(ctx context.Context, ownerID, documentID string) (Snapshot, error) {
	doc, err := m.Docs.Get(ctx, ownerID, documentID)
	if err != nil {
		return Snapshot{}, err
	}
	token, err := m.newToken()
	if err != nil {
		return Snapshot{}, err
	}
	now := m.clock()
	snap := Snapshot{
		Token:        token,
		DocumentID:   doc.ID,
		OwnerID:      doc.OwnerID,
		DisplayName:  doc.DisplayName,
		TemplateID:   doc.TemplateID,
		Content:      doc.Content.Clone().Normalize(),
		HideBranding: doc.HideBranding,
		CreatedAt:    now,
		ExpiresAt:    now.Add(m.TTL),
	}
	if err := m.Store.Insert(ctx, snap); err != nil {
		return Snapshot{}, err
	}
	telemetry.Info("share.issued", map[string]any{
		"document_id": doc.ID,
		"owner_id":    doc.OwnerID,
		"expires_at":  snap.ExpiresAt,
	})
	return snap, nil
}

// Resolve returns the snapshot behind token and counts the view. Expired
// snapshots are deleted on the way out.
func (m *Manager) Resolve(ctx context.Context, token string) (Snapshot, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		metrics.IncShareRejected("not_found")
		return Snapshot{}, ErrNotFound
	}
	now := m.clock()
	snap, err := m.Store.Get(ctx, token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			metrics.IncShareRejected("not_found")
		}
		return Snapshot{}, err
	}
	if err := m.refuse(ctx, snap, now); err != nil {
		return Snapshot{}, err
	}

	viewed, err := m.Store.RecordView(ctx, token, now)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return Snapshot{}, err
		}
		// Expired, revoked or deleted between the read and the increment.
		current, getErr := m.Store.Get(ctx, token)
		if getErr != nil {
			if errors.Is(getErr, ErrNotFound) {
				metrics.IncShareRejected("not_found")
			}
			return Snapshot{}, getErr
		}
		if refuseErr := m.refuse(ctx, current, now); refuseErr != nil {
			return Snapshot{}, refuseErr
		}
		return Snapshot{}, ErrNotFound
	}
	metrics.IncShareView()
	return viewed, nil
}

// refuse reports why snap cannot be shown at now, deleting it if expired.
func (m *Manager) refuse(ctx context.Context, snap Snapshot, now time.Time) error {
	switch {
	case snap.Expired(now):
		if err := m.Store.Delete(ctx, snap.Token); err != nil {
			telemetry.Warn("share.expired_delete_failed", map[string]any{
				"document_id": snap.DocumentID,
				"error":       err,
			})
		}
		metrics.IncShareRejected("expired")
		return ErrExpired
	case snap.Revoked():
		metrics.IncShareRejected("revoked")
		return ErrRevoked
	}
	return nil
}

// Revoke ends a link early. Only the owner may revoke.
func (m *Manager) Revoke(ctx context.Context, ownerID, token string) error {
	if err := m.Store.Revoke(ctx, strings.TrimSpace(token), ownerID, m.clock()); err != nil {
		return err
	}
	telemetry.Info("share.revoked", map[string]any{"owner_id": ownerID})
	return nil
}

// Sweep deletes every snapshot expired at the current time.
func (m *Manager) Sweep(ctx context.Context) (int, error) {
	n, err := m.Store.DeleteExpired(ctx, m.clock())
	if err != nil {
		return 0, err
	}
	metrics.AddSharesSwept(n)
	return n, nil
}
