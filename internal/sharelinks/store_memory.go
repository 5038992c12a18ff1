package sharelinks

import (
	"context"
	"sync"
	"time"

	"portfolio-backend/internal/shared/apperr"
)

// MemoryStore keeps snapshots in process memory.
type MemoryStore struct {
	mu    sync.Mutex
	snaps map[string]Snapshot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snaps: make(map[string]Snapshot)}
}

func (s *MemoryStore) Insert(ctx context.Context, snap Snapshot) error {
	if err := ctx.Err(); err != nil {
		return apperr.Unavailable("sharelinks.insert", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snaps[snap.Token] = copySnapshot(snap)
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, token string) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, apperr.Unavailable("sharelinks.get", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.snaps[token]
	if !ok {
		return Snapshot{}, ErrNotFound
	}
	return copySnapshot(snap), nil
}

func (s *MemoryStore) RecordView(ctx context.Context, token string, now time.Time) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, apperr.Unavailable("sharelinks.record_view", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.snaps[token]
	if !ok || snap.Expired(now) || snap.Revoked() {
		return Snapshot{}, ErrNotFound
	}
	snap.ViewCount++
	viewed := now
	snap.LastViewedAt = &viewed
	s.snaps[token] = snap
	return copySnapshot(snap), nil
}

func (s *MemoryStore) Revoke(ctx context.Context, token, ownerID string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return apperr.Unavailable("sharelinks.revoke", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.snaps[token]
	if !ok || snap.OwnerID != ownerID {
		return ErrNotFound
	}
	if snap.RevokedAt == nil {
		revoked := at
		snap.RevokedAt = &revoked
		s.snaps[token] = snap
	}
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, token string) error {
	if err := ctx.Err(); err != nil {
		return apperr.Unavailable("sharelinks.delete", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snaps, token)
	return nil
}

func (s *MemoryStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, apperr.Unavailable("sharelinks.delete_expired", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for token, snap := range s.snaps {
		if snap.Expired(now) {
			delete(s.snaps, token)
			n++
		}
	}
	return n, nil
}

var _ Store = (*MemoryStore)(nil)
