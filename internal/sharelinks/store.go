package sharelinks

import (
	"context"
	"time"
)

// Store persists snapshots. Every implementation must make RecordView a
// single atomic step so concurrent viewers never lose increments.
type Store interface {
	Insert(ctx context.Context, snap Snapshot) error
	Get(ctx context.Context, token string) (Snapshot, error)
	// RecordView increments the view count of a live (unexpired, unrevoked)
	// snapshot and returns it. Anything else yields ErrNotFound.
	RecordView(ctx context.Context, token string, now time.Time) (Snapshot, error)
	// Revoke marks the owner's snapshot revoked. Idempotent.
	Revoke(ctx context.Context, token, ownerID string, at time.Time) error
	Delete(ctx context.Context, token string) error
	// DeleteExpired removes snapshots expired at now and reports how many.
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}
