package sharelinks

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"portfolio-backend/internal/resume"
)

func TestSnapshotHashRoundTrip(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	viewed := created.Add(time.Hour)
	in := Snapshot{
		Token:        "tok",
		DocumentID:   "doc-1",
		OwnerID:      "owner",
		DisplayName:  "Jane",
		TemplateID:   "modern",
		Content:      resume.Content{Name: "Jane", Skills: []string{"go"}},
		HideBranding: true,
		CreatedAt:    created,
		ExpiresAt:    created.Add(24 * time.Hour),
		ViewCount:    7,
		LastViewedAt: &viewed,
	}
	fields, err := encodeSnapshot(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	// Redis hands every field back as a string.
	raw := make(map[string]string, len(fields))
	for k, v := range fields {
		switch val := v.(type) {
		case string:
			raw[k] = val
		case int64:
			raw[k] = strconv.FormatInt(val, 10)
		default:
			raw[k] = fmt.Sprint(val)
		}
	}
	out, err := decodeSnapshot("tok", raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !out.ExpiresAt.Equal(in.ExpiresAt) || out.ViewCount != 7 || !out.HideBranding || out.RevokedAt != nil {
		t.Fatalf("unexpected snapshot %+v", out)
	}
	if out.LastViewedAt == nil || !out.LastViewedAt.Equal(viewed) {
		t.Fatalf("unexpected last viewed %v", out.LastViewedAt)
	}
	if out.Content.Name != "Jane" || out.Content.Skills[0] != "go" {
		t.Fatalf("unexpected content %+v", out.Content)
	}
}

func TestDecodeSnapshotRejectsMissingExpiry(t *testing.T) {
	_, err := decodeSnapshot("tok", map[string]string{"created_at": "1"})
	if !errors.Is(err, errMissingTimestamp) {
		t.Fatalf("expected missing timestamp, got %v", err)
	}
}

// TestRedisStoreLive runs against REDIS_TEST_URL when set.
func TestRedisStoreLive(t *testing.T) {
	url := os.Getenv("REDIS_TEST_URL")
	if url == "" {
		t.Skip("REDIS_TEST_URL not set")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		t.Fatalf("ParseURL: %v", err)
	}
	client := redis.NewClient(opts)
	defer client.Close()
	store := NewRedisStore(client)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Millisecond)
	token := fmt.Sprintf("test-%d", now.UnixNano())
	snap := Snapshot{Token: token, DocumentID: "doc-1", OwnerID: "owner", CreatedAt: now, ExpiresAt: now.Add(time.Minute)}
	if err := store.Insert(ctx, snap); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	defer store.Delete(ctx, token)

	got, err := store.RecordView(ctx, token, now)
	if err != nil || got.ViewCount != 1 {
		t.Fatalf("RecordView: %+v %v", got, err)
	}
	if _, err := store.RecordView(ctx, token, now.Add(time.Minute)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected refusal at expiry, got %v", err)
	}
	if err := store.Revoke(ctx, token, "intruder", now); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected owner check, got %v", err)
	}
	if err := store.Revoke(ctx, token, "owner", now); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	got, err = store.Get(ctx, token)
	if err != nil || got.RevokedAt == nil {
		t.Fatalf("expected revoked snapshot, got %+v %v", got, err)
	}
}
