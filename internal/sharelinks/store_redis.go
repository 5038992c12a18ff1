package sharelinks

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"portfolio-backend/internal/shared/apperr"
)

const (
	redisKeyPrefix = "share:"
	// Keys outlive ExpiresAt by this much so an expired link still reads as
	// expired, not unknown, until Redis evicts it.
	defaultExpiredGrace = 24 * time.Hour
)

// recordViewScript increments only while the snapshot is live.
// Returns 1 on success, 0 when missing, -1 when revoked, -2 when expired.
var recordViewScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then return 0 end
if redis.call('HEXISTS', KEYS[1], 'revoked_at') == 1 then return -1 end
local exp = tonumber(redis.call('HGET', KEYS[1], 'expires_at'))
if exp == nil or exp <= tonumber(ARGV[1]) then return -2 end
redis.call('HINCRBY', KEYS[1], 'view_count', 1)
redis.call('HSET', KEYS[1], 'last_viewed_at', ARGV[1])
return 1
`)

// revokeScript sets revoked_at once, only for the owning user.
var revokeScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then return 0 end
if redis.call('HGET', KEYS[1], 'owner_id') ~= ARGV[1] then return 0 end
redis.call('HSETNX', KEYS[1], 'revoked_at', ARGV[2])
return 1
`)

// RedisStore keeps snapshots as Redis hashes with native key expiry.
type RedisStore struct {
	Client redis.UniversalClient
	Grace  time.Duration
}

func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{Client: client, Grace: defaultExpiredGrace}
}

func redisKey(token string) string {
	return redisKeyPrefix + token
}

func (s *RedisStore) Insert(ctx context.Context, snap Snapshot) error {
	fields, err := encodeSnapshot(snap)
	if err != nil {
		return apperr.Unavailable("sharelinks.insert", err)
	}
	key := redisKey(snap.Token)
	_, err = s.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, fields)
		pipe.ExpireAt(ctx, key, snap.ExpiresAt.Add(s.Grace))
		return nil
	})
	if err != nil {
		return apperr.Unavailable("sharelinks.insert", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, token string) (Snapshot, error) {
	fields, err := s.Client.HGetAll(ctx, redisKey(token)).Result()
	if err != nil {
		return Snapshot{}, apperr.Unavailable("sharelinks.get", err)
	}
	if len(fields) == 0 {
		return Snapshot{}, ErrNotFound
	}
	snap, err := decodeSnapshot(token, fields)
	if err != nil {
		return Snapshot{}, apperr.Unavailable("sharelinks.get", err)
	}
	return snap, nil
}

func (s *RedisStore) RecordView(ctx context.Context, token string, now time.Time) (Snapshot, error) {
	res, err := recordViewScript.Run(ctx, s.Client, []string{redisKey(token)}, now.UnixMilli()).Int64()
	if err != nil {
		return Snapshot{}, apperr.Unavailable("sharelinks.record_view", err)
	}
	if res != 1 {
		return Snapshot{}, ErrNotFound
	}
	return s.Get(ctx, token)
}

func (s *RedisStore) Revoke(ctx context.Context, token, ownerID string, at time.Time) error {
	res, err := revokeScript.Run(ctx, s.Client, []string{redisKey(token)}, ownerID, at.UnixMilli()).Int64()
	if err != nil {
		return apperr.Unavailable("sharelinks.revoke", err)
	}
	if res == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, token string) error {
	if err := s.Client.Del(ctx, redisKey(token)).Err(); err != nil {
		return apperr.Unavailable("sharelinks.delete", err)
	}
	return nil
}

// DeleteExpired is a no-op: Redis evicts keys on its own.
func (s *RedisStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	return 0, nil
}

func encodeSnapshot(snap Snapshot) (map[string]any, error) {
	content, err := json.Marshal(snap.Content)
	if err != nil {
		return nil, err
	}
	fields := map[string]any{
		"document_id":   snap.DocumentID,
		"owner_id":      snap.OwnerID,
		"display_name":  snap.DisplayName,
		"template_id":   snap.TemplateID,
		"content":       string(content),
		"hide_branding": strconv.FormatBool(snap.HideBranding),
		"created_at":    snap.CreatedAt.UnixMilli(),
		"expires_at":    snap.ExpiresAt.UnixMilli(),
		"view_count":    snap.ViewCount,
	}
	if snap.LastViewedAt != nil {
		fields["last_viewed_at"] = snap.LastViewedAt.UnixMilli()
	}
	if snap.RevokedAt != nil {
		fields["revoked_at"] = snap.RevokedAt.UnixMilli()
	}
	return fields, nil
}

func decodeSnapshot(token string, fields map[string]string) (Snapshot, error) {
	snap := Snapshot{
		Token:       token,
		DocumentID:  fields["document_id"],
		OwnerID:     fields["owner_id"],
		DisplayName: fields["display_name"],
		TemplateID:  fields["template_id"],
	}
	if raw := fields["content"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &snap.Content); err != nil {
			return Snapshot{}, err
		}
	}
	snap.Content = snap.Content.Normalize()
	snap.HideBranding = fields["hide_branding"] == "true"

	var err error
	if snap.CreatedAt, err = millis(fields["created_at"]); err != nil {
		return Snapshot{}, err
	}
	if snap.ExpiresAt, err = millis(fields["expires_at"]); err != nil {
		return Snapshot{}, err
	}
	if raw := fields["view_count"]; raw != "" {
		if snap.ViewCount, err = strconv.ParseInt(raw, 10, 64); err != nil {
			return Snapshot{}, err
		}
	}
	if raw := fields["last_viewed_at"]; raw != "" {
		t, err := millis(raw)
		if err != nil {
			return Snapshot{}, err
		}
		snap.LastViewedAt = &t
	}
	if raw := fields["revoked_at"]; raw != "" {
		t, err := millis(raw)
		if err != nil {
			return Snapshot{}, err
		}
		snap.RevokedAt = &t
	}
	return snap, nil
}

var errMissingTimestamp = errors.New("missing timestamp")

func millis(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, errMissingTimestamp
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(ms).UTC(), nil
}

var _ Store = (*RedisStore)(nil)
