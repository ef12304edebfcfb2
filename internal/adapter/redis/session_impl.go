package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/user/relay-service/internal/entity"
	"github.com/user/relay-service/internal/repository"
)

const sessionKeyPrefix = "session:"

var _ repository.SessionRepository = (*SessionRepoImpl)(nil)

// sessionValue is the stored JSON document, one per channel key.
type sessionValue struct {
	CookiePairs       []entity.CookiePair `json:"cookiePairs"`
	CapturedAtEpochMs int64               `json:"capturedAtEpochMs"`
}

// SessionRepoImpl provides a concrete implementation for the SessionRepository interface using Redis.
type SessionRepoImpl struct {
	client redis.UniversalClient
}

// NewSessionRepo creates a new instance of SessionRepoImpl.
func NewSessionRepo(client redis.UniversalClient) *SessionRepoImpl {
	return &SessionRepoImpl{client: client}
}

func (r *SessionRepoImpl) generateKey(channel entity.Channel) string {
	return fmt.Sprintf("%s%s", sessionKeyPrefix, channel)
}

// Save writes the record with SETEX so Redis expires it natively.
func (r *SessionRepoImpl) Save(ctx context.Context, record *entity.SessionRecord, expiry time.Duration) error {
	payload, err := json.Marshal(sessionValue{
		CookiePairs:       record.Cookies,
		CapturedAtEpochMs: record.CapturedAt.UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode session for %s: %w", record.Channel, err)
	}
	return r.client.SetEx(ctx, r.generateKey(record.Channel), payload, expiry).Err()
}

// Find returns nil, nil when the channel has no stored session.
func (r *SessionRepoImpl) Find(ctx context.Context, channel entity.Channel) (*entity.SessionRecord, error) {
	raw, err := r.client.Get(ctx, r.generateKey(channel)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var v sessionValue
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("corrupt session for %s: %w", channel, err)
	}
	return &entity.SessionRecord{
		Channel:    channel,
		Cookies:    v.CookiePairs,
		CapturedAt: time.UnixMilli(v.CapturedAtEpochMs),
	}, nil
}

// Delete removes the channel key. DEL on a missing key is a no-op.
func (r *SessionRepoImpl) Delete(ctx context.Context, channel entity.Channel) error {
	return r.client.Del(ctx, r.generateKey(channel)).Err()
}

// DeleteAll scans for every session key and deletes them in batches.
func (r *SessionRepoImpl) DeleteAll(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, sessionKeyPrefix+"*", 100).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

func (r *SessionRepoImpl) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
