package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/user/relay-service/internal/entity"
	"github.com/user/relay-service/internal/repository"
	"github.com/user/relay-service/pkg/metrics"
	"go.uber.org/zap"
)

// DefaultSessionTTL is how long a platform session is trusted after login.
const DefaultSessionTTL = 24 * time.Hour

var ErrEmptySession = errors.New("refusing to store a session without cookies")

// SessionStore is the channel-scoped, TTL-bounded cache of platform cookies.
// The TTL is enforced twice: by the backing store's native expiry, and by an
// age check on every read.
type SessionStore struct {
	repo   repository.SessionRepository
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger
}

// NewSessionStore creates a session store over repo. A non-positive ttl means DefaultSessionTTL.
func NewSessionStore(repo repository.SessionRepository, ttl time.Duration, logger *zap.Logger) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionStore{repo: repo, ttl: ttl, now: time.Now, logger: logger}
}

// TTL reports the configured lifetime of a session.
func (s *SessionStore) TTL() time.Duration {
	return s.ttl
}

// Put caches cookies for channel, replacing the previous session. A non-nil
// error means "assume not stored"; callers may carry on without the cache.
func (s *SessionStore) Put(ctx context.Context, channel entity.Channel, cookies entity.CookiePairs) error {
	if len(cookies) == 0 {
		return ErrEmptySession
	}
	record := &entity.SessionRecord{Channel: channel, Cookies: cookies, CapturedAt: s.now()}
	if err := s.repo.Save(ctx, record, s.ttl); err != nil {
		s.logger.Warn("failed to store session", zap.String("channel", string(channel)), zap.Error(err))
		return err
	}
	s.logger.Info("session stored", zap.String("channel", string(channel)), zap.Int("cookies", len(cookies)))
	return nil
}

// Get returns the live session of channel or nil. Store errors are logged and
// read as "no session". A record older than the TTL is deleted and reported as absent.
func (s *SessionStore) Get(ctx context.Context, channel entity.Channel) *entity.SessionRecord {
	record, err := s.repo.Find(ctx, channel)
	if err != nil {
		s.logger.Warn("failed to read session", zap.String("channel", string(channel)), zap.Error(err))
		metrics.SessionLookupsTotal.WithLabelValues(string(channel), "error").Inc()
		return nil
	}
	if record == nil || len(record.Cookies) == 0 {
		metrics.SessionLookupsTotal.WithLabelValues(string(channel), "miss").Inc()
		return nil
	}

	if age := record.Age(s.now()); age > s.ttl {
		s.logger.Info("session expired, deleting",
			zap.String("channel", string(channel)),
			zap.Duration("age", age),
		)
		metrics.SessionLookupsTotal.WithLabelValues(string(channel), "expired").Inc()
		// Concurrent readers may race on this delete; DEL is idempotent.
		if err := s.repo.Delete(ctx, channel); err != nil {
			s.logger.Warn("failed to delete expired session", zap.String("channel", string(channel)), zap.Error(err))
		}
		return nil
	}

	metrics.SessionLookupsTotal.WithLabelValues(string(channel), "hit").Inc()
	return record
}

// Cookies is Get reduced to the cookie pairs; empty means no session.
func (s *SessionStore) Cookies(ctx context.Context, channel entity.Channel) entity.CookiePairs {
	if record := s.Get(ctx, channel); record != nil {
		return record.Cookies
	}
	return nil
}

// Clear drops the session of one channel.
func (s *SessionStore) Clear(ctx context.Context, channel entity.Channel) error {
	if err := s.repo.Delete(ctx, channel); err != nil {
		return err
	}
	s.logger.Info("session cleared", zap.String("channel", string(channel)))
	return nil
}

// ClearAll drops every cached session.
func (s *SessionStore) ClearAll(ctx context.Context) error {
	if err := s.repo.DeleteAll(ctx); err != nil {
		return err
	}
	s.logger.Info("all sessions cleared")
	return nil
}

// Status describes the cached session of channel without exposing cookie values.
func (s *SessionStore) Status(ctx context.Context, channel entity.Channel) *entity.SessionStatus {
	status := &entity.SessionStatus{Channel: channel}
	record := s.Get(ctx, channel)
	if record == nil {
		return status
	}
	captured := record.CapturedAt
	expires := captured.Add(s.ttl)
	status.Valid = true
	status.CapturedAt = &captured
	status.ExpiresAt = &expires
	for _, p := range record.Cookies {
		status.CookieKeys = append(status.CookieKeys, p.Name)
	}
	return status
}

// Ping checks the backing store.
func (s *SessionStore) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}
