package repository

import (
	"context"
	"time"

	"github.com/user/relay-service/internal/entity"
)

// SessionRepository defines the durable backing store of cached platform sessions.
// One record is kept per channel.
type SessionRepository interface {
	// Save stores the record for its channel, replacing any previous one, with a native expiry.
	Save(ctx context.Context, record *entity.SessionRecord, expiry time.Duration) error
	// Find returns the record of a channel, or nil when none is stored.
	Find(ctx context.Context, channel entity.Channel) (*entity.SessionRecord, error)
	// Delete removes the record of a channel. Deleting a missing record is not an error.
	Delete(ctx context.Context, channel entity.Channel) error
	// DeleteAll removes every cached session.
	DeleteAll(ctx context.Context) error
	// Ping checks connectivity to the store.
	Ping(ctx context.Context) error
}
