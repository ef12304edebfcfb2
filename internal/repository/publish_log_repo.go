package repository

import (
	"context"

	"github.com/user/relay-service/internal/entity"
)

// PublishLogRepository defines the interface for recording publish attempts.
type PublishLogRepository interface {
	// Save appends one attempt to the log.
	Save(ctx context.Context, record *entity.PublishRecord) error
	// ListRecent returns the newest records, optionally restricted to one channel.
	ListRecent(ctx context.Context, channel entity.Channel, limit int) ([]*entity.PublishRecord, error)
}
