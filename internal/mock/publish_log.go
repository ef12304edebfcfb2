package mock

import (
	"context"
	"sync"

	"github.com/user/relay-service/internal/entity"
	"github.com/user/relay-service/internal/repository"
)

var _ repository.PublishLogRepository = (*PublishLogRepository)(nil)

// PublishLogRepository keeps saved records in memory.
type PublishLogRepository struct {
	mu      sync.Mutex
	Records []*entity.PublishRecord
	SaveErr error
}

func (r *PublishLogRepository) Save(ctx context.Context, record *entity.PublishRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.SaveErr != nil {
		return r.SaveErr
	}
	r.Records = append(r.Records, record)
	return nil
}

func (r *PublishLogRepository) ListRecent(ctx context.Context, channel entity.Channel, limit int) ([]*entity.PublishRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.PublishRecord
	for i := len(r.Records) - 1; i >= 0 && len(out) < limit; i-- {
		if channel == "" || r.Records[i].Channel == channel {
			out = append(out, r.Records[i])
		}
	}
	return out, nil
}
