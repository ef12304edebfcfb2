package mock

import (
	"context"
	"sync"
	"time"

	"github.com/user/relay-service/internal/entity"
	"github.com/user/relay-service/internal/repository"
)

var _ repository.SessionRepository = (*SessionRepository)(nil)

// SessionRepository is an in-memory repository.SessionRepository.
// It records the requested native expiry without enforcing it; a non-nil Err fails every call.
type SessionRepository struct {
	mu      sync.Mutex
	records map[entity.Channel]*entity.SessionRecord
	Expiry  map[entity.Channel]time.Duration
	Err     error
	Deletes int
}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{
		records: make(map[entity.Channel]*entity.SessionRecord),
		Expiry:  make(map[entity.Channel]time.Duration),
	}
}

func (r *SessionRepository) Save(ctx context.Context, record *entity.SessionRecord, expiry time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	copied := *record
	r.records[record.Channel] = &copied
	r.Expiry[record.Channel] = expiry
	return nil
}

func (r *SessionRepository) Find(ctx context.Context, channel entity.Channel) (*entity.SessionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	record, ok := r.records[channel]
	if !ok {
		return nil, nil
	}
	copied := *record
	return &copied, nil
}

func (r *SessionRepository) Delete(ctx context.Context, channel entity.Channel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.Deletes++
	delete(r.records, channel)
	return nil
}

func (r *SessionRepository) DeleteAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.records = make(map[entity.Channel]*entity.SessionRecord)
	return nil
}

func (r *SessionRepository) Ping(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Err
}

// Seed stores a record directly, bypassing Save.
func (r *SessionRepository) Seed(record *entity.SessionRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *record
	r.records[record.Channel] = &copied
}

// SetErr switches failure injection on or off.
func (r *SessionRepository) SetErr(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Err = err
}
