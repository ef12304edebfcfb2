package mock

import (
	"context"

	"github.com/user/relay-service/internal/entity"
	"github.com/user/relay-service/internal/repository"
)

var _ repository.PageFetcher = (*PageFetcher)(nil)

// PageFetcher is a mock implementation of repository.PageFetcher.
type PageFetcher struct {
	FetchFn func(ctx context.Context, url string) (*entity.FetchedPage, error)
}

func (f *PageFetcher) Fetch(ctx context.Context, url string) (*entity.FetchedPage, error) {
	return f.FetchFn(ctx, url)
}
