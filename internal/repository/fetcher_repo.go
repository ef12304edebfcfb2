package repository

import (
	"context"

	"github.com/user/relay-service/internal/entity"
)

// PageFetcher defines the contract for retrieving raw HTML of a target page.
type PageFetcher interface {
	// Fetch performs a single GET. Non-2xx answers are returned as *entity.HTTPError,
	// transport failures as *entity.NetworkError. It never retries.
	Fetch(ctx context.Context, url string) (*entity.FetchedPage, error)
}
