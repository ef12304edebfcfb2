package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/user/relay-service/internal/entity"
	"github.com/user/relay-service/internal/extractor"
	"github.com/user/relay-service/internal/repository"
	"github.com/user/relay-service/pkg/metrics"
	"github.com/user/relay-service/pkg/utils"
	"go.uber.org/zap"
)

// Extractor defines the interface for the page-to-fragment pipeline.
type Extractor interface {
	Extract(ctx context.Context, req *entity.ExtractionRequest) (*entity.ExtractionResult, error)
}

type extractUseCase struct {
	fetcher         repository.PageFetcher
	defaultSelector string
	logger          *zap.Logger
}

// NewExtractUseCase creates the extraction pipeline. An empty defaultSelector means entity.DefaultSelector.
func NewExtractUseCase(fetcher repository.PageFetcher, defaultSelector string, logger *zap.Logger) Extractor {
	if defaultSelector == "" {
		defaultSelector = entity.DefaultSelector
	}
	return &extractUseCase{fetcher: fetcher, defaultSelector: defaultSelector, logger: logger}
}

// Extract fetches the page, runs the fallback chain and normalizes the fragment.
func (uc *extractUseCase) Extract(ctx context.Context, req *entity.ExtractionRequest) (*entity.ExtractionResult, error) {
	if req.URL == "" {
		return nil, &entity.ValidationError{Field: "url", Message: "url is required"}
	}
	if _, err := utils.ValidateHTTPURL(req.URL); err != nil {
		return nil, &entity.ValidationError{Field: "url", Message: fmt.Sprintf("invalid url: %v", err)}
	}
	selector := req.Selector
	if selector == "" {
		selector = uc.defaultSelector
	}
	mode := req.Mode
	if mode == "" {
		mode = entity.ModeAuto
	}

	logger := uc.logger.With(
		zap.String("url", req.URL),
		zap.String("selector", selector),
		zap.String("mode", string(mode)),
	)

	start := time.Now()
	page, err := uc.fetcher.Fetch(ctx, req.URL)
	if err != nil {
		logger.Warn("fetch failed", zap.Error(err))
		metrics.ExtractionsTotal.WithLabelValues("", "fetch_error").Inc()
		return nil, fmt.Errorf("failed to fetch %s: %w", req.URL, err)
	}

	result, err := extractor.Extract(page.Body, selector, mode)
	if err != nil {
		var notFound *entity.NotFoundError
		if errors.As(err, &notFound) {
			logger.Info("no content found", zap.Error(err))
			metrics.ExtractionsTotal.WithLabelValues("", "not_found").Inc()
		}
		return nil, err
	}

	content, err := extractor.Normalize(result.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize fragment: %w", err)
	}
	result.Content = content
	result.SourceURL = req.URL

	metrics.ExtractionsTotal.WithLabelValues(string(result.UsedStrategy), "success").Inc()
	logger.Info("content extracted",
		zap.String("strategy", string(result.UsedStrategy)),
		zap.String("used_selector", result.UsedSelector),
		zap.Int("length", len(result.Content)),
		zap.Duration("duration", time.Since(start)),
	)
	return result, nil
}
