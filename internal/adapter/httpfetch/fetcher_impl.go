package httpfetch

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/user/relay-service/internal/entity"
	"github.com/user/relay-service/internal/repository"
	"github.com/user/relay-service/pkg/metrics"
	"github.com/user/relay-service/pkg/utils"
	"go.uber.org/zap"
)

// DefaultFetchTimeout bounds a single page fetch.
const DefaultFetchTimeout = 10 * time.Second

// maxBodyBytes caps how much of a page is read into memory.
const maxBodyBytes = 16 << 20

var _ repository.PageFetcher = (*Fetcher)(nil)

// Fetcher retrieves page HTML over plain HTTP with browser-like headers.
// It does not execute JavaScript.
type Fetcher struct {
	client  *http.Client
	timeout time.Duration
	agents  *UserAgents
	logger  *zap.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the per-request deadline. Defaults to DefaultFetchTimeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithUserAgents replaces the default user agent rotation.
func WithUserAgents(agents *UserAgents) Option {
	return func(f *Fetcher) {
		f.agents = agents
	}
}

// WithHTTPClient replaces the underlying client, e.g. to install a proxy transport.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		f.client = c
	}
}

// NewFetcher creates a new HTTP fetcher.
func NewFetcher(logger *zap.Logger, opts ...Option) *Fetcher {
	f := &Fetcher{
		timeout: DefaultFetchTimeout,
		agents:  NewUserAgents(),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.client == nil {
		f.client = &http.Client{}
	}
	return f
}

// Fetch performs one GET of url. It never retries.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*entity.FetchedPage, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &entity.ValidationError{Field: "url", Message: "invalid URL: " + err.Error()}
	}
	req.Header.Set("User-Agent", f.agents.Pick())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8")
	req.Header.Set("Accept-Language", "zh-CN,zh;q=0.9,en;q=0.8")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")
	req.Header.Set("Referer", url)

	start := time.Now()
	resp, err := f.client.Do(req)
	metrics.FetchDuration.WithLabelValues(utils.Hostname(url)).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, ClassifyError(url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		f.logger.Warn("fetch returned non-2xx status", zap.String("url", url), zap.Int("status", resp.StatusCode))
		return nil, &entity.HTTPError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, ClassifyError(url, err)
	}

	f.logger.Debug("fetched page",
		zap.String("url", url),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(body)),
		zap.Duration("duration", time.Since(start)),
	)

	return &entity.FetchedPage{
		URL:           url,
		Body:          string(body),
		StatusCode:    resp.StatusCode,
		ContentLength: int64(len(body)),
	}, nil
}

// ClassifyError wraps a transport error as *entity.NetworkError, flagging deadlines as timeouts.
func ClassifyError(url string, err error) error {
	var netErr net.Error
	timeout := errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout())
	return &entity.NetworkError{URL: url, Timeout: timeout, Err: err}
}
