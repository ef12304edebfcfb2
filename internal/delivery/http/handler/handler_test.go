package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/relay-service/internal/delivery/http/handler"
	"github.com/user/relay-service/internal/delivery/http/router"
	"github.com/user/relay-service/internal/entity"
	"github.com/user/relay-service/internal/mock"
	"github.com/user/relay-service/internal/repository"
	"github.com/user/relay-service/internal/usecase"
	"github.com/user/relay-service/pkg/metrics"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	metrics.Init()
	os.Exit(m.Run())
}

type env struct {
	server    *httptest.Server
	store     *usecase.SessionStore
	repo      *mock.SessionRepository
	fetcher   *mock.PageFetcher
	login     *mock.LoginAgent
	publisher *mock.PublishAgent
	log       *mock.PublishLogRepository
}

func newEnv(t *testing.T) *env {
	t.Helper()
	logger := zap.NewNop()
	e := &env{
		repo: mock.NewSessionRepository(),
		fetcher: &mock.PageFetcher{FetchFn: func(ctx context.Context, url string) (*entity.FetchedPage, error) {
			return &entity.FetchedPage{URL: url, Body: `<script>var data = {"content":"<p>hi</p>"};</script>`}, nil
		}},
		login: &mock.LoginAgent{
			ChannelValue: entity.ChannelEditor135,
			LoginFn: func(ctx context.Context, creds entity.Credentials) (*entity.LoginResult, error) {
				cookies := entity.CookiePairs{{Name: "PHPSESSID", Value: "abc123"}, {Name: "SERVERID", Value: "srv1"}}
				return &entity.LoginResult{
					Record:          &entity.SessionRecord{Channel: entity.ChannelEditor135, Cookies: cookies},
					Cookies:         []string{cookies.Compact()},
					ExtractedFields: map[string]string{"phpSessionId": "abc123"},
				}, nil
			},
		},
		publisher: &mock.PublishAgent{
			ChannelValue: entity.ChannelEditor135,
			PublishFn: func(ctx context.Context, req *entity.PublishRequest, cookies entity.CookiePairs) (*entity.PublishResult, error) {
				return &entity.PublishResult{Success: true, RemoteArticleID: "42", RawResponse: json.RawMessage(`{"ret":0}`)}, nil
			},
		},
		log: &mock.PublishLogRepository{},
	}
	e.store = usecase.NewSessionStore(e.repo, 0, logger)

	creds := mock.Credentials{entity.ChannelEditor135: {Account: "a", Password: "p"}}
	sessions := usecase.NewSessionManager(e.store, creds, []repository.LoginAgent{e.login}, nil, nil, logger)
	saver := usecase.NewSaveUseCase(e.store, sessions, []repository.PublishAgent{e.publisher}, e.log, usecase.SavePolicy{}, logger)
	extractor := usecase.NewExtractUseCase(e.fetcher, "", logger)

	h := handler.NewHandler(extractor, saver, sessions, e.log, map[string]handler.Pinger{"redis": e.store}, logger)
	e.server = httptest.NewServer(router.New(h, logger))
	t.Cleanup(e.server.Close)
	return e
}

func (e *env) do(t *testing.T, method, path, body string) (int, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, e.server.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestScrape(t *testing.T) {
	t.Parallel()

	t.Run("POST returns the extracted fragment", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)

		status, body := e.do(t, http.MethodPost, "/api/scrape", `{"url":"https://example.com/p","selector":"#none-matching"}`)

		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "<p>hi</p>", body["content"])
		assert.Equal(t, "script-data", body["usedSource"])
		assert.Equal(t, "none", body["usedSelector"])
		assert.Equal(t, "https://example.com/p", body["source"])
	})

	t.Run("GET reads query parameters", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)

		status, body := e.do(t, http.MethodGet, "/api/scrape?url=https://example.com/p&type=script-data", "")

		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "<p>hi</p>", body["content"])
	})

	t.Run("missing url is 400", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)

		status, body := e.do(t, http.MethodPost, "/api/scrape", `{}`)

		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, "invalid request", body["error"])
		assert.NotEmpty(t, body["message"])
	})

	t.Run("unknown type is 400", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)

		status, _ := e.do(t, http.MethodPost, "/api/scrape", `{"url":"https://example.com/p","type":"xpath"}`)
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("nothing found is 404 with the original url", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		e.fetcher.FetchFn = func(ctx context.Context, url string) (*entity.FetchedPage, error) {
			return &entity.FetchedPage{URL: url, Body: "<p>plain</p>"}, nil
		}

		status, body := e.do(t, http.MethodPost, "/api/scrape", `{"url":"https://example.com/p","selector":".post"}`)

		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, "content not found", body["error"])
		assert.Contains(t, body["message"], ".post")
		assert.Equal(t, "https://example.com/p", body["originalUrl"])
	})

	t.Run("upstream timeout is 504", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		e.fetcher.FetchFn = func(ctx context.Context, url string) (*entity.FetchedPage, error) {
			return nil, &entity.NetworkError{URL: url, Timeout: true, Err: context.DeadlineExceeded}
		}

		status, _ := e.do(t, http.MethodPost, "/api/scrape", `{"url":"https://example.com/p"}`)
		assert.Equal(t, http.StatusGatewayTimeout, status)
	})

	t.Run("unreachable upstream is 503", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		e.fetcher.FetchFn = func(ctx context.Context, url string) (*entity.FetchedPage, error) {
			return nil, &entity.NetworkError{URL: url, Err: errors.New("no such host")}
		}

		status, _ := e.do(t, http.MethodPost, "/api/scrape", `{"url":"https://example.com/p"}`)
		assert.Equal(t, http.StatusServiceUnavailable, status)
	})
}

func TestLoginAndLogout(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("login caches the session and reports cookies", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)

		status, body := e.do(t, http.MethodPost, "/api/login/135", "")

		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, []any{"PHPSESSID=abc123;SERVERID=srv1;"}, body["cookies"])
		assert.NotEmpty(t, e.store.Cookies(ctx, entity.ChannelEditor135))

		status, body = e.do(t, http.MethodGet, "/api/session/135", "")
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, true, body["valid"])
	})

	t.Run("logout clears the session", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		require.NoError(t, e.store.Put(ctx, entity.ChannelEditor135, entity.CookiePairs{{Name: "a", Value: "1"}}))

		status, _ := e.do(t, http.MethodDelete, "/api/login/135", "")

		assert.Equal(t, http.StatusOK, status)
		assert.Empty(t, e.store.Cookies(ctx, entity.ChannelEditor135))
	})

	t.Run("unknown channel is 400", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)

		status, _ := e.do(t, http.MethodPost, "/api/login/42", "")
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("failed login is reported", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		e.login.LoginFn = func(ctx context.Context, creds entity.Credentials) (*entity.LoginResult, error) {
			return nil, &entity.LoginError{Channel: entity.ChannelEditor135, Reason: "no Set-Cookie header"}
		}

		status, body := e.do(t, http.MethodPost, "/api/login/135", "")

		assert.Equal(t, http.StatusInternalServerError, status)
		assert.Equal(t, false, body["success"])
		assert.Contains(t, body["error"], "no Set-Cookie header")
	})
}

func TestSave(t *testing.T) {
	t.Parallel()

	t.Run("saves with an automatic login", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)

		status, body := e.do(t, http.MethodPost, "/api/save/135", `{"title":"T","content":"<p>c</p>"}`)

		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, true, body["loggedIn"])
		assert.Equal(t, "42", body["remoteArticleId"])
		assert.Equal(t, map[string]any{"ret": float64(0)}, body["data"])
		assert.Len(t, e.log.Records, 1)
	})

	t.Run("missing content is 400", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)

		status, body := e.do(t, http.MethodPost, "/api/save/135", `{"title":"T"}`)

		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "invalid request", body["error"])
		assert.Equal(t, "content is required", body["message"])
	})

	t.Run("stale session is 401 with needLogin", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		require.NoError(t, e.store.Put(context.Background(), entity.ChannelEditor135, entity.CookiePairs{{Name: "a", Value: "old"}}))
		e.publisher.PublishFn = func(ctx context.Context, req *entity.PublishRequest, cookies entity.CookiePairs) (*entity.PublishResult, error) {
			return &entity.PublishResult{NeedsLogin: true, Message: "cookie expired"}, nil
		}

		status, body := e.do(t, http.MethodPost, "/api/save/135", `{"title":"T","content":"c"}`)

		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, true, body["needLogin"])
	})

	t.Run("platform rejection is 500 with its message", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		e.publisher.PublishFn = func(ctx context.Context, req *entity.PublishRequest, cookies entity.CookiePairs) (*entity.PublishResult, error) {
			return &entity.PublishResult{Message: "标题过长"}, nil
		}

		status, body := e.do(t, http.MethodPost, "/api/save/135", `{"title":"T","content":"c"}`)

		assert.Equal(t, http.StatusInternalServerError, status)
		assert.Equal(t, "标题过长", body["message"])
	})
}

func TestPublishLogAndHealth(t *testing.T) {
	t.Parallel()

	t.Run("publish log lists attempts", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		e.do(t, http.MethodPost, "/api/save/135", `{"title":"T","content":"c"}`)

		status, body := e.do(t, http.MethodGet, "/api/publish-log?channel=135&limit=5", "")

		assert.Equal(t, http.StatusOK, status)
		assert.Len(t, body["records"], 1)
	})

	t.Run("bad limit is 400", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)

		status, _ := e.do(t, http.MethodGet, "/api/publish-log?limit=-1", "")
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("health reports dependencies", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)

		status, body := e.do(t, http.MethodGet, "/api/health", "")
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "ok", body["redis"])

		e.repo.SetErr(errors.New("down"))
		status, body = e.do(t, http.MethodGet, "/api/health", "")
		assert.Equal(t, http.StatusServiceUnavailable, status)
		assert.Equal(t, "unavailable", body["redis"])
	})
}

func TestSessionCheckWithoutChecker(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	status, _ := e.do(t, http.MethodPost, "/api/session/135/check", "")
	assert.Equal(t, http.StatusNotImplemented, status)
}
