package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/relay-service/internal/entity"
	"github.com/user/relay-service/internal/mock"
	"github.com/user/relay-service/internal/repository"
	"go.uber.org/zap"
)

var freshCookies = entity.CookiePairs{{Name: "PHPSESSID", Value: "fresh"}}

func loginAgentReturning(cookies entity.CookiePairs, err error) *mock.LoginAgent {
	return &mock.LoginAgent{
		ChannelValue: entity.ChannelEditor135,
		LoginFn: func(ctx context.Context, creds entity.Credentials) (*entity.LoginResult, error) {
			if err != nil {
				return nil, err
			}
			return &entity.LoginResult{
				Record:  &entity.SessionRecord{Channel: entity.ChannelEditor135, Cookies: cookies},
				Cookies: []string{cookies.Compact()},
			}, nil
		},
	}
}

type saveFixture struct {
	saver     Saver
	store     *SessionStore
	repo      *mock.SessionRepository
	login     *mock.LoginAgent
	publisher *mock.PublishAgent
	log       *mock.PublishLogRepository
	// seen collects the cookies each publish call was made with.
	seen []entity.CookiePairs
}

func newSaveFixture(t *testing.T, policy SavePolicy, login *mock.LoginAgent, answer func(call int, cookies entity.CookiePairs) (*entity.PublishResult, error)) *saveFixture {
	t.Helper()
	f := &saveFixture{login: login, log: &mock.PublishLogRepository{}}
	f.store, f.repo, _ = newTestSessionStore(t)
	f.publisher = &mock.PublishAgent{ChannelValue: entity.ChannelEditor135}
	f.publisher.PublishFn = func(ctx context.Context, req *entity.PublishRequest, cookies entity.CookiePairs) (*entity.PublishResult, error) {
		f.seen = append(f.seen, cookies)
		return answer(f.publisher.Calls, cookies)
	}
	creds := mock.Credentials{entity.ChannelEditor135: {Account: "a", Password: "p"}}
	sessions := NewSessionManager(f.store, creds, []repository.LoginAgent{login}, nil, nil, zap.NewNop())
	f.saver = NewSaveUseCase(f.store, sessions, []repository.PublishAgent{f.publisher}, f.log, policy, zap.NewNop())
	return f
}

func succeed(int, entity.CookiePairs) (*entity.PublishResult, error) {
	return &entity.PublishResult{Success: true, RemoteArticleID: "42", StatusCode: 200}, nil
}

func staleThenSucceed(call int, _ entity.CookiePairs) (*entity.PublishResult, error) {
	if call == 1 {
		return &entity.PublishResult{NeedsLogin: true, Message: "login required", StatusCode: 200}, nil
	}
	return succeed(call, nil)
}

var article = &entity.PublishRequest{Title: "T", Content: "<p>c</p>"}

func TestSaveUseCase(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("cached session is used without login", func(t *testing.T) {
		t.Parallel()
		f := newSaveFixture(t, SavePolicy{}, loginAgentReturning(freshCookies, nil), succeed)
		require.NoError(t, f.store.Put(ctx, entity.ChannelEditor135, testCookies))

		outcome, err := f.saver.Save(ctx, entity.ChannelEditor135, article)
		require.NoError(t, err)

		assert.Equal(t, entity.SaveSuccess, outcome.FinalState)
		assert.False(t, outcome.LoggedIn)
		assert.Equal(t, 0, f.login.Calls)
		assert.Equal(t, []entity.CookiePairs{testCookies}, f.seen)
		assert.Equal(t, "42", outcome.Result.RemoteArticleID)
	})

	t.Run("no session logs in once then publishes", func(t *testing.T) {
		t.Parallel()
		f := newSaveFixture(t, SavePolicy{}, loginAgentReturning(freshCookies, nil), succeed)

		outcome, err := f.saver.Save(ctx, entity.ChannelEditor135, article)
		require.NoError(t, err)

		assert.True(t, outcome.LoggedIn)
		assert.Equal(t, 1, f.login.Calls)
		assert.Equal(t, []entity.CookiePairs{freshCookies}, f.seen)
		assert.Equal(t, freshCookies, f.store.Cookies(ctx, entity.ChannelEditor135), "login result is cached")
	})

	t.Run("failed login is terminal with need login", func(t *testing.T) {
		t.Parallel()
		loginErr := &entity.LoginError{Channel: entity.ChannelEditor135, Reason: "no Set-Cookie header"}
		f := newSaveFixture(t, SavePolicy{}, loginAgentReturning(nil, loginErr), succeed)

		outcome, err := f.saver.Save(ctx, entity.ChannelEditor135, article)

		require.ErrorAs(t, err, &loginErr)
		assert.Equal(t, entity.KindAuthRequired, entity.KindOf(err))
		assert.Equal(t, entity.SaveFailed, outcome.FinalState)
		assert.True(t, outcome.NeedLogin)
		assert.Equal(t, 1, f.login.Calls, "single attempt")
		assert.Equal(t, 0, f.publisher.Calls)
		assert.Empty(t, f.store.Cookies(ctx, entity.ChannelEditor135), "failed login writes nothing")
	})

	// The default policy deliberately differs between "no session" (auto
	// login) and "stale session" (surface need-login). This test pins that.
	t.Run("stale cached session is not retried by default", func(t *testing.T) {
		t.Parallel()
		f := newSaveFixture(t, SavePolicy{}, loginAgentReturning(freshCookies, nil), staleThenSucceed)
		require.NoError(t, f.store.Put(ctx, entity.ChannelEditor135, testCookies))

		outcome, err := f.saver.Save(ctx, entity.ChannelEditor135, article)

		var authErr *entity.AuthRequiredError
		require.ErrorAs(t, err, &authErr)
		assert.True(t, outcome.NeedLogin)
		assert.Equal(t, entity.SaveFailed, outcome.FinalState)
		assert.Equal(t, 0, f.login.Calls)
		assert.Equal(t, 1, f.publisher.Calls)
		assert.Empty(t, f.store.Cookies(ctx, entity.ChannelEditor135), "stale session is dropped")
	})

	t.Run("stale cached session logs in and retries once when enabled", func(t *testing.T) {
		t.Parallel()
		f := newSaveFixture(t, SavePolicy{ReloginOnStaleSession: true}, loginAgentReturning(freshCookies, nil), staleThenSucceed)
		require.NoError(t, f.store.Put(ctx, entity.ChannelEditor135, testCookies))

		outcome, err := f.saver.Save(ctx, entity.ChannelEditor135, article)
		require.NoError(t, err)

		assert.True(t, outcome.LoggedIn)
		assert.Equal(t, 1, f.login.Calls)
		assert.Equal(t, []entity.CookiePairs{testCookies, freshCookies}, f.seen)
	})

	t.Run("retry is attempted at most once", func(t *testing.T) {
		t.Parallel()
		alwaysStale := func(int, entity.CookiePairs) (*entity.PublishResult, error) {
			return &entity.PublishResult{NeedsLogin: true}, nil
		}
		f := newSaveFixture(t, SavePolicy{ReloginOnStaleSession: true}, loginAgentReturning(freshCookies, nil), alwaysStale)
		require.NoError(t, f.store.Put(ctx, entity.ChannelEditor135, testCookies))

		outcome, err := f.saver.Save(ctx, entity.ChannelEditor135, article)

		require.Error(t, err)
		assert.True(t, outcome.NeedLogin)
		assert.Equal(t, 1, f.login.Calls)
		assert.Equal(t, 2, f.publisher.Calls)
		assert.Empty(t, f.store.Cookies(ctx, entity.ChannelEditor135), "rejected cookies must not stay cached")
	})

	t.Run("a fresh login rejected at publish is not retried", func(t *testing.T) {
		t.Parallel()
		f := newSaveFixture(t, SavePolicy{ReloginOnStaleSession: true}, loginAgentReturning(freshCookies, nil), staleThenSucceed)

		outcome, err := f.saver.Save(ctx, entity.ChannelEditor135, article)

		require.Error(t, err)
		assert.True(t, outcome.NeedLogin)
		assert.Equal(t, 1, f.login.Calls)
		assert.Equal(t, 1, f.publisher.Calls)
	})

	t.Run("platform failure code is a protocol error with its message", func(t *testing.T) {
		t.Parallel()
		rejected := func(int, entity.CookiePairs) (*entity.PublishResult, error) {
			return &entity.PublishResult{Message: "标题过长", StatusCode: 200}, nil
		}
		f := newSaveFixture(t, SavePolicy{}, loginAgentReturning(freshCookies, nil), rejected)
		require.NoError(t, f.store.Put(ctx, entity.ChannelEditor135, testCookies))

		outcome, err := f.saver.Save(ctx, entity.ChannelEditor135, article)

		var protoErr *entity.ProtocolError
		require.ErrorAs(t, err, &protoErr)
		assert.Equal(t, "标题过长", protoErr.Message)
		assert.False(t, outcome.NeedLogin)
		assert.Equal(t, entity.SaveFailed, outcome.FinalState)
	})

	t.Run("network errors propagate", func(t *testing.T) {
		t.Parallel()
		netErr := &entity.NetworkError{URL: "https://www.135editor.com", Err: errors.New("connection refused")}
		failing := func(int, entity.CookiePairs) (*entity.PublishResult, error) { return nil, netErr }
		f := newSaveFixture(t, SavePolicy{}, loginAgentReturning(freshCookies, nil), failing)
		require.NoError(t, f.store.Put(ctx, entity.ChannelEditor135, testCookies))

		_, err := f.saver.Save(ctx, entity.ChannelEditor135, article)

		assert.Equal(t, entity.KindNetwork, entity.KindOf(err))
	})

	t.Run("invalid request never touches the platform", func(t *testing.T) {
		t.Parallel()
		f := newSaveFixture(t, SavePolicy{}, loginAgentReturning(freshCookies, nil), succeed)

		_, err := f.saver.Save(ctx, entity.ChannelEditor135, &entity.PublishRequest{Title: "T"})

		assert.Equal(t, entity.KindValidation, entity.KindOf(err))
		assert.Equal(t, 0, f.login.Calls)
		assert.Equal(t, 0, f.publisher.Calls)
	})

	t.Run("unknown channel is a validation error", func(t *testing.T) {
		t.Parallel()
		f := newSaveFixture(t, SavePolicy{}, loginAgentReturning(freshCookies, nil), succeed)

		_, err := f.saver.Save(ctx, entity.ChannelWeixin96, article)

		assert.Equal(t, entity.KindValidation, entity.KindOf(err))
	})

	t.Run("every attempt is recorded, and log failures are ignored", func(t *testing.T) {
		t.Parallel()
		f := newSaveFixture(t, SavePolicy{}, loginAgentReturning(freshCookies, nil), succeed)

		_, err := f.saver.Save(ctx, entity.ChannelEditor135, article)
		require.NoError(t, err)
		require.Len(t, f.log.Records, 1)
		rec := f.log.Records[0]
		assert.NotEmpty(t, rec.ID)
		assert.True(t, rec.Success)
		assert.Equal(t, "42", rec.RemoteArticleID)
		assert.Equal(t, len(article.Content), rec.ContentLength)

		f.log.SaveErr = errors.New("db down")
		_, err = f.saver.Save(ctx, entity.ChannelEditor135, article)
		assert.NoError(t, err)
	})

	t.Run("session store outage falls back to login", func(t *testing.T) {
		t.Parallel()
		f := newSaveFixture(t, SavePolicy{}, loginAgentReturning(freshCookies, nil), succeed)
		f.repo.SetErr(errors.New("redis down"))

		outcome, err := f.saver.Save(ctx, entity.ChannelEditor135, article)
		require.NoError(t, err)

		assert.True(t, outcome.LoggedIn)
		assert.Equal(t, []entity.CookiePairs{freshCookies}, f.seen)
	})
}
