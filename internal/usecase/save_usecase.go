package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/user/relay-service/internal/entity"
	"github.com/user/relay-service/internal/repository"
	"github.com/user/relay-service/pkg/metrics"
	"go.uber.org/zap"
)

// Saver defines the interface for the publish flow of one article.
type Saver interface {
	Save(ctx context.Context, channel entity.Channel, req *entity.PublishRequest) (*entity.SaveOutcome, error)
}

// SavePolicy tunes the save flow.
type SavePolicy struct {
	// ReloginOnStaleSession makes a publish rejected for a stale cached
	// session log in once and retry once. When false the rejection is final.
	ReloginOnStaleSession bool
}

type saveUseCase struct {
	store      *SessionStore
	sessions   *SessionManager
	publishers map[entity.Channel]repository.PublishAgent
	publishLog repository.PublishLogRepository
	policy     SavePolicy
	now        func() time.Time
	logger     *zap.Logger
}

// NewSaveUseCase creates the save flow. publishLog may be nil.
func NewSaveUseCase(
	store *SessionStore,
	sessions *SessionManager,
	publishers []repository.PublishAgent,
	publishLog repository.PublishLogRepository,
	policy SavePolicy,
	logger *zap.Logger,
) Saver {
	byChannel := make(map[entity.Channel]repository.PublishAgent, len(publishers))
	for _, p := range publishers {
		byChannel[p.Channel()] = p
	}
	return &saveUseCase{
		store:      store,
		sessions:   sessions,
		publishers: byChannel,
		publishLog: publishLog,
		policy:     policy,
		now:        time.Now,
		logger:     logger,
	}
}

// Save publishes req to channel.
//
// With no cached session it logs in once before publishing. A cached session
// the platform rejects is dropped, and the request fails with need-login unless
// the policy allows one login and one retry. There is no other retry.
//
// The outcome is returned alongside any error so callers can report the final state.
func (uc *saveUseCase) Save(ctx context.Context, channel entity.Channel, req *entity.PublishRequest) (*entity.SaveOutcome, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	publisher, ok := uc.publishers[channel]
	if !ok {
		return nil, &entity.ValidationError{Field: "channel", Message: fmt.Sprintf("no publish agent for channel %q", channel)}
	}

	logger := uc.logger.With(zap.String("channel", string(channel)), zap.String("title", req.Title))
	outcome := &entity.SaveOutcome{Channel: channel, FinalState: entity.SaveIdle}

	outcome.FinalState = entity.SaveSessionLookup
	cookies := uc.store.Cookies(ctx, channel)

	if len(cookies) == 0 {
		outcome.FinalState = entity.SaveNeedLogin
		logger.Info("no cached session, logging in")
		fresh, err := uc.login(ctx, channel, outcome)
		if err != nil {
			return uc.finish(ctx, req, outcome, err)
		}
		cookies = fresh
	} else {
		outcome.FinalState = entity.SaveSessionFound
	}

	result, err := uc.publish(ctx, publisher, req, cookies, outcome)
	if err != nil {
		return uc.finish(ctx, req, outcome, err)
	}

	if result.NeedsLogin {
		logger.Info("cached session rejected by platform, dropping it")
		if err := uc.store.Clear(ctx, channel); err != nil {
			logger.Warn("failed to drop stale session", zap.Error(err))
		}

		if !uc.policy.ReloginOnStaleSession || outcome.LoggedIn {
			return uc.finish(ctx, req, outcome, &entity.AuthRequiredError{Channel: channel, Message: result.Message})
		}

		logger.Info("logging in again after stale session")
		fresh, err := uc.login(ctx, channel, outcome)
		if err != nil {
			return uc.finish(ctx, req, outcome, err)
		}
		if result, err = uc.publish(ctx, publisher, req, fresh, outcome); err != nil {
			return uc.finish(ctx, req, outcome, err)
		}
		if result.NeedsLogin {
			logger.Info("fresh session rejected by platform, dropping it")
			if err := uc.store.Clear(ctx, channel); err != nil {
				logger.Warn("failed to drop rejected session", zap.Error(err))
			}
			return uc.finish(ctx, req, outcome, &entity.AuthRequiredError{Channel: channel, Message: result.Message})
		}
	}

	if !result.Success {
		return uc.finish(ctx, req, outcome, &entity.ProtocolError{
			Channel:    channel,
			StatusCode: result.StatusCode,
			Message:    result.Message,
		})
	}
	return uc.finish(ctx, req, outcome, nil)
}

// login performs the single permitted login of a state transition.
func (uc *saveUseCase) login(ctx context.Context, channel entity.Channel, outcome *entity.SaveOutcome) (entity.CookiePairs, error) {
	outcome.FinalState = entity.SaveLogin
	result, err := uc.sessions.Login(ctx, channel)
	if err != nil {
		return nil, &entity.AuthRequiredError{Channel: channel, Message: "automatic login failed", Err: err}
	}
	outcome.LoggedIn = true
	return result.Record.Cookies, nil
}

func (uc *saveUseCase) publish(
	ctx context.Context,
	publisher repository.PublishAgent,
	req *entity.PublishRequest,
	cookies entity.CookiePairs,
	outcome *entity.SaveOutcome,
) (*entity.PublishResult, error) {
	outcome.FinalState = entity.SavePublishing
	result, err := publisher.Publish(ctx, req, cookies)
	if err != nil {
		return nil, err
	}
	outcome.Result = result
	return result, nil
}

// finish settles the terminal state, counts it and appends it to the publish log.
func (uc *saveUseCase) finish(ctx context.Context, req *entity.PublishRequest, outcome *entity.SaveOutcome, err error) (*entity.SaveOutcome, error) {
	outcome.NeedLogin = entity.KindOf(err) == entity.KindAuthRequired
	label := "success"
	switch {
	case err == nil:
		outcome.FinalState = entity.SaveSuccess
	case outcome.NeedLogin:
		outcome.FinalState = entity.SaveFailed
		label = "need_login"
	default:
		outcome.FinalState = entity.SaveFailed
		label = "failed"
	}
	metrics.PublishesTotal.WithLabelValues(string(outcome.Channel), label).Inc()

	fields := []zap.Field{
		zap.String("channel", string(outcome.Channel)),
		zap.String("state", string(outcome.FinalState)),
		zap.Bool("logged_in", outcome.LoggedIn),
	}
	if err != nil {
		uc.logger.Warn("save failed", append(fields, zap.Error(err))...)
	} else {
		uc.logger.Info("save succeeded", fields...)
	}

	uc.record(ctx, req, outcome, err)
	return outcome, err
}

// record appends the attempt to the publish log. Failures are logged only.
func (uc *saveUseCase) record(ctx context.Context, req *entity.PublishRequest, outcome *entity.SaveOutcome, saveErr error) {
	if uc.publishLog == nil {
		return
	}
	rec := &entity.PublishRecord{
		ID:              uuid.NewString(),
		Channel:         outcome.Channel,
		Title:           req.Title,
		TargetAccountID: req.TargetAccountID,
		ContentLength:   len(req.Content),
		Success:         saveErr == nil,
		NeedLogin:       outcome.NeedLogin,
		CreatedAt:       uc.now(),
	}
	if outcome.Result != nil {
		rec.RemoteArticleID = outcome.Result.RemoteArticleID
		rec.Message = outcome.Result.Message
	}
	if saveErr != nil && rec.Message == "" {
		rec.Message = saveErr.Error()
	}
	if err := uc.publishLog.Save(ctx, rec); err != nil {
		uc.logger.Warn("failed to record publish attempt", zap.String("channel", string(outcome.Channel)), zap.Error(err))
	}
}
