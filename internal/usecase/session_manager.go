package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/user/relay-service/internal/entity"
	"github.com/user/relay-service/internal/repository"
	"github.com/user/relay-service/pkg/metrics"
	"go.uber.org/zap"
)

// ErrUnsupported is returned for operations a channel does not offer.
var ErrUnsupported = errors.New("operation not supported for this channel")

// SessionManager logs in to platforms and manages their cached sessions.
type SessionManager struct {
	store       *SessionStore
	creds       repository.CredentialsProvider
	agents      map[entity.Channel]repository.LoginAgent
	checker     repository.SessionChecker
	transferrer repository.TemplateTransferrer
	logger      *zap.Logger
}

// NewSessionManager wires the login agents to the session store. checker and
// transferrer serve the 135 editor and may be nil.
func NewSessionManager(
	store *SessionStore,
	creds repository.CredentialsProvider,
	agents []repository.LoginAgent,
	checker repository.SessionChecker,
	transferrer repository.TemplateTransferrer,
	logger *zap.Logger,
) *SessionManager {
	byChannel := make(map[entity.Channel]repository.LoginAgent, len(agents))
	for _, a := range agents {
		byChannel[a.Channel()] = a
	}
	return &SessionManager{
		store:       store,
		creds:       creds,
		agents:      byChannel,
		checker:     checker,
		transferrer: transferrer,
		logger:      logger,
	}
}

// Login runs the channel's credential exchange and caches the session.
// Nothing is cached unless the agent produced cookies; a failed cache write is
// logged and the fresh cookies are still returned.
func (m *SessionManager) Login(ctx context.Context, channel entity.Channel) (*entity.LoginResult, error) {
	agent, ok := m.agents[channel]
	if !ok {
		return nil, &entity.ValidationError{Field: "channel", Message: fmt.Sprintf("no login agent for channel %q", channel)}
	}
	creds, ok := m.creds.Credentials(channel)
	if !ok {
		metrics.LoginsTotal.WithLabelValues(string(channel), "no_credentials").Inc()
		return nil, &entity.LoginError{Channel: channel, Reason: "no credentials configured"}
	}

	result, err := agent.Login(ctx, creds)
	if err != nil {
		m.logger.Warn("login failed", zap.String("channel", string(channel)), zap.Error(err))
		metrics.LoginsTotal.WithLabelValues(string(channel), "failure").Inc()
		return nil, err
	}
	if result.Record == nil || len(result.Record.Cookies) == 0 {
		metrics.LoginsTotal.WithLabelValues(string(channel), "failure").Inc()
		return nil, &entity.LoginError{Channel: channel, Reason: "login produced no cookies"}
	}
	metrics.LoginsTotal.WithLabelValues(string(channel), "success").Inc()

	if err := m.store.Put(ctx, channel, result.Record.Cookies); err != nil {
		m.logger.Warn("session not cached, continuing with fresh cookies",
			zap.String("channel", string(channel)),
			zap.Error(err),
		)
	}
	return result, nil
}

// Logout drops the cached session of channel.
func (m *SessionManager) Logout(ctx context.Context, channel entity.Channel) error {
	return m.store.Clear(ctx, channel)
}

// LogoutAll drops every cached session.
func (m *SessionManager) LogoutAll(ctx context.Context) error {
	return m.store.ClearAll(ctx)
}

// Status describes the cached session of channel.
func (m *SessionManager) Status(ctx context.Context, channel entity.Channel) *entity.SessionStatus {
	return m.store.Status(ctx, channel)
}

// Check asks the 135 editor whether a cookie is still accepted. With no
// cookie given the cached session is checked.
func (m *SessionManager) Check(ctx context.Context, cookies entity.CookiePairs) (*entity.SessionCheck, error) {
	if m.checker == nil {
		return nil, ErrUnsupported
	}
	if len(cookies) == 0 {
		cookies = m.store.Cookies(ctx, entity.ChannelEditor135)
	}
	if len(cookies) == 0 {
		return &entity.SessionCheck{Message: "no cached session"}, nil
	}
	return m.checker.CheckSession(ctx, cookies)
}

// Transfer hands a 135 template to another account with the cached session.
func (m *SessionManager) Transfer(ctx context.Context, req *entity.TransferRequest) (*entity.PublishResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if m.transferrer == nil {
		return nil, ErrUnsupported
	}
	cookies := m.store.Cookies(ctx, entity.ChannelEditor135)
	if len(cookies) == 0 {
		return nil, &entity.AuthRequiredError{
			Channel: entity.ChannelEditor135,
			Message: "not logged in or session expired, login to the 135 editor first",
		}
	}

	result, err := m.transferrer.Transfer(ctx, req, cookies)
	if err != nil {
		return nil, err
	}
	switch {
	case result.NeedsLogin:
		return result, &entity.AuthRequiredError{Channel: entity.ChannelEditor135, Message: result.Message}
	case !result.Success:
		return result, &entity.ProtocolError{
			Channel:    entity.ChannelEditor135,
			StatusCode: result.StatusCode,
			Message:    result.Message,
		}
	}
	m.logger.Info("template transferred", zap.String("id", req.ID), zap.String("creator", req.Creator))
	return result, nil
}
