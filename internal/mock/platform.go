package mock

import (
	"context"

	"github.com/user/relay-service/internal/entity"
	"github.com/user/relay-service/internal/repository"
)

var (
	_ repository.LoginAgent   = (*LoginAgent)(nil)
	_ repository.PublishAgent = (*PublishAgent)(nil)
)

// LoginAgent is a mock implementation of repository.LoginAgent.
type LoginAgent struct {
	ChannelValue entity.Channel
	LoginFn      func(ctx context.Context, creds entity.Credentials) (*entity.LoginResult, error)
	Calls        int
}

func (a *LoginAgent) Channel() entity.Channel {
	return a.ChannelValue
}

func (a *LoginAgent) Login(ctx context.Context, creds entity.Credentials) (*entity.LoginResult, error) {
	a.Calls++
	return a.LoginFn(ctx, creds)
}

// PublishAgent is a mock implementation of repository.PublishAgent.
type PublishAgent struct {
	ChannelValue entity.Channel
	PublishFn    func(ctx context.Context, req *entity.PublishRequest, cookies entity.CookiePairs) (*entity.PublishResult, error)
	Calls        int
}

func (a *PublishAgent) Channel() entity.Channel {
	return a.ChannelValue
}

func (a *PublishAgent) Publish(ctx context.Context, req *entity.PublishRequest, cookies entity.CookiePairs) (*entity.PublishResult, error) {
	a.Calls++
	return a.PublishFn(ctx, req, cookies)
}

var (
	_ repository.SessionChecker      = (*SessionChecker)(nil)
	_ repository.TemplateTransferrer = (*TemplateTransferrer)(nil)
	_ repository.CredentialsProvider = Credentials(nil)
)

// SessionChecker is a mock implementation of repository.SessionChecker.
type SessionChecker struct {
	CheckFn func(ctx context.Context, cookies entity.CookiePairs) (*entity.SessionCheck, error)
}

func (c *SessionChecker) CheckSession(ctx context.Context, cookies entity.CookiePairs) (*entity.SessionCheck, error) {
	return c.CheckFn(ctx, cookies)
}

// TemplateTransferrer is a mock implementation of repository.TemplateTransferrer.
type TemplateTransferrer struct {
	TransferFn func(ctx context.Context, req *entity.TransferRequest, cookies entity.CookiePairs) (*entity.PublishResult, error)
}

func (t *TemplateTransferrer) Transfer(ctx context.Context, req *entity.TransferRequest, cookies entity.CookiePairs) (*entity.PublishResult, error) {
	return t.TransferFn(ctx, req, cookies)
}

// Credentials is a fixed repository.CredentialsProvider.
type Credentials map[entity.Channel]entity.Credentials

func (c Credentials) Credentials(channel entity.Channel) (entity.Credentials, bool) {
	creds, ok := c[channel]
	return creds, ok
}
