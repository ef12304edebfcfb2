package repository

import (
	"context"

	"github.com/user/relay-service/internal/entity"
)

// LoginAgent performs the credential exchange of one platform.
type LoginAgent interface {
	Channel() entity.Channel
	// Login exchanges credentials for a minimal cookie set. It does not touch the session cache.
	Login(ctx context.Context, creds entity.Credentials) (*entity.LoginResult, error)
}

// PublishAgent submits articles to one platform.
type PublishAgent interface {
	Channel() entity.Channel
	// Publish submits the article with the given session cookies and interprets the answer.
	// A login page in the response yields NeedsLogin rather than an error.
	Publish(ctx context.Context, req *entity.PublishRequest, cookies entity.CookiePairs) (*entity.PublishResult, error)
}

// SessionChecker probes whether a cookie set is still accepted by its platform.
type SessionChecker interface {
	CheckSession(ctx context.Context, cookies entity.CookiePairs) (*entity.SessionCheck, error)
}

// TemplateTransferrer hands a saved template to another account.
type TemplateTransferrer interface {
	Transfer(ctx context.Context, req *entity.TransferRequest, cookies entity.CookiePairs) (*entity.PublishResult, error)
}
