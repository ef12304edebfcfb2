// Package editor135 talks to the 135 editor (www.135editor.com): account login,
// article save, session probing and template transfer.
package editor135

import (
	"net/http"
	"time"

	"github.com/user/relay-service/internal/adapter/httpfetch"
	"github.com/user/relay-service/internal/adapter/platform"
	"github.com/user/relay-service/internal/entity"
	"github.com/user/relay-service/internal/repository"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL         = "https://www.135editor.com"
	DefaultTimeout         = 10 * time.Second
	DefaultTransferTimeout = 30 * time.Second

	loginPath    = "/users/login?&inajax=1&team_id=0"
	savePath     = "/wx_msgs/save/?nosync=1&inajax=1&team_id=0&mid=&idx=&inajax=1"
	editorPath   = "/beautify_editor.html"
	transferPath = "/wx_msgs/contr_wxmsg?team_id=0"

	// rememberMe asks for a week-long server-side session.
	rememberMe = "604800"
)

// Login page markers. Any of them in a response body means the cookie was not accepted.
const (
	markerLoginForm = "登录您的账户"
	markerLoginLink = "立即登录"
)

// Session cookies the editor needs; everything else in the login answer is noise.
var sessionCookieNames = []string{"PHPSESSID", "SERVERID", "MIAOCMS2[Auth]"}

var (
	_ repository.LoginAgent          = (*Agent)(nil)
	_ repository.PublishAgent        = (*Agent)(nil)
	_ repository.SessionChecker      = (*Agent)(nil)
	_ repository.TemplateTransferrer = (*Agent)(nil)
)

// Agent implements login, publish, session check and template transfer for the 135 editor.
type Agent struct {
	client          *platform.Client
	timeout         time.Duration
	transferTimeout time.Duration
	agents          *httpfetch.UserAgents
	now             func() time.Time
	logger          *zap.Logger
}

// Option configures an Agent.
type Option func(*Agent)

// WithTimeout bounds login, save and session check calls.
func WithTimeout(d time.Duration) Option {
	return func(a *Agent) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithTransferTimeout bounds template transfer calls.
func WithTransferTimeout(d time.Duration) Option {
	return func(a *Agent) {
		if d > 0 {
			a.transferTimeout = d
		}
	}
}

// WithUserAgents overrides the browser identities sent to the editor.
func WithUserAgents(ua *httpfetch.UserAgents) Option {
	return func(a *Agent) { a.agents = ua }
}

// New creates an agent for the editor rooted at baseURL; empty means DefaultBaseURL.
func New(baseURL string, logger *zap.Logger, opts ...Option) (*Agent, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	a := &Agent{
		timeout:         DefaultTimeout,
		transferTimeout: DefaultTransferTimeout,
		now:             time.Now,
		logger:          logger.With(zap.String("channel", string(entity.ChannelEditor135))),
	}
	for _, opt := range opts {
		opt(a)
	}
	client, err := platform.NewClient(baseURL, a.agents)
	if err != nil {
		return nil, err
	}
	a.client = client
	return a, nil
}

// Channel returns entity.ChannelEditor135.
func (a *Agent) Channel() entity.Channel {
	return entity.ChannelEditor135
}

// browserHeaders are sent with every authenticated call.
func (a *Agent) browserHeaders(cookies entity.CookiePairs, referer string) http.Header {
	h := http.Header{}
	h.Set("Accept", "application/json, text/plain, */*")
	h.Set("Accept-Language", "zh-CN,zh;q=0.9,en;q=0.8")
	h.Set("Origin", a.client.Origin())
	h.Set("Referer", referer)
	if len(cookies) > 0 {
		h.Set("Cookie", cookies.Compact())
	}
	return h
}
