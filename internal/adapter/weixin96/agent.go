// Package weixin96 talks to the 96 WeChat editor (bj.96weixin.com): phone
// login and article save.
package weixin96

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/user/relay-service/internal/adapter/httpfetch"
	"github.com/user/relay-service/internal/adapter/platform"
	"github.com/user/relay-service/internal/adapter/setcookie"
	"github.com/user/relay-service/internal/entity"
	"github.com/user/relay-service/internal/repository"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "https://bj.96weixin.com"
	DefaultTimeout = 10 * time.Second

	loginPath = "/login/phone"
	savePath  = "/indexajax/saveart"

	loginConfirmed = "登录成功"
	snippetLength  = 500
)

var loginMarkers = []string{"请先登录", "未登录"}

var (
	_ repository.LoginAgent   = (*Agent)(nil)
	_ repository.PublishAgent = (*Agent)(nil)
)

// Agent implements login and publish for the 96 editor.
type Agent struct {
	client  *platform.Client
	timeout time.Duration
	agents  *httpfetch.UserAgents
	now     func() time.Time
	logger  *zap.Logger
}

// Option configures an Agent.
type Option func(*Agent)

// WithTimeout bounds login and save calls.
func WithTimeout(d time.Duration) Option {
	return func(a *Agent) {
		if d > 0 {
			a.timeout = d
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
		timeout: DefaultTimeout,
		now:     time.Now,
		logger:  logger.With(zap.String("channel", string(entity.ChannelWeixin96))),
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

// Channel returns entity.ChannelWeixin96.
func (a *Agent) Channel() entity.Channel {
	return entity.ChannelWeixin96
}

// Login signs in with phone and password. The editor must confirm the login
// in its answer; every cookie it sets is kept minus attributes and deletions.
func (a *Agent) Login(ctx context.Context, creds entity.Credentials) (*entity.LoginResult, error) {
	form := url.Values{}
	form.Set("phone", creds.Account)
	form.Set("password", creds.Password)
	form.Set("remember", "1")

	h := http.Header{}
	h.Set("Referer", a.client.Origin()+"/")

	resp, err := a.client.Do(ctx, platform.Request{
		Path:       loginPath,
		Form:       form,
		Header:     h,
		Timeout:    a.timeout,
		NoRedirect: true,
	})
	if err != nil {
		return nil, &entity.LoginError{Channel: a.Channel(), Reason: "login request failed", Err: err}
	}
	if resp.StatusCode >= 400 {
		return nil, &entity.LoginError{
			Channel: a.Channel(),
			Reason:  "login rejected",
			Err:     &entity.HTTPError{URL: a.client.URL(loginPath), StatusCode: resp.StatusCode},
		}
	}
	if !resp.Contains(loginConfirmed) {
		a.logger.Warn("login not confirmed", zap.String("response", resp.Snippet(200)))
		return nil, &entity.LoginError{Channel: a.Channel(), Reason: "login was not confirmed by the editor"}
	}

	raw := setcookie.Raw(resp.Header)
	if raw == "" {
		return nil, &entity.LoginError{Channel: a.Channel(), Reason: "no Set-Cookie header in login response"}
	}
	cookies := setcookie.Essential(raw)
	if len(cookies) == 0 {
		return nil, &entity.LoginError{Channel: a.Channel(), Reason: "no usable cookie in login response"}
	}

	fields := make(map[string]string, len(cookies))
	for _, c := range cookies {
		fields[c.Name] = c.Value
	}

	a.logger.Info("login succeeded", zap.Int("status", resp.StatusCode), zap.Int("cookies", len(cookies)))

	return &entity.LoginResult{
		Record: &entity.SessionRecord{
			Channel:    a.Channel(),
			Cookies:    cookies,
			CapturedAt: a.now(),
		},
		Cookies:         []string{cookies.Header()},
		ExtractedFields: fields,
		StatusCode:      resp.StatusCode,
		ResponseSnippet: resp.Snippet(snippetLength),
	}, nil
}

// Publish saves the article to the account's library, or to the account
// given by TargetAccountID. Success is a JSON answer with status 1.
func (a *Agent) Publish(ctx context.Context, req *entity.PublishRequest, cookies entity.CookiePairs) (*entity.PublishResult, error) {
	form := url.Values{}
	form.Set("cate_id", "0")
	form.Set("id", "")
	form.Set("name", req.Title)
	form.Set("summary", "")
	form.Set("thumbnail", "")
	form.Set("link", "")
	form.Set("author", "")
	form.Set("artcover", "0")
	form.Set("original", "false")
	form.Set("need_open_comment", "0")
	form.Set("only_fans_can_comment", "0")
	form.Set("save_to_user", "1")
	form.Set("to_user", req.TargetAccountID)
	form.Set("content", req.Content)

	resp, err := a.client.Do(ctx, platform.Request{
		Path:    savePath,
		Form:    form,
		Header:  a.xhrHeaders(cookies),
		Timeout: a.timeout,
	})
	if err != nil {
		return nil, err
	}

	result := &entity.PublishResult{StatusCode: resp.StatusCode, RawResponse: resp.Raw()}

	if resp.Contains(loginMarkers...) {
		result.NeedsLogin = true
		result.Message = "not logged in to the 96 editor"
		return result, nil
	}

	obj, isObject := resp.Object()
	switch {
	case resp.StatusCode != http.StatusOK:
		result.Message = "editor returned a non-200 status"
	case !isObject:
		result.Message = "unexpected response from editor"
	case platform.Code(obj, "status") != "1":
		result.Message = platform.Text(obj, "info")
		if result.Message == "" {
			result.Message = "save failed"
		}
	default:
		result.Success = true
		result.Message = platform.Text(obj, "info")
		result.RemoteArticleID = platform.RemoteID(obj)
	}

	a.logger.Debug("save answered",
		zap.Int("status", resp.StatusCode),
		zap.Bool("success", result.Success),
		zap.String("message", result.Message),
	)
	return result, nil
}

func (a *Agent) xhrHeaders(cookies entity.CookiePairs) http.Header {
	origin := a.client.Origin()
	h := http.Header{}
	h.Set("Accept", "*/*")
	h.Set("Accept-Language", "zh-CN,zh;q=0.9")
	h.Set("Cache-Control", "no-cache")
	h.Set("Pragma", "no-cache")
	h.Set("Origin", origin)
	h.Set("Referer", origin+"/")
	h.Set("Sec-Fetch-Dest", "empty")
	h.Set("Sec-Fetch-Mode", "cors")
	h.Set("Sec-Fetch-Site", "same-origin")
	h.Set("X-Requested-With", "XMLHttpRequest")
	if len(cookies) > 0 {
		h.Set("Cookie", cookies.Header())
	}
	return h
}
