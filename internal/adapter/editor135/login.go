package editor135

import (
	"context"
	"net/url"

	"github.com/user/relay-service/internal/adapter/platform"
	"github.com/user/relay-service/internal/adapter/setcookie"
	"github.com/user/relay-service/internal/entity"
	"go.uber.org/zap"
)

const snippetLength = 500

// Login posts the account form without following redirects and keeps only the
// session cookies from the answer. If none of the known cookies is present the
// essential name=value pairs of the header are kept instead.
func (a *Agent) Login(ctx context.Context, creds entity.Credentials) (*entity.LoginResult, error) {
	form := url.Values{}
	form.Set("type", "html")
	form.Set("state", "postmsg")
	form.Set("data[User][referer]", a.client.Origin()+"/")
	form.Set("data[User][email]", creds.Account)
	form.Set("data[User][password]", creds.Password)
	form.Set("data[User][remember_me]", rememberMe)

	resp, err := a.client.Do(ctx, platform.Request{
		Path:       loginPath,
		Form:       form,
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

	raw := setcookie.Raw(resp.Header)
	if raw == "" {
		return nil, &entity.LoginError{Channel: a.Channel(), Reason: "no Set-Cookie header in login response"}
	}

	cookies := setcookie.Named(raw, sessionCookieNames...)
	if len(cookies) == 0 {
		a.logger.Warn("session cookies not found, keeping essential cookies")
		cookies = setcookie.Essential(raw)
	}
	if len(cookies) == 0 {
		return nil, &entity.LoginError{Channel: a.Channel(), Reason: "no usable cookie in login response"}
	}

	phpSessionID, _ := cookies.Get("PHPSESSID")
	serverID, _ := cookies.Get("SERVERID")
	auth, _ := cookies.Get("MIAOCMS2[Auth]")

	a.logger.Info("login succeeded", zap.Int("status", resp.StatusCode), zap.Int("cookies", len(cookies)))

	return &entity.LoginResult{
		Record: &entity.SessionRecord{
			Channel:    a.Channel(),
			Cookies:    cookies,
			CapturedAt: a.now(),
		},
		Cookies: []string{cookies.Compact()},
		ExtractedFields: map[string]string{
			"phpSessionId": phpSessionID,
			"serverId":     serverID,
			"auth":         auth,
		},
		StatusCode:      resp.StatusCode,
		ResponseSnippet: resp.Snippet(snippetLength),
	}, nil
}
