package editor135

import (
	"bytes"
	"context"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/user/relay-service/internal/adapter/platform"
	"github.com/user/relay-service/internal/entity"
)

const unknownUser = "unknown"

// CheckSession loads the editor page with the cookie and reports whether the
// editor still treats it as logged in, along with the account name it shows.
func (a *Agent) CheckSession(ctx context.Context, cookies entity.CookiePairs) (*entity.SessionCheck, error) {
	if len(cookies) == 0 {
		return &entity.SessionCheck{Message: "no cookie to check"}, nil
	}

	h := a.browserHeaders(cookies, a.client.Origin()+"/")
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := a.client.Do(ctx, platform.Request{
		Method:  http.MethodGet,
		Path:    editorPath,
		Header:  h,
		Timeout: a.timeout,
	})
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, &entity.HTTPError{URL: a.client.URL(editorPath), StatusCode: resp.StatusCode}
	}

	if resp.Contains(markerLoginForm, markerLoginLink) {
		return &entity.SessionCheck{Message: "cookie is invalid or expired"}, nil
	}

	username := unknownUser
	if doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body)); err == nil {
		if name := strings.TrimSpace(doc.Find("span.username").First().Text()); name != "" {
			username = name
		}
	}
	return &entity.SessionCheck{
		Valid:    true,
		Username: username,
		Message:  "cookie is valid, logged in as " + username,
	}, nil
}
