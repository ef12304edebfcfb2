package editor135

import (
	"context"
	"net/http"
	"net/url"

	"github.com/user/relay-service/internal/adapter/platform"
	"github.com/user/relay-service/internal/entity"
	"go.uber.org/zap"
)

const (
	msgSaveFailed       = "save failed"
	msgUnexpectedAnswer = "unexpected response from editor"
	msgLoginRequired    = "cookie expired or invalid, login to the 135 editor again"
)

// Publish saves the article as a draft of the logged-in account.
//
// A login page in the answer means the cookie is stale. Otherwise the save
// succeeded only if the editor answered 200 with a JSON object whose ret is 0.
func (a *Agent) Publish(ctx context.Context, req *entity.PublishRequest, cookies entity.CookiePairs) (*entity.PublishResult, error) {
	form := url.Values{}
	form.Set("data[WxMsg][content]", req.Content)
	form.Set("data[WxMsg][name]", req.Title)

	resp, err := a.client.Do(ctx, platform.Request{
		Path:    savePath,
		Form:    form,
		Header:  a.browserHeaders(cookies, a.client.URL("/editor_styles/wxeditor")),
		Timeout: a.timeout,
	})
	if err != nil {
		return nil, err
	}

	result := &entity.PublishResult{StatusCode: resp.StatusCode, RawResponse: resp.Raw()}

	if resp.Contains(markerLoginForm) {
		result.NeedsLogin = true
		result.Message = msgLoginRequired
		return result, nil
	}

	obj, isObject := resp.Object()
	switch {
	case !isObject:
		result.Message = msgUnexpectedAnswer
	case resp.StatusCode != http.StatusOK || platform.Code(obj, "ret") != "0":
		result.Message = platform.Text(obj, "msg")
		if result.Message == "" {
			result.Message = msgSaveFailed
		}
	default:
		result.Success = true
		result.Message = platform.Text(obj, "msg")
		result.RemoteArticleID = platform.RemoteID(obj)
	}

	a.logger.Debug("save answered",
		zap.Int("status", resp.StatusCode),
		zap.Bool("success", result.Success),
		zap.String("message", result.Message),
	)
	return result, nil
}
