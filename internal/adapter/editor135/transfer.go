package editor135

import (
	"context"
	"fmt"
	"net/url"

	"github.com/user/relay-service/internal/adapter/platform"
	"github.com/user/relay-service/internal/entity"
)

// Transfer hands a saved template over to another editor account. Any 2xx
// answer that is not a login page counts as success.
func (a *Agent) Transfer(ctx context.Context, req *entity.TransferRequest, cookies entity.CookiePairs) (*entity.PublishResult, error) {
	form := url.Values{}
	form.Set("id", req.ID)
	form.Set("creator", req.Creator)

	resp, err := a.client.Do(ctx, platform.Request{
		Path:    transferPath,
		Form:    form,
		Header:  a.browserHeaders(cookies, a.client.Origin()+"/"),
		Timeout: a.transferTimeout,
	})
	if err != nil {
		return nil, err
	}

	result := &entity.PublishResult{
		StatusCode:      resp.StatusCode,
		RawResponse:     resp.Raw(),
		RemoteArticleID: req.ID,
	}
	switch {
	case resp.Contains(markerLoginForm):
		result.NeedsLogin = true
		result.Message = msgLoginRequired
	case !resp.OK():
		result.Message = fmt.Sprintf("template transfer failed with HTTP %d", resp.StatusCode)
	default:
		result.Success = true
		result.Message = "template transferred"
	}
	return result, nil
}
