// Package platform holds the HTTP plumbing shared by the editor platform agents.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/user/relay-service/internal/adapter/httpfetch"
	"github.com/user/relay-service/pkg/utils"
)

const maxResponseBytes = 4 << 20

// Response is a fully read platform answer.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Client issues requests to one platform.
type Client struct {
	base       *url.URL
	http       *http.Client
	noRedirect *http.Client
	agents     *httpfetch.UserAgents
}

// NewClient creates a client for the platform rooted at baseURL.
func NewClient(baseURL string, agents *httpfetch.UserAgents) (*Client, error) {
	base, err := utils.ValidateHTTPURL(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid platform base URL %q: %w", baseURL, err)
	}
	if agents == nil {
		agents = httpfetch.NewUserAgents()
	}
	return &Client{
		base: base,
		http: &http.Client{},
		noRedirect: &http.Client{
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		agents: agents,
	}, nil
}

// URL resolves a platform path against the base URL.
func (c *Client) URL(path string) string {
	u, err := utils.ToAbsoluteURL(c.base, path)
	if err != nil {
		return c.base.String() + path
	}
	return u
}

// Origin is the scheme and host of the platform.
func (c *Client) Origin() string {
	return c.base.Scheme + "://" + c.base.Host
}

// Request describes one call.
type Request struct {
	Method string
	Path   string
	Form   url.Values
	Header http.Header
	// Timeout bounds the whole exchange, including reading the body.
	Timeout time.Duration
	// NoRedirect returns 3xx answers as-is, keeping their Set-Cookie headers.
	NoRedirect bool
}

// Do performs the request. Transport failures are *entity.NetworkError; any
// HTTP status is returned as a Response for the caller to interpret.
func (c *Client) Do(ctx context.Context, r Request) (*Response, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	endpoint := c.URL(r.Path)
	var body io.Reader
	if r.Form != nil {
		body = strings.NewReader(r.Form.Encode())
	}
	method := r.Method
	if method == "" {
		method = http.MethodPost
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.agents.Pick())
	if r.Form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	}
	for k, vs := range r.Header {
		req.Header.Del(k)
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	client := c.http
	if r.NoRedirect {
		client = c.noRedirect
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, httpfetch.ClassifyError(endpoint, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, httpfetch.ClassifyError(endpoint, err)
	}
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode <= 299
}

// Contains reports whether the body holds any of the markers.
func (r *Response) Contains(markers ...string) bool {
	for _, m := range markers {
		if m != "" && bytes.Contains(r.Body, []byte(m)) {
			return true
		}
	}
	return false
}

// Object decodes the body as a JSON object. Numbers stay json.Number.
func (r *Response) Object() (map[string]any, bool) {
	dec := json.NewDecoder(bytes.NewReader(r.Body))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}

// Raw returns the body as JSON: verbatim when it is valid JSON, quoted as a string otherwise.
func (r *Response) Raw() json.RawMessage {
	if json.Valid(r.Body) {
		return json.RawMessage(r.Body)
	}
	quoted, _ := json.Marshal(string(r.Body))
	return quoted
}

// Snippet returns at most n bytes of the body for diagnostics.
func (r *Response) Snippet(n int) string {
	if len(r.Body) <= n {
		return string(r.Body)
	}
	return string(r.Body[:n])
}
