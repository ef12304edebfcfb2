package entity

import (
	"fmt"
	"strings"
	"time"
)

// Channel identifies an external editor platform.
type Channel string

const (
	ChannelEditor135 Channel = "135"
	ChannelWeixin96  Channel = "96"
)

// Channels lists every platform the service can publish to.
var Channels = []Channel{ChannelEditor135, ChannelWeixin96}

// ParseChannel validates a channel identifier taken from a request.
func ParseChannel(s string) (Channel, error) {
	for _, c := range Channels {
		if string(c) == s {
			return c, nil
		}
	}
	return "", &ValidationError{Field: "channel", Message: fmt.Sprintf("unknown channel %q", s)}
}

// CookiePair is a single name=value cookie.
type CookiePair struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func (p CookiePair) String() string {
	return p.Name + "=" + p.Value
}

// CookiePairs keeps cookies in the order the platform sent them.
type CookiePairs []CookiePair

// Header renders the pairs as a Cookie request header value.
func (c CookiePairs) Header() string {
	parts := make([]string, 0, len(c))
	for _, p := range c {
		parts = append(parts, p.String())
	}
	return strings.Join(parts, "; ")
}

// Compact renders the pairs as "a=1;b=2;", the form the 135 editor accepts.
func (c CookiePairs) Compact() string {
	var b strings.Builder
	for _, p := range c {
		b.WriteString(p.String())
		b.WriteByte(';')
	}
	return b.String()
}

// Strings returns each pair as "name=value".
func (c CookiePairs) Strings() []string {
	out := make([]string, 0, len(c))
	for _, p := range c {
		out = append(out, p.String())
	}
	return out
}

// Get returns the value of the first pair with the given name.
func (c CookiePairs) Get(name string) (string, bool) {
	for _, p := range c {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}

// ParseCookieHeader splits a Cookie header value ("a=1; b=2" or "a=1;b=2;") into pairs.
func ParseCookieHeader(header string) CookiePairs {
	var pairs CookiePairs
	for _, part := range strings.Split(header, ";") {
		part = strings.TrimSpace(part)
		name, value, ok := strings.Cut(part, "=")
		if !ok || name == "" {
			continue
		}
		pairs = append(pairs, CookiePair{Name: strings.TrimSpace(name), Value: strings.TrimSpace(value)})
	}
	return pairs
}

// SessionRecord is the cached authentication state of one channel.
type SessionRecord struct {
	Channel    Channel
	Cookies    CookiePairs
	CapturedAt time.Time
}

// Age reports how old the record is at the given instant.
func (r *SessionRecord) Age(now time.Time) time.Duration {
	return now.Sub(r.CapturedAt)
}

// SessionStatus describes the cached session of a channel without exposing cookie values.
type SessionStatus struct {
	Channel    Channel    `json:"channel"`
	Valid      bool       `json:"valid"`
	CapturedAt *time.Time `json:"captured_at,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	CookieKeys []string   `json:"cookie_keys,omitempty"`
}

// LoginResult is what a login agent produced after a successful credential exchange.
type LoginResult struct {
	Record          *SessionRecord
	Cookies         []string
	ExtractedFields map[string]string
	StatusCode      int
	ResponseSnippet string
}

// Credentials are the account parameters a login agent submits.
type Credentials struct {
	Account  string
	Password string
}

// SessionCheck is the outcome of probing a platform with a session cookie.
type SessionCheck struct {
	Valid    bool   `json:"valid"`
	Username string `json:"username,omitempty"`
	Message  string `json:"message"`
}
