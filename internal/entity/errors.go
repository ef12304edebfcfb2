package entity

import (
	"errors"
	"fmt"
)

// Kind groups errors by how callers should react to them.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindNetwork      Kind = "network"
	KindTimeout      Kind = "timeout"
	KindNotFound     Kind = "not_found"
	KindAuthRequired Kind = "auth_required"
	KindProtocol     Kind = "protocol"
	KindInternal     Kind = "internal"
)

// ValidationError is a missing or malformed request field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NetworkError wraps DNS, connect and timeout failures talking to a remote host.
type NetworkError struct {
	URL     string
	Timeout bool
	Err     error
}

func (e *NetworkError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("request to %s timed out: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("request to %s failed: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// HTTPError is a non-2xx answer from a remote host.
type HTTPError struct {
	URL        string
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d for %s", e.StatusCode, e.URL)
}

// ParseError means a strategy could not interpret its input. It is not fatal in auto mode.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *ParseError) Unwrap() error { return e.Err }

// NotFoundError means no strategy recovered content.
type NotFoundError struct {
	Selector string
	Mode     Mode
	Message  string
}

func (e *NotFoundError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("no content found (mode=%s, selector=%s)", e.Mode, e.Selector)
}

// AuthRequiredError means the channel has no usable session.
// Err is the failed login attempt, if one was made.
type AuthRequiredError struct {
	Channel Channel
	Message string
	Err     error
}

func (e *AuthRequiredError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = fmt.Sprintf("channel %s requires login", e.Channel)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *AuthRequiredError) Unwrap() error { return e.Err }

// ProtocolError is a platform answer with a failure code or an unexpected shape.
// Message carries the platform's own text when it sent one.
type ProtocolError struct {
	Channel    Channel
	StatusCode int
	Message    string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: %s", e.Channel, e.Message)
}

// LoginError means the credential exchange produced no usable session.
type LoginError struct {
	Channel Channel
	Reason  string
	Err     error
}

func (e *LoginError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("login to %s failed: %s: %v", e.Channel, e.Reason, e.Err)
	}
	return fmt.Sprintf("login to %s failed: %s", e.Channel, e.Reason)
}

func (e *LoginError) Unwrap() error { return e.Err }

// KindOf classifies err. Unknown errors are KindInternal.
func KindOf(err error) Kind {
	var (
		validation *ValidationError
		network    *NetworkError
		httpErr    *HTTPError
		notFound   *NotFoundError
		auth       *AuthRequiredError
		protocol   *ProtocolError
		parse      *ParseError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &validation):
		return KindValidation
	case errors.As(err, &auth):
		return KindAuthRequired
	case errors.As(err, &network):
		if network.Timeout {
			return KindTimeout
		}
		return KindNetwork
	case errors.As(err, &notFound):
		return KindNotFound
	case errors.As(err, &protocol), errors.As(err, &httpErr), errors.As(err, &parse):
		return KindProtocol
	}
	return KindInternal
}
