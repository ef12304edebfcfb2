package entity

import (
	"encoding/json"
	"time"
)

// PublishRequest is the article submitted to an editor platform.
type PublishRequest struct {
	Title           string `json:"title"`
	Content         string `json:"content"`
	TargetAccountID string `json:"targetAccountId,omitempty"`
}

// Validate reports the first missing field.
func (r *PublishRequest) Validate() error {
	if r.Content == "" {
		return &ValidationError{Field: "content", Message: "content is required"}
	}
	if r.Title == "" {
		return &ValidationError{Field: "title", Message: "title is required"}
	}
	return nil
}

// PublishResult is a platform's interpreted answer to a publish call.
type PublishResult struct {
	Success         bool
	RemoteArticleID string
	NeedsLogin      bool
	Message         string
	StatusCode      int
	RawResponse     json.RawMessage
}

// SaveOutcome is what the save flow reports to callers.
type SaveOutcome struct {
	Channel    Channel
	Result     *PublishResult
	LoggedIn   bool // a login happened during this request
	NeedLogin  bool
	FinalState SaveState
}

// SaveState enumerates the orchestrator's states.
type SaveState string

const (
	SaveIdle          SaveState = "idle"
	SaveSessionLookup SaveState = "session_lookup"
	SaveSessionFound  SaveState = "session_found"
	SaveNeedLogin     SaveState = "need_login"
	SaveLogin         SaveState = "login"
	SavePublishing    SaveState = "publishing"
	SaveSuccess       SaveState = "success"
	SaveFailed        SaveState = "failed"
)

// PublishRecord mirrors the `publish_log` PostgreSQL table schema.
type PublishRecord struct {
	ID              string    `json:"id"`
	Channel         Channel   `json:"channel"`
	Title           string    `json:"title"`
	TargetAccountID string    `json:"target_account_id,omitempty"`
	ContentLength   int       `json:"content_length"`
	Success         bool      `json:"success"`
	NeedLogin       bool      `json:"need_login"`
	RemoteArticleID string    `json:"remote_article_id,omitempty"`
	Message         string    `json:"message,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// TransferRequest hands a saved 135 template over to another account.
type TransferRequest struct {
	ID      string `json:"id"`
	Creator string `json:"creator"`
}

// Validate reports the first missing field.
func (r *TransferRequest) Validate() error {
	if r.ID == "" {
		return &ValidationError{Field: "id", Message: "template id is required"}
	}
	if r.Creator == "" {
		return &ValidationError{Field: "creator", Message: "target user id is required"}
	}
	return nil
}
