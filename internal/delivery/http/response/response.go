package response

import (
	"encoding/json"

	"github.com/user/relay-service/internal/entity"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success     bool   `json:"success"`
	Error       string `json:"error"`
	Message     string `json:"message,omitempty"`
	OriginalURL string `json:"originalUrl,omitempty"`
	NeedLogin   bool   `json:"needLogin,omitempty"`
}

// ScrapeResponse is a successful extraction.
type ScrapeResponse struct {
	Success      bool            `json:"success"`
	Content      string          `json:"content"`
	Source       string          `json:"source"`
	UsedSource   entity.Strategy `json:"usedSource"`
	UsedSelector string          `json:"usedSelector"`
}

// LoginResponse is a successful platform login.
type LoginResponse struct {
	Success         bool              `json:"success"`
	Cookies         []string          `json:"cookies"`
	ExtractedFields map[string]string `json:"extractedFields"`
	ResponseStatus  int               `json:"responseStatus,omitempty"`
}

// SaveResponse is a successful publish. Data is the platform's own answer.
type SaveResponse struct {
	Success         bool            `json:"success"`
	Message         string          `json:"message"`
	RemoteArticleID string          `json:"remoteArticleId,omitempty"`
	LoggedIn        bool            `json:"loggedIn"`
	Data            json.RawMessage `json:"data,omitempty"`
}

// MessageResponse acknowledges an operation without a payload.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// PublishLogResponse lists recent publish attempts.
type PublishLogResponse struct {
	Success bool                    `json:"success"`
	Records []*entity.PublishRecord `json:"records"`
}
