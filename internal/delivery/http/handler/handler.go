package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/user/relay-service/internal/delivery/http/request"
	"github.com/user/relay-service/internal/delivery/http/response"
	"github.com/user/relay-service/internal/entity"
	"github.com/user/relay-service/internal/repository"
	"github.com/user/relay-service/internal/usecase"
	"go.uber.org/zap"
)

const (
	defaultLogLimit = 50
	maxLogLimit     = 500
)

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	extractor  usecase.Extractor
	saver      usecase.Saver
	sessions   *usecase.SessionManager
	publishLog repository.PublishLogRepository
	pingers    map[string]Pinger
	logger     *zap.Logger
}

// NewHandler creates the HTTP handlers. publishLog may be nil; pingers are
// checked by the health endpoint, keyed by the name reported.
func NewHandler(
	extractor usecase.Extractor,
	saver usecase.Saver,
	sessions *usecase.SessionManager,
	publishLog repository.PublishLogRepository,
	pingers map[string]Pinger,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		extractor:  extractor,
		saver:      saver,
		sessions:   sessions,
		publishLog: publishLog,
		pingers:    pingers,
		logger:     logger,
	}
}

// HandleScrape extracts the article fragment of a page. GET reads query
// parameters, POST a JSON body.
func (h *Handler) HandleScrape(w http.ResponseWriter, r *http.Request) {
	var req request.ScrapeRequest
	if r.Method == http.MethodGet {
		q := r.URL.Query()
		req = request.ScrapeRequest{URL: q.Get("url"), Selector: q.Get("selector"), Type: q.Get("type")}
	} else if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSONError(w, http.StatusBadRequest, response.ErrorResponse{Error: "invalid request body"})
		return
	}

	mode, err := entity.ParseMode(req.Type)
	if err != nil {
		h.writeError(w, err, req.URL)
		return
	}

	result, err := h.extractor.Extract(r.Context(), &entity.ExtractionRequest{
		URL:      req.URL,
		Selector: req.Selector,
		Mode:     mode,
	})
	if err != nil {
		h.writeError(w, err, req.URL)
		return
	}

	h.writeJSON(w, http.StatusOK, response.ScrapeResponse{
		Success:      true,
		Content:      result.Content,
		Source:       result.SourceURL,
		UsedSource:   result.UsedStrategy,
		UsedSelector: result.UsedSelector,
	})
}

// HandleLogin logs in to the platform of the {channel} path parameter with the configured account.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	channel, ok := h.channelParam(w, r)
	if !ok {
		return
	}

	result, err := h.sessions.Login(r.Context(), channel)
	if err != nil {
		h.writeError(w, err, "")
		return
	}

	h.writeJSON(w, http.StatusOK, response.LoginResponse{
		Success:         true,
		Cookies:         result.Cookies,
		ExtractedFields: result.ExtractedFields,
		ResponseStatus:  result.StatusCode,
	})
}

// HandleLogout clears the cached session of {channel}.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	channel, ok := h.channelParam(w, r)
	if !ok {
		return
	}
	if err := h.sessions.Logout(r.Context(), channel); err != nil {
		h.writeError(w, err, "")
		return
	}
	h.writeJSON(w, http.StatusOK, response.MessageResponse{Success: true, Message: "cached session cleared"})
}

// HandleSave publishes an article to {channel}, logging in first when no session is cached.
func (h *Handler) HandleSave(w http.ResponseWriter, r *http.Request) {
	channel, ok := h.channelParam(w, r)
	if !ok {
		return
	}

	var req request.SaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSONError(w, http.StatusBadRequest, response.ErrorResponse{Error: "invalid request body"})
		return
	}
	target := req.TargetAccountID
	if target == "" {
		target = req.ToUser
	}

	outcome, err := h.saver.Save(r.Context(), channel, &entity.PublishRequest{
		Title:           req.Title,
		Content:         req.Content,
		TargetAccountID: target,
	})
	if err != nil {
		h.writeError(w, err, "")
		return
	}

	resp := response.SaveResponse{Success: true, Message: "article saved", LoggedIn: outcome.LoggedIn}
	if outcome.Result != nil {
		resp.RemoteArticleID = outcome.Result.RemoteArticleID
		resp.Data = outcome.Result.RawResponse
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// HandleSessionStatus reports whether {channel} has a live cached session.
func (h *Handler) HandleSessionStatus(w http.ResponseWriter, r *http.Request) {
	channel, ok := h.channelParam(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, h.sessions.Status(r.Context(), channel))
}

// HandleSessionCheck asks the 135 editor whether the cached, or supplied, cookie is still accepted.
func (h *Handler) HandleSessionCheck(w http.ResponseWriter, r *http.Request) {
	var req request.CheckSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.writeJSONError(w, http.StatusBadRequest, response.ErrorResponse{Error: "invalid request body"})
		return
	}

	check, err := h.sessions.Check(r.Context(), entity.ParseCookieHeader(req.Cookie))
	if err != nil {
		h.writeError(w, err, "")
		return
	}
	h.writeJSON(w, http.StatusOK, check)
}

// HandleTransfer hands a saved 135 template to another account.
func (h *Handler) HandleTransfer(w http.ResponseWriter, r *http.Request) {
	var req request.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSONError(w, http.StatusBadRequest, response.ErrorResponse{Error: "invalid request body"})
		return
	}

	result, err := h.sessions.Transfer(r.Context(), &entity.TransferRequest{ID: req.ID, Creator: req.Creator})
	if err != nil {
		h.writeError(w, err, "")
		return
	}
	h.writeJSON(w, http.StatusOK, response.SaveResponse{Success: true, Message: result.Message, Data: result.RawResponse})
}

// HandlePublishLog lists recent publish attempts, optionally for one channel.
func (h *Handler) HandlePublishLog(w http.ResponseWriter, r *http.Request) {
	if h.publishLog == nil {
		h.writeJSONError(w, http.StatusNotFound, response.ErrorResponse{Error: "publish log is disabled"})
		return
	}

	var channel entity.Channel
	if raw := r.URL.Query().Get("channel"); raw != "" {
		c, err := entity.ParseChannel(raw)
		if err != nil {
			h.writeError(w, err, "")
			return
		}
		channel = c
	}
	limit := defaultLogLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.writeJSONError(w, http.StatusBadRequest, response.ErrorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = min(n, maxLogLimit)
	}

	records, err := h.publishLog.ListRecent(r.Context(), channel, limit)
	if err != nil {
		h.writeError(w, err, "")
		return
	}
	if records == nil {
		records = []*entity.PublishRecord{}
	}
	h.writeJSON(w, http.StatusOK, response.PublishLogResponse{Success: true, Records: records})
}

func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	body := map[string]string{"status": "ok"}
	for name, p := range h.pingers {
		if err := p.Ping(ctx); err != nil {
			h.logger.Warn("health check failed", zap.String("dependency", name), zap.Error(err))
			body[name] = "unavailable"
			body["status"] = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		body[name] = "ok"
	}
	h.writeJSON(w, status, body)
}

func (h *Handler) channelParam(w http.ResponseWriter, r *http.Request) (entity.Channel, bool) {
	channel, err := entity.ParseChannel(chi.URLParam(r, "channel"))
	if err != nil {
		h.writeError(w, err, "")
		return "", false
	}
	return channel, true
}

// writeError maps err to its status code. Error holds a short category and
// Message the detail; upstream network failures get no detail.
func (h *Handler) writeError(w http.ResponseWriter, err error, originalURL string) {
	kind := entity.KindOf(err)
	resp := response.ErrorResponse{Error: err.Error(), OriginalURL: originalURL}
	status := http.StatusInternalServerError

	switch kind {
	case entity.KindValidation:
		status = http.StatusBadRequest
		resp.Error = "invalid request"
		resp.Message = err.Error()
	case entity.KindNotFound:
		status = http.StatusNotFound
		resp.Error = "content not found"
		resp.Message = err.Error()
	case entity.KindAuthRequired:
		status = http.StatusUnauthorized
		resp.NeedLogin = true
		resp.Error = "login required"
		resp.Message = err.Error()
	case entity.KindNetwork:
		status = http.StatusServiceUnavailable
		resp.Error = "upstream unavailable"
	case entity.KindTimeout:
		status = http.StatusGatewayTimeout
		resp.Error = "upstream timed out"
	case entity.KindProtocol:
		var protocol *entity.ProtocolError
		if errors.As(err, &protocol) {
			resp.Error = "platform rejected the request"
			resp.Message = protocol.Message
		}
	default:
		if errors.Is(err, usecase.ErrUnsupported) {
			status = http.StatusNotImplemented
		} else {
			h.logger.Error("request failed", zap.Error(err))
		}
	}

	h.writeJSONError(w, status, resp)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}

func (h *Handler) writeJSONError(w http.ResponseWriter, status int, resp response.ErrorResponse) {
	resp.Success = false
	h.writeJSON(w, status, resp)
}
