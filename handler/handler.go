package handler

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"scam-honeypot/internal/domain"
	"scam-honeypot/internal/usecase"
)

const (
	ServiceName = "scam-honeypot"
	Version     = "1.0.0"

	headerAPIKey        = "X-Api-Key"
	headerCorrelationID = "X-Correlation-Id"

	codeRateLimited = "RATE_LIMITED"
)

// Service is the orchestration surface the transport layer drives.
type Service interface {
	HandleMessage(ctx context.Context, in usecase.MessageInput) (domain.Envelope, error)
	Conversation(id string) (usecase.ConversationView, error)
	Stats() usecase.Stats
}

type Handler struct {
	svc      Service
	apiKey   string
	validate *validator.Validate
	now      func() time.Time
	started  time.Time
}

func NewHandler(svc Service, apiKey string) (*Handler, error) {
	if svc == nil {
		return nil, errors.New("handler: service must not be nil")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("handler: api key must not be empty")
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	h := &Handler{
		svc:      svc,
		apiKey:   apiKey,
		validate: validate,
		now:      time.Now,
	}
	h.started = h.now()
	return h, nil
}

type messageRequest struct {
	ConversationID string           `json:"conversation_id" validate:"required,max=256"`
	Message        string           `json:"message" validate:"required,max=10000"`
	Timestamp      string           `json:"timestamp" validate:"required"`
	History        []historyMessage `json:"history" validate:"omitempty,dive"`
}

type historyMessage struct {
	Role      string `json:"role" validate:"required,oneof=scammer agent"`
	Content   string `json:"content" validate:"required"`
	Timestamp string `json:"timestamp" validate:"required"`
}

type errorResponse struct {
	Error   string       `json:"error"`
	Message string       `json:"message"`
	Details []fieldError `json:"details,omitempty"`
}

type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type healthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
	Uptime    int    `json:"uptime"`
}

type indexResponse struct {
	Service     string            `json:"service"`
	Version     string            `json:"version"`
	Description string            `json:"description"`
	Endpoints   map[string]string `json:"endpoints"`
}

// reply is a transport-neutral response.
type reply struct {
	status int
	body   any
}

func (h *Handler) authorized(key string) bool {
	return subtle.ConstantTimeCompare([]byte(key), []byte(h.apiKey)) == 1
}

func (h *Handler) postMessage(ctx context.Context, apiKey string, body []byte) reply {
	if !h.authorized(apiKey) {
		return unauthorized(apiKey)
	}

	var req messageRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return invalidRequest(err)
	}
	if err := h.validate.Struct(req); err != nil {
		slog.Warn("Validation error", "err", err)
		return invalidRequest(err, fieldErrors(err)...)
	}

	env, err := h.svc.HandleMessage(ctx, usecase.MessageInput{
		ConversationID: req.ConversationID,
		Message:        req.Message,
		Timestamp:      req.Timestamp,
	})
	if err != nil {
		return errorReply(err)
	}
	return reply{http.StatusOK, env}
}

func (h *Handler) getConversation(apiKey, id string) reply {
	if !h.authorized(apiKey) {
		return unauthorized(apiKey)
	}
	view, err := h.svc.Conversation(id)
	if err != nil {
		return errorReply(err)
	}
	return reply{http.StatusOK, view}
}

func (h *Handler) getStats(apiKey string) reply {
	if !h.authorized(apiKey) {
		return unauthorized(apiKey)
	}
	return reply{http.StatusOK, h.svc.Stats()}
}

func (h *Handler) health() reply {
	now := h.now()
	return reply{http.StatusOK, healthResponse{
		Status:    "healthy",
		Service:   ServiceName,
		Version:   Version,
		Timestamp: now.UTC().Format(time.RFC3339),
		Uptime:    int(now.Sub(h.started) / time.Second),
	}}
}

func (h *Handler) index() reply {
	return reply{http.StatusOK, indexResponse{
		Service:     ServiceName,
		Version:     Version,
		Description: "Scam detection and engagement honeypot",
		Endpoints: map[string]string{
			"health":       "GET /health",
			"message":      "POST / or POST /api/message",
			"conversation": "GET /api/conversation/:id",
			"stats":        "GET /api/stats",
		},
	}}
}

func notFound() reply {
	return reply{http.StatusNotFound, errorResponse{
		Error:   string(usecase.ErrorNotFound),
		Message: "The requested endpoint does not exist",
	}}
}

func unauthorized(key string) reply {
	msg := "Invalid API key"
	if key == "" {
		msg = "Missing API key. Include x-api-key header."
	}
	return errorReply(usecase.NewError(usecase.ErrorUnauthorized, msg, nil))
}

func invalidRequest(err error, details ...fieldError) reply {
	return errorReply(usecase.NewError(usecase.ErrorInvalidInput, "Invalid request format", err), details...)
}

// errorReply maps err onto a status and body. details are reported only for
// invalid input.
func errorReply(err error, details ...fieldError) reply {
	var ue *usecase.Error
	if !errors.As(err, &ue) {
		slog.Error("unexpected error", "err", err)
		return reply{http.StatusInternalServerError, errorResponse{
			Error:   string(usecase.ErrorInternal),
			Message: "An unexpected error occurred",
		}}
	}

	switch ue.Code {
	case usecase.ErrorInvalidInput:
		return reply{http.StatusBadRequest, errorResponse{Error: string(ue.Code), Message: ue.Reason, Details: details}}
	case usecase.ErrorUnauthorized:
		return reply{http.StatusUnauthorized, errorResponse{Error: string(ue.Code), Message: ue.Reason}}
	case usecase.ErrorNotFound:
		return reply{http.StatusNotFound, errorResponse{Error: string(ue.Code), Message: ue.Reason}}
	default:
		slog.Error("request failed", "code", ue.Code, "reason", ue.Reason, "err", ue.Err)
		return reply{http.StatusInternalServerError, errorResponse{
			Error:   string(usecase.ErrorInternal),
			Message: "An unexpected error occurred",
		}}
	}
}

func fieldErrors(err error) []fieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make([]fieldError, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		if _, rest, ok := strings.Cut(field, "."); ok {
			field = rest
		}
		out = append(out, fieldError{Field: field, Message: fieldMessage(fe)})
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "oneof":
		return fe.Field() + " must be one of: " + fe.Param()
	case "max":
		return fe.Field() + " must be at most " + fe.Param() + " characters"
	default:
		return fe.Field() + " is invalid"
	}
}

func newCorrelationID() string {
	return uuid.NewString()
}
