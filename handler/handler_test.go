package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/require"

	"scam-honeypot/internal/domain"
	"scam-honeypot/internal/usecase"
)

const testKey = "secret-key"

type stubService struct {
	env     domain.Envelope
	err     error
	in      usecase.MessageInput
	calls   int
	view    usecase.ConversationView
	viewErr error
	viewID  string
	stats   usecase.Stats
}

func (s *stubService) HandleMessage(_ context.Context, in usecase.MessageInput) (domain.Envelope, error) {
	s.calls++
	s.in = in
	return s.env, s.err
}

func (s *stubService) Conversation(id string) (usecase.ConversationView, error) {
	s.viewID = id
	return s.view, s.viewErr
}

func (s *stubService) Stats() usecase.Stats {
	return s.stats
}

func makeEvent(method, path, body string) events.APIGatewayProxyRequest {
	return events.APIGatewayProxyRequest{
		HTTPMethod: method,
		Path:       path,
		Headers: map[string]string{
			"Content-Type": "application/json",
			"x-api-key":    testKey,
		},
		Body: body,
	}
}

func parseBody[T any](t *testing.T, body string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(body), &v))
	return v
}

func newTestHandler(t *testing.T, svc Service) *Handler {
	t.Helper()
	h, err := NewHandler(svc, testKey)
	require.NoError(t, err)
	return h
}

const validBody = `{"conversation_id":"conv-1","message":"You won a lottery!","timestamp":"2026-01-01T00:00:00Z"}`

func TestNewHandler_ValidatesDependencies(t *testing.T) {
	_, err := NewHandler(nil, testKey)
	require.Error(t, err)

	_, err = NewHandler(&stubService{}, " ")
	require.Error(t, err)
}

func TestHandle_HappyPath(t *testing.T) {
	svc := &stubService{env: domain.Envelope{
		ScamDetected:    true,
		ConfidenceScore: 0.9,
		AgentResponse:   "Really? How?",
		EngagementMetrics: domain.EngagementMetrics{
			TurnNumber:        1,
			ConversationState: domain.StateActive,
		},
		ExtractedIntelligence: domain.NewIntelligence(),
	}}
	h := newTestHandler(t, svc)

	for _, path := range []string{"/", "/message", "/api/message"} {
		t.Run(path, func(t *testing.T) {
			resp, err := h.Handle(context.Background(), makeEvent(http.MethodPost, path, validBody))
			require.NoError(t, err)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			require.Equal(t, usecase.MessageInput{
				ConversationID: "conv-1",
				Message:        "You won a lottery!",
				Timestamp:      "2026-01-01T00:00:00Z",
			}, svc.in)

			out := parseBody[domain.Envelope](t, resp.Body)
			require.True(t, out.ScamDetected)
			require.Equal(t, "Really? How?", out.AgentResponse)
			require.Equal(t, domain.StateActive, out.EngagementMetrics.ConversationState)
			require.NotEmpty(t, resp.Headers["X-Correlation-Id"])
		})
	}
	require.Equal(t, 3, svc.calls)
}

func TestHandle_Base64Body(t *testing.T) {
	svc := &stubService{}
	h := newTestHandler(t, svc)

	ev := makeEvent(http.MethodPost, "/api/message", base64.StdEncoding.EncodeToString([]byte(validBody)))
	ev.IsBase64Encoded = true
	resp, err := h.Handle(context.Background(), ev)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "conv-1", svc.in.ConversationID)
}

func TestHandle_InvalidBase64Body(t *testing.T) {
	svc := &stubService{}
	h := newTestHandler(t, svc)

	ev := makeEvent(http.MethodPost, "/api/message", "%%%not-base64")
	ev.IsBase64Encoded = true
	resp, err := h.Handle(context.Background(), ev)
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	out := parseBody[errorResponse](t, resp.Body)
	require.Equal(t, string(usecase.ErrorInvalidInput), out.Error)
	require.Equal(t, "Invalid request format", out.Message)
	require.Empty(t, out.Details)
	require.Zero(t, svc.calls)
}

func TestErrorReply_Unauthorized(t *testing.T) {
	r := errorReply(usecase.NewError(usecase.ErrorUnauthorized, "Invalid API key", nil))
	require.Equal(t, http.StatusUnauthorized, r.status)
	require.Equal(t, errorResponse{Error: string(usecase.ErrorUnauthorized), Message: "Invalid API key"}, r.body)
}

func TestHandle_Unauthorized(t *testing.T) {
	cases := []struct {
		name    string
		key     string
		message string
	}{
		{name: "missing", key: "", message: "Missing API key. Include x-api-key header."},
		{name: "wrong", key: "nope", message: "Invalid API key"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubService{}
			h := newTestHandler(t, svc)

			ev := makeEvent(http.MethodPost, "/api/message", validBody)
			ev.Headers["x-api-key"] = tc.key
			resp, err := h.Handle(context.Background(), ev)
			require.NoError(t, err)
			require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

			out := parseBody[errorResponse](t, resp.Body)
			require.Equal(t, string(usecase.ErrorUnauthorized), out.Error)
			require.Equal(t, tc.message, out.Message)
			require.Zero(t, svc.calls)
		})
	}
}

func TestHandle_InvalidBody(t *testing.T) {
	svc := &stubService{}
	h := newTestHandler(t, svc)

	resp, err := h.Handle(context.Background(), makeEvent(http.MethodPost, "/", `not-json`))
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	out := parseBody[errorResponse](t, resp.Body)
	require.Equal(t, string(usecase.ErrorInvalidInput), out.Error)
	require.Zero(t, svc.calls)
}

func TestHandle_ValidationDetails(t *testing.T) {
	svc := &stubService{}
	h := newTestHandler(t, svc)

	body := `{"message":"hi","timestamp":"t","history":[{"role":"bot","content":"x","timestamp":"t"}]}`
	resp, err := h.Handle(context.Background(), makeEvent(http.MethodPost, "/", body))
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	out := parseBody[errorResponse](t, resp.Body)
	require.Equal(t, string(usecase.ErrorInvalidInput), out.Error)
	require.Equal(t, "Invalid request format", out.Message)

	fields := make(map[string]string, len(out.Details))
	for _, d := range out.Details {
		fields[d.Field] = d.Message
	}
	require.Equal(t, "conversation_id is required", fields["conversation_id"])
	require.Equal(t, "role must be one of: scammer agent", fields["history[0].role"])
	require.Zero(t, svc.calls)
}

func TestHandle_MapsUseCaseErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{name: "invalid input", err: usecase.NewError(usecase.ErrorInvalidInput, "message is required", nil), status: http.StatusBadRequest, code: string(usecase.ErrorInvalidInput)},
		{name: "not found", err: usecase.NewError(usecase.ErrorNotFound, "conversation not found", nil), status: http.StatusNotFound, code: string(usecase.ErrorNotFound)},
		{name: "internal", err: usecase.NewError(usecase.ErrorInternal, "boom", errors.New("db down")), status: http.StatusInternalServerError, code: string(usecase.ErrorInternal)},
		{name: "untyped", err: errors.New("raw"), status: http.StatusInternalServerError, code: string(usecase.ErrorInternal)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestHandler(t, &stubService{err: tc.err})

			resp, err := h.Handle(context.Background(), makeEvent(http.MethodPost, "/", validBody))
			require.NoError(t, err)
			require.Equal(t, tc.status, resp.StatusCode)

			out := parseBody[errorResponse](t, resp.Body)
			require.Equal(t, tc.code, out.Error)
			if tc.status == http.StatusInternalServerError {
				require.Equal(t, "An unexpected error occurred", out.Message)
			}
		})
	}
}

func TestHandle_Conversation(t *testing.T) {
	svc := &stubService{view: usecase.ConversationView{ConversationID: "conv-7", TurnCount: 4, IsActive: true}}
	h := newTestHandler(t, svc)

	resp, err := h.Handle(context.Background(), makeEvent(http.MethodGet, "/api/conversation/conv-7", ""))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "conv-7", svc.viewID)

	out := parseBody[usecase.ConversationView](t, resp.Body)
	require.Equal(t, 4, out.TurnCount)
	require.True(t, out.IsActive)
}

func TestHandle_ConversationNotFound(t *testing.T) {
	svc := &stubService{viewErr: usecase.NewError(usecase.ErrorNotFound, "conversation not found", nil)}
	h := newTestHandler(t, svc)

	resp, err := h.Handle(context.Background(), makeEvent(http.MethodGet, "/api/conversation/missing", ""))
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandle_StatsAndHealth(t *testing.T) {
	svc := &stubService{stats: usecase.Stats{ActiveConversations: 2, UptimeSeconds: 10}}
	h := newTestHandler(t, svc)

	resp, err := h.Handle(context.Background(), makeEvent(http.MethodGet, "/api/stats", ""))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 2, parseBody[usecase.Stats](t, resp.Body).ActiveConversations)

	ev := makeEvent(http.MethodGet, "/health", "")
	delete(ev.Headers, "x-api-key")
	resp, err = h.Handle(context.Background(), ev)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	health := parseBody[healthResponse](t, resp.Body)
	require.Equal(t, "healthy", health.Status)
	require.Equal(t, ServiceName, health.Service)
	require.Equal(t, Version, health.Version)
}

func TestHandle_UnknownRoute(t *testing.T) {
	h := newTestHandler(t, &stubService{})

	resp, err := h.Handle(context.Background(), makeEvent(http.MethodDelete, "/api/message", ""))
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = h.Handle(context.Background(), makeEvent(http.MethodGet, "/nope", ""))
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandle_PreservesCorrelationID(t *testing.T) {
	h := newTestHandler(t, &stubService{})

	ev := makeEvent(http.MethodGet, "/health", "")
	ev.Headers["x-correlation-id"] = "corr-123"
	resp, err := h.Handle(context.Background(), ev)
	require.NoError(t, err)
	require.Equal(t, "corr-123", resp.Headers["X-Correlation-Id"])
}
