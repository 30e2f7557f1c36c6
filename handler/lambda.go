package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
)

// Handle serves API Gateway proxy events.
func (h *Handler) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	correlationID := header(event.Headers, headerCorrelationID)
	if correlationID == "" {
		correlationID = newCorrelationID()
	}
	logger := slog.With("correlation_id", correlationID, "method", event.HTTPMethod, "path", event.Path)
	logger.Info("request received")

	r := h.route(ctx, event)
	logger.Info("request completed", "status", r.status)
	return toProxyResponse(r, correlationID), nil
}

func (h *Handler) route(ctx context.Context, event events.APIGatewayProxyRequest) reply {
	apiKey := header(event.Headers, headerAPIKey)
	path := strings.TrimSuffix(event.Path, "/")
	if path == "" {
		path = "/"
	}

	switch event.HTTPMethod {
	case http.MethodPost:
		switch path {
		case "/", "/message", "/api/message":
			body := []byte(event.Body)
			if event.IsBase64Encoded {
				decoded, err := base64.StdEncoding.DecodeString(event.Body)
				if err != nil {
					return invalidRequest(err)
				}
				body = decoded
			}
			return h.postMessage(ctx, apiKey, body)
		}
	case http.MethodGet:
		switch {
		case path == "/":
			return h.index()
		case path == "/health":
			return h.health()
		case path == "/api/stats":
			return h.getStats(apiKey)
		case strings.HasPrefix(path, "/api/conversation/"):
			id := event.PathParameters["id"]
			if id == "" {
				id = strings.TrimPrefix(path, "/api/conversation/")
			}
			if id != "" && !strings.Contains(id, "/") {
				return h.getConversation(apiKey, id)
			}
		}
	}
	return notFound()
}

func toProxyResponse(r reply, correlationID string) events.APIGatewayProxyResponse {
	body, err := json.Marshal(r.body)
	if err != nil {
		slog.Error("marshal response", "err", err)
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusInternalServerError,
			Headers: map[string]string{
				"Content-Type":      "application/json",
				headerCorrelationID: correlationID,
			},
			Body: `{"error":"INTERNAL_ERROR","message":"An unexpected error occurred"}`,
		}
	}
	return events.APIGatewayProxyResponse{
		StatusCode: r.status,
		Headers: map[string]string{
			"Content-Type":      "application/json",
			headerCorrelationID: correlationID,
		},
		Body: string(body),
	}
}

// header looks up a header case-insensitively.
func header(headers map[string]string, name string) string {
	if v, ok := headers[name]; ok {
		return v
	}
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}
