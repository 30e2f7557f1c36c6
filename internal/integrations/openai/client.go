package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"scam-honeypot/internal/domain"
	"scam-honeypot/internal/integrations/paramstore"
)

const (
	DefaultBaseURL = "https://api.groq.com/openai/v1"
	DefaultModel   = "llama-3.3-70b-versatile"

	chatTemperature     = 0.8
	completeTemperature = 0.7
	topP                = 0.95
	maxTokens           = 1024
)

// chatRequest is the minimal request shape for the Chat Completions endpoint.
type chatRequest struct {
	Model       string               `json:"model"`
	Messages    []domain.ChatMessage `json:"messages"`
	Temperature *float64             `json:"temperature,omitempty"`
	TopP        *float64             `json:"top_p,omitempty"`
	MaxTokens   int                  `json:"max_tokens,omitempty"`
}

// chatResponse is the minimal response shape returned by the Chat Completions endpoint.
type chatResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	Choices []struct {
		Index   int                `json:"index"`
		Message domain.ChatMessage `json:"message"`
	} `json:"choices"`
}

type Getter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

// HTTPStatusError captures non-2xx upstream responses with status-aware context.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("openai: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// Client is a focused OpenAI-compatible chat completions client. It talks to
// Groq by default.
type Client struct {
	baseURL     string
	model       string
	httpClient  *http.Client
	getter      Getter
	paramPrefix string

	keyMu  sync.Mutex
	apiKey string
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSpace(baseURL)
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithAPIKey sets the key directly instead of reading it from SSM.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = strings.TrimSpace(key)
	}
}

// WithParamStore reads the API key from <prefix>/openai-token on first use.
func WithParamStore(getter Getter, prefix string) Option {
	return func(c *Client) {
		c.getter = getter
		c.paramPrefix = strings.TrimRight(strings.TrimSpace(prefix), "/")
	}
}

// NewClient creates a Client for model. A key must come from WithAPIKey or
// WithParamStore; an SSM key is fetched on the first call and reused for the
// lifetime of the process.
func NewClient(model string, opts ...Option) (*Client, error) {
	c := &Client{
		baseURL:    DefaultBaseURL,
		model:      strings.TrimSpace(model),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.model == "" {
		c.model = DefaultModel
	}
	if c.apiKey == "" {
		if c.getter == nil {
			return nil, errors.New("openai: api key or paramstore getter must be set")
		}
		if c.paramPrefix == "" {
			return nil, errors.New("openai: parameter prefix must not be empty")
		}
	}
	return c, nil
}

// resolveAPIKey returns the configured key, or fetches it from SSM and caches
// it. Failed fetches are not cached; the next call tries again.
func (c *Client) resolveAPIKey(ctx context.Context) (string, error) {
	c.keyMu.Lock()
	defer c.keyMu.Unlock()

	if c.apiKey != "" {
		return c.apiKey, nil
	}
	key, err := paramstore.Token(ctx, c.getter, c.tokenParameterName())
	if err != nil {
		return "", fmt.Errorf("openai: resolve api key: %w", err)
	}
	c.apiKey = key
	return key, nil
}

func (c *Client) tokenParameterName() string {
	return paramstore.TokenName(c.paramPrefix, "openai")
}

// resolvedHTTPClient returns the configured HTTP client, or a default with a
// 30s timeout if none was set.
func (c *Client) resolvedHTTPClient() *http.Client {
	if c.httpClient != nil {
		return c.httpClient
	}
	return &http.Client{Timeout: 30 * time.Second}
}

func chatURL(baseURL string) string {
	base := strings.TrimRight(baseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	if strings.HasSuffix(base, "/v1") {
		return base + "/chat/completions"
	}
	return base + "/v1/chat/completions"
}

// Chat sends the instruction as a system message followed by history and the
// new user message.
func (c *Client) Chat(ctx context.Context, instruction string, history []domain.ChatMessage, message string) (string, error) {
	messages := make([]domain.ChatMessage, 0, len(history)+2)
	if strings.TrimSpace(instruction) != "" {
		messages = append(messages, domain.ChatMessage{Role: "system", Content: instruction})
	}
	messages = append(messages, history...)
	messages = append(messages, domain.ChatMessage{Role: domain.ChatRoleUser, Content: message})

	temp, p := chatTemperature, topP
	return c.complete(ctx, chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: &temp,
		TopP:        &p,
		MaxTokens:   maxTokens,
	})
}

// Complete sends prompt as a single user message.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	temp := completeTemperature
	return c.complete(ctx, chatRequest{
		Model:       c.model,
		Messages:    []domain.ChatMessage{{Role: domain.ChatRoleUser, Content: prompt}},
		Temperature: &temp,
		MaxTokens:   maxTokens,
	})
}

func (c *Client) complete(ctx context.Context, payload chatRequest) (string, error) {
	apiKey, err := c.resolveAPIKey(ctx)
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("openai: marshal request: %w", err)
	}

	url := chatURL(c.baseURL)

	req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if reqErr != nil {
		return "", fmt.Errorf("openai: create request: %w", reqErr)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	raw, err := c.doJSONRequest(req, url)
	if err != nil {
		return "", fmt.Errorf("openai: request failed: %w", err)
	}

	var out chatResponse
	if decErr := json.Unmarshal(raw, &out); decErr != nil {
		return "", fmt.Errorf("openai: decode response: %w", decErr)
	}
	if len(out.Choices) == 0 {
		return "", errors.New("openai: no choices in response")
	}
	return out.Choices[0].Message.Content, nil
}

func (c *Client) doJSONRequest(req *http.Request, url string) ([]byte, error) {
	res, doErr := c.resolvedHTTPClient().Do(req)
	if doErr != nil {
		return nil, doErr
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, &HTTPStatusError{
			StatusCode: res.StatusCode,
			URL:        url,
			Body:       string(buf),
		}
	}

	buf, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return buf, nil
}
