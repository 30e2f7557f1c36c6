// Package anthropic adapts the Anthropic Messages API to llm.Client.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"scam-honeypot/internal/domain"
)

const (
	DefaultModel = "claude-3-5-haiku-latest"
	MaxTokens    = 1024
)

type messageCreator interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

type Client struct {
	messages messageCreator
	model    string
}

func NewClient(apiKey, model string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("anthropic: api key is required")
	}
	ac := anthropic.NewClient(option.WithAPIKey(apiKey))
	return newClient(&ac.Messages, model), nil
}

func newClient(messages messageCreator, model string) *Client {
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	return &Client{messages: messages, model: model}
}

func (c *Client) Chat(ctx context.Context, instruction string, history []domain.ChatMessage, message string) (string, error) {
	msgs := make([]anthropic.MessageParam, 0, len(history)+1)
	for _, m := range history {
		if m.Role == domain.ChatRoleAssistant {
			msgs = append(msgs, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
			continue
		}
		msgs = append(msgs, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
	}
	msgs = append(msgs, anthropic.NewUserMessage(anthropic.NewTextBlock(message)))

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   MaxTokens,
		Messages:    msgs,
		Temperature: anthropic.Float(0.8),
	}
	if strings.TrimSpace(instruction) != "" {
		params.System = []anthropic.TextBlockParam{{Text: instruction}}
	}
	return c.send(ctx, params)
}

func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	return c.send(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   MaxTokens,
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(prompt))},
		Temperature: anthropic.Float(0.7),
	})
}

func (c *Client) send(ctx context.Context, params anthropic.MessageNewParams) (string, error) {
	msg, err := c.messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic: create message: %w", err)
	}
	text := extractText(msg)
	if strings.TrimSpace(text) == "" {
		return "", errors.New("anthropic: no text in response")
	}
	return text, nil
}

func extractText(msg *anthropic.Message) string {
	if msg == nil {
		return ""
	}
	var b strings.Builder
	for _, block := range msg.Content {
		switch v := block.AsAny().(type) {
		case anthropic.TextBlock:
			b.WriteString(v.Text)
		}
	}
	return b.String()
}
