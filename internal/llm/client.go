// Package llm defines the generative-text capability consumed by the
// classifier, the response generator and AI-assisted extraction.
package llm

import (
	"context"
	"fmt"

	"scam-honeypot/internal/domain"
	"scam-honeypot/internal/retry"
)

// Client is a generative-text provider.
type Client interface {
	// Chat sends a system instruction, role-tagged prior history and a new
	// user message, and returns the model's free-text reply.
	Chat(ctx context.Context, instruction string, history []domain.ChatMessage, message string) (string, error)
	// Complete sends a single prompt and returns free text, usually JSON.
	Complete(ctx context.Context, prompt string) (string, error)
}

type retrying struct {
	next Client
	cfg  retry.Config
	name string
}

// WithRetry wraps c so that every call is attempted up to cfg.MaxAttempts
// times with exponential backoff. The returned error is the last attempt's.
func WithRetry(c Client, name string, cfg retry.Config) Client {
	return &retrying{next: c, cfg: cfg, name: name}
}

func (r *retrying) Chat(ctx context.Context, instruction string, history []domain.ChatMessage, message string) (string, error) {
	var out string
	err := retry.Do(ctx, r.cfg, func(ctx context.Context) error {
		var err error
		out, err = r.next.Chat(ctx, instruction, history, message)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("llm: %s chat failed after retries: %w", r.name, err)
	}
	return out, nil
}

func (r *retrying) Complete(ctx context.Context, prompt string) (string, error) {
	var out string
	err := retry.Do(ctx, r.cfg, func(ctx context.Context) error {
		var err error
		out, err = r.next.Complete(ctx, prompt)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("llm: %s completion failed after retries: %w", r.name, err)
	}
	return out, nil
}
