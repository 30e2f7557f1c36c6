// Package gemini adapts the Google Gen AI SDK to llm.Client.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"scam-honeypot/internal/domain"
)

const DefaultModel = "gemini-2.0-flash"

// contentGenerator is the slice of *genai.Models used here.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type Client struct {
	models contentGenerator
	model  string
}

func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("gemini: api key is required")
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return newClient(gc.Models, model), nil
}

func newClient(models contentGenerator, model string) *Client {
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	return &Client{models: models, model: model}
}

// generationConfig disables the safety filters: the replies quote scam
// content back at the sender and would otherwise be blocked.
func generationConfig() *genai.GenerateContentConfig {
	threshold := genai.HarmBlockThresholdBlockNone
	return &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](0.8),
		TopP:            genai.Ptr[float32](0.95),
		TopK:            genai.Ptr[float32](40),
		MaxOutputTokens: 1024,
		SafetySettings: []*genai.SafetySetting{
			{Category: genai.HarmCategoryHarassment, Threshold: threshold},
			{Category: genai.HarmCategoryHateSpeech, Threshold: threshold},
			{Category: genai.HarmCategorySexuallyExplicit, Threshold: threshold},
			{Category: genai.HarmCategoryDangerousContent, Threshold: threshold},
		},
	}
}

func (c *Client) Chat(ctx context.Context, instruction string, history []domain.ChatMessage, message string) (string, error) {
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, m := range history {
		role := genai.Role(genai.RoleUser)
		if m.Role == domain.ChatRoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}
	contents = append(contents, genai.NewContentFromText(message, genai.RoleUser))

	cfg := generationConfig()
	if strings.TrimSpace(instruction) != "" {
		cfg.SystemInstruction = genai.NewContentFromText(instruction, genai.RoleUser)
	}
	return c.generate(ctx, contents, cfg)
}

func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
	return c.generate(ctx, contents, generationConfig())
}

func (c *Client) generate(ctx context.Context, contents []*genai.Content, cfg *genai.GenerateContentConfig) (string, error) {
	resp, err := c.models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini: generate content: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errors.New("gemini: no candidates in response")
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", errors.New("gemini: empty response text")
	}
	return text, nil
}
