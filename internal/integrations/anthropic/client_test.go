package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/require"

	"scam-honeypot/internal/domain"
)

type fakeMessages struct {
	reply  string
	err    error
	params anthropic.MessageNewParams
}

func (f *fakeMessages) New(_ context.Context, params anthropic.MessageNewParams, _ ...option.RequestOption) (*anthropic.Message, error) {
	f.params = params
	if f.err != nil {
		return nil, f.err
	}
	var msg anthropic.Message
	if err := json.Unmarshal([]byte(f.reply), &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func textMessage(text string) string {
	b, _ := json.Marshal(map[string]any{
		"id":          "msg_1",
		"type":        "message",
		"role":        "assistant",
		"model":       DefaultModel,
		"stop_reason": "end_turn",
		"content":     []map[string]any{{"type": "text", "text": text}},
		"usage":       map[string]any{"input_tokens": 10, "output_tokens": 5},
	})
	return string(b)
}

func TestNewClient_RequiresKey(t *testing.T) {
	_, err := NewClient("", "")
	require.ErrorContains(t, err, "api key")
}

func TestChat(t *testing.T) {
	fake := &fakeMessages{reply: textMessage("Acha, what is your UPI?")}
	c := newClient(fake, "")

	history := []domain.ChatMessage{
		{Role: domain.ChatRoleUser, Content: "You won"},
		{Role: domain.ChatRoleAssistant, Content: "Really?"},
	}
	got, err := c.Chat(context.Background(), "persona", history, "Pay fee")
	require.NoError(t, err)
	require.Equal(t, "Acha, what is your UPI?", got)

	require.Equal(t, anthropic.Model(DefaultModel), fake.params.Model)
	require.Equal(t, int64(MaxTokens), fake.params.MaxTokens)
	require.Len(t, fake.params.System, 1)
	require.Equal(t, "persona", fake.params.System[0].Text)
	require.Len(t, fake.params.Messages, 3)
	require.Equal(t, anthropic.MessageParamRoleUser, fake.params.Messages[0].Role)
	require.Equal(t, anthropic.MessageParamRoleAssistant, fake.params.Messages[1].Role)
	require.Equal(t, anthropic.MessageParamRoleUser, fake.params.Messages[2].Role)
}

func TestComplete(t *testing.T) {
	fake := &fakeMessages{reply: textMessage(`{"isScam":false}`)}
	c := newClient(fake, "claude-test")

	got, err := c.Complete(context.Background(), "classify")
	require.NoError(t, err)
	require.Equal(t, `{"isScam":false}`, got)
	require.Equal(t, anthropic.Model("claude-test"), fake.params.Model)
	require.Empty(t, fake.params.System)
}

func TestSend_Errors(t *testing.T) {
	_, err := newClient(&fakeMessages{err: errors.New("overloaded")}, "").Complete(context.Background(), "p")
	require.ErrorContains(t, err, "overloaded")

	_, err = newClient(&fakeMessages{reply: textMessage(" ")}, "").Complete(context.Background(), "p")
	require.ErrorContains(t, err, "no text")
}
