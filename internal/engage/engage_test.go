package engage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"scam-honeypot/internal/domain"
)

type fakeLLM struct {
	reply       string
	err         error
	instruction string
	history     []domain.ChatMessage
	message     string
}

func (f *fakeLLM) Chat(_ context.Context, instruction string, history []domain.ChatMessage, message string) (string, error) {
	f.instruction = instruction
	f.history = history
	f.message = message
	return f.reply, f.err
}

func (f *fakeLLM) Complete(_ context.Context, _ string) (string, error) {
	return "", errors.New("not used")
}

func first(int) int { return 0 }
func last(n int) int { return n - 1 }

func TestPersona(t *testing.T) {
	require.Contains(t, Persona("lottery"), "never entered any lottery")
	require.Equal(t, Persona("kyc"), Persona(" KYC "))
	require.Equal(t, personas["default"], Persona("romance"))
	require.Equal(t, personas["default"], Persona(""))
	require.NotEqual(t, Persona("unknown"), Persona("default"))

	for _, name := range []string{"lottery", "prize", "kyc", "investment", "job", "loan", "tech_support", "tax", "utility", "unknown", "default"} {
		require.Contains(t, personas, name)
	}
}

func TestFallbackReply_ScriptSelection(t *testing.T) {
	g := New(nil, WithRand(first))

	require.Equal(t, "Oh really? But I never entered any lottery. How did I win?", g.FallbackReply("lottery", 0))
	require.Equal(t, "What details do you need from me?", g.FallbackReply("KYC", 1))
	require.Equal(t, "OK, I am interested. How do I proceed?", g.FallbackReply("investment", 2))
}

func TestFallbackReply_ClampsTurn(t *testing.T) {
	g := New(nil, WithRand(last))

	require.Equal(t, "Can I call you? What is your number?", g.FallbackReply("kyc", 14))
	require.Equal(t, "This is interesting. Tell me more about this.", g.FallbackReply("unknown", -3))
}

func TestGenerate_UsesModel(t *testing.T) {
	model := &fakeLLM{reply: "  \"Acha ji, which bank should I transfer to?\"\n"}
	g := New(model, WithRand(first))

	history := []domain.Message{
		{Role: domain.RoleScammer, Content: "You won 5 lakh"},
		{Role: domain.RoleAgent, Content: "Really?"},
	}
	got := g.Generate(context.Background(), "Pay the fee now", history, "lottery", 2)

	require.Equal(t, "Acha ji, which bank should I transfer to?", got)
	require.Contains(t, model.instruction, "NEVER reveal you are an AI")
	require.Contains(t, model.instruction, "PERSONA: "+Persona("lottery"))
	require.Equal(t, []domain.ChatMessage{
		{Role: domain.ChatRoleUser, Content: "You won 5 lakh"},
		{Role: domain.ChatRoleAssistant, Content: "Really?"},
	}, model.history)
	require.Equal(t, "Pay the fee now", model.message)
}

func TestGenerate_KeepsInnerQuotes(t *testing.T) {
	g := New(&fakeLLM{reply: `He said "pay now" to me?`})
	require.Equal(t, `He said "pay now" to me?`, g.Generate(context.Background(), "m", nil, "kyc", 1))
}

func TestGenerate_FallsBack(t *testing.T) {
	cases := []struct {
		name   string
		client *fakeLLM
	}{
		{"transport error", &fakeLLM{err: errors.New("quota")}},
		{"empty reply", &fakeLLM{reply: "  "}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := New(tc.client, WithRand(first))
			got := g.Generate(context.Background(), "update kyc", nil, "kyc", 0)
			require.Equal(t, "KYC kya hota hai ji? My bank sent this?", got)
		})
	}
}

func TestFallbackReply_DefaultRandomStaysInRange(t *testing.T) {
	g := New(nil)
	for range 50 {
		got := g.FallbackReply("lottery", 1)
		require.Contains(t, scripts["lottery"][1], got)
	}
}
