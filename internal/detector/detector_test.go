package detector

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"scam-honeypot/internal/domain"
)

type fakeLLM struct {
	reply  string
	err    error
	prompt string
}

func (f *fakeLLM) Chat(_ context.Context, _ string, _ []domain.ChatMessage, _ string) (string, error) {
	return "", errors.New("not used")
}

func (f *fakeLLM) Complete(_ context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.reply, f.err
}

func TestKeywordsPinned(t *testing.T) {
	require.Len(t, Keywords, 31)
	require.Contains(t, Keywords, "urgent")
	require.Contains(t, Keywords, "bank account")
	require.Contains(t, Keywords, "double your money")
	require.Contains(t, Keywords, "government")
}

func TestFallback_UrgentBankAccount(t *testing.T) {
	got := Fallback("URGENT: verify your bank account today")
	require.True(t, got.IsScam)
	require.GreaterOrEqual(t, got.Confidence, 0.6)
	require.Equal(t, domain.DefaultScamCategory, got.Category)
	require.Contains(t, got.Indicators, `Contains "urgent"`)
	require.Contains(t, got.Indicators, `Contains "bank account"`)
	require.Equal(t, "engage with curiosity", got.Strategy)
}

func TestFallback_BenignMessage(t *testing.T) {
	got := Fallback("Hi, are we still meeting for lunch tomorrow?")
	require.False(t, got.IsScam)
	require.InDelta(t, 0.5, got.Confidence, 1e-9)
	require.Empty(t, got.Indicators)
	require.Equal(t, "monitor", got.Strategy)
}

func TestFallback_LinkAndPaymentCountAsHits(t *testing.T) {
	got := Fallback("see bit.ly/abc and call +91 9876543210")
	require.True(t, got.IsScam)
	require.InDelta(t, 0.7, got.Confidence, 1e-9)
	require.Equal(t, []string{"Contains suspicious URL", "Contains payment information"}, got.Indicators)
}

func TestFallback_CapsConfidenceAndIndicators(t *testing.T) {
	got := Fallback("Congratulations winner! You won the lottery prize. Urgent: transfer payment immediately via upi, otp and pin needed")
	require.True(t, got.IsScam)
	require.InDelta(t, 0.95, got.Confidence, 1e-9)
	require.Len(t, got.Indicators, 5)
}

func TestParseVerdict(t *testing.T) {
	t.Run("fenced full verdict", func(t *testing.T) {
		got, err := ParseVerdict("```json\n{\"isScam\": true, \"confidence\": 0.92, \"scamType\": \"kyc\", \"indicators\": [\"urgency\"], \"recommendedStrategy\": \"ask for link\"}\n```")
		require.NoError(t, err)
		require.Equal(t, domain.DetectionResult{
			IsScam:     true,
			Confidence: 0.92,
			Category:   "kyc",
			Indicators: []string{"urgency"},
			Strategy:   "ask for link",
		}, got)
	})

	t.Run("defaults for missing fields", func(t *testing.T) {
		got, err := ParseVerdict(`Sure! {"isScam": true} hope that helps`)
		require.NoError(t, err)
		require.True(t, got.IsScam)
		require.InDelta(t, 0.5, got.Confidence, 1e-9)
		require.Equal(t, "unknown", got.Category)
		require.Equal(t, []string{}, got.Indicators)
		require.Equal(t, "engage cautiously", got.Strategy)
	})

	t.Run("clamps confidence", func(t *testing.T) {
		got, err := ParseVerdict(`{"isScam": true, "confidence": 7}`)
		require.NoError(t, err)
		require.InDelta(t, 1.0, got.Confidence, 1e-9)

		got, err = ParseVerdict(`{"isScam": false, "confidence": -2}`)
		require.NoError(t, err)
		require.InDelta(t, 0.0, got.Confidence, 1e-9)
	})

	t.Run("no object", func(t *testing.T) {
		_, err := ParseVerdict("I think this is a scam")
		require.Error(t, err)
	})

	t.Run("wrong types", func(t *testing.T) {
		_, err := ParseVerdict(`{"isScam": "yes"}`)
		require.Error(t, err)
	})
}

func TestDetect_UsesModelVerdict(t *testing.T) {
	model := &fakeLLM{reply: `{"isScam": true, "confidence": 0.88, "scamType": "lottery", "indicators": ["prize"], "recommendedStrategy": "play along"}`}
	d := New(model)

	history := []domain.Message{
		{Role: domain.RoleScammer, Content: "You won a prize"},
		{Role: domain.RoleAgent, Content: "Really? Which prize?"},
	}
	got := d.Detect(context.Background(), "Pay 500 to claim", history)

	require.True(t, got.IsScam)
	require.Equal(t, "lottery", got.Category)
	require.Contains(t, model.prompt, "SCAMMER: You won a prize")
	require.Contains(t, model.prompt, "AGENT: Really? Which prize?")
	require.Contains(t, model.prompt, `"Pay 500 to claim"`)
}

func TestDetect_FallsBack(t *testing.T) {
	msg := "Urgent! Your bank account is blocked"
	want := Fallback(msg)

	cases := []struct {
		name   string
		client *fakeLLM
	}{
		{"transport error", &fakeLLM{err: errors.New("503")}},
		{"unparseable", &fakeLLM{reply: "no json here"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := New(tc.client).Detect(context.Background(), msg, nil)
			require.Equal(t, want, got)
		})
	}

	require.Equal(t, want, New(nil).Detect(context.Background(), msg, nil))
}

func TestClassificationPrompt_EmptyHistory(t *testing.T) {
	require.Contains(t, classificationPrompt("hello", nil), "(No prior history)")
}
