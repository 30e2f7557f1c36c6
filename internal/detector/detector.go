// Package detector classifies inbound messages as scam attempts. The model
// verdict is preferred; a keyword heuristic answers whenever the model cannot.
package detector

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"scam-honeypot/internal/domain"
	"scam-honeypot/internal/llm"
)

const (
	defaultStrategy   = "engage cautiously"
	fallbackEngage    = "engage with curiosity"
	fallbackMonitor   = "monitor"
	defaultConfidence = 0.5
)

// Detector produces a verdict for every message. It never returns an error.
type Detector struct {
	llm llm.Client
}

// New returns a Detector. A nil client makes every verdict come from Fallback.
func New(client llm.Client) *Detector {
	return &Detector{llm: client}
}

// Detect classifies message in the context of the prior history.
func (d *Detector) Detect(ctx context.Context, message string, history []domain.Message) domain.DetectionResult {
	if d.llm == nil {
		return Fallback(message)
	}

	raw, err := d.llm.Complete(ctx, classificationPrompt(message, history))
	if err != nil {
		slog.Error("scam detection failed, using keyword fallback", "err", err)
		return Fallback(message)
	}

	result, err := ParseVerdict(raw)
	if err != nil {
		slog.Warn("could not parse scam detection response, using keyword fallback", "err", err, "response", raw)
		return Fallback(message)
	}

	slog.Info("scam detection completed",
		"is_scam", result.IsScam,
		"confidence", result.Confidence,
		"scam_type", result.Category,
		"indicator_count", len(result.Indicators),
	)
	return result
}

type verdict struct {
	IsScam              *bool    `json:"isScam"`
	Confidence          *float64 `json:"confidence"`
	ScamType            string   `json:"scamType"`
	Indicators          []string `json:"indicators"`
	RecommendedStrategy string   `json:"recommendedStrategy"`
}

// ParseVerdict reads a model reply leniently: code fences are stripped, the
// first balanced object is decoded, and missing fields take their defaults.
func ParseVerdict(raw string) (domain.DetectionResult, error) {
	obj, err := llm.ExtractJSONObject(raw)
	if err != nil {
		return domain.DetectionResult{}, err
	}

	var v verdict
	if err := json.Unmarshal([]byte(obj), &v); err != nil {
		return domain.DetectionResult{}, fmt.Errorf("detector: decode verdict: %w", err)
	}

	out := domain.DetectionResult{
		Confidence: defaultConfidence,
		Category:   domain.DefaultScamCategory,
		Indicators: []string{},
		Strategy:   defaultStrategy,
	}
	if v.IsScam != nil {
		out.IsScam = *v.IsScam
	}
	if v.Confidence != nil {
		out.Confidence = clamp(*v.Confidence, 0, 1)
	}
	if s := strings.TrimSpace(v.ScamType); s != "" {
		out.Category = s
	}
	if v.Indicators != nil {
		out.Indicators = v.Indicators
	}
	if s := strings.TrimSpace(v.RecommendedStrategy); s != "" {
		out.Strategy = s
	}
	return out, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func classificationPrompt(message string, history []domain.Message) string {
	var b strings.Builder
	if len(history) == 0 {
		b.WriteString("(No prior history)")
	}
	for i, m := range history {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s: %s", strings.ToUpper(string(m.Role)), m.Content)
	}

	return fmt.Sprintf(`You are an expert scam detection AI specialized in detecting fraud attempts, especially in the Indian context.

CONVERSATION HISTORY:
%s

NEW MESSAGE TO ANALYZE: %q

SCAM CATEGORIES TO DETECT:
- Financial (India): KYC update, UPI fraud, RBI or bank impersonation, income tax refunds, electricity or gas disconnection, insurance claims, loans with processing fees
- Prize/lottery: lucky draws, international lotteries, gift card rewards
- Job/business: work from home with upfront fees, data entry, forex or crypto trading, MLM schemes
- Tech support: virus alerts, account suspension, software license expiry
- Social engineering: relative in emergency, romance, charity fraud

KEY INDICATORS:
1. Urgency or time pressure
2. Requests for money, OTP, PIN or bank details
3. Offers that are too good to be true
4. Poor grammar or spelling
5. Suspicious links (bit.ly, tinyurl, random domains)
6. Requests to move to WhatsApp or Telegram
7. Authority impersonation
8. Guaranteed returns on investment

Use one of these scamType values when it fits: lottery, prize, kyc, investment, job, loan, tech_support, tax, utility, unknown.

RESPOND ONLY IN THIS EXACT JSON FORMAT (no markdown, no code blocks, no explanations):
{
  "isScam": true or false,
  "confidence": 0.0 to 1.0,
  "scamType": "category name",
  "indicators": ["indicator1", "indicator2"],
  "recommendedStrategy": "brief engagement strategy"
}`, b.String(), message)
}
