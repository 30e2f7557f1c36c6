package intel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/samber/lo"

	"scam-honeypot/internal/domain"
	"scam-honeypot/internal/llm"
)

// Extractor runs pattern extraction and, when a model is configured, asks the
// model for the same categories and folds its answer in.
type Extractor struct {
	llm llm.Client
}

// NewExtractor returns an Extractor. A nil client disables the model path.
func NewExtractor(client llm.Client) *Extractor {
	return &Extractor{llm: client}
}

// Extract is the pattern-only path.
func (e *Extractor) Extract(text string, existing domain.Intelligence) domain.Intelligence {
	merged := Extract(text, existing)
	logNewItems(existing, merged)
	return merged
}

type aiExtraction struct {
	BankAccounts   *[]string `json:"bank_accounts"`
	UPIIDs         *[]string `json:"upi_ids"`
	PhoneNumbers   *[]string `json:"phone_numbers"`
	URLs           *[]string `json:"urls"`
	EmailAddresses *[]string `json:"emails"`
}

// ExtractWithAI returns the pattern result unioned with whatever the model
// reports for text. Any model failure yields the pattern result unchanged.
func (e *Extractor) ExtractWithAI(ctx context.Context, text string, existing domain.Intelligence) domain.Intelligence {
	regexIntel := Extract(text, existing)
	if e.llm == nil {
		logNewItems(existing, regexIntel)
		return regexIntel
	}

	found, err := e.askModel(ctx, text)
	if err != nil {
		slog.Warn("AI extraction failed, using pattern results", "err", err)
		logNewItems(existing, regexIntel)
		return regexIntel
	}

	merged := Merge(regexIntel, found)
	logNewItems(existing, merged)
	return merged
}

func (e *Extractor) askModel(ctx context.Context, text string) (domain.Intelligence, error) {
	raw, err := e.llm.Complete(ctx, extractionPrompt(text))
	if err != nil {
		return domain.Intelligence{}, err
	}
	obj, err := llm.ExtractJSONObject(raw)
	if err != nil {
		return domain.Intelligence{}, err
	}

	var out aiExtraction
	if err := json.Unmarshal([]byte(obj), &out); err != nil {
		return domain.Intelligence{}, fmt.Errorf("intel: decode model extraction: %w", err)
	}
	if out.BankAccounts == nil || out.UPIIDs == nil || out.PhoneNumbers == nil || out.URLs == nil || out.EmailAddresses == nil {
		return domain.Intelligence{}, errors.New("intel: model extraction missing fields")
	}

	return domain.Intelligence{
		BankAccounts:   *out.BankAccounts,
		UPIIDs:         lo.Map(*out.UPIIDs, func(id string, _ int) string { return NormalizeUPI(id) }),
		PhoneNumbers:   *out.PhoneNumbers,
		PhishingURLs:   lo.Map(*out.URLs, func(link string, _ int) string { return TrimURL(strings.TrimSpace(link)) }),
		EmailAddresses: *out.EmailAddresses,
	}, nil
}

func extractionPrompt(text string) string {
	return fmt.Sprintf(`Extract any financial/contact information from this text. Return ONLY valid JSON:
{
  "bank_accounts": ["account numbers found"],
  "upi_ids": ["upi@provider IDs found"],
  "phone_numbers": ["phone numbers found"],
  "urls": ["any URLs found"],
  "emails": ["email addresses found"]
}

Text: %q

Return empty arrays if nothing found. No explanations.`, text)
}

func logNewItems(before, after domain.Intelligence) {
	n := NewItems(before, after)
	if n <= 0 {
		return
	}
	slog.Info("Extracted new intelligence",
		"new_items", n,
		"total_items", after.Total(),
		"bank_accounts", len(after.BankAccounts),
		"upi_ids", len(after.UPIIDs),
		"phones", len(after.PhoneNumbers),
		"urls", len(after.PhishingURLs),
		"emails", len(after.EmailAddresses),
	)
}
