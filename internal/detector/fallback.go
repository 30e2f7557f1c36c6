package detector

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"scam-honeypot/internal/domain"
)

// Keywords is the fallback heuristic's term list. Matching is a
// case-insensitive substring test.
var Keywords = []string{
	// prize
	"congratulations", "winner", "lottery", "prize", "won",
	// urgency
	"urgent", "immediately", "expire", "suspended", "blocked",
	// financial
	"bank account", "upi", "transfer", "payment", "otp", "pin",
	"kyc", "verify", "update your",
	// offers
	"guaranteed", "risk free", "double your money", "investment opportunity",
	// jobs
	"work from home", "earn money", "part time job", "data entry",
	// authority
	"rbi", "income tax", "police", "government",
}

const maxIndicators = 5

var (
	linkRe    = regexp.MustCompile(`(?i)https?://|bit\.ly|tinyurl`)
	paymentRe = regexp.MustCompile(`(?i)\+91|@\w+|upi`)
)

// Fallback classifies message by counting keyword hits, one extra hit for a
// link and one for a payment token. Two hits make a scam.
func Fallback(message string) domain.DetectionResult {
	lower := strings.ToLower(message)

	hits := 0
	indicators := []string{}
	for _, kw := range Keywords {
		if strings.Contains(lower, kw) {
			hits++
			indicators = append(indicators, fmt.Sprintf("Contains %q", kw))
		}
	}
	if linkRe.MatchString(message) {
		hits++
		indicators = append(indicators, "Contains suspicious URL")
	}
	if paymentRe.MatchString(message) {
		hits++
		indicators = append(indicators, "Contains payment information")
	}
	if len(indicators) > maxIndicators {
		indicators = indicators[:maxIndicators]
	}

	isScam := hits >= 2
	strategy := fallbackMonitor
	if isScam {
		strategy = fallbackEngage
	}

	return domain.DetectionResult{
		IsScam:     isScam,
		Confidence: math.Min(0.5+0.1*float64(hits), 0.95),
		Category:   domain.DefaultScamCategory,
		Indicators: indicators,
		Strategy:   strategy,
	}
}
