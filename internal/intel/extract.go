// Package intel pulls financial and contact identifiers out of free text and
// merges them into a conversation's cumulative intelligence.
package intel

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"scam-honeypot/internal/domain"
)

// Extract returns existing merged with every valid identifier found in text.
// existing is not modified.
func Extract(text string, existing domain.Intelligence) domain.Intelligence {
	return Merge(existing, Find(text))
}

// Find returns the valid identifiers found in text alone.
func Find(text string) domain.Intelligence {
	return domain.Intelligence{
		BankAccounts:   filter(bankAccountRe.FindAllString(text, -1), ValidBankAccount),
		UPIIDs:         lo.Uniq(lo.Map(upiRe.FindAllString(text, -1), func(m string, _ int) string { return NormalizeUPI(m) })),
		PhoneNumbers:   findPhoneNumbers(text),
		PhishingURLs:   findURLs(text),
		EmailAddresses: filter(emailRe.FindAllString(text, -1), ValidEmail),
	}
}

// Merge unions two aggregates category by category, keeping first-seen order
// and dropping duplicates and blanks.
func Merge(a, b domain.Intelligence) domain.Intelligence {
	return domain.Intelligence{
		BankAccounts:   union(a.BankAccounts, b.BankAccounts),
		UPIIDs:         union(a.UPIIDs, b.UPIIDs),
		PhoneNumbers:   union(a.PhoneNumbers, b.PhoneNumbers),
		PhishingURLs:   union(a.PhishingURLs, b.PhishingURLs),
		EmailAddresses: union(a.EmailAddresses, b.EmailAddresses),
	}
}

func union(a, b []string) []string {
	all := make([]string, 0, len(a)+len(b))
	all = append(all, a...)
	for _, s := range b {
		all = append(all, strings.TrimSpace(s))
	}
	return lo.Uniq(lo.Compact(all))
}

func filter(matches []string, valid func(string) bool) []string {
	return lo.Uniq(lo.Filter(matches, func(m string, _ int) bool { return valid(m) }))
}

// ValidBankAccount rejects digit runs that are more likely something else:
// plausible years, all zeros, and round figures like 1000000.
func ValidBankAccount(s string) bool {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return false
	}
	if n >= 1900 && n <= 2100 {
		return false
	}
	if allZeroRe.MatchString(s) || roundFigureRe.MatchString(s) {
		return false
	}
	return true
}

// ValidEmail rejects placeholder addresses.
func ValidEmail(s string) bool {
	lower := strings.ToLower(s)
	return !strings.Contains(lower, "example") && !strings.Contains(lower, "test@test")
}

// NormalizePhone reduces a matched phone number to a canonical form, or
// returns false if it does not look like one. Ten digits get the +91 country
// code, numbers already starting with 91 get a leading '+', anything else of
// 10 to 15 digits is kept as bare digits.
func NormalizePhone(raw string) (string, bool) {
	digits := nonDigitRe.ReplaceAllString(raw, "")
	if len(digits) < 10 || len(digits) > 15 {
		return "", false
	}
	switch {
	case len(digits) == 10:
		return "+91" + digits, true
	case strings.HasPrefix(digits, "91"):
		return "+" + digits, true
	default:
		return digits, true
	}
}

func findPhoneNumbers(text string) []string {
	var out []string
	for _, re := range phoneRes {
		for _, m := range re.FindAllString(text, -1) {
			if phone, ok := NormalizePhone(m); ok {
				out = append(out, phone)
			}
		}
	}
	return lo.Uniq(out)
}

func findURLs(text string) []string {
	var out []string
	links := lo.Map(urlRe.FindAllString(text, -1), func(m string, _ int) string { return TrimURL(m) })
	for _, link := range links {
		if IsSuspiciousURL(link) {
			out = append(out, link)
		}
	}

	for _, match := range shortURLRe.FindAllString(text, -1) {
		short := TrimURL(match)
		covered := lo.ContainsBy(links, func(link string) bool {
			return strings.Contains(link, short)
		})
		if !covered {
			out = append(out, short)
		}
	}
	return lo.Uniq(out)
}

// NormalizeUPI lower-cases a UPI id; handles and names are case-insensitive.
func NormalizeUPI(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// TrimURL drops sentence punctuation stuck to the end of a link. A closing
// parenthesis is dropped only when it has no opening partner in the link.
func TrimURL(link string) string {
	for link != "" {
		last := link[len(link)-1]
		switch {
		case strings.IndexByte(".,;:!?", last) >= 0:
			link = link[:len(link)-1]
		case last == ')' && strings.Count(link, ")") > strings.Count(link, "("):
			link = link[:len(link)-1]
		default:
			return link
		}
	}
	return link
}

// IsSuspiciousURL reports whether an http(s) link should be kept. Links under
// a shortener are always suspicious; otherwise a link is suspicious unless its
// host is one of LegitimateDomains or a subdomain of one.
func IsSuspiciousURL(link string) bool {
	u, err := url.Parse(link)
	if err != nil || u.Host == "" {
		return true
	}
	host := strings.ToLower(u.Hostname())

	if matchesDomain(host, ShortenerDomains) {
		return true
	}
	return !matchesDomain(host, LegitimateDomains)
}

func matchesDomain(host string, domains []string) bool {
	return lo.ContainsBy(domains, func(d string) bool {
		return host == d || strings.HasSuffix(host, "."+d)
	})
}

// NewItems returns how many identifiers after has beyond before.
func NewItems(before, after domain.Intelligence) int {
	return after.Total() - before.Total()
}
