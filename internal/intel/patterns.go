package intel

import (
	"regexp"
	"strings"
)

// UPIHandles are the payment-provider suffixes accepted after '@' in a UPI id.
var UPIHandles = []string{
	"ybl", "paytm", "okaxis", "oksbi", "okhdfcbank", "okicici", "axisbank",
	"sbi", "hdfc", "icici", "upi", "gpay", "phonepe", "ibl", "axl", "airtel",
	"freecharge", "amazonpay", "slice", "jupiter", "cred", "groww",
}

// LegitimateDomains are hosts whose http(s) links are not reported.
var LegitimateDomains = []string{
	"google.com", "facebook.com", "twitter.com", "linkedin.com",
	"microsoft.com", "apple.com", "amazon.com", "youtube.com",
	"github.com", "stackoverflow.com", "wikipedia.org",
}

// ShortenerDomains are link shorteners; links under them are always reported.
var ShortenerDomains = []string{
	"bit.ly", "tinyurl.com", "goo.gl", "t.co", "is.gd",
	"buff.ly", "ow.ly", "tr.im", "tiny.cc",
}

var (
	bankAccountRe = regexp.MustCompile(`\b\d{9,18}\b`)

	upiRe = regexp.MustCompile(`(?i)\b[a-z0-9._-]+@(?:` + alternation(UPIHandles) + `)\b`)

	phoneRes = []*regexp.Regexp{
		regexp.MustCompile(`(?:\+91[-\s]?|\b(?:91[-\s]?)?)(?:\d{10}|\d{5}[-\s]\d{5}|\d{4}[-\s]\d{3}[-\s]\d{3})\b`),
		regexp.MustCompile(`(?i)(?:whatsapp|telegram|wa\.me|t\.me)[:\s/]*(?:\+?91[-\s]?)?\d{10}`),
	}

	urlRe = regexp.MustCompile(`(?i)https?://(?:www\.)?[-a-z0-9@:%._+~#=]{1,256}\.[a-z0-9()]{1,6}\b[-a-z0-9()@:%_+.~#?&/=]*`)

	shortURLRe = regexp.MustCompile(`(?i)\b(?:` + alternation(ShortenerDomains) + `)/\S+`)

	emailRe = regexp.MustCompile(`(?i)\b[a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,}\b`)

	allZeroRe     = regexp.MustCompile(`^0+$`)
	roundFigureRe = regexp.MustCompile(`^[1-9]0{6,}$`)

	nonDigitRe = regexp.MustCompile(`\D`)
)

func alternation(words []string) string {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return strings.Join(quoted, "|")
}
