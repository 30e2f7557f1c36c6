package domain

// Intelligence is the cumulative set of identifiers extracted from a
// conversation. Each field is a set: duplicates are never stored and entries
// are never removed.
type Intelligence struct {
	BankAccounts   []string `json:"bank_accounts"`
	UPIIDs         []string `json:"upi_ids"`
	PhoneNumbers   []string `json:"phone_numbers"`
	PhishingURLs   []string `json:"phishing_urls"`
	EmailAddresses []string `json:"email_addresses"`
}

// NewIntelligence returns an aggregate with every category present and empty,
// so it serializes as empty arrays rather than null.
func NewIntelligence() Intelligence {
	return Intelligence{
		BankAccounts:   []string{},
		UPIIDs:         []string{},
		PhoneNumbers:   []string{},
		PhishingURLs:   []string{},
		EmailAddresses: []string{},
	}
}

func (i Intelligence) Clone() Intelligence {
	return Intelligence{
		BankAccounts:   cloneStrings(i.BankAccounts),
		UPIIDs:         cloneStrings(i.UPIIDs),
		PhoneNumbers:   cloneStrings(i.PhoneNumbers),
		PhishingURLs:   cloneStrings(i.PhishingURLs),
		EmailAddresses: cloneStrings(i.EmailAddresses),
	}
}

// Total returns the number of identifiers across all categories.
func (i Intelligence) Total() int {
	return len(i.BankAccounts) + len(i.UPIIDs) + len(i.PhoneNumbers) + len(i.PhishingURLs) + len(i.EmailAddresses)
}

func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
