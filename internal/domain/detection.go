package domain

// DetectionResult is the classifier verdict for a single message.
type DetectionResult struct {
	IsScam     bool
	Confidence float64
	Category   string
	Indicators []string
	Strategy   string
}
