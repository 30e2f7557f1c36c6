package domain

const (
	StateActive    = "active"
	StateCompleted = "completed"
	StateTimeout   = "timeout"
)

// EngagementMetrics describes where a conversation stands after a turn.
type EngagementMetrics struct {
	TurnNumber                int    `json:"turn_number"`
	EngagementDurationSeconds int    `json:"engagement_duration_seconds"`
	ConversationState         string `json:"conversation_state"`
}

// Envelope is the outward response produced for every processed message.
type Envelope struct {
	ScamDetected          bool              `json:"scam_detected"`
	ConfidenceScore       float64           `json:"confidence_score"`
	AgentResponse         string            `json:"agent_response"`
	EngagementMetrics     EngagementMetrics `json:"engagement_metrics"`
	ExtractedIntelligence Intelligence      `json:"extracted_intelligence"`
}
