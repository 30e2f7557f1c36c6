package domain

import "time"

// Role identifies who authored a conversation message.
type Role string

const (
	RoleScammer Role = "scammer"
	RoleAgent   Role = "agent"
)

// DefaultScamCategory is the category of a conversation that has not been
// classified into anything more specific.
const DefaultScamCategory = "unknown"

// Message is a single conversation turn.
type Message struct {
	Role      Role   `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// ConversationState is the authoritative record for one conversation id.
type ConversationState struct {
	ID           string
	History      []Message
	CreatedAt    time.Time
	TurnCount    int
	Intelligence Intelligence
	Active       bool
	ScamCategory string
}

// NewConversationState returns an empty, active record created at now.
func NewConversationState(id string, now time.Time) *ConversationState {
	return &ConversationState{
		ID:           id,
		History:      []Message{},
		CreatedAt:    now,
		Intelligence: NewIntelligence(),
		Active:       true,
		ScamCategory: DefaultScamCategory,
	}
}

// Clone returns a deep copy safe to hand out of the store.
func (s *ConversationState) Clone() *ConversationState {
	if s == nil {
		return nil
	}
	cp := *s
	cp.History = append([]Message(nil), s.History...)
	if cp.History == nil {
		cp.History = []Message{}
	}
	cp.Intelligence = s.Intelligence.Clone()
	return &cp
}
