package domain

const (
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// ChatMessage is the provider-agnostic chat message shape used by the
// generative integrations. Role is ChatRoleUser or ChatRoleAssistant; each
// provider maps it onto its own vocabulary.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ToChatHistory maps conversation history onto chat roles: scammer messages
// become user turns and agent replies become assistant turns.
func ToChatHistory(history []Message) []ChatMessage {
	out := make([]ChatMessage, 0, len(history))
	for _, m := range history {
		role := ChatRoleUser
		if m.Role == RoleAgent {
			role = ChatRoleAssistant
		}
		out = append(out, ChatMessage{Role: role, Content: m.Content})
	}
	return out
}
