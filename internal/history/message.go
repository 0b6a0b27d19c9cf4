package history

import "time"

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a single conversational turn. RecommendedIDs is nil when
// the turn carries no recommendations; it is never mutated after creation.
type Message struct {
	Role           Role      `json:"role"`
	Text           string    `json:"content"`
	RecommendedIDs []string  `json:"recommended_ids,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// HasRecommendations reports whether the message points at any listings.
func (m Message) HasRecommendations() bool {
	return len(m.RecommendedIDs) > 0
}

// User builds a user message stamped with the current time.
func User(text string) Message {
	return Message{Role: RoleUser, Text: text, CreatedAt: time.Now()}
}

// Assistant builds an assistant message. ids may be nil.
func Assistant(text string, ids []string) Message {
	return Message{Role: RoleAssistant, Text: text, RecommendedIDs: ids, CreatedAt: time.Now()}
}
