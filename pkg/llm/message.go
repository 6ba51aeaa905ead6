// Package llm holds the wire types exchanged with the advisor chat endpoint:
// chat messages, the request body, and the classified stream events.
package llm

// Role identifies who authored a ChatMessage.
type Role string

const (
	// RoleUser marks a message typed by the user.
	RoleUser Role = "user"

	// RoleAssistant marks a message generated by the advisor.
	RoleAssistant Role = "assistant"
)

// ChatMessage is a single transcript entry.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// NewUserMessage creates a user message with the given content.
func NewUserMessage(content string) ChatMessage {
	return ChatMessage{Role: RoleUser, Content: content}
}

// NewAssistantMessage creates an assistant message with the given content.
func NewAssistantMessage(content string) ChatMessage {
	return ChatMessage{Role: RoleAssistant, Content: content}
}
