package types

// Chat message roles as they appear on the wire.
const (
	RoleHuman  = "human"
	RoleAI     = "ai"
	RoleSystem = "system"
)

// ChatMessage is one entry in a conversation, shaped for the chat panel.
type ChatMessage struct {
	Type string          `json:"type"`
	Data ChatMessageData `json:"data"`
}

// ChatMessageData carries the message payload.
type ChatMessageData struct {
	Content string `json:"content"`
}

// NewChatMessage builds a message with the given role and content.
func NewChatMessage(role, content string) ChatMessage {
	return ChatMessage{Type: role, Data: ChatMessageData{Content: content}}
}
