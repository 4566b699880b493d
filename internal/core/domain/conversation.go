package domain

import "time"

// MaxConversationHistory caps the messages retained per conversation.
const MaxConversationHistory = 20

// Role identifies the author of a conversation message.
type Role string

// Message roles.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// IsValid returns true if the role is recognised.
func (r Role) IsValid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	default:
		return false
	}
}

// ConversationMessage is one turn of a conversation.
type ConversationMessage struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// AppendMessage appends msg to history and drops the oldest entries once
// max is exceeded. A non-positive max means MaxConversationHistory.
// The input slice is not modified.
func AppendMessage(history []ConversationMessage, msg ConversationMessage, maxLen int) []ConversationMessage {
	if maxLen <= 0 {
		maxLen = MaxConversationHistory
	}
	out := make([]ConversationMessage, 0, min(len(history)+1, maxLen))
	all := append(history[:len(history):len(history)], msg)
	if len(all) > maxLen {
		all = all[len(all)-maxLen:]
	}
	return append(out, all...)
}

// SessionState is the lifecycle state of a conversation session.
type SessionState string

// Session states. There are no others.
const (
	SessionActive SessionState = "active"
	SessionClosed SessionState = "closed"
)

// SessionInfo describes a conversation session.
type SessionInfo struct {
	ID        string       `json:"id"`
	State     SessionState `json:"state"`
	CreatedAt time.Time    `json:"createdAt"`
	Messages  int          `json:"messages"`
}
