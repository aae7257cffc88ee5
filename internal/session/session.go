package session

import (
	"time"
)

// Conversation is the session context shared across stateless handler
// invocations. It is the unit of storage in the cache: one JSON document
// per conversation, expiring with the session TTL.
type Conversation struct {
	ConversationID string                 `json:"conversation_id"`
	TenantID       string                 `json:"tenant_id"`
	UserID         string                 `json:"user_id"`
	SessionID      string                 `json:"session_id"`
	Messages       []Message              `json:"message_history"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

// Message is a single exchange in the conversation history
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Append adds a message to the history and touches the update time
func (c *Conversation) Append(role, content string) {
	now := time.Now().UTC()
	c.Messages = append(c.Messages, Message{
		Role:      role,
		Content:   content,
		Timestamp: now,
	})
	c.UpdatedAt = now
}

// CreateConversationRequest is the payload for starting a conversation
type CreateConversationRequest struct {
	TenantID string                 `json:"tenant_id" binding:"required"`
	UserID   string                 `json:"user_id" binding:"required"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// AppendMessageRequest is the payload for adding to the history
type AppendMessageRequest struct {
	Role    string `json:"role" binding:"required"`
	Content string `json:"content" binding:"required"`
}

// ErrorResponse is the standard error payload
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code"`
}

// HealthResponse reports service and cache health
type HealthResponse struct {
	Status    string    `json:"status"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
	Cache     string    `json:"cache"`
	Timestamp time.Time `json:"timestamp"`
}
