package models

import (
	"time"

	"github.com/google/uuid"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

type AIModel struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Provider        string    `json:"provider"`
	ModelIdentifier string    `json:"model_identifier"`
	MaxTokens       int       `json:"max_tokens"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
}

type Conversation struct {
	ID            uuid.UUID   `json:"id"`
	UserID        uuid.UUID   `json:"user_id"`
	Title         string      `json:"title"`
	AIModelID     *uuid.UUID  `json:"ai_model_id"`
	DocumentIDs   []uuid.UUID `json:"document_ids"`
	TotalMessages int         `json:"total_messages"`
	TotalTokens   int         `json:"total_tokens"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

type Message struct {
	ID             uuid.UUID `json:"id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	TokensUsed     int       `json:"tokens_used"`
	IsEdited       bool      `json:"is_edited"`
	CreatedAt      time.Time `json:"created_at"`
}

type CreateConversationRequest struct {
	Title       string      `json:"title"`
	DocumentIDs []uuid.UUID `json:"document_ids"`
}

type SendMessageRequest struct {
	Content string `json:"content"`
}

// MessageExchange is the response to a sent message: the persisted user
// message, the assistant reply, and the updated conversation counters.
type MessageExchange struct {
	Messages     []*Message    `json:"messages"`
	Conversation *Conversation `json:"conversation"`
}

// ChatDocument is the slim document view offered for conversation linking.
type ChatDocument struct {
	ID            uuid.UUID `json:"id"`
	Title         string    `json:"title"`
	FileType      string    `json:"file_type"`
	FileSize      int64     `json:"file_size"`
	WordCount     int       `json:"word_count"`
	PageCount     int       `json:"page_count"`
	Status        string    `json:"status"`
	HasContent    bool      `json:"has_content"`
	ContentLength int       `json:"content_length"`
	CreatedAt     time.Time `json:"created_at"`
}
