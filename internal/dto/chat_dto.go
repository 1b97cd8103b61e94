package dto

import (
	"time"

	"github.com/google/uuid"
)

type QueryRequest struct {
	ChatSessionId uuid.UUID `json:"chat_session_id"` // omit to start a new session
	Query         string    `json:"query" validate:"required"`
}

type ContextDocumentDTO struct {
	Title          string  `json:"title"`
	DocType        string  `json:"type"`
	RelevanceScore float64 `json:"relevanceScore"`
}

// QueryDebugDTO mirrors the orchestrator diagnostics for observability.
type QueryDebugDTO struct {
	DocumentsFound int `json:"documentsFound"`
	ContextLength  int `json:"contextLength"`
	PromptLength   int `json:"promptLength"`
}

type QueryResponse struct {
	ChatSessionId uuid.UUID            `json:"chat_session_id"`
	Answer        string               `json:"answer"`
	Context       []ContextDocumentDTO `json:"context"`
	Debug         QueryDebugDTO        `json:"debug"`
}

type GetChatHistoryResponse struct {
	Id        uuid.UUID `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type DeleteSessionRequest struct {
	ChatSessionId uuid.UUID `json:"chat_session_id"`
}
