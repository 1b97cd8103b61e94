package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateDocumentRequest struct {
	Title   string   `json:"title" validate:"required"`
	DocType string   `json:"doc_type" validate:"required,oneof=policy guideline audit"`
	Tags    []string `json:"tags"`
	Content string   `json:"-"` // filled from the uploaded file, not the form
}

type CreateDocumentResponse struct {
	Id uuid.UUID `json:"id"`
}

type ShowDocumentResponse struct {
	Id        uuid.UUID  `json:"id"`
	Title     string     `json:"title"`
	DocType   string     `json:"doc_type"`
	Tags      []string   `json:"tags"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

type DocumentContentResponse struct {
	Id      uuid.UUID `json:"id"`
	Content string    `json:"content"`
}

// PublishIndexDocumentMessage is the embedding job payload handed to the
// indexing consumer.
type PublishIndexDocumentMessage struct {
	DocumentId uuid.UUID `json:"document_id"`
}
