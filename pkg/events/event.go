package events

import "time"

// Event is the contract for everything published on the event bus.
type Event interface {
	// EventType returns the unique code for this event (e.g. "DOCUMENT_CREATED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

const (
	TypeDocumentCreated = "DOCUMENT_CREATED"
	TypeDocumentIndexed = "DOCUMENT_INDEXED"
	TypeDocumentDeleted = "DOCUMENT_DELETED"
)

// BaseEvent is the common implementation; the constructors below are the
// supported way to build one.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

func NewDocumentCreated(documentId, title, docType string) Event {
	return BaseEvent{
		Type: TypeDocumentCreated,
		Data: map[string]interface{}{
			"document_id": documentId,
			"title":       title,
			"doc_type":    docType,
		},
		OccurredAt: time.Now(),
	}
}

func NewDocumentIndexed(documentId string, chunks int) Event {
	return BaseEvent{
		Type: TypeDocumentIndexed,
		Data: map[string]interface{}{
			"document_id": documentId,
			"chunks":      chunks,
		},
		OccurredAt: time.Now(),
	}
}

func NewDocumentDeleted(documentId string) Event {
	return BaseEvent{
		Type: TypeDocumentDeleted,
		Data: map[string]interface{}{
			"document_id": documentId,
		},
		OccurredAt: time.Now(),
	}
}
