package history

import (
	"context"

	"compliance-qa-be/internal/entity"
	"compliance-qa-be/internal/repository/contract"
	"compliance-qa-be/internal/repository/specification"

	"github.com/google/uuid"
)

// Loader reads recent conversation history for prompt building.
type Loader struct {
	messages contract.ChatMessageRepository
}

func NewLoader(messages contract.ChatMessageRepository) *Loader {
	return &Loader{messages: messages}
}

// Recent returns the newest `limit` messages of a session in chronological
// order. Query descending then reverse, so the limit cuts from the old end.
func (l *Loader) Recent(ctx context.Context, sessionId uuid.UUID, limit int) ([]*entity.ChatMessage, error) {
	messages, err := l.messages.FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: sessionId},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit, Offset: 0},
	)
	if err != nil {
		return nil, err
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}
