package contentstore

import "context"

// Backend stores full document text keyed by document id.
type Backend interface {
	// Get returns the stored text and whether the id was present.
	Get(ctx context.Context, id string) (string, bool, error)
	Put(ctx context.Context, id string, text string) error
	// Delete is idempotent; deleting an absent id is not an error.
	Delete(ctx context.Context, id string) error
}
