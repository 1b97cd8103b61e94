package contentstore

import (
	"context"
	"fmt"
)

// Repository hides which backend holds a document's text. Writes go to the
// primary blob backend; reads fall back to the key/value backend when the
// primary misses. Callers never learn which backend served an id.
type Repository struct {
	primary  Backend
	fallback Backend // may be nil
}

func NewRepository(primary Backend, fallback Backend) *Repository {
	return &Repository{
		primary:  primary,
		fallback: fallback,
	}
}

func (r *Repository) Get(ctx context.Context, id string) (string, bool, error) {
	text, found, err := r.primary.Get(ctx, id)
	if err != nil {
		return "", false, fmt.Errorf("content get %s: %w", id, err)
	}
	if found {
		return text, true, nil
	}

	if r.fallback == nil {
		return "", false, nil
	}

	text, found, err = r.fallback.Get(ctx, id)
	if err != nil {
		// A broken fallback must not turn a clean miss into a failure.
		return "", false, nil
	}
	return text, found, nil
}

func (r *Repository) Put(ctx context.Context, id string, text string) error {
	if err := r.primary.Put(ctx, id, text); err != nil {
		return fmt.Errorf("content put %s: %w", id, err)
	}
	return nil
}

// Delete removes the id from every backend so a stale fallback copy cannot
// resurface after a re-upload.
func (r *Repository) Delete(ctx context.Context, id string) error {
	if err := r.primary.Delete(ctx, id); err != nil {
		return fmt.Errorf("content delete %s: %w", id, err)
	}
	if r.fallback != nil {
		if err := r.fallback.Delete(ctx, id); err != nil {
			return fmt.Errorf("content delete %s: %w", id, err)
		}
	}
	return nil
}
