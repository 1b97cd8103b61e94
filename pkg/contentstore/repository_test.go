package contentstore

import (
	"context"
	"errors"
	"testing"
)

type mapBackend struct {
	data map[string]string
	err  error
}

func (m *mapBackend) Get(ctx context.Context, id string) (string, bool, error) {
	if m.err != nil {
		return "", false, m.err
	}
	text, ok := m.data[id]
	return text, ok, nil
}
func (m *mapBackend) Put(ctx context.Context, id, text string) error {
	if m.err != nil {
		return m.err
	}
	m.data[id] = text
	return nil
}
func (m *mapBackend) Delete(ctx context.Context, id string) error {
	if m.err != nil {
		return m.err
	}
	delete(m.data, id)
	return nil
}

func TestRepositoryRoundTrip(t *testing.T) {
	repo := NewRepository(&mapBackend{data: map[string]string{}}, nil)
	ctx := context.Background()

	content := "Section 1: all access must be logged.\nSection 2: logs are retained."
	if err := repo.Put(ctx, "d1", content); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}

	got, found, err := repo.Get(ctx, "d1")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if !found {
		t.Fatal("expected content to be found")
	}
	if got != content {
		t.Errorf("round trip changed content")
	}
}

func TestRepositoryFallbackRead(t *testing.T) {
	primary := &mapBackend{data: map[string]string{}}
	fallback := &mapBackend{data: map[string]string{"d1": "from fallback"}}
	repo := NewRepository(primary, fallback)

	got, found, err := repo.Get(context.Background(), "d1")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if !found || got != "from fallback" {
		t.Errorf("fallback read failed: found=%v got=%q", found, got)
	}
}

func TestRepositoryBrokenFallbackIsCleanMiss(t *testing.T) {
	primary := &mapBackend{data: map[string]string{}}
	fallback := &mapBackend{err: errors.New("connection refused")}
	repo := NewRepository(primary, fallback)

	got, found, err := repo.Get(context.Background(), "d1")
	if err != nil {
		t.Errorf("broken fallback must not surface an error, got %v", err)
	}
	if found || got != "" {
		t.Errorf("broken fallback must read as a miss")
	}
}

func TestRepositoryMissWithoutFallback(t *testing.T) {
	repo := NewRepository(&mapBackend{data: map[string]string{}}, nil)

	_, found, err := repo.Get(context.Background(), "absent")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if found {
		t.Error("expected a miss")
	}
}

func TestRepositoryDeleteRemovesBothBackends(t *testing.T) {
	primary := &mapBackend{data: map[string]string{"d1": "x"}}
	fallback := &mapBackend{data: map[string]string{"d1": "stale copy"}}
	repo := NewRepository(primary, fallback)
	ctx := context.Background()

	if err := repo.Delete(ctx, "d1"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, ok := primary.data["d1"]; ok {
		t.Error("primary still holds the id")
	}
	if _, ok := fallback.data["d1"]; ok {
		t.Error("fallback still holds the id, stale copy would resurface")
	}

	// Idempotent: deleting an absent id is not an error.
	if err := repo.Delete(ctx, "d1"); err != nil {
		t.Errorf("second Delete returned error: %v", err)
	}
}

func TestRepositoryPrimaryErrorPropagates(t *testing.T) {
	repo := NewRepository(&mapBackend{err: errors.New("disk full")}, nil)

	if _, _, err := repo.Get(context.Background(), "d1"); err == nil {
		t.Error("expected primary read error to propagate")
	}
	if err := repo.Put(context.Background(), "d1", "body"); err == nil {
		t.Error("expected primary write error to propagate")
	}
}
