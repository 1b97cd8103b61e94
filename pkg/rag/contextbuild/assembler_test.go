package contextbuild

import (
	"context"
	"io"
	"log"
	"strings"
	"testing"

	"compliance-qa-be/pkg/contentstore"
	"compliance-qa-be/pkg/rag/extract"
	"compliance-qa-be/pkg/store"
)

type mapBackend struct {
	data map[string]string
}

func (m *mapBackend) Get(ctx context.Context, id string) (string, bool, error) {
	text, ok := m.data[id]
	return text, ok, nil
}
func (m *mapBackend) Put(ctx context.Context, id, text string) error {
	m.data[id] = text
	return nil
}
func (m *mapBackend) Delete(ctx context.Context, id string) error {
	delete(m.data, id)
	return nil
}

func newAssembler(data map[string]string) *Assembler {
	contents := contentstore.NewRepository(&mapBackend{data: data}, nil)
	extractor := extract.NewExtractor(8000, 6000, 10)
	return NewAssembler(contents, extractor, 200, log.New(io.Discard, "", 0))
}

func candidate(id, title string, score float64) store.Candidate {
	return store.Candidate{
		DocumentID: id,
		Title:      title,
		DocType:    "policy",
		Score:      score,
		Source:     store.SourceSimilarity,
	}
}

func TestAssembleRendersInRankOrder(t *testing.T) {
	a := newAssembler(map[string]string{
		"d1": "first document body",
		"d2": "second document body",
	})

	got, err := a.Assemble(context.Background(), "query", []store.Candidate{
		candidate("d2", "Second", 0.9),
		candidate("d1", "First", 0.4),
	})
	if err != nil {
		t.Fatalf("Assemble returned error: %v", err)
	}

	if got.DocumentsFound != 2 {
		t.Fatalf("DocumentsFound = %d, want 2", got.DocumentsFound)
	}
	if strings.Index(got.Block, "Second") > strings.Index(got.Block, "First") {
		t.Errorf("rendered block lost rank order")
	}
	if got.Citations[0].Title != "Second" || got.Citations[1].Title != "First" {
		t.Errorf("citations out of rank order: %+v", got.Citations)
	}
	if got.Citations[0].RelevanceScore != 0.9 {
		t.Errorf("citation carries score %v, want raw 0.9", got.Citations[0].RelevanceScore)
	}
	if !strings.Contains(got.Block, "--- DOCUMENT: Second (policy) ---") {
		t.Errorf("delimiter missing title and type: %q", got.Block)
	}
}

func TestAssembleDropsMissingContent(t *testing.T) {
	a := newAssembler(map[string]string{
		"d1": "only existing body",
	})

	got, err := a.Assemble(context.Background(), "query", []store.Candidate{
		candidate("gone", "Ghost", 0.8),
		candidate("d1", "Real", 0.5),
	})
	if err != nil {
		t.Fatalf("Assemble returned error: %v", err)
	}

	if got.DocumentsFound != 1 {
		t.Fatalf("DocumentsFound = %d, want 1", got.DocumentsFound)
	}
	if got.Citations[0].Title != "Real" {
		t.Errorf("surviving citation = %q, want Real", got.Citations[0].Title)
	}
}

func TestAssembleDeduplicatesByPrefix(t *testing.T) {
	shared := strings.Repeat("identical start ", 20) // > 200 chars
	a := newAssembler(map[string]string{
		"d1": shared + "tail one",
		"d2": shared + "tail two",
		"d3": "a different document entirely",
	})

	got, err := a.Assemble(context.Background(), "query", []store.Candidate{
		candidate("d1", "Original", 0.9),
		candidate("d2", "Mirror", 0.8),
		candidate("d3", "Other", 0.7),
	})
	if err != nil {
		t.Fatalf("Assemble returned error: %v", err)
	}

	if got.DocumentsFound != 2 {
		t.Fatalf("DocumentsFound = %d, want 2", got.DocumentsFound)
	}
	for _, c := range got.Citations {
		if c.Title == "Mirror" {
			t.Errorf("duplicate-prefix candidate survived")
		}
	}
	// First occurrence wins.
	if got.Citations[0].Title != "Original" {
		t.Errorf("first occurrence lost: %+v", got.Citations)
	}
}

func TestAssembleShortDistinctDocsBothSurvive(t *testing.T) {
	// Shorter than the prefix length but different content.
	a := newAssembler(map[string]string{
		"d1": "short one",
		"d2": "short two",
	})

	got, err := a.Assemble(context.Background(), "query", []store.Candidate{
		candidate("d1", "One", 0.9),
		candidate("d2", "Two", 0.8),
	})
	if err != nil {
		t.Fatalf("Assemble returned error: %v", err)
	}
	if got.DocumentsFound != 2 {
		t.Errorf("DocumentsFound = %d, want 2", got.DocumentsFound)
	}
}

func TestAssembleUsesPreloadedContent(t *testing.T) {
	// Candidates from the lexical path already carry content; no store hit.
	a := newAssembler(map[string]string{})

	cand := candidate("d1", "Preloaded", 3)
	cand.Content = "content carried on the candidate"

	got, err := a.Assemble(context.Background(), "query", []store.Candidate{cand})
	if err != nil {
		t.Fatalf("Assemble returned error: %v", err)
	}
	if got.DocumentsFound != 1 {
		t.Fatalf("DocumentsFound = %d, want 1", got.DocumentsFound)
	}
	if !strings.Contains(got.Block, "content carried on the candidate") {
		t.Errorf("preloaded content missing from block")
	}
}

func TestAssembleEmptyInput(t *testing.T) {
	a := newAssembler(map[string]string{})

	got, err := a.Assemble(context.Background(), "query", nil)
	if err != nil {
		t.Fatalf("Assemble returned error: %v", err)
	}
	if got.DocumentsFound != 0 || got.Block != "" || len(got.Citations) != 0 {
		t.Errorf("empty input should produce empty context, got %+v", got)
	}
}
