package contextbuild

import (
	"context"
	"fmt"
	"log"
	"strings"

	"compliance-qa-be/pkg/contentstore"
	"compliance-qa-be/pkg/rag/extract"
	"compliance-qa-be/pkg/store"
)

// Citation points the caller at a source document. Scores are raw backend
// scores and are not comparable across the similarity and lexical paths.
type Citation struct {
	Title          string  `json:"title"`
	DocType        string  `json:"type"`
	RelevanceScore float64 `json:"relevanceScore"`
}

// Context is the rendered document block plus its citation list, ready to be
// placed into a generation prompt.
type Context struct {
	Block          string
	Citations      []Citation
	DocumentsFound int
}

// Assembler turns ranked candidates into a single bounded prompt block. It
// drops candidates whose content cannot be fetched and deduplicates by a
// fixed-length content prefix, keeping the first occurrence in rank order.
type Assembler struct {
	contents       *contentstore.Repository
	extractor      *extract.Extractor
	dedupPrefixLen int
	logger         *log.Logger
}

func NewAssembler(contents *contentstore.Repository, extractor *extract.Extractor, dedupPrefixLen int, logger *log.Logger) *Assembler {
	return &Assembler{
		contents:       contents,
		extractor:      extractor,
		dedupPrefixLen: dedupPrefixLen,
		logger:         logger,
	}
}

// Assemble hydrates, deduplicates, extracts, and renders candidates in rank
// order. A missing content entry drops that candidate only, never the whole
// request.
func (a *Assembler) Assemble(ctx context.Context, query string, candidates []store.Candidate) (*Context, error) {
	var (
		blocks    []string
		citations []Citation
	)
	seen := make(map[string]bool)

	for _, cand := range candidates {
		content := cand.Content
		if content == "" {
			fetched, found, err := a.contents.Get(ctx, cand.DocumentID)
			if err != nil || !found {
				a.logger.Printf("context: dropping candidate %s, content unavailable", cand.DocumentID)
				continue
			}
			content = fetched
		}

		prefix := content
		if len(prefix) > a.dedupPrefixLen {
			prefix = prefix[:a.dedupPrefixLen]
		}
		if seen[prefix] {
			a.logger.Printf("context: dropping candidate %s, duplicate content prefix", cand.DocumentID)
			continue
		}
		seen[prefix] = true

		excerpt := a.extractor.Extract(content, query)
		blocks = append(blocks, fmt.Sprintf("--- DOCUMENT: %s (%s) ---\n%s", cand.Title, cand.DocType, excerpt))
		citations = append(citations, Citation{
			Title:          cand.Title,
			DocType:        cand.DocType,
			RelevanceScore: cand.Score,
		})
	}

	return &Context{
		Block:          strings.Join(blocks, "\n\n"),
		Citations:      citations,
		DocumentsFound: len(citations),
	}, nil
}
