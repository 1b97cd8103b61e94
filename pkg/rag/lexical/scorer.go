package lexical

import (
	"context"
	"log"
	"sort"
	"strings"
	"sync"

	"compliance-qa-be/internal/repository/contract"
	"compliance-qa-be/pkg/contentstore"
	"compliance-qa-be/pkg/store"

	"github.com/google/uuid"
)

// DefaultTopK is smaller than the similarity top-k: lexical matches carry no
// semantic filtering, so each one gets more context budget instead.
const DefaultTopK = 2

// fetchConcurrency bounds the parallel content reads during scoring. The
// store is file or Redis backed, so a handful of in-flight reads is plenty.
const fetchConcurrency = 4

// Scorer ranks stored documents by term-frequency overlap with a query. It is
// the fallback path when the similarity index is unavailable or returns
// nothing usable.
type Scorer struct {
	documents contract.DocumentRepository
	contents  *contentstore.Repository
	logger    *log.Logger
	topK      int
}

func NewScorer(documents contract.DocumentRepository, contents *contentstore.Repository, logger *log.Logger, topK int) *Scorer {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Scorer{
		documents: documents,
		contents:  contents,
		logger:    logger,
		topK:      topK,
	}
}

type scored struct {
	documentId string
	title      string
	docType    string
	content    string
	score      int
	order      int
}

// Score lists every stored document, counts case-insensitive occurrences of
// each query term in its full content, discards zero scores, and returns the
// top candidates. Ties keep listing order. Documents whose content cannot be
// fetched are skipped, not fatal. Content reads run concurrently; scoring
// happens after all reads land, in listing order, so ranking stays
// deterministic.
func (s *Scorer) Score(ctx context.Context, query string) ([]store.Candidate, error) {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return nil, nil
	}

	docs, err := s.documents.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	type fetched struct {
		content string
		ok      bool
	}
	results := make([]fetched, len(docs))
	sem := make(chan struct{}, fetchConcurrency)
	var wg sync.WaitGroup
	for i, doc := range docs {
		wg.Add(1)
		go func(i int, id uuid.UUID) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			content, found, err := s.contents.Get(ctx, id.String())
			if err != nil {
				s.logger.Printf("lexical: content fetch failed for %s: %v", id, err)
				return
			}
			if !found {
				return
			}
			results[i] = fetched{content: content, ok: true}
		}(i, doc.Id)
	}
	wg.Wait()

	var hits []scored
	for i, doc := range docs {
		if !results[i].ok {
			continue
		}
		content := results[i].content

		lower := strings.ToLower(content)
		score := 0
		for _, term := range terms {
			score += strings.Count(lower, term)
		}
		if score == 0 {
			continue
		}

		hits = append(hits, scored{
			documentId: doc.Id.String(),
			title:      doc.Title,
			docType:    doc.DocType,
			content:    content,
			score:      score,
			order:      i,
		})
	}

	sort.SliceStable(hits, func(a, b int) bool {
		return hits[a].score > hits[b].score
	})

	if len(hits) > s.topK {
		hits = hits[:s.topK]
	}

	candidates := make([]store.Candidate, 0, len(hits))
	for _, h := range hits {
		candidates = append(candidates, store.Candidate{
			DocumentID: h.documentId,
			Title:      h.title,
			DocType:    h.docType,
			Content:    h.content,
			Score:      float64(h.score),
			Source:     store.SourceLexical,
		})
	}

	s.logger.Printf("lexical: %d/%d documents matched query", len(candidates), len(docs))
	return candidates, nil
}
