package vectorsearch

import (
	"context"
	"errors"
	"log"
	"time"

	"compliance-qa-be/internal/entity"
	"compliance-qa-be/internal/repository/contract"
	"compliance-qa-be/pkg/embedding"

	"github.com/google/uuid"
)

// Hit is one similarity match, at most one per document.
type Hit struct {
	DocumentID uuid.UUID
	Score      float64
	Chunk      string
}

// Client wraps the vector index binding behind a capability check. When the
// binding is missing or any call misbehaves, searches report unavailable
// instead of raising, so callers can branch to the lexical fallback.
type Client struct {
	provider embedding.EmbeddingProvider // may be nil
	repo     contract.DocumentEmbeddingRepository
	logger   *log.Logger
}

func NewClient(provider embedding.EmbeddingProvider, repo contract.DocumentEmbeddingRepository, logger *log.Logger) *Client {
	return &Client{
		provider: provider,
		repo:     repo,
		logger:   logger,
	}
}

// IsAvailable reports whether the index binding exposes a callable query path.
func (c *Client) IsAvailable() bool {
	return c != nil && c.provider != nil && c.repo != nil
}

// Search embeds the query and runs nearest-neighbor lookup. The boolean is
// false when the index is unavailable; errors never propagate past here.
func (c *Client) Search(ctx context.Context, query string, topK int) ([]Hit, bool) {
	if !c.IsAvailable() {
		return nil, false
	}

	embeddingRes, err := c.provider.Generate(query, "RETRIEVAL_QUERY")
	if err != nil {
		c.logger.Printf("[WARN] Query embedding failed, treating index as unavailable: %v", err)
		return nil, false
	}

	scored, err := c.repo.SearchSimilarWithScore(ctx, embeddingRes.Embedding.Values, topK, 0.0)
	if err != nil {
		c.logger.Printf("[WARN] Vector search failed, treating index as unavailable: %v", err)
		return nil, false
	}

	// One hit per document; chunk rows of the same document collapse onto
	// their best-scoring chunk.
	hits := make([]Hit, 0, len(scored))
	seen := make(map[uuid.UUID]bool)
	for _, res := range scored {
		docId := res.Embedding.DocumentId
		if seen[docId] {
			continue
		}
		seen[docId] = true
		hits = append(hits, Hit{
			DocumentID: docId,
			Score:      res.Similarity,
			Chunk:      res.Embedding.Chunk,
		})
	}

	c.logger.Printf("[DEBUG] Vector search: %d raw rows, %d distinct documents", len(scored), len(hits))
	return hits, true
}

// ErrUnavailable is returned from the write path when the index binding is
// missing. The read path never returns it; Search degrades instead.
var ErrUnavailable = errors.New("vector index unavailable")

// Insert embeds content chunks and writes them to the index, replacing any
// previous rows for the document. Used by the indexing consumer, not the
// query path.
func (c *Client) Insert(ctx context.Context, documentId uuid.UUID, chunks []string) error {
	if !c.IsAvailable() {
		return ErrUnavailable
	}

	if err := c.repo.DeleteByDocumentId(ctx, documentId); err != nil {
		return err
	}

	embeddings := make([]*entity.DocumentEmbedding, 0, len(chunks))
	for i, chunk := range chunks {
		res, err := c.provider.Generate(chunk, "RETRIEVAL_DOCUMENT")
		if err != nil {
			return err
		}
		embeddings = append(embeddings, &entity.DocumentEmbedding{
			Id:         uuid.New(),
			Chunk:      chunk,
			Embedding:  res.Embedding.Values,
			DocumentId: documentId,
			ChunkIndex: i,
			CreatedAt:  time.Now(),
		})
	}

	return c.repo.CreateBulk(ctx, embeddings)
}
