package answer

import (
	"context"
	"fmt"
	"log"
	"time"

	"compliance-qa-be/internal/config"
	"compliance-qa-be/internal/constant"
	"compliance-qa-be/internal/entity"
	"compliance-qa-be/internal/repository/contract"
	"compliance-qa-be/internal/repository/memory"
	"compliance-qa-be/internal/repository/specification"
	"compliance-qa-be/internal/repository/unitofwork"
	"compliance-qa-be/pkg/llm"
	"compliance-qa-be/pkg/rag/contextbuild"
	"compliance-qa-be/pkg/rag/history"
	"compliance-qa-be/pkg/rag/lexical"
	"compliance-qa-be/pkg/rag/session"
	"compliance-qa-be/pkg/store"
	"compliance-qa-be/pkg/vectorsearch"

	"github.com/google/uuid"
)

// Debug carries per-answer diagnostics surfaced to the caller.
type Debug struct {
	DocumentsFound int `json:"documentsFound"`
	ContextLength  int `json:"contextLength"`
	PromptLength   int `json:"promptLength"`
}

// Result is one completed answer turn.
type Result struct {
	Answer    string
	Citations []contextbuild.Citation
	Debug     Debug
}

// Orchestrator runs a full answer turn: retrieve candidates, assemble the
// document context, generate, persist the exchange, respond. The similarity
// index is optional; when it is unavailable or yields nothing the lexical
// scorer takes over as part of the normal path.
type Orchestrator struct {
	search    *vectorsearch.Client
	fallback  *lexical.Scorer
	assembler *contextbuild.Assembler
	loader    *history.Loader
	locks     *session.Locks
	runtime   *memory.SessionRepository
	documents contract.DocumentRepository
	factory   unitofwork.RepositoryFactory
	provider  llm.LLMProvider
	ai        config.AIConfig
	retrieval config.RetrievalConfig
	logger    *log.Logger
}

func NewOrchestrator(
	search *vectorsearch.Client,
	fallback *lexical.Scorer,
	assembler *contextbuild.Assembler,
	loader *history.Loader,
	runtime *memory.SessionRepository,
	documents contract.DocumentRepository,
	factory unitofwork.RepositoryFactory,
	provider llm.LLMProvider,
	ai config.AIConfig,
	retrieval config.RetrievalConfig,
	logger *log.Logger,
) *Orchestrator {
	return &Orchestrator{
		search:    search,
		fallback:  fallback,
		assembler: assembler,
		loader:    loader,
		locks:     session.NewLocks(),
		runtime:   runtime,
		documents: documents,
		factory:   factory,
		provider:  provider,
		ai:        ai,
		retrieval: retrieval,
		logger:    logger,
	}
}

// Answer processes one query against a session. Turns on the same session are
// serialized; the session's message log is only mutated after the generation
// call succeeds, so a failed turn leaves no trace in history.
func (o *Orchestrator) Answer(ctx context.Context, sessionId uuid.UUID, query string) (*Result, error) {
	release := o.locks.Acquire(sessionId.String())
	defer release()

	candidates, err := o.retrieve(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}

	assembled, err := o.assembler.Assemble(ctx, query, candidates)
	if err != nil {
		return nil, fmt.Errorf("assemble context: %w", err)
	}

	// Similarity hits can still die during assembly, when their content is
	// gone from the store or deduplicates away. The lexical scorer gets a
	// turn before the no-documents instruction does.
	if assembled.DocumentsFound == 0 && fromSimilarity(candidates) {
		o.logger.Printf("answer: similarity candidates produced no context, using lexical fallback")
		candidates, err = o.fallback.Score(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("retrieve: %w", err)
		}
		assembled, err = o.assembler.Assemble(ctx, query, candidates)
		if err != nil {
			return nil, fmt.Errorf("assemble context: %w", err)
		}
	}

	// Follow-up questions often share no terms with the documents they are
	// about. When this turn grounds nothing, reuse the candidates that
	// grounded the previous turn of the same session.
	if assembled.DocumentsFound == 0 {
		if snapshot, ok := o.runtime.Get(sessionId.String()); ok && len(snapshot.LastCandidates) > 0 {
			o.logger.Printf("answer: session=%s reusing previous turn candidates", sessionId)
			candidates = snapshot.LastCandidates
			assembled, err = o.assembler.Assemble(ctx, query, candidates)
			if err != nil {
				return nil, fmt.Errorf("assemble context: %w", err)
			}
		}
	}

	messages, err := o.buildMessages(ctx, sessionId, query, assembled)
	if err != nil {
		return nil, fmt.Errorf("build prompt: %w", err)
	}

	promptLength := 0
	for _, m := range messages {
		promptLength += len(m.Content)
	}

	answerText, err := o.provider.Chat(ctx, messages,
		llm.WithTemperature(o.ai.Temperature),
		llm.WithMaxTokens(o.ai.MaxTokens),
	)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}

	if err := o.persistTurn(ctx, sessionId, query, answerText); err != nil {
		return nil, fmt.Errorf("persist history: %w", err)
	}

	o.runtime.Save(&store.Session{
		ID:             sessionId.String(),
		LastQuery:      query,
		LastCandidates: candidates,
	})

	o.logger.Printf("answer: session=%s docs=%d context=%d prompt=%d",
		sessionId, assembled.DocumentsFound, len(assembled.Block), promptLength)

	return &Result{
		Answer:    answerText,
		Citations: assembled.Citations,
		Debug: Debug{
			DocumentsFound: assembled.DocumentsFound,
			ContextLength:  len(assembled.Block),
			PromptLength:   promptLength,
		},
	}, nil
}

func fromSimilarity(candidates []store.Candidate) bool {
	return len(candidates) > 0 && candidates[0].Source == store.SourceSimilarity
}

// retrieve prefers the similarity index and falls through to lexical scoring
// when the index is unavailable or produced no usable candidates.
func (o *Orchestrator) retrieve(ctx context.Context, query string) ([]store.Candidate, error) {
	hits, available := o.search.Search(ctx, query, o.retrieval.SimilarityTopK)
	if available && len(hits) > 0 {
		candidates, err := o.hydrateHits(ctx, hits)
		if err != nil {
			return nil, err
		}
		if len(candidates) > 0 {
			return candidates, nil
		}
	}

	if !available {
		o.logger.Printf("answer: similarity index unavailable, using lexical fallback")
	} else {
		o.logger.Printf("answer: similarity search empty, using lexical fallback")
	}
	return o.fallback.Score(ctx, query)
}

// hydrateHits resolves index hits to document metadata. Hits whose document
// row is gone are dropped.
func (o *Orchestrator) hydrateHits(ctx context.Context, hits []vectorsearch.Hit) ([]store.Candidate, error) {
	ids := make([]uuid.UUID, 0, len(hits))
	for _, h := range hits {
		ids = append(ids, h.DocumentID)
	}

	docs, err := o.documents.FindAll(ctx, specification.ByIDs{IDs: ids})
	if err != nil {
		return nil, err
	}
	byId := make(map[uuid.UUID]*entity.Document, len(docs))
	for _, d := range docs {
		byId[d.Id] = d
	}

	candidates := make([]store.Candidate, 0, len(hits))
	for _, h := range hits {
		doc, ok := byId[h.DocumentID]
		if !ok {
			continue
		}
		candidates = append(candidates, store.Candidate{
			DocumentID: h.DocumentID.String(),
			Title:      doc.Title,
			DocType:    doc.DocType,
			Score:      h.Score,
			Source:     store.SourceSimilarity,
		})
	}
	return candidates, nil
}

// buildMessages assembles the fixed prompt shape: one system message, the
// recent history tail, then the user query. When no documents survived
// retrieval the system message switches to the refusal instruction.
func (o *Orchestrator) buildMessages(ctx context.Context, sessionId uuid.UUID, query string, assembled *contextbuild.Context) ([]llm.Message, error) {
	var system string
	if assembled.DocumentsFound == 0 {
		system = constant.NoDocumentsSystemPromptV1
	} else {
		system = fmt.Sprintf(constant.GroundedSystemPromptV1, assembled.Block)
	}

	messages := []llm.Message{{Role: constant.ChatMessageRoleSystem, Content: system}}

	recent, err := o.loader.Recent(ctx, sessionId, o.retrieval.PromptHistory)
	if err != nil {
		return nil, err
	}
	for _, m := range recent {
		messages = append(messages, llm.Message{Role: m.Role, Content: m.Content})
	}

	messages = append(messages, llm.Message{Role: constant.ChatMessageRoleUser, Content: query})
	return messages, nil
}

// persistTurn appends the user and assistant messages in one transaction and
// trims the session to its retention cap.
func (o *Orchestrator) persistTurn(ctx context.Context, sessionId uuid.UUID, query, answerText string) error {
	uow := o.factory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	now := time.Now()
	pair := []*entity.ChatMessage{
		{
			Id:            uuid.New(),
			Content:       query,
			Role:          constant.ChatMessageRoleUser,
			ChatSessionId: sessionId,
			CreatedAt:     now,
		},
		{
			Id:            uuid.New(),
			Content:       answerText,
			Role:          constant.ChatMessageRoleAssistant,
			ChatSessionId: sessionId,
			CreatedAt:     now.Add(time.Millisecond),
		},
	}

	if err := uow.ChatMessageRepository().CreateBulk(ctx, pair); err != nil {
		return err
	}
	if err := uow.ChatMessageRepository().TrimToRecent(ctx, sessionId, o.retrieval.HistoryCap); err != nil {
		return err
	}

	return uow.Commit()
}
