package answer

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"

	"compliance-qa-be/internal/config"
	"compliance-qa-be/internal/constant"
	"compliance-qa-be/internal/entity"
	"compliance-qa-be/internal/repository/contract"
	"compliance-qa-be/internal/repository/memory"
	"compliance-qa-be/internal/repository/specification"
	"compliance-qa-be/internal/repository/unitofwork"
	"compliance-qa-be/pkg/contentstore"
	"compliance-qa-be/pkg/embedding"
	"compliance-qa-be/pkg/llm"
	"compliance-qa-be/pkg/rag/contextbuild"
	"compliance-qa-be/pkg/rag/extract"
	"compliance-qa-be/pkg/rag/history"
	"compliance-qa-be/pkg/rag/lexical"
	"compliance-qa-be/pkg/vectorsearch"

	"github.com/google/uuid"
)

// --- fakes ---

type fakeDocumentRepo struct {
	docs []*entity.Document
}

func (f *fakeDocumentRepo) Create(ctx context.Context, doc *entity.Document) error { return nil }
func (f *fakeDocumentRepo) Update(ctx context.Context, doc *entity.Document) error { return nil }
func (f *fakeDocumentRepo) Delete(ctx context.Context, id uuid.UUID) error         { return nil }
func (f *fakeDocumentRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Document, error) {
	return nil, nil
}
func (f *fakeDocumentRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Document, error) {
	return f.docs, nil
}
func (f *fakeDocumentRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return int64(len(f.docs)), nil
}

type fakeMessageRepo struct {
	stored      []*entity.ChatMessage // newest first, what FindAll returns
	created     []*entity.ChatMessage
	trimmedTo   int
	trimSession uuid.UUID
}

func (f *fakeMessageRepo) Create(ctx context.Context, m *entity.ChatMessage) error {
	f.created = append(f.created, m)
	return nil
}
func (f *fakeMessageRepo) CreateBulk(ctx context.Context, ms []*entity.ChatMessage) error {
	f.created = append(f.created, ms...)
	return nil
}
func (f *fakeMessageRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatMessage, error) {
	return f.stored, nil
}
func (f *fakeMessageRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return int64(len(f.stored)), nil
}
func (f *fakeMessageRepo) DeleteByChatSessionId(ctx context.Context, sessionId uuid.UUID) error {
	return nil
}
func (f *fakeMessageRepo) TrimToRecent(ctx context.Context, sessionId uuid.UUID, keep int) error {
	f.trimSession = sessionId
	f.trimmedTo = keep
	return nil
}

type fakeUow struct {
	docs      contract.DocumentRepository
	messages  contract.ChatMessageRepository
	began     bool
	committed bool
}

func (f *fakeUow) Begin(ctx context.Context) error                 { f.began = true; return nil }
func (f *fakeUow) Commit() error                                   { f.committed = true; return nil }
func (f *fakeUow) Rollback() error                                 { return nil }
func (f *fakeUow) DocumentRepository() contract.DocumentRepository { return f.docs }
func (f *fakeUow) DocumentEmbeddingRepository() contract.DocumentEmbeddingRepository {
	return nil
}
func (f *fakeUow) ChatSessionRepository() contract.ChatSessionRepository { return nil }
func (f *fakeUow) ChatMessageRepository() contract.ChatMessageRepository { return f.messages }

type fakeFactory struct {
	uow *fakeUow
}

func (f *fakeFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork { return f.uow }

type fakeLLM struct {
	answer   string
	err      error
	captured []llm.Message
	opts     llm.Options
}

func (f *fakeLLM) Chat(ctx context.Context, messages []llm.Message, options ...llm.Option) (string, error) {
	f.captured = messages
	for _, opt := range options {
		opt(&f.opts)
	}
	return f.answer, f.err
}
func (f *fakeLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return f.answer, nil
}

type fakeEmbeddingProvider struct{}

func (f *fakeEmbeddingProvider) Generate(text string, taskType string) (*embedding.EmbeddingResponse, error) {
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingValues{Values: []float32{0.1, 0.2, 0.3}},
	}, nil
}

type fakeEmbeddingRepo struct {
	rows []*contract.ScoredDocumentEmbedding
}

func (f *fakeEmbeddingRepo) CreateBulk(ctx context.Context, embeddings []*entity.DocumentEmbedding) error {
	return nil
}
func (f *fakeEmbeddingRepo) DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error {
	return nil
}
func (f *fakeEmbeddingRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DocumentEmbedding, error) {
	return nil, nil
}
func (f *fakeEmbeddingRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return int64(len(f.rows)), nil
}
func (f *fakeEmbeddingRepo) SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, threshold float64) ([]*contract.ScoredDocumentEmbedding, error) {
	return f.rows, nil
}

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

// --- fixture ---

type fixture struct {
	orchestrator *Orchestrator
	llm          *fakeLLM
	messages     *fakeMessageRepo
	uow          *fakeUow
}

func newFixture(docs []*entity.Document, contents map[string]string) *fixture {
	return newIndexedFixture(docs, contents, nil)
}

// newIndexedFixture wires a live similarity index that answers every search
// with the given rows. A nil row set leaves the index unavailable, so queries
// take the lexical path.
func newIndexedFixture(docs []*entity.Document, contents map[string]string, rows []*contract.ScoredDocumentEmbedding) *fixture {
	logger := log.New(io.Discard, "", 0)
	docRepo := &fakeDocumentRepo{docs: docs}
	msgRepo := &fakeMessageRepo{}
	uow := &fakeUow{docs: docRepo, messages: msgRepo}
	factory := &fakeFactory{uow: uow}

	backend := &mapBackend{data: contents}
	contentRepo := contentstore.NewRepository(backend, nil)

	retrieval := config.RetrievalConfig{
		SimilarityTopK:  3,
		LexicalTopK:     2,
		DedupPrefixLen:  200,
		InlineThreshold: 8000,
		ExtractCap:      6000,
		ExtractWindow:   10,
		HistoryCap:      10,
		PromptHistory:   2,
	}
	ai := config.AIConfig{Temperature: 0.1, MaxTokens: 2048}

	search := vectorsearch.NewClient(nil, nil, logger)
	if rows != nil {
		search = vectorsearch.NewClient(&fakeEmbeddingProvider{}, &fakeEmbeddingRepo{rows: rows}, logger)
	}
	scorer := lexical.NewScorer(docRepo, contentRepo, logger, retrieval.LexicalTopK)
	extractor := extract.NewExtractor(retrieval.InlineThreshold, retrieval.ExtractCap, retrieval.ExtractWindow)
	assembler := contextbuild.NewAssembler(contentRepo, extractor, retrieval.DedupPrefixLen, logger)
	loader := history.NewLoader(msgRepo)

	provider := &fakeLLM{answer: "the stored answer"}

	return &fixture{
		orchestrator: NewOrchestrator(
			search, scorer, assembler, loader,
			memory.NewSessionRepository(),
			docRepo, factory, provider, ai, retrieval, logger,
		),
		llm:      provider,
		messages: msgRepo,
		uow:      uow,
	}
}

// --- tests ---

func TestAnswerEmptyStoreStillSucceeds(t *testing.T) {
	f := newFixture(nil, map[string]string{})
	sessionId := uuid.New()

	result, err := f.orchestrator.Answer(context.Background(), sessionId, "what is the incident policy?")
	if err != nil {
		t.Fatalf("Answer returned error: %v", err)
	}

	if result.Answer != "the stored answer" {
		t.Errorf("Answer = %q", result.Answer)
	}
	if len(result.Citations) != 0 {
		t.Errorf("expected empty citation list, got %d", len(result.Citations))
	}
	if result.Debug.DocumentsFound != 0 {
		t.Errorf("DocumentsFound = %d, want 0", result.Debug.DocumentsFound)
	}

	// The system instruction must state no documents are available, not try
	// to answer from model knowledge.
	if len(f.llm.captured) == 0 {
		t.Fatal("no messages reached the provider")
	}
	system := f.llm.captured[0]
	if system.Role != constant.ChatMessageRoleSystem {
		t.Errorf("first message role = %q, want system", system.Role)
	}
	if system.Content != constant.NoDocumentsSystemPromptV1 {
		t.Errorf("expected the no-documents system instruction")
	}
}

func TestAnswerLexicalFallbackGroundsPrompt(t *testing.T) {
	docId := uuid.New()
	f := newFixture(
		[]*entity.Document{{Id: docId, Title: "Data Privacy Policy", DocType: "policy"}},
		map[string]string{docId.String(): "Section 4.2: incidents must be reported within 24 hours."},
	)
	sessionId := uuid.New()

	result, err := f.orchestrator.Answer(context.Background(), sessionId, "incident reporting window")
	if err != nil {
		t.Fatalf("Answer returned error: %v", err)
	}

	if len(result.Citations) != 1 {
		t.Fatalf("expected one citation, got %d", len(result.Citations))
	}
	cit := result.Citations[0]
	if cit.Title != "Data Privacy Policy" || cit.DocType != "policy" {
		t.Errorf("citation = %+v", cit)
	}
	if cit.RelevanceScore <= 0 {
		t.Errorf("lexical score must be positive, got %v", cit.RelevanceScore)
	}

	system := f.llm.captured[0].Content
	if !strings.Contains(system, "--- DOCUMENT: Data Privacy Policy (policy) ---") {
		t.Errorf("document block missing from system prompt")
	}
	if !strings.Contains(system, "Section 4.2") {
		t.Errorf("document content missing from system prompt")
	}

	if result.Debug.DocumentsFound != 1 {
		t.Errorf("DocumentsFound = %d, want 1", result.Debug.DocumentsFound)
	}
	if result.Debug.ContextLength == 0 || result.Debug.PromptLength == 0 {
		t.Errorf("diagnostics not populated: %+v", result.Debug)
	}
}

func TestAnswerSimilarityHitsLostInAssemblyFallBackToLexical(t *testing.T) {
	staleId := uuid.New()
	liveId := uuid.New()

	// The index still knows a document whose content is gone from the store.
	rows := []*contract.ScoredDocumentEmbedding{{
		Embedding:  &entity.DocumentEmbedding{DocumentId: staleId, Chunk: "stale chunk"},
		Similarity: 0.92,
	}}
	f := newIndexedFixture(
		[]*entity.Document{
			{Id: staleId, Title: "Decommissioned Policy", DocType: "policy"},
			{Id: liveId, Title: "Records Retention Guideline", DocType: "guideline"},
		},
		map[string]string{liveId.String(): "Section 7.1: retention records are archived for five years."},
		rows,
	)

	result, err := f.orchestrator.Answer(context.Background(), uuid.New(), "retention records archive")
	if err != nil {
		t.Fatalf("Answer returned error: %v", err)
	}

	if result.Debug.DocumentsFound != 1 {
		t.Fatalf("DocumentsFound = %d, want 1 from lexical fallback", result.Debug.DocumentsFound)
	}
	if len(result.Citations) != 1 || result.Citations[0].Title != "Records Retention Guideline" {
		t.Errorf("citations = %+v, want the lexically matching document", result.Citations)
	}
	if system := f.llm.captured[0].Content; !strings.Contains(system, "Section 7.1") {
		t.Errorf("lexical document content missing from system prompt")
	}
}

func TestAnswerFollowUpReusesPreviousTurnCandidates(t *testing.T) {
	docId := uuid.New()
	f := newFixture(
		[]*entity.Document{{Id: docId, Title: "Data Privacy Policy", DocType: "policy"}},
		map[string]string{docId.String(): "Section 4.2: incidents must be reported within 24 hours."},
	)
	sessionId := uuid.New()

	if _, err := f.orchestrator.Answer(context.Background(), sessionId, "incident reporting window"); err != nil {
		t.Fatalf("first turn returned error: %v", err)
	}

	// No term of the follow-up appears in any stored document.
	result, err := f.orchestrator.Answer(context.Background(), sessionId, "then what happens afterwards?")
	if err != nil {
		t.Fatalf("follow-up returned error: %v", err)
	}
	if result.Debug.DocumentsFound != 1 {
		t.Fatalf("DocumentsFound = %d, want 1 reused from the previous turn", result.Debug.DocumentsFound)
	}
	if len(result.Citations) != 1 || result.Citations[0].Title != "Data Privacy Policy" {
		t.Errorf("citations = %+v, want the previous turn's document", result.Citations)
	}

	// A fresh session has no previous turn to fall back on.
	fresh, err := f.orchestrator.Answer(context.Background(), uuid.New(), "then what happens afterwards?")
	if err != nil {
		t.Fatalf("fresh session returned error: %v", err)
	}
	if fresh.Debug.DocumentsFound != 0 {
		t.Errorf("fresh session DocumentsFound = %d, want 0", fresh.Debug.DocumentsFound)
	}
}

func TestAnswerPersistsPairAndTrims(t *testing.T) {
	f := newFixture(nil, map[string]string{})
	sessionId := uuid.New()

	if _, err := f.orchestrator.Answer(context.Background(), sessionId, "hello"); err != nil {
		t.Fatalf("Answer returned error: %v", err)
	}

	if len(f.messages.created) != 2 {
		t.Fatalf("persisted %d messages, want 2", len(f.messages.created))
	}
	user, assistant := f.messages.created[0], f.messages.created[1]
	if user.Role != constant.ChatMessageRoleUser || user.Content != "hello" {
		t.Errorf("first persisted message = %+v", user)
	}
	if assistant.Role != constant.ChatMessageRoleAssistant || assistant.Content != "the stored answer" {
		t.Errorf("second persisted message = %+v", assistant)
	}
	if !user.CreatedAt.Before(assistant.CreatedAt) {
		t.Errorf("user message must order before assistant message")
	}

	if f.messages.trimmedTo != 10 {
		t.Errorf("trimmed to %d, want 10", f.messages.trimmedTo)
	}
	if f.messages.trimSession != sessionId {
		t.Errorf("trim hit wrong session")
	}
	if !f.uow.began || !f.uow.committed {
		t.Errorf("persist must run in a committed transaction: began=%v committed=%v", f.uow.began, f.uow.committed)
	}
}

func TestAnswerIncludesRecentHistory(t *testing.T) {
	f := newFixture(nil, map[string]string{})
	sessionId := uuid.New()

	// FindAll returns newest first; the prompt wants chronological order.
	f.messages.stored = []*entity.ChatMessage{
		{Role: constant.ChatMessageRoleAssistant, Content: "previous answer"},
		{Role: constant.ChatMessageRoleUser, Content: "previous question"},
	}

	if _, err := f.orchestrator.Answer(context.Background(), sessionId, "follow-up"); err != nil {
		t.Fatalf("Answer returned error: %v", err)
	}

	msgs := f.llm.captured
	if len(msgs) != 4 {
		t.Fatalf("prompt has %d messages, want system + 2 history + query", len(msgs))
	}
	if msgs[1].Content != "previous question" || msgs[2].Content != "previous answer" {
		t.Errorf("history out of chronological order: %q then %q", msgs[1].Content, msgs[2].Content)
	}
	if msgs[3].Role != constant.ChatMessageRoleUser || msgs[3].Content != "follow-up" {
		t.Errorf("query must be the final message, got %+v", msgs[3])
	}
}

func TestAnswerFailedGenerationLeavesNoHistory(t *testing.T) {
	f := newFixture(nil, map[string]string{})
	f.llm.err = errors.New("model down")

	if _, err := f.orchestrator.Answer(context.Background(), uuid.New(), "q"); err == nil {
		t.Fatal("expected generation failure to surface")
	}

	if len(f.messages.created) != 0 {
		t.Errorf("failed turn persisted %d messages, want 0", len(f.messages.created))
	}
	if f.messages.trimmedTo != 0 {
		t.Errorf("failed turn trimmed history")
	}
}

func TestAnswerPassesGenerationOptions(t *testing.T) {
	f := newFixture(nil, map[string]string{})

	if _, err := f.orchestrator.Answer(context.Background(), uuid.New(), "q"); err != nil {
		t.Fatalf("Answer returned error: %v", err)
	}

	if f.llm.opts.Temperature != 0.1 {
		t.Errorf("temperature = %v, want 0.1", f.llm.opts.Temperature)
	}
	if f.llm.opts.MaxTokens != 2048 {
		t.Errorf("max tokens = %v, want 2048", f.llm.opts.MaxTokens)
	}
}
