package bootstrap

import (
	"context"
	"log"
	"os"
	"path/filepath"

	"compliance-qa-be/internal/config"
	"compliance-qa-be/internal/controller"
	"compliance-qa-be/internal/pkg/logger"
	"compliance-qa-be/internal/repository/memory"
	"compliance-qa-be/internal/repository/unitofwork"
	"compliance-qa-be/internal/service"
	"compliance-qa-be/pkg/contentstore"
	"compliance-qa-be/pkg/embedding"
	"compliance-qa-be/pkg/llm/factory"
	pktNats "compliance-qa-be/pkg/nats"
	"compliance-qa-be/pkg/rag/answer"
	"compliance-qa-be/pkg/rag/contextbuild"
	"compliance-qa-be/pkg/rag/extract"
	"compliance-qa-be/pkg/rag/history"
	"compliance-qa-be/pkg/rag/lexical"
	"compliance-qa-be/pkg/vectorsearch"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	DocumentController controller.IDocumentController
	ChatController     controller.IChatController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	SysLogger logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	ragLogger := initRagLogger()

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. External Providers
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
	} else if cfg.Keys.GoogleGemini != "" {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	} else {
		// No usable binding. The search client degrades to unavailable and
		// queries run on the lexical fallback.
		log.Printf("[WARN] No embedding provider configured, similarity search disabled")
	}

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 4. Infrastructure
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}

	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	// Content storage: blob directory is authoritative, Redis serves reads
	// when the blob is missing.
	blobBackend, err := contentstore.NewFileBackend(cfg.Content.BlobDir)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize content blob dir: %v", err)
	}
	contents := contentstore.NewRepository(blobBackend, contentstore.NewRedisBackend(rdb))

	sessionRepo := memory.NewSessionRepository()

	// 5. Retrieval Pipeline
	baseRepos := uowFactory.NewUnitOfWork(context.Background())
	searchClient := vectorsearch.NewClient(embeddingProvider, baseRepos.DocumentEmbeddingRepository(), ragLogger)
	lexicalScorer := lexical.NewScorer(baseRepos.DocumentRepository(), contents, ragLogger, cfg.Retrieval.LexicalTopK)
	extractor := extract.NewExtractor(cfg.Retrieval.InlineThreshold, cfg.Retrieval.ExtractCap, cfg.Retrieval.ExtractWindow)
	assembler := contextbuild.NewAssembler(contents, extractor, cfg.Retrieval.DedupPrefixLen, ragLogger)
	historyLoader := history.NewLoader(baseRepos.ChatMessageRepository())

	orchestrator := answer.NewOrchestrator(
		searchClient,
		lexicalScorer,
		assembler,
		historyLoader,
		sessionRepo,
		baseRepos.DocumentRepository(),
		uowFactory,
		llmProvider,
		cfg.Ai,
		cfg.Retrieval,
		ragLogger,
	)

	// 6. Services
	publisherService := service.NewPublisherService(cfg.Keys.IndexTopic, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Keys.IndexTopic,
		uowFactory,
		contents,
		searchClient,
		natsPub,
		sysLogger,
	)

	documentService := service.NewDocumentService(uowFactory, contents, publisherService, natsPub, sysLogger)
	chatService := service.NewChatService(uowFactory, orchestrator, sessionRepo, sysLogger)

	// 7. Controllers
	return &Container{
		DocumentController: controller.NewDocumentController(documentService),
		ChatController:     controller.NewChatController(chatService),

		ConsumerService: consumerService,

		SysLogger: sysLogger,
	}
}

// initRagLogger writes retrieval pipeline logs to their own file so the main
// log stays clean. Falls back to stdout when the file cannot be opened.
func initRagLogger() *log.Logger {
	logPath := filepath.Join(".", "logs", "rag.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		log.Printf("Failed to create logs directory: %v", err)
	}
	file, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return log.New(os.Stdout, "[RAG] ", log.LstdFlags)
	}
	return log.New(file, "", log.LstdFlags)
}
