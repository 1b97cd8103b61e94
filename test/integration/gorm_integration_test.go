package integration

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"compliance-qa-be/internal/constant"
	"compliance-qa-be/internal/entity"
	"compliance-qa-be/internal/repository/specification"
	"compliance-qa-be/internal/repository/unitofwork"
	"compliance-qa-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
)

func TestGormConnection(t *testing.T) {
	// Load .env from root
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	// Verify Wiring
	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	uow := uowFactory.NewUnitOfWork(context.Background())

	assert.NotNil(t, uow.DocumentRepository())
	assert.NotNil(t, uow.DocumentEmbeddingRepository())

	// Basic Ping
	sqlDB, _ := gormDB.DB()
	err = sqlDB.Ping()
	assert.NoError(t, err)
	t.Log("Successfully connected to DB and initialized UnitOfWork Factory")

	// Verify Data Access (implies columns exist)
	t.Run("Check Document Repository", func(t *testing.T) {
		count, err := uow.DocumentRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("Document count: %d", count)
	})

	t.Run("Check Document Embedding Repository", func(t *testing.T) {
		count, err := uow.DocumentEmbeddingRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("DocumentEmbedding count: %d", count)
	})

	t.Run("Check Transactional Chat Turn With Trim", func(t *testing.T) {
		ctx := context.Background()

		session := &entity.ChatSession{
			Id:        uuid.New(),
			Title:     "integration session " + uuid.New().String(),
			CreatedAt: time.Now(),
		}
		err := uow.ChatSessionRepository().Create(ctx, session)
		assert.NoError(t, err)

		// Transaction Test: one turn appends a user+assistant pair and trims.
		err = uow.Begin(ctx)
		assert.NoError(t, err)
		defer uow.Rollback()

		now := time.Now()
		pair := []*entity.ChatMessage{
			{
				Id:            uuid.New(),
				Content:       "what does the retention policy say?",
				Role:          constant.ChatMessageRoleUser,
				ChatSessionId: session.Id,
				CreatedAt:     now,
			},
			{
				Id:            uuid.New(),
				Content:       "the policy requires retention for seven years",
				Role:          constant.ChatMessageRoleAssistant,
				ChatSessionId: session.Id,
				CreatedAt:     now.Add(time.Millisecond),
			},
		}

		err = uow.ChatMessageRepository().CreateBulk(ctx, pair)
		assert.NoError(t, err)

		err = uow.ChatMessageRepository().TrimToRecent(ctx, session.Id, 10)
		assert.NoError(t, err)

		err = uow.Commit()
		assert.NoError(t, err)

		messages, err := uow.ChatMessageRepository().FindAll(ctx,
			specification.ByChatSessionID{ChatSessionID: session.Id},
		)
		assert.NoError(t, err)
		assert.Len(t, messages, 2)

		t.Log("Successfully persisted a chat turn in a transaction")
	})
}
