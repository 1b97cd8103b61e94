package service

import (
	"context"
	"time"

	"compliance-qa-be/internal/constant"
	"compliance-qa-be/internal/dto"
	"compliance-qa-be/internal/entity"
	"compliance-qa-be/internal/pkg/logger"
	"compliance-qa-be/internal/pkg/serverutils"
	"compliance-qa-be/internal/repository/memory"
	"compliance-qa-be/internal/repository/specification"
	"compliance-qa-be/internal/repository/unitofwork"
	"compliance-qa-be/pkg/rag/answer"

	"github.com/google/uuid"
)

const sessionTitleMaxLen = 50

type IChatService interface {
	Query(ctx context.Context, req *dto.QueryRequest) (*dto.QueryResponse, error)
	GetHistory(ctx context.Context, sessionId uuid.UUID) ([]*dto.GetChatHistoryResponse, error)
	DeleteSession(ctx context.Context, sessionId uuid.UUID) error
}

type chatService struct {
	uowFactory   unitofwork.RepositoryFactory
	orchestrator *answer.Orchestrator
	runtime      *memory.SessionRepository
	logger       logger.ILogger
}

func NewChatService(
	uowFactory unitofwork.RepositoryFactory,
	orchestrator *answer.Orchestrator,
	runtime *memory.SessionRepository,
	log logger.ILogger,
) IChatService {
	return &chatService{
		uowFactory:   uowFactory,
		orchestrator: orchestrator,
		runtime:      runtime,
		logger:       log,
	}
}

// Query answers one question. A missing session id creates a session
// implicitly, titled after the first question.
func (s *chatService) Query(ctx context.Context, req *dto.QueryRequest) (*dto.QueryResponse, error) {
	sessionId, err := s.resolveSession(ctx, req)
	if err != nil {
		return nil, err
	}

	result, err := s.orchestrator.Answer(ctx, sessionId, req.Query)
	if err != nil {
		return nil, err
	}

	res := &dto.QueryResponse{
		ChatSessionId: sessionId,
		Answer:        result.Answer,
		Context:       make([]dto.ContextDocumentDTO, 0, len(result.Citations)),
		Debug: dto.QueryDebugDTO{
			DocumentsFound: result.Debug.DocumentsFound,
			ContextLength:  result.Debug.ContextLength,
			PromptLength:   result.Debug.PromptLength,
		},
	}
	for _, c := range result.Citations {
		res.Context = append(res.Context, dto.ContextDocumentDTO{
			Title:          c.Title,
			DocType:        c.DocType,
			RelevanceScore: c.RelevanceScore,
		})
	}
	return res, nil
}

func (s *chatService) resolveSession(ctx context.Context, req *dto.QueryRequest) (uuid.UUID, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	if req.ChatSessionId != uuid.Nil {
		session, err := uow.ChatSessionRepository().FindOne(ctx, specification.ByID{ID: req.ChatSessionId})
		if err != nil {
			return uuid.Nil, err
		}
		if session == nil {
			return uuid.Nil, serverutils.ErrNotFound
		}
		return session.Id, nil
	}

	title := req.Query
	if len(title) > sessionTitleMaxLen {
		title = title[:sessionTitleMaxLen]
	}
	session := entity.ChatSession{
		Id:        uuid.New(),
		Title:     title,
		CreatedAt: time.Now(),
	}
	if err := uow.ChatSessionRepository().Create(ctx, &session); err != nil {
		return uuid.Nil, err
	}
	s.logger.Info("ChatService", "Session created implicitly", map[string]interface{}{"sessionId": session.Id.String()})
	return session.Id, nil
}

func (s *chatService) GetHistory(ctx context.Context, sessionId uuid.UUID) ([]*dto.GetChatHistoryResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.ChatSessionRepository().FindOne(ctx, specification.ByID{ID: sessionId})
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, serverutils.ErrNotFound
	}

	messages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: sessionId},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.GetChatHistoryResponse, 0, len(messages))
	for _, m := range messages {
		if m.Role == constant.ChatMessageRoleSystem {
			continue
		}
		res = append(res, &dto.GetChatHistoryResponse{
			Id:        m.Id,
			Role:      m.Role,
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		})
	}
	return res, nil
}

func (s *chatService) DeleteSession(ctx context.Context, sessionId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.ChatSessionRepository().FindOne(ctx, specification.ByID{ID: sessionId})
	if err != nil {
		return err
	}
	if session == nil {
		return serverutils.ErrNotFound
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.ChatMessageRepository().DeleteByChatSessionId(ctx, sessionId); err != nil {
		return err
	}
	if err := uow.ChatSessionRepository().Delete(ctx, sessionId); err != nil {
		return err
	}
	if err := uow.Commit(); err != nil {
		return err
	}

	s.runtime.Delete(sessionId.String())
	s.logger.Info("ChatService", "Session deleted", map[string]interface{}{"sessionId": sessionId.String()})
	return nil
}
