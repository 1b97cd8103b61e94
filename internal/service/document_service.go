package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"compliance-qa-be/internal/dto"
	"compliance-qa-be/internal/entity"
	"compliance-qa-be/internal/pkg/logger"
	"compliance-qa-be/internal/pkg/serverutils"
	"compliance-qa-be/internal/repository/specification"
	"compliance-qa-be/internal/repository/unitofwork"
	"compliance-qa-be/pkg/contentstore"
	"compliance-qa-be/pkg/events"
	pktNats "compliance-qa-be/pkg/nats"

	"github.com/google/uuid"
)

type IDocumentService interface {
	Create(ctx context.Context, req *dto.CreateDocumentRequest) (*dto.CreateDocumentResponse, error)
	Show(ctx context.Context, id uuid.UUID) (*dto.ShowDocumentResponse, error)
	List(ctx context.Context) ([]*dto.ShowDocumentResponse, error)
	GetContent(ctx context.Context, id uuid.UUID) (*dto.DocumentContentResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type documentService struct {
	uowFactory       unitofwork.RepositoryFactory
	contents         *contentstore.Repository
	publisherService IPublisherService
	eventPublisher   *pktNats.Publisher
	logger           logger.ILogger
}

func NewDocumentService(
	uowFactory unitofwork.RepositoryFactory,
	contents *contentstore.Repository,
	publisherService IPublisherService,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
) IDocumentService {
	return &documentService{
		uowFactory:       uowFactory,
		contents:         contents,
		publisherService: publisherService,
		eventPublisher:   eventPublisher,
		logger:           log,
	}
}

// Create stores document metadata, writes the full content, and queues the
// document for indexing. Metadata and content live in different stores; if
// the content write fails the metadata row is rolled back by hand since the
// content store is not transactional.
func (s *documentService) Create(ctx context.Context, req *dto.CreateDocumentRequest) (*dto.CreateDocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	doc := entity.Document{
		Id:        uuid.New(),
		Title:     req.Title,
		DocType:   req.DocType,
		Tags:      req.Tags,
		CreatedAt: time.Now(),
	}

	if err := uow.DocumentRepository().Create(ctx, &doc); err != nil {
		return nil, err
	}

	if err := s.contents.Put(ctx, doc.Id.String(), req.Content); err != nil {
		if delErr := uow.DocumentRepository().Delete(ctx, doc.Id); delErr != nil {
			s.logger.Warn("DocumentService", "Failed to clean up metadata after content write failure", map[string]interface{}{"documentId": doc.Id.String(), "error": delErr.Error()})
		}
		return nil, fmt.Errorf("store document content: %w", err)
	}

	msgPayload := dto.PublishIndexDocumentMessage{
		DocumentId: doc.Id,
	}
	msgJson, err := json.Marshal(msgPayload)
	if err != nil {
		return nil, err
	}
	if err := s.publisherService.Publish(ctx, msgJson); err != nil {
		return nil, err
	}

	// Lifecycle event is auxiliary; log and continue on failure.
	if s.eventPublisher != nil {
		evt := events.NewDocumentCreated(doc.Id.String(), doc.Title, doc.DocType)
		if err := s.eventPublisher.Publish(ctx, evt); err != nil {
			s.logger.Warn("DocumentService", "Failed to publish DOCUMENT_CREATED event", map[string]interface{}{"error": err.Error()})
		}
	}

	return &dto.CreateDocumentResponse{
		Id: doc.Id,
	}, nil
}

func (s *documentService) Show(ctx context.Context, id uuid.UUID) (*dto.ShowDocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	doc, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, serverutils.ErrNotFound
	}

	return mapDocumentResponse(doc), nil
}

func (s *documentService) List(ctx context.Context) ([]*dto.ShowDocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	docs, err := uow.DocumentRepository().FindAll(ctx,
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.ShowDocumentResponse, 0, len(docs))
	for _, doc := range docs {
		res = append(res, mapDocumentResponse(doc))
	}
	return res, nil
}

func (s *documentService) GetContent(ctx context.Context, id uuid.UUID) (*dto.DocumentContentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	doc, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, serverutils.ErrNotFound
	}

	content, found, err := s.contents.Get(ctx, id.String())
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, serverutils.ErrNotFound
	}

	return &dto.DocumentContentResponse{
		Id:      id,
		Content: content,
	}, nil
}

// Delete removes the metadata row, the index rows, and the stored content.
func (s *documentService) Delete(ctx context.Context, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	doc, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return err
	}
	if doc == nil {
		return serverutils.ErrNotFound
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.DocumentEmbeddingRepository().DeleteByDocumentId(ctx, id); err != nil {
		return err
	}
	if err := uow.DocumentRepository().Delete(ctx, id); err != nil {
		return err
	}
	if err := uow.Commit(); err != nil {
		return err
	}

	if err := s.contents.Delete(ctx, id.String()); err != nil {
		s.logger.Warn("DocumentService", "Failed to delete stored content", map[string]interface{}{"documentId": id.String(), "error": err.Error()})
	}

	if s.eventPublisher != nil {
		evt := events.NewDocumentDeleted(id.String())
		if err := s.eventPublisher.Publish(ctx, evt); err != nil {
			s.logger.Warn("DocumentService", "Failed to publish DOCUMENT_DELETED event", map[string]interface{}{"error": err.Error()})
		}
	}

	return nil
}

func mapDocumentResponse(doc *entity.Document) *dto.ShowDocumentResponse {
	return &dto.ShowDocumentResponse{
		Id:        doc.Id,
		Title:     doc.Title,
		DocType:   doc.DocType,
		Tags:      doc.Tags,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
}
