package service

import (
	"context"
	"encoding/json"
	"fmt"

	"compliance-qa-be/internal/dto"
	"compliance-qa-be/internal/pkg/logger"
	"compliance-qa-be/internal/repository/specification"
	"compliance-qa-be/internal/repository/unitofwork"
	"compliance-qa-be/pkg/contentstore"
	"compliance-qa-be/pkg/events"
	pktNats "compliance-qa-be/pkg/nats"
	"compliance-qa-be/pkg/textsplit"
	"compliance-qa-be/pkg/vectorsearch"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// Chunk sizing for the embedding model. 1500 chars is roughly 375 tokens,
// well inside context limits; 200 chars of overlap preserves boundary context.
const (
	indexChunkSize    = 1500
	indexChunkOverlap = 200
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService drains the indexing topic: for each job it loads the
// document, chunks its content, and writes fresh embeddings to the index.
type consumerService struct {
	pubSub         *gochannel.GoChannel
	topicName      string
	uowFactory     unitofwork.RepositoryFactory
	contents       *contentstore.Repository
	index          *vectorsearch.Client
	eventPublisher *pktNats.Publisher
	logger         logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	contents *contentstore.Repository,
	index *vectorsearch.Client,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:         pubSub,
		topicName:      topicName,
		uowFactory:     uowFactory,
		contents:       contents,
		index:          index,
		eventPublisher: eventPublisher,
		logger:         log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

// processMessage acks jobs that can never succeed (bad payload, deleted
// document) and nacks retriable failures.
func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishIndexDocumentMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("ConsumerService", "Failed to unmarshal indexing job", map[string]interface{}{"error": err.Error()})
		msg.Ack()
		return
	}

	cs.logger.Info("ConsumerService", fmt.Sprintf("Indexing document %s", payload.DocumentId), nil)

	uow := cs.uowFactory.NewUnitOfWork(ctx)
	doc, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: payload.DocumentId})
	if err != nil {
		cs.logger.Error("ConsumerService", "Failed to get document", map[string]interface{}{"documentId": payload.DocumentId.String(), "error": err.Error()})
		msg.Nack()
		return
	}
	if doc == nil {
		cs.logger.Warn("ConsumerService", "Document no longer exists, dropping job", map[string]interface{}{"documentId": payload.DocumentId.String()})
		msg.Ack()
		return
	}

	content, found, err := cs.contents.Get(ctx, doc.Id.String())
	if err != nil {
		cs.logger.Error("ConsumerService", "Failed to get document content", map[string]interface{}{"documentId": doc.Id.String(), "error": err.Error()})
		msg.Nack()
		return
	}
	if !found {
		cs.logger.Warn("ConsumerService", "Document has no stored content, dropping job", map[string]interface{}{"documentId": doc.Id.String()})
		msg.Ack()
		return
	}

	// The title and type header makes each chunk self-describing to the
	// embedding model.
	indexed := fmt.Sprintf("Document Title: %s\nDocument Type: %s\n\n%s", doc.Title, doc.DocType, content)
	chunks := textsplit.Split(indexed, indexChunkSize, indexChunkOverlap)
	cs.logger.Info("ConsumerService", "Document chunked for indexing", map[string]interface{}{"documentId": doc.Id.String(), "chunks": len(chunks)})

	if err := cs.index.Insert(ctx, doc.Id, chunks); err != nil {
		cs.logger.Error("ConsumerService", "Failed to index document", map[string]interface{}{"documentId": doc.Id.String(), "error": err.Error()})
		msg.Nack()
		return
	}

	if cs.eventPublisher != nil {
		evt := events.NewDocumentIndexed(doc.Id.String(), len(chunks))
		if err := cs.eventPublisher.Publish(ctx, evt); err != nil {
			cs.logger.Warn("ConsumerService", "Failed to publish DOCUMENT_INDEXED event", map[string]interface{}{"error": err.Error()})
		}
	}

	cs.logger.Info("ConsumerService", "Document indexed", map[string]interface{}{"documentId": doc.Id.String(), "chunks": len(chunks)})
	msg.Ack()
}
