package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"

	"github.com/pinecone-io/nvidia-rag/internal/dto"
	"github.com/pinecone-io/nvidia-rag/internal/entity"
	"github.com/pinecone-io/nvidia-rag/internal/pkg/logger"
	"github.com/pinecone-io/nvidia-rag/internal/repository/contract"
	"github.com/pinecone-io/nvidia-rag/internal/repository/memory"
	"github.com/pinecone-io/nvidia-rag/pkg/embedding"
	"github.com/pinecone-io/nvidia-rag/pkg/events"
	"github.com/pinecone-io/nvidia-rag/pkg/llm"
	pktNats "github.com/pinecone-io/nvidia-rag/pkg/nats"
	"github.com/pinecone-io/nvidia-rag/pkg/objectstore"
	"github.com/pinecone-io/nvidia-rag/pkg/rag/prompt"
	"github.com/pinecone-io/nvidia-rag/pkg/utils"
)

const ingestionLogModule = "INGESTION"

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	pubSub            *gochannel.GoChannel
	topicName         string
	chunkRepo         contract.ChunkRepository
	taskRepo          *memory.TaskRepository
	embeddingProvider embedding.Provider
	llmProvider       llm.Provider
	objectStore       objectstore.Store
	eventPublisher    *pktNats.Publisher
	chunkSize         int
	chunkOverlap      int
	log               logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	chunkRepo contract.ChunkRepository,
	taskRepo *memory.TaskRepository,
	embeddingProvider embedding.Provider,
	llmProvider llm.Provider,
	objectStore objectstore.Store,
	eventPublisher *pktNats.Publisher,
	chunkSize int,
	chunkOverlap int,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:            pubSub,
		topicName:         topicName,
		chunkRepo:         chunkRepo,
		taskRepo:          taskRepo,
		embeddingProvider: embeddingProvider,
		llmProvider:       llmProvider,
		objectStore:       objectStore,
		eventPublisher:    eventPublisher,
		chunkSize:         chunkSize,
		chunkOverlap:      chunkOverlap,
		log:               log,
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

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishIngestDocumentMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.log.Error(ingestionLogModule, "Failed to unmarshal ingest message", map[string]interface{}{"error": err.Error()})
		msg.Ack() // invalid forever, don't retry
		return
	}

	cs.log.Info(ingestionLogModule, "Ingesting document", map[string]interface{}{
		"task_id":    payload.TaskId,
		"collection": payload.CollectionName,
		"document":   payload.DocumentName,
	})

	if err := cs.ingestDocument(ctx, &payload); err != nil {
		cs.log.Error(ingestionLogModule, "Document ingestion failed", map[string]interface{}{
			"document": payload.DocumentName,
			"error":    err.Error(),
		})
		cs.taskRepo.UpdateDocument(payload.TaskId, payload.DocumentName, entity.DocumentStatusFailed, err.Error())
		msg.Ack() // outcome is recorded on the task, retry won't help a bad document
		return
	}

	cs.taskRepo.UpdateDocument(payload.TaskId, payload.DocumentName, entity.DocumentStatusSuccess, "")
	msg.Ack()
}

func (cs *consumerService) ingestDocument(ctx context.Context, payload *dto.PublishIngestDocumentMessage) error {
	// Re-ingesting a document replaces its previous chunks
	if err := cs.chunkRepo.DeleteByDocument(ctx, payload.CollectionName, payload.DocumentName); err != nil {
		return err
	}

	texts := utils.SplitText(payload.Content, cs.chunkSize, cs.chunkOverlap)
	vectors, err := cs.embeddingProvider.Embed(ctx, texts)
	if err != nil {
		return err
	}

	chunks := make([]*entity.DocumentChunk, 0, len(texts))
	for i, text := range texts {
		chunks = append(chunks, &entity.DocumentChunk{
			Id:             uuid.New(),
			CollectionName: payload.CollectionName,
			DocumentName:   payload.DocumentName,
			Content:        text,
			Metadata: map[string]any{
				"source": payload.DocumentName,
				"content_metadata": map[string]any{
					"type":        "text",
					"page_number": i,
					"location":    []float64{},
				},
			},
			EmbeddingValue: vectors[i],
			ChunkIndex:     i,
			CreatedAt:      time.Now(),
		})
	}

	if err := cs.chunkRepo.CreateBatch(ctx, chunks); err != nil {
		return err
	}

	// Summary generation is best-effort; the document is already searchable
	if err := cs.storeSummary(ctx, payload); err != nil {
		cs.log.Warn(ingestionLogModule, "Summary generation failed", map[string]interface{}{
			"document": payload.DocumentName,
			"error":    err.Error(),
		})
	}

	if cs.eventPublisher != nil {
		if err := cs.eventPublisher.Publish(ctx, events.DocumentIngested(payload.CollectionName, payload.DocumentName, len(chunks))); err != nil {
			cs.log.Warn(ingestionLogModule, "Failed to publish ingested event", map[string]interface{}{"error": err.Error()})
		}
	}

	cs.log.Info(ingestionLogModule, "Document ingested", map[string]interface{}{
		"document": payload.DocumentName,
		"chunks":   len(chunks),
	})
	return nil
}

func (cs *consumerService) storeSummary(ctx context.Context, payload *dto.PublishIngestDocumentMessage) error {
	summary, err := cs.llmProvider.Invoke(ctx, prompt.DocumentSummary(payload.DocumentName, payload.Content))
	if err != nil {
		return err
	}

	objectName := objectstore.SummaryObjectName(payload.CollectionName, payload.DocumentName)
	return cs.objectStore.PutPayload(ctx, objectName, map[string]any{
		"collection_name": payload.CollectionName,
		"document_name":   payload.DocumentName,
		"summary":         summary,
		"generated_at":    time.Now().Format(time.RFC3339),
	})
}
