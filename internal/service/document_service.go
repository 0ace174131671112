package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pinecone-io/nvidia-rag/internal/dto"
	"github.com/pinecone-io/nvidia-rag/internal/entity"
	"github.com/pinecone-io/nvidia-rag/internal/pkg/logger"
	"github.com/pinecone-io/nvidia-rag/internal/repository/contract"
	"github.com/pinecone-io/nvidia-rag/internal/repository/memory"
	"github.com/pinecone-io/nvidia-rag/internal/repository/specification"
	"github.com/pinecone-io/nvidia-rag/pkg/events"
	pktNats "github.com/pinecone-io/nvidia-rag/pkg/nats"
	"github.com/pinecone-io/nvidia-rag/pkg/objectstore"
)

var ErrTaskNotFound = errors.New("ingestion task not found")

// UploadFile is one decoded multipart file from an upload request.
type UploadFile struct {
	Name    string
	Content []byte
}

type IDocumentService interface {
	Upload(ctx context.Context, collectionName string, files []UploadFile) (*dto.UploadDocumentResponse, error)
	List(ctx context.Context, collectionName string) ([]dto.DocumentInfo, error)
	Delete(ctx context.Context, req *dto.DeleteDocumentsRequest) error
	Status(ctx context.Context, taskId string) (*dto.TaskStatusResponse, error)
}

type documentService struct {
	collectionRepo   contract.CollectionRepository
	chunkRepo        contract.ChunkRepository
	taskRepo         *memory.TaskRepository
	publisherService IPublisherService
	objectStore      objectstore.Store
	eventPublisher   *pktNats.Publisher
	log              logger.ILogger
}

func NewDocumentService(
	collectionRepo contract.CollectionRepository,
	chunkRepo contract.ChunkRepository,
	taskRepo *memory.TaskRepository,
	publisherService IPublisherService,
	objectStore objectstore.Store,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
) IDocumentService {
	return &documentService{
		collectionRepo:   collectionRepo,
		chunkRepo:        chunkRepo,
		taskRepo:         taskRepo,
		publisherService: publisherService,
		objectStore:      objectStore,
		eventPublisher:   eventPublisher,
		log:              log,
	}
}

// Upload registers an ingestion task and hands each file to the consumer
// over the event bus. The heavy work (splitting, embedding, persisting)
// happens off the request path.
func (s *documentService) Upload(ctx context.Context, collectionName string, files []UploadFile) (*dto.UploadDocumentResponse, error) {
	collection, err := s.collectionRepo.FindByName(ctx, collectionName)
	if err != nil {
		return nil, err
	}
	if collection == nil {
		return nil, fmt.Errorf("%w: %s", ErrCollectionNotFound, collectionName)
	}

	task := &entity.IngestionTask{
		Id:             uuid.NewString(),
		CollectionName: collectionName,
		State:          entity.TaskStatePending,
		CreatedAt:      time.Now(),
	}
	for _, f := range files {
		task.Documents = append(task.Documents, entity.TaskDocument{
			DocumentName: f.Name,
			Status:       entity.DocumentStatusPending,
		})
	}
	s.taskRepo.Save(task)

	for _, f := range files {
		msgPayload := dto.PublishIngestDocumentMessage{
			TaskId:         task.Id,
			CollectionName: collectionName,
			DocumentName:   f.Name,
			Content:        string(f.Content),
		}
		msgJson, err := json.Marshal(msgPayload)
		if err != nil {
			return nil, err
		}
		if err := s.publisherService.Publish(ctx, msgJson); err != nil {
			return nil, err
		}
	}

	s.log.Info("INGESTION", "Accepted upload batch", map[string]interface{}{
		"task_id":    task.Id,
		"collection": collectionName,
		"documents":  len(files),
	})

	return &dto.UploadDocumentResponse{
		TaskId:  task.Id,
		Message: fmt.Sprintf("Ingestion of %d document(s) started", len(files)),
	}, nil
}

func (s *documentService) List(ctx context.Context, collectionName string) ([]dto.DocumentInfo, error) {
	collection, err := s.collectionRepo.FindByName(ctx, collectionName)
	if err != nil {
		return nil, err
	}
	if collection == nil {
		return nil, fmt.Errorf("%w: %s", ErrCollectionNotFound, collectionName)
	}

	names, err := s.chunkRepo.DistinctDocuments(ctx, collectionName)
	if err != nil {
		return nil, err
	}

	infos := make([]dto.DocumentInfo, 0, len(names))
	for _, name := range names {
		count, err := s.chunkRepo.Count(ctx,
			specification.ByCollection{Name: collectionName},
			specification.ByDocumentName{Name: name},
		)
		if err != nil {
			return nil, err
		}
		infos = append(infos, dto.DocumentInfo{DocumentName: name, ChunkCount: count})
	}
	return infos, nil
}

func (s *documentService) Delete(ctx context.Context, req *dto.DeleteDocumentsRequest) error {
	for _, name := range req.DocumentNames {
		if err := s.chunkRepo.DeleteByDocument(ctx, req.CollectionName, name); err != nil {
			return err
		}

		prefix := fmt.Sprintf("%s/%s/", req.CollectionName, name)
		if err := s.objectStore.DeletePayloads(ctx, prefix); err != nil {
			s.log.Warn("INGESTION", "Failed to sweep document payloads", map[string]interface{}{
				"document": name,
				"error":    err.Error(),
			})
		}

		if s.eventPublisher != nil {
			if err := s.eventPublisher.Publish(ctx, events.DocumentDeleted(req.CollectionName, name)); err != nil {
				s.log.Warn("INGESTION", "Failed to publish delete event", map[string]interface{}{"error": err.Error()})
			}
		}
	}

	s.log.Info("INGESTION", "Deleted documents", map[string]interface{}{
		"collection": req.CollectionName,
		"documents":  len(req.DocumentNames),
	})
	return nil
}

func (s *documentService) Status(ctx context.Context, taskId string) (*dto.TaskStatusResponse, error) {
	task, found := s.taskRepo.Get(taskId)
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, taskId)
	}

	res := &dto.TaskStatusResponse{
		TaskId: task.Id,
		State:  task.State,
	}
	for _, d := range task.Documents {
		res.Documents = append(res.Documents, dto.TaskDocumentResult{
			DocumentName: d.DocumentName,
			Status:       d.Status,
			Error:        d.Error,
		})
	}
	return res, nil
}
