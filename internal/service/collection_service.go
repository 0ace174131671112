package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pinecone-io/nvidia-rag/internal/dto"
	"github.com/pinecone-io/nvidia-rag/internal/entity"
	"github.com/pinecone-io/nvidia-rag/internal/pkg/logger"
	"github.com/pinecone-io/nvidia-rag/internal/repository/contract"
	"github.com/pinecone-io/nvidia-rag/internal/repository/specification"
	"github.com/pinecone-io/nvidia-rag/pkg/events"
	pktNats "github.com/pinecone-io/nvidia-rag/pkg/nats"
	"github.com/pinecone-io/nvidia-rag/pkg/objectstore"
)

var (
	ErrCollectionExists   = errors.New("collection already exists")
	ErrCollectionNotFound = errors.New("collection does not exist")
)

type ICollectionService interface {
	Create(ctx context.Context, req *dto.CreateCollectionRequest) (*dto.CollectionInfo, error)
	List(ctx context.Context) ([]*dto.CollectionInfo, error)
	Delete(ctx context.Context, name string) error
}

type collectionService struct {
	collectionRepo   contract.CollectionRepository
	chunkRepo        contract.ChunkRepository
	objectStore      objectstore.Store
	eventPublisher   *pktNats.Publisher
	defaultDimension int
	log              logger.ILogger
}

func NewCollectionService(
	collectionRepo contract.CollectionRepository,
	chunkRepo contract.ChunkRepository,
	objectStore objectstore.Store,
	eventPublisher *pktNats.Publisher,
	defaultDimension int,
	log logger.ILogger,
) ICollectionService {
	return &collectionService{
		collectionRepo:   collectionRepo,
		chunkRepo:        chunkRepo,
		objectStore:      objectStore,
		eventPublisher:   eventPublisher,
		defaultDimension: defaultDimension,
		log:              log,
	}
}

func (s *collectionService) Create(ctx context.Context, req *dto.CreateCollectionRequest) (*dto.CollectionInfo, error) {
	existing, err := s.collectionRepo.FindByName(ctx, req.CollectionName)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s", ErrCollectionExists, req.CollectionName)
	}

	dimension := req.EmbeddingDimension
	if dimension <= 0 {
		dimension = s.defaultDimension
	}

	collection := entity.Collection{
		Id:                 uuid.New(),
		Name:               req.CollectionName,
		EmbeddingDimension: dimension,
		CreatedAt:          time.Now(),
	}

	if err := s.collectionRepo.Create(ctx, &collection); err != nil {
		return nil, err
	}

	s.log.Info("COLLECTION", "Created collection", map[string]interface{}{
		"name":      collection.Name,
		"dimension": collection.EmbeddingDimension,
	})

	return &dto.CollectionInfo{
		CollectionName:     collection.Name,
		EmbeddingDimension: collection.EmbeddingDimension,
		NumEntities:        0,
	}, nil
}

func (s *collectionService) List(ctx context.Context) ([]*dto.CollectionInfo, error) {
	collections, err := s.collectionRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	infos := make([]*dto.CollectionInfo, 0, len(collections))
	for _, col := range collections {
		count, err := s.chunkRepo.Count(ctx, specification.ByCollection{Name: col.Name})
		if err != nil {
			return nil, err
		}
		infos = append(infos, &dto.CollectionInfo{
			CollectionName:     col.Name,
			EmbeddingDimension: col.EmbeddingDimension,
			NumEntities:        count,
		})
	}
	return infos, nil
}

func (s *collectionService) Delete(ctx context.Context, name string) error {
	existing, err := s.collectionRepo.FindByName(ctx, name)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("%w: %s", ErrCollectionNotFound, name)
	}

	if err := s.chunkRepo.DeleteByCollection(ctx, name); err != nil {
		return err
	}
	if err := s.collectionRepo.DeleteByName(ctx, name); err != nil {
		return err
	}

	// Side-content payloads share the collection prefix
	if err := s.objectStore.DeletePayloads(ctx, name+"/"); err != nil {
		s.log.Warn("COLLECTION", "Failed to sweep object store", map[string]interface{}{
			"collection": name,
			"error":      err.Error(),
		})
	}

	if s.eventPublisher != nil {
		if err := s.eventPublisher.Publish(ctx, events.CollectionDeleted(name)); err != nil {
			s.log.Warn("COLLECTION", "Failed to publish delete event", map[string]interface{}{"error": err.Error()})
		}
	}

	s.log.Info("COLLECTION", "Deleted collection", map[string]interface{}{"name": name})
	return nil
}
