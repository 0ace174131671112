package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pinecone-io/nvidia-rag/internal/dto"
	"github.com/pinecone-io/nvidia-rag/internal/pkg/logger"
	"github.com/pinecone-io/nvidia-rag/pkg/objectstore"
)

var ErrSummaryNotReady = errors.New("document summary not available")

const summaryPollInterval = 2 * time.Second

type ISummaryService interface {
	GetSummary(ctx context.Context, collectionName, documentName string, blocking bool, timeout time.Duration) (*dto.SummaryResponse, error)
}

type summaryService struct {
	objectStore objectstore.Store
	log         logger.ILogger
}

func NewSummaryService(objectStore objectstore.Store, log logger.ILogger) ISummaryService {
	return &summaryService{
		objectStore: objectStore,
		log:         log,
	}
}

// GetSummary fetches the stored summary for one document. In blocking mode
// it polls until the summary appears or the timeout passes, so callers can
// wait out an ingestion that is still running.
func (s *summaryService) GetSummary(ctx context.Context, collectionName, documentName string, blocking bool, timeout time.Duration) (*dto.SummaryResponse, error) {
	objectName := objectstore.SummaryObjectName(collectionName, documentName)

	res, err := s.fetch(ctx, objectName, collectionName, documentName)
	if err == nil || !errors.Is(err, objectstore.ErrNotFound) {
		return res, err
	}
	if !blocking {
		return nil, fmt.Errorf("%w: %s/%s", ErrSummaryNotReady, collectionName, documentName)
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	tick := time.NewTicker(summaryPollInterval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			return nil, fmt.Errorf("%w: %s/%s", ErrSummaryNotReady, collectionName, documentName)
		case <-tick.C:
			res, err := s.fetch(ctx, objectName, collectionName, documentName)
			if errors.Is(err, objectstore.ErrNotFound) {
				continue
			}
			return res, err
		}
	}
}

func (s *summaryService) fetch(ctx context.Context, objectName, collectionName, documentName string) (*dto.SummaryResponse, error) {
	payload, err := s.objectStore.GetPayload(ctx, objectName)
	if err != nil {
		return nil, err
	}

	summary, _ := payload["summary"].(string)
	return &dto.SummaryResponse{
		CollectionName: collectionName,
		DocumentName:   documentName,
		Summary:        summary,
	}, nil
}
