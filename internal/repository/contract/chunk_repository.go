package contract

import (
	"context"

	"github.com/pinecone-io/nvidia-rag/internal/entity"
	"github.com/pinecone-io/nvidia-rag/internal/repository/specification"
)

type ChunkRepository interface {
	CreateBatch(ctx context.Context, chunks []*entity.DocumentChunk) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DocumentChunk, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// DistinctDocuments lists the source document names stored in a collection
	DistinctDocuments(ctx context.Context, collectionName string) ([]string, error)
	DeleteByDocument(ctx context.Context, collectionName, documentName string) error
	DeleteByCollection(ctx context.Context, collectionName string) error
	// SearchSimilar orders a collection's chunks by cosine distance to the
	// given query embedding and returns the closest limit rows
	SearchSimilar(ctx context.Context, collectionName string, embedding []float32, limit int) ([]*entity.DocumentChunk, error)
}
