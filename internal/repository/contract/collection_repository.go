package contract

import (
	"context"

	"github.com/pinecone-io/nvidia-rag/internal/entity"
)

type CollectionRepository interface {
	Create(ctx context.Context, collection *entity.Collection) error
	FindByName(ctx context.Context, name string) (*entity.Collection, error)
	FindAll(ctx context.Context) ([]*entity.Collection, error)
	DeleteByName(ctx context.Context, name string) error
}
