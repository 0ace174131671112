package mapper

import (
	"time"

	"github.com/pinecone-io/nvidia-rag/internal/entity"
	"github.com/pinecone-io/nvidia-rag/internal/model"
)

type CollectionMapper struct{}

func NewCollectionMapper() *CollectionMapper {
	return &CollectionMapper{}
}

func (m *CollectionMapper) ToEntity(e *model.Collection) *entity.Collection {
	if e == nil {
		return nil
	}

	var updatedAt *time.Time
	if !e.UpdatedAt.IsZero() {
		t := e.UpdatedAt
		updatedAt = &t
	}

	return &entity.Collection{
		Id:                 e.Id,
		Name:               e.Name,
		EmbeddingDimension: e.EmbeddingDimension,
		CreatedAt:          e.CreatedAt,
		UpdatedAt:          updatedAt,
	}
}

func (m *CollectionMapper) ToModel(e *entity.Collection) *model.Collection {
	if e == nil {
		return nil
	}

	var updatedAt time.Time
	if e.UpdatedAt != nil {
		updatedAt = *e.UpdatedAt
	}

	return &model.Collection{
		Id:                 e.Id,
		Name:               e.Name,
		EmbeddingDimension: e.EmbeddingDimension,
		CreatedAt:          e.CreatedAt,
		UpdatedAt:          updatedAt,
	}
}

func (m *CollectionMapper) ToEntities(collections []*model.Collection) []*entity.Collection {
	entities := make([]*entity.Collection, len(collections))
	for i, c := range collections {
		entities[i] = m.ToEntity(c)
	}
	return entities
}
