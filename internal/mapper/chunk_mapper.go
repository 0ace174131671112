package mapper

import (
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"

	"github.com/pinecone-io/nvidia-rag/internal/entity"
	"github.com/pinecone-io/nvidia-rag/internal/model"
)

type ChunkMapper struct{}

func NewChunkMapper() *ChunkMapper {
	return &ChunkMapper{}
}

func (m *ChunkMapper) ToEntity(e *model.DocumentChunk) *entity.DocumentChunk {
	if e == nil {
		return nil
	}

	return &entity.DocumentChunk{
		Id:             e.Id,
		CollectionName: e.CollectionName,
		DocumentName:   e.DocumentName,
		Content:        e.Content,
		Metadata:       map[string]any(e.Metadata),
		EmbeddingValue: e.EmbeddingValue.Slice(),
		ChunkIndex:     e.ChunkIndex,
		CreatedAt:      e.CreatedAt,
	}
}

func (m *ChunkMapper) ToModel(e *entity.DocumentChunk) *model.DocumentChunk {
	if e == nil {
		return nil
	}

	return &model.DocumentChunk{
		Id:             e.Id,
		CollectionName: e.CollectionName,
		DocumentName:   e.DocumentName,
		Content:        e.Content,
		Metadata:       datatypes.JSONMap(e.Metadata),
		EmbeddingValue: pgvector.NewVector(e.EmbeddingValue),
		ChunkIndex:     e.ChunkIndex,
		CreatedAt:      e.CreatedAt,
	}
}

func (m *ChunkMapper) ToEntities(chunks []*model.DocumentChunk) []*entity.DocumentChunk {
	entities := make([]*entity.DocumentChunk, len(chunks))
	for i, c := range chunks {
		entities[i] = m.ToEntity(c)
	}
	return entities
}

func (m *ChunkMapper) ToModels(chunks []*entity.DocumentChunk) []*model.DocumentChunk {
	models := make([]*model.DocumentChunk, len(chunks))
	for i, c := range chunks {
		models[i] = m.ToModel(c)
	}
	return models
}
