package implementation

import (
	"context"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"github.com/pinecone-io/nvidia-rag/internal/entity"
	"github.com/pinecone-io/nvidia-rag/internal/mapper"
	"github.com/pinecone-io/nvidia-rag/internal/model"
	"github.com/pinecone-io/nvidia-rag/internal/repository/contract"
	"github.com/pinecone-io/nvidia-rag/internal/repository/specification"
)

type ChunkRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChunkMapper
}

func NewChunkRepository(db *gorm.DB) contract.ChunkRepository {
	return &ChunkRepositoryImpl{
		db:     db,
		mapper: mapper.NewChunkMapper(),
	}
}

func (r *ChunkRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ChunkRepositoryImpl) CreateBatch(ctx context.Context, chunks []*entity.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	models := r.mapper.ToModels(chunks)
	if err := r.db.WithContext(ctx).CreateInBatches(models, 100).Error; err != nil {
		return err
	}
	for i, m := range models {
		*chunks[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

func (r *ChunkRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DocumentChunk, error) {
	var models []*model.DocumentChunk
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *ChunkRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.DocumentChunk{}).Count(&count).Error
	return count, err
}

func (r *ChunkRepositoryImpl) DistinctDocuments(ctx context.Context, collectionName string) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).
		Model(&model.DocumentChunk{}).
		Where("collection_name = ?", collectionName).
		Distinct("document_name").
		Order("document_name").
		Pluck("document_name", &names).Error
	if err != nil {
		return nil, err
	}
	return names, nil
}

func (r *ChunkRepositoryImpl) DeleteByDocument(ctx context.Context, collectionName, documentName string) error {
	return r.db.WithContext(ctx).
		Where("collection_name = ? AND document_name = ?", collectionName, documentName).
		Delete(&model.DocumentChunk{}).Error
}

func (r *ChunkRepositoryImpl) DeleteByCollection(ctx context.Context, collectionName string) error {
	return r.db.WithContext(ctx).
		Where("collection_name = ?", collectionName).
		Delete(&model.DocumentChunk{}).Error
}

func (r *ChunkRepositoryImpl) SearchSimilar(ctx context.Context, collectionName string, embedding []float32, limit int) ([]*entity.DocumentChunk, error) {
	if limit <= 0 {
		limit = 4
	}
	var models []*model.DocumentChunk

	// pgvector cosine distance: embedding_value <=> vector
	err := r.db.WithContext(ctx).
		Where("collection_name = ?", collectionName).
		Order(gorm.Expr("embedding_value <=> ?", pgvector.NewVector(embedding))).
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	return r.mapper.ToEntities(models), nil
}
