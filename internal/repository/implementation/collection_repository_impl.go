package implementation

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/pinecone-io/nvidia-rag/internal/entity"
	"github.com/pinecone-io/nvidia-rag/internal/mapper"
	"github.com/pinecone-io/nvidia-rag/internal/model"
	"github.com/pinecone-io/nvidia-rag/internal/repository/contract"
)

type CollectionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.CollectionMapper
}

func NewCollectionRepository(db *gorm.DB) contract.CollectionRepository {
	return &CollectionRepositoryImpl{
		db:     db,
		mapper: mapper.NewCollectionMapper(),
	}
}

func (r *CollectionRepositoryImpl) Create(ctx context.Context, collection *entity.Collection) error {
	m := r.mapper.ToModel(collection)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*collection = *r.mapper.ToEntity(m)
	return nil
}

func (r *CollectionRepositoryImpl) FindByName(ctx context.Context, name string) (*entity.Collection, error) {
	var m model.Collection
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *CollectionRepositoryImpl) FindAll(ctx context.Context) ([]*entity.Collection, error) {
	var models []*model.Collection
	if err := r.db.WithContext(ctx).Order("name").Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *CollectionRepositoryImpl) DeleteByName(ctx context.Context, name string) error {
	return r.db.WithContext(ctx).Where("name = ?", name).Delete(&model.Collection{}).Error
}
