package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type DocumentChunk struct {
	Id             uuid.UUID         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CollectionName string            `gorm:"not null;index"`
	DocumentName   string            `gorm:"not null;index"`
	Content        string            `gorm:"type:text"`
	Metadata       datatypes.JSONMap `gorm:"type:jsonb"`
	EmbeddingValue pgvector.Vector   `gorm:"type:vector(1024)"` // nv-embedqa-e5-v5 uses 1024 dimensions
	ChunkIndex     int               `gorm:"default:0"` // 0-based index for ordering
	CreatedAt      time.Time         `gorm:"autoCreateTime"`
}

func (DocumentChunk) TableName() string {
	return "document_chunks"
}
