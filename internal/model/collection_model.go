package model

import (
	"time"

	"github.com/google/uuid"
)

type Collection struct {
	Id                 uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name               string    `gorm:"uniqueIndex;not null"`
	EmbeddingDimension int       `gorm:"default:1024"`
	CreatedAt          time.Time `gorm:"autoCreateTime"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime"`
}

func (Collection) TableName() string {
	return "collections"
}
