package entity

import (
	"time"

	"github.com/google/uuid"
)

type Collection struct {
	Id                 uuid.UUID
	Name               string
	EmbeddingDimension int
	CreatedAt          time.Time
	UpdatedAt          *time.Time
}
