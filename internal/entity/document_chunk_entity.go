package entity

import (
	"time"

	"github.com/google/uuid"
)

// DocumentChunk is one embedded slice of an ingested document. Metadata
// carries the source identifier plus the content_metadata block
// (type/subtype/page_number/location) the citation builder reads.
type DocumentChunk struct {
	Id             uuid.UUID
	CollectionName string
	DocumentName   string
	Content        string
	Metadata       map[string]any
	EmbeddingValue []float32
	ChunkIndex     int
	CreatedAt      time.Time
}
