package dto

// CreateCollectionRequest is the body of POST /api/collection/v1.
type CreateCollectionRequest struct {
	CollectionName     string `json:"collection_name" validate:"required,min=1,max=255"`
	EmbeddingDimension int    `json:"embedding_dimension,omitempty" validate:"omitempty,min=1,max=4096"`
}

// CollectionInfo describes one collection and its chunk count.
type CollectionInfo struct {
	CollectionName     string `json:"collection_name"`
	EmbeddingDimension int    `json:"embedding_dimension"`
	NumEntities        int64  `json:"num_entities"`
}
