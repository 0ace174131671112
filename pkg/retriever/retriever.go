package retriever

import (
	"context"
	"errors"
)

// ErrUnavailable marks a vector store that could not be reached or a
// collection that does not exist. Retrieval failures are never reported as
// an empty result set.
var ErrUnavailable = errors.New("retriever: vector store unavailable")

// Document is one retrieved content chunk. Score is nil until a reranker
// (or the vector store itself) assigns a relevance score.
type Document struct {
	Content  string
	Metadata map[string]any
	Score    *float64
}

// ContentMetadata returns the nested content_metadata mapping, or an empty
// map when the document does not carry one.
func (d *Document) ContentMetadata() map[string]any {
	if d.Metadata == nil {
		return map[string]any{}
	}
	if cm, ok := d.Metadata["content_metadata"].(map[string]any); ok {
		return cm
	}
	return map[string]any{}
}

// MetadataString returns a string-valued metadata field, or "" when absent.
func (d *Document) MetadataString(key string) string {
	if d.Metadata == nil {
		return ""
	}
	if s, ok := d.Metadata[key].(string); ok {
		return s
	}
	return ""
}

// SetScore stores a relevance score on the document.
func (d *Document) SetScore(score float64) {
	d.Score = &score
}

// ScoreOrZero returns the relevance score, or 0 when absent.
func (d *Document) ScoreOrZero() float64 {
	if d.Score == nil {
		return 0
	}
	return *d.Score
}

// Retriever fetches the top-k most similar chunks for a query within a
// named collection.
type Retriever interface {
	Retrieve(ctx context.Context, query string, collection string, topK int) ([]*Document, error)
}
