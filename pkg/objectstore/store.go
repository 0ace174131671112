package objectstore

import (
	"context"
	"crypto/md5"
	"errors"
	"fmt"
)

// ErrNotFound is returned when no payload exists for the requested object.
var ErrNotFound = errors.New("objectstore: object not found")

// Store holds side-content that does not live in the vector store: rendered
// thumbnails for image/table/chart chunks and per-document summaries.
type Store interface {
	GetPayload(ctx context.Context, objectName string) (map[string]any, error)
	PutPayload(ctx context.Context, objectName string, payload map[string]any) error
	DeletePayloads(ctx context.Context, prefix string) error
}

// UniqueContentID derives the deterministic object name for a chunk's
// rendered content from its coordinates. The same tuple always maps to the
// same object, so citation lookup needs no extra index. The collection and
// file name stay in the clear so DeletePayloads can sweep by prefix.
func UniqueContentID(collection, fileName string, pageNumber int, location []float64) string {
	key := fmt.Sprintf("%d::%v", pageNumber, location)
	return fmt.Sprintf("%s/%s/%x", collection, fileName, md5.Sum([]byte(key)))
}

// SummaryObjectName is where a document's generated summary lives. It
// shares the collection/fileName prefix with chunk payloads so deleting a
// document sweeps its summary too.
func SummaryObjectName(collection, fileName string) string {
	return fmt.Sprintf("%s/%s/summary", collection, fileName)
}
