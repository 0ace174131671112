package reranker

import (
	"context"

	"github.com/pinecone-io/nvidia-rag/pkg/retriever"
)

// Reranker re-scores a candidate set against a query using a dedicated
// relevance model. Implementations populate Document.Score and may return
// fewer documents than they were given.
type Reranker interface {
	Rerank(ctx context.Context, query string, documents []*retriever.Document) ([]*retriever.Document, error)
}
