package pgvector

import (
	"context"
	"fmt"

	"github.com/pinecone-io/nvidia-rag/internal/entity"
	"github.com/pinecone-io/nvidia-rag/internal/repository/contract"
	"github.com/pinecone-io/nvidia-rag/pkg/embedding"
	"github.com/pinecone-io/nvidia-rag/pkg/retriever"
)

// VectorRetriever resolves queries against document chunks stored in
// Postgres with pgvector. The query is embedded on the fly and matched by
// cosine distance within one collection.
type VectorRetriever struct {
	chunks      contract.ChunkRepository
	collections contract.CollectionRepository
	embedder    embedding.Provider
}

var _ retriever.Retriever = &VectorRetriever{}

func NewVectorRetriever(
	chunks contract.ChunkRepository,
	collections contract.CollectionRepository,
	embedder embedding.Provider,
) *VectorRetriever {
	return &VectorRetriever{
		chunks:      chunks,
		collections: collections,
		embedder:    embedder,
	}
}

func (r *VectorRetriever) Retrieve(ctx context.Context, query string, collection string, topK int) ([]*retriever.Document, error) {
	col, err := r.collections.FindByName(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", retriever.ErrUnavailable, err)
	}
	if col == nil {
		return nil, fmt.Errorf("%w: collection %q does not exist", retriever.ErrUnavailable, collection)
	}

	vectors, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	chunks, err := r.chunks.SearchSimilar(ctx, collection, vectors[0], topK)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", retriever.ErrUnavailable, err)
	}

	docs := make([]*retriever.Document, len(chunks))
	for i, chunk := range chunks {
		docs[i] = toDocument(chunk)
	}
	return docs, nil
}

func toDocument(chunk *entity.DocumentChunk) *retriever.Document {
	metadata := make(map[string]any, len(chunk.Metadata)+2)
	for k, v := range chunk.Metadata {
		metadata[k] = v
	}
	metadata["source"] = chunk.DocumentName
	metadata["collection_name"] = chunk.CollectionName

	return &retriever.Document{
		Content:  chunk.Content,
		Metadata: metadata,
	}
}
