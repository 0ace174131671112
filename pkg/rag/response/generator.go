package response

import (
	"context"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/pinecone-io/nvidia-rag/internal/dto"
	"github.com/pinecone-io/nvidia-rag/internal/pkg/logger"
	"github.com/pinecone-io/nvidia-rag/pkg/llm"
	"github.com/pinecone-io/nvidia-rag/pkg/objectstore"
	"github.com/pinecone-io/nvidia-rag/pkg/retriever"
)

// FallbackExceptionMsg is streamed when generation fails for a reason the
// client has no business knowing. Detail goes to the logs.
const FallbackExceptionMsg = "Error from rag-server. Please check rag-server logs for more details."

// RetrievalExceptionMsg is streamed when the vector store is unreachable
// or the collection is empty.
const RetrievalExceptionMsg = "Error from vector database server. Please ensure you have ingested some documents. Please check rag-server logs for more details."

// errorChunkSize is how many characters of an error message go into each
// chunk, emulating incremental delivery.
const errorChunkSize = 5

const (
	logModule   = "RESPONSE_GENERATOR"
	objectType  = "chat.completion.chunk"
	finishStop  = "stop"
	channelSize = 8
)

// citationTypes are the document types allowed into a citations block.
var citationTypes = map[string]bool{
	"image": true,
	"text":  true,
	"table": true,
	"chart": true,
	"audio": true,
}

// Generator assembles the streamed chunks of a final answer: it wraps LM
// deltas into ChainResponse values, attaches citations, and guarantees the
// stream terminates cleanly even on failure.
type Generator struct {
	store objectstore.Store
	log   logger.ILogger
}

func NewGenerator(store objectstore.Store, log logger.ILogger) *Generator {
	return &Generator{
		store: store,
		log:   log,
	}
}

// Stream converts LM deltas into response chunks in emission order. The
// returned channel closes after a terminating chunk carrying a stop
// marker; if the model fails mid-stream, a sanitized error message is
// streamed instead of raising to the caller. Abandoning the channel via
// ctx cancellation stops emission without further chunks.
func (g *Generator) Stream(
	ctx context.Context,
	deltas <-chan llm.Delta,
	contexts []*retriever.Document,
	model string,
	collectionName string,
	enableCitations bool,
) <-chan dto.ChainResponse {
	out := make(chan dto.ChainResponse, channelSize)

	go func() {
		defer close(out)

		respID := uuid.NewString()

		var citations *dto.Citations
		if enableCitations {
			prepared := g.PrepareCitations(ctx, contexts, collectionName, enableCitations)
			citations = &prepared
		}

		for delta := range deltas {
			if delta.Err != nil {
				g.log.Error(logModule, "Generation failed mid-stream", map[string]interface{}{"error": delta.Err.Error()})
				g.emitError(ctx, out, FallbackExceptionMsg)
				return
			}

			var chunk dto.ChainResponse
			if delta.Content != "" {
				chunk = dto.ChainResponse{
					Id: respID,
					Choices: []dto.ChainResponseChoices{{
						Index:   0,
						Message: dto.AssistantMessage(delta.Content),
						Delta:   dto.DeltaMessage(delta.Content),
					}},
					Model:     model,
					Object:    objectType,
					Created:   time.Now().Unix(),
					Citations: citations,
				}
			}

			select {
			case out <- chunk:
			case <-ctx.Done():
				return
			}
		}

		finish := finishStop
		terminal := dto.ChainResponse{
			Id: respID,
			Choices: []dto.ChainResponseChoices{{
				Index:        0,
				Message:      dto.AssistantMessage(""),
				Delta:        dto.DeltaMessage(""),
				FinishReason: &finish,
			}},
			Model:   model,
			Object:  objectType,
			Created: time.Now().Unix(),
		}

		select {
		case out <- terminal:
		case <-ctx.Done():
		}
	}()

	return out
}

// ErrorStream produces a terminating stream for a failure that happened
// before generation started. Cancelling ctx abandons the stream without
// emitting further chunks.
func (g *Generator) ErrorStream(ctx context.Context, message string) <-chan dto.ChainResponse {
	out := make(chan dto.ChainResponse, channelSize)
	go func() {
		defer close(out)
		g.emitError(ctx, out, message)
	}()
	return out
}

// emitError chunks the message into fixed-size pieces followed by a stop
// chunk, so error delivery looks like any other stream to the client.
func (g *Generator) emitError(ctx context.Context, out chan<- dto.ChainResponse, message string) {
	for i := 0; i < len(message); i += errorChunkSize {
		end := i + errorChunkSize
		if end > len(message) {
			end = len(message)
		}
		select {
		case out <- errorChunk(message[i:end], nil):
		case <-ctx.Done():
			return
		}
	}

	finish := finishStop
	select {
	case out <- errorChunk("", &finish):
	case <-ctx.Done():
	}
}

func errorChunk(content string, finishReason *string) dto.ChainResponse {
	return dto.ChainResponse{
		Id: uuid.NewString(),
		Choices: []dto.ChainResponseChoices{{
			Index:        0,
			Message:      dto.AssistantMessage(content),
			Delta:        dto.DeltaMessage(content),
			FinishReason: finishReason,
		}},
		Object:  objectType,
		Created: time.Now().Unix(),
	}
}

// PrepareCitations projects the accumulated contexts into the citation
// block. Text and audio chunks cite their page content directly; image,
// table and chart chunks resolve their rendered content from the object
// store. Documents whose content cannot be resolved are skipped, so
// TotalResults counts only usable citations.
func (g *Generator) PrepareCitations(
	ctx context.Context,
	documents []*retriever.Document,
	collectionName string,
	enableCitations bool,
) dto.Citations {
	var results []dto.SourceResult

	for _, doc := range documents {
		fileName := resolveFileName(doc)
		contentMeta := doc.ContentMetadata()
		contentType, _ := contentMeta["type"].(string)

		var (
			content      string
			documentType string
			metadata     dto.SourceMetadata
		)

		switch contentType {
		case "text", "audio":
			content = doc.Content
			documentType = contentType
			metadata = dto.SourceMetadata{
				Description:     doc.Content,
				ContentMetadata: contentMeta,
			}

		case "image", "structured":
			pageNumber := toInt(contentMeta["page_number"])
			location := toFloatSlice(contentMeta["location"])
			if contentType == "image" {
				documentType = "image"
			} else {
				documentType, _ = contentMeta["subtype"].(string)
			}

			metadata = dto.SourceMetadata{
				Description:     doc.Content,
				ContentMetadata: contentMeta,
			}

			if enableCitations && g.store != nil {
				collection := doc.MetadataString("collection_name")
				if collection == "" {
					collection = collectionName
				}
				objectName := objectstore.UniqueContentID(collection, fileName, pageNumber, location)
				payload, err := g.store.GetPayload(ctx, objectName)
				if err != nil {
					// Unresolvable side-content: describe the document but
					// leave it out of the final block
					g.log.Error(logModule, "Failed to pull citation content from object store", map[string]interface{}{
						"object": objectName,
						"error":  err.Error(),
					})
					content = ""
				} else {
					content, _ = payload["content"].(string)
					metadata.PageNumber = pageNumber
					metadata.Location = location
				}
			}

		default:
			// Plain-text source without content metadata
			content = doc.Content
			documentType = "text"
			metadata = dto.SourceMetadata{
				Description:     doc.Content,
				ContentMetadata: contentMeta,
			}
		}

		if content == "" || !citationTypes[documentType] {
			continue
		}

		results = append(results, dto.SourceResult{
			Content:      content,
			DocumentType: documentType,
			DocumentName: fileName,
			Score:        doc.ScoreOrZero(),
			Metadata:     metadata,
		})
	}

	return dto.Citations{
		TotalResults: len(results),
		Results:      results,
	}
}

func resolveFileName(doc *retriever.Document) string {
	switch source := doc.Metadata["source"].(type) {
	case string:
		return filepath.Base(source)
	case map[string]any:
		if id, ok := source["source_id"].(string); ok {
			return filepath.Base(id)
		}
	}
	return ""
}

func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}

func toFloatSlice(v any) []float64 {
	switch loc := v.(type) {
	case []float64:
		return loc
	case []any:
		out := make([]float64, 0, len(loc))
		for _, item := range loc {
			if f, ok := item.(float64); ok {
				out = append(out, f)
			}
		}
		return out
	}
	return nil
}
