package response

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/pinecone-io/nvidia-rag/internal/dto"
	"github.com/pinecone-io/nvidia-rag/internal/pkg/logger"
	"github.com/pinecone-io/nvidia-rag/pkg/llm"
	"github.com/pinecone-io/nvidia-rag/pkg/objectstore"
	"github.com/pinecone-io/nvidia-rag/pkg/retriever"
)

// fakeStore is an in-memory object store for citation tests.
type fakeStore struct {
	payloads map[string]map[string]any
}

func (f *fakeStore) GetPayload(_ context.Context, objectName string) (map[string]any, error) {
	if p, ok := f.payloads[objectName]; ok {
		return p, nil
	}
	return nil, objectstore.ErrNotFound
}

func (f *fakeStore) PutPayload(_ context.Context, objectName string, payload map[string]any) error {
	f.payloads[objectName] = payload
	return nil
}

func (f *fakeStore) DeletePayloads(_ context.Context, prefix string) error {
	for k := range f.payloads {
		if strings.HasPrefix(k, prefix) {
			delete(f.payloads, k)
		}
	}
	return nil
}

func deltaChannel(deltas ...llm.Delta) <-chan llm.Delta {
	out := make(chan llm.Delta, len(deltas))
	for _, d := range deltas {
		out <- d
	}
	close(out)
	return out
}

func drain(stream <-chan dto.ChainResponse) []dto.ChainResponse {
	var chunks []dto.ChainResponse
	for c := range stream {
		chunks = append(chunks, c)
	}
	return chunks
}

func textDoc(content, source string) *retriever.Document {
	return &retriever.Document{
		Content: content,
		Metadata: map[string]any{
			"source": source,
			"content_metadata": map[string]any{
				"type": "text",
			},
		},
	}
}

func TestStream_TerminatesWithStop(t *testing.T) {
	g := NewGenerator(nil, logger.NewNopLogger())

	stream := g.Stream(context.Background(),
		deltaChannel(llm.Delta{Content: "hello "}, llm.Delta{Content: "world"}),
		nil, "m", "col", false)
	chunks := drain(stream)

	assert.GreaterOrEqual(t, len(chunks), 3)

	var text strings.Builder
	for _, c := range chunks[:len(chunks)-1] {
		if len(c.Choices) > 0 {
			text.WriteString(c.Choices[0].Delta.Content)
		}
	}
	assert.Equal(t, "hello world", text.String())

	last := chunks[len(chunks)-1]
	assert.NotNil(t, last.Choices[0].FinishReason)
	assert.Equal(t, "stop", *last.Choices[0].FinishReason)
	assert.Empty(t, last.Choices[0].Delta.Content)
}

func TestStream_SharesResponseID(t *testing.T) {
	g := NewGenerator(nil, logger.NewNopLogger())

	stream := g.Stream(context.Background(),
		deltaChannel(llm.Delta{Content: "a"}, llm.Delta{Content: "b"}),
		nil, "m", "col", false)
	chunks := drain(stream)

	id := chunks[0].Id
	assert.NotEmpty(t, id)
	for _, c := range chunks {
		assert.Equal(t, id, c.Id)
	}
}

func TestStream_MidStreamErrorBecomesSanitizedMessage(t *testing.T) {
	g := NewGenerator(nil, logger.NewNopLogger())

	stream := g.Stream(context.Background(),
		deltaChannel(llm.Delta{Content: "par"}, llm.Delta{Err: errors.New("boom")}),
		nil, "m", "col", false)
	chunks := drain(stream)

	var text strings.Builder
	finish := ""
	for _, c := range chunks {
		if len(c.Choices) == 0 {
			continue
		}
		text.WriteString(c.Choices[0].Delta.Content)
		if c.Choices[0].FinishReason != nil {
			finish = *c.Choices[0].FinishReason
		}
	}

	assert.Contains(t, text.String(), FallbackExceptionMsg)
	assert.Equal(t, "stop", finish)
}

func TestErrorStream_ChunksByFive(t *testing.T) {
	g := NewGenerator(nil, logger.NewNopLogger())

	chunks := drain(g.ErrorStream(context.Background(), RetrievalExceptionMsg))

	// every chunk except the terminator carries at most five characters
	var text strings.Builder
	for i, c := range chunks {
		content := c.Choices[0].Delta.Content
		if i < len(chunks)-1 {
			assert.LessOrEqual(t, len(content), errorChunkSize)
			assert.NotEmpty(t, content)
		}
		text.WriteString(content)
	}

	assert.Equal(t, RetrievalExceptionMsg, text.String())

	last := chunks[len(chunks)-1]
	assert.NotNil(t, last.Choices[0].FinishReason)
	assert.Equal(t, "stop", *last.Choices[0].FinishReason)
}

func TestErrorStream_AbandonedOnCancel(t *testing.T) {
	g := NewGenerator(nil, logger.NewNopLogger())

	// FallbackExceptionMsg splits into more chunks than the channel
	// buffers, so the producer must rely on the consumer or the ctx.
	ctx, cancel := context.WithCancel(context.Background())
	stream := g.ErrorStream(ctx, FallbackExceptionMsg)

	<-stream
	cancel()

	// let the producer observe cancellation before draining
	time.Sleep(50 * time.Millisecond)

	for c := range stream {
		if len(c.Choices) > 0 {
			assert.Nil(t, c.Choices[0].FinishReason)
		}
	}
}

func TestPrepareCitations_TextUsesPageContent(t *testing.T) {
	g := NewGenerator(nil, logger.NewNopLogger())

	citations := g.PrepareCitations(context.Background(),
		[]*retriever.Document{textDoc("chunk body", "docs/report.pdf")},
		"col", true)

	assert.Equal(t, 1, citations.TotalResults)
	assert.Equal(t, "chunk body", citations.Results[0].Content)
	assert.Equal(t, "text", citations.Results[0].DocumentType)
	assert.Equal(t, "report.pdf", citations.Results[0].DocumentName)
}

func TestPrepareCitations_EmptyContentSkipped(t *testing.T) {
	g := NewGenerator(nil, logger.NewNopLogger())

	citations := g.PrepareCitations(context.Background(),
		[]*retriever.Document{textDoc("", "a.txt")},
		"col", true)

	assert.Equal(t, 0, citations.TotalResults)
}

func TestPrepareCitations_ImageResolvedFromObjectStore(t *testing.T) {
	objectName := objectstore.UniqueContentID("col", "scan.pdf", 3, []float64{1, 2, 3, 4})
	store := &fakeStore{payloads: map[string]map[string]any{
		objectName: {"content": "base64imagedata"},
	}}
	g := NewGenerator(store, logger.NewNopLogger())

	doc := &retriever.Document{
		Content: "an image of a chart",
		Metadata: map[string]any{
			"source": "scan.pdf",
			"content_metadata": map[string]any{
				"type":        "image",
				"page_number": 3,
				"location":    []float64{1, 2, 3, 4},
			},
		},
	}

	citations := g.PrepareCitations(context.Background(), []*retriever.Document{doc}, "col", true)

	assert.Equal(t, 1, citations.TotalResults)
	assert.Equal(t, "base64imagedata", citations.Results[0].Content)
	assert.Equal(t, "image", citations.Results[0].DocumentType)
	assert.Equal(t, 3, citations.Results[0].Metadata.PageNumber)
}

func TestPrepareCitations_MissingPayloadSkipsDocument(t *testing.T) {
	store := &fakeStore{payloads: map[string]map[string]any{}}
	g := NewGenerator(store, logger.NewNopLogger())

	doc := &retriever.Document{
		Content: "structured table",
		Metadata: map[string]any{
			"source": "data.pdf",
			"content_metadata": map[string]any{
				"type":        "structured",
				"subtype":     "table",
				"page_number": 1,
				"location":    []float64{},
			},
		},
	}

	citations := g.PrepareCitations(context.Background(), []*retriever.Document{doc}, "col", true)

	assert.Equal(t, 0, citations.TotalResults)
}

func TestPrepareCitations_UnknownTypeFallsBackToText(t *testing.T) {
	g := NewGenerator(nil, logger.NewNopLogger())

	doc := &retriever.Document{
		Content:  "bare chunk",
		Metadata: map[string]any{"source": "notes.txt"},
	}

	citations := g.PrepareCitations(context.Background(), []*retriever.Document{doc}, "col", true)

	assert.Equal(t, 1, citations.TotalResults)
	assert.Equal(t, "text", citations.Results[0].DocumentType)
}
