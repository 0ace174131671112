package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pinecone-io/nvidia-rag/internal/config"
	"github.com/pinecone-io/nvidia-rag/internal/dto"
	"github.com/pinecone-io/nvidia-rag/internal/pkg/logger"
	"github.com/pinecone-io/nvidia-rag/pkg/llm"
	"github.com/pinecone-io/nvidia-rag/pkg/rag/decompose"
	"github.com/pinecone-io/nvidia-rag/pkg/rag/response"
	"github.com/pinecone-io/nvidia-rag/pkg/retriever"
)

type stubProvider struct {
	mu          sync.Mutex
	invokeText  string
	streamText  string
	invokeCalls int
	streamOpts  llm.Options
}

func (s *stubProvider) Invoke(context.Context, string, ...llm.Option) (string, error) {
	s.mu.Lock()
	s.invokeCalls++
	s.mu.Unlock()
	return s.invokeText, nil
}

func (s *stubProvider) Chat(context.Context, []llm.Message, ...llm.Option) (string, error) {
	return "answer", nil
}

func (s *stubProvider) Stream(_ context.Context, _ []llm.Message, options ...llm.Option) (<-chan llm.Delta, error) {
	s.mu.Lock()
	for _, opt := range options {
		opt(&s.streamOpts)
	}
	s.mu.Unlock()

	out := make(chan llm.Delta, 1)
	out <- llm.Delta{Content: s.streamText}
	close(out)
	return out, nil
}

func (s *stubProvider) Model() string { return "stub" }

type stubRetriever struct {
	mu      sync.Mutex
	queries []string
}

func (s *stubRetriever) Retrieve(_ context.Context, query, _ string, _ int) ([]*retriever.Document, error) {
	s.mu.Lock()
	s.queries = append(s.queries, query)
	s.mu.Unlock()
	return []*retriever.Document{{Content: "ctx"}}, nil
}

func newTestGenerationService(provider llm.Provider, ret retriever.Retriever) IGenerationService {
	responder := response.NewGenerator(nil, logger.NewNopLogger())
	engine := decompose.NewEngine(provider, responder, logger.NewNopLogger())
	return NewGenerationService(
		engine,
		responder,
		provider,
		ret,
		nil,
		config.RetrievalConfig{TopK: 4, RecursionDepth: 2},
		config.AIConfig{Temperature: 0.2, MaxTokens: 1024},
		logger.NewNopLogger(),
	)
}

func drainText(stream <-chan dto.ChainResponse) string {
	var out string
	for c := range stream {
		if len(c.Choices) > 0 {
			out += c.Choices[0].Delta.Content
		}
	}
	return out
}

func boolPtr(v bool) *bool { return &v }

func TestGenerate_NoUserMessage(t *testing.T) {
	svc := newTestGenerationService(&stubProvider{}, &stubRetriever{})

	_, err := svc.Generate(context.Background(), &dto.GenerateRequest{
		CollectionName: "col",
		Messages:       []dto.ChatMessage{{Role: "assistant", Content: "hi"}},
	})

	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestGenerate_WithoutKnowledgeBaseSkipsRetrieval(t *testing.T) {
	ret := &stubRetriever{}
	svc := newTestGenerationService(&stubProvider{streamText: "plain answer"}, ret)

	stream, err := svc.Generate(context.Background(), &dto.GenerateRequest{
		CollectionName:   "col",
		UseKnowledgeBase: boolPtr(false),
		Messages:         []dto.ChatMessage{{Role: "user", Content: "hello"}},
	})

	assert.NoError(t, err)
	assert.Equal(t, "plain answer", drainText(stream))
	assert.Empty(t, ret.queries)
}

func TestGenerate_PlainRAGWhenDecompositionDisabled(t *testing.T) {
	ret := &stubRetriever{}
	provider := &stubProvider{streamText: "rag answer"}
	svc := newTestGenerationService(provider, ret)

	stream, err := svc.Generate(context.Background(), &dto.GenerateRequest{
		CollectionName:           "col",
		EnableQueryDecomposition: boolPtr(false),
		Messages:                 []dto.ChatMessage{{Role: "user", Content: "what is a fox?"}},
	})

	assert.NoError(t, err)
	assert.Equal(t, "rag answer", drainText(stream))
	// A single retrieval for the raw query, no decomposition prompts
	assert.Equal(t, []string{"what is a fox?"}, ret.queries)
	assert.Equal(t, 0, provider.invokeCalls)
}

func TestGenerate_SamplingDefaultsFromConfig(t *testing.T) {
	provider := &stubProvider{streamText: "x"}
	svc := newTestGenerationService(provider, &stubRetriever{})

	stream, err := svc.Generate(context.Background(), &dto.GenerateRequest{
		CollectionName:   "col",
		UseKnowledgeBase: boolPtr(false),
		Messages:         []dto.ChatMessage{{Role: "user", Content: "hello"}},
	})
	assert.NoError(t, err)
	drainText(stream)

	assert.Equal(t, 0.2, provider.streamOpts.Temperature)
	assert.Equal(t, 1024, provider.streamOpts.MaxTokens)
}

func TestGenerate_RequestSamplingOverridesDefaults(t *testing.T) {
	provider := &stubProvider{streamText: "x"}
	svc := newTestGenerationService(provider, &stubRetriever{})

	stream, err := svc.Generate(context.Background(), &dto.GenerateRequest{
		CollectionName:   "col",
		UseKnowledgeBase: boolPtr(false),
		Temperature:      0.9,
		MaxTokens:        64,
		Messages:         []dto.ChatMessage{{Role: "user", Content: "hello"}},
	})
	assert.NoError(t, err)
	drainText(stream)

	assert.Equal(t, 0.9, provider.streamOpts.Temperature)
	assert.Equal(t, 64, provider.streamOpts.MaxTokens)
}

func TestGenerate_DecompositionUsesLastUserMessage(t *testing.T) {
	ret := &stubRetriever{}
	provider := &stubProvider{invokeText: "1. only one", streamText: "x"}
	svc := newTestGenerationService(provider, ret)

	stream, err := svc.Generate(context.Background(), &dto.GenerateRequest{
		CollectionName: "col",
		Messages: []dto.ChatMessage{
			{Role: "user", Content: "earlier question"},
			{Role: "assistant", Content: "earlier answer"},
			{Role: "user", Content: "latest question"},
		},
	})

	assert.NoError(t, err)
	drainText(stream)
	assert.Equal(t, []string{"latest question"}, ret.queries)
}
