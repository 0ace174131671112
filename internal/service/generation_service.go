package service

import (
	"context"
	"errors"

	"github.com/pinecone-io/nvidia-rag/internal/config"
	"github.com/pinecone-io/nvidia-rag/internal/dto"
	"github.com/pinecone-io/nvidia-rag/internal/pkg/logger"
	"github.com/pinecone-io/nvidia-rag/pkg/llm"
	"github.com/pinecone-io/nvidia-rag/pkg/rag/decompose"
	"github.com/pinecone-io/nvidia-rag/pkg/rag/prompt"
	"github.com/pinecone-io/nvidia-rag/pkg/rag/response"
	"github.com/pinecone-io/nvidia-rag/pkg/reranker"
	"github.com/pinecone-io/nvidia-rag/pkg/retriever"
)

const generationLogModule = "GENERATION"

// ErrEmptyQuery is returned when no user message carries a question.
var ErrEmptyQuery = errors.New("no user message found in request")

type IGenerationService interface {
	Generate(ctx context.Context, req *dto.GenerateRequest) (<-chan dto.ChainResponse, error)
}

type generationService struct {
	engine      *decompose.Engine
	responder   *response.Generator
	llmProvider llm.Provider
	retriever   retriever.Retriever
	reranker    reranker.Reranker
	defaults    config.RetrievalConfig
	model       config.AIConfig
	log         logger.ILogger
}

func NewGenerationService(
	engine *decompose.Engine,
	responder *response.Generator,
	llmProvider llm.Provider,
	docRetriever retriever.Retriever,
	docReranker reranker.Reranker,
	defaults config.RetrievalConfig,
	model config.AIConfig,
	log logger.ILogger,
) IGenerationService {
	return &generationService{
		engine:      engine,
		responder:   responder,
		llmProvider: llmProvider,
		retriever:   docRetriever,
		reranker:    docReranker,
		defaults:    defaults,
		model:       model,
		log:         log,
	}
}

// Generate answers one chat request. Three shapes, picked by the request
// flags: a direct model call without retrieval, a plain
// retrieve-rerank-answer pass, or the full query decomposition loop.
func (s *generationService) Generate(ctx context.Context, req *dto.GenerateRequest) (<-chan dto.ChainResponse, error) {
	query := lastUserMessage(req.Messages)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	if !boolOrDefault(req.UseKnowledgeBase, true) {
		return s.generateDirect(ctx, req)
	}

	topK := req.TopK
	if topK <= 0 {
		topK = s.defaults.TopK
	}
	threshold := req.ConfidenceThreshold
	if threshold <= 0 {
		threshold = s.defaults.ConfidenceThreshold
	}
	depth := req.RecursionDepth
	if depth <= 0 {
		depth = s.defaults.RecursionDepth
	}

	var docReranker reranker.Reranker
	if boolOrDefault(req.EnableReranker, s.defaults.EnableReranker) {
		docReranker = s.reranker
	}
	enableCitations := boolOrDefault(req.EnableCitations, s.defaults.EnableCitations)

	if boolOrDefault(req.EnableQueryDecomposition, true) {
		return s.engine.Answer(ctx, decompose.Request{
			Query:               query,
			Retriever:           s.retriever,
			Reranker:            docReranker,
			RecursionDepth:      depth,
			EnableCitations:     enableCitations,
			CollectionName:      req.CollectionName,
			TopK:                topK,
			ConfidenceThreshold: threshold,
		})
	}

	return s.generatePlain(ctx, req, query, topK, threshold, docReranker, enableCitations)
}

// generateDirect answers from the model alone, without touching the
// knowledge base.
func (s *generationService) generateDirect(ctx context.Context, req *dto.GenerateRequest) (<-chan dto.ChainResponse, error) {
	s.log.Info(generationLogModule, "Generating without knowledge base", nil)

	deltas, err := s.llmProvider.Stream(ctx, toLLMMessages(req.Messages), s.requestOptions(req)...)
	if err != nil {
		s.log.Error(generationLogModule, "Direct generation failed", map[string]interface{}{"error": err.Error()})
		return s.responder.ErrorStream(ctx, response.FallbackExceptionMsg), nil
	}

	return s.responder.Stream(ctx, deltas, nil, s.llmProvider.Model(), req.CollectionName, false), nil
}

// generatePlain is a single retrieve-rerank-answer pass over the query.
func (s *generationService) generatePlain(
	ctx context.Context,
	req *dto.GenerateRequest,
	query string,
	topK int,
	threshold float64,
	docReranker reranker.Reranker,
	enableCitations bool,
) (<-chan dto.ChainResponse, error) {
	docs, err := s.retriever.Retrieve(ctx, query, req.CollectionName, topK)
	if err != nil {
		return s.failStream(ctx, err), nil
	}

	if docReranker != nil && len(docs) > 0 {
		docs, err = docReranker.Rerank(ctx, query, docs)
		if err != nil {
			return s.failStream(ctx, err), nil
		}
		docs = decompose.NormalizeRelevanceScores(docs, false, threshold)
	}

	messages := []llm.Message{
		{Role: "system", Content: prompt.RAGSystem(decompose.StringifyContexts(docs))},
		{Role: "user", Content: query},
	}

	deltas, err := s.llmProvider.Stream(ctx, messages, s.requestOptions(req)...)
	if err != nil {
		return s.failStream(ctx, err), nil
	}

	return s.responder.Stream(ctx, deltas, docs, s.llmProvider.Model(), req.CollectionName, enableCitations), nil
}

func (s *generationService) failStream(ctx context.Context, err error) <-chan dto.ChainResponse {
	s.log.Error(generationLogModule, "Generation failed", map[string]interface{}{"error": err.Error()})

	if errors.Is(err, retriever.ErrUnavailable) {
		return s.responder.ErrorStream(ctx, response.RetrievalExceptionMsg)
	}
	return s.responder.ErrorStream(ctx, response.FallbackExceptionMsg)
}

// requestOptions maps request sampling knobs onto model options, falling
// back to the configured defaults when the request leaves them unset.
func (s *generationService) requestOptions(req *dto.GenerateRequest) []llm.Option {
	temperature := req.Temperature
	if temperature <= 0 {
		temperature = s.model.Temperature
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = s.model.MaxTokens
	}

	var opts []llm.Option
	if temperature > 0 {
		opts = append(opts, llm.WithTemperature(temperature))
	}
	if maxTokens > 0 {
		opts = append(opts, llm.WithMaxTokens(maxTokens))
	}
	return opts
}

func lastUserMessage(messages []dto.ChatMessage) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			return messages[i].Content
		}
	}
	return ""
}

func toLLMMessages(messages []dto.ChatMessage) []llm.Message {
	out := make([]llm.Message, len(messages))
	for i, m := range messages {
		out[i] = llm.Message{Role: m.Role, Content: m.Content}
	}
	return out
}

func boolOrDefault(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}
