package decompose

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/pinecone-io/nvidia-rag/internal/dto"
	"github.com/pinecone-io/nvidia-rag/internal/pkg/logger"
	"github.com/pinecone-io/nvidia-rag/pkg/llm"
	"github.com/pinecone-io/nvidia-rag/pkg/rag/prompt"
	"github.com/pinecone-io/nvidia-rag/pkg/rag/response"
	"github.com/pinecone-io/nvidia-rag/pkg/reranker"
	"github.com/pinecone-io/nvidia-rag/pkg/retriever"
)

// ErrNoRetriever is the configuration error raised when a decomposition run
// is started without a retriever. It is returned before any chunk is
// streamed; every later failure arrives inside the stream instead.
var ErrNoRetriever = errors.New("decompose: at least one retriever must be provided")

const logModule = "QUERY_DECOMPOSITION"

// Request carries everything one decomposition run needs. History and
// Contexts accumulated during the run are owned by the run alone; the
// adapters are shared, stateless services.
type Request struct {
	Query               string
	Retriever           retriever.Retriever
	Reranker            reranker.Reranker // optional; nil disables reranking
	RecursionDepth      int
	EnableCitations     bool
	CollectionName      string
	TopK                int
	ConfidenceThreshold float64
}

// Engine drives the iterative decomposition loop: split the query into
// sub-questions, answer each with contextual rewriting and retrieval,
// ask for a follow-up, and hand the accumulated state to the response
// generator for final synthesis.
type Engine struct {
	llm       llm.Provider
	responder *response.Generator
	log       logger.ILogger
}

func NewEngine(provider llm.Provider, responder *response.Generator, log logger.ILogger) *Engine {
	return &Engine{
		llm:       provider,
		responder: responder,
		log:       log,
	}
}

// Answer runs the full decomposition pipeline and returns the final
// response stream. Only a missing retriever is returned as an error;
// collaborator failures are logged and surfaced as a sanitized error
// stream so the client always receives a well-formed terminating stream.
func (e *Engine) Answer(ctx context.Context, req Request) (<-chan dto.ChainResponse, error) {
	if req.Retriever == nil {
		return nil, ErrNoRetriever
	}

	e.log.Info(logModule, "Starting query decomposition", map[string]interface{}{
		"collection": req.CollectionName,
		"depth":      req.RecursionDepth,
	})

	questions, err := e.GenerateSubqueries(ctx, req.Query)
	if err != nil {
		return e.failStream(ctx, err), nil
	}

	// A single sub-question means the query needs no decomposition:
	// answer it directly with plain retrieval and empty history.
	if len(questions) == 1 {
		e.log.Info(logModule, "No decomposition needed, using RAG directly", nil)
		return e.singleShot(ctx, req)
	}

	var (
		roundHistory  []Turn
		finalContexts []*retriever.Document
	)

	rounds := req.RecursionDepth
	followups := true
	if rounds <= 0 {
		// Undefined in the observed behavior; we run exactly one round
		// over the decomposed questions and skip the follow-up check.
		rounds = 1
		followups = false
	}

	for depth := 0; depth < rounds; depth++ {
		e.log.Info(logModule, "Processing decomposition round", map[string]interface{}{
			"round":     depth + 1,
			"of":        rounds,
			"questions": len(questions),
		})

		history, contexts, err := e.processSubqueries(ctx, questions, req)
		if err != nil {
			return e.failStream(ctx, err), nil
		}
		roundHistory = history
		finalContexts = append(finalContexts, contexts...)

		if !followups {
			break
		}

		followup, err := e.FollowupQuestion(ctx, roundHistory, req.Query, finalContexts)
		if err != nil {
			return e.failStream(ctx, err), nil
		}
		if strings.TrimSpace(followup) == "" {
			e.log.Info(logModule, "No follow-up needed", map[string]interface{}{"round": depth + 1})
			break
		}
		questions = []string{followup}
	}

	return e.synthesize(ctx, roundHistory, finalContexts, req)
}

// singleShot answers the original query without the iterative loop:
// retrieve, rerank, normalize in use-all mode, synthesize.
func (e *Engine) singleShot(ctx context.Context, req Request) (<-chan dto.ChainResponse, error) {
	docs, err := e.retrieveAndRank(ctx, req.Query, req.Query, req)
	if err != nil {
		return e.failStream(ctx, err), nil
	}

	if req.Reranker != nil && len(docs) > 0 {
		docs = NormalizeRelevanceScores(docs, false, req.ConfidenceThreshold)
	}

	return e.synthesize(ctx, nil, docs, req)
}

// processSubqueries answers each question in order, building this round's
// history and the normalized contexts to accumulate.
func (e *Engine) processSubqueries(ctx context.Context, questions []string, req Request) ([]Turn, []*retriever.Document, error) {
	var (
		history  []Turn
		contexts []*retriever.Document
	)

	for i, question := range questions {
		e.log.Info(logModule, "Processing question", map[string]interface{}{
			"index": i + 1,
			"of":    len(questions),
		})

		rewritten, err := e.RewriteWithContext(ctx, question, history)
		if err != nil {
			return nil, nil, err
		}

		docs, err := e.retrieveAndRank(ctx, rewritten, req.Query, req)
		if err != nil {
			return nil, nil, err
		}

		// Only reranked documents carry scores worth accumulating
		if req.Reranker != nil && len(docs) > 0 {
			contexts = append(contexts, NormalizeRelevanceScores(docs, true, req.ConfidenceThreshold)...)
		}

		answer, err := e.answerQuestion(ctx, rewritten, docs)
		if err != nil {
			return nil, nil, err
		}

		history = append(history, Turn{Question: question, Answer: answer})
	}

	return history, contexts, nil
}

// GenerateSubqueries asks the model to decompose the query and parses its
// enumerated output. Lines without a digit are treated as filler and
// dropped; when nothing parses, the original query is the sole result.
func (e *Engine) GenerateSubqueries(ctx context.Context, query string) ([]string, error) {
	raw, err := e.llm.Invoke(ctx, prompt.Multiquery(query))
	if err != nil {
		return nil, fmt.Errorf("generate subqueries: %w", err)
	}

	questions := parseEnumeratedList(raw)
	if len(questions) == 0 {
		// Malformed decomposition output; fall back to single-shot mode
		e.log.Warn(logModule, "Subquery parsing yielded nothing, falling back to original query", nil)
		questions = []string{query}
	}

	e.log.Info(logModule, "Generated subqueries", map[string]interface{}{"count": len(questions)})
	return questions, nil
}

func parseEnumeratedList(raw string) []string {
	var questions []string
	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || !containsDigit(trimmed) {
			continue
		}
		if idx := strings.Index(trimmed, ". "); idx >= 0 {
			trimmed = trimmed[idx+2:]
		}
		questions = append(questions, trimmed)
	}
	return questions
}

func containsDigit(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// RewriteWithContext makes a sub-question self-contained using this
// round's prior answers. An empty history returns the question as-is
// without touching the model; the question cannot reference anything yet.
func (e *Engine) RewriteWithContext(ctx context.Context, question string, history []Turn) (string, error) {
	if len(history) == 0 {
		return question, nil
	}

	rewritten, err := e.llm.Invoke(ctx, prompt.QueryRewriter(FormatConversationHistory(history), question))
	if err != nil {
		return "", fmt.Errorf("rewrite query: %w", err)
	}
	return strings.TrimSpace(rewritten), nil
}

// retrieveAndRank fetches candidates for the (rewritten) query and, when a
// reranker is configured, re-scores them against the original user query.
func (e *Engine) retrieveAndRank(ctx context.Context, query, originalQuery string, req Request) ([]*retriever.Document, error) {
	docs, err := req.Retriever.Retrieve(ctx, query, req.CollectionName, req.TopK)
	if err != nil {
		return nil, fmt.Errorf("retrieve documents: %w", err)
	}
	e.log.Debug(logModule, "Retrieved documents", map[string]interface{}{"count": len(docs)})

	if req.Reranker != nil && len(docs) > 0 {
		docs, err = req.Reranker.Rerank(ctx, originalQuery, docs)
		if err != nil {
			return nil, fmt.Errorf("rerank documents: %w", err)
		}
		e.log.Debug(logModule, "Reranked documents", map[string]interface{}{"count": len(docs)})
	}

	return docs, nil
}

// answerQuestion generates the answer for one question from its retrieved
// context.
func (e *Engine) answerQuestion(ctx context.Context, question string, docs []*retriever.Document) (string, error) {
	messages := []llm.Message{
		{Role: "system", Content: prompt.RAGSystem(StringifyContexts(docs))},
		{Role: "user", Content: question},
	}

	answer, err := e.llm.Chat(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("answer question: %w", err)
	}
	return answer, nil
}

// FollowupQuestion asks whether another refinement round is needed.
// Emptiness is decided on the trimmed, quote-stripped text, but the value
// handed back to the loop is the model's raw output. The asymmetry is
// deliberate: downstream formatting sees exactly what the model said.
func (e *Engine) FollowupQuestion(ctx context.Context, history []Turn, originalQuery string, contexts []*retriever.Document) (string, error) {
	raw, err := e.llm.Invoke(ctx, prompt.FollowupQuestion(
		FormatConversationHistory(history),
		originalQuery,
		StringifyContexts(contexts),
	))
	if err != nil {
		return "", fmt.Errorf("generate follow-up: %w", err)
	}

	cleaned := strings.TrimSpace(raw)
	cleaned = strings.ReplaceAll(cleaned, "'", "")
	cleaned = strings.ReplaceAll(cleaned, `"`, "")
	if cleaned == "" {
		return "", nil
	}
	return raw, nil
}

// synthesize streams the final comprehensive response from the last
// round's history and every accumulated context.
func (e *Engine) synthesize(ctx context.Context, history []Turn, contexts []*retriever.Document, req Request) (<-chan dto.ChainResponse, error) {
	finalPrompt := prompt.FinalResponse(
		FormatConversationHistory(history),
		StringifyContexts(contexts),
		req.Query,
	)

	e.log.Info(logModule, "Generating final response", map[string]interface{}{
		"contexts": len(contexts),
		"turns":    len(history),
	})

	deltas, err := e.llm.Stream(ctx, []llm.Message{{Role: "user", Content: finalPrompt}})
	if err != nil {
		return e.failStream(ctx, err), nil
	}

	return e.responder.Stream(ctx, deltas, contexts, e.llm.Model(), req.CollectionName, req.EnableCitations), nil
}

// failStream logs the underlying failure and converts it into the
// sanitized terminating stream the client sees.
func (e *Engine) failStream(ctx context.Context, err error) <-chan dto.ChainResponse {
	e.log.Error(logModule, "Decomposition run failed", map[string]interface{}{"error": err.Error()})

	if errors.Is(err, retriever.ErrUnavailable) {
		return e.responder.ErrorStream(ctx, response.RetrievalExceptionMsg)
	}
	return e.responder.ErrorStream(ctx, response.FallbackExceptionMsg)
}
