package decompose

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pinecone-io/nvidia-rag/internal/dto"
	"github.com/pinecone-io/nvidia-rag/internal/pkg/logger"
	"github.com/pinecone-io/nvidia-rag/pkg/llm"
	"github.com/pinecone-io/nvidia-rag/pkg/rag/response"
	"github.com/pinecone-io/nvidia-rag/pkg/retriever"
)

// mockLLM scripts model behavior per call site and counts invocations.
type mockLLM struct {
	mu          sync.Mutex
	invokeFn    func(prompt string) (string, error)
	chatFn      func(messages []llm.Message) (string, error)
	streamText  string
	invokeCalls []string
	chatCalls   int
	streamCalls int
}

func (m *mockLLM) Invoke(_ context.Context, prompt string, _ ...llm.Option) (string, error) {
	m.mu.Lock()
	m.invokeCalls = append(m.invokeCalls, prompt)
	m.mu.Unlock()
	if m.invokeFn != nil {
		return m.invokeFn(prompt)
	}
	return "", nil
}

func (m *mockLLM) Chat(_ context.Context, messages []llm.Message, _ ...llm.Option) (string, error) {
	m.mu.Lock()
	m.chatCalls++
	m.mu.Unlock()
	if m.chatFn != nil {
		return m.chatFn(messages)
	}
	return "answer", nil
}

func (m *mockLLM) Stream(_ context.Context, _ []llm.Message, _ ...llm.Option) (<-chan llm.Delta, error) {
	m.mu.Lock()
	m.streamCalls++
	m.mu.Unlock()

	out := make(chan llm.Delta, 1)
	out <- llm.Delta{Content: m.streamText}
	close(out)
	return out, nil
}

func (m *mockLLM) Model() string { return "mock-model" }

type mockRetriever struct {
	mu      sync.Mutex
	docs    []*retriever.Document
	err     error
	queries []string
}

func (m *mockRetriever) Retrieve(_ context.Context, query, _ string, _ int) ([]*retriever.Document, error) {
	m.mu.Lock()
	m.queries = append(m.queries, query)
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.docs, nil
}

type mockReranker struct {
	mu      sync.Mutex
	queries []string
}

func (m *mockReranker) Rerank(_ context.Context, query string, docs []*retriever.Document) ([]*retriever.Document, error) {
	m.mu.Lock()
	m.queries = append(m.queries, query)
	m.mu.Unlock()
	for _, d := range docs {
		d.SetScore(1)
	}
	return docs, nil
}

func newTestEngine(provider llm.Provider) *Engine {
	responder := response.NewGenerator(nil, logger.NewNopLogger())
	return NewEngine(provider, responder, logger.NewNopLogger())
}

// collectStream drains a response stream and returns the concatenated
// delta text plus the finish reason of the terminal chunk.
func collectStream(t *testing.T, stream <-chan dto.ChainResponse) (string, string) {
	t.Helper()

	var b strings.Builder
	finish := ""
	for chunk := range stream {
		if len(chunk.Choices) == 0 {
			continue
		}
		b.WriteString(chunk.Choices[0].Delta.Content)
		if chunk.Choices[0].FinishReason != nil {
			finish = *chunk.Choices[0].FinishReason
		}
	}
	return b.String(), finish
}

func TestAnswer_NilRetriever(t *testing.T) {
	engine := newTestEngine(&mockLLM{})

	stream, err := engine.Answer(context.Background(), Request{Query: "q"})

	assert.ErrorIs(t, err, ErrNoRetriever)
	assert.Nil(t, stream)
}

func TestAnswer_SingleSubqueryShortCircuit(t *testing.T) {
	provider := &mockLLM{
		invokeFn: func(prompt string) (string, error) {
			return "1. What is a fox?", nil
		},
		streamText: "final answer",
	}
	ret := &mockRetriever{docs: []*retriever.Document{{Content: "ctx"}}}
	engine := newTestEngine(provider)

	stream, err := engine.Answer(context.Background(), Request{
		Query:          "What is a fox?",
		Retriever:      ret,
		RecursionDepth: 2,
	})
	assert.NoError(t, err)

	text, finish := collectStream(t, stream)
	assert.Equal(t, "final answer", text)
	assert.Equal(t, "stop", finish)

	// One retrieval against the original query, no per-question answering,
	// and only the multiquery prompt hit Invoke.
	assert.Equal(t, []string{"What is a fox?"}, ret.queries)
	assert.Equal(t, 0, provider.chatCalls)
	assert.Len(t, provider.invokeCalls, 1)
}

func TestAnswer_SingleShotKeepsAllRerankedDocuments(t *testing.T) {
	provider := &mockLLM{
		invokeFn: func(prompt string) (string, error) {
			return "1. What is a fox?", nil
		},
		streamText: "final answer",
	}

	var docs []*retriever.Document
	for i := 0; i < 4; i++ {
		docs = append(docs, &retriever.Document{
			Content: fmt.Sprintf("chunk %d", i),
			Metadata: map[string]any{
				"source": fmt.Sprintf("doc-%d.txt", i),
				"content_metadata": map[string]any{
					"type": "text",
				},
			},
		})
	}
	ret := &mockRetriever{docs: docs}
	engine := newTestEngine(provider)

	stream, err := engine.Answer(context.Background(), Request{
		Query:           "What is a fox?",
		Retriever:       ret,
		Reranker:        &mockReranker{},
		RecursionDepth:  2,
		EnableCitations: true,
	})
	assert.NoError(t, err)

	// The direct path normalizes in use-all mode, so every reranked
	// document survives into the citation block instead of the top three.
	var citations *dto.Citations
	for chunk := range stream {
		if chunk.Citations != nil {
			citations = chunk.Citations
		}
	}
	if assert.NotNil(t, citations) {
		assert.Equal(t, 4, citations.TotalResults)
	}

	for _, d := range docs {
		assert.NotNil(t, d.Score, "normalization must score every document")
	}
}

func TestAnswer_RecursionBound(t *testing.T) {
	provider := &mockLLM{
		invokeFn: func(prompt string) (string, error) {
			if strings.Contains(prompt, "sub-questions") {
				return "1. first part\n2. second part", nil
			}
			// rewriter and follow-up prompts: always produce text so the
			// loop only stops at the recursion bound
			return "refined question", nil
		},
		streamText: "done",
	}
	ret := &mockRetriever{docs: []*retriever.Document{{Content: "ctx"}}}
	engine := newTestEngine(provider)

	stream, err := engine.Answer(context.Background(), Request{
		Query:          "complex question",
		Retriever:      ret,
		RecursionDepth: 2,
	})
	assert.NoError(t, err)

	text, finish := collectStream(t, stream)
	assert.Equal(t, "done", text)
	assert.Equal(t, "stop", finish)

	// Round one answers two sub-questions, round two answers the follow-up.
	// The loop must stop after RecursionDepth rounds even though the model
	// keeps asking for more.
	assert.Len(t, ret.queries, 3)
	assert.Equal(t, 3, provider.chatCalls)
}

func TestAnswer_ZeroDepthRunsOneRound(t *testing.T) {
	followupSeen := false
	provider := &mockLLM{
		invokeFn: func(prompt string) (string, error) {
			switch {
			case strings.Contains(prompt, "sub-questions"):
				return "1. a\n2. b", nil
			case strings.Contains(prompt, "close the gap"):
				followupSeen = true
				return "more?", nil
			default:
				return "rewritten", nil
			}
		},
		streamText: "x",
	}
	ret := &mockRetriever{docs: []*retriever.Document{{Content: "ctx"}}}
	engine := newTestEngine(provider)

	stream, err := engine.Answer(context.Background(), Request{
		Query:          "q",
		Retriever:      ret,
		RecursionDepth: 0,
	})
	assert.NoError(t, err)
	collectStream(t, stream)

	assert.Len(t, ret.queries, 2)
	assert.False(t, followupSeen, "zero depth must skip the follow-up check")
}

func TestAnswer_RerankAgainstOriginalQuery(t *testing.T) {
	provider := &mockLLM{
		invokeFn: func(prompt string) (string, error) {
			return "1. part one\n2. part two", nil
		},
		streamText: "x",
	}
	ret := &mockRetriever{docs: []*retriever.Document{{Content: "ctx"}}}
	rer := &mockReranker{}
	engine := newTestEngine(provider)

	stream, err := engine.Answer(context.Background(), Request{
		Query:          "the original question",
		Retriever:      ret,
		Reranker:       rer,
		RecursionDepth: 1,
	})
	assert.NoError(t, err)
	collectStream(t, stream)

	for _, q := range rer.queries {
		assert.Equal(t, "the original question", q)
	}
}

func TestAnswer_RetrievalFailureStreamsSanitizedError(t *testing.T) {
	provider := &mockLLM{
		invokeFn: func(prompt string) (string, error) {
			return "1. a\n2. b", nil
		},
	}
	ret := &mockRetriever{err: fmt.Errorf("%w: collection missing", retriever.ErrUnavailable)}
	engine := newTestEngine(provider)

	stream, err := engine.Answer(context.Background(), Request{
		Query:          "q",
		Retriever:      ret,
		RecursionDepth: 1,
	})
	assert.NoError(t, err, "collaborator failures must not surface as errors")

	text, finish := collectStream(t, stream)
	assert.Equal(t, response.RetrievalExceptionMsg, text)
	assert.Equal(t, "stop", finish)
}

func TestAnswer_LLMFailureStreamsFallback(t *testing.T) {
	provider := &mockLLM{
		invokeFn: func(prompt string) (string, error) {
			return "", errors.New("model exploded")
		},
	}
	ret := &mockRetriever{}
	engine := newTestEngine(provider)

	stream, err := engine.Answer(context.Background(), Request{
		Query:          "q",
		Retriever:      ret,
		RecursionDepth: 1,
	})
	assert.NoError(t, err)

	text, finish := collectStream(t, stream)
	assert.Equal(t, response.FallbackExceptionMsg, text)
	assert.Equal(t, "stop", finish)
}

func TestRewriteWithContext_EmptyHistorySkipsModel(t *testing.T) {
	provider := &mockLLM{}
	engine := newTestEngine(provider)

	got, err := engine.RewriteWithContext(context.Background(), "standalone?", nil)

	assert.NoError(t, err)
	assert.Equal(t, "standalone?", got)
	assert.Empty(t, provider.invokeCalls, "empty history must not call the model")
}

func TestGenerateSubqueries_FallsBackToOriginal(t *testing.T) {
	provider := &mockLLM{
		invokeFn: func(prompt string) (string, error) {
			return "Sure! Here are some thoughts without any numbering.", nil
		},
	}
	engine := newTestEngine(provider)

	got, err := engine.GenerateSubqueries(context.Background(), "original")

	assert.NoError(t, err)
	assert.Equal(t, []string{"original"}, got)
}

func TestParseEnumeratedList(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{
			name: "numbered list",
			raw:  "1. first\n2. second",
			want: []string{"first", "second"},
		},
		{
			name: "filler lines without digits dropped",
			raw:  "Here are the questions:\n1. first\nHope this helps!",
			want: []string{"first"},
		},
		{
			name: "line with digit but no separator kept whole",
			raw:  "what about question 2",
			want: []string{"what about question 2"},
		},
		{
			name: "strips through first dot-space only",
			raw:  "1. how much is 2. 5 plus 3",
			want: []string{"how much is 2. 5 plus 3"},
		},
		{
			name: "blank input",
			raw:  "\n\n",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseEnumeratedList(tt.raw)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFollowupQuestion_Asymmetry(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "quoted empty means done",
			raw:  `"''"`,
			want: "",
		},
		{
			name: "whitespace only means done",
			raw:  "   ",
			want: "",
		},
		{
			name: "raw text returned verbatim including quotes",
			raw:  ` "What else is there?" `,
			want: ` "What else is there?" `,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &mockLLM{
				invokeFn: func(prompt string) (string, error) {
					return tt.raw, nil
				},
			}
			engine := newTestEngine(provider)

			got, err := engine.FollowupQuestion(context.Background(), nil, "q", nil)

			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
