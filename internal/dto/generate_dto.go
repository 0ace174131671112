package dto

// GenerateRequest is the body of POST /api/generate/v1.
type GenerateRequest struct {
	Messages                 []ChatMessage `json:"messages" validate:"required,min=1,dive"`
	CollectionName           string        `json:"collection_name" validate:"required"`
	UseKnowledgeBase         *bool         `json:"use_knowledge_base,omitempty"`
	EnableCitations          *bool         `json:"enable_citations,omitempty"`
	EnableReranker           *bool         `json:"enable_reranker,omitempty"`
	EnableQueryDecomposition *bool         `json:"enable_query_decomposition,omitempty"`
	TopK                     int           `json:"top_k,omitempty" validate:"omitempty,min=1,max=100"`
	ConfidenceThreshold      float64       `json:"confidence_threshold,omitempty" validate:"omitempty,min=0,max=1"`
	RecursionDepth           int           `json:"recursion_depth,omitempty" validate:"omitempty,max=10"`
	Temperature              float64       `json:"temperature,omitempty" validate:"omitempty,min=0,max=2"`
	MaxTokens                int           `json:"max_tokens,omitempty" validate:"omitempty,min=1"`
}

type ChatMessage struct {
	Role    string `json:"role" validate:"required,oneof=user assistant system"`
	Content string `json:"content" validate:"required"`
}

// Message mirrors one chat turn inside a streamed chunk. Role is a pointer
// so delta messages can carry an explicit null role, matching the
// chat-completions wire format.
type Message struct {
	Role    *string `json:"role"`
	Content string  `json:"content"`
}

func AssistantMessage(content string) Message {
	role := "assistant"
	return Message{Role: &role, Content: content}
}

func DeltaMessage(content string) Message {
	return Message{Role: nil, Content: content}
}

// ChainResponseChoices is one choice entry of a streamed chunk.
type ChainResponseChoices struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	Delta        Message `json:"delta"`
	FinishReason *string `json:"finish_reason"`
}

// Usage carries token accounting. Populated with zeros for now to keep the
// response shape aligned with the chat-completions schema.
type Usage struct {
	TotalTokens      int `json:"total_tokens"`
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// SourceMetadata describes where a cited chunk came from.
type SourceMetadata struct {
	Language        string         `json:"language"`
	DateCreated     string         `json:"date_created"`
	LastModified    string         `json:"last_modified"`
	PageNumber      int            `json:"page_number"`
	Description     string         `json:"description"`
	Height          int            `json:"height"`
	Width           int            `json:"width"`
	Location        []float64      `json:"location"`
	ContentMetadata map[string]any `json:"content_metadata"`
}

// SourceResult is one citation entry.
type SourceResult struct {
	DocumentId   string         `json:"document_id"`
	Content      string         `json:"content"`
	DocumentName string         `json:"document_name"`
	DocumentType string         `json:"document_type"`
	Score        float64        `json:"score"`
	Metadata     SourceMetadata `json:"metadata"`
}

// Citations aggregates the source documents backing a response.
type Citations struct {
	TotalResults int            `json:"total_results"`
	Results      []SourceResult `json:"results"`
}

// ChainResponse is one streamed response chunk, serialized as an SSE
// "data:" event.
type ChainResponse struct {
	Id        string                 `json:"id"`
	Choices   []ChainResponseChoices `json:"choices"`
	Model     string                 `json:"model"`
	Object    string                 `json:"object"`
	Created   int64                  `json:"created"`
	Usage     *Usage                 `json:"usage,omitempty"`
	Citations *Citations             `json:"citations,omitempty"`
}
