package factory

import (
	"fmt"

	"github.com/pinecone-io/nvidia-rag/pkg/llm"
	"github.com/pinecone-io/nvidia-rag/pkg/llm/nim"
	"github.com/pinecone-io/nvidia-rag/pkg/llm/ollama"
)

func NewLLMProvider(providerType, modelName, baseURL, apiKey string) (llm.Provider, error) {
	switch providerType {
	case "nim":
		if baseURL == "" {
			baseURL = "https://integrate.api.nvidia.com" // Default
		}
		return nim.NewNIMProvider(baseURL, apiKey, modelName), nil
	case "ollama":
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
