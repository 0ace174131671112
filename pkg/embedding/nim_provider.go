package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// NIMProvider implements Provider against an OpenAI-compatible
// /v1/embeddings endpoint (NVIDIA NIM embedding microservices).
type NIMProvider struct {
	BaseURL string
	APIKey  string
	Model   string
	// InputType is passed through to asymmetric models ("query" or "passage")
	InputType string
	Dim       int
	Client    *http.Client
}

func NewNIMProvider(baseURL, apiKey, model, inputType string, dim int) Provider {
	if inputType == "" {
		inputType = "passage"
	}
	return &NIMProvider{
		BaseURL:   strings.TrimSuffix(baseURL, "/"),
		APIKey:    apiKey,
		Model:     model,
		InputType: inputType,
		Dim:       dim,
		Client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type nimEmbeddingRequest struct {
	Model     string   `json:"model"`
	Input     []string `json:"input"`
	InputType string   `json:"input_type,omitempty"`
}

type nimEmbeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

func (p *NIMProvider) Dimension() int {
	return p.Dim
}

func (p *NIMProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	reqBody := nimEmbeddingRequest{
		Model:     p.Model,
		Input:     texts,
		InputType: p.InputType,
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.BaseURL+"/v1/embeddings", bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if p.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.APIKey)
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding endpoint error: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	var parsed nimEmbeddingResponse
	if err := json.Unmarshal(bodyBytes, &parsed); err != nil {
		return nil, err
	}
	if len(parsed.Data) != len(texts) {
		return nil, fmt.Errorf("embedding endpoint returned %d vectors for %d inputs", len(parsed.Data), len(texts))
	}

	vectors := make([][]float32, len(texts))
	for _, item := range parsed.Data {
		if item.Index < 0 || item.Index >= len(texts) {
			return nil, fmt.Errorf("embedding endpoint returned out-of-range index %d", item.Index)
		}
		vectors[item.Index] = normalizeVector(item.Embedding)
	}
	return vectors, nil
}
