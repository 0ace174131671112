package reranker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/pinecone-io/nvidia-rag/pkg/retriever"
)

// NIMReranker calls an NVIDIA NIM ranking endpoint (/v1/ranking). The
// endpoint scores each passage against the query; results come back as
// (index, logit) pairs ordered by relevance.
type NIMReranker struct {
	BaseURL string
	APIKey  string
	Model   string
	// TopN limits how many documents the endpoint returns; 0 keeps them all.
	TopN   int
	Client *http.Client
}

var _ Reranker = &NIMReranker{}

func NewNIMReranker(baseURL, apiKey, model string, topN int) *NIMReranker {
	return &NIMReranker{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		APIKey:  apiKey,
		Model:   model,
		TopN:    topN,
		Client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type rankingRequest struct {
	Model    string        `json:"model"`
	Query    rankingText   `json:"query"`
	Passages []rankingText `json:"passages"`
}

type rankingText struct {
	Text string `json:"text"`
}

type rankingResponse struct {
	Rankings []struct {
		Index int     `json:"index"`
		Logit float64 `json:"logit"`
	} `json:"rankings"`
}

func (r *NIMReranker) Rerank(ctx context.Context, query string, documents []*retriever.Document) ([]*retriever.Document, error) {
	if len(documents) == 0 {
		return documents, nil
	}

	passages := make([]rankingText, len(documents))
	for i, doc := range documents {
		passages[i] = rankingText{Text: doc.Content}
	}

	reqBody := rankingRequest{
		Model:    r.Model,
		Query:    rankingText{Text: query},
		Passages: passages,
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", r.BaseURL+"/v1/ranking", bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if r.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.APIKey)
	}

	resp, err := r.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ranking request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ranking endpoint error: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	var parsed rankingResponse
	if err := json.Unmarshal(bodyBytes, &parsed); err != nil {
		return nil, err
	}

	sort.SliceStable(parsed.Rankings, func(i, j int) bool {
		return parsed.Rankings[i].Logit > parsed.Rankings[j].Logit
	})

	limit := len(parsed.Rankings)
	if r.TopN > 0 && r.TopN < limit {
		limit = r.TopN
	}

	ranked := make([]*retriever.Document, 0, limit)
	for _, entry := range parsed.Rankings[:limit] {
		if entry.Index < 0 || entry.Index >= len(documents) {
			continue
		}
		doc := documents[entry.Index]
		doc.SetScore(entry.Logit)
		ranked = append(ranked, doc)
	}
	return ranked, nil
}
