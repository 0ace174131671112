package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func embeddingEndpoint(t *testing.T, captured *nimEmbeddingRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(captured))

		resp := nimEmbeddingResponse{}
		for i := range captured.Input {
			resp.Data = append(resp.Data, struct {
				Index     int       `json:"index"`
				Embedding []float32 `json:"embedding"`
			}{Index: i, Embedding: []float32{1, 0, 0}})
		}
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestNIMProvider_SendsConfiguredInputType(t *testing.T) {
	var captured nimEmbeddingRequest
	srv := embeddingEndpoint(t, &captured)
	defer srv.Close()

	provider := NewNIMProvider(srv.URL, "", "embedqa", "query", 3)

	vectors, err := provider.Embed(context.Background(), []string{"what is the revenue?"})
	require.NoError(t, err)

	assert.Equal(t, "query", captured.InputType)
	assert.Len(t, vectors, 1)
}

func TestNIMProvider_DefaultsToPassageInputType(t *testing.T) {
	var captured nimEmbeddingRequest
	srv := embeddingEndpoint(t, &captured)
	defer srv.Close()

	provider := NewNIMProvider(srv.URL, "", "embedqa", "", 3)

	_, err := provider.Embed(context.Background(), []string{"chunk body"})
	require.NoError(t, err)

	assert.Equal(t, "passage", captured.InputType)
}
