package serverutils

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pinecone-io/nvidia-rag/internal/dto"
)

func TestValidateRequest(t *testing.T) {
	valid := dto.GenerateRequest{
		CollectionName: "docs",
		Messages:       []dto.ChatMessage{{Role: "user", Content: "hi"}},
	}
	assert.NoError(t, ValidateRequest(valid))

	missingCollection := dto.GenerateRequest{
		Messages: []dto.ChatMessage{{Role: "user", Content: "hi"}},
	}
	err := ValidateRequest(missingCollection)
	assert.Error(t, err)

	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Message, "CollectionName")

	badRole := dto.GenerateRequest{
		CollectionName: "docs",
		Messages:       []dto.ChatMessage{{Role: "robot", Content: "hi"}},
	}
	assert.Error(t, ValidateRequest(badRole))
}
