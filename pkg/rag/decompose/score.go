package decompose

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/pinecone-io/nvidia-rag/pkg/retriever"
)

// Turn is one question/answer pair of a decomposition run.
type Turn struct {
	Question string
	Answer   string
}

// sigmoidScale keeps raw reranker logits (roughly -15..15) inside the
// useful part of the logistic curve.
const sigmoidScale = 0.1

// topDocuments is how many documents survive a filtered normalization pass.
const topDocuments = 3

// FormatConversationHistory renders history as alternating Question/Answer
// blocks separated by blank lines.
func FormatConversationHistory(history []Turn) string {
	blocks := make([]string, len(history))
	for i, turn := range history {
		blocks[i] = fmt.Sprintf("Question: %s\nAnswer: %s", turn.Question, turn.Answer)
	}
	return strings.Join(blocks, "\n\n\n")
}

// NormalizeRelevanceScores squashes every present relevance score into
// (0,1) with a logistic curve, optionally keeps only the top 3 documents,
// and drops everything below confidenceThreshold when the threshold is
// positive. Documents without a score are left untouched by normalization;
// with filterDocs=false and a zero threshold the list length never changes.
func NormalizeRelevanceScores(documents []*retriever.Document, filterDocs bool, confidenceThreshold float64) []*retriever.Document {
	if len(documents) == 0 {
		return documents
	}

	for _, doc := range documents {
		if doc.Score == nil {
			continue
		}
		normalized := 1 / (1 + math.Exp(-sigmoidScale*(*doc.Score)))
		doc.SetScore(normalized)
	}

	if filterDocs {
		// Stable sort keeps the original relative order on ties
		sorted := make([]*retriever.Document, len(documents))
		copy(sorted, documents)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].ScoreOrZero() > sorted[j].ScoreOrZero()
		})
		if len(sorted) > topDocuments {
			sorted = sorted[:topDocuments]
		}
		documents = sorted
	}

	if confidenceThreshold > 0 {
		kept := make([]*retriever.Document, 0, len(documents))
		for _, doc := range documents {
			if doc.ScoreOrZero() >= confidenceThreshold {
				kept = append(kept, doc)
			}
		}
		documents = kept
	}

	return documents
}

// StringifyContexts renders retrieved documents as a text block for prompt
// injection.
func StringifyContexts(documents []*retriever.Document) string {
	var b strings.Builder
	for i, doc := range documents {
		if i > 0 {
			b.WriteString("\n\n")
		}
		source := doc.MetadataString("source")
		if source != "" {
			b.WriteString(fmt.Sprintf("[Source: %s]\n", source))
		}
		b.WriteString(doc.Content)
	}
	return b.String()
}
