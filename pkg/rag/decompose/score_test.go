package decompose

import (
	"math"
	"testing"

	"github.com/pinecone-io/nvidia-rag/pkg/retriever"
)

func docWithScore(content string, score float64) *retriever.Document {
	d := &retriever.Document{Content: content}
	d.SetScore(score)
	return d
}

func TestFormatConversationHistory(t *testing.T) {
	tests := []struct {
		name    string
		history []Turn
		want    string
	}{
		{
			name:    "empty history",
			history: nil,
			want:    "",
		},
		{
			name:    "single turn",
			history: []Turn{{Question: "Q1", Answer: "A1"}},
			want:    "Question: Q1\nAnswer: A1",
		},
		{
			name: "two turns joined by triple newline",
			history: []Turn{
				{Question: "Q1", Answer: "A1"},
				{Question: "Q2", Answer: "A2"},
			},
			want: "Question: Q1\nAnswer: A1\n\n\nQuestion: Q2\nAnswer: A2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatConversationHistory(tt.history)
			if got != tt.want {
				t.Errorf("FormatConversationHistory() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalizeRelevanceScores_Sigmoid(t *testing.T) {
	tests := []struct {
		name string
		raw  float64
		want float64
	}{
		{name: "zero maps to midpoint", raw: 0, want: 0.5},
		{name: "positive logit above midpoint", raw: 10, want: 1 / (1 + math.Exp(-1))},
		{name: "negative logit below midpoint", raw: -10, want: 1 / (1 + math.Exp(1))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs := []*retriever.Document{docWithScore("c", tt.raw)}
			out := NormalizeRelevanceScores(docs, false, 0)

			if len(out) != 1 {
				t.Fatalf("len = %d, want 1", len(out))
			}
			if got := out[0].ScoreOrZero(); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("score = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalizeRelevanceScores_ScorelessDocsUntouched(t *testing.T) {
	docs := []*retriever.Document{
		{Content: "no score"},
		docWithScore("scored", 5),
	}

	out := NormalizeRelevanceScores(docs, false, 0)

	if len(out) != 2 {
		t.Fatalf("len = %d, want 2", len(out))
	}
	if out[0].Score != nil {
		t.Errorf("scoreless document gained a score: %v", *out[0].Score)
	}
	if out[1].Score == nil {
		t.Error("scored document lost its score")
	}
}

func TestNormalizeRelevanceScores_FilteredKeepsTopThree(t *testing.T) {
	docs := []*retriever.Document{
		docWithScore("a", 1),
		docWithScore("b", 9),
		docWithScore("c", 5),
		docWithScore("d", 7),
		docWithScore("e", 3),
	}

	out := NormalizeRelevanceScores(docs, true, 0)

	if len(out) != 3 {
		t.Fatalf("len = %d, want 3", len(out))
	}
	wantOrder := []string{"b", "d", "c"}
	for i, want := range wantOrder {
		if out[i].Content != want {
			t.Errorf("out[%d] = %q, want %q", i, out[i].Content, want)
		}
	}
}

func TestNormalizeRelevanceScores_FilteredStableOnTies(t *testing.T) {
	docs := []*retriever.Document{
		docWithScore("first", 5),
		docWithScore("second", 5),
		docWithScore("third", 5),
		docWithScore("fourth", 5),
	}

	out := NormalizeRelevanceScores(docs, true, 0)

	wantOrder := []string{"first", "second", "third"}
	for i, want := range wantOrder {
		if out[i].Content != want {
			t.Errorf("out[%d] = %q, want %q", i, out[i].Content, want)
		}
	}
}

func TestNormalizeRelevanceScores_Threshold(t *testing.T) {
	// sigmoid(0.1*10) ~ 0.73, sigmoid(0.1*-10) ~ 0.27
	docs := []*retriever.Document{
		docWithScore("keep", 10),
		docWithScore("drop", -10),
	}

	out := NormalizeRelevanceScores(docs, false, 0.5)

	if len(out) != 1 {
		t.Fatalf("len = %d, want 1", len(out))
	}
	if out[0].Content != "keep" {
		t.Errorf("kept %q, want %q", out[0].Content, "keep")
	}
}

func TestNormalizeRelevanceScores_ThresholdCanEmpty(t *testing.T) {
	docs := []*retriever.Document{
		docWithScore("a", -20),
		docWithScore("b", -30),
	}

	out := NormalizeRelevanceScores(docs, false, 0.99)

	if len(out) != 0 {
		t.Errorf("len = %d, want 0", len(out))
	}
}

func TestNormalizeRelevanceScores_Empty(t *testing.T) {
	out := NormalizeRelevanceScores(nil, true, 0.5)
	if len(out) != 0 {
		t.Errorf("len = %d, want 0", len(out))
	}
}

func TestStringifyContexts(t *testing.T) {
	docs := []*retriever.Document{
		{Content: "alpha", Metadata: map[string]any{"source": "a.pdf"}},
		{Content: "beta"},
	}

	got := StringifyContexts(docs)
	want := "[Source: a.pdf]\nalpha\n\nbeta"
	if got != want {
		t.Errorf("StringifyContexts() = %q, want %q", got, want)
	}
}
