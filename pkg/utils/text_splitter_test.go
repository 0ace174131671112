package utils

import (
	"strings"
	"testing"
)

func TestSplitText(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		chunkSize  int
		overlap    int
		wantChunks int
	}{
		{
			name:       "short text stays whole",
			text:       "hello",
			chunkSize:  100,
			overlap:    10,
			wantChunks: 1,
		},
		{
			name:       "exact boundary stays whole",
			text:       strings.Repeat("a", 100),
			chunkSize:  100,
			overlap:    10,
			wantChunks: 1,
		},
		{
			name:       "long text splits with overlap",
			text:       strings.Repeat("a", 250),
			chunkSize:  100,
			overlap:    20,
			wantChunks: 3, // steps of 80: 0-100, 80-180, 160-250
		},
		{
			name:       "overlap >= chunkSize falls back to full steps",
			text:       strings.Repeat("a", 300),
			chunkSize:  100,
			overlap:    100,
			wantChunks: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := SplitText(tt.text, tt.chunkSize, tt.overlap)

			if len(chunks) != tt.wantChunks {
				t.Fatalf("chunks = %d, want %d", len(chunks), tt.wantChunks)
			}
			for i, c := range chunks {
				if len([]rune(c)) > tt.chunkSize {
					t.Errorf("chunk %d length %d exceeds %d", i, len([]rune(c)), tt.chunkSize)
				}
			}
		})
	}
}

func TestSplitText_OverlapPreservesBoundaryText(t *testing.T) {
	text := strings.Repeat("x", 90) + strings.Repeat("y", 90)
	chunks := SplitText(text, 100, 20)

	if len(chunks) < 2 {
		t.Fatalf("chunks = %d, want at least 2", len(chunks))
	}

	// The tail of the first chunk reappears at the head of the second
	first := []rune(chunks[0])
	second := []rune(chunks[1])
	tail := string(first[len(first)-20:])
	head := string(second[:20])
	if tail != head {
		t.Errorf("overlap mismatch: tail %q, head %q", tail, head)
	}
}

func TestSplitText_Multibyte(t *testing.T) {
	text := strings.Repeat("héllo wörld ", 30)
	chunks := SplitText(text, 50, 10)

	var rebuilt strings.Builder
	step := 50 - 10
	for i, c := range chunks {
		runes := []rune(c)
		if i < len(chunks)-1 {
			rebuilt.WriteString(string(runes[:step]))
		} else {
			rebuilt.WriteString(c)
		}
	}
	if rebuilt.String() != text {
		t.Error("reassembled chunks do not match the original text")
	}
}
