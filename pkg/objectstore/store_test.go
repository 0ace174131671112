package objectstore

import (
	"strings"
	"testing"
)

func TestUniqueContentID(t *testing.T) {
	id := UniqueContentID("col", "doc.pdf", 3, []float64{1, 2, 3, 4})

	if !strings.HasPrefix(id, "col/doc.pdf/") {
		t.Errorf("id %q missing collection/file prefix", id)
	}

	// Deterministic for the same coordinates
	again := UniqueContentID("col", "doc.pdf", 3, []float64{1, 2, 3, 4})
	if id != again {
		t.Errorf("same coordinates produced different ids: %q vs %q", id, again)
	}

	// Different coordinates produce a different hash
	other := UniqueContentID("col", "doc.pdf", 4, []float64{1, 2, 3, 4})
	if id == other {
		t.Error("different page numbers produced the same id")
	}
	shifted := UniqueContentID("col", "doc.pdf", 3, []float64{1, 2, 3, 5})
	if id == shifted {
		t.Error("different locations produced the same id")
	}
}

func TestSummaryObjectName_SharesDocumentPrefix(t *testing.T) {
	chunkID := UniqueContentID("col", "doc.pdf", 0, nil)
	summary := SummaryObjectName("col", "doc.pdf")

	prefix := "col/doc.pdf/"
	if !strings.HasPrefix(chunkID, prefix) || !strings.HasPrefix(summary, prefix) {
		t.Errorf("chunk %q and summary %q must share prefix %q", chunkID, summary, prefix)
	}
}
