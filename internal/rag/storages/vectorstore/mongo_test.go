package vectorstore

import (
	"testing"

	"StudyMind/internal/rag/interfaces"
)

func TestBuildSearchFilter(t *testing.T) {
	if f := buildSearchFilter(interfaces.Filter{}); len(f) != 0 {
		t.Errorf("empty filter should place no restriction, got %v", f)
	}

	f := buildSearchFilter(interfaces.Filter{FileID: "doc_1", OwnerUserID: "alice"})
	if got := f["metadata.file_id"]; got != "doc_1" {
		t.Errorf("file filter = %v", got)
	}
	if got := f["metadata.owner_user_id"]; got != "alice" {
		t.Errorf("owner filter = %v", got)
	}

	f = buildSearchFilter(interfaces.Filter{OwnerUserID: "alice"})
	if _, ok := f["metadata.file_id"]; ok {
		t.Error("empty file id must not appear in the filter")
	}
	if len(f) != 1 {
		t.Errorf("owner-only filter has %d keys", len(f))
	}
}

func TestChunkDocToChunkNilMetadata(t *testing.T) {
	c := (chunkDoc{ID: "c1", Text: "body"}).toChunk()
	if c.Metadata == nil {
		t.Fatal("toChunk must always return usable metadata")
	}
	if c.ID != "c1" || c.Text != "body" {
		t.Errorf("chunk = %+v", c)
	}
}
