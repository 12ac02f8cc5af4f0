package pipeline

import (
	"context"
	"strings"
	"testing"
	"time"

	"StudyMind/internal/models"
	"StudyMind/internal/rag/chunker"
	"StudyMind/internal/rag/extractor"
	"StudyMind/internal/rag/interfaces"
	"StudyMind/internal/rag/schema"
	"StudyMind/pkg/logger"
)

type fakeStore struct {
	interfaces.CorpusStore

	added []*schema.Chunk
}

func (f *fakeStore) Add(ctx context.Context, chunks []*schema.Chunk) error {
	f.added = append(f.added, chunks...)
	return nil
}

type fakeObjects struct {
	keys []string
}

func (f *fakeObjects) Put(ctx context.Context, key string, data []byte, contentType string) error {
	f.keys = append(f.keys, key)
	return nil
}

func extraction(text string) *extractor.Result {
	return &extractor.Result{
		Status: models.StatusSuccess,
		Text:   text,
		FileID: "notes_20240601120000_abcd1234",
		Metadata: extractor.Metadata{
			Pages:     2,
			Method:    "layout",
			Filename:  "notes.pdf",
			FileType:  models.FileTypePDF,
			Timestamp: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		},
	}
}

func TestIngestStoresTaggedChunks(t *testing.T) {
	store := &fakeStore{}
	objects := &fakeObjects{}
	in := NewIngestor(store, chunker.New(100, 20), objects, nil, logger.New("pipeline-test"))

	text := strings.Repeat("Cell biology covers mitosis. ", 20)
	res, err := in.Ingest(context.Background(), extraction(text), []byte("%PDF"), "application/pdf", "alice", "folder-7")
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != models.StatusSuccess {
		t.Fatalf("status = %s: %s", res.Status, res.Message)
	}
	if res.ChunkCount == 0 || len(store.added) != res.ChunkCount {
		t.Fatalf("chunks_created = %d, stored = %d", res.ChunkCount, len(store.added))
	}

	first := store.added[0]
	if first.OwnerUserID() != "alice" {
		t.Errorf("owner = %q", first.OwnerUserID())
	}
	if first.FileID() != "notes_20240601120000_abcd1234" {
		t.Errorf("file_id = %q", first.FileID())
	}
	if got := first.Metadata[schema.KeyMethod]; got != "layout" {
		t.Errorf("method = %v", got)
	}
	if got := first.Metadata[schema.KeyFolderID]; got != "folder-7" {
		t.Errorf("folder_id = %v", got)
	}

	if len(objects.keys) != 1 || !strings.HasSuffix(objects.keys[0], "/notes.pdf") {
		t.Errorf("archived keys = %v", objects.keys)
	}
}

func TestIngestEmptyTextIsWarning(t *testing.T) {
	store := &fakeStore{}
	in := NewIngestor(store, chunker.New(100, 20), nil, nil, logger.New("pipeline-test"))

	res, err := in.Ingest(context.Background(), extraction("   \n  "), nil, "", "", "")
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != models.StatusWarning {
		t.Errorf("status = %s, want warning", res.Status)
	}
	if len(store.added) != 0 {
		t.Error("no chunks should be stored for empty text")
	}
}
