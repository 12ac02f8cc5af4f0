package service

import (
	"context"
	"strings"
	"testing"

	"StudyMind/internal/models"
	"StudyMind/internal/rag/chunker"
	"StudyMind/internal/rag/extractor"
	"StudyMind/internal/rag/interfaces"
	"StudyMind/internal/rag/pipeline"
	"StudyMind/internal/rag/quiz"
	"StudyMind/internal/rag/retriever"
	"StudyMind/internal/rag/schema"
	"StudyMind/pkg/logger"
)

type memStore struct {
	interfaces.CorpusStore

	chunks []*schema.Chunk
}

func (m *memStore) Add(ctx context.Context, chunks []*schema.Chunk) error {
	m.chunks = append(m.chunks, chunks...)
	return nil
}

func (m *memStore) Search(ctx context.Context, query string, k int, filter interfaces.Filter) ([]*schema.Chunk, error) {
	var out []*schema.Chunk
	for _, c := range m.chunks {
		if filter.FileID != "" && c.FileID() != filter.FileID {
			continue
		}
		if filter.OwnerUserID != "" && c.OwnerUserID() != filter.OwnerUserID {
			continue
		}
		out = append(out, c)
		if len(out) == k {
			break
		}
	}
	return out, nil
}

func (m *memStore) ChunksByFileID(ctx context.Context, fileID, owner string) ([]*schema.Chunk, error) {
	return m.Search(ctx, "", len(m.chunks), interfaces.Filter{FileID: fileID, OwnerUserID: owner})
}

func (m *memStore) CountAll(ctx context.Context) (int64, error) {
	return int64(len(m.chunks)), nil
}

func (m *memStore) DeleteAll(ctx context.Context) (int64, error) {
	n := int64(len(m.chunks))
	m.chunks = nil
	return n, nil
}

type pdfText struct{ text string }

func (p *pdfText) Name() string { return "fake" }

func (p *pdfText) Extract(data []byte) (string, int, error) { return p.text, 1, nil }

type cannedLLM struct{ reply string }

func (c *cannedLLM) Generate(ctx context.Context, prompt string) (string, error) {
	return c.reply, nil
}

func newTestService(t *testing.T, store *memStore, llmReply string) *Service {
	t.Helper()
	log := logger.New("service-test")
	ext := extractor.NewWithStrategies([]extractor.PDFStrategy{&pdfText{text: strings.Repeat("Photosynthesis happens in chloroplasts. ", 30)}}, nil, log)
	llm := &cannedLLM{reply: llmReply}

	svc, err := New(Deps{
		Extractor: ext,
		Ingestor:  pipeline.NewIngestor(store, chunker.New(200, 40), nil, nil, log),
		Retriever: retriever.New(store, 4, 2, 200, log),
		Quiz:      quiz.New(store, llm, quiz.Options{}, log),
		LLM:       llm,
		Store:     store,
		Log:       log,
	})
	if err != nil {
		t.Fatal(err)
	}
	return svc
}

func pdfBytes() []byte { return []byte("%PDF-1.4\nfake body") }

func TestProcessUploadIndexesPDF(t *testing.T) {
	store := &memStore{}
	svc := newTestService(t, store, "answer")

	res := svc.ProcessUpload(context.Background(), UploadRequest{
		Filename: "bio.pdf",
		Data:     pdfBytes(),
		Owner:    "alice",
	})
	if res.Status != models.StatusSuccess {
		t.Fatalf("status = %s: %s %s", res.Status, res.Message, res.Error)
	}
	if res.Type != "pdf" || res.FileID == "" {
		t.Errorf("result = %+v", res)
	}
	if len(store.chunks) == 0 {
		t.Fatal("no chunks stored")
	}
	if store.chunks[0].OwnerUserID() != "alice" {
		t.Errorf("owner = %q", store.chunks[0].OwnerUserID())
	}
}

func TestProcessUploadRejectsUnknownType(t *testing.T) {
	svc := newTestService(t, &memStore{}, "")

	res := svc.ProcessUpload(context.Background(), UploadRequest{
		Filename: "notes.txt",
		Data:     []byte("plain text, not a pdf or image"),
	})
	if res.Status != models.StatusError {
		t.Fatalf("status = %s, want error", res.Status)
	}
	if !strings.Contains(res.Error, "file type") {
		t.Errorf("error = %q", res.Error)
	}
}

func TestProcessBatchPartialFailure(t *testing.T) {
	svc := newTestService(t, &memStore{}, "")

	batch := svc.ProcessBatch(context.Background(), []UploadRequest{
		{Filename: "good.pdf", Data: pdfBytes()},
		{Filename: "bad.txt", Data: []byte("not a supported format")},
	})
	if batch.Status != models.StatusSuccess {
		t.Fatalf("one success should make the batch succeed, got %s", batch.Status)
	}
	if batch.Summary.Succeeded != 1 || batch.Summary.Failed != 1 {
		t.Errorf("summary = %+v", batch.Summary)
	}
	if len(batch.Results) != 2 {
		t.Errorf("results = %d", len(batch.Results))
	}
}

func TestChatEmptyCorpusIsWarning(t *testing.T) {
	svc := newTestService(t, &memStore{}, "should not be called")

	res, err := svc.Chat(context.Background(), "what is mitosis?", "alice", nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != models.StatusWarning {
		t.Fatalf("status = %s, want warning", res.Status)
	}
	if !strings.Contains(res.Answer, "No educational materials") {
		t.Errorf("answer = %q", res.Answer)
	}
}

func TestChatUsesRetrievedContext(t *testing.T) {
	store := &memStore{}
	svc := newTestService(t, store, "Photosynthesis is how plants make food.")

	up := svc.ProcessUpload(context.Background(), UploadRequest{Filename: "bio.pdf", Data: pdfBytes(), Owner: "alice"})
	if up.Status != models.StatusSuccess {
		t.Fatalf("upload failed: %+v", up)
	}

	res, err := svc.Chat(context.Background(), "what is photosynthesis?", "alice", nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != models.StatusSuccess {
		t.Fatalf("status = %s", res.Status)
	}
	if res.ContextChunks == 0 || len(res.Sources) == 0 {
		t.Errorf("result = %+v", res)
	}

	// Another user sees none of alice's material.
	other, err := svc.Chat(context.Background(), "what is photosynthesis?", "bob", nil)
	if err != nil {
		t.Fatal(err)
	}
	if other.Status != models.StatusWarning {
		t.Errorf("cross-user chat status = %s, want warning", other.Status)
	}
}

func TestChatWithFileScopesRetrieval(t *testing.T) {
	store := &memStore{}
	svc := newTestService(t, store, "It happens in chloroplasts.")

	up := svc.ProcessUpload(context.Background(), UploadRequest{Filename: "bio.pdf", Data: pdfBytes(), Owner: "alice"})
	res, err := svc.ChatWithFile(context.Background(), up.FileID, "where does it happen?", "alice")
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != models.StatusSuccess || res.FileID != up.FileID {
		t.Errorf("result = %+v", res)
	}

	missing, err := svc.ChatWithFile(context.Background(), "no_such_file", "q", "alice")
	if err != nil {
		t.Fatal(err)
	}
	if missing.Status != models.StatusWarning {
		t.Errorf("status = %s, want warning for unknown file", missing.Status)
	}
}

func TestStatsAndClear(t *testing.T) {
	store := &memStore{}
	svc := newTestService(t, store, "")

	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.KnowledgeState != "empty" {
		t.Errorf("state = %q", stats.KnowledgeState)
	}

	svc.ProcessUpload(context.Background(), UploadRequest{Filename: "bio.pdf", Data: pdfBytes()})
	stats, _ = svc.Stats(context.Background())
	if stats.KnowledgeState != "ready" || stats.TotalChunks == 0 {
		t.Errorf("stats = %+v", stats)
	}

	cleared, err := svc.ClearCorpus(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if cleared.Deleted != stats.TotalChunks {
		t.Errorf("deleted = %d, want %d", cleared.Deleted, stats.TotalChunks)
	}
}
