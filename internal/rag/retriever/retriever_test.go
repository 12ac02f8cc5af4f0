package retriever

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"StudyMind/internal/models"
	"StudyMind/internal/rag/interfaces"
	"StudyMind/internal/rag/schema"
	"StudyMind/pkg/logger"
)

// fakeStore records the filters it was searched with and serves canned
// chunks keyed by file id.
type fakeStore struct {
	interfaces.CorpusStore

	byFile     map[string][]*schema.Chunk
	all        []*schema.Chunk
	searchErr  map[string]error
	gotFilters []interfaces.Filter
	gotK       []int
}

func (f *fakeStore) Search(ctx context.Context, query string, k int, filter interfaces.Filter) ([]*schema.Chunk, error) {
	f.gotFilters = append(f.gotFilters, filter)
	f.gotK = append(f.gotK, k)
	if err := f.searchErr[filter.FileID]; err != nil {
		return nil, err
	}
	if filter.FileID != "" {
		return f.byFile[filter.FileID], nil
	}
	if filter.OwnerUserID == "" {
		return f.all, nil
	}
	var owned []*schema.Chunk
	for _, c := range f.all {
		if c.OwnerUserID() == filter.OwnerUserID {
			owned = append(owned, c)
		}
	}
	return owned, nil
}

func chunk(text, fileID, owner string) *schema.Chunk {
	return &schema.Chunk{
		ID:   fmt.Sprintf("%s-%d", fileID, len(text)),
		Text: text,
		Metadata: map[string]interface{}{
			schema.KeyFileID:      fileID,
			schema.KeyOwnerUserID: owner,
			schema.KeySource:      fileID + ".pdf",
			schema.KeyFilename:    fileID + ".pdf",
		},
	}
}

func testLog() *logger.Logger { return logger.New("retriever-test") }

func TestFileContextOverFetchesAndTrims(t *testing.T) {
	store := &fakeStore{byFile: map[string][]*schema.Chunk{}}
	for i := 0; i < 8; i++ {
		store.byFile["doc"] = append(store.byFile["doc"], chunk(fmt.Sprintf("chunk number %d", i), "doc", "alice"))
	}
	r := New(store, 3, 2, 200, testLog())

	res, err := r.FileContext(context.Background(), "what", "doc", "alice")
	if err != nil {
		t.Fatal(err)
	}
	if store.gotK[0] != 6 {
		t.Errorf("requested k = %d, want twice the chunk budget", store.gotK[0])
	}
	if res.ChunksFound != 3 {
		t.Errorf("chunks_found = %d, want trimmed to 3", res.ChunksFound)
	}
	if store.gotFilters[0].FileID != "doc" || store.gotFilters[0].OwnerUserID != "alice" {
		t.Errorf("store filter = %+v", store.gotFilters[0])
	}
}

func TestFileContextDropsForeignChunks(t *testing.T) {
	store := &fakeStore{byFile: map[string][]*schema.Chunk{
		"doc": {
			chunk("mine", "doc", "alice"),
			chunk("someone else's", "doc", "bob"),
			chunk("wrong file entirely", "other", "alice"),
		},
	}}
	r := New(store, 4, 2, 200, testLog())

	res, err := r.FileContext(context.Background(), "q", "doc", "alice")
	if err != nil {
		t.Fatal(err)
	}
	if res.ChunksFound != 1 {
		t.Fatalf("chunks_found = %d, want mismatched chunks dropped", res.ChunksFound)
	}
	if res.Context != "mine" {
		t.Errorf("context = %q", res.Context)
	}
}

func TestFileContextNoMatchesIsWarning(t *testing.T) {
	store := &fakeStore{byFile: map[string][]*schema.Chunk{}}
	r := New(store, 4, 2, 200, testLog())

	res, err := r.FileContext(context.Background(), "q", "empty", "alice")
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != models.StatusWarning {
		t.Errorf("status = %s, want warning", res.Status)
	}
	if !strings.Contains(res.Message, "empty") {
		t.Errorf("message = %q, want the file named", res.Message)
	}
}

func TestSourcePreviewTruncation(t *testing.T) {
	long := strings.Repeat("x", 500)
	store := &fakeStore{byFile: map[string][]*schema.Chunk{
		"doc": {chunk(long, "doc", "")},
	}}
	r := New(store, 4, 2, 200, testLog())

	res, err := r.FileContext(context.Background(), "q", "doc", "")
	if err != nil {
		t.Fatal(err)
	}
	if got := res.Sources[0].Content; len(got) != 203 || !strings.HasSuffix(got, "...") {
		t.Errorf("preview length = %d, want 200 chars plus ellipsis", len(got))
	}
	if res.Context != long {
		t.Error("context must carry the full chunk text, not the preview")
	}
}

func TestTruncateKeepsRunesIntact(t *testing.T) {
	// A cut landing mid-rune must back up to the rune boundary.
	got := truncate(strings.Repeat("é", 101), 201)
	if !utf8.ValidString(got) {
		t.Errorf("truncate produced invalid UTF-8: %q", got)
	}
	if want := strings.Repeat("é", 100) + "..."; got != want {
		t.Errorf("truncate() = %q, want %q", got, want)
	}
	if got := truncate("short", 200); got != "short" {
		t.Errorf("truncate(short) = %q", got)
	}
}

func TestFilterScopeLeavesInputUntouched(t *testing.T) {
	// The store may hand back a cached slice; filtering must not shuffle it.
	in := []*schema.Chunk{
		chunk("foreign", "other", "alice"),
		chunk("mine", "doc", "alice"),
	}
	snapshot := append([]*schema.Chunk(nil), in...)

	kept := filterScope(in, "doc", "alice")
	if len(kept) != 1 || kept[0].Text != "mine" {
		t.Fatalf("kept = %+v", kept)
	}
	for i := range snapshot {
		if in[i] != snapshot[i] {
			t.Errorf("input slice mutated at index %d", i)
		}
	}
}

func TestMultiFileContextLabelsAndOrder(t *testing.T) {
	store := &fakeStore{byFile: map[string][]*schema.Chunk{
		"a": {chunk("alpha text", "a", "")},
		"b": {chunk("beta text", "b", "")},
	}}
	r := New(store, 4, 2, 200, testLog())

	res, err := r.MultiFileContext(context.Background(), "q", []string{"b", "a"}, "")
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != models.StatusSuccess {
		t.Fatalf("status = %s", res.Status)
	}
	bIdx := strings.Index(res.Context, "[From file b]:")
	aIdx := strings.Index(res.Context, "[From file a]:")
	if bIdx < 0 || aIdx < 0 {
		t.Fatalf("context missing file headers: %q", res.Context)
	}
	if bIdx > aIdx {
		t.Error("sections must follow the caller's file order")
	}
	if got := res.SuccessfulFiles; len(got) != 2 || got[0] != "b" || got[1] != "a" {
		t.Errorf("successful_files = %v", got)
	}
	if res.TotalChunks != 2 {
		t.Errorf("total_chunks = %d", res.TotalChunks)
	}
	for i, k := range store.gotK {
		if k != 4 {
			t.Errorf("search %d requested k=%d, want twice the per-file budget", i, k)
		}
	}
}

func TestMultiFileContextPartialFailure(t *testing.T) {
	store := &fakeStore{
		byFile:    map[string][]*schema.Chunk{"good": {chunk("useful", "good", "")}},
		searchErr: map[string]error{"broken": errors.New("index offline")},
	}
	r := New(store, 4, 2, 200, testLog())

	res, err := r.MultiFileContext(context.Background(), "q", []string{"good", "broken", "missing"}, "")
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != models.StatusSuccess {
		t.Fatalf("one contributing file should still succeed, got %s", res.Status)
	}
	if len(res.FailedFiles) != 2 {
		t.Fatalf("failed_files = %+v", res.FailedFiles)
	}
	if res.FailedFiles[0].FileID != "broken" || res.FailedFiles[1].FileID != "missing" {
		t.Errorf("failed_files = %+v", res.FailedFiles)
	}
}

func TestMultiFileContextAllFailed(t *testing.T) {
	store := &fakeStore{byFile: map[string][]*schema.Chunk{}}
	r := New(store, 4, 2, 200, testLog())

	res, err := r.MultiFileContext(context.Background(), "q", []string{"x", "y"}, "")
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != models.StatusWarning {
		t.Errorf("status = %s, want warning when no file contributes", res.Status)
	}
	if len(res.FailedFiles) != 2 {
		t.Errorf("failed_files = %+v", res.FailedFiles)
	}
}

func TestCorpusContextAppliesOwnerFilter(t *testing.T) {
	store := &fakeStore{all: []*schema.Chunk{
		chunk("alice content", "a", "alice"),
		chunk("bob content", "b", "bob"),
	}}
	r := New(store, 4, 2, 200, testLog())

	res, err := r.CorpusContext(context.Background(), "q", "alice")
	if err != nil {
		t.Fatal(err)
	}
	if store.gotFilters[0].OwnerUserID != "alice" {
		t.Errorf("store filter = %+v", store.gotFilters[0])
	}
	if res.ChunksFound != 1 || res.Context != "alice content" {
		t.Errorf("result = %+v", res)
	}
}
