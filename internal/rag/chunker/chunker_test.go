package chunker

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"StudyMind/internal/rag/schema"
)

// buildText produces text with unique sentences so chunk positions can be
// located unambiguously.
func buildText(sentences int) string {
	var sb strings.Builder
	for i := 0; i < sentences; i++ {
		fmt.Fprintf(&sb, "Sentence number %04d carries its own unique marker. ", i)
	}
	return strings.TrimSpace(sb.String())
}

func TestSplitEmptyInput(t *testing.T) {
	c := New(1000, 200)
	if got := c.Split("", Context{}); got != nil {
		t.Errorf("Split(empty) = %d chunks, want 0", len(got))
	}
	if got := c.Split("   \n\t ", Context{}); got != nil {
		t.Errorf("Split(blank) = %d chunks, want 0", len(got))
	}
}

func TestSplitOrdinalsContiguous(t *testing.T) {
	c := New(300, 60)
	chunks := c.Split(buildText(40), Context{FileID: "f1"})
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	for i, ch := range chunks {
		if got := ch.ChunkIndex(); got != i {
			t.Errorf("chunk %d has chunk_index %d", i, got)
		}
		if total := ch.Metadata[schema.KeyTotalChunks]; total != len(chunks) {
			t.Errorf("chunk %d has total_chunks %v, want %d", i, total, len(chunks))
		}
		if length := ch.Metadata[schema.KeyChunkLength]; length != len(ch.Text) {
			t.Errorf("chunk %d has chunk_length %v, want %d", i, length, len(ch.Text))
		}
	}
}

func TestSplitInheritsContext(t *testing.T) {
	c := New(300, 60)
	ctx := Context{
		FileID:      "doc_20240101_abcd1234",
		OwnerUserID: "user-1",
		Source:      "lecture.pdf",
		Filename:    "lecture.pdf",
		FileType:    "pdf",
		Extra:       map[string]interface{}{schema.KeyPages: 3, schema.KeyMethod: "layout"},
	}

	for _, ch := range c.Split(buildText(30), ctx) {
		if ch.FileID() != ctx.FileID {
			t.Errorf("chunk file_id = %q, want %q", ch.FileID(), ctx.FileID)
		}
		if ch.OwnerUserID() != ctx.OwnerUserID {
			t.Errorf("chunk owner = %q, want %q", ch.OwnerUserID(), ctx.OwnerUserID)
		}
		if ch.Metadata[schema.KeyPages] != 3 || ch.Metadata[schema.KeyMethod] != "layout" {
			t.Errorf("extraction metadata not inherited: %v", ch.Metadata)
		}
	}
}

// TestSplitCoversTextWithOverlap checks the reassembly property: chunks in
// chunk_index order cover the input completely and differ from it only by
// overlap duplication at the boundaries.
func TestSplitCoversTextWithOverlap(t *testing.T) {
	text := buildText(60)
	c := New(400, 80)
	chunks := c.Split(text, Context{FileID: "f1"})
	if len(chunks) < 3 {
		t.Fatalf("expected several chunks, got %d", len(chunks))
	}

	prevEnd := 0
	searchFrom := 0
	for i, ch := range chunks {
		pos := strings.Index(text[searchFrom:], ch.Text)
		if pos < 0 {
			t.Fatalf("chunk %d is not a substring of the input", i)
		}
		startPos := searchFrom + pos

		if i == 0 && startPos != 0 {
			t.Errorf("first chunk starts at %d, want 0", startPos)
		}
		if i > 0 && startPos > prevEnd {
			t.Errorf("gap before chunk %d: starts at %d, previous ended at %d", i, startPos, prevEnd)
		}
		prevEnd = startPos + len(ch.Text)
		searchFrom = startPos + 1
	}

	if prevEnd != len(text) {
		t.Errorf("chunks cover up to %d, want %d", prevEnd, len(text))
	}
}

func TestSplitPrefersSentenceBoundaries(t *testing.T) {
	text := buildText(60)
	c := New(400, 80)
	chunks := c.Split(text, Context{FileID: "f1"})

	boundaryEndings := 0
	for _, ch := range chunks[:len(chunks)-1] {
		if strings.HasSuffix(ch.Text, ". ") || strings.HasSuffix(ch.Text, ".") {
			boundaryEndings++
		}
	}
	if boundaryEndings == 0 {
		t.Errorf("no chunk ends at a sentence boundary; breakpoint selection is not working")
	}
}

func TestSplitKeepsRunesIntact(t *testing.T) {
	// Hard cuts and the overlap step must land on rune boundaries even when
	// the text has no separators to break at.
	c := New(1001, 200)
	chunks := c.Split(strings.Repeat("é", 2000), Context{FileID: "f1"})
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, ch := range chunks {
		if !utf8.ValidString(ch.Text) {
			t.Errorf("chunk %d contains invalid UTF-8", i)
		}
	}
}

func TestSplitShortTextSingleChunk(t *testing.T) {
	c := New(1000, 200)
	chunks := c.Split("one short paragraph", Context{FileID: "f1"})
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if chunks[0].Text != "one short paragraph" {
		t.Errorf("chunk text = %q", chunks[0].Text)
	}
	if chunks[0].Metadata[schema.KeyTotalChunks] != 1 {
		t.Errorf("total_chunks = %v, want 1", chunks[0].Metadata[schema.KeyTotalChunks])
	}
}
