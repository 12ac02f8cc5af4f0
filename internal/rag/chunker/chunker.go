package chunker

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"StudyMind/internal/rag/schema"
)

// Chunker splits normalized text into overlapping windows, preferring to
// break at paragraph and sentence boundaries before falling back to hard
// character cuts.
type Chunker struct {
	// Size is the target window size in characters.
	Size int
	// Overlap is the number of characters shared between consecutive
	// windows.
	Overlap int
}

// New returns a Chunker with the given window and overlap sizes. Invalid
// values fall back to the defaults (1000/200).
func New(size, overlap int) *Chunker {
	if size <= 0 {
		size = 1000
	}
	if overlap < 0 || overlap >= size {
		overlap = 200
		if overlap >= size {
			overlap = size / 5
		}
	}
	return &Chunker{Size: size, Overlap: overlap}
}

// Context is the ingestion context every chunk of a document inherits.
type Context struct {
	FileID          string
	OwnerUserID     string
	Source          string
	Filename        string
	FileType        string
	FolderID        string
	UploadTimestamp time.Time
	// Extra holds free-form extraction metadata (pages, method, confidence).
	Extra map[string]interface{}
}

// Boundary separators tried in priority order when choosing a window end,
// mirroring how the source material breaks: paragraphs first, then lines,
// then sentence punctuation.
var separators = []string{"\n\n", "\n", ". ", "! ", "? "}

// Split windows text into chunks and tags each with ownership, ordinal
// position and provenance metadata. Empty input yields zero chunks.
func (c *Chunker) Split(text string, ctx Context) []*schema.Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var pieces []string
	start := 0
	for start < len(text) {
		end := start + c.Size
		if end >= len(text) {
			pieces = append(pieces, text[start:])
			break
		}

		end = c.breakpoint(text, start, end)
		pieces = append(pieces, text[start:end])

		next := alignRune(text, end-c.Overlap)
		if next <= start {
			_, w := utf8.DecodeRuneInString(text[start:])
			next = start + w
		}
		start = next
	}

	chunks := make([]*schema.Chunk, len(pieces))
	for i, piece := range pieces {
		md := make(map[string]interface{}, len(ctx.Extra)+9)
		for k, v := range ctx.Extra {
			md[k] = v
		}
		md[schema.KeyFileID] = ctx.FileID
		md[schema.KeyOwnerUserID] = ctx.OwnerUserID
		md[schema.KeySource] = ctx.Source
		md[schema.KeyFilename] = ctx.Filename
		md[schema.KeyFileType] = ctx.FileType
		md[schema.KeyUploadTimestamp] = ctx.UploadTimestamp
		md[schema.KeyChunkIndex] = i
		md[schema.KeyTotalChunks] = len(pieces)
		md[schema.KeyChunkLength] = len(piece)
		if ctx.FolderID != "" {
			md[schema.KeyFolderID] = ctx.FolderID
		}

		chunks[i] = &schema.Chunk{
			ID:       uuid.New().String(),
			Text:     piece,
			Metadata: md,
		}
	}

	return chunks
}

// breakpoint chooses where to end the window starting at start whose hard
// limit is end. It scans the second half of the window for the highest
// priority separator and cuts just after it; with no separator present the
// hard limit stands.
func (c *Chunker) breakpoint(text string, start, end int) int {
	window := text[start:end]
	floor := len(window) / 2

	for _, sep := range separators {
		if idx := strings.LastIndex(window, sep); idx >= floor {
			return start + idx + len(sep)
		}
	}
	return alignRune(text, end)
}

// alignRune backs idx up to the start of the rune it falls inside so a
// hard cut never splits a multi-byte character.
func alignRune(text string, idx int) int {
	for idx > 0 && !utf8.RuneStart(text[idx]) {
		idx--
	}
	return idx
}
