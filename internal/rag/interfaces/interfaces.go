package interfaces

import (
	"context"

	"StudyMind/internal/models"
	"StudyMind/internal/rag/schema"
)

// Filter restricts a similarity search by file identity and/or owner
// identity. Non-empty keys are ANDed. An empty OwnerUserID places no owner
// restriction (legacy unauthenticated corpus).
type Filter struct {
	FileID      string
	OwnerUserID string
}

// CorpusStore persists chunks with metadata and serves filtered similarity
// search. Embedding happens inside the store on Add and Search; the core
// never touches vectors.
type CorpusStore interface {
	// Add persists chunks. Chunks are immutable afterwards.
	Add(ctx context.Context, chunks []*schema.Chunk) error

	// Search returns up to k chunks most similar to query, best first,
	// restricted by filter. Each result carries its similarity score under
	// schema.KeyScore.
	Search(ctx context.Context, query string, k int, filter Filter) ([]*schema.Chunk, error)

	// ChunksByFileID returns every chunk of one document in chunk_index
	// order. A non-empty owner restricts the lookup to that owner's chunks.
	ChunksByFileID(ctx context.Context, fileID, owner string) ([]*schema.Chunk, error)

	// ListFiles aggregates stored chunks into per-file summaries, newest
	// upload first, for the given owner (all files when owner is empty).
	ListFiles(ctx context.Context, owner string) ([]models.FileInfo, error)

	// CountAll returns the total number of stored chunks.
	CountAll(ctx context.Context) (int64, error)

	// DeleteAll clears the corpus and returns the number of deleted chunks.
	DeleteAll(ctx context.Context) (int64, error)

	// DeleteByFileIDs removes every chunk belonging to the given files,
	// restricted to the owner when non-empty, and returns the deleted count.
	DeleteByFileIDs(ctx context.Context, fileIDs []string, owner string) (int64, error)
}

// EmbeddingModel produces vector representations of text.
type EmbeddingModel interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// LLM is a stateless single-turn text generation collaborator.
type LLM interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// AudioLLM generates text from a prompt plus raw audio bytes. It is invoked
// once to transcribe a spoken question and once more to produce the final
// answer, both within one request.
type AudioLLM interface {
	GenerateWithAudio(ctx context.Context, prompt string, audio []byte, mimeType string) (string, error)
}
