package schema

// Metadata keys attached to every chunk. The store filters on KeyFileID and
// KeyOwnerUserID; the rest is provenance surfaced back to callers.
const (
	KeyFileID          = "file_id"
	KeyOwnerUserID     = "owner_user_id"
	KeyFolderID        = "folder_id"
	KeySource          = "source"
	KeyFilename        = "filename"
	KeyFileType        = "file_type"
	KeyUploadTimestamp = "upload_timestamp"
	KeyChunkIndex      = "chunk_index"
	KeyTotalChunks     = "total_chunks"
	KeyChunkLength     = "chunk_length"
	KeyPages           = "pages"
	KeyMethod          = "method"
	KeyConfidence      = "avg_confidence"
	KeyScore           = "score"
)

// Chunk is the unit of storage and retrieval: a bounded, overlap-windowed
// slice of a document's normalized text plus its metadata. Chunks are
// immutable once persisted.
type Chunk struct {
	// ID is the unique identifier of this chunk.
	ID string

	// Text is the chunk's content.
	Text string

	// Embedding is the opaque vector produced by the embedding collaborator.
	// The core never inspects it.
	Embedding []float32

	// Metadata holds ownership, ordinal position and provenance under the
	// Key* constants above.
	Metadata map[string]interface{}
}

// FileID returns the chunk's file identity, or "" when absent.
func (c *Chunk) FileID() string {
	return c.metaString(KeyFileID)
}

// OwnerUserID returns the chunk's owner, or "" for legacy unowned chunks.
func (c *Chunk) OwnerUserID() string {
	return c.metaString(KeyOwnerUserID)
}

// Source returns the chunk's display name, or "" when absent.
func (c *Chunk) Source() string {
	return c.metaString(KeySource)
}

// Filename returns the originating file name, or "" when absent.
func (c *Chunk) Filename() string {
	return c.metaString(KeyFilename)
}

// ChunkIndex returns the chunk's 0-based ordinal within its document, or -1
// when the metadata is missing or malformed.
func (c *Chunk) ChunkIndex() int {
	if c.Metadata == nil {
		return -1
	}
	switch v := c.Metadata[KeyChunkIndex].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return -1
}

func (c *Chunk) metaString(key string) string {
	if c.Metadata == nil {
		return ""
	}
	if v, ok := c.Metadata[key].(string); ok {
		return v
	}
	return ""
}
