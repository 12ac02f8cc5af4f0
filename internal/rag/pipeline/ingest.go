package pipeline

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"StudyMind/internal/events"
	"StudyMind/internal/models"
	"StudyMind/internal/rag/chunker"
	"StudyMind/internal/rag/extractor"
	"StudyMind/internal/rag/interfaces"
	"StudyMind/internal/rag/normalizer"
	"StudyMind/internal/rag/schema"
	"StudyMind/pkg/logger"
)

// ObjectStore archives raw upload bytes. A nil ObjectStore disables
// archival.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
}

// IngestResult reports the outcome of one document ingestion.
type IngestResult struct {
	Status     models.Status `json:"status"`
	Message    string        `json:"message,omitempty"`
	FileID     string        `json:"file_id"`
	Filename   string        `json:"filename"`
	FileType   string        `json:"file_type"`
	ChunkCount int           `json:"chunks_created"`
	TextLength int           `json:"text_length"`
}

// Ingestor runs the write path: extracted text is normalized, chunked and
// persisted, with the raw upload archived and an event published alongside.
type Ingestor struct {
	store     interfaces.CorpusStore
	chunker   *chunker.Chunker
	objects   ObjectStore
	publisher *events.Publisher
	log       *logger.Logger
}

// NewIngestor creates an Ingestor. objects and publisher may be nil to
// disable archival and events.
func NewIngestor(store interfaces.CorpusStore, chk *chunker.Chunker, objects ObjectStore, publisher *events.Publisher, log *logger.Logger) *Ingestor {
	return &Ingestor{
		store:     store,
		chunker:   chk,
		objects:   objects,
		publisher: publisher,
		log:       log,
	}
}

// Ingest persists one extracted document. The extraction result must be
// non-error; text that normalizes to nothing yields a warning and stores no
// chunks. Persistence, raw archival and event publication run concurrently;
// only persistence failure fails the ingestion.
func (in *Ingestor) Ingest(ctx context.Context, ext *extractor.Result, raw []byte, contentType, owner, folderID string) (*IngestResult, error) {
	res := &IngestResult{
		FileID:   ext.FileID,
		Filename: ext.Metadata.Filename,
		FileType: string(ext.Metadata.FileType),
	}

	cleaned := normalizer.Clean(ext.Text)
	res.TextLength = len(cleaned)

	chunkCtx := chunker.Context{
		FileID:          ext.FileID,
		OwnerUserID:     owner,
		Source:          ext.Metadata.Filename,
		Filename:        ext.Metadata.Filename,
		FileType:        string(ext.Metadata.FileType),
		FolderID:        folderID,
		UploadTimestamp: ext.Metadata.Timestamp,
		Extra:           extraMetadata(ext),
	}
	chunks := in.chunker.Split(cleaned, chunkCtx)
	if len(chunks) == 0 {
		res.Status = models.StatusWarning
		res.Message = "no usable text to index"
		return res, nil
	}
	res.ChunkCount = len(chunks)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := in.store.Add(gctx, chunks); err != nil {
			return fmt.Errorf("failed to store chunks for %s: %w", ext.FileID, err)
		}
		return nil
	})
	if in.objects != nil {
		g.Go(func() error {
			key := ext.FileID + "/" + ext.Metadata.Filename
			if err := in.objects.Put(gctx, key, raw, contentType); err != nil {
				// Archival is best-effort; the indexed chunks are the system
				// of record.
				in.log.WithErr(err).WithField("file_id", ext.FileID).Warn("Raw upload archival failed")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := in.publisher.PublishIngested(ctx, events.IngestEvent{
		FileID:      ext.FileID,
		Filename:    ext.Metadata.Filename,
		FileType:    string(ext.Metadata.FileType),
		OwnerUserID: owner,
		ChunkCount:  len(chunks),
		Timestamp:   ext.Metadata.Timestamp,
	}); err != nil {
		in.log.WithErr(err).WithField("file_id", ext.FileID).Warn("Ingest event publication failed")
	}

	res.Status = models.StatusSuccess
	res.Message = fmt.Sprintf("successfully processed %s into %d chunks", ext.Metadata.Filename, len(chunks))
	return res, nil
}

// extraMetadata carries the extraction provenance into every chunk.
func extraMetadata(ext *extractor.Result) map[string]interface{} {
	extra := map[string]interface{}{}
	if ext.Metadata.Pages > 0 {
		extra[schema.KeyPages] = ext.Metadata.Pages
	}
	if ext.Metadata.Method != "" {
		extra[schema.KeyMethod] = ext.Metadata.Method
	}
	if ext.Metadata.Confidence > 0 {
		extra[schema.KeyConfidence] = ext.Metadata.Confidence
	}
	return extra
}
