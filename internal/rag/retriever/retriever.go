package retriever

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"StudyMind/internal/models"
	"StudyMind/internal/rag/interfaces"
	"StudyMind/internal/rag/schema"
	"StudyMind/pkg/logger"
)

// Source is the provenance surfaced for one retrieved chunk: a bounded
// preview of its content plus where it came from.
type Source struct {
	Content  string `json:"content"`
	Source   string `json:"source"`
	FileID   string `json:"file_id,omitempty"`
	Filename string `json:"filename,omitempty"`
}

// Result is the outcome of one retrieval: an assembled context string ready
// for prompting, the chunks behind it, and their provenance.
type Result struct {
	Status      models.Status   `json:"status"`
	Message     string          `json:"message,omitempty"`
	Context     string          `json:"context"`
	Chunks      []*schema.Chunk `json:"-"`
	Sources     []Source        `json:"sources"`
	ChunksFound int             `json:"chunks_found"`
}

// FileFailure names one requested file that yielded nothing and why.
type FileFailure struct {
	FileID string `json:"file_id"`
	Reason string `json:"reason"`
}

// MultiResult extends Result with the per-file accounting of a multi-file
// retrieval.
type MultiResult struct {
	Result
	SuccessfulFiles []string      `json:"successful_files"`
	FailedFiles     []FileFailure `json:"failed_files,omitempty"`
	TotalChunks     int           `json:"total_chunks"`
}

// Retriever assembles prompt context from the corpus store at three scopes:
// one file, an explicit file list, and the whole corpus. Every scope carries
// the caller's owner identity through to the store so one user's chunks never
// reach another user's context.
type Retriever struct {
	store      interfaces.CorpusStore
	maxChunks  int
	maxPerFile int
	previewLen int
	log        *logger.Logger
}

// New creates a Retriever. maxChunks bounds corpus-wide and single-file
// retrieval; maxPerFile bounds each file's contribution to a multi-file
// retrieval; previewLen bounds the length of source previews.
func New(store interfaces.CorpusStore, maxChunks, maxPerFile, previewLen int, log *logger.Logger) *Retriever {
	if maxChunks <= 0 {
		maxChunks = 4
	}
	if maxPerFile <= 0 {
		maxPerFile = 2
	}
	if previewLen <= 0 {
		previewLen = 200
	}
	return &Retriever{store: store, maxChunks: maxChunks, maxPerFile: maxPerFile, previewLen: previewLen, log: log}
}

// FileContext retrieves context for query restricted to one file.
func (r *Retriever) FileContext(ctx context.Context, query, fileID, owner string) (*Result, error) {
	return r.fileContext(ctx, query, fileID, owner, r.maxChunks)
}

// fileContext asks the store for twice the chunk budget so that index
// imprecision near the filter boundary cannot starve the result, then trims
// the surplus.
func (r *Retriever) fileContext(ctx context.Context, query, fileID, owner string, limit int) (*Result, error) {
	filter := interfaces.Filter{FileID: fileID, OwnerUserID: owner}
	chunks, err := r.store.Search(ctx, query, 2*limit, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve context for file %s: %w", fileID, err)
	}

	chunks = filterScope(chunks, fileID, owner)
	if len(chunks) > limit {
		chunks = chunks[:limit]
	}
	if len(chunks) == 0 {
		return &Result{
			Status:  models.StatusWarning,
			Message: fmt.Sprintf("no relevant content found in file %s", fileID),
		}, nil
	}

	return r.assemble(chunks, ""), nil
}

// MultiFileContext retrieves context for query across an explicit list of
// files, preserving the caller's file order. Each file's contribution is
// labeled so the model can attribute content. Retrieval succeeds when at
// least one file contributes; files that yield nothing are reported in
// FailedFiles rather than failing the whole call.
func (r *Retriever) MultiFileContext(ctx context.Context, query string, fileIDs []string, owner string) (*MultiResult, error) {
	res := &MultiResult{}

	var sections []string
	for _, fileID := range fileIDs {
		fr, err := r.fileContext(ctx, query, fileID, owner, r.maxPerFile)
		if err != nil {
			r.log.WithErr(err).WithField("file_id", fileID).Warn("Retrieval failed for one file in a multi-file request")
			res.FailedFiles = append(res.FailedFiles, FileFailure{FileID: fileID, Reason: err.Error()})
			continue
		}
		if fr.Status != models.StatusSuccess || len(fr.Chunks) == 0 {
			reason := fr.Message
			if reason == "" {
				reason = "no relevant content found"
			}
			res.FailedFiles = append(res.FailedFiles, FileFailure{FileID: fileID, Reason: reason})
			continue
		}

		sections = append(sections, fmt.Sprintf("[From file %s]:\n%s", fileID, fr.Context))
		res.SuccessfulFiles = append(res.SuccessfulFiles, fileID)
		res.Chunks = append(res.Chunks, fr.Chunks...)
		res.Sources = append(res.Sources, fr.Sources...)
		res.TotalChunks += len(fr.Chunks)
	}

	if len(res.SuccessfulFiles) == 0 {
		res.Status = models.StatusWarning
		res.Message = "no relevant content found in the selected files"
		return res, nil
	}

	res.Status = models.StatusSuccess
	res.Context = strings.Join(sections, "\n\n")
	res.ChunksFound = res.TotalChunks
	return res, nil
}

// CorpusContext retrieves context for query across everything the owner has
// uploaded.
func (r *Retriever) CorpusContext(ctx context.Context, query, owner string) (*Result, error) {
	filter := interfaces.Filter{OwnerUserID: owner}
	chunks, err := r.store.Search(ctx, query, r.maxChunks, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve context: %w", err)
	}

	chunks = filterScope(chunks, "", owner)
	if len(chunks) == 0 {
		return &Result{
			Status:  models.StatusWarning,
			Message: "no relevant content found",
		}, nil
	}

	return r.assemble(chunks, ""), nil
}

// assemble joins chunk texts into the prompt context and builds the source
// previews.
func (r *Retriever) assemble(chunks []*schema.Chunk, message string) *Result {
	texts := make([]string, len(chunks))
	sources := make([]Source, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
		sources[i] = Source{
			Content:  truncate(c.Text, r.previewLen),
			Source:   c.Source(),
			FileID:   c.FileID(),
			Filename: c.Filename(),
		}
	}
	return &Result{
		Status:      models.StatusSuccess,
		Message:     message,
		Context:     strings.Join(texts, "\n"),
		Chunks:      chunks,
		Sources:     sources,
		ChunksFound: len(chunks),
	}
}

// filterScope drops chunks whose metadata does not match the requested file
// and owner. The store already filters; this guards against index entries
// whose metadata drifted from the search filter.
func filterScope(chunks []*schema.Chunk, fileID, owner string) []*schema.Chunk {
	// A fresh slice: the input may alias a cache inside the store.
	kept := make([]*schema.Chunk, 0, len(chunks))
	for _, c := range chunks {
		if fileID != "" && c.FileID() != fileID {
			continue
		}
		if owner != "" && c.OwnerUserID() != owner {
			continue
		}
		kept = append(kept, c)
	}
	return kept
}

// truncate cuts s to at most n bytes without splitting a multi-byte rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
