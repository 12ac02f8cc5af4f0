package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"StudyMind/internal/dal"
	"StudyMind/internal/models"
	"StudyMind/internal/rag/extractor"
	"StudyMind/internal/rag/interfaces"
	"StudyMind/internal/rag/pipeline"
	"StudyMind/internal/rag/quiz"
	"StudyMind/internal/rag/retriever"
	"StudyMind/pkg/logger"
)

// Service is the application root: every API operation goes through it. All
// collaborators are injected so each can be replaced in tests.
type Service struct {
	extractor *extractor.Extractor
	ingestor  *pipeline.Ingestor
	retriever *retriever.Retriever
	quiz      *quiz.Generator
	llm       interfaces.LLM
	audio     interfaces.AudioLLM
	store     interfaces.CorpusStore
	folders   *dal.FolderDAL
	log       *logger.Logger
}

// Deps bundles the collaborators a Service needs. Folders and Audio may be
// nil, disabling the folder and audio surfaces.
type Deps struct {
	Extractor *extractor.Extractor
	Ingestor  *pipeline.Ingestor
	Retriever *retriever.Retriever
	Quiz      *quiz.Generator
	LLM       interfaces.LLM
	Audio     interfaces.AudioLLM
	Store     interfaces.CorpusStore
	Folders   *dal.FolderDAL
	Log       *logger.Logger
}

// New wires a Service from its dependencies.
func New(d Deps) (*Service, error) {
	if d.Store == nil {
		return nil, fmt.Errorf("corpus store is not initialized")
	}
	if d.LLM == nil {
		return nil, fmt.Errorf("generation model is not initialized")
	}
	return &Service{
		extractor: d.Extractor,
		ingestor:  d.Ingestor,
		retriever: d.Retriever,
		quiz:      d.Quiz,
		llm:       d.LLM,
		audio:     d.Audio,
		store:     d.Store,
		folders:   d.Folders,
		log:       d.Log,
	}, nil
}

// UploadRequest carries one raw upload into the write path.
type UploadRequest struct {
	Filename string
	Data     []byte
	Owner    string
	FolderID string
}

// UploadResult reports one processed upload.
type UploadResult struct {
	Status     models.Status          `json:"status"`
	Message    string                 `json:"message,omitempty"`
	Error      string                 `json:"error,omitempty"`
	Filename   string                 `json:"filename"`
	FileID     string                 `json:"file_id,omitempty"`
	Type       string                 `json:"type,omitempty"`
	Extraction *pipeline.IngestResult `json:"extraction_result,omitempty"`
}

// ProcessUpload extracts, normalizes, chunks and indexes one uploaded file.
// The file kind is sniffed from the content, not trusted from the filename.
func (s *Service) ProcessUpload(ctx context.Context, req UploadRequest) *UploadResult {
	res := &UploadResult{Filename: req.Filename}

	kind := mimetype.Detect(req.Data)
	var ext *extractor.Result
	var contentType string
	switch {
	case kind.Is("application/pdf"):
		res.Type = string(models.FileTypePDF)
		contentType = kind.String()
		ext = s.extractor.FromPDF(req.Data, req.Filename)
	case strings.HasPrefix(kind.String(), "image/"):
		res.Type = string(models.FileTypeImage)
		contentType = kind.String()
		ext = s.extractor.FromImage(req.Data, req.Filename)
	default:
		res.Status = models.StatusError
		res.Error = "invalid file type, only PDF and image files are allowed"
		return res
	}

	res.FileID = ext.FileID
	if ext.Status == models.StatusError {
		res.Status = models.StatusError
		res.Error = ext.Message
		return res
	}
	if ext.Text == "" {
		res.Status = models.StatusWarning
		res.Message = ext.Message
		return res
	}

	ingest, err := s.ingestor.Ingest(ctx, ext, req.Data, contentType, req.Owner, req.FolderID)
	if err != nil {
		s.log.WithErr(err).WithUser(req.Owner).Error("Ingestion failed")
		res.Status = models.StatusError
		res.Error = err.Error()
		return res
	}

	res.Status = ingest.Status
	res.Message = ingest.Message
	res.Extraction = ingest
	return res
}

// BatchUploadResult enumerates per-file outcomes of a multi-file upload. The
// overall status is success when at least one file succeeded.
type BatchUploadResult struct {
	Status  models.Status   `json:"status"`
	Message string          `json:"message,omitempty"`
	Results []*UploadResult `json:"results"`
	Summary BatchSummary    `json:"summary"`
}

// BatchSummary counts a batch's outcomes.
type BatchSummary struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// ProcessBatch processes several uploads independently. Individual failures
// are reported per file and never abort the batch.
func (s *Service) ProcessBatch(ctx context.Context, reqs []UploadRequest) *BatchUploadResult {
	batch := &BatchUploadResult{Summary: BatchSummary{Total: len(reqs)}}

	for _, req := range reqs {
		res := s.ProcessUpload(ctx, req)
		batch.Results = append(batch.Results, res)
		if res.Status == models.StatusError {
			batch.Summary.Failed++
		} else {
			batch.Summary.Succeeded++
		}
	}

	if batch.Summary.Succeeded > 0 {
		batch.Status = models.StatusSuccess
		batch.Message = fmt.Sprintf("processed %d of %d files", batch.Summary.Succeeded, batch.Summary.Total)
	} else {
		batch.Status = models.StatusError
		batch.Message = "no files could be processed"
	}
	return batch
}

// ChatResult is the answer-generation response shape shared by the chat
// surfaces.
type ChatResult struct {
	Status        models.Status      `json:"status"`
	Answer        string             `json:"answer"`
	Sources       []retriever.Source `json:"sources"`
	FileID        string             `json:"file_id,omitempty"`
	FileIDs       []string           `json:"file_ids,omitempty"`
	FoundFiles    []string           `json:"found_files,omitempty"`
	ContextChunks int                `json:"context_chunks,omitempty"`
}

// Chat answers a question against the caller's whole corpus, or against an
// explicit file list when fileIDs is non-empty.
func (s *Service) Chat(ctx context.Context, question, owner string, fileIDs []string) (*ChatResult, error) {
	if len(fileIDs) > 0 {
		return s.chatWithFiles(ctx, question, owner, fileIDs)
	}

	ret, err := s.retriever.CorpusContext(ctx, question, owner)
	if err != nil {
		return nil, err
	}
	if ret.Status != models.StatusSuccess {
		return &ChatResult{
			Status:  models.StatusWarning,
			Answer:  "No educational materials have been uploaded yet. Please upload PDF or image materials first.",
			Sources: []retriever.Source{},
		}, nil
	}

	prompt := fmt.Sprintf(`You are an educational AI assistant. Use the following context from the student's study materials to answer their question. If the context does not contain the answer, say so.

Context:
%s

Student's question: %s

Educational response:`, ret.Context, question)

	answer, err := s.llm.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate answer: %w", err)
	}

	return &ChatResult{
		Status:        models.StatusSuccess,
		Answer:        answer,
		Sources:       ret.Sources,
		ContextChunks: ret.ChunksFound,
	}, nil
}

// ChatWithFile answers a question scoped to a single document.
func (s *Service) ChatWithFile(ctx context.Context, fileID, question, owner string) (*ChatResult, error) {
	ret, err := s.retriever.FileContext(ctx, question, fileID, owner)
	if err != nil {
		return nil, err
	}
	if ret.Status != models.StatusSuccess {
		return &ChatResult{
			Status:  models.StatusWarning,
			Answer:  ret.Message,
			FileID:  fileID,
			Sources: []retriever.Source{},
		}, nil
	}

	prompt := fmt.Sprintf(`You are an educational AI assistant. Use the following context from a specific document to answer the student's question.

Context from file %s:
%s

Student's question: %s

Educational response based on this specific document:`, fileID, ret.Context, question)

	answer, err := s.llm.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate answer: %w", err)
	}

	return &ChatResult{
		Status:        models.StatusSuccess,
		Answer:        answer,
		FileID:        fileID,
		Sources:       ret.Sources,
		ContextChunks: ret.ChunksFound,
	}, nil
}

func (s *Service) chatWithFiles(ctx context.Context, question, owner string, fileIDs []string) (*ChatResult, error) {
	ret, err := s.retriever.MultiFileContext(ctx, question, fileIDs, owner)
	if err != nil {
		return nil, err
	}
	if ret.Status != models.StatusSuccess {
		return &ChatResult{
			Status:  models.StatusWarning,
			Answer:  "No relevant content found in any of the specified files",
			FileIDs: fileIDs,
			Sources: []retriever.Source{},
		}, nil
	}

	prompt := fmt.Sprintf(`You are an educational AI assistant. Use the following context from multiple documents to answer the student's question.

Context from %d files:
%s

Student's question: %s

Educational response based on these documents:`, len(ret.SuccessfulFiles), ret.Context, question)

	answer, err := s.llm.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate answer: %w", err)
	}

	return &ChatResult{
		Status:        models.StatusSuccess,
		Answer:        answer,
		FileIDs:       fileIDs,
		FoundFiles:    ret.SuccessfulFiles,
		Sources:       ret.Sources,
		ContextChunks: ret.TotalChunks,
	}, nil
}

// GenerateQuiz builds a quiz from the caller's selected files or whole
// corpus.
func (s *Service) GenerateQuiz(ctx context.Context, req quiz.Request) (*models.QuizResult, error) {
	return s.quiz.Generate(ctx, req)
}

// ListFiles returns the caller's stored files, newest upload first.
func (s *Service) ListFiles(ctx context.Context, owner string) ([]models.FileInfo, error) {
	return s.store.ListFiles(ctx, owner)
}

// FileInfoResult carries one file's stored chunks.
type FileInfoResult struct {
	Status  models.Status   `json:"status"`
	Message string          `json:"message,omitempty"`
	FileID  string          `json:"file_id"`
	Chunks  []string        `json:"documents,omitempty"`
	Count   int             `json:"count"`
}

// FileInfo returns the stored chunk texts for one file.
func (s *Service) FileInfo(ctx context.Context, fileID, owner string) (*FileInfoResult, error) {
	chunks, err := s.store.ChunksByFileID(ctx, fileID, owner)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return &FileInfoResult{
			Status:  models.StatusWarning,
			Message: fmt.Sprintf("no documents found for file %s", fileID),
			FileID:  fileID,
		}, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	return &FileInfoResult{
		Status: models.StatusSuccess,
		FileID: fileID,
		Chunks: texts,
		Count:  len(chunks),
	}, nil
}

// BatchFileInfoResult enumerates found and missing files of a batch lookup.
type BatchFileInfoResult struct {
	Status          models.Status              `json:"status"`
	FileResults     map[string]*FileInfoResult `json:"file_results"`
	FoundFileIDs    []string                   `json:"found_file_ids"`
	NotFoundFileIDs []string                   `json:"not_found_file_ids"`
	TotalDocuments  int                        `json:"total_documents"`
}

// BatchFileInfo looks up several files at once. Missing files are listed,
// not fatal.
func (s *Service) BatchFileInfo(ctx context.Context, fileIDs []string, owner string) (*BatchFileInfoResult, error) {
	res := &BatchFileInfoResult{
		Status:      models.StatusSuccess,
		FileResults: make(map[string]*FileInfoResult, len(fileIDs)),
	}

	for _, fileID := range fileIDs {
		info, err := s.FileInfo(ctx, fileID, owner)
		if err != nil {
			return nil, err
		}
		res.FileResults[fileID] = info
		if info.Status == models.StatusSuccess {
			res.FoundFileIDs = append(res.FoundFileIDs, fileID)
			res.TotalDocuments += info.Count
		} else {
			res.NotFoundFileIDs = append(res.NotFoundFileIDs, fileID)
		}
	}
	return res, nil
}

// StatsResult summarizes the corpus.
type StatsResult struct {
	Status         models.Status `json:"status"`
	TotalChunks    int64         `json:"total_documents"`
	KnowledgeState string        `json:"knowledge_base"`
}

// Stats reports corpus size.
func (s *Service) Stats(ctx context.Context) (*StatsResult, error) {
	n, err := s.store.CountAll(ctx)
	if err != nil {
		return nil, err
	}
	state := "ready"
	if n == 0 {
		state = "empty"
	}
	return &StatsResult{
		Status:         models.StatusSuccess,
		TotalChunks:    n,
		KnowledgeState: state,
	}, nil
}

// ClearResult reports a corpus wipe.
type ClearResult struct {
	Status  models.Status `json:"status"`
	Message string        `json:"message"`
	Deleted int64         `json:"deleted_count"`
}

// ClearCorpus deletes every stored chunk.
func (s *Service) ClearCorpus(ctx context.Context) (*ClearResult, error) {
	deleted, err := s.store.DeleteAll(ctx)
	if err != nil {
		return nil, err
	}
	return &ClearResult{
		Status:  models.StatusSuccess,
		Message: fmt.Sprintf("knowledge base cleared successfully, deleted %d documents", deleted),
		Deleted: deleted,
	}, nil
}
