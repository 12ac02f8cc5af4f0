package api

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"StudyMind/internal/models"
	"StudyMind/internal/rag/quiz"
	"StudyMind/internal/service"
	"StudyMind/pkg/logger"
)

// Handler holds the service and serves every endpoint.
type Handler struct {
	service        *service.Service
	maxUploadBytes int64
	log            *logger.Logger
}

// NewHandler creates a Handler.
func NewHandler(s *service.Service, maxUploadBytes int64, log *logger.Logger) *Handler {
	return &Handler{service: s, maxUploadBytes: maxUploadBytes, log: log}
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "studymind"})
}

// Upload processes one multipart file upload.
func (h *Handler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file provided", "status": "error"})
		return
	}

	data, err := h.readUpload(fileHeader)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "status": "error"})
		return
	}

	res := h.service.ProcessUpload(c.Request.Context(), service.UploadRequest{
		Filename: fileHeader.Filename,
		Data:     data,
		Owner:    owner(c),
		FolderID: c.PostForm("folder_id"),
	})
	c.JSON(statusCode(res.Status), res)
}

// UploadMultiple processes several multipart file uploads in one request.
func (h *Handler) UploadMultiple(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no files provided", "status": "error"})
		return
	}
	fileHeaders := form.File["files"]
	if len(fileHeaders) == 0 {
		fileHeaders = form.File["file"]
	}
	if len(fileHeaders) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no files provided", "status": "error"})
		return
	}

	var reqs []service.UploadRequest
	for _, fh := range fileHeaders {
		data, err := h.readUpload(fh)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "status": "error"})
			return
		}
		reqs = append(reqs, service.UploadRequest{
			Filename: fh.Filename,
			Data:     data,
			Owner:    owner(c),
			FolderID: c.PostForm("folder_id"),
		})
	}

	res := h.service.ProcessBatch(c.Request.Context(), reqs)
	c.JSON(statusCode(res.Status), res)
}

func (h *Handler) readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.maxUploadBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > h.maxUploadBytes {
		return nil, fmt.Errorf("file too large: limit is %d bytes", h.maxUploadBytes)
	}
	return data, nil
}

type chatRequest struct {
	Message string   `json:"message" binding:"required"`
	FileIDs []string `json:"file_ids"`
}

// Chat answers a question against the corpus or an explicit file selection.
func (h *Handler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required", "status": "error"})
		return
	}

	res, err := h.service.Chat(c.Request.Context(), req.Message, owner(c), req.FileIDs)
	if err != nil {
		h.log.WithErr(err).Error("Chat failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "status": "error"})
		return
	}
	c.JSON(http.StatusOK, res)
}

// ChatWithFile answers a question scoped to one document.
func (h *Handler) ChatWithFile(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required", "status": "error"})
		return
	}

	res, err := h.service.ChatWithFile(c.Request.Context(), c.Param("file_id"), req.Message, owner(c))
	if err != nil {
		h.log.WithErr(err).Error("File chat failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "status": "error"})
		return
	}
	c.JSON(http.StatusOK, res)
}

type multiFileChatRequest struct {
	Message string   `json:"message" binding:"required"`
	FileIDs []string `json:"file_ids" binding:"required,min=1"`
}

// ChatWithFiles answers a question scoped to an explicit file list.
func (h *Handler) ChatWithFiles(c *gin.Context) {
	var req multiFileChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file_ids array and message are required", "status": "error"})
		return
	}

	res, err := h.service.Chat(c.Request.Context(), req.Message, owner(c), req.FileIDs)
	if err != nil {
		h.log.WithErr(err).Error("Multi-file chat failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "status": "error"})
		return
	}
	c.JSON(http.StatusOK, res)
}

// ListFiles returns the caller's stored files.
func (h *Handler) ListFiles(c *gin.Context) {
	files, err := h.service.ListFiles(c.Request.Context(), owner(c))
	if err != nil {
		h.log.WithErr(err).Error("File listing failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "status": "error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"files":       files,
		"total_files": len(files),
		"status":      models.StatusSuccess,
	})
}

// FileInfo returns one file's stored chunks.
func (h *Handler) FileInfo(c *gin.Context) {
	res, err := h.service.FileInfo(c.Request.Context(), c.Param("file_id"), owner(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "status": "error"})
		return
	}
	if res.Status != models.StatusSuccess {
		c.JSON(http.StatusNotFound, res)
		return
	}
	c.JSON(http.StatusOK, res)
}

type batchFileInfoRequest struct {
	FileIDs []string `json:"file_ids" binding:"required,min=1"`
}

// BatchFileInfo looks up several files at once.
func (h *Handler) BatchFileInfo(c *gin.Context) {
	var req batchFileInfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file_ids must be a non-empty array", "status": "error"})
		return
	}

	res, err := h.service.BatchFileInfo(c.Request.Context(), req.FileIDs, owner(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "status": "error"})
		return
	}
	c.JSON(http.StatusOK, res)
}

type quizRequest struct {
	FileIDs      []string `json:"file_ids"`
	QuizPrompt   string   `json:"quiz_prompt"`
	QuizType     string   `json:"quiz_type"`
	NumQuestions *int     `json:"num_questions"`
}

// GenerateQuiz builds a quiz from the selected files or whole corpus.
func (h *Handler) GenerateQuiz(c *gin.Context) {
	var req quizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request body is required", "status": "error"})
		return
	}

	quizType := models.QuizType(req.QuizType)
	if req.QuizType == "" {
		quizType = models.QuizTypeMixed
	}
	numQuestions := 5
	if req.NumQuestions != nil {
		numQuestions = *req.NumQuestions
	}

	res, err := h.service.GenerateQuiz(c.Request.Context(), quiz.Request{
		FileIDs:      req.FileIDs,
		Owner:        owner(c),
		Prompt:       req.QuizPrompt,
		Type:         quizType,
		NumQuestions: numQuestions,
	})
	if err != nil {
		h.log.WithErr(err).Error("Quiz generation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "status": "error"})
		return
	}
	c.JSON(statusCode(res.Status), res)
}

// Stats reports corpus size.
func (h *Handler) Stats(c *gin.Context) {
	res, err := h.service.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "status": "error"})
		return
	}
	c.JSON(http.StatusOK, res)
}

// Clear wipes the corpus.
func (h *Handler) Clear(c *gin.Context) {
	res, err := h.service.ClearCorpus(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "status": "error"})
		return
	}
	c.JSON(http.StatusOK, res)
}

type createFolderRequest struct {
	Name string `json:"name" binding:"required"`
}

// CreateFolder creates a folder for the caller.
func (h *Handler) CreateFolder(c *gin.Context) {
	var req createFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required", "status": "error"})
		return
	}

	folder, err := h.service.CreateFolder(c.Request.Context(), owner(c), req.Name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "status": "error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"folder": folder, "status": models.StatusSuccess})
}

// ListFolders returns the caller's folders.
func (h *Handler) ListFolders(c *gin.Context) {
	folders, err := h.service.ListFolders(c.Request.Context(), owner(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "status": "error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"folders": folders, "status": models.StatusSuccess})
}

// DeleteFolder removes a folder, cascading into the corpus when requested
// with ?cascade=true.
func (h *Handler) DeleteFolder(c *gin.Context) {
	folderID, err := strconv.ParseUint(c.Param("folder_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid folder id", "status": "error"})
		return
	}
	cascade := c.Query("cascade") == "true"

	res, err := h.service.DeleteFolder(c.Request.Context(), owner(c), uint(folderID), cascade)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "status": "error"})
		return
	}
	c.JSON(http.StatusOK, res)
}

type addFileToFolderRequest struct {
	FileID string `json:"file_id" binding:"required"`
}

// AddFileToFolder groups a file under a folder.
func (h *Handler) AddFileToFolder(c *gin.Context) {
	folderID, err := strconv.ParseUint(c.Param("folder_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid folder id", "status": "error"})
		return
	}
	var req addFileToFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file_id is required", "status": "error"})
		return
	}

	if err := h.service.AddFileToFolder(c.Request.Context(), owner(c), uint(folderID), req.FileID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "status": "error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": models.StatusSuccess})
}

// ListFolderFiles returns the file ids grouped under a folder.
func (h *Handler) ListFolderFiles(c *gin.Context) {
	folderID, err := strconv.ParseUint(c.Param("folder_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid folder id", "status": "error"})
		return
	}

	fileIDs, err := h.service.ListFolderFiles(c.Request.Context(), owner(c), uint(folderID))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "status": "error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"file_ids": fileIDs, "status": models.StatusSuccess})
}

// statusCode maps the status discriminator to an HTTP code. Warnings are
// successful requests whose payload says "nothing useful happened".
func statusCode(s models.Status) int {
	if s == models.StatusError {
		return http.StatusBadRequest
	}
	return http.StatusOK
}
