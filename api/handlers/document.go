package handlers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/feichai0017/document-condenser/internal/models"
	"github.com/feichai0017/document-condenser/internal/service/condense"
	"github.com/feichai0017/document-condenser/internal/service/document"
	"github.com/feichai0017/document-condenser/pkg/logger"
	"github.com/feichai0017/document-condenser/pkg/queue"
)

type DocumentHandler struct {
	service document.DocumentProcessor
	logger  logger.Logger
}

type ProcessResponse struct {
	TaskID    string  `json:"taskId"`
	Status    string  `json:"status"`
	Filename  string  `json:"filename"`
	FileSize  int64   `json:"fileSize"`
	FileType  string  `json:"fileType"`
	Ratio     float64 `json:"ratio"`
	CreatedAt string  `json:"createdAt"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func NewDocumentHandler(service document.DocumentProcessor, log logger.Logger) *DocumentHandler {
	return &DocumentHandler{
		service: service,
		logger:  log.Named("documents"),
	}
}

func newProcessResponse(task *models.ProcessingTask, header *multipart.FileHeader, ratio float64) ProcessResponse {
	return ProcessResponse{
		TaskID:    task.ID,
		Status:    string(task.Status),
		Filename:  header.Filename,
		FileSize:  header.Size,
		FileType:  filepath.Ext(header.Filename),
		Ratio:     ratio,
		CreatedAt: task.CreatedAt.Format(time.RFC3339),
	}
}

// formRatio reads the required ratio field.
func formRatio(c *gin.Context) (float64, error) {
	raw, ok := c.GetPostForm("ratio")
	if !ok || raw == "" {
		return 0, &models.ValidationError{Field: "ratio", Message: "missing ratio"}
	}
	return condense.ParseRatio(raw)
}

// ExtractDocument returns the text of an upload without condensing it.
func (h *DocumentHandler) ExtractDocument(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		h.handleError(c, http.StatusBadRequest, "Invalid file upload", err)
		return
	}
	defer file.Close()

	extracted, err := h.service.ExtractFile(c.Request.Context(), file, header)
	if err != nil {
		h.handleError(c, statusFor(err), "Failed to extract file", err)
		return
	}

	c.JSON(http.StatusOK, extracted)
}

// CondenseDocument queues a condense job for one upload.
func (h *DocumentHandler) CondenseDocument(c *gin.Context) {
	ratio, err := formRatio(c)
	if err != nil {
		h.handleError(c, http.StatusBadRequest, "Invalid ratio", err)
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		h.handleError(c, http.StatusBadRequest, "Invalid file upload", err)
		return
	}
	defer file.Close()

	task, err := h.service.ProcessFile(c.Request.Context(), file, header, ratio)
	if err != nil {
		h.handleError(c, statusFor(err), "Failed to process file", err)
		return
	}

	c.JSON(http.StatusAccepted, newProcessResponse(task, header, ratio))
}

func (h *DocumentHandler) ProcessBatch(c *gin.Context) {
	ratio, err := formRatio(c)
	if err != nil {
		h.handleError(c, http.StatusBadRequest, "Invalid ratio", err)
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		h.handleError(c, http.StatusBadRequest, "Invalid form data", err)
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		h.handleError(c, http.StatusBadRequest, "No files provided", nil)
		return
	}

	tasks, err := h.service.ProcessBatch(c.Request.Context(), files, ratio)
	if err != nil {
		h.handleError(c, statusFor(err), "Failed to process files", err)
		return
	}

	responses := make([]ProcessResponse, len(tasks))
	for i, task := range tasks {
		responses[i] = newProcessResponse(task, files[i], ratio)
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message": fmt.Sprintf("Processing %d documents", len(files)),
		"tasks":   responses,
	})
}

func (h *DocumentHandler) GetStatus(c *gin.Context) {
	taskID := c.Param("taskId")
	if taskID == "" {
		h.handleError(c, http.StatusBadRequest, "Task ID is required", nil)
		return
	}

	task, err := h.service.GetProcessingStatus(c.Request.Context(), taskID)
	if err != nil {
		h.handleError(c, statusFor(err), "Failed to get status", err)
		return
	}

	body := gin.H{
		"taskId":    task.ID,
		"status":    string(task.Status),
		"progress":  task.Progress,
		"label":     task.Label,
		"error":     task.Error,
		"metadata":  task.Metadata,
		"createdAt": task.CreatedAt.Format(time.RFC3339),
		"updatedAt": task.UpdatedAt.Format(time.RFC3339),
	}
	if task.Result != nil {
		body["result"] = task.Result
	}
	c.JSON(http.StatusOK, body)
}

// DownloadResult streams the condensed text of a completed task.
func (h *DocumentHandler) DownloadResult(c *gin.Context) {
	taskID := c.Param("taskId")
	if taskID == "" {
		h.handleError(c, http.StatusBadRequest, "Task ID is required", nil)
		return
	}

	reader, filename, err := h.service.GetResult(c.Request.Context(), taskID)
	if err != nil {
		h.handleError(c, statusFor(err), "Failed to get result", err)
		return
	}
	defer reader.Close()

	c.DataFromReader(http.StatusOK, -1, "text/plain; charset=utf-8", reader, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%s", filename),
	})
}

func (h *DocumentHandler) CancelTask(c *gin.Context) {
	taskID := c.Param("taskId")
	if taskID == "" {
		h.handleError(c, http.StatusBadRequest, "Task ID is required", nil)
		return
	}

	if err := h.service.CancelTask(c.Request.Context(), taskID); err != nil {
		h.handleError(c, statusFor(err), "Failed to cancel task", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task cancelled successfully",
		"taskId":  taskID,
	})
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	var (
		validation  *models.ValidationError
		unsupported *models.UnsupportedTypeError
		extraction  *models.ExtractionError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &unsupported):
		return http.StatusUnsupportedMediaType
	case errors.As(err, &extraction):
		return http.StatusUnprocessableEntity
	case errors.Is(err, queue.ErrTaskNotFound):
		return http.StatusNotFound
	case errors.Is(err, document.ErrNotReady):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *DocumentHandler) handleError(c *gin.Context, status int, message string, err error) {
	fields := []logger.Field{
		logger.String("path", c.Request.URL.Path),
		logger.Int("status", status),
	}
	if err != nil {
		fields = append(fields, logger.Error(err))
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error(message, fields...)
	} else {
		h.logger.Warn(message, fields...)
	}

	response := ErrorResponse{
		Message: message,
	}
	if err != nil {
		response.Error = err.Error()
	}

	c.AbortWithStatusJSON(status, response)
}
