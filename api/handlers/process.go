package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/feichai0017/document-condenser/internal/models"
	"github.com/feichai0017/document-condenser/internal/service/condense"
	"github.com/feichai0017/document-condenser/pkg/logger"
)

// Condenser is the summarizer behind POST /process.
type Condenser interface {
	Condense(ctx context.Context, text string, ratio float64) (string, error)
}

// ProcessHandler serves the compression endpoint the condense pipeline
// posts to.
type ProcessHandler struct {
	condenser Condenser
	logger    logger.Logger
}

func NewProcessHandler(condenser Condenser, log logger.Logger) *ProcessHandler {
	return &ProcessHandler{
		condenser: condenser,
		logger:    log.Named("process"),
	}
}

// Process reads the form fields text and ratio and answers with the
// condensed text as a processed.txt attachment.
func (h *ProcessHandler) Process(c *gin.Context) {
	text := c.PostForm("text")
	rawRatio := c.PostForm("ratio")
	if text == "" || rawRatio == "" {
		h.fail(c, http.StatusBadRequest, "Missing text or ratio", nil)
		return
	}

	ratio, err := condense.ParseRatio(rawRatio)
	if err != nil {
		h.fail(c, http.StatusBadRequest, "Invalid ratio", err)
		return
	}

	out, err := h.condenser.Condense(c.Request.Context(), text, ratio)
	if err != nil {
		var validation *models.ValidationError
		if errors.As(err, &validation) {
			h.fail(c, http.StatusBadRequest, "Invalid request", err)
			return
		}
		h.fail(c, http.StatusInternalServerError, "Failed to process text", err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=processed.txt")
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(out))
}

func (h *ProcessHandler) fail(c *gin.Context, status int, message string, err error) {
	if status >= http.StatusInternalServerError {
		h.logger.Error(message, logger.Error(err))
	} else {
		h.logger.Warn(message, logger.String("remote", c.ClientIP()))
	}

	response := ErrorResponse{Message: message}
	if err != nil {
		response.Error = err.Error()
	}
	c.AbortWithStatusJSON(status, response)
}
