package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/feichai0017/document-condenser/api/handlers"
	"github.com/feichai0017/document-condenser/api/middleware"
)

// SetupRoutes registers the compression endpoint and the document API. A
// nil limiter disables rate limiting.
func SetupRoutes(r *gin.Engine, h *handlers.Handlers, limiter *middleware.RateLimiter) {
	r.Use(middleware.CORS())

	r.GET("/health", h.Health.Health)

	limited := r.Group("/")
	if limiter != nil {
		limited.Use(limiter.Middleware())
	}

	limited.POST("/process", h.Process.Process)

	v1 := limited.Group("/api/v1")
	docs := v1.Group("/documents")
	{
		docs.POST("/extract", h.Document.ExtractDocument)
		docs.POST("/condense", h.Document.CondenseDocument)
		docs.POST("/batch", h.Document.ProcessBatch)
		docs.GET("/status/:taskId", h.Document.GetStatus)
		docs.GET("/download/:taskId", h.Document.DownloadResult)
		docs.DELETE("/task/:taskId", h.Document.CancelTask)
	}
}
