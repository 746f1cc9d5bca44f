package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/feichai0017/document-condenser/api/handlers"
	"github.com/feichai0017/document-condenser/api/middleware"
	"github.com/feichai0017/document-condenser/api/routes"
	"github.com/feichai0017/document-condenser/config"
	"github.com/feichai0017/document-condenser/internal/service/document"
	"github.com/feichai0017/document-condenser/internal/summarizer"
	"github.com/feichai0017/document-condenser/pkg/logger"
)

func main() {
	cfg := config.GetServerConfig()

	outputs := []string{"stdout"}
	if cfg.LogFile != "" {
		outputs = append(outputs, cfg.LogFile)
	}
	log, err := logger.NewLogger(
		logger.WithLevel(cfg.LogLevel),
		logger.WithEncoding(cfg.LogEncoding),
		logger.WithOutputPaths(outputs),
		logger.WithField("service", "condenser-api"),
	)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid server configuration", logger.Error(err))
	}

	upstream, err := summarizer.NewOpenAIUpstream(summarizer.OpenAIConfig{
		APIKey:     cfg.UpstreamAPIKey,
		BaseURL:    cfg.UpstreamBaseURL,
		Model:      cfg.UpstreamModel,
		HTTPClient: &http.Client{Timeout: cfg.RequestTimeout},
	}, log)
	if err != nil {
		log.Fatal("Failed to create upstream client", logger.Error(err))
	}
	condenser := summarizer.NewService(summarizer.NewPool(upstream, cfg.MaxConcurrent, log), cfg.ChunkSize, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	docService, q, err := document.GetService(ctx, log)
	if err != nil {
		log.Fatal("Failed to get document service", logger.Error(err))
	}
	defer q.Close()

	h := handlers.NewHandlers(docService, condenser, log)
	r := gin.New()
	r.Use(gin.Recovery())
	r.MaxMultipartMemory = cfg.MaxUploadSize
	routes.SetupRoutes(r, h, middleware.NewRateLimiter(cfg.RateLimit, cfg.RateBurst, log))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Server starting", logger.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server error", logger.Error(err))
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", logger.Error(err))
	}
}
