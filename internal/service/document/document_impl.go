package document

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/feichai0017/document-condenser/config"
	"github.com/feichai0017/document-condenser/internal/agent"
	"github.com/feichai0017/document-condenser/internal/models"
	"github.com/feichai0017/document-condenser/internal/service/condense"
	"github.com/feichai0017/document-condenser/internal/status"
	"github.com/feichai0017/document-condenser/internal/utils/validator"
	"github.com/feichai0017/document-condenser/pkg/artifact"
	"github.com/feichai0017/document-condenser/pkg/logger"
	"github.com/feichai0017/document-condenser/pkg/queue"
	"github.com/feichai0017/document-condenser/pkg/storage"
)

// ErrNotReady is returned when a result is requested before the task has
// completed.
var ErrNotReady = errors.New("task is not completed")

type DocumentService struct {
	resolver  *agent.Resolver
	validator *validator.DocumentValidator
	queue     queue.Queue
	storage   storage.Storage
	client    *http.Client
	logger    logger.Logger
	config    *ServiceConfig
}

type ServiceConfig struct {
	// Endpoint is the compression service jobs submit to.
	Endpoint        string
	RequestTimeout  time.Duration
	MaxFileSize     int64
	QueuePriority   int
	RetentionPeriod time.Duration
}

func NewService(
	resolver *agent.Resolver,
	q queue.Queue,
	store storage.Storage,
	log logger.Logger,
	cfg *ServiceConfig,
) *DocumentService {
	if cfg == nil {
		cfg = &ServiceConfig{
			Endpoint:        "http://localhost:8080/process",
			MaxFileSize:     50 * 1024 * 1024,
			QueuePriority:   2,
			RetentionPeriod: 24 * time.Hour,
		}
	}

	return &DocumentService{
		resolver: resolver,
		validator: validator.NewDocumentValidator(log, &validator.ValidatorConfig{
			MaxFileSize:  cfg.MaxFileSize,
			AllowedTypes: []string{models.MimePDF, models.MimePlain},
		}),
		queue:   q,
		storage: store,
		client:  &http.Client{Timeout: cfg.RequestTimeout},
		logger:  log.Named("documents"),
		config:  cfg,
	}
}

// GetService wires the service from the environment.
func GetService(ctx context.Context, log logger.Logger) (*DocumentService, *queue.AsynqQueue, error) {
	serverCfg := config.GetServerConfig()
	condenserCfg := config.GetCondenserConfig()

	store, err := storage.NewStorage(ctx, storage.StorageType(serverCfg.Storage), serverCfg.StorageDir, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	q, err := queue.NewAsynqQueue(&queue.QueueConfig{
		RedisAddr:     serverCfg.RedisAddr,
		RedisPassword: serverCfg.RedisPassword,
		StatusTTL:     serverCfg.TaskRetention,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize queue: %w", err)
	}

	svc := NewService(agent.NewResolver(log), q, store, log, &ServiceConfig{
		Endpoint:        condenserCfg.Endpoint,
		RequestTimeout:  condenserCfg.RequestTimeout,
		MaxFileSize:     serverCfg.MaxUploadSize,
		QueuePriority:   2,
		RetentionPeriod: serverCfg.TaskRetention,
	})
	return svc, q, nil
}

func (s *DocumentService) validate(file multipart.File, header *multipart.FileHeader) (*validator.ValidationResult, error) {
	res, err := s.validator.ValidateFile(file, header)
	if err != nil {
		return nil, err
	}
	if err := res.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *DocumentService) ExtractFile(ctx context.Context, file multipart.File, header *multipart.FileHeader) (*ExtractedFile, error) {
	res, err := s.validate(file, header)
	if err != nil {
		return nil, err
	}

	extractor, err := s.resolver.Resolve(res.FileInfo.MimeType)
	if err != nil {
		return nil, err
	}

	uploaded := models.UploadedFile{Name: header.Filename, MimeType: res.FileInfo.MimeType, Size: header.Size}
	doc, err := extractor.Extract(ctx, uploaded, file, status.NewLogSink(s.logger))
	if err != nil {
		return nil, err
	}

	return &ExtractedFile{
		Text:     doc.Text,
		Pages:    doc.Pages,
		Label:    condense.SizeLabel(header.Filename, len(doc.Text)),
		MimeType: res.FileInfo.MimeType,
		Hash:     res.FileInfo.Hash,
	}, nil
}

// ProcessFile stores the upload and queues a condense job for it.
func (s *DocumentService) ProcessFile(
	ctx context.Context,
	file multipart.File,
	header *multipart.FileHeader,
	ratio float64,
) (*models.ProcessingTask, error) {
	s.logger.Info("Starting file processing",
		logger.String("filename", header.Filename),
		logger.Int64("size", header.Size),
		logger.Float64("ratio", ratio),
	)

	if err := models.ValidateRatio(ratio); err != nil {
		return nil, err
	}
	res, err := s.validate(file, header)
	if err != nil {
		s.logger.Error("File validation failed",
			logger.String("filename", header.Filename),
			logger.Error(err),
		)
		return nil, err
	}

	taskID := uuid.New().String()
	now := time.Now()
	task := &models.ProcessingTask{
		ID:        taskID,
		Status:    models.StatusPending,
		Type:      queue.TaskTypeCondenseDocument,
		Priority:  s.config.QueuePriority,
		CreatedAt: now,
		UpdatedAt: now,
		Metadata: map[string]string{
			"filename": header.Filename,
			"size":     fmt.Sprintf("%d", header.Size),
			"mimeType": res.FileInfo.MimeType,
			"hash":     res.FileInfo.Hash,
			"ratio":    fmt.Sprintf("%g", ratio),
		},
	}

	fileKey, err := s.storage.Store(ctx, file, fmt.Sprintf("uploads/%s%s", taskID, res.FileInfo.Extension))
	if err != nil {
		s.logger.Error("Failed to store file",
			logger.String("filename", header.Filename),
			logger.Error(err),
		)
		return nil, fmt.Errorf("failed to store file: %w", err)
	}

	queueTask := &queue.Task{
		ID:       taskID,
		Type:     task.Type,
		Priority: task.Priority,
		Payload: queue.DocumentPayload{
			FileKey:  fileKey,
			Filename: header.Filename,
			MimeType: res.FileInfo.MimeType,
			Size:     header.Size,
			Ratio:    ratio,
		},
		Metadata:  task.Metadata,
		CreatedAt: task.CreatedAt,
	}

	// Must precede Enqueue: a worker may write running/completed first.
	initialStatus := &queue.TaskStatus{
		TaskID:    taskID,
		Status:    string(models.StatusPending),
		Label:     "Queued",
		Metadata:  task.Metadata,
		StartedAt: now,
	}
	if err := s.queue.SaveStatus(ctx, initialStatus); err != nil {
		s.logger.Error("Failed to save initial status",
			logger.String("taskId", taskID),
			logger.Error(err),
		)
	}

	if err := s.queue.Enqueue(ctx, queueTask); err != nil {
		s.logger.Error("Failed to enqueue task",
			logger.String("taskId", taskID),
			logger.Error(err),
		)
		if delErr := s.storage.Delete(ctx, fileKey); delErr != nil {
			s.logger.Warn("Failed to remove orphaned upload", logger.Error(delErr))
		}
		if delErr := s.queue.DeleteStatus(ctx, taskID); delErr != nil {
			s.logger.Warn("Failed to remove orphaned status", logger.Error(delErr))
		}
		return nil, fmt.Errorf("failed to enqueue task: %w", err)
	}

	s.logger.Info("Condense task created",
		logger.String("taskId", taskID),
		logger.String("filename", header.Filename),
	)
	return task, nil
}

// ProcessBatch queues every file. Tasks are returned in input order; on
// error the tasks created so far are returned with it.
func (s *DocumentService) ProcessBatch(ctx context.Context, files []*multipart.FileHeader, ratio float64) ([]*models.ProcessingTask, error) {
	tasks := make([]*models.ProcessingTask, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, header := range files {
		i, header := i, header
		g.Go(func() error {
			file, err := header.Open()
			if err != nil {
				return fmt.Errorf("failed to open file %s: %w", header.Filename, err)
			}
			defer file.Close()

			task, err := s.ProcessFile(gctx, file, header, ratio)
			if err != nil {
				return fmt.Errorf("failed to process file %s: %w", header.Filename, err)
			}
			tasks[i] = task
			return nil
		})
	}

	err := g.Wait()
	if err != nil {
		created := tasks[:0]
		for _, t := range tasks {
			if t != nil {
				created = append(created, t)
			}
		}
		return created, err
	}
	return tasks, nil
}

// HandleDocument runs one queued job: extract the stored upload, submit it
// and record the artifact. Progress is written to the task's status record.
func (s *DocumentService) HandleDocument(ctx context.Context, task *queue.Task) error {
	if task == nil || task.ID == "" || task.Payload.FileKey == "" {
		return fmt.Errorf("invalid task: missing required data")
	}
	p := task.Payload
	log := s.logger.With(logger.String("taskId", task.ID))

	log.Info("Processing document",
		logger.String("filename", p.Filename),
		logger.Float64("ratio", p.Ratio),
	)

	progress := newRedisSink(ctx, s.queue, queue.TaskStatus{
		TaskID:    task.ID,
		Status:    string(models.StatusRunning),
		Metadata:  task.Metadata,
		StartedAt: time.Now(),
	}, log)
	sink := status.Multi(progress, status.NewLogSink(log))
	sink.Status(fmt.Sprintf("Loading %s...", p.Filename))

	reader, err := s.storage.Get(ctx, p.FileKey)
	if err != nil {
		sink.Notify(err)
		return fmt.Errorf("failed to get file: %w", err)
	}
	defer reader.Close()

	orch := condense.NewOrchestrator(s.config.Endpoint, artifact.NewHolder(s.storage, log), sink, log,
		condense.WithHTTPClient(s.client))
	pipeline := condense.NewPipeline(s.resolver, orch, sink, log)

	file := models.UploadedFile{Name: p.Filename, MimeType: p.MimeType, Size: p.Size}
	sess, err := pipeline.Run(ctx, models.Session{}, file, reader, p.Ratio)
	if err != nil {
		return fmt.Errorf("failed to condense document: %w", err)
	}

	if err := s.storage.Delete(ctx, p.FileKey); err != nil {
		log.Warn("Failed to remove upload", logger.Error(err))
	}

	log.Info("Document condensed",
		logger.String("artifact", sess.Result.Artifact),
		logger.Float64("reduction", sess.Result.ReductionPercent),
	)
	return nil
}

func (s *DocumentService) GetProcessingStatus(ctx context.Context, taskID string) (*models.ProcessingTask, error) {
	st, err := s.queue.GetTaskStatus(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to get task status: %w", err)
	}

	var taskStatus models.ProcessingStatus
	switch st.Status {
	case "active", string(models.StatusRunning):
		taskStatus = models.StatusRunning
	case string(models.StatusCompleted):
		taskStatus = models.StatusCompleted
	case string(models.StatusFailed):
		taskStatus = models.StatusFailed
	case string(models.StatusCancelled):
		taskStatus = models.StatusCancelled
	default:
		taskStatus = models.StatusPending
	}

	metadata := st.Metadata
	if metadata == nil {
		metadata = make(map[string]string)
	}

	return &models.ProcessingTask{
		ID:        st.TaskID,
		Status:    taskStatus,
		Type:      queue.TaskTypeCondenseDocument,
		Priority:  s.config.QueuePriority,
		Progress:  st.Progress,
		Label:     st.Label,
		Error:     st.Error,
		Result:    st.Result,
		Metadata:  metadata,
		CreatedAt: st.StartedAt,
		UpdatedAt: st.FinishedAt,
	}, nil
}

func (s *DocumentService) GetResult(ctx context.Context, taskID string) (io.ReadCloser, string, error) {
	st, err := s.queue.GetTaskStatus(ctx, taskID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to get task status: %w", err)
	}
	if st.Status != string(models.StatusCompleted) || st.Artifact == "" {
		return nil, "", fmt.Errorf("%w: %s", ErrNotReady, st.Status)
	}

	reader, err := s.storage.Get(ctx, st.Artifact)
	if err != nil {
		return nil, "", fmt.Errorf("failed to get result: %w", err)
	}
	return reader, validator.SafeFilename(st.Metadata["filename"]), nil
}

func (s *DocumentService) CancelTask(ctx context.Context, taskID string) error {
	if err := s.queue.CancelTask(ctx, taskID); err != nil {
		return fmt.Errorf("failed to cancel task: %w", err)
	}

	s.logger.Info("Task cancelled", logger.String("taskId", taskID))
	return nil
}

// CleanupTasks removes uploads and artifacts older than the retention
// period.
func (s *DocumentService) CleanupTasks(ctx context.Context) error {
	threshold := time.Now().Add(-s.config.RetentionPeriod)

	if err := s.storage.CleanupBefore(ctx, threshold); err != nil {
		return fmt.Errorf("failed to cleanup storage: %w", err)
	}

	s.logger.Info("Completed tasks cleanup", logger.Time("threshold", threshold))
	return nil
}

var _ DocumentProcessor = (*DocumentService)(nil)
