// Package condense runs the text-to-artifact pipeline: extract a selected
// source into the session, then submit it to the compression service.
package condense

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/feichai0017/document-condenser/internal/models"
	"github.com/feichai0017/document-condenser/internal/status"
	"github.com/feichai0017/document-condenser/pkg/artifact"
	"github.com/feichai0017/document-condenser/pkg/converters"
	"github.com/feichai0017/document-condenser/pkg/logger"
)

// ErrBusy is returned when Submit is called while a request is in flight.
// Nothing is reported to the sink.
var ErrBusy = errors.New("a compression request is already in flight")

// Orchestrator submits session text to the compression service. At most one
// request is in flight per Orchestrator.
type Orchestrator struct {
	endpoint  string
	client    *http.Client
	holder    *artifact.Holder
	sink      status.Sink
	converter converters.PresentationConverter
	logger    logger.Logger
	now       func() time.Time

	busy atomic.Bool
}

type Option func(*Orchestrator)

func WithHTTPClient(c *http.Client) Option {
	return func(o *Orchestrator) {
		if c != nil {
			o.client = c
		}
	}
}

// WithTimeout bounds each request. Zero means no limit.
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.client = &http.Client{Timeout: d}
	}
}

func WithConverter(c converters.PresentationConverter) Option {
	return func(o *Orchestrator) {
		o.converter = c
	}
}

func NewOrchestrator(endpoint string, holder *artifact.Holder, sink status.Sink, log logger.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		endpoint:  endpoint,
		client:    &http.Client{},
		holder:    holder,
		sink:      sink,
		converter: converters.NewJSONConverter(),
		logger:    log.Named("orchestrator"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Busy reports whether a request is in flight.
func (o *Orchestrator) Busy() bool {
	return o.busy.Load()
}

// ParseRatio parses a ratio typed as text and checks its bounds.
func ParseRatio(s string) (float64, error) {
	ratio, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, &models.ValidationError{Field: "ratio", Message: "invalid ratio"}
	}
	if err := models.ValidateRatio(ratio); err != nil {
		return 0, err
	}
	return ratio, nil
}

// Submit sends sess.Text with ratio and returns the session updated with
// the result. On any failure the input session is returned unchanged along
// with the error, which has already been passed to the sink's Notify.
func (o *Orchestrator) Submit(ctx context.Context, sess models.Session, ratio float64) (models.Session, error) {
	if !o.busy.CompareAndSwap(false, true) {
		o.logger.Debug("Submit ignored while busy")
		return sess, ErrBusy
	}
	defer o.busy.Store(false)

	if err := validate(sess.Text, ratio); err != nil {
		o.logger.Warn("Rejected submission", logger.Error(err))
		o.sink.Notify(err)
		return sess, err
	}

	o.sink.Busy(true)
	defer o.sink.Busy(false)

	result, err := o.submit(ctx, sess.Text, ratio)
	if err != nil {
		o.logger.Error("Compression request failed",
			logger.String("endpoint", o.endpoint),
			logger.Error(err),
		)
		o.sink.Notify(err)
		return sess, err
	}

	o.sink.Result(o.converter.Convert(result))
	return sess.WithResult(result), nil
}

func validate(text string, ratio float64) error {
	if text == "" {
		return &models.ValidationError{Field: "text", Message: "empty input"}
	}
	return models.ValidateRatio(ratio)
}

func (o *Orchestrator) submit(ctx context.Context, text string, ratio float64) (models.CompressionResult, error) {
	start := o.now()

	processed, err := o.post(ctx, models.CompressionRequest{Text: text, Ratio: ratio})
	if err != nil {
		return models.CompressionResult{}, err
	}

	key, err := o.holder.Install(ctx, processed)
	if err != nil {
		return models.CompressionResult{}, err
	}

	result := models.CompressionResult{
		OriginalLength:   len(text),
		ProcessedLength:  len(processed),
		ReductionPercent: converters.ReductionPercent(len(text), len(processed)),
		Artifact:         key,
		CompletedAt:      o.now(),
	}

	o.logger.Info("Compression completed",
		logger.Int("original", result.OriginalLength),
		logger.Int("processed", result.ProcessedLength),
		logger.Float64("reduction", result.ReductionPercent),
		logger.Duration("elapsed", result.CompletedAt.Sub(start)),
	)
	return result, nil
}

// post issues one form-encoded request. A 2xx body is the processed text.
func (o *Orchestrator) post(ctx context.Context, req models.CompressionRequest) (string, error) {
	form := url.Values{}
	form.Set("text", req.Text)
	form.Set("ratio", strconv.FormatFloat(req.Ratio, 'f', -1, 64))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", &models.TransportError{Endpoint: o.endpoint, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return "", &models.TransportError{Endpoint: o.endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return "", &models.ServiceError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &models.TransportError{Endpoint: o.endpoint, Err: fmt.Errorf("failed to read response: %w", err)}
	}
	return string(body), nil
}
