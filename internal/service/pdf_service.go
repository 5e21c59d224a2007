package service

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/clumsypasta/abans-form/internal/models"
	"github.com/clumsypasta/abans-form/internal/pdf"
	"github.com/clumsypasta/abans-form/pkg/config"
	"github.com/clumsypasta/abans-form/pkg/jobs"
	"github.com/clumsypasta/abans-form/pkg/storage"
)

const jobTypePDFSummary = "pdf_summary"

type pdfSubmissionStore interface {
	FindByID(ctx context.Context, id string) (*models.Submission, error)
	UpdatePDFURL(ctx context.Context, id, pdfURL string) error
}

type pdfFileStore interface {
	Save(filename string, data []byte) (string, error)
	PublicURL(filename string) string
}

type pdfRenderer interface {
	Render(sub *models.Submission) ([]byte, error)
}

// PDFService generates the joining form summary in the background. The
// submission is already final when a job is enqueued, so generation failures
// are logged and dropped; they never affect the submission outcome.
type PDFService struct {
	repo     pdfSubmissionStore
	storage  pdfFileStore
	renderer pdfRenderer
	queue    *jobs.Queue
	metrics  *MetricsService
	logger   *zap.Logger
	now      func() time.Time
}

// NewPDFService constructs the service and its worker queue. A nil metrics
// service disables instrumentation.
func NewPDFService(repo pdfSubmissionStore, fileStore pdfFileStore, renderer pdfRenderer, metrics *MetricsService, cfg config.PDFConfig, logger *zap.Logger) *PDFService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if renderer == nil {
		renderer = pdf.NewRenderer(cfg.CompanyName)
	}
	s := &PDFService{
		repo:     repo,
		storage:  fileStore,
		renderer: renderer,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
	s.queue = jobs.NewQueue("pdf-summary", s.handle, jobs.QueueConfig{
		Workers:    cfg.WorkerConcurrency,
		MaxRetries: cfg.WorkerRetries,
		Logger:     logger,
	})
	return s
}

// Start launches the worker pool.
func (s *PDFService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the worker pool.
func (s *PDFService) Stop() {
	s.queue.Stop()
}

// EnqueueSummary schedules summary generation for a persisted submission.
func (s *PDFService) EnqueueSummary(submissionID string) error {
	return s.queue.Enqueue(jobs.Job{
		ID:      submissionID,
		Type:    jobTypePDFSummary,
		Payload: submissionID,
	})
}

func (s *PDFService) handle(ctx context.Context, job jobs.Job) error {
	start := time.Now()
	err := s.generate(ctx, job)
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	s.metrics.ObservePDFGeneration(outcome, time.Since(start))
	return err
}

func (s *PDFService) generate(ctx context.Context, job jobs.Job) error {
	submissionID, ok := job.Payload.(string)
	if !ok || submissionID == "" {
		return fmt.Errorf("pdf job %s has no submission id", job.ID)
	}

	sub, err := s.repo.FindByID(ctx, submissionID)
	if err != nil {
		return fmt.Errorf("load submission %s: %w", submissionID, err)
	}

	payload, err := s.renderer.Render(sub)
	if err != nil {
		return fmt.Errorf("render summary for %s: %w", submissionID, err)
	}

	filename := filepath.Join(storage.NamespacePDFs, pdf.Filename(sub, s.now()))
	stored, err := s.storage.Save(filename, payload)
	if err != nil {
		return fmt.Errorf("store summary for %s: %w", submissionID, err)
	}

	url := s.storage.PublicURL(stored)
	if err := s.repo.UpdatePDFURL(ctx, submissionID, url); err != nil {
		return fmt.Errorf("record summary url for %s: %w", submissionID, err)
	}

	s.logger.Info("joining form summary generated",
		zap.String("submission_id", submissionID), zap.String("pdf_url", url))
	return nil
}
