package service

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/clumsypasta/abans-form/internal/documents"
	"github.com/clumsypasta/abans-form/internal/models"
	"github.com/clumsypasta/abans-form/internal/schema"
	"github.com/clumsypasta/abans-form/internal/session"
	appErrors "github.com/clumsypasta/abans-form/pkg/errors"
	"github.com/clumsypasta/abans-form/pkg/storage"
)

type submissionStore interface {
	Create(ctx context.Context, sub *models.Submission) error
}

type submissionFileStore interface {
	Move(from, to string) (string, error)
	Delete(filename string) error
	DeleteTree(dir string) error
	PublicURL(filename string) string
}

type summaryEnqueuer interface {
	EnqueueSummary(submissionID string) error
}

// SubmissionService runs the finalization pipeline for a frozen session
// snapshot: validation, file promotion, persistence and the background
// summary hand-off, strictly in that order. Nothing is persisted unless the
// whole record validates and every required document lands.
type SubmissionService struct {
	repo     submissionStore
	storage  submissionFileStore
	registry *schema.Registry
	summary  summaryEnqueuer
	logger   *zap.Logger
}

// NewSubmissionService constructs a SubmissionService. A nil repo means no
// backend was configured; Submit then fails fast without touching storage.
// A nil summary enqueuer disables PDF generation.
func NewSubmissionService(repo submissionStore, fileStore submissionFileStore, registry *schema.Registry, summary summaryEnqueuer, logger *zap.Logger) *SubmissionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubmissionService{
		repo:     repo,
		storage:  fileStore,
		registry: registry,
		summary:  summary,
		logger:   logger,
	}
}

var _ session.Submitter = (*SubmissionService)(nil)

// Submit executes the pipeline against the snapshot.
func (s *SubmissionService) Submit(ctx context.Context, in session.SubmitInput) (*models.SubmissionResult, error) {
	if s.repo == nil {
		return nil, appErrors.ErrNotConfigured
	}

	record := in.Record
	if record == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "submission record missing")
	}
	if errs := s.registry.Validate(record); len(errs) > 0 {
		return nil, appErrors.Validation(errs)
	}

	warnings := make([]string, 0, 1)
	promoted := make([]promotedFile, 0, 8)

	// Photo upload is best-effort: a failure becomes a warning on the
	// result, never an aborted submission. A promoted photo still joins the
	// rollback set so a later fatal step does not strand it.
	if in.Photo != nil {
		url, file, err := s.promotePhoto(in.SessionID, *in.Photo)
		if err != nil {
			s.logger.Warn("photo upload failed, continuing without it",
				zap.String("session_id", in.SessionID), zap.Error(err))
			warnings = append(warnings, "Photo upload failed - submission saved without photo")
		} else {
			record.PhotoURL = url
			promoted = append(promoted, file)
		}
	}

	// Document uploads are fatal: any failure aborts before persistence and
	// every promoted file returns to staging so the session can retry.
	docURLs, docFiles, err := s.promoteDocuments(in.SessionID, in.Documents)
	promoted = append(promoted, docFiles...)
	if err != nil {
		s.rollback(record, promoted)
		return nil, err
	}
	if err := applyDocumentURLs(record, docURLs); err != nil {
		s.rollback(record, promoted)
		return nil, err
	}

	record.DateOfJoining = normalizeDate(record.DateOfJoining)
	record.DateOfBirth = normalizeDate(record.DateOfBirth)
	record.NomineeDOB = normalizeDate(record.NomineeDOB)
	record.SectionsCompleted = append(record.SectionsCompleted[:0], in.SectionsCompleted...)

	if err := s.repo.Create(ctx, record); err != nil {
		s.rollback(record, promoted)
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, appErrors.ErrPersistence.Message)
	}

	if err := s.storage.DeleteTree(filepath.Join(storage.NamespaceStaging, in.SessionID)); err != nil {
		s.logger.Warn("failed to clear staging area", zap.String("session_id", in.SessionID), zap.Error(err))
	}

	if s.summary != nil {
		if err := s.summary.EnqueueSummary(record.ID); err != nil {
			s.logger.Warn("failed to enqueue pdf summary", zap.String("submission_id", record.ID), zap.Error(err))
		}
	}

	flat := make(map[string]string, len(docURLs))
	for slot, urls := range docURLs {
		flat[slot] = strings.Join(urls, ",")
	}
	return &models.SubmissionResult{
		RecordID:     record.ID,
		PhotoURL:     record.PhotoURL,
		DocumentURLs: flat,
		Warnings:     warnings,
	}, nil
}

// promotedFile pairs a file's final location with the staging path it came
// from, so a failed submission can put it back where the session expects it.
type promotedFile struct {
	stagedPath string
	storedPath string
}

func (s *SubmissionService) promotePhoto(sessionID string, photo models.StagedFile) (string, promotedFile, error) {
	final := filepath.Join(storage.NamespacePhotos, sessionID+ext(photo.Name))
	stored, err := s.storage.Move(photo.StagedPath, final)
	if err != nil {
		return "", promotedFile{}, err
	}
	return s.storage.PublicURL(stored), promotedFile{stagedPath: photo.StagedPath, storedPath: stored}, nil
}

// promoteDocuments moves every staged file into its category directory, in
// parallel across slots. Order within a multi slot is preserved. Slot keys
// are resolved up front so an unknown slot fails before anything moves. It
// returns the per-slot public URLs and the promoted files for rollback.
func (s *SubmissionService) promoteDocuments(sessionID string, staged map[string][]models.StagedFile) (map[string][]string, []promotedFile, error) {
	specs := make(map[string]models.SlotSpec, len(staged))
	for slot, files := range staged {
		if len(files) == 0 {
			continue
		}
		spec, ok := documents.SlotByKey(slot)
		if !ok {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown document slot %q", slot))
		}
		specs[slot] = spec
	}

	urls := make(map[string][]string, len(specs))
	promoted := make([]promotedFile, 0, len(specs))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	for slot, spec := range specs {
		wg.Add(1)
		go func(spec models.SlotSpec, files []models.StagedFile) {
			defer wg.Done()
			slotURLs := make([]string, 0, len(files))
			slotFiles := make([]promotedFile, 0, len(files))
			for i, file := range files {
				final := finalDocumentPath(spec, sessionID, i, file.Name)
				stored, err := s.storage.Move(file.StagedPath, final)
				if err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = appErrors.Wrap(err, appErrors.ErrUpload.Code, appErrors.ErrUpload.Status,
							fmt.Sprintf("failed to upload %s", spec.Key))
					}
					promoted = append(promoted, slotFiles...)
					mu.Unlock()
					return
				}
				slotFiles = append(slotFiles, promotedFile{stagedPath: file.StagedPath, storedPath: stored})
				slotURLs = append(slotURLs, s.storage.PublicURL(stored))
			}
			mu.Lock()
			urls[spec.Key] = slotURLs
			promoted = append(promoted, slotFiles...)
			mu.Unlock()
		}(spec, staged[slot])
	}
	wg.Wait()

	if firstErr != nil {
		return nil, promoted, firstErr
	}
	return urls, promoted, nil
}

// rollback returns every promoted file to its staged path so the session
// keeps its attachments and the submission can be retried as-is.
func (s *SubmissionService) rollback(record *models.Submission, promoted []promotedFile) {
	for _, file := range promoted {
		if _, err := s.storage.Move(file.storedPath, file.stagedPath); err != nil {
			s.logger.Warn("failed to restore staged file",
				zap.String("path", file.storedPath), zap.Error(err))
		}
	}
	record.PhotoURL = ""
}

func finalDocumentPath(spec models.SlotSpec, sessionID string, index int, original string) string {
	name := spec.Key
	if spec.Multi {
		name = fmt.Sprintf("%s_%d", spec.Key, index+1)
	}
	return filepath.Join(storage.NamespaceDocuments, spec.Category, sessionID, name+ext(original))
}

// applyDocumentURLs writes promoted URLs onto the record columns. The
// salary-slip slot serializes its ordered URL list as a JSON array.
func applyDocumentURLs(record *models.Submission, urls map[string][]string) error {
	single := map[string]*string{
		documents.SlotAadhar:              &record.AadharURL,
		documents.SlotPan:                 &record.PanURL,
		documents.SlotSSCMarksheet:        &record.SSCMarksheetURL,
		documents.SlotSSCPassing:          &record.SSCPassingURL,
		documents.SlotHSCMarksheet:        &record.HSCMarksheetURL,
		documents.SlotHSCPassing:          &record.HSCPassingURL,
		documents.SlotGraduationMarksheet: &record.GraduationMarksheetURL,
		documents.SlotGraduationPassing:   &record.GraduationPassingURL,
		documents.SlotPostgradMarksheet:   &record.PostgradMarksheetURL,
		documents.SlotPostgradPassing:     &record.PostgradPassingURL,
		documents.SlotIncrementLetter:     &record.IncrementLetterURL,
		documents.SlotOfferLetter:         &record.OfferLetterURL,
		documents.SlotRelievingLetter:     &record.RelievingLetterURL,
	}
	for slot, list := range urls {
		if slot == documents.SlotSalarySlips {
			payload, err := json.Marshal(list)
			if err != nil {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode salary slip urls")
			}
			record.SalarySlipsURLs = string(payload)
			continue
		}
		target, ok := single[slot]
		if !ok {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown document slot %q", slot))
		}
		if len(list) > 0 {
			*target = list[0]
		}
	}
	return nil
}

func normalizeDate(p *string) *string {
	if p == nil || strings.TrimSpace(*p) == "" {
		return nil
	}
	return p
}

func ext(filename string) string {
	e := strings.ToLower(filepath.Ext(filename))
	if e == "" {
		return ".bin"
	}
	return e
}
