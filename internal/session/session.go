// Package session implements the multi-step form state machine: one session
// per in-progress submission, holding the record, the staged document
// bundle, the current section index and the completed-section set.
package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/clumsypasta/abans-form/internal/catalog"
	"github.com/clumsypasta/abans-form/internal/documents"
	"github.com/clumsypasta/abans-form/internal/models"
	"github.com/clumsypasta/abans-form/internal/schema"
	appErrors "github.com/clumsypasta/abans-form/pkg/errors"
)

// User-facing transient notices, mirroring the form's banner copy.
const (
	noticeSectionSaved  = "Section saved successfully!"
	noticeSectionFailed = "Please fix the highlighted fields before proceeding"
)

// DraftStore persists non-authoritative record snapshots keyed by session.
type DraftStore interface {
	Save(ctx context.Context, sessionID string, record *models.Submission) error
	Load(ctx context.Context, sessionID string) (*models.Submission, error)
	Delete(ctx context.Context, sessionID string) error
}

// Submitter runs the final submission pipeline against a frozen snapshot.
type Submitter interface {
	Submit(ctx context.Context, in SubmitInput) (*models.SubmissionResult, error)
}

// SubmitInput is the frozen state handed to the pipeline.
type SubmitInput struct {
	SessionID         string
	Record            *models.Submission
	Documents         map[string][]models.StagedFile
	Photo             *models.StagedFile
	SectionsCompleted []string
}

// Config tunes the session timers.
type Config struct {
	AutosaveDebounce time.Duration
	NoticeTTL        time.Duration
}

// View is a consistent read of session state for rendering.
type View struct {
	ID           string
	Phase        models.SessionPhase
	SectionIndex int
	Sections     []models.SectionState
	Record       *models.Submission
	Slots        []models.SlotState
	Photo        *models.StagedFile
	Notice       string
	FieldErrors  map[string]string
	Result       *models.SubmissionResult
}

// Session is the state machine for one in-progress form. All mutation goes
// through its mutex; timer callbacks re-acquire it, so every state change
// still happens one at a time.
type Session struct {
	id string

	mu          sync.Mutex
	record      *models.Submission
	tracker     *documents.Tracker
	photo       *models.StagedFile
	idx         int
	completed   map[int]struct{}
	phase       models.SessionPhase
	notice      string
	fieldErrors map[string]string
	result      *models.SubmissionResult

	noticeTimer   *time.Timer
	autosaveTimer *time.Timer

	catalog  *catalog.Catalog
	registry *schema.Registry
	drafts   DraftStore
	logger   *zap.Logger
	cfg      Config
}

func newSession(id string, record *models.Submission, tracker *documents.Tracker, cat *catalog.Catalog, reg *schema.Registry, drafts DraftStore, logger *zap.Logger, cfg Config) *Session {
	if record == nil {
		record = models.NewSubmission()
	}
	if cfg.AutosaveDebounce <= 0 {
		cfg.AutosaveDebounce = 2 * time.Second
	}
	if cfg.NoticeTTL <= 0 {
		cfg.NoticeTTL = 3 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		id:          id,
		record:      record,
		tracker:     tracker,
		completed:   make(map[int]struct{}),
		phase:       models.PhaseEditing,
		fieldErrors: make(map[string]string),
		catalog:     cat,
		registry:    reg,
		drafts:      drafts,
		logger:      logger,
		cfg:         cfg,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Mutate applies a record mutation under the session lock and reschedules
// the debounced autosave. A mutation inside the debounce window cancels and
// replaces the pending write rather than stacking another one.
func (s *Session) Mutate(fn func(*models.Submission)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == models.PhaseSubmitted {
		return appErrors.ErrSubmitted
	}
	fn(s.record)
	s.scheduleAutosaveLocked()
	return nil
}

// GoTo jumps to any section, clamped to catalog bounds. Always legal,
// idempotent, and never removes entries from the completed set.
func (s *Session) GoTo(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == models.PhaseSubmitted {
		return appErrors.ErrSubmitted
	}
	s.idx = s.catalog.Clamp(i)
	return nil
}

// Proceed gates advancement on the current section's owned fields under the
// strict rule set; the lenient set advances unconditionally. On success the
// section joins the completed set and the index advances (clamped).
func (s *Session) Proceed() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == models.PhaseSubmitted {
		return appErrors.ErrSubmitted
	}
	if s.registry.Strict() {
		section := s.catalog.At(s.idx)
		if errs := s.registry.Validate(s.record, section.Fields...); len(errs) > 0 {
			s.fieldErrors = errs
			s.setNoticeLocked(noticeSectionFailed)
			return appErrors.Validation(errs)
		}
	}
	s.fieldErrors = make(map[string]string)
	s.completed[s.idx] = struct{}{}
	s.setNoticeLocked(noticeSectionSaved)
	s.idx = s.catalog.Next(s.idx)
	return nil
}

// AssignDocument stages a file into a bundle slot.
func (s *Session) AssignDocument(slot string, file models.StagedFile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == models.PhaseSubmitted {
		return appErrors.ErrSubmitted
	}
	return s.tracker.Assign(slot, file)
}

// AssignDocumentBatch stages several files into a multi slot atomically.
func (s *Session) AssignDocumentBatch(slot string, files []models.StagedFile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == models.PhaseSubmitted {
		return appErrors.ErrSubmitted
	}
	return s.tracker.AssignBatch(slot, files)
}

// RemoveDocument clears a slot, returning what was staged there.
func (s *Session) RemoveDocument(slot string) []models.StagedFile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker.Remove(slot)
}

// SetPhoto stages the applicant photo under the same policy documents use.
func (s *Session) SetPhoto(file models.StagedFile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == models.PhaseSubmitted {
		return appErrors.ErrSubmitted
	}
	if msg := s.tracker.Policy().Validate(file); msg != "" {
		return appErrors.Clone(appErrors.ErrValidation, msg)
	}
	s.photo = &file
	return nil
}

// RemovePhoto discards the staged photo.
func (s *Session) RemovePhoto() *models.StagedFile {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := s.photo
	s.photo = nil
	return removed
}

// Submit freezes the session state and hands it to the pipeline. Only legal
// from the last section. Validation or pipeline failure returns the session
// to Editing with the error surfaced once; success is terminal.
func (s *Session) Submit(ctx context.Context, submitter Submitter) (*models.SubmissionResult, error) {
	s.mu.Lock()
	switch s.phase {
	case models.PhaseSubmitted:
		s.mu.Unlock()
		return nil, appErrors.ErrSubmitted
	case models.PhaseSubmitting:
		s.mu.Unlock()
		return nil, appErrors.Clone(appErrors.ErrConflict, "submission already in progress")
	}
	if !s.catalog.Last(s.idx) {
		s.mu.Unlock()
		return nil, appErrors.Clone(appErrors.ErrValidation, "submission is only available from the final section")
	}
	if errs := s.registry.Validate(s.record); len(errs) > 0 {
		s.fieldErrors = errs
		s.setNoticeLocked(noticeSectionFailed)
		s.mu.Unlock()
		return nil, appErrors.Validation(errs)
	}
	s.fieldErrors = make(map[string]string)
	s.phase = models.PhaseSubmitting
	input := SubmitInput{
		SessionID:         s.id,
		Record:            s.record.Clone(),
		Documents:         s.tracker.Snapshot(),
		Photo:             clonePhoto(s.photo),
		SectionsCompleted: s.completedIDsLocked(),
	}
	s.mu.Unlock()

	result, err := submitter.Submit(ctx, input)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.phase = models.PhaseEditing
		s.setNoticeLocked(appErrors.FromError(err).Message)
		return nil, err
	}

	s.phase = models.PhaseSubmitted
	s.result = result
	s.cancelAutosaveLocked()
	if dErr := s.drafts.Delete(context.Background(), s.id); dErr != nil {
		s.logger.Warn("failed to delete draft after submission", zap.String("session_id", s.id), zap.Error(dErr))
	}
	return result, nil
}

// View returns a consistent copy of everything a renderer needs.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	sections := make([]models.SectionState, 0, s.catalog.Len())
	for i, sec := range s.catalog.Sections() {
		_, done := s.completed[i]
		sections = append(sections, models.SectionState{ID: sec.ID, Title: sec.Title, Completed: done})
	}
	errs := make(map[string]string, len(s.fieldErrors))
	for k, v := range s.fieldErrors {
		errs[k] = v
	}
	return View{
		ID:           s.id,
		Phase:        s.phase,
		SectionIndex: s.idx,
		Sections:     sections,
		Record:       s.record.Clone(),
		Slots:        s.tracker.States(),
		Photo:        clonePhoto(s.photo),
		Notice:       s.notice,
		FieldErrors:  errs,
		Result:       s.result,
	}
}

// Flush forces any pending debounced draft write to run now. Used by tests
// and shutdown.
func (s *Session) Flush(ctx context.Context) {
	s.mu.Lock()
	pending := s.autosaveTimer != nil
	s.cancelAutosaveLocked()
	record := s.record.Clone()
	s.mu.Unlock()
	if !pending {
		return
	}
	if err := s.drafts.Save(ctx, s.id, record); err != nil {
		s.logger.Warn("draft autosave failed", zap.String("session_id", s.id), zap.Error(err))
	}
}

func (s *Session) completedIDsLocked() []string {
	idxs := make([]int, 0, len(s.completed))
	for i := range s.completed {
		idxs = append(idxs, i)
	}
	sort.Ints(idxs)
	ids := make([]string, 0, len(idxs))
	for _, i := range idxs {
		ids = append(ids, s.catalog.At(i).ID)
	}
	return ids
}

// scheduleAutosaveLocked stops any pending write and arms a fresh one:
// strictly last-write-wins.
func (s *Session) scheduleAutosaveLocked() {
	if s.autosaveTimer != nil {
		s.autosaveTimer.Stop()
	}
	s.autosaveTimer = time.AfterFunc(s.cfg.AutosaveDebounce, s.autosave)
}

// autosave is fire-and-forget: failure is logged, never surfaced, and never
// blocks editing.
func (s *Session) autosave() {
	s.mu.Lock()
	if s.phase == models.PhaseSubmitted {
		s.mu.Unlock()
		return
	}
	s.autosaveTimer = nil
	record := s.record.Clone()
	s.mu.Unlock()

	if err := s.drafts.Save(context.Background(), s.id, record); err != nil {
		s.logger.Warn("draft autosave failed", zap.String("session_id", s.id), zap.Error(err))
	}
}

func (s *Session) cancelAutosaveLocked() {
	if s.autosaveTimer != nil {
		s.autosaveTimer.Stop()
		s.autosaveTimer = nil
	}
}

// setNoticeLocked surfaces a transient message and arms its auto-clear
// timer, replacing any previous one.
func (s *Session) setNoticeLocked(msg string) {
	s.notice = msg
	if s.noticeTimer != nil {
		s.noticeTimer.Stop()
	}
	s.noticeTimer = time.AfterFunc(s.cfg.NoticeTTL, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.notice == msg {
			s.notice = ""
		}
	})
}

func clonePhoto(p *models.StagedFile) *models.StagedFile {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
