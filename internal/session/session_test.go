package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/clumsypasta/abans-form/internal/catalog"
	"github.com/clumsypasta/abans-form/internal/documents"
	"github.com/clumsypasta/abans-form/internal/models"
	"github.com/clumsypasta/abans-form/internal/schema"
	"github.com/clumsypasta/abans-form/pkg/config"
	appErrors "github.com/clumsypasta/abans-form/pkg/errors"
)

type memDraftStore struct {
	mu      sync.Mutex
	drafts  map[string]*models.Submission
	saves   int
	deletes int
	saveErr error
}

func newMemDraftStore() *memDraftStore {
	return &memDraftStore{drafts: make(map[string]*models.Submission)}
}

func (m *memDraftStore) Save(_ context.Context, id string, record *models.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.drafts[id] = record.Clone()
	m.saves++
	return nil
}

func (m *memDraftStore) Load(_ context.Context, id string) (*models.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.drafts[id], nil
}

func (m *memDraftStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.drafts, id)
	m.deletes++
	return nil
}

func (m *memDraftStore) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

type stubSubmitter struct {
	mu     sync.Mutex
	calls  int
	input  SubmitInput
	result *models.SubmissionResult
	err    error
}

func (s *stubSubmitter) Submit(_ context.Context, in SubmitInput) (*models.SubmissionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.input = in
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func testConfig() Config {
	return Config{AutosaveDebounce: 20 * time.Millisecond, NoticeTTL: 40 * time.Millisecond}
}

func newTestManager(t *testing.T, variant string, drafts DraftStore) *Manager {
	t.Helper()
	policy := documents.PolicyFromConfig(config.UploadsConfig{})
	return NewManager(catalog.New(), schema.New(variant), policy, drafts, zap.NewNop(), testConfig())
}

func openSession(t *testing.T, m *Manager) *Session {
	t.Helper()
	s, err := m.Open(context.Background(), "")
	require.NoError(t, err)
	return s
}

func fillStrictValid(r *models.Submission) {
	dob := "1995-04-12"
	r.FirstName = "Priya"
	r.LastName = "Sharma"
	r.FatherHusbandName = "Rakesh Sharma"
	r.DateOfBirth = &dob
	r.PresentAddress = "12 MG Road, Mumbai"
	r.PermanentAddress = "12 MG Road, Mumbai"
	r.PhoneMobile = "9876543210"
	r.PersonalEmail = "priya.sharma@example.com"
	r.AgreementAccepted = true
	ref := models.Reference{
		Name:        "Anil Mehta",
		Designation: "Manager",
		Company:     "Initech",
		Address:     "Pune",
		ContactNo:   "9123456780",
		Email:       "anil@initech.example",
	}
	r.References = models.ReferenceList{ref, ref}
}

func TestGoToClampsAndIsIdempotent(t *testing.T) {
	m := newTestManager(t, config.VariantLenient, newMemDraftStore())
	s := openSession(t, m)

	require.NoError(t, s.GoTo(99))
	assert.Equal(t, m.catalog.Len()-1, s.View().SectionIndex)

	require.NoError(t, s.GoTo(-5))
	assert.Equal(t, 0, s.View().SectionIndex)

	require.NoError(t, s.GoTo(3))
	require.NoError(t, s.GoTo(3))
	assert.Equal(t, 3, s.View().SectionIndex)
}

func TestProceedLenientAdvancesAndCompletes(t *testing.T) {
	m := newTestManager(t, config.VariantLenient, newMemDraftStore())
	s := openSession(t, m)

	require.NoError(t, s.Proceed())
	v := s.View()
	assert.Equal(t, 1, v.SectionIndex)
	assert.True(t, v.Sections[0].Completed)
	assert.Equal(t, noticeSectionSaved, v.Notice)
}

func TestCompletedSetIsMonotonic(t *testing.T) {
	m := newTestManager(t, config.VariantLenient, newMemDraftStore())
	s := openSession(t, m)

	require.NoError(t, s.Proceed())
	require.NoError(t, s.Proceed())
	require.NoError(t, s.GoTo(0))
	require.NoError(t, s.GoTo(5))

	v := s.View()
	assert.True(t, v.Sections[0].Completed)
	assert.True(t, v.Sections[1].Completed)
	assert.False(t, v.Sections[5].Completed)
}

func TestProceedStrictBlocksOnInvalidSection(t *testing.T) {
	m := newTestManager(t, config.VariantStrict, newMemDraftStore())
	s := openSession(t, m)

	err := s.Proceed()
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
	assert.Contains(t, appErr.Fields, "first_name")

	v := s.View()
	assert.Equal(t, 0, v.SectionIndex)
	assert.False(t, v.Sections[0].Completed)
	assert.Equal(t, noticeSectionFailed, v.Notice)
}

func TestProceedStrictAdvancesWhenSectionValid(t *testing.T) {
	m := newTestManager(t, config.VariantStrict, newMemDraftStore())
	s := openSession(t, m)
	require.NoError(t, s.Mutate(fillStrictValid))

	require.NoError(t, s.Proceed())
	v := s.View()
	assert.Equal(t, 1, v.SectionIndex)
	assert.True(t, v.Sections[0].Completed)
	assert.Empty(t, v.FieldErrors)
}

func TestProceedClampsOnLastSection(t *testing.T) {
	m := newTestManager(t, config.VariantLenient, newMemDraftStore())
	s := openSession(t, m)
	last := m.catalog.Len() - 1

	require.NoError(t, s.GoTo(last))
	require.NoError(t, s.Proceed())
	v := s.View()
	assert.Equal(t, last, v.SectionIndex)
	assert.True(t, v.Sections[last].Completed)
}

func TestAutosaveDebounceCoalesces(t *testing.T) {
	drafts := newMemDraftStore()
	m := newTestManager(t, config.VariantLenient, drafts)
	s := openSession(t, m)

	require.NoError(t, s.Mutate(func(r *models.Submission) { r.FirstName = "A" }))
	require.NoError(t, s.Mutate(func(r *models.Submission) { r.FirstName = "Am" }))
	require.NoError(t, s.Mutate(func(r *models.Submission) { r.FirstName = "Amit" }))

	assert.Equal(t, 0, drafts.saveCount())
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, 1, drafts.saveCount())

	saved, err := drafts.Load(context.Background(), s.ID())
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, "Amit", saved.FirstName)
}

func TestAutosaveFailureDoesNotBlockEditing(t *testing.T) {
	drafts := newMemDraftStore()
	drafts.saveErr = errors.New("redis down")
	m := newTestManager(t, config.VariantLenient, drafts)
	s := openSession(t, m)

	require.NoError(t, s.Mutate(func(r *models.Submission) { r.FirstName = "Amit" }))
	time.Sleep(60 * time.Millisecond)

	require.NoError(t, s.Mutate(func(r *models.Submission) { r.LastName = "Desai" }))
	assert.Equal(t, "Desai", s.View().Record.LastName)
}

func TestFlushForcesPendingWrite(t *testing.T) {
	drafts := newMemDraftStore()
	m := newTestManager(t, config.VariantLenient, drafts)
	s := openSession(t, m)

	require.NoError(t, s.Mutate(func(r *models.Submission) { r.FirstName = "Amit" }))
	s.Flush(context.Background())
	assert.Equal(t, 1, drafts.saveCount())
}

func TestSubmitOnlyFromLastSection(t *testing.T) {
	m := newTestManager(t, config.VariantLenient, newMemDraftStore())
	s := openSession(t, m)
	sub := &stubSubmitter{result: &models.SubmissionResult{RecordID: "1"}}

	_, err := s.Submit(context.Background(), sub)
	require.Error(t, err)
	assert.Equal(t, 0, sub.calls)
	assert.Equal(t, models.PhaseEditing, s.View().Phase)
}

func TestSubmitSuccessIsTerminal(t *testing.T) {
	drafts := newMemDraftStore()
	m := newTestManager(t, config.VariantLenient, drafts)
	s := openSession(t, m)
	require.NoError(t, s.Mutate(func(r *models.Submission) {
		r.FirstName = "Amit"
		r.AgreementAccepted = true
	}))
	require.NoError(t, s.Proceed())
	require.NoError(t, s.GoTo(m.catalog.Len()-1))

	sub := &stubSubmitter{result: &models.SubmissionResult{RecordID: "rec-42"}}
	result, err := s.Submit(context.Background(), sub)
	require.NoError(t, err)
	assert.Equal(t, "rec-42", result.RecordID)

	v := s.View()
	assert.Equal(t, models.PhaseSubmitted, v.Phase)
	require.NotNil(t, v.Result)

	// Draft is gone and the session refuses further edits.
	saved, _ := drafts.Load(context.Background(), s.ID())
	assert.Nil(t, saved)
	assert.ErrorIs(t, s.Mutate(func(r *models.Submission) { r.FirstName = "X" }), appErrors.ErrSubmitted)
	assert.ErrorIs(t, s.GoTo(0), appErrors.ErrSubmitted)
	_, err = s.Submit(context.Background(), sub)
	assert.ErrorIs(t, err, appErrors.ErrSubmitted)
	assert.Equal(t, 1, sub.calls)
}

func TestSubmitSnapshotIsFrozen(t *testing.T) {
	m := newTestManager(t, config.VariantLenient, newMemDraftStore())
	s := openSession(t, m)
	require.NoError(t, s.Mutate(func(r *models.Submission) {
		r.FirstName = "Amit"
		r.AgreementAccepted = true
	}))
	require.NoError(t, s.GoTo(m.catalog.Len()-1))
	require.NoError(t, s.AssignDocument(documents.SlotAadhar, models.StagedFile{
		Name: "aadhar.pdf", Size: 100, MimeType: "application/pdf", StagedPath: "staging/aadhar.pdf",
	}))

	sub := &stubSubmitter{result: &models.SubmissionResult{RecordID: "1"}}
	_, err := s.Submit(context.Background(), sub)
	require.NoError(t, err)

	assert.Equal(t, "Amit", sub.input.Record.FirstName)
	require.Len(t, sub.input.Documents[documents.SlotAadhar], 1)
	assert.Equal(t, "aadhar.pdf", sub.input.Documents[documents.SlotAadhar][0].Name)
	assert.Equal(t, s.ID(), sub.input.SessionID)
}

func TestSubmitPipelineFailureReturnsToEditing(t *testing.T) {
	m := newTestManager(t, config.VariantLenient, newMemDraftStore())
	s := openSession(t, m)
	require.NoError(t, s.Mutate(func(r *models.Submission) {
		r.FirstName = "Amit"
		r.AgreementAccepted = true
	}))
	require.NoError(t, s.GoTo(m.catalog.Len()-1))

	sub := &stubSubmitter{err: appErrors.ErrPersistence}
	_, err := s.Submit(context.Background(), sub)
	require.Error(t, err)

	v := s.View()
	assert.Equal(t, models.PhaseEditing, v.Phase)
	assert.Equal(t, "Amit", v.Record.FirstName)
	assert.NotEmpty(t, v.Notice)

	// The same session can retry.
	sub2 := &stubSubmitter{result: &models.SubmissionResult{RecordID: "1"}}
	_, err = s.Submit(context.Background(), sub2)
	require.NoError(t, err)
	assert.Equal(t, models.PhaseSubmitted, s.View().Phase)
}

func TestSubmitStrictValidationFailureSkipsPipeline(t *testing.T) {
	m := newTestManager(t, config.VariantStrict, newMemDraftStore())
	s := openSession(t, m)
	require.NoError(t, s.GoTo(m.catalog.Len()-1))

	sub := &stubSubmitter{result: &models.SubmissionResult{RecordID: "1"}}
	_, err := s.Submit(context.Background(), sub)
	require.Error(t, err)
	assert.Equal(t, 0, sub.calls)
	assert.Equal(t, models.PhaseEditing, s.View().Phase)
	assert.NotEmpty(t, s.View().FieldErrors)
}

func TestSubmitCompletedSectionsInCatalogOrder(t *testing.T) {
	m := newTestManager(t, config.VariantLenient, newMemDraftStore())
	s := openSession(t, m)

	require.NoError(t, s.Mutate(func(r *models.Submission) { r.AgreementAccepted = true }))
	require.NoError(t, s.GoTo(3))
	require.NoError(t, s.Proceed())
	require.NoError(t, s.GoTo(0))
	require.NoError(t, s.Proceed())
	require.NoError(t, s.GoTo(m.catalog.Len()-1))

	sub := &stubSubmitter{result: &models.SubmissionResult{RecordID: "1"}}
	_, err := s.Submit(context.Background(), sub)
	require.NoError(t, err)
	assert.Equal(t, []string{catalog.SectionPersonal, catalog.SectionAcademic}, sub.input.SectionsCompleted)
}

func TestNoticeClearsAfterTTL(t *testing.T) {
	m := newTestManager(t, config.VariantLenient, newMemDraftStore())
	s := openSession(t, m)

	require.NoError(t, s.Proceed())
	assert.Equal(t, noticeSectionSaved, s.View().Notice)
	time.Sleep(90 * time.Millisecond)
	assert.Empty(t, s.View().Notice)
}

func TestManagerOpenReturnsSameLiveSession(t *testing.T) {
	m := newTestManager(t, config.VariantLenient, newMemDraftStore())
	s := openSession(t, m)

	again, err := m.Open(context.Background(), s.ID())
	require.NoError(t, err)
	assert.Same(t, s, again)
	assert.Equal(t, 1, m.Count())
}

func TestManagerOpenRestoresFromDraft(t *testing.T) {
	drafts := newMemDraftStore()
	record := models.NewSubmission()
	record.FirstName = "Resumed"
	require.NoError(t, drafts.Save(context.Background(), "abc-123", record))

	m := newTestManager(t, config.VariantLenient, drafts)
	s, err := m.Open(context.Background(), "abc-123")
	require.NoError(t, err)
	assert.Equal(t, "abc-123", s.ID())
	assert.Equal(t, "Resumed", s.View().Record.FirstName)
}

func TestManagerDropStopsTimers(t *testing.T) {
	drafts := newMemDraftStore()
	m := newTestManager(t, config.VariantLenient, drafts)
	s := openSession(t, m)

	require.NoError(t, s.Mutate(func(r *models.Submission) { r.FirstName = "Amit" }))
	m.Drop(s.ID())
	_, ok := m.Get(s.ID())
	assert.False(t, ok)

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 0, drafts.saveCount())
}

func TestFlushAllWritesEverySession(t *testing.T) {
	drafts := newMemDraftStore()
	m := newTestManager(t, config.VariantLenient, drafts)
	a := openSession(t, m)
	b := openSession(t, m)

	require.NoError(t, a.Mutate(func(r *models.Submission) { r.FirstName = "A" }))
	require.NoError(t, b.Mutate(func(r *models.Submission) { r.FirstName = "B" }))
	m.FlushAll(context.Background())
	assert.Equal(t, 2, drafts.saveCount())
}
