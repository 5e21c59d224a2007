package service

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/clumsypasta/abans-form/internal/catalog"
	"github.com/clumsypasta/abans-form/internal/documents"
	"github.com/clumsypasta/abans-form/internal/dto"
	"github.com/clumsypasta/abans-form/internal/models"
	"github.com/clumsypasta/abans-form/internal/schema"
	"github.com/clumsypasta/abans-form/internal/session"
	"github.com/clumsypasta/abans-form/pkg/config"
	appErrors "github.com/clumsypasta/abans-form/pkg/errors"
)

type stubStager struct {
	mu      sync.Mutex
	saved   []string
	deleted []string
	trees   []string
}

func (s *stubStager) SaveStream(filename string, r io.Reader) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r != nil {
		_, _ = io.Copy(io.Discard, r)
	}
	s.saved = append(s.saved, filename)
	return filename, nil
}

func (s *stubStager) Delete(filename string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, filename)
	return nil
}

func (s *stubStager) DeleteTree(dir string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trees = append(s.trees, dir)
	return nil
}

type stubSessionSubmitter struct {
	calls int
	err   error
}

func (s *stubSessionSubmitter) Submit(_ context.Context, _ session.SubmitInput) (*models.SubmissionResult, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &models.SubmissionResult{RecordID: "rec-1"}, nil
}

type nopDrafts struct{}

func (nopDrafts) Save(context.Context, string, *models.Submission) error  { return nil }
func (nopDrafts) Load(context.Context, string) (*models.Submission, error) { return nil, nil }
func (nopDrafts) Delete(context.Context, string) error                    { return nil }

func newTestSessionService(t *testing.T, sub session.Submitter) (*SessionService, *stubStager) {
	t.Helper()
	cat := catalog.New()
	manager := session.NewManager(
		cat,
		schema.New(config.VariantLenient),
		documents.PolicyFromConfig(config.UploadsConfig{}),
		nopDrafts{},
		zap.NewNop(),
		session.Config{AutosaveDebounce: time.Hour, NoticeTTL: time.Hour},
	)
	files := &stubStager{}
	return NewSessionService(manager, cat, sub, files, nil, zap.NewNop()), files
}

func upload(name, mime string, size int64) FileUpload {
	return FileUpload{Filename: name, Size: size, MimeType: mime, Content: strings.NewReader("data")}
}

func TestSessionServiceOpenMintsAndResumes(t *testing.T) {
	svc, _ := newTestSessionService(t, &stubSessionSubmitter{})

	resp, err := svc.Open(context.Background(), "")
	require.NoError(t, err)
	require.NotEmpty(t, resp.SessionID)
	assert.Equal(t, models.PhaseEditing, resp.Phase)
	assert.Len(t, resp.Sections, catalog.New().Len())

	again, err := svc.Open(context.Background(), resp.SessionID)
	require.NoError(t, err)
	assert.Equal(t, resp.SessionID, again.SessionID)
}

func TestSessionServiceGetUnknown(t *testing.T) {
	svc, _ := newTestSessionService(t, &stubSessionSubmitter{})
	_, err := svc.Get("nope")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestSessionServiceUpdateFieldsAppliesPatch(t *testing.T) {
	svc, _ := newTestSessionService(t, &stubSessionSubmitter{})
	resp, err := svc.Open(context.Background(), "")
	require.NoError(t, err)

	first := "Priya"
	blood := "B+"
	fresher := true
	langs := []models.LanguageEntry{{Language: "Hindi", Speak: true}}
	updated, err := svc.UpdateFields(resp.SessionID, dto.FieldPatch{
		FirstName:      &first,
		BloodGroup:     &blood,
		IsFresher:      &fresher,
		LanguagesKnown: &langs,
	})
	require.NoError(t, err)
	assert.Equal(t, "Priya", updated.Record.FirstName)
	assert.Equal(t, "B+", updated.Record.BloodGroup)
	assert.True(t, updated.Record.IsFresher)
	require.Len(t, updated.Record.LanguagesKnown, 1)
	assert.Equal(t, "Hindi", updated.Record.LanguagesKnown[0].Language)
}

func TestSessionServiceNavigateUnknownSection(t *testing.T) {
	svc, _ := newTestSessionService(t, &stubSessionSubmitter{})
	resp, err := svc.Open(context.Background(), "")
	require.NoError(t, err)

	_, err = svc.Navigate(resp.SessionID, "no-such-section")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	moved, err := svc.Navigate(resp.SessionID, catalog.SectionPersonal)
	require.NoError(t, err)
	assert.Equal(t, 0, moved.SectionIndex)
}

func TestSessionServiceProceedAdvances(t *testing.T) {
	svc, _ := newTestSessionService(t, &stubSessionSubmitter{})
	resp, err := svc.Open(context.Background(), "")
	require.NoError(t, err)

	next, err := svc.Proceed(resp.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 1, next.SectionIndex)
	assert.NotEmpty(t, next.Notice)
}

func TestSessionServiceStagePhotoRejectDiscards(t *testing.T) {
	svc, files := newTestSessionService(t, &stubSessionSubmitter{})
	resp, err := svc.Open(context.Background(), "")
	require.NoError(t, err)

	_, err = svc.StagePhoto(resp.SessionID, upload("huge.jpg", "image/jpeg", 50*1024*1024))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Len(t, files.deleted, 1, "rejected photo must be removed from staging")
}

func TestSessionServiceStageDocumentsAndRemove(t *testing.T) {
	svc, files := newTestSessionService(t, &stubSessionSubmitter{})
	resp, err := svc.Open(context.Background(), "")
	require.NoError(t, err)

	staged, err := svc.StageDocuments(resp.SessionID, documents.SlotAadhar, []FileUpload{upload("aadhar.pdf", "application/pdf", 1024)})
	require.NoError(t, err)
	var slot *dto.SlotView
	for i := range staged.Slots {
		if staged.Slots[i].Key == documents.SlotAadhar {
			slot = &staged.Slots[i]
		}
	}
	require.NotNil(t, slot)
	assert.Equal(t, []string{"aadhar.pdf"}, slot.Files)

	_, err = svc.RemoveDocuments(resp.SessionID, documents.SlotAadhar)
	require.NoError(t, err)
	assert.Len(t, files.deleted, 1)
}

func TestSessionServiceStageDocumentsPolicyReject(t *testing.T) {
	svc, files := newTestSessionService(t, &stubSessionSubmitter{})
	resp, err := svc.Open(context.Background(), "")
	require.NoError(t, err)

	state, err := svc.StageDocuments(resp.SessionID, documents.SlotPan, []FileUpload{upload("pan.zip", "application/zip", 1024)})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	require.NotNil(t, state, "validation rejects still return the session state")
	assert.Len(t, files.deleted, 1)
}

func TestSessionServiceRemoveDocumentsUnknownSlot(t *testing.T) {
	svc, _ := newTestSessionService(t, &stubSessionSubmitter{})
	resp, err := svc.Open(context.Background(), "")
	require.NoError(t, err)

	_, err = svc.RemoveDocuments(resp.SessionID, "bogus_slot")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestSessionServiceSubmitFromLastSection(t *testing.T) {
	sub := &stubSessionSubmitter{}
	svc, _ := newTestSessionService(t, sub)
	resp, err := svc.Open(context.Background(), "")
	require.NoError(t, err)

	accepted := true
	_, err = svc.UpdateFields(resp.SessionID, dto.FieldPatch{AgreementAccepted: &accepted})
	require.NoError(t, err)
	_, err = svc.Navigate(resp.SessionID, catalog.SectionReference)
	require.NoError(t, err)

	final, err := svc.Submit(context.Background(), resp.SessionID)
	require.NoError(t, err)
	assert.Equal(t, models.PhaseSubmitted, final.Phase)
	require.NotNil(t, final.Result)
	assert.Equal(t, "rec-1", final.Result.RecordID)
	assert.Equal(t, 1, sub.calls)
}

func TestSessionServiceDropClearsStaging(t *testing.T) {
	svc, files := newTestSessionService(t, &stubSessionSubmitter{})
	resp, err := svc.Open(context.Background(), "")
	require.NoError(t, err)

	require.NoError(t, svc.Drop(resp.SessionID))
	require.Len(t, files.trees, 1)
	assert.Contains(t, files.trees[0], resp.SessionID)

	_, err = svc.Get(resp.SessionID)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestSubmissionOutcome(t *testing.T) {
	assert.Equal(t, "success", submissionOutcome(nil))
	assert.Equal(t, "validation", submissionOutcome(appErrors.ErrValidation))
	assert.Equal(t, "persistence", submissionOutcome(appErrors.ErrPersistence))
	assert.Equal(t, "not_configured", submissionOutcome(appErrors.ErrNotConfigured))
	assert.Equal(t, "error", submissionOutcome(io.ErrUnexpectedEOF))
}
