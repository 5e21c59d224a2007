package service

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clumsypasta/abans-form/internal/dto"
	"github.com/clumsypasta/abans-form/internal/models"
	appErrors "github.com/clumsypasta/abans-form/pkg/errors"
	"github.com/clumsypasta/abans-form/pkg/storage"
)

type stubAdminStore struct {
	subs    []models.Submission
	total   int
	byID    map[string]*models.Submission
	listErr error
}

func (s *stubAdminStore) List(_ context.Context, _ models.SubmissionFilter) ([]models.Submission, int, error) {
	if s.listErr != nil {
		return nil, 0, s.listErr
	}
	return s.subs, s.total, nil
}

func (s *stubAdminStore) FindByID(_ context.Context, id string) (*models.Submission, error) {
	if sub, ok := s.byID[id]; ok {
		return sub, nil
	}
	return nil, sql.ErrNoRows
}

func submissionWithPDF(id string) *models.Submission {
	sub := models.NewSubmission()
	sub.ID = id
	sub.FirstName = "Priya"
	sub.LastName = "Sharma"
	sub.CreatedAt = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	url := "/files/pdfs/joining-form-priya-sharma-1700000000.pdf"
	sub.PDFURL = &url
	return sub
}

func newTestAdminService(store *stubAdminStore) *AdminService {
	signer := storage.NewSignedURLSigner("test-secret", time.Minute)
	return NewAdminService(store, signer, nil, nil, AdminServiceConfig{APIPrefix: "/api/v1"})
}

func TestAdminListProjectsSummaries(t *testing.T) {
	sub := submissionWithPDF("rec-1")
	store := &stubAdminStore{subs: []models.Submission{*sub}, total: 1}
	svc := newTestAdminService(store)

	rows, page, err := svc.List(context.Background(), dto.SubmissionListQuery{Page: 1, PageSize: 20})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Priya Sharma", rows[0].FullName)
	assert.Equal(t, 1, page.TotalCount)
}

func TestAdminListNotConfigured(t *testing.T) {
	svc := NewAdminService(nil, nil, nil, nil, AdminServiceConfig{})
	_, _, err := svc.List(context.Background(), dto.SubmissionListQuery{})
	assert.Equal(t, appErrors.ErrNotConfigured.Code, appErrors.FromError(err).Code)
}

func TestAdminGetMissing(t *testing.T) {
	svc := newTestAdminService(&stubAdminStore{byID: map[string]*models.Submission{}})
	_, err := svc.Get(context.Background(), "absent")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestAdminSummaryDownloadLink(t *testing.T) {
	sub := submissionWithPDF("rec-1")
	svc := newTestAdminService(&stubAdminStore{byID: map[string]*models.Submission{"rec-1": sub}})

	link, err := svc.SummaryDownloadLink(context.Background(), "rec-1")
	require.NoError(t, err)
	assert.Contains(t, link.URL, "/api/v1/admin/submissions/rec-1/summary?token=")
}

func TestAdminSummaryDownloadLinkWithoutPDF(t *testing.T) {
	sub := models.NewSubmission()
	sub.ID = "rec-2"
	svc := newTestAdminService(&stubAdminStore{byID: map[string]*models.Submission{"rec-2": sub}})

	_, err := svc.SummaryDownloadLink(context.Background(), "rec-2")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAdminOpenSummaryTokenMismatch(t *testing.T) {
	signer := storage.NewSignedURLSigner("test-secret", time.Minute)
	one := submissionWithPDF("rec-1")
	two := submissionWithPDF("rec-2")
	store := &stubAdminStore{byID: map[string]*models.Submission{"rec-1": one, "rec-2": two}}
	svc := NewAdminService(store, signer, openNothing{}, nil, AdminServiceConfig{})

	token, _, err := signer.Generate("rec-2", "pdfs/x.pdf")
	require.NoError(t, err)

	_, err = svc.OpenSummary(context.Background(), "rec-1", token)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

type openNothing struct{}

func (openNothing) Open(string) (*os.File, error) { return nil, os.ErrNotExist }

func TestAdminExportCSV(t *testing.T) {
	sub := submissionWithPDF("rec-1")
	sub.EmployeeCode = "E-100"
	sub.Department = "Treasury"
	svc := newTestAdminService(&stubAdminStore{subs: []models.Submission{*sub}, total: 1})

	data, err := svc.ExportCSV(context.Background(), dto.SubmissionListQuery{})
	require.NoError(t, err)
	csv := string(data)
	assert.Contains(t, csv, "id,full_name,employee_code,department,personal_email,phone_mobile,submitted_at")
	assert.Contains(t, csv, "Priya Sharma")
	assert.Contains(t, csv, "E-100")
}

func TestRelPathFromURL(t *testing.T) {
	assert.Equal(t, "pdfs/x.pdf", relPathFromURL("/files/pdfs/x.pdf"))
	assert.Equal(t, "pdfs/x.pdf", relPathFromURL("https://forms.abans.example/files/pdfs/x.pdf"))
	assert.Equal(t, "pdfs/x.pdf", relPathFromURL("/pdfs/x.pdf"))
}
