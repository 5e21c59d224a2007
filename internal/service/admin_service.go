package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/clumsypasta/abans-form/internal/dto"
	"github.com/clumsypasta/abans-form/internal/models"
	appErrors "github.com/clumsypasta/abans-form/pkg/errors"
	"github.com/clumsypasta/abans-form/pkg/export"
)

// exportPageSize is the batch size the CSV export pages through the store
// with. It matches the repository's maximum list page size.
const exportPageSize = 100

type adminSubmissionStore interface {
	List(ctx context.Context, filter models.SubmissionFilter) ([]models.Submission, int, error)
	FindByID(ctx context.Context, id string) (*models.Submission, error)
}

type adminSigner interface {
	Generate(id, relPath string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (id, relPath string, expiresAt time.Time, err error)
}

type adminFileStore interface {
	Open(filename string) (*os.File, error)
}

// AdminFileDownload bundles an opened stored file for streaming.
type AdminFileDownload struct {
	File     *os.File
	Filename string
}

// AdminServiceConfig tunes the review surface.
type AdminServiceConfig struct {
	APIPrefix string
}

// AdminService backs the reviewer endpoints: submission listing, detail and
// signed downloads of the generated summaries.
type AdminService struct {
	repo    adminSubmissionStore
	signer  adminSigner
	storage adminFileStore
	logger  *zap.Logger
	cfg     AdminServiceConfig
}

// NewAdminService constructs an AdminService. A nil repo means the review
// surface has no backend and every call fails with NOT_CONFIGURED.
func NewAdminService(repo adminSubmissionStore, signer adminSigner, fileStore adminFileStore, logger *zap.Logger, cfg AdminServiceConfig) *AdminService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}
	return &AdminService{repo: repo, signer: signer, storage: fileStore, logger: logger, cfg: cfg}
}

// List returns a page of submissions.
func (s *AdminService) List(ctx context.Context, query dto.SubmissionListQuery) ([]dto.SubmissionSummary, models.Pagination, error) {
	if s.repo == nil {
		return nil, models.Pagination{}, appErrors.ErrNotConfigured
	}
	subs, total, err := s.repo.List(ctx, models.SubmissionFilter{
		Search:     query.Search,
		Department: query.Department,
		Page:       query.Page,
		PageSize:   query.PageSize,
	})
	if err != nil {
		return nil, models.Pagination{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list submissions")
	}
	summaries := make([]dto.SubmissionSummary, 0, len(subs))
	for _, sub := range subs {
		summaries = append(summaries, dto.NewSubmissionSummary(sub))
	}
	page := query.Page
	if page < 1 {
		page = 1
	}
	size := query.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return summaries, models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// ExportCSV renders all submissions matching the filter as a CSV roster.
// Pagination is ignored; the export always covers the full result set.
func (s *AdminService) ExportCSV(ctx context.Context, query dto.SubmissionListQuery) ([]byte, error) {
	if s.repo == nil {
		return nil, appErrors.ErrNotConfigured
	}
	var subs []models.Submission
	for page := 1; ; page++ {
		batch, _, err := s.repo.List(ctx, models.SubmissionFilter{
			Search:     query.Search,
			Department: query.Department,
			Page:       page,
			PageSize:   exportPageSize,
		})
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list submissions")
		}
		subs = append(subs, batch...)
		if len(batch) < exportPageSize {
			break
		}
	}

	headers := []string{"id", "full_name", "employee_code", "department", "personal_email", "phone_mobile", "submitted_at"}
	rows := make([]map[string]string, 0, len(subs))
	for _, sub := range subs {
		rows = append(rows, map[string]string{
			"id":             sub.ID,
			"full_name":      sub.FullName(),
			"employee_code":  sub.EmployeeCode,
			"department":     sub.Department,
			"personal_email": sub.PersonalEmail,
			"phone_mobile":   sub.PhoneMobile,
			"submitted_at":   sub.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	data, err := export.NewCSVExporter().Render(export.Dataset{Headers: headers, Rows: rows})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}
	return data, nil
}

// Get returns the full submission record.
func (s *AdminService) Get(ctx context.Context, id string) (*models.Submission, error) {
	if s.repo == nil {
		return nil, appErrors.ErrNotConfigured
	}
	sub, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}
	return sub, nil
}

// SummaryDownloadLink builds a signed, expiring URL for the submission's
// generated summary document.
func (s *AdminService) SummaryDownloadLink(ctx context.Context, id string) (*dto.DownloadLinkResponse, error) {
	sub, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.PDFURL == nil || *sub.PDFURL == "" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "summary not generated yet")
	}
	relPath := relPathFromURL(*sub.PDFURL)
	token, expiresAt, err := s.signer.Generate(sub.ID, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download url")
	}
	link := fmt.Sprintf("%s/admin/submissions/%s/summary?token=%s", strings.TrimRight(s.cfg.APIPrefix, "/"), sub.ID, token)
	return &dto.DownloadLinkResponse{
		URL:       link,
		ExpiresAt: expiresAt.UTC().Format(time.RFC3339),
	}, nil
}

// OpenSummary validates a download token and opens the summary file.
func (s *AdminService) OpenSummary(ctx context.Context, id, token string) (*AdminFileDownload, error) {
	sub, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	signedID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired token")
	}
	if signedID != sub.ID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "token mismatch")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open summary file")
	}
	return &AdminFileDownload{File: file, Filename: filepath.Base(relPath)}, nil
}

// relPathFromURL strips scheme, host and the public mount so the remainder
// resolves against the storage base directory.
func relPathFromURL(raw string) string {
	path := raw
	if u, err := url.Parse(raw); err == nil && u.Path != "" {
		path = u.Path
	}
	path = strings.TrimPrefix(path, "/files")
	return strings.TrimLeft(path, "/")
}
