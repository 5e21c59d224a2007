package repository

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clumsypasta/abans-form/internal/models"
)

func newSubmissionMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestSubmissionRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newSubmissionMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db)

	mock.ExpectExec("INSERT INTO submissions").
		WillReturnResult(sqlmock.NewResult(1, 1))

	sub := models.NewSubmission()
	sub.FirstName = "Priya"
	err := repo.Create(context.Background(), sub)
	require.NoError(t, err)
	assert.NotEmpty(t, sub.ID)
	assert.False(t, sub.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositoryCreateKeepsProvidedID(t *testing.T) {
	db, mock, cleanup := newSubmissionMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db)

	mock.ExpectExec("INSERT INTO submissions").
		WillReturnResult(sqlmock.NewResult(1, 1))

	sub := models.NewSubmission()
	sub.ID = "fixed-id"
	require.NoError(t, repo.Create(context.Background(), sub))
	assert.Equal(t, "fixed-id", sub.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositoryList(t *testing.T) {
	db, mock, cleanup := newSubmissionMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db)

	rows := sqlmock.NewRows([]string{"id", "first_name", "last_name", "personal_email"}).
		AddRow("1", "Priya", "Sharma", "priya@example.com")
	mock.ExpectQuery("SELECT (.+) FROM submissions WHERE 1=1 ORDER BY created_at DESC LIMIT 20 OFFSET 0").
		WillReturnRows(rows)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM submissions WHERE 1=1`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	subs, total, err := repo.List(context.Background(), models.SubmissionFilter{})
	require.NoError(t, err)
	assert.Len(t, subs, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositoryListWithSearch(t *testing.T) {
	db, mock, cleanup := newSubmissionMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db)

	mock.ExpectQuery(`SELECT (.+) FROM submissions WHERE 1=1 AND \(LOWER\(first_name\) LIKE \$1`).
		WithArgs("%priya%").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM submissions`).
		WithArgs("%priya%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, total, err := repo.List(context.Background(), models.SubmissionFilter{Search: "Priya"})
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositoryUpdatePDFURL(t *testing.T) {
	db, mock, cleanup := newSubmissionMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db)

	mock.ExpectExec("UPDATE submissions SET pdf_url").
		WithArgs("rec-1", "/files/pdfs/summary.pdf").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdatePDFURL(context.Background(), "rec-1", "/files/pdfs/summary.pdf"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositoryUpdatePDFURLMissingRow(t *testing.T) {
	db, mock, cleanup := newSubmissionMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db)

	mock.ExpectExec("UPDATE submissions SET pdf_url").
		WithArgs("missing", "/files/pdfs/summary.pdf").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdatePDFURL(context.Background(), "missing", "/files/pdfs/summary.pdf")
	assert.Error(t, err)
}
