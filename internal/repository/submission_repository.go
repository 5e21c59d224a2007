package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/clumsypasta/abans-form/internal/models"
)

// SubmissionRepository manages persistence for finalized form submissions.
type SubmissionRepository struct {
	db *sqlx.DB
}

// NewSubmissionRepository constructs a SubmissionRepository.
func NewSubmissionRepository(db *sqlx.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

const submissionColumns = `id, photo_url, first_name, middle_name, last_name, employee_code,
        father_husband_name, department, company_name, date_of_joining, place_location,
        date_of_birth, present_address, permanent_address, phone_residence, phone_mobile,
        marital_status, nationality, blood_group, personal_email, uan, last_pf_no,
        emergency_contact_name, emergency_contact_address, emergency_contact_relationship, emergency_contact_phone,
        nominee_name, nominee_dob, nominee_mobile, nominee_relationship,
        languages_known, family_dependants, academic_qualifications, professional_qualifications,
        is_fresher, work_experience, "references", agreement_accepted,
        aadhar_url, pan_url, ssc_marksheet_url, ssc_passing_url, hsc_marksheet_url, hsc_passing_url,
        graduation_marksheet_url, graduation_passing_url, postgrad_marksheet_url, postgrad_passing_url,
        increment_letter_url, offer_letter_url, relieving_letter_url, salary_slips_urls,
        sections_completed, pdf_url, created_at`

// Create inserts a finalized submission record.
func (r *SubmissionRepository) Create(ctx context.Context, sub *models.Submission) error {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO submissions (id, photo_url, first_name, middle_name, last_name, employee_code,
        father_husband_name, department, company_name, date_of_joining, place_location,
        date_of_birth, present_address, permanent_address, phone_residence, phone_mobile,
        marital_status, nationality, blood_group, personal_email, uan, last_pf_no,
        emergency_contact_name, emergency_contact_address, emergency_contact_relationship, emergency_contact_phone,
        nominee_name, nominee_dob, nominee_mobile, nominee_relationship,
        languages_known, family_dependants, academic_qualifications, professional_qualifications,
        is_fresher, work_experience, "references", agreement_accepted,
        aadhar_url, pan_url, ssc_marksheet_url, ssc_passing_url, hsc_marksheet_url, hsc_passing_url,
        graduation_marksheet_url, graduation_passing_url, postgrad_marksheet_url, postgrad_passing_url,
        increment_letter_url, offer_letter_url, relieving_letter_url, salary_slips_urls,
        sections_completed, pdf_url, created_at)
        VALUES (:id, :photo_url, :first_name, :middle_name, :last_name, :employee_code,
        :father_husband_name, :department, :company_name, :date_of_joining, :place_location,
        :date_of_birth, :present_address, :permanent_address, :phone_residence, :phone_mobile,
        :marital_status, :nationality, :blood_group, :personal_email, :uan, :last_pf_no,
        :emergency_contact_name, :emergency_contact_address, :emergency_contact_relationship, :emergency_contact_phone,
        :nominee_name, :nominee_dob, :nominee_mobile, :nominee_relationship,
        :languages_known, :family_dependants, :academic_qualifications, :professional_qualifications,
        :is_fresher, :work_experience, :references, :agreement_accepted,
        :aadhar_url, :pan_url, :ssc_marksheet_url, :ssc_passing_url, :hsc_marksheet_url, :hsc_passing_url,
        :graduation_marksheet_url, :graduation_passing_url, :postgrad_marksheet_url, :postgrad_passing_url,
        :increment_letter_url, :offer_letter_url, :relieving_letter_url, :salary_slips_urls,
        :sections_completed, :pdf_url, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, sub); err != nil {
		return fmt.Errorf("create submission: %w", err)
	}
	return nil
}

// FindByID fetches a submission by ID.
func (r *SubmissionRepository) FindByID(ctx context.Context, id string) (*models.Submission, error) {
	query := fmt.Sprintf(`SELECT %s FROM submissions WHERE id = $1`, submissionColumns)
	var sub models.Submission
	if err := r.db.GetContext(ctx, &sub, query, id); err != nil {
		return nil, err
	}
	return &sub, nil
}

// List returns submissions for the admin review surface, newest first.
func (r *SubmissionRepository) List(ctx context.Context, filter models.SubmissionFilter) ([]models.Submission, int, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(LOWER(first_name) LIKE $%d OR LOWER(last_name) LIKE $%d OR LOWER(personal_email) LIKE $%d)",
			len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if filter.Department != "" {
		conditions = append(conditions, fmt.Sprintf("department = $%d", len(args)+1))
		args = append(args, filter.Department)
	}
	where := strings.Join(conditions, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s FROM submissions WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		submissionColumns, where, size, offset)

	var subs []models.Submission
	if err := r.db.SelectContext(ctx, &subs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list submissions: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM submissions WHERE %s", where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count submissions: %w", err)
	}
	return subs, total, nil
}

// UpdatePDFURL patches the generated summary location onto an existing record.
func (r *SubmissionRepository) UpdatePDFURL(ctx context.Context, id, pdfURL string) error {
	const query = `UPDATE submissions SET pdf_url = $2 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, pdfURL)
	if err != nil {
		return fmt.Errorf("update pdf url: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
