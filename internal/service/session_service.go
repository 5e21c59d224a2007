package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/clumsypasta/abans-form/internal/catalog"
	"github.com/clumsypasta/abans-form/internal/documents"
	"github.com/clumsypasta/abans-form/internal/dto"
	"github.com/clumsypasta/abans-form/internal/models"
	"github.com/clumsypasta/abans-form/internal/session"
	appErrors "github.com/clumsypasta/abans-form/pkg/errors"
	"github.com/clumsypasta/abans-form/pkg/storage"
)

type sessionFileStager interface {
	SaveStream(filename string, r io.Reader) (string, error)
	Delete(filename string) error
	DeleteTree(dir string) error
}

// FileUpload carries one incoming multipart file.
type FileUpload struct {
	Filename string
	Size     int64
	MimeType string
	Content  io.Reader
}

// SessionService is the application layer over the form session machine: it
// resolves sessions, applies field patches, stages uploads onto disk before
// handing them to the bundle tracker, and drives submission.
type SessionService struct {
	manager   *session.Manager
	catalog   *catalog.Catalog
	submitter session.Submitter
	storage   sessionFileStager
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewSessionService constructs a SessionService. metrics may be nil.
func NewSessionService(manager *session.Manager, cat *catalog.Catalog, submitter session.Submitter, fileStore sessionFileStager, metrics *MetricsService, logger *zap.Logger) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{
		manager:   manager,
		catalog:   cat,
		submitter: submitter,
		storage:   fileStore,
		metrics:   metrics,
		logger:    logger,
	}
}

// Open starts or resumes a session.
func (s *SessionService) Open(ctx context.Context, sessionID string) (*dto.SessionResponse, error) {
	sess, err := s.manager.Open(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.respond(sess), nil
}

// Get returns the state of a live session.
func (s *SessionService) Get(sessionID string) (*dto.SessionResponse, error) {
	sess, err := s.resolve(sessionID)
	if err != nil {
		return nil, err
	}
	return s.respond(sess), nil
}

// UpdateFields applies a partial record patch.
func (s *SessionService) UpdateFields(sessionID string, patch dto.FieldPatch) (*dto.SessionResponse, error) {
	sess, err := s.resolve(sessionID)
	if err != nil {
		return nil, err
	}
	if err := sess.Mutate(func(r *models.Submission) { applyPatch(r, patch) }); err != nil {
		return nil, err
	}
	return s.respond(sess), nil
}

// Navigate jumps to the named section.
func (s *SessionService) Navigate(sessionID, sectionID string) (*dto.SessionResponse, error) {
	sess, err := s.resolve(sessionID)
	if err != nil {
		return nil, err
	}
	idx := s.catalog.IndexOf(sectionID)
	if idx < 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown section %q", sectionID))
	}
	if err := sess.GoTo(idx); err != nil {
		return nil, err
	}
	return s.respond(sess), nil
}

// Proceed validates and completes the current section, then advances.
func (s *SessionService) Proceed(sessionID string) (*dto.SessionResponse, error) {
	sess, err := s.resolve(sessionID)
	if err != nil {
		return nil, err
	}
	if err := sess.Proceed(); err != nil {
		// Validation failures still return the refreshed state so the
		// client can render the field errors.
		if appErrors.FromError(err).Code == appErrors.ErrValidation.Code {
			return s.respond(sess), err
		}
		return nil, err
	}
	return s.respond(sess), nil
}

// Submit runs the finalization pipeline for the session.
func (s *SessionService) Submit(ctx context.Context, sessionID string) (*dto.SessionResponse, error) {
	sess, err := s.resolve(sessionID)
	if err != nil {
		return nil, err
	}
	_, err = sess.Submit(ctx, s.submitter)
	s.metrics.ObserveSubmission(submissionOutcome(err))
	if err != nil {
		if appErrors.FromError(err).Code == appErrors.ErrValidation.Code {
			return s.respond(sess), err
		}
		return nil, err
	}
	return s.respond(sess), nil
}

// StagePhoto stores the applicant photo in the session staging area.
func (s *SessionService) StagePhoto(sessionID string, upload FileUpload) (*dto.SessionResponse, error) {
	sess, err := s.resolve(sessionID)
	if err != nil {
		return nil, err
	}
	staged, err := s.stage(sessionID, "photo", 0, upload)
	if err != nil {
		return nil, err
	}
	if err := sess.SetPhoto(staged); err != nil {
		s.discard(staged)
		s.metrics.ObserveUploadReject("policy")
		return nil, err
	}
	return s.respond(sess), nil
}

// RemovePhoto discards the staged photo.
func (s *SessionService) RemovePhoto(sessionID string) (*dto.SessionResponse, error) {
	sess, err := s.resolve(sessionID)
	if err != nil {
		return nil, err
	}
	if removed := sess.RemovePhoto(); removed != nil {
		s.discard(*removed)
	}
	return s.respond(sess), nil
}

// StageDocuments stores uploads for a slot and assigns them to the bundle.
// Multi-file uploads are assigned as one atomic batch.
func (s *SessionService) StageDocuments(sessionID, slot string, uploads []FileUpload) (*dto.SessionResponse, error) {
	sess, err := s.resolve(sessionID)
	if err != nil {
		return nil, err
	}
	if len(uploads) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no files provided")
	}

	staged := make([]models.StagedFile, 0, len(uploads))
	for i, upload := range uploads {
		file, err := s.stage(sessionID, slot, i, upload)
		if err != nil {
			s.discardAll(staged)
			return nil, err
		}
		staged = append(staged, file)
	}

	if len(staged) == 1 {
		err = sess.AssignDocument(slot, staged[0])
	} else {
		err = sess.AssignDocumentBatch(slot, staged)
	}
	if err != nil {
		s.discardAll(staged)
		s.metrics.ObserveUploadReject("policy")
		// The tracker recorded the slot error; return the state alongside.
		if appErrors.FromError(err).Code == appErrors.ErrValidation.Code {
			return s.respond(sess), err
		}
		return nil, err
	}
	return s.respond(sess), nil
}

// RemoveDocuments clears a slot and deletes its staged files.
func (s *SessionService) RemoveDocuments(sessionID, slot string) (*dto.SessionResponse, error) {
	sess, err := s.resolve(sessionID)
	if err != nil {
		return nil, err
	}
	if _, ok := documents.SlotByKey(slot); !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "unknown document slot")
	}
	s.discardAll(sess.RemoveDocument(slot))
	return s.respond(sess), nil
}

// Drop discards a live session and its staging area. The draft snapshot is
// kept so the record can still be resumed later.
func (s *SessionService) Drop(sessionID string) error {
	if _, err := s.resolve(sessionID); err != nil {
		return err
	}
	s.manager.Drop(sessionID)
	if err := s.storage.DeleteTree(filepath.Join(storage.NamespaceStaging, sessionID)); err != nil {
		s.logger.Warn("failed to clear staging area", zap.String("session_id", sessionID), zap.Error(err))
	}
	return nil
}

func (s *SessionService) resolve(sessionID string) (*session.Session, error) {
	sess, ok := s.manager.Get(sessionID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
	}
	return sess, nil
}

func (s *SessionService) stage(sessionID, prefix string, index int, upload FileUpload) (models.StagedFile, error) {
	name := fmt.Sprintf("%s_%d_%d%s", prefix, index, time.Now().UnixNano(), ext(upload.Filename))
	rel := filepath.Join(storage.NamespaceStaging, sessionID, name)
	stored, err := s.storage.SaveStream(rel, upload.Content)
	if err != nil {
		return models.StagedFile{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stage upload")
	}
	return models.StagedFile{
		Name:       upload.Filename,
		Size:       upload.Size,
		MimeType:   upload.MimeType,
		StagedPath: stored,
	}, nil
}

func (s *SessionService) discard(file models.StagedFile) {
	if err := s.storage.Delete(file.StagedPath); err != nil {
		s.logger.Warn("failed to delete staged file", zap.String("path", file.StagedPath), zap.Error(err))
	}
}

func (s *SessionService) discardAll(files []models.StagedFile) {
	for _, file := range files {
		s.discard(file)
	}
}

func (s *SessionService) respond(sess *session.Session) *dto.SessionResponse {
	v := sess.View()

	slots := make([]dto.SlotView, 0, len(v.Slots))
	for _, state := range v.Slots {
		spec, _ := documents.SlotByKey(state.Key)
		names := make([]string, 0, len(state.Files))
		for _, f := range state.Files {
			names = append(names, f.Name)
		}
		slots = append(slots, dto.SlotView{
			Key:      state.Key,
			Category: spec.Category,
			Multi:    spec.Multi,
			Files:    names,
			Error:    state.Error,
		})
	}

	resp := &dto.SessionResponse{
		SessionID:    v.ID,
		Phase:        v.Phase,
		SectionIndex: v.SectionIndex,
		Sections:     v.Sections,
		Record:       v.Record,
		Slots:        slots,
		Notice:       v.Notice,
		FieldErrors:  v.FieldErrors,
		Result:       v.Result,
	}
	if v.Photo != nil {
		resp.PhotoName = v.Photo.Name
	}
	return resp
}

func submissionOutcome(err error) string {
	if err == nil {
		return "success"
	}
	switch appErrors.FromError(err).Code {
	case appErrors.ErrValidation.Code:
		return "validation"
	case appErrors.ErrUpload.Code:
		return "upload"
	case appErrors.ErrPersistence.Code:
		return "persistence"
	case appErrors.ErrNotConfigured.Code:
		return "not_configured"
	default:
		return "error"
	}
}

func applyPatch(r *models.Submission, p dto.FieldPatch) {
	setString(&r.FirstName, p.FirstName)
	setString(&r.MiddleName, p.MiddleName)
	setString(&r.LastName, p.LastName)
	setString(&r.EmployeeCode, p.EmployeeCode)
	setString(&r.FatherHusbandName, p.FatherHusbandName)
	setString(&r.Department, p.Department)
	setString(&r.CompanyName, p.CompanyName)
	setOptionalString(&r.DateOfJoining, p.DateOfJoining)
	setString(&r.PlaceLocation, p.PlaceLocation)
	setOptionalString(&r.DateOfBirth, p.DateOfBirth)
	setString(&r.PresentAddress, p.PresentAddress)
	setString(&r.PermanentAddress, p.PermanentAddress)
	setString(&r.PhoneResidence, p.PhoneResidence)
	setString(&r.PhoneMobile, p.PhoneMobile)
	setString(&r.MaritalStatus, p.MaritalStatus)
	setString(&r.Nationality, p.Nationality)
	setString(&r.BloodGroup, p.BloodGroup)
	setString(&r.PersonalEmail, p.PersonalEmail)
	setString(&r.UAN, p.UAN)
	setString(&r.LastPFNo, p.LastPFNo)

	setString(&r.EmergencyContactName, p.EmergencyContactName)
	setString(&r.EmergencyContactAddress, p.EmergencyContactAddress)
	setString(&r.EmergencyContactRelationship, p.EmergencyContactRelationship)
	setString(&r.EmergencyContactPhone, p.EmergencyContactPhone)

	setString(&r.NomineeName, p.NomineeName)
	setOptionalString(&r.NomineeDOB, p.NomineeDOB)
	setString(&r.NomineeMobile, p.NomineeMobile)
	setString(&r.NomineeRelationship, p.NomineeRelationship)

	if p.IsFresher != nil {
		r.IsFresher = *p.IsFresher
	}
	if p.AgreementAccepted != nil {
		r.AgreementAccepted = *p.AgreementAccepted
	}

	if p.LanguagesKnown != nil {
		r.LanguagesKnown = append(models.LanguageList{}, *p.LanguagesKnown...)
	}
	if p.FamilyDependants != nil {
		r.FamilyDependants = append(models.DependantList{}, *p.FamilyDependants...)
	}
	if p.AcademicQualifications != nil {
		r.AcademicQualifications = append(models.AcademicList{}, *p.AcademicQualifications...)
	}
	if p.ProfessionalQualifications != nil {
		r.ProfessionalQualifications = append(models.ProfessionalList{}, *p.ProfessionalQualifications...)
	}
	if p.WorkExperience != nil {
		r.WorkExperienceEntries = append(models.ExperienceList{}, *p.WorkExperience...)
	}
	if p.References != nil {
		r.References = append(models.ReferenceList{}, *p.References...)
	}
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setOptionalString(dst **string, src *string) {
	if src != nil {
		v := *src
		*dst = &v
	}
}
