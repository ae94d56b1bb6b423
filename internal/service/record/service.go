package record

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jevencare/api/internal/blobstore"
	"github.com/jevencare/api/internal/model"
	"github.com/jevencare/api/internal/repository"
	"github.com/jevencare/api/pkg/auth"
	apperrors "github.com/jevencare/api/pkg/errors"
	"github.com/jevencare/api/pkg/pagination"
)

const DefaultMaxFileSize = 10 << 20

var allowedFiles = map[string][]string{
	".jpg":  {"image/jpeg"},
	".jpeg": {"image/jpeg"},
	".png":  {"image/png"},
	".pdf":  {"application/pdf"},
	".doc":  {"application/msword"},
	".docx": {"application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
}

type Service struct {
	repo        repository.HealthRecordRepository
	users       repository.UserRepository
	blobs       blobstore.Store
	maxFileSize int64
	now         func() time.Time
}

func NewService(repo repository.HealthRecordRepository, users repository.UserRepository, blobs blobstore.Store, maxFileSize int64) *Service {
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSize
	}
	return &Service{
		repo:        repo,
		users:       users,
		blobs:       blobs,
		maxFileSize: maxFileSize,
		now:         time.Now,
	}
}

// ValidateFile checks the extension, content type and size of an upload.
func (s *Service) ValidateFile(name, contentType string, size int64) error {
	if size > s.maxFileSize {
		return apperrors.BadRequest(fmt.Sprintf("File exceeds the %d MB limit", s.maxFileSize>>20), nil)
	}
	types, ok := allowedFiles[strings.ToLower(filepath.Ext(name))]
	if ok {
		ct := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
		for _, t := range types {
			if t == ct {
				return nil
			}
		}
	}
	return apperrors.BadRequest("Only images (JPEG, PNG) and documents (PDF, DOC) are allowed", nil)
}

// Upload stores a record for the calling patient, with an optional file.
func (s *Service) Upload(ctx context.Context, caller auth.Identity, req *model.CreateRecordRequest, file *model.UploadedFile) (*model.HealthRecord, error) {
	if model.Role(caller.Role) != model.RolePatient {
		return nil, apperrors.Forbidden("Only patients can upload health records")
	}
	if !req.Type.Valid() {
		return nil, apperrors.BadRequest("Invalid record type", nil)
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Description) == "" {
		return nil, apperrors.BadRequest("Please provide type, title, and description", nil)
	}

	now := s.now().UTC()
	rec := &model.HealthRecord{
		Base:        model.NewBase(now),
		PatientID:   caller.UserID,
		Type:        req.Type,
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Date:        now,
	}

	var err error
	if rec.DoctorID, err = optionalID(req.DoctorID, "doctorId"); err != nil {
		return nil, err
	}
	if rec.AppointmentID, err = optionalID(req.AppointmentID, "appointmentId"); err != nil {
		return nil, err
	}
	if req.Date != "" {
		d, err := parseDate(req.Date)
		if err != nil {
			return nil, apperrors.BadRequest("Invalid date", err)
		}
		rec.Date = d
	}

	if file != nil {
		if err := s.ValidateFile(file.Name, file.ContentType, file.Size); err != nil {
			return nil, err
		}
		key := fmt.Sprintf("records/%s/%s%s", caller.UserID, rec.ID, strings.ToLower(filepath.Ext(file.Name)))
		obj, err := s.blobs.Put(ctx, key, file.ContentType, bytes.NewReader(file.Data))
		if err != nil {
			return nil, fmt.Errorf("failed to store file: %w", err)
		}
		rec.FileKey = &obj.Key
		rec.FileURL = &obj.URL
		rec.FileType = &obj.ContentType
		rec.FileSize = &obj.Size
	}

	if err := s.repo.Create(ctx, rec); err != nil {
		if rec.FileKey != nil {
			s.removeFile(ctx, *rec.FileKey)
		}
		return nil, fmt.Errorf("failed to create health record: %w", err)
	}

	if err := s.withDoctors(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// List returns records owned by a patient or linked to a doctor.
func (s *Service) List(ctx context.Context, caller auth.Identity, recordType string, page pagination.Params) ([]*model.HealthRecord, pagination.Meta, error) {
	filter := &model.RecordFilter{Offset: page.Offset(), Limit: page.Limit}
	switch model.Role(caller.Role) {
	case model.RolePatient:
		filter.PatientID = &caller.UserID
	case model.RoleDoctor:
		filter.DoctorID = &caller.UserID
	default:
		return nil, pagination.Meta{}, apperrors.Forbidden("Access denied")
	}

	if recordType != "" {
		t := model.RecordType(recordType)
		if !t.Valid() {
			return nil, pagination.Meta{}, apperrors.BadRequest("Invalid record type", nil)
		}
		filter.Type = &t
	}

	recs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pagination.Meta{}, fmt.Errorf("failed to list health records: %w", err)
	}
	if err := s.withDoctors(ctx, recs...); err != nil {
		return nil, pagination.Meta{}, err
	}
	return recs, page.Meta(total), nil
}

func (s *Service) Get(ctx context.Context, caller auth.Identity, id uuid.UUID) (*model.HealthRecord, error) {
	rec, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	isPatient := model.Role(caller.Role) == model.RolePatient && rec.PatientID == caller.UserID
	isDoctor := model.Role(caller.Role) == model.RoleDoctor && rec.DoctorID != nil && *rec.DoctorID == caller.UserID
	if !isPatient && !isDoctor {
		return nil, apperrors.Forbidden("Not authorized to view this record")
	}

	if err := s.withDoctors(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Delete removes the record. The stored file is removed best effort.
func (s *Service) Delete(ctx context.Context, caller auth.Identity, id uuid.UUID) error {
	rec, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if rec.PatientID != caller.UserID {
		return apperrors.Forbidden("Not authorized to delete this record")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("health record", err)
		}
		return fmt.Errorf("failed to delete health record: %w", err)
	}
	if rec.FileKey != nil {
		s.removeFile(ctx, *rec.FileKey)
	}
	return nil
}

func (s *Service) load(ctx context.Context, id uuid.UUID) (*model.HealthRecord, error) {
	rec, err := s.repo.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("health record", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get health record: %w", err)
	}
	return rec, nil
}

func (s *Service) removeFile(ctx context.Context, key string) {
	if err := s.blobs.Delete(ctx, key); err != nil && !errors.Is(err, blobstore.ErrBlobNotFound) {
		log.Warn().Err(err).Str("key", key).Msg("failed to delete stored file")
	}
}

func (s *Service) withDoctors(ctx context.Context, recs ...*model.HealthRecord) error {
	var ids []uuid.UUID
	for _, r := range recs {
		if r.DoctorID != nil {
			ids = append(ids, *r.DoctorID)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	users, err := s.users.GetSummaries(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to load doctors: %w", err)
	}
	for _, r := range recs {
		if r.DoctorID != nil {
			r.Doctor = users[*r.DoctorID]
		}
	}
	return nil
}

func optionalID(raw, field string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperrors.BadRequest(fmt.Sprintf("Invalid %s", field), err)
	}
	return &id, nil
}

func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
