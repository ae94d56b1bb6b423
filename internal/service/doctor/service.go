package doctor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jevencare/api/internal/model"
	"github.com/jevencare/api/internal/repository"
	apperrors "github.com/jevencare/api/pkg/errors"
	"github.com/jevencare/api/pkg/pagination"
)

type Service struct {
	repo repository.DoctorRepository
	now  func() time.Time
}

func NewService(repo repository.DoctorRepository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// List returns available doctors, best rated first.
func (s *Service) List(ctx context.Context, filter model.DoctorFilter, page pagination.Params) ([]*model.DoctorProfile, pagination.Meta, error) {
	if filter.MinFee != nil && filter.MaxFee != nil && *filter.MinFee > *filter.MaxFee {
		return nil, pagination.Meta{}, apperrors.BadRequest("minFee cannot exceed maxFee", nil)
	}
	filter.Offset, filter.Limit = page.Offset(), page.Limit

	doctors, total, err := s.repo.List(ctx, &filter)
	if err != nil {
		return nil, pagination.Meta{}, fmt.Errorf("failed to list doctors: %w", err)
	}
	return doctors, page.Meta(total), nil
}

// Get looks a doctor up by profile id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.DoctorProfile, error) {
	return s.found(s.repo.Get(ctx, id))
}

// MyProfile returns the calling doctor's profile.
func (s *Service) MyProfile(ctx context.Context, userID uuid.UUID) (*model.DoctorProfile, error) {
	return s.found(s.repo.GetByUser(ctx, userID))
}

func (s *Service) Specializations(ctx context.Context) ([]string, error) {
	specs, err := s.repo.ListSpecializations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list specializations: %w", err)
	}
	return specs, nil
}

func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, req *model.UpdateDoctorProfileRequest) (*model.DoctorProfile, error) {
	if req.ConsultationFee != nil && *req.ConsultationFee < 0 {
		return nil, apperrors.BadRequest("consultationFee cannot be negative", nil)
	}
	if req.Experience != nil && *req.Experience < 0 {
		return nil, apperrors.BadRequest("experience cannot be negative", nil)
	}

	profile, err := s.MyProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	req.Apply(profile)
	profile.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to update doctor profile: %w", err)
	}
	return profile, nil
}

func (s *Service) found(p *model.DoctorProfile, err error) (*model.DoctorProfile, error) {
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("doctor", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load doctor: %w", err)
	}
	return p, nil
}
