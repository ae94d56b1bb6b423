package pharmacy

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

// inventoryPreview caps the medicines embedded in a pharmacy detail view.
const inventoryPreview = 20

type Service struct {
	repo      repository.PharmacyRepository
	medicines repository.MedicineRepository
	now       func() time.Time
}

func NewService(repo repository.PharmacyRepository, medicines repository.MedicineRepository) *Service {
	return &Service{repo: repo, medicines: medicines, now: time.Now}
}

// List returns pharmacies by name, each with its available medicine count.
func (s *Service) List(ctx context.Context, filter model.PharmacyFilter, page pagination.Params) ([]*model.PharmacyProfile, pagination.Meta, error) {
	filter.Offset, filter.Limit = page.Offset(), page.Limit

	pharmacies, total, err := s.repo.List(ctx, &filter)
	if err != nil {
		return nil, pagination.Meta{}, fmt.Errorf("failed to list pharmacies: %w", err)
	}
	if len(pharmacies) == 0 {
		return pharmacies, page.Meta(total), nil
	}

	ids := make([]uuid.UUID, len(pharmacies))
	for i, p := range pharmacies {
		ids[i] = p.UserID
	}
	counts, err := s.medicines.CountByPharmacies(ctx, ids)
	if err != nil {
		return nil, pagination.Meta{}, fmt.Errorf("failed to count medicines: %w", err)
	}
	for _, p := range pharmacies {
		n := counts[p.UserID]
		p.MedicineCount = &n
	}
	return pharmacies, page.Meta(total), nil
}

// Get returns a pharmacy with a preview of its available inventory.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.PharmacyProfile, error) {
	p, err := s.found(s.repo.Get(ctx, id))
	if err != nil {
		return nil, err
	}

	owner := p.UserID
	meds, _, err := s.medicines.List(ctx, &model.MedicineFilter{PharmacyID: &owner, Limit: inventoryPreview})
	if err != nil {
		return nil, fmt.Errorf("failed to list pharmacy medicines: %w", err)
	}
	if meds == nil {
		meds = []*model.Medicine{}
	}
	p.Medicines = meds
	return p, nil
}

func (s *Service) MyProfile(ctx context.Context, userID uuid.UUID) (*model.PharmacyProfile, error) {
	return s.found(s.repo.GetByUser(ctx, userID))
}

func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, req *model.UpdatePharmacyProfileRequest) (*model.PharmacyProfile, error) {
	if req.Location != nil {
		if req.Location.Latitude < -90 || req.Location.Latitude > 90 ||
			req.Location.Longitude < -180 || req.Location.Longitude > 180 {
			return nil, apperrors.BadRequest("location is out of range", nil)
		}
	}

	p, err := s.MyProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	req.Apply(p)
	p.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to update pharmacy profile: %w", err)
	}
	return p, nil
}

func (s *Service) found(p *model.PharmacyProfile, err error) (*model.PharmacyProfile, error) {
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("pharmacy", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load pharmacy: %w", err)
	}
	return p, nil
}
