package medicine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jevencare/api/internal/model"
	"github.com/jevencare/api/internal/repository"
	"github.com/jevencare/api/pkg/auth"
	apperrors "github.com/jevencare/api/pkg/errors"
	"github.com/jevencare/api/pkg/pagination"
)

const DefaultLimit = 20

type Service struct {
	repo repository.MedicineRepository
	now  func() time.Time
}

func NewService(repo repository.MedicineRepository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// List returns available medicines, best stocked first.
func (s *Service) List(ctx context.Context, filter model.MedicineFilter, page pagination.Params) ([]*model.Medicine, pagination.Meta, error) {
	if filter.MinPrice != nil && filter.MaxPrice != nil && *filter.MinPrice > *filter.MaxPrice {
		return nil, pagination.Meta{}, apperrors.BadRequest("minPrice cannot exceed maxPrice", nil)
	}
	filter.Offset, filter.Limit = page.Offset(), page.Limit

	meds, total, err := s.repo.List(ctx, &filter)
	if err != nil {
		return nil, pagination.Meta{}, fmt.Errorf("failed to list medicines: %w", err)
	}
	return meds, page.Meta(total), nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Medicine, error) {
	m, err := s.repo.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("medicine", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get medicine: %w", err)
	}
	return m, nil
}

func (s *Service) Categories(ctx context.Context) ([]string, error) {
	cats, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return cats, nil
}

// Create adds a medicine to the calling pharmacy's inventory.
func (s *Service) Create(ctx context.Context, caller auth.Identity, req *model.CreateMedicineRequest) (*model.Medicine, error) {
	if model.Role(caller.Role) != model.RolePharmacy {
		return nil, apperrors.Forbidden("Only pharmacies can add medicines")
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Category) == "" {
		return nil, apperrors.BadRequest("Please provide all required fields", nil)
	}
	if req.Price < 0 || req.Stock < 0 {
		return nil, apperrors.BadRequest("price and stock cannot be negative", nil)
	}

	m := &model.Medicine{
		Base:                 model.NewBase(s.now().UTC()),
		PharmacyID:           caller.UserID,
		Name:                 strings.TrimSpace(req.Name),
		GenericName:          req.GenericName,
		Manufacturer:         req.Manufacturer,
		Description:          req.Description,
		Price:                req.Price,
		Stock:                req.Stock,
		Category:             strings.TrimSpace(req.Category),
		RequiresPrescription: req.RequiresPrescription,
		ExpiryDate:           req.ExpiryDate,
		ImageURL:             req.ImageURL,
		IsAvailable:          true,
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to create medicine: %w", err)
	}
	return m, nil
}

func (s *Service) Update(ctx context.Context, caller auth.Identity, id uuid.UUID, req *model.UpdateMedicineRequest) (*model.Medicine, error) {
	m, err := s.owned(ctx, caller, id, "Not authorized to update this medicine")
	if err != nil {
		return nil, err
	}

	req.Apply(m)
	if m.Price < 0 || m.Stock < 0 {
		return nil, apperrors.BadRequest("price and stock cannot be negative", nil)
	}
	m.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to update medicine: %w", err)
	}
	return m, nil
}

func (s *Service) Delete(ctx context.Context, caller auth.Identity, id uuid.UUID) error {
	if _, err := s.owned(ctx, caller, id, "Not authorized to delete this medicine"); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("medicine", err)
		}
		return fmt.Errorf("failed to delete medicine: %w", err)
	}
	return nil
}

func (s *Service) owned(ctx context.Context, caller auth.Identity, id uuid.UUID, denied string) (*model.Medicine, error) {
	m, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.PharmacyID != caller.UserID {
		return nil, apperrors.Forbidden(denied)
	}
	return m, nil
}
