package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/jevencare/api/internal/model"
	"github.com/jevencare/api/internal/repository"
)

type medicineRepository struct {
	s *Store
}

func NewMedicineRepository(s *Store) repository.MedicineRepository {
	return &medicineRepository{s: s}
}

func (r *medicineRepository) Create(_ context.Context, m *model.Medicine) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.medicines[m.ID]; ok {
		return repository.ErrDuplicate
	}
	cp := *m
	cp.Pharmacy = nil
	r.s.medicines[m.ID] = &cp
	return nil
}

func (r *medicineRepository) Get(_ context.Context, id uuid.UUID) (*model.Medicine, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	m, ok := r.s.medicines[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r.withPharmacy(m), nil
}

func (r *medicineRepository) Update(_ context.Context, m *model.Medicine) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.medicines[m.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *m
	cp.Pharmacy = nil
	r.s.medicines[m.ID] = &cp
	return nil
}

func (r *medicineRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.medicines[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.medicines, id)
	return nil
}

func (r *medicineRepository) List(_ context.Context, f *model.MedicineFilter) ([]*model.Medicine, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*model.Medicine
	for _, m := range r.s.medicines {
		if !m.IsAvailable {
			continue
		}
		if f.Search != "" {
			generic := ""
			if m.GenericName != nil {
				generic = *m.GenericName
			}
			if !containsFold(m.Name, f.Search) && !containsFold(generic, f.Search) {
				continue
			}
		}
		if f.Category != "" && !containsFold(m.Category, f.Category) {
			continue
		}
		if f.PharmacyID != nil && m.PharmacyID != *f.PharmacyID {
			continue
		}
		if f.MinPrice != nil && m.Price < *f.MinPrice {
			continue
		}
		if f.MaxPrice != nil && m.Price > *f.MaxPrice {
			continue
		}
		if f.InStock && m.Stock <= 0 {
			continue
		}
		out = append(out, r.withPharmacy(m))
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Stock != out[j].Stock {
			return out[i].Stock > out[j].Stock
		}
		return out[i].Name < out[j].Name
	})

	return page(out, f.Offset, f.Limit), len(out), nil
}

func (r *medicineRepository) ListCategories(_ context.Context) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	values := make([]string, 0, len(r.s.medicines))
	for _, m := range r.s.medicines {
		values = append(values, m.Category)
	}
	return distinctSorted(values), nil
}

func (r *medicineRepository) CountByPharmacies(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make(map[uuid.UUID]int, len(ids))
	for _, id := range ids {
		out[id] = 0
	}
	for _, m := range r.s.medicines {
		if _, ok := out[m.PharmacyID]; ok && m.IsAvailable {
			out[m.PharmacyID]++
		}
	}
	return out, nil
}

func (r *medicineRepository) withPharmacy(m *model.Medicine) *model.Medicine {
	cp := *m
	if u, ok := r.s.users[m.PharmacyID]; ok {
		cp.Pharmacy = u.Summary()
	}
	return &cp
}
