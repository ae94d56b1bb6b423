package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/jevencare/api/internal/model"
	"github.com/jevencare/api/internal/repository"
)

type patientRepository struct {
	s *Store
}

func NewPatientRepository(s *Store) repository.PatientRepository {
	return &patientRepository{s: s}
}

func (r *patientRepository) GetByUser(_ context.Context, userID uuid.UUID) (*model.PatientProfile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.patients[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

type doctorRepository struct {
	s *Store
}

func NewDoctorRepository(s *Store) repository.DoctorRepository {
	return &doctorRepository{s: s}
}

func (r *doctorRepository) Get(_ context.Context, id uuid.UUID) (*model.DoctorProfile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.doctors[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r.withUser(p), nil
}

func (r *doctorRepository) GetByUser(_ context.Context, userID uuid.UUID) (*model.DoctorProfile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, p := range r.s.doctors {
		if p.UserID == userID {
			return r.withUser(p), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *doctorRepository) List(_ context.Context, f *model.DoctorFilter) ([]*model.DoctorProfile, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*model.DoctorProfile
	for _, p := range r.s.doctors {
		if !p.IsAvailable {
			continue
		}
		if f.Specialization != "" && !containsFold(p.Specialization, f.Specialization) {
			continue
		}
		if f.Language != "" && !hasString(p.Languages, f.Language) {
			continue
		}
		if f.MinFee != nil && p.ConsultationFee < *f.MinFee {
			continue
		}
		if f.MaxFee != nil && p.ConsultationFee > *f.MaxFee {
			continue
		}
		if f.Search != "" {
			u, ok := r.s.users[p.UserID]
			if !ok || !containsFold(u.Name, f.Search) {
				continue
			}
		}
		out = append(out, r.withUser(p))
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Rating != out[j].Rating {
			return out[i].Rating > out[j].Rating
		}
		if out[i].TotalRatings != out[j].TotalRatings {
			return out[i].TotalRatings > out[j].TotalRatings
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	return page(out, f.Offset, f.Limit), len(out), nil
}

func (r *doctorRepository) ListSpecializations(_ context.Context) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	values := make([]string, 0, len(r.s.doctors))
	for _, p := range r.s.doctors {
		values = append(values, p.Specialization)
	}
	return distinctSorted(values), nil
}

func (r *doctorRepository) Update(_ context.Context, profile *model.DoctorProfile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.doctors[profile.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *profile
	cp.User = nil
	r.s.doctors[profile.ID] = &cp
	return nil
}

// withUser must be called with the lock held.
func (r *doctorRepository) withUser(p *model.DoctorProfile) *model.DoctorProfile {
	cp := *p
	if u, ok := r.s.users[p.UserID]; ok {
		cp.User = u.Summary()
	}
	return &cp
}

type pharmacyRepository struct {
	s *Store
}

func NewPharmacyRepository(s *Store) repository.PharmacyRepository {
	return &pharmacyRepository{s: s}
}

func (r *pharmacyRepository) Get(_ context.Context, id uuid.UUID) (*model.PharmacyProfile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.pharmacies[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r.withUser(p), nil
}

func (r *pharmacyRepository) GetByUser(_ context.Context, userID uuid.UUID) (*model.PharmacyProfile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, p := range r.s.pharmacies {
		if p.UserID == userID {
			return r.withUser(p), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *pharmacyRepository) List(_ context.Context, f *model.PharmacyFilter) ([]*model.PharmacyProfile, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*model.PharmacyProfile
	for _, p := range r.s.pharmacies {
		if f.IsOpen != nil && p.IsOpen != *f.IsOpen {
			continue
		}
		if f.Search != "" && !containsFold(p.PharmacyName, f.Search) {
			continue
		}
		out = append(out, r.withUser(p))
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].PharmacyName != out[j].PharmacyName {
			return out[i].PharmacyName < out[j].PharmacyName
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	return page(out, f.Offset, f.Limit), len(out), nil
}

func (r *pharmacyRepository) Update(_ context.Context, profile *model.PharmacyProfile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.pharmacies[profile.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *profile
	cp.User = nil
	cp.MedicineCount = nil
	cp.Medicines = nil
	r.s.pharmacies[profile.ID] = &cp
	return nil
}

func (r *pharmacyRepository) withUser(p *model.PharmacyProfile) *model.PharmacyProfile {
	cp := *p
	if u, ok := r.s.users[p.UserID]; ok {
		cp.User = u.Summary()
	}
	return &cp
}

func hasString(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
