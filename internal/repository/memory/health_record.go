package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/jevencare/api/internal/model"
	"github.com/jevencare/api/internal/repository"
)

type healthRecordRepository struct {
	s *Store
}

func NewHealthRecordRepository(s *Store) repository.HealthRecordRepository {
	return &healthRecordRepository{s: s}
}

func (r *healthRecordRepository) Create(_ context.Context, record *model.HealthRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.records[record.ID]; ok {
		return repository.ErrDuplicate
	}
	cp := *record
	cp.Doctor = nil
	r.s.records[record.ID] = &cp
	return nil
}

func (r *healthRecordRepository) Get(_ context.Context, id uuid.UUID) (*model.HealthRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rec, ok := r.s.records[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (r *healthRecordRepository) List(_ context.Context, f *model.RecordFilter) ([]*model.HealthRecord, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*model.HealthRecord
	for _, rec := range r.s.records {
		if f.PatientID != nil && rec.PatientID != *f.PatientID {
			continue
		}
		if f.DoctorID != nil && (rec.DoctorID == nil || *rec.DoctorID != *f.DoctorID) {
			continue
		}
		if f.Type != nil && rec.Type != *f.Type {
			continue
		}
		cp := *rec
		out = append(out, &cp)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	return page(out, f.Offset, f.Limit), len(out), nil
}

func (r *healthRecordRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.records[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.records, id)
	return nil
}
