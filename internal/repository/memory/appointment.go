package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jevencare/api/internal/model"
	"github.com/jevencare/api/internal/repository"
)

type appointmentRepository struct {
	s *Store
}

func NewAppointmentRepository(s *Store) repository.AppointmentRepository {
	return &appointmentRepository{s: s}
}

func (r *appointmentRepository) Create(_ context.Context, apt *model.Appointment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.activeAt(apt.DoctorID, apt.DateTime) {
		return repository.ErrDuplicate
	}

	r.s.appts[apt.ID] = copyAppointment(apt)
	r.s.apptEvents[apt.ID] = append(r.s.apptEvents[apt.ID], &model.AppointmentEvent{
		ID:            uuid.New(),
		AppointmentID: apt.ID,
		ActorID:       apt.PatientID,
		ToStatus:      apt.Status,
		CreatedAt:     apt.CreatedAt,
	})
	return nil
}

func (r *appointmentRepository) Get(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	apt, ok := r.s.appts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyAppointment(apt), nil
}

func (r *appointmentRepository) List(_ context.Context, f *model.AppointmentFilter) ([]*model.Appointment, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*model.Appointment
	for _, apt := range r.s.appts {
		if f.PatientID != nil && apt.PatientID != *f.PatientID {
			continue
		}
		if f.DoctorID != nil && apt.DoctorID != *f.DoctorID {
			continue
		}
		if f.Status != nil && apt.Status != *f.Status {
			continue
		}
		out = append(out, copyAppointment(apt))
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].DateTime.Equal(out[j].DateTime) {
			return out[i].DateTime.After(out[j].DateTime)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	return page(out, f.Offset, f.Limit), len(out), nil
}

func (r *appointmentRepository) HasActiveAt(_ context.Context, doctorID uuid.UUID, at time.Time) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.activeAt(doctorID, at), nil
}

func (r *appointmentRepository) Transition(_ context.Context, t *model.AppointmentTransition) (*model.Appointment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	apt, ok := r.s.appts[t.AppointmentID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if apt.Status != t.From {
		return nil, repository.ErrStale
	}

	apt.Status = t.To
	if t.CancelReason != nil {
		reason := *t.CancelReason
		apt.CancelReason = &reason
	}
	if t.Prescription != nil {
		apt.Prescription = copyPrescription(t.Prescription)
	}
	if t.PaymentStatus != nil {
		apt.PaymentStatus = *t.PaymentStatus
	}
	apt.UpdatedAt = t.At

	if t.From != t.To {
		from := t.From
		r.s.apptEvents[apt.ID] = append(r.s.apptEvents[apt.ID], &model.AppointmentEvent{
			ID:            uuid.New(),
			AppointmentID: apt.ID,
			ActorID:       t.ActorID,
			FromStatus:    &from,
			ToStatus:      t.To,
			Note:          t.Note,
			CreatedAt:     t.At,
		})
	}

	return copyAppointment(apt), nil
}

func (r *appointmentRepository) ListEvents(_ context.Context, appointmentID uuid.UUID) ([]*model.AppointmentEvent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	events := r.s.apptEvents[appointmentID]
	out := make([]*model.AppointmentEvent, 0, len(events))
	for _, e := range events {
		cp := *e
		out = append(out, &cp)
	}
	return out, nil
}

func (r *appointmentRepository) activeAt(doctorID uuid.UUID, at time.Time) bool {
	for _, apt := range r.s.appts {
		if apt.DoctorID == doctorID && apt.DateTime.Equal(at) && apt.Status != model.AppointmentStatusCancelled {
			return true
		}
	}
	return false
}

// copyAppointment returns a deep copy so callers never share memory with
// the store.
func copyAppointment(apt *model.Appointment) *model.Appointment {
	cp := *apt
	cp.Prescription = copyPrescription(apt.Prescription)
	cp.PaymentRef = copyString(apt.PaymentRef)
	cp.CancelReason = copyString(apt.CancelReason)
	cp.Patient = nil
	cp.Doctor = nil
	return &cp
}

func copyPrescription(p *model.Prescription) *model.Prescription {
	if p == nil {
		return nil
	}
	cp := *p
	if p.Medicines != nil {
		cp.Medicines = make([]model.PrescribedMedicine, len(p.Medicines))
		for i, m := range p.Medicines {
			m.MedicineID = copyString(m.MedicineID)
			cp.Medicines[i] = m
		}
	}
	if p.LabTests != nil {
		cp.LabTests = append([]string(nil), p.LabTests...)
	}
	return &cp
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
