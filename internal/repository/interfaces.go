package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jevencare/api/internal/model"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
	// ErrStale means a compare-and-swap lost to a concurrent writer.
	ErrStale = errors.New("record changed concurrently")
)

// All repository interfaces in one file
type (
	UserRepository interface {
		// CreateWithProfile stores the user and its role profile atomically.
		CreateWithProfile(ctx context.Context, user *model.User, profile model.RoleProfile) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByPhone(ctx context.Context, phone string) (*model.User, error)
		GetSummaries(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.UserSummary, error)
		Update(ctx context.Context, user *model.User) error
		MarkVerified(ctx context.Context, id uuid.UUID) error
		SetRefreshToken(ctx context.Context, id uuid.UUID, token *string) error
	}

	PatientRepository interface {
		GetByUser(ctx context.Context, userID uuid.UUID) (*model.PatientProfile, error)
	}

	DoctorRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.DoctorProfile, error)
		GetByUser(ctx context.Context, userID uuid.UUID) (*model.DoctorProfile, error)
		List(ctx context.Context, filter *model.DoctorFilter) ([]*model.DoctorProfile, int, error)
		ListSpecializations(ctx context.Context) ([]string, error)
		Update(ctx context.Context, profile *model.DoctorProfile) error
	}

	PharmacyRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.PharmacyProfile, error)
		GetByUser(ctx context.Context, userID uuid.UUID) (*model.PharmacyProfile, error)
		List(ctx context.Context, filter *model.PharmacyFilter) ([]*model.PharmacyProfile, int, error)
		Update(ctx context.Context, profile *model.PharmacyProfile) error
	}

	AppointmentRepository interface {
		// Create returns ErrDuplicate when the doctor already has a
		// non-cancelled appointment at the same minute.
		Create(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		List(ctx context.Context, filter *model.AppointmentFilter) ([]*model.Appointment, int, error)
		HasActiveAt(ctx context.Context, doctorID uuid.UUID, at time.Time) (bool, error)
		// Transition returns ErrStale when the stored status is no longer t.From.
		Transition(ctx context.Context, t *model.AppointmentTransition) (*model.Appointment, error)
		ListEvents(ctx context.Context, appointmentID uuid.UUID) ([]*model.AppointmentEvent, error)
	}

	HealthRecordRepository interface {
		Create(ctx context.Context, record *model.HealthRecord) error
		Get(ctx context.Context, id uuid.UUID) (*model.HealthRecord, error)
		List(ctx context.Context, filter *model.RecordFilter) ([]*model.HealthRecord, int, error)
		Delete(ctx context.Context, id uuid.UUID) error
	}

	MedicineRepository interface {
		Create(ctx context.Context, medicine *model.Medicine) error
		Get(ctx context.Context, id uuid.UUID) (*model.Medicine, error)
		Update(ctx context.Context, medicine *model.Medicine) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filter *model.MedicineFilter) ([]*model.Medicine, int, error)
		ListCategories(ctx context.Context) ([]string, error)
		CountByPharmacies(ctx context.Context, pharmacyUserIDs []uuid.UUID) (map[uuid.UUID]int, error)
	}
)
