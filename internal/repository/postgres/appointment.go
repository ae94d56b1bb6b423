package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jevencare/api/internal/model"
	"github.com/jevencare/api/internal/repository"
)

const appointmentColumns = `id, patient_id, doctor_id, date_time, status, type, symptoms,
	consultation_fee, payment_status, payment_ref, prescription, cancel_reason, created_at, updated_at`

func (r *appointmentRepository) Create(ctx context.Context, apt *model.Appointment) error {
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO appointments (`+appointmentColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
			apt.ID, apt.PatientID, apt.DoctorID, apt.DateTime, apt.Status, apt.Type, apt.Symptoms,
			apt.ConsultationFee, apt.PaymentStatus, apt.PaymentRef, apt.Prescription, apt.CancelReason,
			apt.CreatedAt, apt.UpdatedAt,
		)
		if err != nil {
			return err
		}
		return insertEvent(ctx, tx, &model.AppointmentEvent{
			ID:            uuid.New(),
			AppointmentID: apt.ID,
			ActorID:       apt.PatientID,
			ToStatus:      apt.Status,
			CreatedAt:     apt.CreatedAt,
		})
	})
	return mapError(err)
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	var apt model.Appointment
	err := r.db.GetContext(ctx, &apt, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id)
	if err != nil {
		return nil, mapError(err)
	}
	return &apt, nil
}

func (r *appointmentRepository) List(ctx context.Context, f *model.AppointmentFilter) ([]*model.Appointment, int, error) {
	b := &builder{}
	if f.PatientID != nil {
		b.add("patient_id = ?", *f.PatientID)
	}
	if f.DoctorID != nil {
		b.add("doctor_id = ?", *f.DoctorID)
	}
	if f.Status != nil {
		b.add("status = ?", *f.Status)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM appointments`+b.where(), b.args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count appointments: %w", err)
	}

	query := `SELECT ` + appointmentColumns + ` FROM appointments` + b.where() +
		` ORDER BY date_time DESC, created_at DESC` +
		` LIMIT ` + b.next(f.Limit) + ` OFFSET ` + b.next(f.Offset)

	out := []*model.Appointment{}
	if err := r.db.SelectContext(ctx, &out, query, b.args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list appointments: %w", err)
	}
	return out, total, nil
}

func (r *appointmentRepository) HasActiveAt(ctx context.Context, doctorID uuid.UUID, at time.Time) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE doctor_id = $1 AND date_time = $2 AND status <> $3
		)`, doctorID, at, model.AppointmentStatusCancelled)
	if err != nil {
		return false, fmt.Errorf("failed to check slot: %w", err)
	}
	return exists, nil
}

func (r *appointmentRepository) Transition(ctx context.Context, t *model.AppointmentTransition) (*model.Appointment, error) {
	var apt model.Appointment
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &apt, `
			UPDATE appointments
			SET status = $1,
				cancel_reason = COALESCE($2, cancel_reason),
				prescription = COALESCE($3, prescription),
				payment_status = COALESCE($4, payment_status),
				updated_at = $5
			WHERE id = $6 AND status = $7
			RETURNING `+appointmentColumns,
			t.To, t.CancelReason, t.Prescription, t.PaymentStatus, t.At, t.AppointmentID, t.From,
		)
		if err != nil {
			err = mapError(err)
			if err == repository.ErrNotFound {
				return r.staleOrMissing(ctx, tx, t.AppointmentID)
			}
			return err
		}

		if t.From == t.To {
			return nil
		}
		from := t.From
		return insertEvent(ctx, tx, &model.AppointmentEvent{
			ID:            uuid.New(),
			AppointmentID: t.AppointmentID,
			ActorID:       t.ActorID,
			FromStatus:    &from,
			ToStatus:      t.To,
			Note:          t.Note,
			CreatedAt:     t.At,
		})
	})
	if err != nil {
		return nil, err
	}
	return &apt, nil
}

// staleOrMissing tells a lost compare-and-swap apart from a missing row.
func (r *appointmentRepository) staleOrMissing(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error {
	var exists bool
	if err := tx.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM appointments WHERE id = $1)`, id); err != nil {
		return err
	}
	if exists {
		return repository.ErrStale
	}
	return repository.ErrNotFound
}

func (r *appointmentRepository) ListEvents(ctx context.Context, appointmentID uuid.UUID) ([]*model.AppointmentEvent, error) {
	out := []*model.AppointmentEvent{}
	err := r.db.SelectContext(ctx, &out, `
		SELECT id, appointment_id, actor_id, from_status, to_status, note, created_at
		FROM appointment_events
		WHERE appointment_id = $1
		ORDER BY created_at ASC`, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointment events: %w", err)
	}
	return out, nil
}

func insertEvent(ctx context.Context, tx *sqlx.Tx, e *model.AppointmentEvent) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO appointment_events (id, appointment_id, actor_id, from_status, to_status, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.AppointmentID, e.ActorID, e.FromStatus, e.ToStatus, e.Note, e.CreatedAt,
	)
	return err
}
