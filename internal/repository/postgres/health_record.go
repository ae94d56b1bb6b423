package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jevencare/api/internal/model"
)

const recordColumns = `id, patient_id, doctor_id, appointment_id, type, title, description,
	file_url, file_key, file_type, file_size, date, created_at, updated_at`

func (r *healthRecordRepository) Create(ctx context.Context, rec *model.HealthRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO health_records (`+recordColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		rec.ID, rec.PatientID, rec.DoctorID, rec.AppointmentID, rec.Type, rec.Title, rec.Description,
		rec.FileURL, rec.FileKey, rec.FileType, rec.FileSize, rec.Date, rec.CreatedAt, rec.UpdatedAt,
	)
	return mapError(err)
}

func (r *healthRecordRepository) Get(ctx context.Context, id uuid.UUID) (*model.HealthRecord, error) {
	var rec model.HealthRecord
	if err := r.db.GetContext(ctx, &rec, `SELECT `+recordColumns+` FROM health_records WHERE id = $1`, id); err != nil {
		return nil, mapError(err)
	}
	return &rec, nil
}

func (r *healthRecordRepository) List(ctx context.Context, f *model.RecordFilter) ([]*model.HealthRecord, int, error) {
	b := &builder{}
	if f.PatientID != nil {
		b.add("patient_id = ?", *f.PatientID)
	}
	if f.DoctorID != nil {
		b.add("doctor_id = ?", *f.DoctorID)
	}
	if f.Type != nil {
		b.add("type = ?", *f.Type)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM health_records`+b.where(), b.args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count health records: %w", err)
	}

	query := `SELECT ` + recordColumns + ` FROM health_records` + b.where() +
		` ORDER BY date DESC, created_at DESC` +
		` LIMIT ` + b.next(f.Limit) + ` OFFSET ` + b.next(f.Offset)

	out := []*model.HealthRecord{}
	if err := r.db.SelectContext(ctx, &out, query, b.args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list health records: %w", err)
	}
	return out, total, nil
}

func (r *healthRecordRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM health_records WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	return expectOne(res)
}
