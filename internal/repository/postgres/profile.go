package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jevencare/api/internal/model"
)

func (r *patientRepository) GetByUser(ctx context.Context, userID uuid.UUID) (*model.PatientProfile, error) {
	var p model.PatientProfile
	err := r.db.GetContext(ctx, &p, `
		SELECT id, user_id, blood_group, emergency_contact, medical_history, allergies, created_at, updated_at
		FROM patient_profiles
		WHERE user_id = $1`, userID)
	if err != nil {
		return nil, mapError(err)
	}
	return &p, nil
}

const doctorSelect = `
	SELECT d.id, d.user_id, d.specialization, d.experience, d.qualifications, d.languages,
		d.consultation_fee, d.available_slots, d.is_available, d.rating, d.total_ratings,
		d.created_at, d.updated_at,
		u.name AS user_name, u.phone AS user_phone, u.email AS user_email, u.profile_image AS user_profile_image
	FROM doctor_profiles d
	JOIN users u ON u.id = d.user_id`

type userColumnsRow struct {
	UserName         string  `db:"user_name"`
	UserPhone        string  `db:"user_phone"`
	UserEmail        *string `db:"user_email"`
	UserProfileImage *string `db:"user_profile_image"`
}

func (u userColumnsRow) summary(id uuid.UUID) *model.UserSummary {
	return &model.UserSummary{
		ID:           id,
		Name:         u.UserName,
		Phone:        u.UserPhone,
		Email:        u.UserEmail,
		ProfileImage: u.UserProfileImage,
	}
}

type doctorRow struct {
	model.DoctorProfile
	userColumnsRow
}

func (row *doctorRow) profile() *model.DoctorProfile {
	p := row.DoctorProfile
	p.User = row.summary(p.UserID)
	return &p
}

func (r *doctorRepository) Get(ctx context.Context, id uuid.UUID) (*model.DoctorProfile, error) {
	var row doctorRow
	if err := r.db.GetContext(ctx, &row, doctorSelect+` WHERE d.id = $1`, id); err != nil {
		return nil, mapError(err)
	}
	return row.profile(), nil
}

func (r *doctorRepository) GetByUser(ctx context.Context, userID uuid.UUID) (*model.DoctorProfile, error) {
	var row doctorRow
	if err := r.db.GetContext(ctx, &row, doctorSelect+` WHERE d.user_id = $1`, userID); err != nil {
		return nil, mapError(err)
	}
	return row.profile(), nil
}

func (r *doctorRepository) List(ctx context.Context, f *model.DoctorFilter) ([]*model.DoctorProfile, int, error) {
	b := &builder{}
	b.add("d.is_available = TRUE")
	if f.Specialization != "" {
		b.add("d.specialization ILIKE ?", likePattern(f.Specialization))
	}
	if f.Language != "" {
		b.add("? = ANY(d.languages)", f.Language)
	}
	if f.MinFee != nil {
		b.add("d.consultation_fee >= ?", *f.MinFee)
	}
	if f.MaxFee != nil {
		b.add("d.consultation_fee <= ?", *f.MaxFee)
	}
	if f.Search != "" {
		b.add("u.name ILIKE ?", likePattern(f.Search))
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM doctor_profiles d JOIN users u ON u.id = d.user_id` + b.where()
	if err := r.db.GetContext(ctx, &total, countQuery, b.args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count doctors: %w", err)
	}

	query := doctorSelect + b.where() +
		` ORDER BY d.rating DESC, d.total_ratings DESC, d.created_at ASC` +
		` LIMIT ` + b.next(f.Limit) + ` OFFSET ` + b.next(f.Offset)

	var rows []*doctorRow
	if err := r.db.SelectContext(ctx, &rows, query, b.args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list doctors: %w", err)
	}

	out := make([]*model.DoctorProfile, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.profile())
	}
	return out, total, nil
}

func (r *doctorRepository) ListSpecializations(ctx context.Context) ([]string, error) {
	out := []string{}
	err := r.db.SelectContext(ctx, &out, `
		SELECT DISTINCT specialization
		FROM doctor_profiles
		WHERE specialization <> ''
		ORDER BY specialization`)
	if err != nil {
		return nil, fmt.Errorf("failed to list specializations: %w", err)
	}
	return out, nil
}

func (r *doctorRepository) Update(ctx context.Context, p *model.DoctorProfile) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE doctor_profiles
		SET specialization = $1, experience = $2, qualifications = $3, languages = $4,
			consultation_fee = $5, available_slots = $6, is_available = $7, updated_at = $8
		WHERE id = $9`,
		p.Specialization, p.Experience, nonNil(p.Qualifications), nonNil(p.Languages),
		p.ConsultationFee, p.AvailableSlots, p.IsAvailable, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return mapError(err)
	}
	return expectOne(res)
}

const pharmacySelect = `
	SELECT p.id, p.user_id, p.pharmacy_name, p.address,
		p.latitude AS "location.latitude", p.longitude AS "location.longitude",
		p.is_open, p.created_at, p.updated_at,
		u.name AS user_name, u.phone AS user_phone, u.email AS user_email, u.profile_image AS user_profile_image
	FROM pharmacy_profiles p
	JOIN users u ON u.id = p.user_id`

type pharmacyRow struct {
	model.PharmacyProfile
	userColumnsRow
}

func (row *pharmacyRow) profile() *model.PharmacyProfile {
	p := row.PharmacyProfile
	p.User = row.summary(p.UserID)
	return &p
}

func (r *pharmacyRepository) Get(ctx context.Context, id uuid.UUID) (*model.PharmacyProfile, error) {
	var row pharmacyRow
	if err := r.db.GetContext(ctx, &row, pharmacySelect+` WHERE p.id = $1`, id); err != nil {
		return nil, mapError(err)
	}
	return row.profile(), nil
}

func (r *pharmacyRepository) GetByUser(ctx context.Context, userID uuid.UUID) (*model.PharmacyProfile, error) {
	var row pharmacyRow
	if err := r.db.GetContext(ctx, &row, pharmacySelect+` WHERE p.user_id = $1`, userID); err != nil {
		return nil, mapError(err)
	}
	return row.profile(), nil
}

func (r *pharmacyRepository) List(ctx context.Context, f *model.PharmacyFilter) ([]*model.PharmacyProfile, int, error) {
	b := &builder{}
	if f.IsOpen != nil {
		b.add("p.is_open = ?", *f.IsOpen)
	}
	if f.Search != "" {
		b.add("p.pharmacy_name ILIKE ?", likePattern(f.Search))
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM pharmacy_profiles p`+b.where(), b.args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count pharmacies: %w", err)
	}

	query := pharmacySelect + b.where() +
		` ORDER BY p.pharmacy_name ASC, p.created_at ASC` +
		` LIMIT ` + b.next(f.Limit) + ` OFFSET ` + b.next(f.Offset)

	var rows []*pharmacyRow
	if err := r.db.SelectContext(ctx, &rows, query, b.args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list pharmacies: %w", err)
	}

	out := make([]*model.PharmacyProfile, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.profile())
	}
	return out, total, nil
}

func (r *pharmacyRepository) Update(ctx context.Context, p *model.PharmacyProfile) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE pharmacy_profiles
		SET pharmacy_name = $1, address = $2, latitude = $3, longitude = $4, is_open = $5, updated_at = $6
		WHERE id = $7`,
		p.PharmacyName, p.Address, p.Location.Latitude, p.Location.Longitude, p.IsOpen, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return mapError(err)
	}
	return expectOne(res)
}
