package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jevencare/api/internal/model"
)

const userColumns = `id, phone, email, name, role, is_verified, is_active, language,
	address, profile_image, refresh_token, created_at, updated_at`

func (r *userRepository) CreateWithProfile(ctx context.Context, user *model.User, profile model.RoleProfile) error {
	return mapError(withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO users (`+userColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			user.ID, user.Phone, user.Email, user.Name, user.Role, user.IsVerified, user.IsActive,
			user.Language, user.Address, user.ProfileImage, user.RefreshToken, user.CreatedAt, user.UpdatedAt,
		)
		if err != nil {
			return err
		}

		switch p := profile.(type) {
		case nil:
			return nil
		case *model.PatientProfile:
			_, err = tx.ExecContext(ctx, `
				INSERT INTO patient_profiles (id, user_id, blood_group, emergency_contact, medical_history, allergies, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				p.ID, p.UserID, p.BloodGroup, p.EmergencyContact, p.MedicalHistory, nonNil(p.Allergies), p.CreatedAt, p.UpdatedAt,
			)
		case *model.DoctorProfile:
			_, err = tx.ExecContext(ctx, `
				INSERT INTO doctor_profiles (
					id, user_id, specialization, experience, qualifications, languages,
					consultation_fee, available_slots, is_available, rating, total_ratings, created_at, updated_at
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
				p.ID, p.UserID, p.Specialization, p.Experience, nonNil(p.Qualifications), nonNil(p.Languages),
				p.ConsultationFee, p.AvailableSlots, p.IsAvailable, p.Rating, p.TotalRatings, p.CreatedAt, p.UpdatedAt,
			)
		case *model.PharmacyProfile:
			_, err = tx.ExecContext(ctx, `
				INSERT INTO pharmacy_profiles (id, user_id, pharmacy_name, address, latitude, longitude, is_open, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
				p.ID, p.UserID, p.PharmacyName, p.Address, p.Location.Latitude, p.Location.Longitude, p.IsOpen, p.CreatedAt, p.UpdatedAt,
			)
		default:
			return fmt.Errorf("unsupported profile type %T", profile)
		}
		return err
	}))
}

func (r *userRepository) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var u model.User
	err := r.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if err != nil {
		return nil, mapError(err)
	}
	return &u, nil
}

func (r *userRepository) GetByPhone(ctx context.Context, phone string) (*model.User, error) {
	var u model.User
	err := r.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE phone = $1`, phone)
	if err != nil {
		return nil, mapError(err)
	}
	return &u, nil
}

func (r *userRepository) GetSummaries(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.UserSummary, error) {
	out := make(map[uuid.UUID]*model.UserSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}

	var rows []*model.UserSummary
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, name, phone, email, profile_image
		FROM users
		WHERE id = ANY($1::uuid[])`, pq.Array(keys))
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET email = $1, name = $2, language = $3, address = $4, profile_image = $5, updated_at = $6
		WHERE id = $7`,
		user.Email, user.Name, user.Language, user.Address, user.ProfileImage, user.UpdatedAt, user.ID,
	)
	if err != nil {
		return mapError(err)
	}
	return expectOne(res)
}

func (r *userRepository) MarkVerified(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET is_verified = TRUE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	return expectOne(res)
}

func (r *userRepository) SetRefreshToken(ctx context.Context, id uuid.UUID, token *string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET refresh_token = $1 WHERE id = $2`, token, id)
	if err != nil {
		return mapError(err)
	}
	return expectOne(res)
}

func nonNil(a pq.StringArray) pq.StringArray {
	if a == nil {
		return pq.StringArray{}
	}
	return a
}
