package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/jevencare/api/internal/model"
)

const medicineSelect = `
	SELECT m.id, m.pharmacy_id, m.name, m.generic_name, m.manufacturer, m.description, m.price, m.stock,
		m.category, m.requires_prescription, m.expiry_date, m.image_url, m.is_available,
		m.created_at, m.updated_at,
		u.name AS user_name, u.phone AS user_phone, u.email AS user_email, u.profile_image AS user_profile_image
	FROM medicines m
	JOIN users u ON u.id = m.pharmacy_id`

type medicineRow struct {
	model.Medicine
	userColumnsRow
}

func (row *medicineRow) medicine() *model.Medicine {
	m := row.Medicine
	m.Pharmacy = row.summary(m.PharmacyID)
	return &m
}

func (r *medicineRepository) Create(ctx context.Context, m *model.Medicine) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO medicines (
			id, pharmacy_id, name, generic_name, manufacturer, description, price, stock, category,
			requires_prescription, expiry_date, image_url, is_available, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		m.ID, m.PharmacyID, m.Name, m.GenericName, m.Manufacturer, m.Description, m.Price, m.Stock, m.Category,
		m.RequiresPrescription, m.ExpiryDate, m.ImageURL, m.IsAvailable, m.CreatedAt, m.UpdatedAt,
	)
	return mapError(err)
}

func (r *medicineRepository) Get(ctx context.Context, id uuid.UUID) (*model.Medicine, error) {
	var row medicineRow
	if err := r.db.GetContext(ctx, &row, medicineSelect+` WHERE m.id = $1`, id); err != nil {
		return nil, mapError(err)
	}
	return row.medicine(), nil
}

func (r *medicineRepository) Update(ctx context.Context, m *model.Medicine) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE medicines
		SET name = $1, generic_name = $2, manufacturer = $3, description = $4, price = $5, stock = $6,
			category = $7, requires_prescription = $8, expiry_date = $9, image_url = $10,
			is_available = $11, updated_at = $12
		WHERE id = $13`,
		m.Name, m.GenericName, m.Manufacturer, m.Description, m.Price, m.Stock,
		m.Category, m.RequiresPrescription, m.ExpiryDate, m.ImageURL,
		m.IsAvailable, m.UpdatedAt, m.ID,
	)
	if err != nil {
		return mapError(err)
	}
	return expectOne(res)
}

func (r *medicineRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM medicines WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	return expectOne(res)
}

func (r *medicineRepository) List(ctx context.Context, f *model.MedicineFilter) ([]*model.Medicine, int, error) {
	b := &builder{}
	b.add("m.is_available = TRUE")
	if f.Search != "" {
		pattern := likePattern(f.Search)
		b.add("(m.name ILIKE ? OR m.generic_name ILIKE ?)", pattern, pattern)
	}
	if f.Category != "" {
		b.add("m.category ILIKE ?", likePattern(f.Category))
	}
	if f.PharmacyID != nil {
		b.add("m.pharmacy_id = ?", *f.PharmacyID)
	}
	if f.MinPrice != nil {
		b.add("m.price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		b.add("m.price <= ?", *f.MaxPrice)
	}
	if f.InStock {
		b.add("m.stock > 0")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM medicines m`+b.where(), b.args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count medicines: %w", err)
	}

	query := medicineSelect + b.where() +
		` ORDER BY m.stock DESC, m.name ASC` +
		` LIMIT ` + b.next(f.Limit) + ` OFFSET ` + b.next(f.Offset)

	var rows []*medicineRow
	if err := r.db.SelectContext(ctx, &rows, query, b.args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list medicines: %w", err)
	}

	out := make([]*model.Medicine, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.medicine())
	}
	return out, total, nil
}

func (r *medicineRepository) ListCategories(ctx context.Context) ([]string, error) {
	out := []string{}
	err := r.db.SelectContext(ctx, &out, `
		SELECT DISTINCT category
		FROM medicines
		WHERE category <> ''
		ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return out, nil
}

func (r *medicineRepository) CountByPharmacies(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]int, error) {
	out := make(map[uuid.UUID]int, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		out[id] = 0
		keys[i] = id.String()
	}

	var rows []struct {
		PharmacyID uuid.UUID `db:"pharmacy_id"`
		Count      int       `db:"count"`
	}
	err := r.db.SelectContext(ctx, &rows, `
		SELECT pharmacy_id, COUNT(*) AS count
		FROM medicines
		WHERE is_available = TRUE AND pharmacy_id = ANY($1::uuid[])
		GROUP BY pharmacy_id`, pq.Array(keys))
	if err != nil {
		return nil, fmt.Errorf("failed to count medicines: %w", err)
	}
	for _, row := range rows {
		out[row.PharmacyID] = row.Count
	}
	return out, nil
}
