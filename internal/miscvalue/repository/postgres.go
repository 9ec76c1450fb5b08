package repository

import (
	"context"

	"github.com/fekuna/omnipos-eyewear-service/internal/model"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

// Create relies on the unique index over (vendor_id, value_type, lower(value)).
func (r *PGRepository) Create(ctx context.Context, v *model.MiscValue) (bool, error) {
	query := `
        INSERT INTO misc_values (id, vendor_id, value_type, value, created_at)
        VALUES (:id, :vendor_id, :value_type, :value, :created_at)
        ON CONFLICT DO NOTHING
    `
	res, err := r.DB.NamedExecContext(ctx, query, v)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *PGRepository) FindByType(ctx context.Context, vendorID string, valueType model.ValueType) ([]model.MiscValue, error) {
	var values []model.MiscValue
	query := `
        SELECT id, vendor_id, value_type, value, created_at
        FROM misc_values
        WHERE vendor_id = $1 AND value_type = $2
        ORDER BY value ASC
    `
	if err := r.DB.SelectContext(ctx, &values, query, vendorID, valueType); err != nil {
		return nil, err
	}
	return values, nil
}
