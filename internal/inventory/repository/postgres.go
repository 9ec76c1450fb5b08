package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-eyewear-service/internal/inventory"
	"github.com/fekuna/omnipos-eyewear-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-eyewear-service/internal/model"
	"github.com/jmoiron/sqlx"
)

const stockSelect = `
    SELECT v.id AS variant_id, v.product_id, p.vendor_id, p.product_code,
           v.stock_current, v.stock_minimum, p.updated_at
    FROM product_variants v
    JOIN products p ON p.id = v.product_id
`

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) GetStock(ctx context.Context, vendorID, variantID string) (*model.VariantStock, error) {
	var s model.VariantStock
	query := stockSelect + ` WHERE p.vendor_id = $1 AND v.id = $2`
	if err := r.DB.GetContext(ctx, &s, query, vendorID, variantID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *PGRepository) FindLowStock(ctx context.Context, f *dto.StockFilters) ([]model.VariantStock, int, error) {
	where := ` WHERE p.vendor_id = $1 AND v.stock_current <= v.stock_minimum`

	var count int
	countQuery := `SELECT count(*) FROM product_variants v JOIN products p ON p.id = v.product_id` + where
	if err := r.DB.GetContext(ctx, &count, countQuery, f.VendorID); err != nil {
		return nil, 0, err
	}

	query := stockSelect + where + ` ORDER BY v.stock_current ASC, p.product_code ASC`
	args := []any{f.VendorID}
	if f.PageSize > 0 {
		query += ` LIMIT $2 OFFSET $3`
		args = append(args, f.PageSize, (f.Page-1)*f.PageSize)
	}

	items := []model.VariantStock{}
	err := r.DB.SelectContext(ctx, &items, query, args...)
	return items, count, err
}

func (r *PGRepository) AdjustStockWithMovement(ctx context.Context, s *model.VariantStock, m *model.StockMovement) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// The change is applied to the row as it is now, not to the level read
	// before the transaction; a product save may have rewritten it since.
	var row struct {
		Current   int    `db:"stock_current"`
		ProductID string `db:"product_id"`
	}
	err = tx.GetContext(ctx, &row, `
        UPDATE product_variants v
        SET stock_current = v.stock_current + $1
        FROM products p
        WHERE v.id = $2 AND p.id = v.product_id AND p.vendor_id = $3
          AND v.stock_current + $1 >= 0
        RETURNING v.stock_current, v.product_id
    `, m.QuantityChange, m.VariantID, m.VendorID)
	if errors.Is(err, sql.ErrNoRows) {
		return missedAdjustment(ctx, tx, m)
	}
	if err != nil {
		return fmt.Errorf("failed to update stock: %w", err)
	}

	s.Current = row.Current
	s.ProductID = row.ProductID
	m.ProductID = row.ProductID
	m.QuantityAfter = row.Current
	m.QuantityBefore = row.Current - m.QuantityChange

	// Stock is part of the product document, so editors holding the old
	// version must reload.
	if _, err := tx.ExecContext(ctx,
		`UPDATE products SET version = version + 1, updated_at = $1 WHERE id = $2`,
		s.UpdatedAt, row.ProductID,
	); err != nil {
		return fmt.Errorf("failed to bump product version: %w", err)
	}

	insertLogQuery := `
        INSERT INTO stock_movements (
            id, vendor_id, product_id, variant_id,
            movement_type, quantity_change, quantity_before, quantity_after,
            reference_type, reference_id, notes, created_by, created_at
        )
        VALUES (
            :id, :vendor_id, :product_id, :variant_id,
            :movement_type, :quantity_change, :quantity_before, :quantity_after,
            :reference_type, :reference_id, :notes, :created_by, :created_at
        )
    `
	if _, err := tx.NamedExecContext(ctx, insertLogQuery, m); err != nil {
		return fmt.Errorf("failed to log movement: %w", err)
	}

	return tx.Commit()
}

// missedAdjustment tells a vanished variant from a change that would take the
// level below zero.
func missedAdjustment(ctx context.Context, tx *sqlx.Tx, m *model.StockMovement) error {
	var current int
	err := tx.GetContext(ctx, &current, `
        SELECT v.stock_current
        FROM product_variants v
        JOIN products p ON p.id = v.product_id
        WHERE v.id = $1 AND p.vendor_id = $2
    `, m.VariantID, m.VendorID)
	if errors.Is(err, sql.ErrNoRows) {
		return inventory.ErrStockNotFound
	}
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: variant %s has %d, change %d",
		inventory.ErrInsufficientStock, m.VariantID, current, m.QuantityChange)
}

func (r *PGRepository) ListMovements(ctx context.Context, f *dto.MovementFilters) ([]model.StockMovement, int, error) {
	conditions := []string{"vendor_id = :vendor_id"}
	args := map[string]any{"vendor_id": f.VendorID}

	if f.ProductID != "" {
		conditions = append(conditions, "product_id = :product_id")
		args["product_id"] = f.ProductID
	}
	if f.VariantID != "" {
		conditions = append(conditions, "variant_id = :variant_id")
		args["variant_id"] = f.VariantID
	}
	if f.MovementType != "" {
		conditions = append(conditions, "movement_type = :movement_type")
		args["movement_type"] = f.MovementType
	}
	whereClause := " WHERE " + strings.Join(conditions, " AND ")

	var count int
	countStmt, err := r.DB.PrepareNamedContext(ctx, "SELECT count(*) FROM stock_movements"+whereClause)
	if err != nil {
		return nil, 0, err
	}
	defer countStmt.Close()
	if err := countStmt.GetContext(ctx, &count, args); err != nil {
		return nil, 0, err
	}

	query := "SELECT * FROM stock_movements" + whereClause + " ORDER BY created_at DESC"
	if f.PageSize > 0 {
		offset := (f.Page - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	items := []model.StockMovement{}
	err = nstmt.SelectContext(ctx, &items, args)
	return items, count, err
}
