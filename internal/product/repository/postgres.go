package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-eyewear-service/internal/model"
	"github.com/fekuna/omnipos-eyewear-service/internal/product"
	"github.com/fekuna/omnipos-eyewear-service/internal/product/dto"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// variantRow is one row of product_variants. Prices are NUMERIC columns;
// power_range is NULL for categories without one.
type variantRow struct {
	ID             string           `db:"id"`
	ProductID      string           `db:"product_id"`
	Position       int              `db:"position"`
	Attributes     model.Attributes `db:"attributes"`
	BasePrice      decimal.Decimal  `db:"base_price"`
	MRP            decimal.Decimal  `db:"mrp"`
	ShippingCustom bool             `db:"shipping_custom"`
	ShippingValue  decimal.Decimal  `db:"shipping_value"`
	TotalPrice     decimal.Decimal  `db:"total_price"`
	StockCurrent   int              `db:"stock_current"`
	StockMinimum   int              `db:"stock_minimum"`
	Images         model.Images     `db:"images"`
	PowerRange     []byte           `db:"power_range"`
}

func toRow(productID string, pos int, v model.Variant) (variantRow, error) {
	row := variantRow{
		ID:             v.ID,
		ProductID:      productID,
		Position:       pos,
		Attributes:     v.Attributes,
		BasePrice:      v.Price.BasePrice,
		MRP:            v.Price.MRP,
		ShippingCustom: v.Price.ShippingPrice.Custom,
		ShippingValue:  v.Price.ShippingPrice.Value,
		TotalPrice:     v.Price.TotalPrice,
		StockCurrent:   v.Stock.Current,
		StockMinimum:   v.Stock.Minimum,
		Images:         v.Images,
	}
	if v.PowerRange != nil {
		b, err := json.Marshal(v.PowerRange)
		if err != nil {
			return variantRow{}, err
		}
		row.PowerRange = b
	}
	return row, nil
}

func (r variantRow) toVariant() (model.Variant, error) {
	v := model.Variant{
		ID:         r.ID,
		Attributes: r.Attributes,
		Price: model.Pricing{
			BasePrice:     r.BasePrice,
			MRP:           r.MRP,
			ShippingPrice: model.Shipping{Custom: r.ShippingCustom, Value: r.ShippingValue},
			TotalPrice:    r.TotalPrice,
		},
		Stock:  model.Stock{Current: r.StockCurrent, Minimum: r.StockMinimum},
		Images: r.Images,
	}
	if len(r.PowerRange) > 0 {
		var pr model.PowerRange
		if err := json.Unmarshal(r.PowerRange, &pr); err != nil {
			return model.Variant{}, fmt.Errorf("variant %s power_range: %w", r.ID, err)
		}
		v.PowerRange = &pr
	}
	return v, nil
}

const productColumns = `id, vendor_id, category, product_code, brand_name, lens_type, attributes, version, created_at, updated_at`

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, p *model.Product) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
        INSERT INTO products (` + productColumns + `)
        VALUES (
            :id, :vendor_id, :category, :product_code, :brand_name, :lens_type,
            :attributes, :version, :created_at, :updated_at
        )
    `
	if _, err := tx.NamedExecContext(ctx, query, p); err != nil {
		return err
	}
	if err := insertVariants(ctx, tx, p); err != nil {
		return err
	}
	return tx.Commit()
}

func insertVariants(ctx context.Context, tx *sqlx.Tx, p *model.Product) error {
	query := `
        INSERT INTO product_variants (
            id, product_id, position, attributes, base_price, mrp, shipping_custom,
            shipping_value, total_price, stock_current, stock_minimum, images, power_range
        )
        VALUES (
            :id, :product_id, :position, :attributes, :base_price, :mrp, :shipping_custom,
            :shipping_value, :total_price, :stock_current, :stock_minimum, :images, :power_range
        )
    `
	for i, v := range p.Variants {
		row, err := toRow(p.ID, i, v)
		if err != nil {
			return err
		}
		if _, err := tx.NamedExecContext(ctx, query, row); err != nil {
			return fmt.Errorf("insert variant %s: %w", v.ID, err)
		}
	}
	return nil
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Product, error) {
	var p model.Product
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 LIMIT 1`
	err := r.DB.GetContext(ctx, &p, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	products := []model.Product{p}
	if err := r.loadVariants(ctx, products); err != nil {
		return nil, err
	}
	return &products[0], nil
}

// FindByIDs returns the products that exist, in the order of ids.
func (r *PGRepository) FindByIDs(ctx context.Context, ids []string) ([]model.Product, error) {
	if len(ids) == 0 {
		return []model.Product{}, nil
	}
	query, args, err := sqlx.In(`SELECT `+productColumns+` FROM products WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	var found []model.Product
	if err := r.DB.SelectContext(ctx, &found, r.DB.Rebind(query), args...); err != nil {
		return nil, err
	}
	if err := r.loadVariants(ctx, found); err != nil {
		return nil, err
	}

	byID := make(map[string]model.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	out := make([]model.Product, 0, len(found))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.ProductFilters) ([]model.Product, int, error) {
	var products []model.Product
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.VendorID != "" {
		conditions = append(conditions, "vendor_id = :vendor_id")
		args["vendor_id"] = f.VendorID
	}
	if f.Category != "" {
		conditions = append(conditions, "category = :category")
		args["category"] = f.Category
	}
	if f.LensType != "" {
		conditions = append(conditions, "lens_type = :lens_type")
		args["lens_type"] = f.LensType
	}
	if f.BrandName != "" {
		conditions = append(conditions, "brand_name ILIKE :brand_name")
		args["brand_name"] = f.BrandName
	}
	if f.SearchQuery != "" {
		conditions = append(conditions, `(product_code ILIKE :search OR brand_name ILIKE :search
            OR attributes->>'model_name' ILIKE :search OR attributes->>'description' ILIKE :search)`)
		args["search"] = "%" + f.SearchQuery + "%"
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT count(*) FROM products" + whereClause
	rows, err := r.DB.NamedQueryContext(ctx, countQuery, args)
	if err != nil {
		return nil, 0, err
	}
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			rows.Close()
			return nil, 0, err
		}
	}
	rows.Close()

	orderBy := "created_at DESC"
	if f.SortBy != "" {
		// whitelist, the column name is interpolated
		switch f.SortBy {
		case "brand_name":
			orderBy = "brand_name"
		case "product_code":
			orderBy = "product_code"
		case "updated_at":
			orderBy = "updated_at"
		default:
			orderBy = "created_at"
		}
		if strings.ToLower(f.SortOrder) == "asc" {
			orderBy += " ASC"
		} else {
			orderBy += " DESC"
		}
	}

	query := fmt.Sprintf("SELECT %s FROM products%s ORDER BY %s", productColumns, whereClause, orderBy)
	if f.PageSize > 0 {
		offset := (f.Page - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	if err := nstmt.SelectContext(ctx, &products, args); err != nil {
		return nil, 0, err
	}
	if err := r.loadVariants(ctx, products); err != nil {
		return nil, 0, err
	}
	return products, count, nil
}

// loadVariants fills Variants of every product with one query.
func (r *PGRepository) loadVariants(ctx context.Context, products []model.Product) error {
	if len(products) == 0 {
		return nil
	}
	idx := make(map[string]int, len(products))
	ids := make([]string, len(products))
	for i := range products {
		idx[products[i].ID] = i
		ids[i] = products[i].ID
		products[i].Variants = []model.Variant{}
	}

	query, args, err := sqlx.In(`
        SELECT id, product_id, position, attributes, base_price, mrp, shipping_custom,
               shipping_value, total_price, stock_current, stock_minimum, images, power_range
        FROM product_variants
        WHERE product_id IN (?)
        ORDER BY product_id, position
    `, ids)
	if err != nil {
		return err
	}
	var rows []variantRow
	if err := r.DB.SelectContext(ctx, &rows, r.DB.Rebind(query), args...); err != nil {
		return err
	}
	for _, row := range rows {
		v, err := row.toVariant()
		if err != nil {
			return err
		}
		i := idx[row.ProductID]
		products[i].Variants = append(products[i].Variants, v)
	}
	return nil
}

func (r *PGRepository) Update(ctx context.Context, p *model.Product, expectedVersion int64) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
        UPDATE products
        SET product_code = :product_code,
            brand_name = :brand_name,
            lens_type = :lens_type,
            attributes = :attributes,
            version = :version,
            updated_at = :updated_at
        WHERE id = :id AND vendor_id = :vendor_id AND version = :expected_version
    `
	args := map[string]interface{}{
		"id":               p.ID,
		"vendor_id":        p.VendorID,
		"product_code":     p.ProductCode,
		"brand_name":       p.BrandName,
		"lens_type":        p.LensType,
		"attributes":       p.Attributes,
		"version":          p.Version,
		"updated_at":       p.UpdatedAt,
		"expected_version": expectedVersion,
	}
	res, err := tx.NamedExecContext(ctx, query, args)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return product.ErrStaleVersion
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM product_variants WHERE product_id = $1`, p.ID); err != nil {
		return err
	}
	if err := insertVariants(ctx, tx, p); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *PGRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM product_variants WHERE product_id = $1", id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM products WHERE id = $1", id); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *PGRepository) IsProductCodeUnique(ctx context.Context, vendorID string, category model.Category, code, excludeID string) (bool, error) {
	var count int
	query := `SELECT count(*) FROM products WHERE vendor_id = $1 AND category = $2 AND product_code = $3`
	args := []interface{}{vendorID, category, code}
	if excludeID != "" {
		query += ` AND id != $4`
		args = append(args, excludeID)
	}

	err := r.DB.GetContext(ctx, &count, query, args...)
	if err != nil {
		return false, err
	}
	return count == 0, nil
}
