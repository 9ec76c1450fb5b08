package model

import "time"

// VariantStock is the stock view of one variant row.
type VariantStock struct {
	VariantID   string    `db:"variant_id" json:"variant_id"`
	ProductID   string    `db:"product_id" json:"product_id"`
	VendorID    string    `db:"vendor_id" json:"vendor_id"`
	ProductCode string    `db:"product_code" json:"productCode"`
	Current     int       `db:"stock_current" json:"current"`
	Minimum     int       `db:"stock_minimum" json:"minimum"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

type StockMovement struct {
	ID             string    `db:"id" json:"id"`
	VendorID       string    `db:"vendor_id" json:"vendor_id"`
	ProductID      string    `db:"product_id" json:"product_id"`
	VariantID      string    `db:"variant_id" json:"variant_id"`
	MovementType   string    `db:"movement_type" json:"movement_type"`
	QuantityChange int       `db:"quantity_change" json:"quantity_change"`
	QuantityBefore int       `db:"quantity_before" json:"quantity_before"`
	QuantityAfter  int       `db:"quantity_after" json:"quantity_after"`
	ReferenceType  *string   `db:"reference_type" json:"reference_type,omitempty"`
	ReferenceID    *string   `db:"reference_id" json:"reference_id,omitempty"`
	Notes          string    `db:"notes" json:"notes"`
	CreatedBy      *string   `db:"created_by" json:"created_by,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}
