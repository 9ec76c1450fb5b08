package dto

const (
	MovementAdjustment = "adjustment"
	MovementSale       = "sale"
	MovementReturn     = "return"
)

type AdjustStockInput struct {
	VendorID       string
	VariantID      string `json:"variant_id"`
	QuantityChange int    `json:"quantity_change"`
	Reason         string `json:"reason"`
	ReferenceID    string `json:"reference_id"`
	ReferenceType  string `json:"reference_type"` // adjustment, sale, return
	UserID         string
}
