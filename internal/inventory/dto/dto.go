package dto

type StockFilters struct {
	VendorID string
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

type MovementFilters struct {
	VendorID     string
	ProductID    string `json:"product_id"`
	VariantID    string `json:"variant_id"`
	MovementType string `json:"movement_type"`
	Page         int    `json:"page"`
	PageSize     int    `json:"page_size"`
}

func normalize(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	if size > 100 {
		size = 100
	}
	return page, size
}

func (f *StockFilters) Normalize() {
	f.Page, f.PageSize = normalize(f.Page, f.PageSize)
}

func (f *MovementFilters) Normalize() {
	f.Page, f.PageSize = normalize(f.Page, f.PageSize)
}
