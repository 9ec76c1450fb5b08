package dto

import "github.com/fekuna/omnipos-eyewear-service/internal/model"

type ProductFilters struct {
	VendorID  string         `json:"vendor_id"`
	Category  model.Category `json:"category,omitempty"`
	LensType  model.LensType `json:"lens_type,omitempty"`
	BrandName string         `json:"brand_name,omitempty"`
	// SearchQuery matches productCode, brand, model name and description.
	SearchQuery string `json:"q,omitempty"`
	// SortBy is one of brand_name, product_code, created_at, updated_at.
	SortBy    string `json:"sort_by,omitempty"`
	SortOrder string `json:"sort_order,omitempty"`
	Page      int    `json:"page"`
	PageSize  int    `json:"page_size"`
}

// Normalize clamps paging to sane bounds.
func (f *ProductFilters) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize <= 0 {
		f.PageSize = 20
	}
	if f.PageSize > 100 {
		f.PageSize = 100
	}
}
