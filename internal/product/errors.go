package product

import "errors"

var (
	ErrNotFound         = errors.New("product not found")
	ErrProductCodeTaken = errors.New("productCode already exists for this vendor and category")
	ErrStaleVersion     = errors.New("product was changed by another session")
	ErrVendorRequired   = errors.New("vendor id is required")
)
