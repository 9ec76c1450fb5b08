package dto

import (
	"github.com/fekuna/omnipos-eyewear-service/internal/model"
	"github.com/fekuna/omnipos-eyewear-service/internal/validation"
)

type CreateProductInput struct {
	VendorID string
	Category model.Category
	Payload  map[string]any
}

// UpdateProductInput replaces the whole product. ExpectedVersion is the
// version the editing session started from.
type UpdateProductInput struct {
	ID              string
	VendorID        string
	ExpectedVersion int64
	Payload         map[string]any
}

// SaveResult is a stored or validated product plus the derived fields that
// were corrected on the way.
type SaveResult struct {
	Product     *model.Product        `json:"product"`
	Corrections validation.Violations `json:"corrections,omitempty"`
}
