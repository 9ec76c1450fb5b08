package miscvalue

import (
	"context"

	"github.com/fekuna/omnipos-eyewear-service/internal/model"
)

type Repository interface {
	// Create stores v unless the vendor already has the same value for the
	// type, ignoring case. It reports whether a row was added.
	Create(ctx context.Context, v *model.MiscValue) (bool, error)
	FindByType(ctx context.Context, vendorID string, valueType model.ValueType) ([]model.MiscValue, error)
}
