package inventory

import (
	"context"

	"github.com/fekuna/omnipos-eyewear-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-eyewear-service/internal/model"
)

type Repository interface {
	// GetStock returns nil, nil when the variant does not belong to the vendor.
	GetStock(ctx context.Context, vendorID, variantID string) (*model.VariantStock, error)
	FindLowStock(ctx context.Context, filters *dto.StockFilters) ([]model.VariantStock, int, error)

	// AdjustStockWithMovement adds movement.QuantityChange to the variant's
	// current level, bumps the product version and logs the movement in one
	// transaction. It fills stock.Current and the movement's before and after
	// from the row it changed, and returns ErrStockNotFound or
	// ErrInsufficientStock when no row could be changed.
	AdjustStockWithMovement(ctx context.Context, stock *model.VariantStock, movement *model.StockMovement) error
	ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.StockMovement, int, error)
}
