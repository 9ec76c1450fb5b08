package inventory

import (
	"context"
	"errors"

	"github.com/fekuna/omnipos-eyewear-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-eyewear-service/internal/model"
)

var (
	ErrStockNotFound     = errors.New("variant not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrLockBusy          = errors.New("stock is being updated, try again")
	ErrZeroQuantity      = errors.New("quantity change must not be zero")
)

type UseCase interface {
	GetStock(ctx context.Context, vendorID, variantID string) (*model.VariantStock, error)
	ListLowStock(ctx context.Context, filters *dto.StockFilters) ([]model.VariantStock, int, error)
	AdjustStock(ctx context.Context, input *dto.AdjustStockInput) (*model.VariantStock, error)
	ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.StockMovement, int, error)
}
