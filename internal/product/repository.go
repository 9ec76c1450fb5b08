package product

import (
	"context"

	"github.com/fekuna/omnipos-eyewear-service/internal/model"
	"github.com/fekuna/omnipos-eyewear-service/internal/product/dto"
)

type Repository interface {
	// Create stores the product and all of its variants in one transaction.
	Create(ctx context.Context, product *model.Product) error
	FindByID(ctx context.Context, id string) (*model.Product, error)
	FindByIDs(ctx context.Context, ids []string) ([]model.Product, error)
	FindAll(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error)
	// Update replaces the product and its whole variant set. It fails with
	// ErrStaleVersion unless the stored version equals expectedVersion.
	Update(ctx context.Context, product *model.Product, expectedVersion int64) error
	Delete(ctx context.Context, id string) error

	IsProductCodeUnique(ctx context.Context, vendorID string, category model.Category, code, excludeID string) (bool, error)
}
