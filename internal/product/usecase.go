package product

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-eyewear-service/internal/model"
	"github.com/fekuna/omnipos-eyewear-service/internal/product/dto"
	"github.com/fekuna/omnipos-eyewear-service/internal/variant"
	"github.com/fekuna/omnipos-eyewear-service/pkg/search"
)

type UseCase interface {
	CreateProduct(ctx context.Context, input *dto.CreateProductInput) (*dto.SaveResult, error)
	GetProduct(ctx context.Context, vendorID, id string) (*model.Product, error)
	ListProducts(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error)
	UpdateProduct(ctx context.Context, input *dto.UpdateProductInput) (*dto.SaveResult, error)
	DeleteProduct(ctx context.Context, vendorID, id string) error

	// Draft ops never touch storage except EditDraft, which loads a product.
	NewDraft(category model.Category, lensType model.LensType) (variant.Draft, error)
	ApplyActions(draft variant.Draft, actions ...variant.Action) (variant.Draft, error)
	ValidateDraft(ctx context.Context, vendorID string, draft variant.Draft) (*dto.SaveResult, error)
	EditDraft(ctx context.Context, vendorID, id string) (variant.Draft, int64, error)
}

// ValueChecker reports tag values the vendor's value registry does not know.
type ValueChecker interface {
	UnknownValues(ctx context.Context, vendorID string, valueType model.ValueType, values []string) ([]string, error)
}

// Cache is the subset of the redis client the catalog needs.
type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type SearchIndex interface {
	CreateIndex(ctx context.Context, index, mapping string) error
	Index(ctx context.Context, index, id string, doc any) error
	Search(ctx context.Context, index string, query map[string]interface{}) (*search.SearchResponse, error)
	Delete(ctx context.Context, index, id string) error
}
