package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-eyewear-service/internal/inventory"
	"github.com/fekuna/omnipos-eyewear-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-eyewear-service/internal/model"
	"github.com/fekuna/omnipos-eyewear-service/internal/product"
	"github.com/fekuna/omnipos-eyewear-service/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	lockTTL      = 5 * time.Second
	lockAttempts = 3
)

// Cache is the part of the redis client stock changes need: the per-variant
// lock and eviction of the owning product.
type Cache interface {
	AcquireLock(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type inventoryUseCase struct {
	repo      inventory.Repository
	cache     Cache
	logger    logger.ZapLogger
	retryWait time.Duration
	now       func() time.Time
}

func NewInventoryUseCase(repo inventory.Repository, cache Cache, log logger.ZapLogger) inventory.UseCase {
	return &inventoryUseCase{
		repo:      repo,
		cache:     cache,
		logger:    log,
		retryWait: 100 * time.Millisecond,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (uc *inventoryUseCase) GetStock(ctx context.Context, vendorID, variantID string) (*model.VariantStock, error) {
	stock, err := uc.repo.GetStock(ctx, vendorID, variantID)
	if err != nil {
		return nil, err
	}
	if stock == nil {
		return nil, inventory.ErrStockNotFound
	}
	return stock, nil
}

func (uc *inventoryUseCase) ListLowStock(ctx context.Context, filters *dto.StockFilters) ([]model.VariantStock, int, error) {
	filters.Normalize()
	return uc.repo.FindLowStock(ctx, filters)
}

func (uc *inventoryUseCase) ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.StockMovement, int, error) {
	filters.Normalize()
	return uc.repo.ListMovements(ctx, filters)
}

func lockKey(vendorID, variantID string) string {
	return fmt.Sprintf("lock:stock:%s:%s", vendorID, variantID)
}

func (uc *inventoryUseCase) acquire(ctx context.Context, key, token string) bool {
	for i := 0; i < lockAttempts; i++ {
		ok, err := uc.cache.AcquireLock(ctx, key, token, lockTTL)
		if err != nil {
			uc.logger.Error("failed to acquire stock lock", zap.String("key", key), zap.Error(err))
		}
		if ok {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(uc.retryWait):
		}
	}
	return false
}

// AdjustStock applies a signed change to one variant's stock. The resulting
// level may not go negative.
func (uc *inventoryUseCase) AdjustStock(ctx context.Context, input *dto.AdjustStockInput) (*model.VariantStock, error) {
	if input.QuantityChange == 0 {
		return nil, inventory.ErrZeroQuantity
	}

	key := lockKey(input.VendorID, input.VariantID)
	token := uuid.New().String()
	if !uc.acquire(ctx, key, token) {
		return nil, inventory.ErrLockBusy
	}
	defer func() {
		if err := uc.cache.ReleaseLock(context.WithoutCancel(ctx), key, token); err != nil {
			uc.logger.Warn("failed to release stock lock", zap.String("key", key), zap.Error(err))
		}
	}()

	stock, err := uc.repo.GetStock(ctx, input.VendorID, input.VariantID)
	if err != nil {
		return nil, err
	}
	if stock == nil {
		return nil, inventory.ErrStockNotFound
	}

	// Early answer from the read; the write re-checks against the live row.
	if stock.Current+input.QuantityChange < 0 {
		return nil, fmt.Errorf("%w: variant %s has %d, change %d",
			inventory.ErrInsufficientStock, input.VariantID, stock.Current, input.QuantityChange)
	}

	now := uc.now()
	stock.UpdatedAt = now

	movementType := input.ReferenceType
	if movementType == "" {
		movementType = dto.MovementAdjustment
	}
	movement := &model.StockMovement{
		ID:             uuid.New().String(),
		VendorID:       input.VendorID,
		ProductID:      stock.ProductID,
		VariantID:      stock.VariantID,
		MovementType:   movementType,
		QuantityChange: input.QuantityChange,
		ReferenceType:  optional(input.ReferenceType),
		ReferenceID:    optional(input.ReferenceID),
		Notes:          input.Reason,
		CreatedBy:      optional(input.UserID),
		CreatedAt:      now,
	}

	if err := uc.repo.AdjustStockWithMovement(ctx, stock, movement); err != nil {
		return nil, err
	}

	uc.logger.Info("stock adjusted",
		zap.String("vendor_id", input.VendorID),
		zap.String("variant_id", stock.VariantID),
		zap.Int("before", movement.QuantityBefore),
		zap.Int("after", movement.QuantityAfter),
	)
	uc.evictProduct(ctx, input.VendorID, stock.ProductID)
	return stock, nil
}

func (uc *inventoryUseCase) evictProduct(ctx context.Context, vendorID, productID string) {
	if err := uc.cache.Delete(ctx, product.ItemCacheKey(productID)); err != nil {
		uc.logger.Warn("product cache evict failed", zap.String("product_id", productID), zap.Error(err))
	}
	if err := uc.cache.DeleteByPattern(ctx, product.ListCachePattern(vendorID)); err != nil {
		uc.logger.Warn("list cache evict failed", zap.String("vendor_id", vendorID), zap.Error(err))
	}
}

func optional(s string) *string {
	if s == "" || s == "unknown" {
		return nil
	}
	return &s
}
