package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fekuna/omnipos-eyewear-service/internal/inventory"
	"github.com/fekuna/omnipos-eyewear-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-eyewear-service/internal/model"
	"github.com/fekuna/omnipos-eyewear-service/internal/product"
	"github.com/fekuna/omnipos-eyewear-service/pkg/logger"
)

type stubRepo struct {
	stock     map[string]model.VariantStock
	movements []model.StockMovement
	// afterRead runs once GetStock has answered, standing in for a product
	// save that commits before the stock write.
	afterRead func(*stubRepo)
}

func (s *stubRepo) GetStock(ctx context.Context, vendorID, variantID string) (*model.VariantStock, error) {
	st, ok := s.stock[variantID]
	if s.afterRead != nil {
		s.afterRead(s)
	}
	if !ok || st.VendorID != vendorID {
		return nil, nil
	}
	return &st, nil
}

func (s *stubRepo) FindLowStock(ctx context.Context, f *dto.StockFilters) ([]model.VariantStock, int, error) {
	var out []model.VariantStock
	for _, st := range s.stock {
		if st.VendorID == f.VendorID && st.Current <= st.Minimum {
			out = append(out, st)
		}
	}
	return out, len(out), nil
}

// AdjustStockWithMovement applies the change to the stored row the way the
// guarded UPDATE does.
func (s *stubRepo) AdjustStockWithMovement(ctx context.Context, st *model.VariantStock, m *model.StockMovement) error {
	row, ok := s.stock[m.VariantID]
	if !ok || row.VendorID != m.VendorID {
		return inventory.ErrStockNotFound
	}
	if row.Current+m.QuantityChange < 0 {
		return inventory.ErrInsufficientStock
	}
	m.QuantityBefore = row.Current
	row.Current += m.QuantityChange
	m.QuantityAfter = row.Current
	s.stock[m.VariantID] = row
	st.Current = row.Current
	s.movements = append(s.movements, *m)
	return nil
}

func (s *stubRepo) ListMovements(ctx context.Context, f *dto.MovementFilters) ([]model.StockMovement, int, error) {
	return s.movements, len(s.movements), nil
}

type stubCache struct {
	locks    map[string]string
	deleted  []string
	patterns []string
}

func (c *stubCache) AcquireLock(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	if _, held := c.locks[key]; held {
		return false, nil
	}
	c.locks[key] = value
	return true, nil
}

func (c *stubCache) ReleaseLock(ctx context.Context, key, value string) error {
	if c.locks[key] == value {
		delete(c.locks, key)
	}
	return nil
}

func (c *stubCache) Delete(ctx context.Context, keys ...string) error {
	c.deleted = append(c.deleted, keys...)
	return nil
}

func (c *stubCache) DeleteByPattern(ctx context.Context, pattern string) error {
	c.patterns = append(c.patterns, pattern)
	return nil
}

func newFixture() (*inventoryUseCase, *stubRepo, *stubCache) {
	repo := &stubRepo{stock: map[string]model.VariantStock{
		"var-1": {VariantID: "var-1", ProductID: "p-1", VendorID: "vendor-1", Current: 5, Minimum: 2},
		"var-2": {VariantID: "var-2", ProductID: "p-1", VendorID: "vendor-1", Current: 1, Minimum: 2},
	}}
	cache := &stubCache{locks: map[string]string{}}
	uc := NewInventoryUseCase(repo, cache, logger.NewNop()).(*inventoryUseCase)
	uc.retryWait = time.Millisecond
	return uc, repo, cache
}

func TestAdjustStock(t *testing.T) {
	uc, repo, cache := newFixture()

	got, err := uc.AdjustStock(context.Background(), &dto.AdjustStockInput{
		VendorID:       "vendor-1",
		VariantID:      "var-1",
		QuantityChange: -3,
		ReferenceID:    "order-9",
		ReferenceType:  dto.MovementSale,
		UserID:         "system",
	})
	if err != nil {
		t.Fatalf("AdjustStock() error = %v", err)
	}
	if got.Current != 2 || repo.stock["var-1"].Current != 2 {
		t.Fatalf("current = %d, stored %d", got.Current, repo.stock["var-1"].Current)
	}

	if len(repo.movements) != 1 {
		t.Fatalf("movements = %d", len(repo.movements))
	}
	m := repo.movements[0]
	if m.QuantityBefore != 5 || m.QuantityAfter != 2 || m.MovementType != dto.MovementSale || *m.ReferenceID != "order-9" {
		t.Fatalf("movement = %+v", m)
	}

	if len(cache.locks) != 0 {
		t.Fatalf("lock not released: %v", cache.locks)
	}
	if len(cache.deleted) != 1 || cache.deleted[0] != product.ItemCacheKey("p-1") {
		t.Fatalf("evicted = %v", cache.deleted)
	}
	if len(cache.patterns) != 1 || cache.patterns[0] != product.ListCachePattern("vendor-1") {
		t.Fatalf("patterns = %v", cache.patterns)
	}
}

func TestAdjustStockRejects(t *testing.T) {
	tests := []struct {
		name string
		in   dto.AdjustStockInput
		want error
	}{
		{"negative result", dto.AdjustStockInput{VendorID: "vendor-1", VariantID: "var-1", QuantityChange: -6}, inventory.ErrInsufficientStock},
		{"zero change", dto.AdjustStockInput{VendorID: "vendor-1", VariantID: "var-1"}, inventory.ErrZeroQuantity},
		{"unknown variant", dto.AdjustStockInput{VendorID: "vendor-1", VariantID: "nope", QuantityChange: 1}, inventory.ErrStockNotFound},
		{"foreign vendor", dto.AdjustStockInput{VendorID: "vendor-2", VariantID: "var-1", QuantityChange: 1}, inventory.ErrStockNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc, repo, cache := newFixture()
			in := tt.in
			if _, err := uc.AdjustStock(context.Background(), &in); !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
			if len(repo.movements) != 0 {
				t.Fatalf("movement written on failure")
			}
			if len(cache.locks) != 0 {
				t.Fatalf("lock not released: %v", cache.locks)
			}
		})
	}
}

func TestAdjustStockAppliesToLiveLevel(t *testing.T) {
	uc, repo, _ := newFixture()
	repo.afterRead = func(r *stubRepo) {
		row := r.stock["var-1"]
		row.Current = 20
		r.stock["var-1"] = row
	}

	got, err := uc.AdjustStock(context.Background(), &dto.AdjustStockInput{VendorID: "vendor-1", VariantID: "var-1", QuantityChange: -1})
	if err != nil {
		t.Fatalf("AdjustStock() error = %v", err)
	}
	if got.Current != 19 || repo.stock["var-1"].Current != 19 {
		t.Fatalf("current = %d, stored %d, want 19", got.Current, repo.stock["var-1"].Current)
	}
	if m := repo.movements[0]; m.QuantityBefore != 20 || m.QuantityAfter != 19 {
		t.Fatalf("movement = %+v", m)
	}
}

func TestAdjustStockVariantRemovedBeforeWrite(t *testing.T) {
	uc, repo, cache := newFixture()
	repo.afterRead = func(r *stubRepo) { delete(r.stock, "var-1") }

	_, err := uc.AdjustStock(context.Background(), &dto.AdjustStockInput{VendorID: "vendor-1", VariantID: "var-1", QuantityChange: -1})
	if !errors.Is(err, inventory.ErrStockNotFound) {
		t.Fatalf("error = %v, want ErrStockNotFound", err)
	}
	if len(repo.movements) != 0 {
		t.Fatalf("movement logged for a missing variant: %+v", repo.movements)
	}
	if len(cache.deleted) != 0 {
		t.Fatalf("evicted = %v", cache.deleted)
	}
}

func TestAdjustStockLockBusy(t *testing.T) {
	uc, repo, cache := newFixture()
	cache.locks[lockKey("vendor-1", "var-1")] = "someone-else"

	_, err := uc.AdjustStock(context.Background(), &dto.AdjustStockInput{VendorID: "vendor-1", VariantID: "var-1", QuantityChange: 1})
	if !errors.Is(err, inventory.ErrLockBusy) {
		t.Fatalf("error = %v, want ErrLockBusy", err)
	}
	if repo.stock["var-1"].Current != 5 {
		t.Fatal("stock changed without the lock")
	}
	if cache.locks[lockKey("vendor-1", "var-1")] != "someone-else" {
		t.Fatal("foreign lock released")
	}
}

func TestListLowStock(t *testing.T) {
	uc, _, _ := newFixture()
	f := &dto.StockFilters{VendorID: "vendor-1"}
	items, total, err := uc.ListLowStock(context.Background(), f)
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 || items[0].VariantID != "var-2" {
		t.Fatalf("low stock = %+v", items)
	}
	if f.Page != 1 || f.PageSize != 20 {
		t.Fatalf("filters not normalized: %+v", f)
	}
}
