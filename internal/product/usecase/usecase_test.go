package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"path"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fekuna/omnipos-eyewear-service/internal/model"
	"github.com/fekuna/omnipos-eyewear-service/internal/product"
	"github.com/fekuna/omnipos-eyewear-service/internal/product/dto"
	"github.com/fekuna/omnipos-eyewear-service/internal/validation"
	"github.com/fekuna/omnipos-eyewear-service/internal/variant"
	"github.com/fekuna/omnipos-eyewear-service/pkg/logger"
	"github.com/shopspring/decimal"
)

// ===== in-memory collaborators =====

type stubRepo struct {
	mu    sync.Mutex
	items map[string]*model.Product
}

func newStubRepo() *stubRepo {
	return &stubRepo{items: make(map[string]*model.Product)}
}

func copyProduct(p *model.Product) *model.Product {
	cp := *p
	cp.Variants = append([]model.Variant(nil), p.Variants...)
	return &cp
}

func (s *stubRepo) Create(ctx context.Context, p *model.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[p.ID] = copyProduct(p)
	return nil
}

func (s *stubRepo) FindByID(ctx context.Context, id string) (*model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.items[id]
	if !ok {
		return nil, nil
	}
	return copyProduct(p), nil
}

func (s *stubRepo) FindByIDs(ctx context.Context, ids []string) ([]model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Product
	for _, id := range ids {
		if p, ok := s.items[id]; ok {
			out = append(out, *copyProduct(p))
		}
	}
	return out, nil
}

func (s *stubRepo) FindAll(ctx context.Context, f *dto.ProductFilters) ([]model.Product, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Product
	for _, p := range s.items {
		if f.VendorID != "" && p.VendorID != f.VendorID {
			continue
		}
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		out = append(out, *copyProduct(p))
	}
	return out, len(out), nil
}

func (s *stubRepo) Update(ctx context.Context, p *model.Product, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.items[p.ID]
	if !ok || cur.Version != expectedVersion {
		return product.ErrStaleVersion
	}
	s.items[p.ID] = copyProduct(p)
	return nil
}

func (s *stubRepo) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
	return nil
}

func (s *stubRepo) IsProductCodeUnique(ctx context.Context, vendorID string, category model.Category, code, excludeID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.items {
		if p.VendorID == vendorID && p.Category == category && p.ProductCode == code && p.ID != excludeID {
			return false, nil
		}
	}
	return true, nil
}

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string][]byte)}
}

func (m *memCache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (m *memCache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = b
	return nil
}

func (m *memCache) Delete(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *memCache) DeleteByPattern(ctx context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.data {
		if ok, _ := path.Match(pattern, k); ok {
			delete(m.data, k)
		}
	}
	return nil
}

func (m *memCache) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok
}

func (m *memCache) keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.data))
	for k := range m.data {
		out = append(out, k)
	}
	return out
}

type stubValues map[model.ValueType][]string

func (s stubValues) UnknownValues(ctx context.Context, vendorID string, t model.ValueType, values []string) ([]string, error) {
	var unknown []string
	for _, v := range values {
		found := false
		for _, known := range s[t] {
			if known == v {
				found = true
				break
			}
		}
		if !found {
			unknown = append(unknown, v)
		}
	}
	return unknown, nil
}

// ===== fixtures =====

func toricPayload(code string, mrp int) map[string]any {
	return map[string]any{
		"productCode": code,
		"brand_name":  "Acuvue",
		"hsn_code":    "90013000",
		"lens_type":   "toric",
		"base_curve":  8.6,
		"diameter":    14.2,
		"variants": []any{
			map[string]any{
				"disposability": "monthly",
				"pack_size":     6,
				"price": map[string]any{
					"base_price":     500,
					"mrp":            mrp,
					"shipping_price": map[string]any{"custom": false},
				},
				"stock":  map[string]any{"current": 10, "minimum": 2},
				"images": []any{map[string]any{"url": "vendors/v1/cl/front.jpg"}},
				"power_range": map[string]any{
					"spherical":   map[string]any{"min": -6, "max": 0},
					"cylindrical": map[string]any{"min": -2, "max": 0},
				},
			},
		},
	}
}

type fixture struct {
	uc    *productUseCase
	repo  *stubRepo
	cache *memCache
}

func newFixture() fixture {
	repo := newStubRepo()
	cache := newMemCache()
	values := stubValues{model.ValueTypeDisposability: {"daily", "monthly"}}
	uc := NewProductUseCase(repo, values, cache, nil, time.Minute, logger.NewNop()).(*productUseCase)
	uc.now = func() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) }
	return fixture{uc: uc, repo: repo, cache: cache}
}

func (f fixture) create(t *testing.T, code string) *model.Product {
	t.Helper()
	res, err := f.uc.CreateProduct(context.Background(), &dto.CreateProductInput{
		VendorID: "vendor-1",
		Category: model.CategoryContactLens,
		Payload:  toricPayload(code, 650),
	})
	if err != nil {
		t.Fatalf("CreateProduct() error = %v", err)
	}
	return res.Product
}

// ===== tests =====

func TestCreateProduct(t *testing.T) {
	f := newFixture()
	p := f.create(t, "CL-1")

	if p.ID == "" || p.VendorID != "vendor-1" || p.Version != 1 {
		t.Fatalf("product header = %+v", p)
	}
	if p.Variants[0].ID == "" {
		t.Fatal("variant id not assigned")
	}
	if !p.Variants[0].Price.TotalPrice.Equal(decimal.NewFromInt(600)) {
		t.Errorf("total = %s, want 600", p.Variants[0].Price.TotalPrice)
	}
	if stored, _ := f.repo.FindByID(context.Background(), p.ID); stored == nil {
		t.Fatal("product not stored")
	}
}

func TestCreateProductRejects(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(map[string]any)
		wantKind validation.Kind
		wantPath string
	}{
		{
			name: "margin below floor",
			mutate: func(p map[string]any) {
				v := p["variants"].([]any)[0].(map[string]any)
				v["price"].(map[string]any)["mrp"] = 550
			},
			wantKind: validation.KindInvariant,
			wantPath: "variants[0].price",
		},
		{
			name: "value not in registry",
			mutate: func(p map[string]any) {
				p["variants"].([]any)[0].(map[string]any)["disposability"] = "hourly"
			},
			wantKind: validation.KindStructural,
			wantPath: "variants[0].disposability",
		},
		{
			name:     "no variants",
			mutate:   func(p map[string]any) { p["variants"] = []any{} },
			wantKind: validation.KindInvariant,
			wantPath: "variants",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			payload := toricPayload("CL-1", 650)
			tt.mutate(payload)

			_, err := f.uc.CreateProduct(context.Background(), &dto.CreateProductInput{
				VendorID: "vendor-1",
				Category: model.CategoryContactLens,
				Payload:  payload,
			})
			var v validation.Violations
			if !errors.As(err, &v) {
				t.Fatalf("error = %v, want violations", err)
			}
			if !v.Has(tt.wantKind, tt.wantPath) {
				t.Fatalf("violations = %v", v)
			}
			if len(f.repo.items) != 0 {
				t.Fatal("invalid product was stored")
			}
		})
	}
}

func TestCreateProductCodeTaken(t *testing.T) {
	f := newFixture()
	f.create(t, "CL-1")

	_, err := f.uc.CreateProduct(context.Background(), &dto.CreateProductInput{
		VendorID: "vendor-1",
		Category: model.CategoryContactLens,
		Payload:  toricPayload("CL-1", 700),
	})
	if !errors.Is(err, product.ErrProductCodeTaken) {
		t.Fatalf("error = %v, want ErrProductCodeTaken", err)
	}

	// another vendor may reuse the code
	_, err = f.uc.CreateProduct(context.Background(), &dto.CreateProductInput{
		VendorID: "vendor-2",
		Category: model.CategoryContactLens,
		Payload:  toricPayload("CL-1", 700),
	})
	if err != nil {
		t.Fatalf("other vendor: error = %v", err)
	}
}

func TestCreateProductRequiresVendor(t *testing.T) {
	f := newFixture()
	_, err := f.uc.CreateProduct(context.Background(), &dto.CreateProductInput{
		Category: model.CategoryContactLens,
		Payload:  toricPayload("CL-1", 650),
	})
	if !errors.Is(err, product.ErrVendorRequired) {
		t.Fatalf("error = %v", err)
	}
}

func TestUpdateProductVersioning(t *testing.T) {
	f := newFixture()
	p := f.create(t, "CL-1")
	ctx := context.Background()

	if _, err := f.uc.GetProduct(ctx, "vendor-1", p.ID); err != nil {
		t.Fatal(err)
	}
	if !f.cache.has(product.ItemCacheKey(p.ID)) {
		t.Fatal("GetProduct did not populate the cache")
	}

	payload := toricPayload("CL-1", 800)
	payload["variants"].([]any)[0].(map[string]any)["id"] = p.Variants[0].ID

	res, err := f.uc.UpdateProduct(ctx, &dto.UpdateProductInput{
		ID: p.ID, VendorID: "vendor-1", ExpectedVersion: 1, Payload: payload,
	})
	if err != nil {
		t.Fatalf("UpdateProduct() error = %v", err)
	}
	if res.Product.Version != 2 {
		t.Errorf("version = %d, want 2", res.Product.Version)
	}
	if res.Product.Variants[0].ID != p.Variants[0].ID {
		t.Errorf("variant id changed to %s", res.Product.Variants[0].ID)
	}
	if !res.Product.CreatedAt.Equal(p.CreatedAt) {
		t.Errorf("created_at changed")
	}
	if f.cache.has(product.ItemCacheKey(p.ID)) {
		t.Error("cached product not evicted")
	}

	// a second session still holding version 1 loses
	_, err = f.uc.UpdateProduct(ctx, &dto.UpdateProductInput{
		ID: p.ID, VendorID: "vendor-1", ExpectedVersion: 1, Payload: toricPayload("CL-1", 900),
	})
	if !errors.Is(err, product.ErrStaleVersion) {
		t.Fatalf("error = %v, want ErrStaleVersion", err)
	}

	_, err = f.uc.UpdateProduct(ctx, &dto.UpdateProductInput{
		ID: p.ID, VendorID: "vendor-2", ExpectedVersion: 2, Payload: toricPayload("CL-1", 900),
	})
	if !errors.Is(err, product.ErrNotFound) {
		t.Fatalf("foreign vendor: error = %v, want ErrNotFound", err)
	}
}

func TestUpdateProductEnforcesImagesAndMargin(t *testing.T) {
	f := newFixture()
	p := f.create(t, "CL-1")

	payload := toricPayload("CL-1", 550)
	payload["variants"].([]any)[0].(map[string]any)["images"] = []any{}

	_, err := f.uc.UpdateProduct(context.Background(), &dto.UpdateProductInput{
		ID: p.ID, VendorID: "vendor-1", ExpectedVersion: 1, Payload: payload,
	})
	var v validation.Violations
	if !errors.As(err, &v) {
		t.Fatalf("error = %v, want violations", err)
	}
	if !v.Has(validation.KindInvariant, "variants[0].images") || !v.Has(validation.KindInvariant, "variants[0].price") {
		t.Fatalf("violations = %v", v)
	}
}

func TestListProductsCachesAndInvalidates(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.create(t, "CL-1")

	filters := &dto.ProductFilters{VendorID: "vendor-1"}
	products, count, err := f.uc.ListProducts(ctx, filters)
	if err != nil || count != 1 || len(products) != 1 {
		t.Fatalf("ListProducts() = %d, %d, %v", len(products), count, err)
	}
	key, _ := generateCacheKey(filters)
	if !f.cache.has(key) {
		t.Fatal("list page not cached")
	}

	f.create(t, "CL-2")
	if f.cache.has(key) {
		t.Fatal("list page survived a create")
	}
	_, count, _ = f.uc.ListProducts(ctx, &dto.ProductFilters{VendorID: "vendor-1"})
	if count != 2 {
		t.Fatalf("count = %d, want 2", count)
	}
}

func TestReadsRequireOwningVendor(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := f.create(t, "CL-1")

	if _, err := f.uc.GetProduct(ctx, "", p.ID); !errors.Is(err, product.ErrVendorRequired) {
		t.Fatalf("GetProduct() without vendor error = %v", err)
	}
	if _, _, err := f.uc.ListProducts(ctx, &dto.ProductFilters{}); !errors.Is(err, product.ErrVendorRequired) {
		t.Fatalf("ListProducts() without vendor error = %v", err)
	}
	for _, k := range f.cache.keys() {
		if strings.HasPrefix(k, "products:list::") {
			t.Fatalf("unscoped list page cached under %s", k)
		}
	}

	// once from the database, once from the cache
	for i := 0; i < 2; i++ {
		if _, err := f.uc.GetProduct(ctx, "vendor-2", p.ID); !errors.Is(err, product.ErrNotFound) {
			t.Fatalf("foreign GetProduct() #%d error = %v", i, err)
		}
	}
}

func TestVariantIDsAreServerOwned(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	other := f.create(t, "CL-9")
	stolen := other.Variants[0].ID

	payload := toricPayload("CL-1", 650)
	payload["variants"].([]any)[0].(map[string]any)["id"] = stolen
	res, err := f.uc.CreateProduct(ctx, &dto.CreateProductInput{
		VendorID: "vendor-1", Category: model.CategoryContactLens, Payload: payload,
	})
	if err != nil {
		t.Fatalf("CreateProduct() error = %v", err)
	}
	p := res.Product
	if id := p.Variants[0].ID; id == stolen || id == "" {
		t.Fatalf("create kept variant id %q", id)
	}
	own := p.Variants[0].ID

	payload = toricPayload("CL-1", 700)
	first := payload["variants"].([]any)[0].(map[string]any)
	first["id"] = own
	second := toricPayload("CL-1", 700)["variants"].([]any)[0].(map[string]any)
	second["id"] = stolen
	payload["variants"] = []any{first, second}

	res, err = f.uc.UpdateProduct(ctx, &dto.UpdateProductInput{
		ID: p.ID, VendorID: "vendor-1", ExpectedVersion: 1, Payload: payload,
	})
	if err != nil {
		t.Fatalf("UpdateProduct() error = %v", err)
	}
	got := res.Product.Variants
	if got[0].ID != own {
		t.Errorf("owned id changed to %s", got[0].ID)
	}
	if got[1].ID == stolen || got[1].ID == "" {
		t.Errorf("update kept foreign variant id %q", got[1].ID)
	}
}

func TestDeleteProduct(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := f.create(t, "CL-1")

	if err := f.uc.DeleteProduct(ctx, "vendor-2", p.ID); !errors.Is(err, product.ErrNotFound) {
		t.Fatalf("foreign delete error = %v", err)
	}
	if err := f.uc.DeleteProduct(ctx, "vendor-1", p.ID); err != nil {
		t.Fatalf("DeleteProduct() error = %v", err)
	}
	if _, err := f.uc.GetProduct(ctx, "vendor-1", p.ID); !errors.Is(err, product.ErrNotFound) {
		t.Fatalf("GetProduct() after delete error = %v", err)
	}
	if err := f.uc.DeleteProduct(ctx, "vendor-1", p.ID); err != nil {
		t.Fatalf("second delete error = %v", err)
	}
}

func TestDraftRoundTrip(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	d, err := f.uc.NewDraft(model.CategoryContactLens, model.LensTypeNonToric)
	if err != nil {
		t.Fatal(err)
	}
	id := d.Variants[0].ID
	d, err = f.uc.ApplyActions(d,
		variant.Action{Type: variant.ActionSetProductField, Path: "productCode", Value: "CL-7"},
		variant.Action{Type: variant.ActionSetProductField, Path: "brand_name", Value: "Biofinity"},
		variant.Action{Type: variant.ActionSetProductField, Path: "hsn_code", Value: "90013000"},
		variant.Action{Type: variant.ActionSetProductField, Path: "base_curve", Value: 8.6},
		variant.Action{Type: variant.ActionSetProductField, Path: "diameter", Value: 14},
		variant.Action{Type: variant.ActionSetLensType, LensType: model.LensTypeToric},
		variant.Action{Type: variant.ActionUpdateField, VariantID: id, Path: "disposability", Value: "hourly"},
		variant.Action{Type: variant.ActionUpdateField, VariantID: id, Path: "pack_size", Value: 3},
		variant.Action{Type: variant.ActionUpdateField, VariantID: id, Path: variant.PathBasePrice, Value: 500},
		variant.Action{Type: variant.ActionUpdateField, VariantID: id, Path: variant.PathMRP, Value: 650},
		variant.Action{Type: variant.ActionUpdateField, VariantID: id, Path: variant.PathImages, Value: []any{"vendors/v1/x.jpg"}},
	)
	if err != nil {
		t.Fatalf("ApplyActions() error = %v", err)
	}

	_, err = f.uc.ValidateDraft(ctx, "vendor-1", d)
	var v validation.Violations
	if !errors.As(err, &v) || len(v) != 1 || !v.Has(validation.KindStructural, "variants[0].disposability") {
		t.Fatalf("ValidateDraft() error = %v", err)
	}

	d, err = f.uc.ApplyActions(d, variant.Action{Type: variant.ActionUpdateField, VariantID: id, Path: "disposability", Value: "daily"})
	if err != nil {
		t.Fatal(err)
	}
	res, err := f.uc.ValidateDraft(ctx, "vendor-1", d)
	if err != nil {
		t.Fatalf("ValidateDraft() error = %v", err)
	}
	if res.Product.Variants[0].PowerRange.Cylindrical == nil {
		t.Error("retarget to toric did not add cylindrical")
	}
	if len(f.repo.items) != 0 {
		t.Error("validating a draft must not persist it")
	}

	if _, err := f.uc.ApplyActions(d, variant.Action{Type: variant.ActionRemoveVariant, VariantID: "nope"}); !errors.Is(err, variant.ErrVariantNotFound) {
		t.Fatalf("error = %v, want ErrVariantNotFound", err)
	}
}

func TestEditDraftFromSavedProduct(t *testing.T) {
	f := newFixture()
	p := f.create(t, "CL-1")

	d, version, err := f.uc.EditDraft(context.Background(), "vendor-1", p.ID)
	if err != nil {
		t.Fatalf("EditDraft() error = %v", err)
	}
	if version != 1 || d.Fields["productCode"] != "CL-1" || d.IDs()[0] != p.Variants[0].ID {
		t.Fatalf("draft = %+v, version %d", d, version)
	}
}
