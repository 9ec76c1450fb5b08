package usecase

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-eyewear-service/internal/model"
	"github.com/fekuna/omnipos-eyewear-service/internal/product"
	"github.com/fekuna/omnipos-eyewear-service/internal/product/dto"
	"github.com/fekuna/omnipos-eyewear-service/internal/schema"
	"github.com/fekuna/omnipos-eyewear-service/internal/validation"
	"github.com/fekuna/omnipos-eyewear-service/internal/variant"
	"github.com/fekuna/omnipos-eyewear-service/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	indexName    = "eyewear_products"
	indexMapping = `{
		"mappings": {
			"properties": {
				"vendor_id": { "type": "keyword" },
				"category": { "type": "keyword" },
				"lens_type": { "type": "keyword" },
				"product_code": { "type": "keyword" },
				"brand_name": { "type": "text" },
				"model_name": { "type": "text" },
				"description": { "type": "text" },
				"min_total_price": { "type": "double" },
				"updated_at": { "type": "date" }
			}
		}
	}`
)

// searchDoc is what goes into the index. Results are loaded back from the
// database by id, so only searchable columns are kept.
type searchDoc struct {
	VendorID      string         `json:"vendor_id"`
	Category      model.Category `json:"category"`
	LensType      model.LensType `json:"lens_type,omitempty"`
	ProductCode   string         `json:"product_code"`
	BrandName     string         `json:"brand_name"`
	ModelName     string         `json:"model_name,omitempty"`
	Description   string         `json:"description,omitempty"`
	MinTotalPrice float64        `json:"min_total_price"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

type productUseCase struct {
	repo     product.Repository
	values   product.ValueChecker
	cache    product.Cache
	es       product.SearchIndex
	engine   *validation.Engine
	editor   *variant.Editor
	cacheTTL time.Duration
	logger   logger.ZapLogger
	now      func() time.Time
	newID    func() string
}

// NewProductUseCase wires the catalog. values and es may be nil.
func NewProductUseCase(
	repo product.Repository,
	values product.ValueChecker,
	cache product.Cache,
	es product.SearchIndex,
	cacheTTL time.Duration,
	log logger.ZapLogger,
) product.UseCase {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &productUseCase{
		repo:     repo,
		values:   values,
		cache:    cache,
		es:       es,
		engine:   validation.NewEngine(schema.Default),
		editor:   variant.NewEditor(schema.Default),
		cacheTTL: cacheTTL,
		logger:   log,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

func (uc *productUseCase) CreateProduct(ctx context.Context, input *dto.CreateProductInput) (*dto.SaveResult, error) {
	if input.VendorID == "" {
		return nil, product.ErrVendorRequired
	}

	res, err := uc.validate(ctx, input.VendorID, input.Category, input.Payload)
	if err != nil {
		return nil, err
	}
	p := res.Product

	unique, err := uc.repo.IsProductCodeUnique(ctx, input.VendorID, p.Category, p.ProductCode, "")
	if err != nil {
		return nil, err
	}
	if !unique {
		return nil, product.ErrProductCodeTaken
	}

	now := uc.now().UTC()
	p.BaseModel = model.BaseModel{ID: uc.newID(), CreatedAt: now, UpdatedAt: now}
	p.VendorID = input.VendorID
	p.Version = 1
	uc.assignVariantIDs(p, nil)

	if err := uc.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	uc.logger.Info("product created",
		zap.String("product_id", p.ID),
		zap.String("vendor_id", p.VendorID),
		zap.String("category", string(p.Category)),
		zap.Int("variants", len(p.Variants)),
	)

	uc.invalidateProductCache(ctx, p.VendorID, "")
	go uc.syncToElastic(context.Background(), p)

	return &dto.SaveResult{Product: p, Corrections: res.Corrections}, nil
}

func (uc *productUseCase) UpdateProduct(ctx context.Context, input *dto.UpdateProductInput) (*dto.SaveResult, error) {
	if input.VendorID == "" {
		return nil, product.ErrVendorRequired
	}

	existing, err := uc.repo.FindByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if existing == nil || existing.VendorID != input.VendorID {
		return nil, product.ErrNotFound
	}
	if existing.Version != input.ExpectedVersion {
		return nil, fmt.Errorf("%w: have version %d, stored %d",
			product.ErrStaleVersion, input.ExpectedVersion, existing.Version)
	}

	// category is fixed at creation
	res, err := uc.validate(ctx, input.VendorID, existing.Category, input.Payload)
	if err != nil {
		return nil, err
	}
	p := res.Product

	if p.ProductCode != existing.ProductCode {
		unique, err := uc.repo.IsProductCodeUnique(ctx, input.VendorID, p.Category, p.ProductCode, existing.ID)
		if err != nil {
			return nil, err
		}
		if !unique {
			return nil, product.ErrProductCodeTaken
		}
	}

	p.BaseModel = model.BaseModel{ID: existing.ID, CreatedAt: existing.CreatedAt, UpdatedAt: uc.now().UTC()}
	p.VendorID = existing.VendorID
	p.Version = existing.Version + 1
	uc.assignVariantIDs(p, existing)

	if err := uc.repo.Update(ctx, p, input.ExpectedVersion); err != nil {
		return nil, err
	}
	uc.logger.Info("product updated",
		zap.String("product_id", p.ID),
		zap.Int64("version", p.Version),
		zap.Int("variants", len(p.Variants)),
	)

	uc.invalidateProductCache(ctx, p.VendorID, p.ID)
	go uc.syncToElastic(context.Background(), p)

	return &dto.SaveResult{Product: p, Corrections: res.Corrections}, nil
}

// GetProduct returns the vendor's product; another vendor's product is
// reported as not found.
func (uc *productUseCase) GetProduct(ctx context.Context, vendorID, id string) (*model.Product, error) {
	if vendorID == "" {
		return nil, product.ErrVendorRequired
	}

	key := product.ItemCacheKey(id)
	var cached model.Product
	if hit, err := uc.cache.GetJSON(ctx, key, &cached); err != nil {
		uc.logger.Warn("product cache read failed", zap.String("key", key), zap.Error(err))
	} else if hit {
		return ownedBy(&cached, vendorID)
	}

	p, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, product.ErrNotFound
	}

	if err := uc.cache.SetJSON(ctx, key, p, uc.cacheTTL); err != nil {
		uc.logger.Warn("product cache write failed", zap.String("key", key), zap.Error(err))
	}
	return ownedBy(p, vendorID)
}

func ownedBy(p *model.Product, vendorID string) (*model.Product, error) {
	if p.VendorID != vendorID {
		return nil, product.ErrNotFound
	}
	return p, nil
}

type listPage struct {
	Products []model.Product `json:"products"`
	Count    int             `json:"count"`
}

// ListProducts pages through one vendor's products. List pages are cached
// under the vendor, so an unscoped listing is refused.
func (uc *productUseCase) ListProducts(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error) {
	if filters.VendorID == "" {
		return nil, 0, product.ErrVendorRequired
	}
	filters.Normalize()

	cacheKey, err := generateCacheKey(filters)
	if err == nil {
		var page listPage
		if hit, err := uc.cache.GetJSON(ctx, cacheKey, &page); err == nil && hit {
			return page.Products, page.Count, nil
		}
	}

	if filters.SearchQuery != "" && uc.es != nil {
		products, count, err := uc.searchElastic(ctx, filters)
		if err == nil {
			return products, count, nil
		}
		uc.logger.Error("ES search failed, falling back to DB", zap.Error(err))
	}

	products, count, err := uc.repo.FindAll(ctx, filters)
	if err != nil {
		return nil, 0, err
	}

	if cacheKey != "" {
		if err := uc.cache.SetJSON(ctx, cacheKey, listPage{Products: products, Count: count}, uc.cacheTTL); err != nil {
			uc.logger.Warn("list cache write failed", zap.Error(err))
		}
	}
	return products, count, nil
}

func (uc *productUseCase) searchElastic(ctx context.Context, f *dto.ProductFilters) ([]model.Product, int, error) {
	must := []map[string]interface{}{
		{
			"query_string": map[string]interface{}{
				"query":  fmt.Sprintf("*%s*", f.SearchQuery),
				"fields": []string{"product_code^3", "brand_name^2", "model_name", "description"},
			},
		},
		{"term": map[string]interface{}{"vendor_id": f.VendorID}},
	}
	if f.Category != "" {
		must = append(must, map[string]interface{}{"term": map[string]interface{}{"category": f.Category}})
	}
	if f.LensType != "" {
		must = append(must, map[string]interface{}{"term": map[string]interface{}{"lens_type": f.LensType}})
	}
	q := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{"must": must},
		},
		"from":    (f.Page - 1) * f.PageSize,
		"size":    f.PageSize,
		"_source": false,
	}

	res, err := uc.es.Search(ctx, indexName, q)
	if err != nil {
		return nil, 0, err
	}
	ids := make([]string, 0, len(res.Hits.Hits))
	for _, hit := range res.Hits.Hits {
		ids = append(ids, hit.ID)
	}
	products, err := uc.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	return products, res.Hits.Total.Value, nil
}

func (uc *productUseCase) DeleteProduct(ctx context.Context, vendorID, id string) error {
	p, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if p == nil {
		return nil // already deleted
	}
	if p.VendorID != vendorID {
		return product.ErrNotFound
	}

	if err := uc.repo.Delete(ctx, id); err != nil {
		return err
	}
	uc.logger.Info("product deleted", zap.String("product_id", id))

	uc.invalidateProductCache(ctx, p.VendorID, id)
	if uc.es != nil {
		go func() {
			if err := uc.es.Delete(context.Background(), indexName, id); err != nil {
				uc.logger.Error("failed to delete product from ES", zap.Error(err))
			}
		}()
	}
	return nil
}

func (uc *productUseCase) NewDraft(category model.Category, lensType model.LensType) (variant.Draft, error) {
	return uc.editor.NewDraft(category, lensType)
}

func (uc *productUseCase) ApplyActions(d variant.Draft, actions ...variant.Action) (variant.Draft, error) {
	for i, a := range actions {
		next, err := uc.editor.Apply(d, a)
		if err != nil {
			return variant.Draft{}, fmt.Errorf("action %d (%s): %w", i, a.Type, err)
		}
		d = next
	}
	return d, nil
}

func (uc *productUseCase) ValidateDraft(ctx context.Context, vendorID string, d variant.Draft) (*dto.SaveResult, error) {
	res, err := uc.validate(ctx, vendorID, d.Category, d.Payload())
	if err != nil {
		return nil, err
	}
	return &dto.SaveResult{Product: res.Product, Corrections: res.Corrections}, nil
}

func (uc *productUseCase) EditDraft(ctx context.Context, vendorID, id string) (variant.Draft, int64, error) {
	p, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return variant.Draft{}, 0, err
	}
	if p == nil || p.VendorID != vendorID {
		return variant.Draft{}, 0, product.ErrNotFound
	}
	return uc.editor.FromProduct(p), p.Version, nil
}

// validate runs the engine and then checks tag values against the vendor's
// value registry. Both failure kinds come back as validation.Violations.
func (uc *productUseCase) validate(ctx context.Context, vendorID string, category model.Category, payload map[string]any) (validation.Result, error) {
	res, err := uc.engine.ValidateProduct(category, payload)
	if err != nil {
		return res, err
	}
	if uc.values == nil {
		return res, nil
	}

	var errs validation.Violations
	p := res.Product
	for _, f := range res.Schema.ProductFields {
		if f.ValueType == "" {
			continue
		}
		val := p.Attributes[f.Name]
		if err := uc.checkValues(ctx, vendorID, f, f.Name, val, &errs); err != nil {
			return res, err
		}
	}
	for i, v := range p.Variants {
		for _, f := range res.Schema.VariantFields {
			if f.ValueType == "" {
				continue
			}
			path := fmt.Sprintf("%s[%d].%s", model.KeyVariants, i, f.Name)
			if err := uc.checkValues(ctx, vendorID, f, path, v.Attributes[f.Name], &errs); err != nil {
				return res, err
			}
		}
	}
	if len(errs) > 0 {
		return res, errs
	}
	return res, nil
}

func (uc *productUseCase) checkValues(ctx context.Context, vendorID string, f schema.Field, path string, val any, errs *validation.Violations) error {
	var values []string
	switch v := val.(type) {
	case string:
		values = []string{v}
	case []string:
		values = v
	default:
		return nil
	}
	unknown, err := uc.values.UnknownValues(ctx, vendorID, f.ValueType, values)
	if err != nil {
		return fmt.Errorf("check %s values: %w", f.ValueType, err)
	}
	for _, u := range unknown {
		errs.Add(validation.KindStructural, path,
			fmt.Sprintf("%q is not a known %s; add it to the value registry first", u, f.ValueType))
	}
	return nil
}

// assignVariantIDs keeps a supplied variant id only when the stored product
// already owns it. Variant ids are global keys, so anything else, including
// ids a draft minted client-side, is replaced with a fresh one.
func (uc *productUseCase) assignVariantIDs(p, existing *model.Product) {
	owned := map[string]bool{}
	if existing != nil {
		for _, v := range existing.Variants {
			owned[v.ID] = true
		}
	}
	for i := range p.Variants {
		if !owned[p.Variants[i].ID] {
			p.Variants[i].ID = uc.newID()
		}
	}
}

func (uc *productUseCase) syncToElastic(ctx context.Context, p *model.Product) {
	if uc.es == nil {
		return
	}
	// lazily, in case the index was never migrated
	_ = uc.es.CreateIndex(ctx, indexName, indexMapping)

	doc := searchDoc{
		VendorID:    p.VendorID,
		Category:    p.Category,
		LensType:    p.LensType,
		ProductCode: p.ProductCode,
		BrandName:   p.BrandName,
		UpdatedAt:   p.UpdatedAt,
	}
	doc.ModelName, _ = p.Attributes["model_name"].(string)
	doc.Description, _ = p.Attributes["description"].(string)
	for i, v := range p.Variants {
		total := v.Price.TotalPrice.InexactFloat64()
		if i == 0 || total < doc.MinTotalPrice {
			doc.MinTotalPrice = total
		}
	}

	if err := uc.es.Index(ctx, indexName, p.ID, doc); err != nil {
		uc.logger.Error("failed to index product", zap.String("product_id", p.ID), zap.Error(err))
	}
}

func generateCacheKey(filters *dto.ProductFilters) (string, error) {
	data, err := json.Marshal(filters)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("products:list:%s:%x", filters.VendorID, md5.Sum(data)), nil
}

// invalidateProductCache drops every list page of the vendor and, when id is
// set, the cached product itself.
func (uc *productUseCase) invalidateProductCache(ctx context.Context, vendorID, id string) {
	if id != "" {
		if err := uc.cache.Delete(ctx, product.ItemCacheKey(id)); err != nil {
			uc.logger.Warn("product cache evict failed", zap.String("product_id", id), zap.Error(err))
		}
	}
	if err := uc.cache.DeleteByPattern(ctx, product.ListCachePattern(vendorID)); err != nil {
		uc.logger.Warn("list cache evict failed", zap.String("vendor_id", vendorID), zap.Error(err))
	}
}
