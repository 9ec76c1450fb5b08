package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fekuna/omnipos-eyewear-service/internal/miscvalue"
	"github.com/fekuna/omnipos-eyewear-service/internal/miscvalue/dto"
	"github.com/fekuna/omnipos-eyewear-service/internal/model"
	"github.com/fekuna/omnipos-eyewear-service/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxValueLength = 64

// Cache is the part of the redis client the registry uses.
type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type valueUseCase struct {
	repo     miscvalue.Repository
	cache    Cache
	cacheTTL time.Duration
	logger   logger.ZapLogger
}

func NewValueUseCase(repo miscvalue.Repository, cache Cache, cacheTTL time.Duration, log logger.ZapLogger) miscvalue.UseCase {
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}
	return &valueUseCase{
		repo:     repo,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   log,
	}
}

func cacheKey(vendorID string, t model.ValueType) string {
	return fmt.Sprintf("values:%s:%s", vendorID, t)
}

// ListValues merges the built-in defaults with the vendor's additions,
// sorted and without case-insensitive duplicates.
func (uc *valueUseCase) ListValues(ctx context.Context, vendorID string, t model.ValueType) ([]string, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %q", miscvalue.ErrUnknownValueType, t)
	}

	key := cacheKey(vendorID, t)
	var cached []string
	if hit, err := uc.cache.GetJSON(ctx, key, &cached); err != nil {
		uc.logger.Warn("value cache read failed", zap.String("key", key), zap.Error(err))
	} else if hit {
		return cached, nil
	}

	stored, err := uc.repo.FindByType(ctx, vendorID, t)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var out []string
	push := func(v string) {
		k := strings.ToLower(v)
		if seen[k] {
			return
		}
		seen[k] = true
		out = append(out, v)
	}
	for _, v := range miscvalue.Defaults[t] {
		push(v)
	}
	for _, v := range stored {
		push(v.Value)
	}
	sort.Slice(out, func(i, j int) bool { return strings.ToLower(out[i]) < strings.ToLower(out[j]) })

	if err := uc.cache.SetJSON(ctx, key, out, uc.cacheTTL); err != nil {
		uc.logger.Warn("value cache write failed", zap.String("key", key), zap.Error(err))
	}
	return out, nil
}

// AddValue is idempotent: adding a value the vendor already has, in any
// casing, succeeds with Created false.
func (uc *valueUseCase) AddValue(ctx context.Context, input *dto.AddValueInput) (*dto.AddValueResult, error) {
	if !input.Type.Valid() {
		return nil, fmt.Errorf("%w: %q", miscvalue.ErrUnknownValueType, input.Type)
	}
	value := strings.Join(strings.Fields(input.Value), " ")
	if value == "" {
		return nil, miscvalue.ErrEmptyValue
	}
	if utf8.RuneCountInString(value) > maxValueLength {
		return nil, miscvalue.ErrValueTooLong
	}

	for _, d := range miscvalue.Defaults[input.Type] {
		if strings.EqualFold(d, value) {
			return &dto.AddValueResult{Type: input.Type, Value: d}, nil
		}
	}

	created, err := uc.repo.Create(ctx, &model.MiscValue{
		ID:        uuid.New().String(),
		VendorID:  input.VendorID,
		Type:      input.Type,
		Value:     value,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	if created {
		uc.logger.Info("value added",
			zap.String("vendor_id", input.VendorID),
			zap.String("type", string(input.Type)),
			zap.String("value", value),
		)
		if err := uc.cache.Delete(ctx, cacheKey(input.VendorID, input.Type)); err != nil {
			uc.logger.Warn("value cache evict failed", zap.Error(err))
		}
	}
	return &dto.AddValueResult{Type: input.Type, Value: value, Created: created}, nil
}

func (uc *valueUseCase) UnknownValues(ctx context.Context, vendorID string, t model.ValueType, values []string) ([]string, error) {
	known, err := uc.ListValues(ctx, vendorID, t)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(known))
	for _, k := range known {
		set[strings.ToLower(k)] = true
	}

	var unknown []string
	for _, v := range values {
		if !set[strings.ToLower(strings.TrimSpace(v))] {
			unknown = append(unknown, v)
		}
	}
	return unknown, nil
}
