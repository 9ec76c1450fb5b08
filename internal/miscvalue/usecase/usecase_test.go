package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/fekuna/omnipos-eyewear-service/internal/miscvalue"
	"github.com/fekuna/omnipos-eyewear-service/internal/miscvalue/dto"
	"github.com/fekuna/omnipos-eyewear-service/internal/model"
	"github.com/fekuna/omnipos-eyewear-service/pkg/logger"
)

type stubRepo struct {
	rows  []model.MiscValue
	reads int
}

func (s *stubRepo) Create(ctx context.Context, v *model.MiscValue) (bool, error) {
	for _, r := range s.rows {
		if r.VendorID == v.VendorID && r.Type == v.Type && strings.EqualFold(r.Value, v.Value) {
			return false, nil
		}
	}
	s.rows = append(s.rows, *v)
	return true, nil
}

func (s *stubRepo) FindByType(ctx context.Context, vendorID string, t model.ValueType) ([]model.MiscValue, error) {
	s.reads++
	var out []model.MiscValue
	for _, r := range s.rows {
		if r.VendorID == vendorID && r.Type == t {
			out = append(out, r)
		}
	}
	return out, nil
}

type memCache map[string][]byte

func (m memCache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	b, ok := m[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (m memCache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	b, err := json.Marshal(value)
	m[key] = b
	return err
}

func (m memCache) Delete(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m, k)
	}
	return nil
}

func newUseCase() (miscvalue.UseCase, *stubRepo) {
	repo := &stubRepo{}
	return NewValueUseCase(repo, memCache{}, time.Minute, logger.NewNop()), repo
}

func TestListValuesMergesDefaults(t *testing.T) {
	uc, repo := newUseCase()
	ctx := context.Background()
	repo.rows = []model.MiscValue{
		{VendorID: "v1", Type: model.ValueTypeStyle, Value: "Semi Rimless"},
		{VendorID: "v1", Type: model.ValueTypeStyle, Value: "RIMLESS"},
		{VendorID: "v2", Type: model.ValueTypeStyle, Value: "browline"},
	}

	got, err := uc.ListValues(ctx, "v1", model.ValueTypeStyle)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"full rim", "half rim", "rimless", "Semi Rimless"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("values = %v, want %v", got, want)
	}

	// served from cache the second time
	if _, err := uc.ListValues(ctx, "v1", model.ValueTypeStyle); err != nil {
		t.Fatal(err)
	}
	if repo.reads != 1 {
		t.Fatalf("repository reads = %d, want 1", repo.reads)
	}
}

func TestAddValue(t *testing.T) {
	uc, repo := newUseCase()
	ctx := context.Background()

	if _, err := uc.ListValues(ctx, "v1", model.ValueTypeShape); err != nil {
		t.Fatal(err)
	}

	res, err := uc.AddValue(ctx, &dto.AddValueInput{VendorID: "v1", Type: model.ValueTypeShape, Value: "  butterfly   wide "})
	if err != nil {
		t.Fatalf("AddValue() error = %v", err)
	}
	if !res.Created || res.Value != "butterfly wide" {
		t.Fatalf("result = %+v", res)
	}

	again, err := uc.AddValue(ctx, &dto.AddValueInput{VendorID: "v1", Type: model.ValueTypeShape, Value: "Butterfly Wide"})
	if err != nil || again.Created {
		t.Fatalf("second add = %+v, %v", again, err)
	}
	builtin, err := uc.AddValue(ctx, &dto.AddValueInput{VendorID: "v1", Type: model.ValueTypeShape, Value: "ROUND"})
	if err != nil || builtin.Created || builtin.Value != "round" {
		t.Fatalf("builtin add = %+v, %v", builtin, err)
	}
	if len(repo.rows) != 1 {
		t.Fatalf("rows = %v", repo.rows)
	}

	values, _ := uc.ListValues(ctx, "v1", model.ValueTypeShape)
	found := false
	for _, v := range values {
		found = found || v == "butterfly wide"
	}
	if !found {
		t.Fatal("added value missing after cache eviction")
	}
}

func TestAddValueRejects(t *testing.T) {
	uc, _ := newUseCase()
	tests := []struct {
		in   dto.AddValueInput
		want error
	}{
		{dto.AddValueInput{Type: "finish", Value: "matte"}, miscvalue.ErrUnknownValueType},
		{dto.AddValueInput{Type: model.ValueTypeColor, Value: "   "}, miscvalue.ErrEmptyValue},
		{dto.AddValueInput{Type: model.ValueTypeColor, Value: strings.Repeat("x", 65)}, miscvalue.ErrValueTooLong},
	}
	for _, tt := range tests {
		in := tt.in
		if _, err := uc.AddValue(context.Background(), &in); !errors.Is(err, tt.want) {
			t.Errorf("AddValue(%+v) error = %v, want %v", tt.in, err, tt.want)
		}
	}
}

func TestUnknownValues(t *testing.T) {
	uc, _ := newUseCase()
	got, err := uc.UnknownValues(context.Background(), "v1", model.ValueTypeColor, []string{"Black", "neon", "gold"})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []string{"neon"}) {
		t.Fatalf("unknown = %v", got)
	}
}
