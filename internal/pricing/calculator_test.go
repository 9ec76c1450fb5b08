package pricing

import (
	"testing"

	"github.com/fekuna/omnipos-eyewear-service/internal/model"
	"github.com/shopspring/decimal"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestComputeTotal(t *testing.T) {
	tests := []struct {
		name     string
		base     decimal.Decimal
		shipping model.Shipping
		want     decimal.Decimal
	}{
		{
			name:     "default shipping",
			base:     d(500),
			shipping: model.Shipping{Custom: false},
			want:     d(600),
		},
		{
			name:     "default shipping ignores value",
			base:     d(500),
			shipping: model.Shipping{Custom: false, Value: d(40)},
			want:     d(600),
		},
		{
			name:     "custom shipping",
			base:     d(500),
			shipping: model.Shipping{Custom: true, Value: d(40)},
			want:     d(540),
		},
		{
			name:     "free custom shipping",
			base:     d(250),
			shipping: model.Shipping{Custom: true, Value: d(0)},
			want:     d(250),
		},
		{
			name:     "fractional amounts",
			base:     decimal.RequireFromString("199.99"),
			shipping: model.Shipping{Custom: true, Value: decimal.RequireFromString("0.01")},
			want:     d(200),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeTotal(tt.base, tt.shipping)
			if !got.Equal(tt.want) {
				t.Errorf("ComputeTotal() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestComputeTotalIgnoresMRP(t *testing.T) {
	a := Recompute(model.Pricing{BasePrice: d(500), MRP: d(650)})
	b := Recompute(model.Pricing{BasePrice: d(500), MRP: d(9999)})
	if !a.TotalPrice.Equal(b.TotalPrice) {
		t.Fatalf("mrp changed total: %s vs %s", a.TotalPrice, b.TotalPrice)
	}
}

func TestRecomputeIsIdempotent(t *testing.T) {
	p := model.Pricing{
		BasePrice:     d(500),
		MRP:           d(650),
		ShippingPrice: model.Shipping{Custom: true, Value: d(75)},
		TotalPrice:    d(1), // stale
	}

	once := Recompute(p)
	twice := Recompute(once)

	if !once.TotalPrice.Equal(d(575)) {
		t.Fatalf("total = %s, want 575", once.TotalPrice)
	}
	if !once.TotalPrice.Equal(twice.TotalPrice) {
		t.Fatalf("recompute not idempotent: %s then %s", once.TotalPrice, twice.TotalPrice)
	}
}

func TestMeetsMinMargin(t *testing.T) {
	tests := []struct {
		name string
		base int64
		mrp  int64
		want bool
	}{
		{"well above floor", 500, 650, true},
		{"exactly at floor", 500, 600, true},
		{"below floor", 500, 550, false},
		{"mrp under base", 500, 400, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MeetsMinMargin(model.Pricing{BasePrice: d(tt.base), MRP: d(tt.mrp)})
			if got != tt.want {
				t.Errorf("MeetsMinMargin(%d, %d) = %v, want %v", tt.base, tt.mrp, got, tt.want)
			}
		})
	}
}
