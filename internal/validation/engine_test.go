package validation

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/fekuna/omnipos-eyewear-service/internal/model"
	"github.com/fekuna/omnipos-eyewear-service/internal/schema"
	"github.com/shopspring/decimal"
)

func contactLensDraft(lensType string, variant map[string]any) map[string]any {
	return map[string]any{
		"productCode": "CL-001",
		"brand_name":  "Acuvue",
		"hsn_code":    "90013000",
		"lens_type":   lensType,
		"base_curve":  8.6,
		"diameter":    14.2,
		"variants":    []any{variant},
	}
}

func contactLensVariant(mrp float64, powerRange map[string]any) map[string]any {
	v := map[string]any{
		"disposability": "monthly",
		"pack_size":     6,
		"price": map[string]any{
			"base_price":     500,
			"mrp":            mrp,
			"shipping_price": map[string]any{"custom": false},
		},
		"stock":  map[string]any{"current": 10, "minimum": 2},
		"images": []any{map[string]any{"url": "vendors/v1/cl-001/front.jpg"}},
	}
	if powerRange != nil {
		v["power_range"] = powerRange
	}
	return v
}

func sunglassDraft(variant map[string]any) map[string]any {
	return map[string]any{
		"productCode":    "SG-100",
		"brand_name":     "Ray-Ban",
		"hsn_code":       "90041000",
		"frame_material": []any{"acetate"},
		"frame_shape":    []any{"aviator"},
		"gender":         []any{"unisex"},
		"lens_width":     58,
		"bridge_width":   14,
		"temple_length":  140,
		"variants":       []any{variant},
	}
}

func sunglassVariant() map[string]any {
	return map[string]any{
		"frame_color":  "gold",
		"temple_color": "gold",
		"lens_color":   "green",
		"price": map[string]any{
			"base_price": 4000,
			"mrp":        5000,
		},
		"stock":  map[string]any{"current": 3, "minimum": 1},
		"images": []any{"vendors/v1/sg-100/side.jpg"},
	}
}

func toricRange() map[string]any {
	return map[string]any{
		"spherical":   map[string]any{"min": -6, "max": 0},
		"cylindrical": map[string]any{"min": -2, "max": 0},
	}
}

func violationsOf(t *testing.T, err error) Violations {
	t.Helper()
	var v Violations
	if !errors.As(err, &v) {
		t.Fatalf("error = %v, want Violations", err)
	}
	return v
}

func TestToricContactLensSucceeds(t *testing.T) {
	e := NewEngine(schema.NewRegistry())

	res, err := e.ValidateProduct(model.CategoryContactLens, contactLensDraft("toric", contactLensVariant(650, toricRange())))
	if err != nil {
		t.Fatalf("ValidateProduct() error = %v", err)
	}

	p := res.Product
	if p.LensType != model.LensTypeToric || p.ProductCode != "CL-001" || p.BrandName != "Acuvue" {
		t.Fatalf("unexpected product header: %+v", p)
	}
	if len(p.Variants) != 1 {
		t.Fatalf("variants = %d, want 1", len(p.Variants))
	}
	v := p.Variants[0]
	if !v.Price.TotalPrice.Equal(decimal.NewFromInt(600)) {
		t.Errorf("total_price = %s, want 600", v.Price.TotalPrice)
	}
	if v.PowerRange == nil || v.PowerRange.Cylindrical == nil || v.PowerRange.Cylindrical.Min != -2 {
		t.Errorf("power range not normalized: %+v", v.PowerRange)
	}
	if v.Attributes["disposability"] != "monthly" {
		t.Errorf("variant attributes = %+v", v.Attributes)
	}
}

func TestMarginBreachIsSingleInvariant(t *testing.T) {
	e := NewEngine(nil)

	_, err := e.ValidateProduct(model.CategoryContactLens, contactLensDraft("toric", contactLensVariant(550, toricRange())))
	v := violationsOf(t, err)

	if len(v) != 1 {
		t.Fatalf("violations = %v, want exactly one", v)
	}
	if v[0].Kind != KindInvariant || v[0].Path != "variants[0].price" {
		t.Fatalf("violation = %+v, want invariant on variants[0].price", v[0])
	}
}

func TestMarginNotEnforcedForFrames(t *testing.T) {
	e := NewEngine(nil)
	variant := sunglassVariant()
	variant["price"] = map[string]any{"base_price": 1000, "mrp": 1000}

	if _, err := e.ValidateProduct(model.CategorySunglass, sunglassDraft(variant)); err != nil {
		t.Fatalf("sunglass should not enforce a margin: %v", err)
	}
}

func TestConditionalPowerRange(t *testing.T) {
	e := NewEngine(nil)

	tests := []struct {
		name     string
		lensType string
		power    map[string]any
		wantPath string
	}{
		{
			name:     "toric without cylindrical",
			lensType: "toric",
			power:    map[string]any{"spherical": map[string]any{"min": -2, "max": 0}},
			wantPath: "variants[0].power_range.cylindrical",
		},
		{
			name:     "non toric with cylindrical",
			lensType: "non_toric",
			power:    toricRange(),
			wantPath: "variants[0].power_range.cylindrical",
		},
		{
			name:     "multi focal without addition",
			lensType: "multi_focal",
			power:    map[string]any{"spherical": map[string]any{"min": -2, "max": 0}},
			wantPath: "variants[0].power_range.addition",
		},
		{
			name:     "power range missing entirely",
			lensType: "non_toric",
			power:    nil,
			wantPath: "variants[0].power_range",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.ValidateProduct(model.CategoryContactLens, contactLensDraft(tt.lensType, contactLensVariant(650, tt.power)))
			v := violationsOf(t, err)
			if !v.Has(KindConditionalField, tt.wantPath) {
				t.Fatalf("violations = %v, want conditional field error at %s", v, tt.wantPath)
			}
		})
	}
}

func TestZeroPowerColorLensForbidsPowerRange(t *testing.T) {
	e := NewEngine(nil)
	variant := contactLensVariant(650, map[string]any{"spherical": map[string]any{"min": 0, "max": 0}})
	variant["color"] = "hazel"
	draft := contactLensDraft("zero_power", variant)

	_, err := e.ValidateProduct(model.CategoryColorContactLens, draft)
	v := violationsOf(t, err)
	if !v.Has(KindConditionalField, "variants[0].power_range") {
		t.Fatalf("violations = %v", v)
	}
}

func TestSunglassWithPowerRangeFails(t *testing.T) {
	e := NewEngine(nil)
	variant := sunglassVariant()
	variant["power_range"] = map[string]any{"spherical": map[string]any{"min": -1, "max": 0}}

	_, err := e.ValidateProduct(model.CategorySunglass, sunglassDraft(variant))
	v := violationsOf(t, err)
	if len(v) != 1 || !v.Has(KindConditionalField, "variants[0].power_range") {
		t.Fatalf("violations = %v, want single conditional field error", v)
	}
}

func TestProductLevelPowerRangeFails(t *testing.T) {
	e := NewEngine(nil)
	pr := map[string]any{"spherical": map[string]any{"min": -1, "max": 1}}

	sunglass := sunglassDraft(sunglassVariant())
	sunglass["power_range"] = pr
	_, err := e.ValidateProduct(model.CategorySunglass, sunglass)
	v := violationsOf(t, err)
	if len(v) != 1 || !v.Has(KindConditionalField, "power_range") {
		t.Fatalf("sunglass: violations = %v, want single conditional field error", v)
	}

	lens := contactLensDraft("toric", contactLensVariant(650, toricRange()))
	lens["power_range"] = pr
	_, err = e.ValidateProduct(model.CategoryContactLens, lens)
	if v := violationsOf(t, err); !v.Has(KindConditionalField, "power_range") {
		t.Fatalf("contact lens: violations = %v", v)
	}
}

func TestLensTypeOnNonLensCategory(t *testing.T) {
	e := NewEngine(nil)
	draft := sunglassDraft(sunglassVariant())
	draft["lens_type"] = "toric"

	_, err := e.ValidateProduct(model.CategorySunglass, draft)
	v := violationsOf(t, err)
	if !v.Has(KindConditionalField, "lens_type") {
		t.Fatalf("violations = %v", v)
	}
}

func TestZeroVariantsShortCircuits(t *testing.T) {
	e := NewEngine(nil)

	drafts := []map[string]any{
		{"variants": []any{}},
		{},
		// everything else is wrong too, but only the invariant is reported
		{"productCode": 12, "lens_type": "bogus", "variants": []any{}},
	}

	for _, d := range drafts {
		_, err := e.ValidateProduct(model.CategoryContactLens, d)
		v := violationsOf(t, err)
		if len(v) != 1 || v[0].Kind != KindInvariant || v[0].Path != "variants" {
			t.Fatalf("violations = %v, want single variants invariant", v)
		}
	}
}

func TestRangeErrors(t *testing.T) {
	e := NewEngine(nil)
	power := map[string]any{
		"spherical":   map[string]any{"min": 2, "max": -2},
		"cylindrical": map[string]any{"min": -2, "max": 1},
	}

	_, err := e.ValidateProduct(model.CategoryContactLens, contactLensDraft("toric", contactLensVariant(650, power)))
	v := violationsOf(t, err)

	if !v.Has(KindRange, "variants[0].power_range.spherical") {
		t.Errorf("missing spherical range error: %v", v)
	}
	if !v.Has(KindRange, "variants[0].power_range.cylindrical") {
		t.Errorf("missing cylindrical range error: %v", v)
	}
}

func TestErrorsAccumulate(t *testing.T) {
	e := NewEngine(nil)
	variant := sunglassVariant()
	delete(variant, "frame_color")
	variant["images"] = []any{}
	variant["stock"] = map[string]any{"current": -1, "minimum": 0}
	draft := sunglassDraft(variant)
	delete(draft, "brand_name")
	draft["lens_width"] = "wide"

	_, err := e.ValidateProduct(model.CategorySunglass, draft)
	v := violationsOf(t, err)

	want := []struct {
		kind Kind
		path string
	}{
		{KindStructural, "brand_name"},
		{KindStructural, "lens_width"},
		{KindStructural, "variants[0].frame_color"},
		{KindRange, "variants[0].stock.current"},
		{KindInvariant, "variants[0].images"},
	}
	for _, w := range want {
		if !v.Has(w.kind, w.path) {
			t.Errorf("missing %s at %s in %v", w.kind, w.path, v)
		}
	}
}

func TestStaleTotalIsCorrected(t *testing.T) {
	e := NewEngine(nil)
	variant := contactLensVariant(650, toricRange())
	variant["price"].(map[string]any)["total_price"] = 9999

	res, err := e.ValidateProduct(model.CategoryContactLens, contactLensDraft("toric", variant))
	if err != nil {
		t.Fatalf("ValidateProduct() error = %v", err)
	}
	if !res.Product.Variants[0].Price.TotalPrice.Equal(decimal.NewFromInt(600)) {
		t.Fatalf("total not corrected: %s", res.Product.Variants[0].Price.TotalPrice)
	}
	if !res.Corrections.Has(KindDerivedFieldMismatch, "variants[0].price.total_price") {
		t.Fatalf("corrections = %v", res.Corrections)
	}
}

func TestCustomShippingRequiresValue(t *testing.T) {
	e := NewEngine(nil)
	variant := sunglassVariant()
	variant["price"] = map[string]any{
		"base_price":     4000,
		"mrp":            5000,
		"shipping_price": map[string]any{"custom": true},
	}

	_, err := e.ValidateProduct(model.CategorySunglass, sunglassDraft(variant))
	v := violationsOf(t, err)
	if !v.Has(KindStructural, "variants[0].price.shipping_price.value") {
		t.Fatalf("violations = %v", v)
	}
}

func TestImagesMustBeStoragePaths(t *testing.T) {
	e := NewEngine(nil)
	variant := sunglassVariant()
	variant["images"] = []any{map[string]any{"url": "https://cdn.example.com/signed?sig=abc"}}

	_, err := e.ValidateProduct(model.CategorySunglass, sunglassDraft(variant))
	v := violationsOf(t, err)
	if !v.Has(KindStructural, "variants[0].images[0].url") {
		t.Fatalf("violations = %v", v)
	}
}

func TestValidateJSONKeepsExactMoney(t *testing.T) {
	e := NewEngine(nil)
	payload := []byte(`{
		"productCode": "SG-100", "brand_name": "Ray-Ban", "hsn_code": "90041000",
		"frame_material": ["acetate"], "frame_shape": ["aviator"], "gender": ["unisex"],
		"lens_width": 58, "bridge_width": 14, "temple_length": 140,
		"variants": [{
			"frame_color": "gold", "temple_color": "gold", "lens_color": "green",
			"price": {"base_price": 1999.99, "mrp": 2499.99, "shipping_price": {"custom": true, "value": 0.01}},
			"stock": {"current": 1, "minimum": 0},
			"images": [{"url": "vendors/v1/sg/1.jpg"}]
		}]
	}`)

	res, err := e.ValidateJSON(model.CategorySunglass, payload)
	if err != nil {
		t.Fatalf("ValidateJSON() error = %v", err)
	}
	if got := res.Product.Variants[0].Price.TotalPrice; !got.Equal(decimal.NewFromInt(2000)) {
		t.Fatalf("total = %s, want 2000", got)
	}
}

func TestMoneyBeyondCents(t *testing.T) {
	e := NewEngine(nil)
	variant := sunglassVariant()
	variant["price"] = map[string]any{
		"base_price":     0.004,
		"mrp":            5000,
		"shipping_price": map[string]any{"custom": true, "value": 0.004},
	}

	_, err := e.ValidateProduct(model.CategorySunglass, sunglassDraft(variant))
	v := violationsOf(t, err)
	for _, p := range []string{"variants[0].price.base_price", "variants[0].price.shipping_price.value"} {
		if !v.Has(KindRange, p) {
			t.Errorf("missing range violation at %s in %v", p, v)
		}
	}

	// trailing zeros are still cents
	variant["price"] = map[string]any{"base_price": json.Number("4000.500"), "mrp": 5000}
	if _, err := e.ValidateProduct(model.CategorySunglass, sunglassDraft(variant)); err != nil {
		t.Fatalf("4000.500: error = %v", err)
	}
}

func TestUnknownCategory(t *testing.T) {
	e := NewEngine(nil)
	_, err := e.ValidateProduct("monocle", map[string]any{"variants": []any{map[string]any{}}})
	v := violationsOf(t, err)
	if !v.Has(KindStructural, "category") {
		t.Fatalf("violations = %v", v)
	}
}

func TestDuplicateVariantIDs(t *testing.T) {
	e := NewEngine(nil)
	a := sunglassVariant()
	a["id"] = "same"
	b := sunglassVariant()
	b["id"] = "same"
	draft := sunglassDraft(a)
	draft["variants"] = []any{a, b}

	_, err := e.ValidateProduct(model.CategorySunglass, draft)
	v := violationsOf(t, err)
	if len(v) != 1 || !v.Has(KindStructural, "variants[1].id") {
		t.Fatalf("violations = %v", v)
	}
}
