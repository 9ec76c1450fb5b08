// Package validation turns a raw product payload into a normalized
// model.Product, or the complete list of violations that prevent it.
package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-eyewear-service/internal/model"
	"github.com/fekuna/omnipos-eyewear-service/internal/powerrange"
	"github.com/fekuna/omnipos-eyewear-service/internal/pricing"
	"github.com/fekuna/omnipos-eyewear-service/internal/schema"
	"github.com/shopspring/decimal"
)

const moneyScale = 2

// Result is a successful validation. Corrections lists derived fields the
// engine overwrote, such as a stale total_price.
type Result struct {
	Product     *model.Product
	Schema      schema.Schema
	Corrections Violations
}

// Engine is stateless and performs no I/O.
type Engine struct {
	registry *schema.Registry
}

func NewEngine(registry *schema.Registry) *Engine {
	if registry == nil {
		registry = schema.Default
	}
	return &Engine{registry: registry}
}

// ValidateJSON decodes data keeping numbers exact and validates it.
func (e *Engine) ValidateJSON(category model.Category, data []byte) (Result, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil || raw == nil {
		return Result{}, Violations{{Kind: KindStructural, Path: "", Message: "payload must be a JSON object"}}
	}
	return e.ValidateProduct(category, raw)
}

// ValidateProduct runs every rule for category over raw. On failure the
// returned error is Violations.
func (e *Engine) ValidateProduct(category model.Category, raw map[string]any) (Result, error) {
	// An empty variant list fails on its own, before anything else is looked at.
	variants, ok := asList(raw[model.KeyVariants])
	if raw[model.KeyVariants] != nil && !ok {
		return Result{}, Violations{{Kind: KindStructural, Path: model.KeyVariants, Message: "must be a list"}}
	}
	if len(variants) == 0 {
		return Result{}, Violations{{Kind: KindInvariant, Path: model.KeyVariants, Message: "product must have at least one variant"}}
	}

	var errs Violations

	base, err := e.registry.Base(category)
	if err != nil {
		errs.add(KindStructural, model.KeyCategory, "unknown category %q", category)
		return Result{}, errs
	}

	sch, powerKnown := e.resolveSchema(base, raw, &errs)

	p := &model.Product{
		Category:   category,
		LensType:   sch.LensType,
		Attributes: model.Attributes{},
	}

	for _, f := range sch.ProductFields {
		v, present := checkField(raw, f, f.Name, &errs)
		if !present {
			continue
		}
		switch f.Name {
		case model.KeyProductCode:
			p.ProductCode = v.(string)
		case model.KeyBrandName:
			p.BrandName = v.(string)
		default:
			p.Attributes[f.Name] = v
		}
	}

	// power_range only ever lives on variants
	if rp, ok := raw[model.KeyPowerRange]; ok && rp != nil {
		if sch.Power.Present || base.Discriminator != nil {
			errs.add(KindConditionalField, model.KeyPowerRange, "is set per variant, not on the product")
		} else {
			errs.add(KindConditionalField, model.KeyPowerRange, "is not applicable to category %s", category)
		}
	}

	res := Result{Schema: sch}
	seen := make(map[string]bool, len(variants))
	for i, rv := range variants {
		path := fmt.Sprintf("%s[%d]", model.KeyVariants, i)
		v, ok := e.checkVariant(sch, powerKnown, rv, path, &errs, &res.Corrections)
		if !ok {
			continue
		}
		if v.ID != "" {
			if seen[v.ID] {
				errs.add(KindStructural, path+".id", "duplicate variant id %q", v.ID)
			}
			seen[v.ID] = true
		}
		p.Variants = append(p.Variants, v)
	}

	if len(errs) > 0 {
		return res, errs
	}
	res.Product = p
	return res, nil
}

func (e *Engine) resolveSchema(base schema.Schema, raw map[string]any, errs *Violations) (schema.Schema, bool) {
	rawLens, hasLens := raw[schema.FieldLensType]
	if rawLens == nil {
		hasLens = false
	}

	if base.Discriminator == nil {
		if hasLens {
			errs.add(KindConditionalField, schema.FieldLensType, "is not applicable to category %s", base.Category)
		}
		s, err := e.registry.Get(base.Category, "")
		if err != nil {
			return base, false
		}
		return s, true
	}

	if !hasLens {
		errs.add(KindStructural, schema.FieldLensType, "is required for category %s", base.Category)
		return base, false
	}
	str, ok := rawLens.(string)
	if !ok {
		errs.add(KindStructural, schema.FieldLensType, "must be a string")
		return base, false
	}
	lensType := model.LensType(strings.TrimSpace(str))
	if !base.Discriminator.Accepts(lensType) {
		errs.add(KindStructural, schema.FieldLensType, "must be one of %s", joinLensTypes(base.Discriminator.Values))
		return base, false
	}
	s, err := e.registry.Get(base.Category, lensType)
	if err != nil {
		errs.add(KindStructural, schema.FieldLensType, "%v", err)
		return base, false
	}
	return s, true
}

func (e *Engine) checkVariant(sch schema.Schema, powerKnown bool, rv any, path string, errs *Violations, corrections *Violations) (model.Variant, bool) {
	m, ok := asObject(rv)
	if !ok {
		errs.add(KindStructural, path, "must be an object")
		return model.Variant{}, false
	}

	v := model.Variant{Attributes: model.Attributes{}}
	if rawID, ok := m[model.KeyID]; ok && rawID != nil {
		id, ok := rawID.(string)
		if !ok {
			errs.add(KindStructural, path+".id", "must be a string")
		}
		v.ID = id
	}

	for _, f := range sch.VariantFields {
		val, present := checkField(m, f, path+"."+f.Name, errs)
		if present {
			v.Attributes[f.Name] = val
		}
	}

	if price, ok := checkPrice(m[model.KeyPrice], path+"."+model.KeyPrice, errs, corrections); ok {
		v.Price = price
		if sch.EnforceMargin && !pricing.MeetsMinMargin(price) {
			errs.add(KindInvariant, path+"."+model.KeyPrice,
				"mrp must exceed base_price by at least %s (margin is %s)", pricing.MinMargin, pricing.Margin(price))
		}
	}

	if stock, ok := checkStock(m[model.KeyStock], path+"."+model.KeyStock, errs); ok {
		v.Stock = stock
	}

	v.Images = checkImages(m[model.KeyImages], path+"."+model.KeyImages, errs)

	if powerKnown {
		v.PowerRange = checkPowerRange(sch, m[model.KeyPowerRange], path+"."+model.KeyPowerRange, errs)
	}

	return v, true
}

func checkField(container map[string]any, f schema.Field, path string, errs *Violations) (any, bool) {
	v, ok := container[f.Name]
	if !ok || v == nil {
		if f.Required {
			errs.add(KindStructural, path, "is required")
		}
		return nil, false
	}

	switch f.Kind {
	case schema.KindString:
		s, ok := v.(string)
		if !ok {
			errs.add(KindStructural, path, "must be a string")
			return nil, false
		}
		s = strings.TrimSpace(s)
		if s == "" {
			if f.Required {
				errs.add(KindStructural, path, "is required")
			}
			return nil, false
		}
		return s, true

	case schema.KindNumber:
		n, ok := toFloat(v)
		if !ok {
			errs.add(KindStructural, path, "must be a number")
			return nil, false
		}
		if f.Domain != nil {
			if err := powerrange.ValidateValue(n, *f.Domain); err != nil {
				errs.add(KindRange, path, "%v", err)
				return nil, false
			}
		}
		return n, true

	case schema.KindInteger:
		n, ok := toInt(v)
		if !ok {
			errs.add(KindStructural, path, "must be an integer")
			return nil, false
		}
		if f.Domain != nil {
			if err := powerrange.ValidateValue(float64(n), *f.Domain); err != nil {
				errs.add(KindRange, path, "%v", err)
				return nil, false
			}
		}
		return n, true

	case schema.KindBool:
		b, ok := v.(bool)
		if !ok {
			errs.add(KindStructural, path, "must be a boolean")
			return nil, false
		}
		return b, true

	case schema.KindStringList:
		list, ok := asList(v)
		if !ok {
			errs.add(KindStructural, path, "must be a list of strings")
			return nil, false
		}
		out := make([]string, 0, len(list))
		valid := true
		for i, item := range list {
			s, ok := item.(string)
			if !ok || strings.TrimSpace(s) == "" {
				errs.add(KindStructural, fmt.Sprintf("%s[%d]", path, i), "must be a non-empty string")
				valid = false
				continue
			}
			out = append(out, strings.TrimSpace(s))
		}
		if !valid {
			return nil, false
		}
		if len(out) == 0 {
			if f.Required {
				errs.add(KindStructural, path, "must not be empty")
			}
			return nil, false
		}
		return out, true
	}

	errs.add(KindStructural, path, "has an unsupported type")
	return nil, false
}

func checkMoney(container map[string]any, key, path string, required bool, errs *Violations) (decimal.Decimal, bool) {
	v, ok := container[key]
	if !ok || v == nil {
		if required {
			errs.add(KindStructural, path, "is required")
		}
		return decimal.Zero, false
	}
	d, ok := toDecimal(v)
	if !ok {
		errs.add(KindStructural, path, "must be a number")
		return decimal.Zero, false
	}
	if d.IsNegative() {
		errs.add(KindRange, path, "must not be negative")
		return decimal.Zero, false
	}
	// stored as NUMERIC(12,2); a finer amount would round apart from the total
	if !d.Equal(d.Round(moneyScale)) {
		errs.add(KindRange, path, "must have at most %d decimal places", moneyScale)
		return decimal.Zero, false
	}
	return d, true
}

func checkPrice(raw any, path string, errs *Violations, corrections *Violations) (model.Pricing, bool) {
	if raw == nil {
		errs.add(KindStructural, path, "is required")
		return model.Pricing{}, false
	}
	m, ok := asObject(raw)
	if !ok {
		errs.add(KindStructural, path, "must be an object")
		return model.Pricing{}, false
	}

	var p model.Pricing
	valid := true

	base, ok := checkMoney(m, "base_price", path+".base_price", true, errs)
	valid = valid && ok
	mrp, ok := checkMoney(m, "mrp", path+".mrp", true, errs)
	valid = valid && ok
	p.BasePrice, p.MRP = base, mrp

	if rawShip, ok := m["shipping_price"]; ok && rawShip != nil {
		shipPath := path + ".shipping_price"
		sm, ok := asObject(rawShip)
		if !ok {
			errs.add(KindStructural, shipPath, "must be an object")
			valid = false
		} else {
			if rc, ok := sm["custom"]; ok && rc != nil {
				custom, ok := rc.(bool)
				if !ok {
					errs.add(KindStructural, shipPath+".custom", "must be a boolean")
					valid = false
				}
				p.ShippingPrice.Custom = custom
			}
			value, ok := checkMoney(sm, "value", shipPath+".value", p.ShippingPrice.Custom, errs)
			if p.ShippingPrice.Custom && !ok {
				valid = false
			}
			p.ShippingPrice.Value = value
		}
	}

	if !valid {
		return model.Pricing{}, false
	}

	computed := pricing.Recompute(p)
	if rawTotal, ok := m["total_price"]; ok && rawTotal != nil {
		given, ok := toDecimal(rawTotal)
		if !ok || !given.Equal(computed.TotalPrice) {
			corrections.add(KindDerivedFieldMismatch, path+".total_price",
				"recomputed as %s from base_price and shipping", computed.TotalPrice)
		}
	}
	return computed, true
}

func checkStock(raw any, path string, errs *Violations) (model.Stock, bool) {
	if raw == nil {
		errs.add(KindStructural, path, "is required")
		return model.Stock{}, false
	}
	m, ok := asObject(raw)
	if !ok {
		errs.add(KindStructural, path, "must be an object")
		return model.Stock{}, false
	}

	var s model.Stock
	valid := true
	for _, part := range []struct {
		key string
		dst *int
	}{{"current", &s.Current}, {"minimum", &s.Minimum}} {
		p := path + "." + part.key
		v, ok := m[part.key]
		if !ok || v == nil {
			errs.add(KindStructural, p, "is required")
			valid = false
			continue
		}
		n, ok := toInt(v)
		if !ok {
			errs.add(KindStructural, p, "must be an integer")
			valid = false
			continue
		}
		if n < 0 {
			errs.add(KindRange, p, "must not be negative")
			valid = false
			continue
		}
		*part.dst = n
	}
	return s, valid
}

func checkImages(raw any, path string, errs *Violations) model.Images {
	var list []any
	if raw != nil {
		l, ok := asList(raw)
		if !ok {
			errs.add(KindStructural, path, "must be a list")
			return nil
		}
		list = l
	}
	if len(list) == 0 {
		errs.add(KindInvariant, path, "at least one image is required")
		return nil
	}

	images := make(model.Images, 0, len(list))
	for i, item := range list {
		p := fmt.Sprintf("%s[%d]", path, i)
		var ref string
		switch v := item.(type) {
		case string:
			ref = v
		case map[string]any:
			s, ok := v["url"].(string)
			if !ok {
				errs.add(KindStructural, p+".url", "is required")
				continue
			}
			ref = s
		default:
			errs.add(KindStructural, p, "must be an object with a url")
			continue
		}
		ref = strings.TrimSpace(ref)
		if ref == "" {
			errs.add(KindStructural, p+".url", "is required")
			continue
		}
		if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
			errs.add(KindStructural, p+".url", "must be a storage path, not a URL")
			continue
		}
		images = append(images, model.Image{URL: ref})
	}
	return images
}

func checkPowerRange(sch schema.Schema, raw any, path string, errs *Violations) *model.PowerRange {
	present := raw != nil

	if !sch.Power.Present {
		if present {
			if sch.Discriminator == nil {
				errs.add(KindConditionalField, path, "is not applicable to category %s", sch.Category)
			} else {
				errs.add(KindConditionalField, path, "is not applicable for lens type %s", sch.LensType)
			}
		}
		return nil
	}
	if !present {
		errs.add(KindConditionalField, path, "is required for lens type %s", sch.LensType)
		return nil
	}

	m, ok := asObject(raw)
	if !ok {
		errs.add(KindStructural, path, "must be an object")
		return nil
	}

	pr := &model.PowerRange{}
	if sph, ok := checkPair(m, "spherical", path, powerrange.SphericalDomain, errs); ok {
		pr.Spherical = *sph
	} else if m["spherical"] == nil {
		errs.add(KindStructural, path+".spherical", "is required")
	}

	pr.Cylindrical = checkOptionalPair(m, "cylindrical", path, sch.Power.Cylindrical, model.LensTypeToric,
		powerrange.CylindricalDomain, errs)
	pr.Addition = checkOptionalPair(m, "addition", path, sch.Power.Addition, model.LensTypeMultiFocal,
		powerrange.AdditionDomain, errs)
	return pr
}

func checkOptionalPair(m map[string]any, key, path string, allowed bool, requiredFor model.LensType,
	domain powerrange.Domain, errs *Violations) *model.NumericRange {
	p := path + "." + key
	if m[key] == nil {
		if allowed {
			errs.add(KindConditionalField, p, "is required for lens type %s", requiredFor)
		}
		return nil
	}
	if !allowed {
		errs.add(KindConditionalField, p, "is only allowed for lens type %s", requiredFor)
		return nil
	}
	r, _ := checkPair(m, key, path, domain, errs)
	return r
}

func checkPair(m map[string]any, key, path string, domain powerrange.Domain, errs *Violations) (*model.NumericRange, bool) {
	raw := m[key]
	if raw == nil {
		return nil, false
	}
	p := path + "." + key
	obj, ok := asObject(raw)
	if !ok {
		errs.add(KindStructural, p, "must be an object with min and max")
		return nil, false
	}

	var r model.NumericRange
	valid := true
	for _, part := range []struct {
		key string
		dst *float64
	}{{"min", &r.Min}, {"max", &r.Max}} {
		v, ok := obj[part.key]
		if !ok || v == nil {
			errs.add(KindStructural, p+"."+part.key, "is required")
			valid = false
			continue
		}
		n, ok := toFloat(v)
		if !ok {
			errs.add(KindStructural, p+"."+part.key, "must be a number")
			valid = false
			continue
		}
		*part.dst = n
	}
	if !valid {
		return nil, false
	}
	if err := powerrange.Validate(r.Min, r.Max, domain); err != nil {
		errs.add(KindRange, p, "%v", err)
		return nil, false
	}
	return &r, true
}

func joinLensTypes(values []model.LensType) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}
