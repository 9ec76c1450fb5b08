// Package variant edits the ordered variant collection of a product that is
// still a draft. Every operation takes a Draft and returns a new one; the
// input is never modified.
package variant

import (
	"github.com/fekuna/omnipos-eyewear-service/internal/model"
)

// Draft is an unsaved product owned by one editing session. Fields holds
// product-level values keyed by payload name, productCode and brand_name
// included.
type Draft struct {
	Category model.Category   `json:"category"`
	LensType model.LensType   `json:"lens_type,omitempty"`
	Fields   model.Attributes `json:"fields"`
	Variants []model.Variant  `json:"variants"`
}

// Find returns the position of the variant with the given id.
func (d Draft) Find(id string) (int, bool) {
	for i := range d.Variants {
		if d.Variants[i].ID == id {
			return i, true
		}
	}
	return -1, false
}

// IDs lists variant ids in collection order.
func (d Draft) IDs() []string {
	ids := make([]string, len(d.Variants))
	for i := range d.Variants {
		ids[i] = d.Variants[i].ID
	}
	return ids
}

// Payload renders the draft as the raw product object the validation
// engine and the catalog accept.
func (d Draft) Payload() map[string]any {
	out := make(map[string]any, len(d.Fields)+2)
	for k, v := range d.Fields {
		out[k] = cloneValue(v)
	}
	if d.LensType != "" {
		out[model.KeyLensType] = string(d.LensType)
	}

	variants := make([]any, len(d.Variants))
	for i, v := range d.Variants {
		variants[i] = variantPayload(v)
	}
	out[model.KeyVariants] = variants
	return out
}

func variantPayload(v model.Variant) map[string]any {
	out := make(map[string]any, len(v.Attributes)+5)
	for k, val := range v.Attributes {
		out[k] = cloneValue(val)
	}
	if v.ID != "" {
		out[model.KeyID] = v.ID
	}
	out[model.KeyPrice] = map[string]any{
		"base_price": v.Price.BasePrice,
		"mrp":        v.Price.MRP,
		"shipping_price": map[string]any{
			"custom": v.Price.ShippingPrice.Custom,
			"value":  v.Price.ShippingPrice.Value,
		},
		"total_price": v.Price.TotalPrice,
	}
	out[model.KeyStock] = map[string]any{
		"current": v.Stock.Current,
		"minimum": v.Stock.Minimum,
	}
	images := make([]any, len(v.Images))
	for i, img := range v.Images {
		images[i] = map[string]any{"url": img.URL}
	}
	out[model.KeyImages] = images
	if pr := v.PowerRange; pr != nil {
		p := map[string]any{"spherical": rangePayload(pr.Spherical)}
		if pr.Cylindrical != nil {
			p["cylindrical"] = rangePayload(*pr.Cylindrical)
		}
		if pr.Addition != nil {
			p["addition"] = rangePayload(*pr.Addition)
		}
		out[model.KeyPowerRange] = p
	}
	return out
}

func rangePayload(r model.NumericRange) map[string]any {
	return map[string]any{"min": r.Min, "max": r.Max}
}

func cloneDraft(d Draft) Draft {
	out := Draft{
		Category: d.Category,
		LensType: d.LensType,
		Fields:   cloneAttributes(d.Fields),
		Variants: make([]model.Variant, len(d.Variants)),
	}
	for i := range d.Variants {
		out.Variants[i] = cloneVariant(d.Variants[i])
	}
	return out
}

func cloneVariant(v model.Variant) model.Variant {
	out := v
	out.Attributes = cloneAttributes(v.Attributes)
	if v.Images != nil {
		out.Images = make(model.Images, len(v.Images))
		copy(out.Images, v.Images)
	}
	out.PowerRange = clonePowerRange(v.PowerRange)
	return out
}

func clonePowerRange(pr *model.PowerRange) *model.PowerRange {
	if pr == nil {
		return nil
	}
	out := &model.PowerRange{Spherical: pr.Spherical}
	if pr.Cylindrical != nil {
		c := *pr.Cylindrical
		out.Cylindrical = &c
	}
	if pr.Addition != nil {
		a := *pr.Addition
		out.Addition = &a
	}
	return out
}

func cloneAttributes(a model.Attributes) model.Attributes {
	out := make(model.Attributes, len(a))
	for k, v := range a {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case []string:
		out := make([]string, len(t))
		copy(out, t)
		return out
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = cloneValue(t[i])
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = cloneValue(val)
		}
		return out
	default:
		return v
	}
}
