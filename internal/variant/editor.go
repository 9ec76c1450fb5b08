package variant

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-eyewear-service/internal/model"
	"github.com/fekuna/omnipos-eyewear-service/internal/pricing"
	"github.com/fekuna/omnipos-eyewear-service/internal/schema"
	"github.com/google/uuid"
)

var (
	ErrVariantNotFound = errors.New("variant not found")
	ErrUnknownField    = errors.New("unknown field")
	ErrInvalidValue    = errors.New("invalid value")
	ErrDerivedField    = errors.New("field is derived and cannot be set")
)

// Field paths with fixed meaning on every variant. Any other path must name
// a variant field of the active schema.
const (
	PathBasePrice      = "price.base_price"
	PathMRP            = "price.mrp"
	PathShippingCustom = "price.shipping_price.custom"
	PathShippingValue  = "price.shipping_price.value"
	PathTotalPrice     = "price.total_price"
	PathStockCurrent   = "stock.current"
	PathStockMinimum   = "stock.minimum"
	PathImages         = "images"
)

type Editor struct {
	registry *schema.Registry
	newID    func() string
}

func NewEditor(registry *schema.Registry) *Editor {
	if registry == nil {
		registry = schema.Default
	}
	return &Editor{registry: registry, newID: uuid.NewString}
}

// NewDraft starts a product with a single seed variant.
func (e *Editor) NewDraft(category model.Category, lensType model.LensType) (Draft, error) {
	sch, err := e.registry.Get(category, lensType)
	if err != nil {
		return Draft{}, err
	}
	d := Draft{
		Category: category,
		LensType: lensType,
		Fields:   model.Attributes{},
		Variants: []model.Variant{e.seed(sch, nil)},
	}
	return d, nil
}

// FromProduct opens a saved product for editing.
func (e *Editor) FromProduct(p *model.Product) Draft {
	d := Draft{
		Category: p.Category,
		LensType: p.LensType,
		Fields:   cloneAttributes(p.Attributes),
		Variants: make([]model.Variant, len(p.Variants)),
	}
	d.Fields[model.KeyProductCode] = p.ProductCode
	d.Fields[model.KeyBrandName] = p.BrandName
	for i := range p.Variants {
		d.Variants[i] = cloneVariant(p.Variants[i])
		if d.Variants[i].ID == "" {
			d.Variants[i].ID = e.newID()
		}
	}
	return d
}

// AddVariant appends a variant built from template, or from category
// defaults when template is nil, and returns its id.
func (e *Editor) AddVariant(d Draft, template *model.Variant) (Draft, string, error) {
	sch, err := e.schemaFor(d)
	if err != nil {
		return Draft{}, "", err
	}
	out := cloneDraft(d)
	v := e.seed(sch, template)
	out.Variants = append(out.Variants, v)
	return out, v.ID, nil
}

// RemoveVariant drops exactly the variant with id. Removing the last one is
// allowed here; the empty collection fails validation on submit.
func (e *Editor) RemoveVariant(d Draft, id string) (Draft, error) {
	idx, ok := d.Find(id)
	if !ok {
		return Draft{}, fmt.Errorf("%w: %s", ErrVariantNotFound, id)
	}
	out := cloneDraft(d)
	out.Variants = append(out.Variants[:idx], out.Variants[idx+1:]...)
	return out, nil
}

// UpdateVariantField sets one field by dotted path and recomputes the total
// in the same step. A nil value clears an attribute.
func (e *Editor) UpdateVariantField(d Draft, id, path string, value any) (Draft, error) {
	idx, ok := d.Find(id)
	if !ok {
		return Draft{}, fmt.Errorf("%w: %s", ErrVariantNotFound, id)
	}
	sch, err := e.schemaFor(d)
	if err != nil {
		return Draft{}, err
	}

	out := cloneDraft(d)
	v := &out.Variants[idx]
	if err := setVariantField(sch, v, strings.TrimSpace(path), value); err != nil {
		return Draft{}, fmt.Errorf("%s: %w", path, err)
	}
	v.Price = pricing.Recompute(v.Price)
	return out, nil
}

// SetProductField sets a product-level value. Setting lens_type retargets
// every variant.
func (e *Editor) SetProductField(d Draft, name string, value any) (Draft, error) {
	if name == model.KeyLensType {
		s, ok := value.(string)
		if !ok {
			return Draft{}, fmt.Errorf("%s: %w", name, ErrInvalidValue)
		}
		return e.RetargetForDiscriminator(d, model.LensType(s))
	}

	base, err := e.registry.Base(d.Category)
	if err != nil {
		return Draft{}, err
	}
	if _, ok := base.ProductField(name); !ok {
		return Draft{}, fmt.Errorf("%w: %s", ErrUnknownField, name)
	}

	out := cloneDraft(d)
	if value == nil {
		delete(out.Fields, name)
	} else {
		out.Fields[name] = cloneValue(value)
	}
	return out, nil
}

// RetargetForDiscriminator switches the lens type and conforms the power
// range of every variant to the new rule.
func (e *Editor) RetargetForDiscriminator(d Draft, lensType model.LensType) (Draft, error) {
	sch, err := e.registry.Get(d.Category, lensType)
	if err != nil {
		return Draft{}, err
	}
	out := cloneDraft(d)
	out.LensType = lensType
	for i := range out.Variants {
		out.Variants[i].PowerRange = conformPowerRange(sch, out.Variants[i].PowerRange)
	}
	return out, nil
}

func (e *Editor) schemaFor(d Draft) (schema.Schema, error) {
	return e.registry.Get(d.Category, d.LensType)
}

func (e *Editor) seed(sch schema.Schema, template *model.Variant) model.Variant {
	var v model.Variant
	if template != nil {
		v = cloneVariant(*template)
		v.PowerRange = conformPowerRange(sch, v.PowerRange)
	} else {
		v.PowerRange = sch.SeedPowerRange()
	}
	if v.Attributes == nil {
		v.Attributes = model.Attributes{}
	}
	if v.Images == nil {
		v.Images = model.Images{}
	}
	v.ID = e.newID()
	v.Price = pricing.Recompute(v.Price)
	return v
}

// conformPowerRange keeps whatever sub-ranges stay legal and seeds the ones
// the rule now requires.
func conformPowerRange(sch schema.Schema, pr *model.PowerRange) *model.PowerRange {
	if !sch.Power.Present {
		return nil
	}
	seed := sch.SeedPowerRange()
	if pr == nil {
		return seed
	}
	out := clonePowerRange(pr)
	switch {
	case !sch.Power.Cylindrical:
		out.Cylindrical = nil
	case out.Cylindrical == nil:
		out.Cylindrical = seed.Cylindrical
	}
	switch {
	case !sch.Power.Addition:
		out.Addition = nil
	case out.Addition == nil:
		out.Addition = seed.Addition
	}
	return out
}

func setVariantField(sch schema.Schema, v *model.Variant, path string, value any) error {
	var err error
	switch path {
	case PathTotalPrice:
		return ErrDerivedField
	case model.KeyID:
		return ErrUnknownField
	case PathBasePrice:
		v.Price.BasePrice, err = parseMoney(value)
	case PathMRP:
		v.Price.MRP, err = parseMoney(value)
	case PathShippingCustom:
		v.Price.ShippingPrice.Custom, err = parseBool(value)
	case PathShippingValue:
		v.Price.ShippingPrice.Value, err = parseMoney(value)
	case PathStockCurrent:
		v.Stock.Current, err = parseInt(value)
	case PathStockMinimum:
		v.Stock.Minimum, err = parseInt(value)
	case PathImages:
		v.Images, err = parseImages(value)
	default:
		if strings.HasPrefix(path, model.KeyPowerRange+".") {
			return setPowerField(sch, v, strings.TrimPrefix(path, model.KeyPowerRange+"."), value)
		}
		if _, ok := sch.VariantField(path); !ok {
			return ErrUnknownField
		}
		if value == nil {
			delete(v.Attributes, path)
		} else {
			v.Attributes[path] = cloneValue(value)
		}
	}
	if err != nil && !errors.Is(err, ErrInvalidValue) {
		err = fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	return err
}

func setPowerField(sch schema.Schema, v *model.Variant, path string, value any) error {
	parts := strings.Split(path, ".")
	if len(parts) != 2 || (parts[1] != "min" && parts[1] != "max") {
		return ErrUnknownField
	}
	if !sch.Power.Present {
		return ErrUnknownField
	}
	if v.PowerRange == nil {
		v.PowerRange = sch.SeedPowerRange()
	}

	var target *model.NumericRange
	switch parts[0] {
	case "spherical":
		target = &v.PowerRange.Spherical
	case "cylindrical":
		if !sch.Power.Cylindrical {
			return ErrUnknownField
		}
		if v.PowerRange.Cylindrical == nil {
			v.PowerRange.Cylindrical = &model.NumericRange{}
		}
		target = v.PowerRange.Cylindrical
	case "addition":
		if !sch.Power.Addition {
			return ErrUnknownField
		}
		if v.PowerRange.Addition == nil {
			v.PowerRange.Addition = sch.SeedPowerRange().Addition
		}
		target = v.PowerRange.Addition
	default:
		return ErrUnknownField
	}

	n, err := parseFloat(value)
	if err != nil {
		if errors.Is(err, ErrInvalidValue) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	if parts[1] == "min" {
		target.Min = n
	} else {
		target.Max = n
	}
	return nil
}
