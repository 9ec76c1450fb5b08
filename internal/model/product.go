package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices travel as JSON numbers on every surface.
	decimal.MarshalJSONWithoutQuotes = true
}

// Payload keys owned by Product and Variant. Everything else in a payload is a
// category attribute.
const (
	KeyID          = "id"
	KeyVendorID    = "vendor_id"
	KeyCategory    = "category"
	KeyProductCode = "productCode"
	KeyBrandName   = "brand_name"
	KeyLensType    = "lens_type"
	KeyVersion     = "version"
	KeyCreatedAt   = "created_at"
	KeyUpdatedAt   = "updated_at"
	KeyVariants    = "variants"

	KeyPrice      = "price"
	KeyStock      = "stock"
	KeyImages     = "images"
	KeyPowerRange = "power_range"
)

type Product struct {
	BaseModel
	VendorID    string     `db:"vendor_id"`
	Category    Category   `db:"category"`
	ProductCode string     `db:"product_code"`
	BrandName   string     `db:"brand_name"`
	LensType    LensType   `db:"lens_type"`
	Attributes  Attributes `db:"attributes"`
	Version     int64      `db:"version"`
	Variants    []Variant  `db:"-"`
}

type Variant struct {
	ID         string
	Attributes Attributes
	Price      Pricing
	Stock      Stock
	Images     Images
	PowerRange *PowerRange
}

type Pricing struct {
	BasePrice     decimal.Decimal `json:"base_price"`
	MRP           decimal.Decimal `json:"mrp"`
	ShippingPrice Shipping        `json:"shipping_price"`
	TotalPrice    decimal.Decimal `json:"total_price"`
}

type Shipping struct {
	Custom bool            `json:"custom"`
	Value  decimal.Decimal `json:"value"`
}

type Stock struct {
	Current int `json:"current"`
	Minimum int `json:"minimum"`
}

// Image holds a storage path, never a signed URL. The key is "url" on the wire.
type Image struct {
	URL string `json:"url"`
}

type PowerRange struct {
	Spherical   NumericRange  `json:"spherical"`
	Cylindrical *NumericRange `json:"cylindrical,omitempty"`
	Addition    *NumericRange `json:"addition,omitempty"`
}

type NumericRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Attributes is a JSONB object column.
type Attributes map[string]any

func (a Attributes) Value() (driver.Value, error) {
	if a == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(a)
}

func (a *Attributes) Scan(value interface{}) error {
	if value == nil {
		*a = Attributes{}
		return nil
	}
	b, err := asBytes(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, a)
}

// Images is a JSONB array column.
type Images []Image

func (i Images) Value() (driver.Value, error) {
	if i == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(i)
}

func (i *Images) Scan(value interface{}) error {
	if value == nil {
		*i = Images{}
		return nil
	}
	b, err := asBytes(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, i)
}

func asBytes(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, errors.New("unsupported jsonb source type")
	}
}

func (p Product) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p.Attributes)+10)
	for k, v := range p.Attributes {
		out[k] = v
	}
	out[KeyID] = p.ID
	out[KeyVendorID] = p.VendorID
	out[KeyCategory] = p.Category
	out[KeyProductCode] = p.ProductCode
	out[KeyBrandName] = p.BrandName
	if p.LensType != "" {
		out[KeyLensType] = p.LensType
	}
	out[KeyVersion] = p.Version
	out[KeyCreatedAt] = p.CreatedAt
	out[KeyUpdatedAt] = p.UpdatedAt
	variants := p.Variants
	if variants == nil {
		variants = []Variant{}
	}
	out[KeyVariants] = variants
	return json.Marshal(out)
}

func (p *Product) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	take := func(key string, dst any) error {
		v, ok := raw[key]
		if !ok {
			return nil
		}
		delete(raw, key)
		return json.Unmarshal(v, dst)
	}

	for key, dst := range map[string]any{
		KeyID:          &p.ID,
		KeyVendorID:    &p.VendorID,
		KeyCategory:    &p.Category,
		KeyProductCode: &p.ProductCode,
		KeyBrandName:   &p.BrandName,
		KeyLensType:    &p.LensType,
		KeyVersion:     &p.Version,
		KeyCreatedAt:   &p.CreatedAt,
		KeyUpdatedAt:   &p.UpdatedAt,
		KeyVariants:    &p.Variants,
	} {
		if err := take(key, dst); err != nil {
			return err
		}
	}

	attrs, err := decodeAttributes(raw)
	if err != nil {
		return err
	}
	p.Attributes = attrs
	return nil
}

func (v Variant) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(v.Attributes)+5)
	for k, val := range v.Attributes {
		out[k] = val
	}
	out[KeyID] = v.ID
	out[KeyPrice] = v.Price
	out[KeyStock] = v.Stock
	images := v.Images
	if images == nil {
		images = Images{}
	}
	out[KeyImages] = images
	if v.PowerRange != nil {
		out[KeyPowerRange] = v.PowerRange
	}
	return json.Marshal(out)
}

func (v *Variant) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	take := func(key string, dst any) error {
		val, ok := raw[key]
		if !ok {
			return nil
		}
		delete(raw, key)
		return json.Unmarshal(val, dst)
	}

	if err := take(KeyID, &v.ID); err != nil {
		return err
	}
	if err := take(KeyPrice, &v.Price); err != nil {
		return err
	}
	if err := take(KeyStock, &v.Stock); err != nil {
		return err
	}
	if err := take(KeyImages, &v.Images); err != nil {
		return err
	}
	if err := take(KeyPowerRange, &v.PowerRange); err != nil {
		return err
	}

	attrs, err := decodeAttributes(raw)
	if err != nil {
		return err
	}
	v.Attributes = attrs
	return nil
}

func decodeAttributes(raw map[string]json.RawMessage) (Attributes, error) {
	attrs := make(Attributes, len(raw))
	for k, v := range raw {
		var val any
		if err := json.Unmarshal(v, &val); err != nil {
			return nil, err
		}
		attrs[k] = val
	}
	return attrs, nil
}
