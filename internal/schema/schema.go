// Package schema declares, per category and lens type, which product and
// variant fields exist and which power-range sub-structures are legal.
package schema

import (
	"github.com/fekuna/omnipos-eyewear-service/internal/model"
	"github.com/fekuna/omnipos-eyewear-service/internal/powerrange"
)

type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindInteger
	KindBool
	KindStringList
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindInteger:
		return "integer"
	case KindBool:
		return "boolean"
	case KindStringList:
		return "list of strings"
	default:
		return "unknown"
	}
}

// Field declares one product- or variant-level attribute.
type Field struct {
	Name     string
	Kind     Kind
	Required bool
	// ValueType ties a string or string-list field to the value registry.
	ValueType model.ValueType
	// Domain bounds numeric fields when set.
	Domain *powerrange.Domain
}

// Discriminator is the product-level field that selects a power rule.
type Discriminator struct {
	Field  string
	Values []model.LensType
}

func (d *Discriminator) Accepts(v model.LensType) bool {
	for _, known := range d.Values {
		if v == known {
			return true
		}
	}
	return false
}

// PowerRule states whether variants carry a PowerRange and which optional
// sub-ranges are legal. Step is a presentation hint for the console.
type PowerRule struct {
	Present     bool
	Cylindrical bool
	Addition    bool
	Step        float64
}

type Schema struct {
	Category      model.Category
	LensType      model.LensType
	Discriminator *Discriminator
	ProductFields []Field
	VariantFields []Field
	Power         PowerRule
	EnforceMargin bool
}

func (s Schema) ProductField(name string) (Field, bool) {
	return findField(s.ProductFields, name)
}

func (s Schema) VariantField(name string) (Field, bool) {
	return findField(s.VariantFields, name)
}

// SeedPowerRange returns the PowerRange a new variant starts with, or nil
// when the rule forbids one.
func (s Schema) SeedPowerRange() *model.PowerRange {
	if !s.Power.Present {
		return nil
	}
	pr := &model.PowerRange{Spherical: model.NumericRange{Min: 0, Max: 0}}
	if s.Power.Cylindrical {
		pr.Cylindrical = &model.NumericRange{Min: 0, Max: 0}
	}
	if s.Power.Addition {
		pr.Addition = &model.NumericRange{Min: powerrange.AdditionDomain.Lo, Max: powerrange.AdditionDomain.Lo}
	}
	return pr
}

func findField(fields []Field, name string) (Field, bool) {
	for _, f := range fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}
