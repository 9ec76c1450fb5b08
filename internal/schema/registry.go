package schema

import (
	"errors"
	"fmt"

	"github.com/fekuna/omnipos-eyewear-service/internal/model"
)

var (
	ErrUnknownCategory       = errors.New("unknown category")
	ErrLensTypeRequired      = errors.New("lens type is required for this category")
	ErrUnknownLensType       = errors.New("lens type is not valid for this category")
	ErrLensTypeNotApplicable = errors.New("lens type is not applicable to this category")
)

type key struct {
	category model.Category
	lensType model.LensType
}

// Registry resolves a Schema by category and lens type. The table is built
// once from the static declarations and never changes afterwards.
type Registry struct {
	schemas map[key]Schema
	bases   map[model.Category]Schema
}

func NewRegistry() *Registry {
	r := &Registry{
		schemas: make(map[key]Schema),
		bases:   make(map[model.Category]Schema),
	}
	for category, decl := range declarations() {
		base := Schema{
			Category:      category,
			Discriminator: decl.discriminator,
			ProductFields: decl.productFields,
			VariantFields: decl.variantFields,
			EnforceMargin: decl.enforceMargin,
		}
		r.bases[category] = base
		for lensType, rule := range decl.powerRules {
			s := base
			s.LensType = lensType
			s.Power = rule
			r.schemas[key{category, lensType}] = s
		}
	}
	return r
}

// Default is the process-wide registry.
var Default = NewRegistry()

// Get resolves the schema for a category and its discriminator value. Pass
// an empty lens type for categories without a discriminator.
func (r *Registry) Get(category model.Category, lensType model.LensType) (Schema, error) {
	base, ok := r.bases[category]
	if !ok {
		return Schema{}, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}

	if base.Discriminator == nil && lensType != "" {
		return Schema{}, fmt.Errorf("%w: %q", ErrLensTypeNotApplicable, category)
	}
	if base.Discriminator != nil && lensType == "" {
		return Schema{}, fmt.Errorf("%w: %q", ErrLensTypeRequired, category)
	}

	s, ok := r.schemas[key{category, lensType}]
	if !ok {
		return Schema{}, fmt.Errorf("%w: %q for %q", ErrUnknownLensType, lensType, category)
	}
	return s, nil
}

// Base returns the category schema without a resolved power rule. It serves
// field checks when the discriminator itself is missing or invalid.
func (r *Registry) Base(category model.Category) (Schema, error) {
	base, ok := r.bases[category]
	if !ok {
		return Schema{}, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	return base, nil
}
