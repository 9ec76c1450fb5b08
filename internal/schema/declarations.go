package schema

import (
	"github.com/fekuna/omnipos-eyewear-service/internal/model"
	"github.com/fekuna/omnipos-eyewear-service/internal/powerrange"
)

// FieldLensType is the discriminator field name on lens-bearing products.
const FieldLensType = model.KeyLensType

const powerStep = 0.25

var (
	lensWidthDomain    = powerrange.Domain{Lo: 30, Hi: 70}
	bridgeWidthDomain  = powerrange.Domain{Lo: 10, Hi: 30}
	templeLengthDomain = powerrange.Domain{Lo: 100, Hi: 160}
	frameWeightDomain  = powerrange.Domain{Lo: 0, Hi: 200}
	readingPowerDomain = powerrange.Domain{Lo: 0.25, Hi: 6}
	baseCurveDomain    = powerrange.Domain{Lo: 7, Hi: 10}
	diameterDomain     = powerrange.Domain{Lo: 12, Hi: 16}
	waterContentDomain = powerrange.Domain{Lo: 0, Hi: 100}
	lensPackDomain     = powerrange.Domain{Lo: 1, Hi: 365}
	solutionVolDomain  = powerrange.Domain{Lo: 1, Hi: 1000}
	solutionPackDomain = powerrange.Domain{Lo: 1, Hi: 24}
)

// declaration is the static description of one category. powerRules maps
// each accepted lens type to its rule; categories without a discriminator
// carry a single rule under the empty lens type.
type declaration struct {
	productFields []Field
	variantFields []Field
	discriminator *Discriminator
	powerRules    map[model.LensType]PowerRule
	enforceMargin bool
}

func str(name string, required bool) Field {
	return Field{Name: name, Kind: KindString, Required: required}
}

func tagged(name string, required bool, vt model.ValueType) Field {
	return Field{Name: name, Kind: KindString, Required: required, ValueType: vt}
}

func tags(name string, required bool, vt model.ValueType) Field {
	return Field{Name: name, Kind: KindStringList, Required: required, ValueType: vt}
}

func num(name string, required bool, d powerrange.Domain) Field {
	return Field{Name: name, Kind: KindNumber, Required: required, Domain: &d}
}

func integer(name string, required bool, d powerrange.Domain) Field {
	return Field{Name: name, Kind: KindInteger, Required: required, Domain: &d}
}

func boolean(name string) Field {
	return Field{Name: name, Kind: KindBool}
}

func concat(groups ...[]Field) []Field {
	var out []Field
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

var (
	identityFields = []Field{
		str(model.KeyProductCode, true),
		str(model.KeyBrandName, true),
		str("hsn_code", true),
		str("description", false),
	}

	frameFields = []Field{
		str("model_name", false),
		tags("frame_material", true, model.ValueTypeMaterial),
		tags("frame_shape", true, model.ValueTypeShape),
		tags("frame_style", false, model.ValueTypeStyle),
		tags("gender", true, model.ValueTypeGender),
		num("lens_width", true, lensWidthDomain),
		num("bridge_width", true, bridgeWidthDomain),
		num("temple_length", true, templeLengthDomain),
		num("weight", false, frameWeightDomain),
	}

	sunglassFields = []Field{
		str("lens_material", false),
		boolean("polarized"),
		str("uv_protection", false),
	}

	packageFields = []Field{
		str("lens_package", true),
	}

	contactLensFields = []Field{
		tags("material", false, model.ValueTypeMaterial),
		num("water_content", false, waterContentDomain),
		num("base_curve", true, baseCurveDomain),
		num("diameter", true, diameterDomain),
	}

	frameVariantFields = []Field{
		tagged("frame_color", true, model.ValueTypeColor),
		tagged("temple_color", true, model.ValueTypeColor),
	}

	noPower = map[model.LensType]PowerRule{"": {}}
)

func declarations() map[model.Category]declaration {
	return map[model.Category]declaration{
		model.CategoryFrame: {
			productFields: concat(identityFields, frameFields),
			variantFields: frameVariantFields,
			powerRules:    noPower,
		},
		model.CategorySunglass: {
			productFields: concat(identityFields, frameFields, sunglassFields),
			variantFields: concat(frameVariantFields, []Field{tagged("lens_color", true, model.ValueTypeColor)}),
			powerRules:    noPower,
		},
		model.CategoryReader: {
			productFields: concat(identityFields, frameFields),
			variantFields: concat(frameVariantFields, []Field{num("reading_power", true, readingPowerDomain)}),
			powerRules:    noPower,
		},
		model.CategoryFrameLensPackage: {
			productFields: concat(identityFields, frameFields, packageFields),
			variantFields: frameVariantFields,
			powerRules:    noPower,
		},
		model.CategorySunglassLensPackage: {
			productFields: concat(identityFields, frameFields, sunglassFields, packageFields),
			variantFields: concat(frameVariantFields, []Field{tagged("lens_color", true, model.ValueTypeColor)}),
			powerRules:    noPower,
		},
		model.CategoryContactLens: {
			productFields: concat(identityFields, contactLensFields),
			variantFields: []Field{
				tagged("disposability", true, model.ValueTypeDisposability),
				integer("pack_size", true, lensPackDomain),
			},
			discriminator: &Discriminator{
				Field:  FieldLensType,
				Values: []model.LensType{model.LensTypeNonToric, model.LensTypeToric, model.LensTypeMultiFocal},
			},
			powerRules: map[model.LensType]PowerRule{
				model.LensTypeNonToric:   {Present: true, Step: powerStep},
				model.LensTypeToric:      {Present: true, Cylindrical: true, Step: powerStep},
				model.LensTypeMultiFocal: {Present: true, Addition: true, Step: powerStep},
			},
			enforceMargin: true,
		},
		model.CategoryColorContactLens: {
			productFields: concat(identityFields, contactLensFields),
			variantFields: []Field{
				tagged("color", true, model.ValueTypeColor),
				tagged("disposability", true, model.ValueTypeDisposability),
				integer("pack_size", true, lensPackDomain),
			},
			discriminator: &Discriminator{
				Field:  FieldLensType,
				Values: []model.LensType{model.LensTypeZeroPower, model.LensTypePower},
			},
			powerRules: map[model.LensType]PowerRule{
				model.LensTypeZeroPower: {},
				model.LensTypePower:     {Present: true, Step: powerStep},
			},
			enforceMargin: true,
		},
		model.CategoryLensSolution: {
			productFields: concat(identityFields, []Field{num("volume_ml", true, solutionVolDomain)}),
			variantFields: []Field{integer("pack_size", true, solutionPackDomain)},
			powerRules:    noPower,
		},
		model.CategoryAccessory: {
			productFields: concat(identityFields, []Field{
				str("accessory_type", true),
				tags("material", false, model.ValueTypeMaterial),
			}),
			variantFields: []Field{tagged("color", true, model.ValueTypeColor)},
			powerRules:    noPower,
			enforceMargin: true,
		},
	}
}
