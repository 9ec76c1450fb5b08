package miscvalue

import "github.com/fekuna/omnipos-eyewear-service/internal/model"

// Defaults are available to every vendor without being stored.
var Defaults = map[model.ValueType][]string{
	model.ValueTypeMaterial: {
		"acetate", "metal", "titanium", "stainless steel", "tr90", "polycarbonate",
		"wood", "silicone hydrogel", "hydrogel",
	},
	model.ValueTypeShape: {
		"rectangle", "square", "round", "oval", "cat eye", "aviator", "wayfarer",
		"geometric", "hexagonal", "clubmaster",
	},
	model.ValueTypeStyle:  {"full rim", "half rim", "rimless"},
	model.ValueTypeGender: {"men", "women", "unisex", "kids"},
	model.ValueTypeColor: {
		"black", "brown", "tortoise", "gold", "silver", "gunmetal", "blue", "green",
		"grey", "red", "transparent", "hazel", "honey",
	},
	model.ValueTypeDisposability: {"daily", "weekly", "bi-weekly", "monthly", "quarterly", "yearly"},
}
