package model

// Category is the closed set of things a vendor can list.
type Category string

const (
	CategoryFrame               Category = "frame"
	CategorySunglass            Category = "sunglass"
	CategoryContactLens         Category = "contact_lens"
	CategoryColorContactLens    Category = "color_contact_lens"
	CategoryReader              Category = "reader"
	CategoryLensSolution        Category = "lens_solution"
	CategoryFrameLensPackage    Category = "frame_lens_package"
	CategorySunglassLensPackage Category = "sunglass_lens_package"
	CategoryAccessory           Category = "accessory"
)

var Categories = []Category{
	CategoryFrame,
	CategorySunglass,
	CategoryContactLens,
	CategoryColorContactLens,
	CategoryReader,
	CategoryLensSolution,
	CategoryFrameLensPackage,
	CategorySunglassLensPackage,
	CategoryAccessory,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// LensType is the product-level discriminator for lens-bearing categories.
type LensType string

const (
	LensTypeNonToric   LensType = "non_toric"
	LensTypeToric      LensType = "toric"
	LensTypeMultiFocal LensType = "multi_focal"
	LensTypeZeroPower  LensType = "zero_power"
	LensTypePower      LensType = "power"
)
