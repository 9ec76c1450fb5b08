package model

import "time"

// ValueType names a vendor-extensible tag list.
type ValueType string

const (
	ValueTypeMaterial      ValueType = "material"
	ValueTypeShape         ValueType = "shape"
	ValueTypeStyle         ValueType = "style"
	ValueTypeGender        ValueType = "gender"
	ValueTypeColor         ValueType = "color"
	ValueTypeDisposability ValueType = "disposability"
)

var ValueTypes = []ValueType{
	ValueTypeMaterial,
	ValueTypeShape,
	ValueTypeStyle,
	ValueTypeGender,
	ValueTypeColor,
	ValueTypeDisposability,
}

func (t ValueType) Valid() bool {
	for _, known := range ValueTypes {
		if t == known {
			return true
		}
	}
	return false
}

type MiscValue struct {
	ID        string    `db:"id"`
	VendorID  string    `db:"vendor_id"`
	Type      ValueType `db:"value_type"`
	Value     string    `db:"value"`
	CreatedAt time.Time `db:"created_at"`
}
