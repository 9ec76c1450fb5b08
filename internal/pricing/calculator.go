// Package pricing derives the checkout total of a variant from its sale price
// and shipping policy.
package pricing

import (
	"github.com/fekuna/omnipos-eyewear-service/internal/model"
	"github.com/shopspring/decimal"
)

var (
	// DefaultShipping applies whenever a variant does not carry custom shipping.
	DefaultShipping = decimal.NewFromInt(100)

	// MinMargin is the least amount mrp must exceed base_price by in
	// categories that enforce a price floor.
	MinMargin = decimal.NewFromInt(100)
)

// EffectiveShipping returns the shipping amount that enters the total.
func EffectiveShipping(shipping model.Shipping) decimal.Decimal {
	if shipping.Custom {
		return shipping.Value
	}
	return DefaultShipping
}

// ComputeTotal returns base_price + effective shipping. mrp is a list price
// and never enters the total.
func ComputeTotal(basePrice decimal.Decimal, shipping model.Shipping) decimal.Decimal {
	return basePrice.Add(EffectiveShipping(shipping))
}

// Recompute returns p with TotalPrice overwritten by the derived value.
func Recompute(p model.Pricing) model.Pricing {
	p.TotalPrice = ComputeTotal(p.BasePrice, p.ShippingPrice)
	return p
}

// Margin is mrp - base_price.
func Margin(p model.Pricing) decimal.Decimal {
	return p.MRP.Sub(p.BasePrice)
}

// MeetsMinMargin reports whether the margin is at least MinMargin.
func MeetsMinMargin(p model.Pricing) bool {
	return Margin(p).GreaterThanOrEqual(MinMargin)
}
