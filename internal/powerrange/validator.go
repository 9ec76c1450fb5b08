// Package powerrange checks min/max pairs such as spherical, cylindrical and
// addition power against their ordering and domain bounds.
package powerrange

import (
	"fmt"
)

// Domain is an inclusive [Lo, Hi] interval.
type Domain struct {
	Lo float64
	Hi float64
}

var (
	SphericalDomain   = Domain{Lo: -20, Hi: 20}
	CylindricalDomain = Domain{Lo: -10, Hi: 0}
	AdditionDomain    = Domain{Lo: 1, Hi: 4}
)

func (d Domain) String() string {
	return fmt.Sprintf("[%g, %g]", d.Lo, d.Hi)
}

// RangeError describes why a pair was rejected.
type RangeError struct {
	Min    float64
	Max    float64
	Domain Domain
	Reason string
}

func (e *RangeError) Error() string {
	return e.Reason
}

// Validate checks domain.Lo <= min <= max <= domain.Hi. Step snapping is not
// checked here.
func Validate(min, max float64, domain Domain) error {
	if min > max {
		return &RangeError{Min: min, Max: max, Domain: domain,
			Reason: fmt.Sprintf("min %g must not exceed max %g", min, max)}
	}
	if min < domain.Lo {
		return &RangeError{Min: min, Max: max, Domain: domain,
			Reason: fmt.Sprintf("min %g is outside %s", min, domain)}
	}
	if max > domain.Hi {
		return &RangeError{Min: min, Max: max, Domain: domain,
			Reason: fmt.Sprintf("max %g is outside %s", max, domain)}
	}
	return nil
}

// ValidateValue checks a single value against a domain.
func ValidateValue(v float64, domain Domain) error {
	if v < domain.Lo || v > domain.Hi {
		return &RangeError{Min: v, Max: v, Domain: domain,
			Reason: fmt.Sprintf("%g is outside %s", v, domain)}
	}
	return nil
}
