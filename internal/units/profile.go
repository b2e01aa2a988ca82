package units

import (
	"fmt"
	"strings"

	"modsuite/internal/services"
)

// Unit names the native unit a profile displays and accepts values in.
type Unit string

const (
	Millimeter Unit = "mm"
	Meter      Unit = "m"
)

const millimetersPerMeter = 1000.0

// Profile is a named scale configuration with a bounded native-unit range.
// Profiles are defined once and never mutated.
type Profile struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	Unit Unit    `json:"unit"`
	Min  float64 `json:"min_value"`
	Max  float64 `json:"max_value"`
	Step float64 `json:"step"`
}

// ToCanonical converts a native-unit value to meters. It does not clamp.
func (p Profile) ToCanonical(value float64) float64 {
	if p.Unit == Millimeter {
		return value / millimetersPerMeter
	}
	return value
}

// FromCanonical converts meters to the profile's native unit. It does not clamp.
func (p Profile) FromCanonical(meters float64) float64 {
	if p.Unit == Millimeter {
		return meters * millimetersPerMeter
	}
	return meters
}

// InRange reports whether value lies within the inclusive native-unit range.
func (p Profile) InRange(value float64) bool {
	return value >= p.Min && value <= p.Max
}

// CheckRange returns a validation error when value falls outside the
// profile's native-unit range.
func (p Profile) CheckRange(name string, value float64) error {
	if p.InRange(value) {
		return nil
	}
	return services.Wrap(services.ErrValidation, "units", name,
		fmt.Sprintf("%g %s outside %s range [%g, %g]", value, p.Unit, p.ID, p.Min, p.Max), nil)
}

// ToMeters converts a value expressed in the named unit to meters.
func ToMeters(value float64, unit string) (float64, error) {
	switch Unit(strings.ToLower(strings.TrimSpace(unit))) {
	case Millimeter:
		return value / millimetersPerMeter, nil
	case Meter:
		return value, nil
	default:
		return 0, services.Wrap(services.ErrValidation, "units", "convert",
			fmt.Sprintf("unsupported unit %q (expected mm or m)", unit), nil)
	}
}
