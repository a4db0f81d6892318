package valueobject

import (
	"errors"
	"sort"
	"strings"
)

// UnitKind tells whether a packaging unit is a countable pack or a content measurement.
type UnitKind string

const (
	UnitKindCountable   UnitKind = "countable"
	UnitKindMeasurement UnitKind = "measurement"
)

// Common unit codes for convenience
const (
	UnitCodePCS  = "PCS"
	UnitCodeCTN  = "CTN"
	UnitCodeBALE = "BALE"
	UnitCodeUNIT = "UNIT"
	UnitCodeKG   = "KG"
	UnitCodeG    = "G"
	UnitCodeML   = "ML"
	UnitCodeL    = "L"
)

// Weight and volume labels. A layer with one of these units describes the
// content of the next outer unit and never multiplies the piece count.
var measurementUnits = map[string]struct{}{
	"KG":     {},
	"KGS":    {},
	"G":      {},
	"GM":     {},
	"GMS":    {},
	"GRAM":   {},
	"GRAMS":  {},
	"ML":     {},
	"L":      {},
	"LTR":    {},
	"LTRS":   {},
	"LITRE":  {},
	"LITRES": {},
}

const maxUnitLabelLength = 20

// UnitLabel is a normalized (trimmed, upper-cased) packaging unit label.
type UnitLabel struct {
	code string
}

// NewUnitLabel creates a UnitLabel. The label is trimmed and upper-cased.
// Returns error if the label is empty or longer than 20 characters.
func NewUnitLabel(label string) (UnitLabel, error) {
	code := NormalizeUnitLabel(label)
	if code == "" {
		return UnitLabel{}, errors.New("unit label cannot be empty")
	}
	if len(code) > maxUnitLabelLength {
		return UnitLabel{}, errors.New("unit label cannot exceed 20 characters")
	}
	return UnitLabel{code: code}, nil
}

// MustNewUnitLabel creates a UnitLabel and panics on error.
func MustNewUnitLabel(label string) UnitLabel {
	u, err := NewUnitLabel(label)
	if err != nil {
		panic(err)
	}
	return u
}

// Code returns the normalized label.
func (u UnitLabel) Code() string {
	return u.code
}

// Kind classifies the label.
func (u UnitLabel) Kind() UnitKind {
	if IsMeasurementUnit(u.code) {
		return UnitKindMeasurement
	}
	return UnitKindCountable
}

// IsMeasurement returns true for weight/volume labels.
func (u UnitLabel) IsMeasurement() bool {
	return u.Kind() == UnitKindMeasurement
}

// IsZero returns true if this is a zero-value UnitLabel.
func (u UnitLabel) IsZero() bool {
	return u.code == ""
}

// Equals compares two labels after normalization.
func (u UnitLabel) Equals(other UnitLabel) bool {
	return u.code == other.code
}

// String returns the normalized label.
func (u UnitLabel) String() string {
	return u.code
}

// NormalizeUnitLabel trims and upper-cases a unit label.
func NormalizeUnitLabel(label string) string {
	return strings.ToUpper(strings.TrimSpace(label))
}

// IsMeasurementUnit reports whether label is an exact, case-insensitive match
// for a weight or volume unit. Empty input is countable.
func IsMeasurementUnit(label string) bool {
	code := NormalizeUnitLabel(label)
	if code == "" {
		return false
	}
	_, ok := measurementUnits[code]
	return ok
}

// MeasurementUnits returns the measurement vocabulary in sorted order.
func MeasurementUnits() []string {
	units := make([]string, 0, len(measurementUnits))
	for u := range measurementUnits {
		units = append(units, u)
	}
	sort.Strings(units)
	return units
}
