package packaging

import (
	"strings"

	"github.com/goodsdist/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Layer is one level of a packaging structure. It is either a *CountableLayer
// (a pack that multiplies the piece count and may carry a price and stock) or a
// *MeasurementLayer (a weight/volume that describes content and never does).
type Layer interface {
	Kind() valueobject.UnitKind
	UnitCode() string
	// QuantityValue is the stored quantity: how many of this unit make up one unit of the layer above.
	QuantityValue() decimal.Decimal
	Clone() Layer
	isLayer()
}

// CountableLayer is a pack, box, carton or piece.
type CountableLayer struct {
	Quantity     int64
	Unit         string
	SellingPrice *decimal.Decimal
	Stock        int64
}

func (l *CountableLayer) Kind() valueobject.UnitKind { return valueobject.UnitKindCountable }
func (l *CountableLayer) UnitCode() string           { return l.Unit }
func (l *CountableLayer) isLayer()                   {}

func (l *CountableLayer) QuantityValue() decimal.Decimal {
	return decimal.NewFromInt(l.Quantity)
}

// Multiplier is the quantity used in piece arithmetic, never below 1.
func (l *CountableLayer) Multiplier() int64 {
	if l.Quantity < 1 {
		return 1
	}
	return l.Quantity
}

// HasPrice returns true when a positive selling price is set.
func (l *CountableLayer) HasPrice() bool {
	return l.SellingPrice != nil && l.SellingPrice.IsPositive()
}

func (l *CountableLayer) Clone() Layer {
	c := *l
	if l.SellingPrice != nil {
		p := *l.SellingPrice
		c.SellingPrice = &p
	}
	return &c
}

// MeasurementLayer is a weight or volume (KG, G, ML, L ...).
type MeasurementLayer struct {
	Quantity decimal.Decimal
	Unit     string
}

func (l *MeasurementLayer) Kind() valueobject.UnitKind     { return valueobject.UnitKindMeasurement }
func (l *MeasurementLayer) UnitCode() string               { return l.Unit }
func (l *MeasurementLayer) QuantityValue() decimal.Decimal { return l.Quantity }
func (l *MeasurementLayer) isLayer()                       {}

func (l *MeasurementLayer) Clone() Layer {
	c := *l
	return &c
}

// LayerInput is the loosely-typed shape of a layer as entered by a user or
// produced by the supplier parser. Quantity is kept as raw text.
type LayerInput struct {
	Quantity     string
	Unit         string
	SellingPrice *decimal.Decimal
	Stock        *int64
}

// NewLayer classifies unit and builds the matching layer variant. Quantity
// text that is blank, non-numeric or not positive becomes 1. Price and stock
// are dropped for measurement units.
func NewLayer(in LayerInput) (Layer, error) {
	label, err := valueobject.NewUnitLabel(in.Unit)
	if err != nil {
		return nil, ErrInvalidLayers(err.Error())
	}

	if label.IsMeasurement() {
		return &MeasurementLayer{
			Quantity: ParseMeasure(in.Quantity),
			Unit:     label.Code(),
		}, nil
	}

	if in.SellingPrice != nil && in.SellingPrice.IsNegative() {
		return nil, ErrInvalidPrice("Selling price cannot be negative")
	}

	layer := &CountableLayer{
		Quantity: ParseQuantity(in.Quantity),
		Unit:     label.Code(),
	}
	if in.SellingPrice != nil {
		p := *in.SellingPrice
		layer.SellingPrice = &p
	}
	if in.Stock != nil && *in.Stock > 0 {
		layer.Stock = *in.Stock
	}
	return layer, nil
}

// ParseQuantity reads the leading integer of raw (optional sign, digits,
// anything after is ignored). Missing, non-numeric and non-positive values
// yield 1 so that quantity arithmetic never sees zero.
func ParseQuantity(raw string) int64 {
	s := strings.TrimSpace(raw)
	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}

	var n int64
	digits := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int64(r-'0')
		digits++
		if n > 1<<40 {
			break
		}
	}

	if digits == 0 || neg || n <= 0 {
		return 1
	}
	return n
}

// ParseMeasure reads the leading decimal number of raw. Missing, non-numeric
// and non-positive values yield 1.
func ParseMeasure(raw string) decimal.Decimal {
	s := strings.TrimSpace(raw)
	end := 0
	seenDot := false
	for end < len(s) {
		c := s[end]
		if c == '.' && !seenDot {
			seenDot = true
			end++
			continue
		}
		if c < '0' || c > '9' {
			break
		}
		end++
	}

	num := strings.TrimSuffix(s[:end], ".")
	if strings.HasPrefix(num, ".") {
		num = "0" + num
	}
	d, err := decimal.NewFromString(num)
	if err != nil || !d.IsPositive() {
		return decimal.NewFromInt(1)
	}
	return d
}
