package packaging

import (
	"fmt"
	"strings"
)

// StockEntryPolicy decides what happens to a loose count entered at a
// non-master layer that reaches the layer's quantity.
type StockEntryPolicy string

const (
	// StockPolicyCarry accepts the count and lets normalization roll it up.
	StockPolicyCarry StockEntryPolicy = "carry"
	// StockPolicyClamp silently clamps the count to [0, quantity-1].
	StockPolicyClamp StockEntryPolicy = "clamp"
	// StockPolicyReject refuses counts outside [0, quantity-1].
	StockPolicyReject StockEntryPolicy = "reject"
)

// ParseStockEntryPolicy parses a policy name. Empty input is carry.
func ParseStockEntryPolicy(s string) (StockEntryPolicy, error) {
	switch p := StockEntryPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return StockPolicyCarry, nil
	case StockPolicyCarry, StockPolicyClamp, StockPolicyReject:
		return p, nil
	default:
		return "", ErrInvalidPolicy(s)
	}
}

func ErrInvalidPolicy(s string) error {
	return newError(CodeInvalidPolicy, fmt.Sprintf("Unknown stock entry policy %q", s))
}

// MaxLoose returns the largest loose count a layer can hold without carrying.
// The master layer is unbounded (bounded=false).
func (s Structure) MaxLoose(index int) (max int64, bounded bool) {
	if index <= 0 || !s.InRange(index) {
		return 0, false
	}
	c, ok := s[index].(*CountableLayer)
	if !ok {
		return 0, true
	}
	return c.Multiplier() - 1, true
}

// ApplyEntryPolicy validates a loose count entered at index under policy and
// returns the value to store.
func (s Structure) ApplyEntryPolicy(policy StockEntryPolicy, index int, value int64) (int64, error) {
	if !s.InRange(index) {
		return 0, ErrLayerIndexOutOfRange
	}
	if s.IsMeasurement(index) {
		return 0, ErrMeasurementLayer
	}

	if value < 0 {
		if policy == StockPolicyReject {
			return 0, ErrInvalidStock("Stock cannot be negative")
		}
		value = 0
	}

	max, bounded := s.MaxLoose(index)
	if !bounded || value <= max {
		return value, nil
	}

	switch policy {
	case StockPolicyClamp:
		return max, nil
	case StockPolicyReject:
		return 0, ErrStockOutOfRange
	default:
		return value, nil
	}
}

// Normalize carries loose counts outward so that no countable layer holds as
// many units as make up one unit of the countable layer above it. It runs one
// pass from the innermost layer to layer 1. Measurement layers neither give
// nor receive carries. The master layer accumulates without limit. The input
// map is not modified.
func Normalize(s Structure, stock StockMap) StockMap {
	out := make(StockMap, len(s))
	for i := range s {
		if s.IsMeasurement(i) {
			continue
		}
		if v := stock[i]; v > 0 {
			out[i] = v
		} else {
			out[i] = 0
		}
	}

	for i := len(s) - 1; i >= 1; i-- {
		c, ok := s[i].(*CountableLayer)
		if !ok {
			continue
		}
		perSet := c.Multiplier()
		current := out[i]
		if current < perSet {
			continue
		}
		parent := s.countableParent(i)
		if parent < 0 {
			continue
		}
		out[parent] += current / perSet
		out[i] = current % perSet
	}
	return out
}

// countableParent is the nearest countable layer above index, or -1.
func (s Structure) countableParent(index int) int {
	for i := index - 1; i >= 0; i-- {
		if _, ok := s[i].(*CountableLayer); ok {
			return i
		}
	}
	return -1
}

// TotalPieces rolls stock up into retail pieces: each countable layer's count
// times the pieces one of its units holds.
func TotalPieces(s Structure, stock StockMap) int64 {
	var total int64
	for i := range s {
		if s.IsMeasurement(i) {
			continue
		}
		total += stock[i] * s.PieceMultiplier(i)
	}
	return total
}

// MaxStockPieces bounds a record's stock rolled up into retail pieces.
const MaxStockPieces int64 = 1_000_000_000_000_000

// CheckedTotalPieces is TotalPieces with a bound. ok is false when the
// roll-up would exceed MaxStockPieces. Negative counts are ignored.
func CheckedTotalPieces(s Structure, stock StockMap) (total int64, ok bool) {
	for i := range s {
		if s.IsMeasurement(i) {
			continue
		}
		v := stock[i]
		if v <= 0 {
			continue
		}
		m := s.PieceMultiplier(i)
		if v > (MaxStockPieces-total)/m {
			return 0, false
		}
		total += v * m
	}
	return total, true
}

// IsNormalized reports whether stock is a fixed point of Normalize.
func IsNormalized(s Structure, stock StockMap) bool {
	for i := 1; i < len(s); i++ {
		c, ok := s[i].(*CountableLayer)
		if !ok {
			continue
		}
		if stock[i] < 0 || stock[i] >= c.Multiplier() {
			return false
		}
	}
	return true
}
