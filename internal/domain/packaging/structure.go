package packaging

import (
	"github.com/goodsdist/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Structure is an ordered packaging hierarchy. Index 0 is the master
// (outermost) unit, the last index is the innermost retail unit.
type Structure []Layer

// StockMap holds loose stock counts keyed by layer index.
type StockMap map[int]int64

// MaxPiecesPerMaster bounds the product of countable quantities below the
// master unit, so piece arithmetic stays well inside int64.
const MaxPiecesPerMaster int64 = 1_000_000_000

// BuildStructure turns raw layer inputs into a Structure. The master layer
// must be countable and its quantity is always stored as 1.
func BuildStructure(inputs []LayerInput) (Structure, error) {
	if len(inputs) == 0 {
		return nil, ErrEmptyStructure
	}

	s := make(Structure, 0, len(inputs))
	for i, in := range inputs {
		layer, err := NewLayer(in)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			master, ok := layer.(*CountableLayer)
			if !ok {
				return nil, ErrMeasurementMaster
			}
			master.Quantity = 1
		}
		s = append(s, layer)
	}

	if err := checkPiecesPerMaster(s); err != nil {
		return nil, err
	}
	if _, ok := CheckedTotalPieces(s, s.Stocks()); !ok {
		return nil, ErrStockTooLarge
	}
	return s, nil
}

func checkPiecesPerMaster(s Structure) error {
	total := int64(1)
	for _, l := range s[1:] {
		c, ok := l.(*CountableLayer)
		if !ok {
			continue
		}
		m := c.Multiplier()
		if total > MaxPiecesPerMaster/m {
			return ErrTooManyPieces
		}
		total *= m
	}
	return nil
}

// Len returns the number of layers.
func (s Structure) Len() int {
	return len(s)
}

// LastIndex returns the index of the innermost layer, or -1 when empty.
func (s Structure) LastIndex() int {
	return len(s) - 1
}

// IsInnermost reports whether index is the last layer.
func (s Structure) IsInnermost(index int) bool {
	return index == len(s)-1
}

// InRange reports whether index addresses a layer.
func (s Structure) InRange(index int) bool {
	return index >= 0 && index < len(s)
}

// Countable returns the layer at index when it is countable.
func (s Structure) Countable(index int) (*CountableLayer, bool) {
	if !s.InRange(index) {
		return nil, false
	}
	c, ok := s[index].(*CountableLayer)
	return c, ok
}

// Master returns the outermost layer.
func (s Structure) Master() (*CountableLayer, bool) {
	return s.Countable(0)
}

// IsMeasurement reports whether the layer at index is a measurement layer.
func (s Structure) IsMeasurement(index int) bool {
	if !s.InRange(index) {
		return false
	}
	return s[index].Kind() == valueobject.UnitKindMeasurement
}

// InnermostCountableIndex returns the index of the deepest countable layer.
func (s Structure) InnermostCountableIndex() int {
	for i := len(s) - 1; i >= 0; i-- {
		if _, ok := s[i].(*CountableLayer); ok {
			return i
		}
	}
	return -1
}

// CumulativeQtyUpTo returns the number of pieces contained in one unit of the
// layer at index: the product of countable quantities below it. Measurement
// layers are skipped. Out-of-range indexes and the innermost layer yield 1.
func (s Structure) CumulativeQtyUpTo(index int) int64 {
	if !s.InRange(index) {
		return 1
	}
	acc := int64(1)
	for i := index + 1; i < len(s); i++ {
		if c, ok := s[i].(*CountableLayer); ok {
			acc *= c.Multiplier()
		}
	}
	return acc
}

// TotalPiecesPerMaster is the number of retail pieces in one master unit.
func (s Structure) TotalPiecesPerMaster() int64 {
	return s.CumulativeQtyUpTo(0)
}

// PieceMultiplier is the number of pieces one stocked unit at index stands for.
func (s Structure) PieceMultiplier(index int) int64 {
	if s.IsInnermost(index) {
		return 1
	}
	return s.CumulativeQtyUpTo(index)
}

// Stocks returns the stock of every countable layer.
func (s Structure) Stocks() StockMap {
	out := make(StockMap, len(s))
	for i, l := range s {
		if c, ok := l.(*CountableLayer); ok {
			out[i] = c.Stock
		}
	}
	return out
}

// Prices returns the selling price of every countable layer that has one.
func (s Structure) Prices() map[int]decimal.Decimal {
	out := make(map[int]decimal.Decimal, len(s))
	for i, l := range s {
		if c, ok := l.(*CountableLayer); ok && c.SellingPrice != nil {
			out[i] = *c.SellingPrice
		}
	}
	return out
}

// WithStocks returns a copy of s with countable stock replaced from stock.
// Missing keys become 0.
func (s Structure) WithStocks(stock StockMap) Structure {
	out := s.Clone()
	for i, l := range out {
		if c, ok := l.(*CountableLayer); ok {
			c.Stock = stock[i]
		}
	}
	return out
}

// Clone returns a deep copy.
func (s Structure) Clone() Structure {
	if s == nil {
		return nil
	}
	out := make(Structure, len(s))
	for i, l := range s {
		out[i] = l.Clone()
	}
	return out
}

// Inputs converts the structure back to raw layer inputs.
func (s Structure) Inputs() []LayerInput {
	out := make([]LayerInput, len(s))
	for i, l := range s {
		in := LayerInput{Quantity: l.QuantityValue().String(), Unit: l.UnitCode()}
		if c, ok := l.(*CountableLayer); ok {
			if c.SellingPrice != nil {
				p := *c.SellingPrice
				in.SellingPrice = &p
			}
			stock := c.Stock
			in.Stock = &stock
		}
		out[i] = in
	}
	return out
}
