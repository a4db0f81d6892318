package packaging

import "github.com/shopspring/decimal"

const priceScale = 2

// PriceCalculator derives per-piece prices and profits from a structure.
// Results that lack an input are nil, never zero.
type PriceCalculator struct{}

// NewPriceCalculator creates a new PriceCalculator
func NewPriceCalculator() *PriceCalculator {
	return &PriceCalculator{}
}

// BuyingPerPiece is the master-unit cost spread over its pieces.
func (c *PriceCalculator) BuyingPerPiece(s Structure, buyingPricePerUnit *decimal.Decimal) *decimal.Decimal {
	if buyingPricePerUnit == nil || !buyingPricePerUnit.IsPositive() || len(s) == 0 {
		return nil
	}
	v := buyingPricePerUnit.Div(decimal.NewFromInt(s.TotalPiecesPerMaster()))
	return &v
}

// SellingPerPiece converts the selling price stored at index to a per-piece
// price. The innermost layer's price already is a piece price.
func (c *PriceCalculator) SellingPerPiece(s Structure, index int) *decimal.Decimal {
	layer, ok := s.Countable(index)
	if !ok || !layer.HasPrice() {
		return nil
	}
	if s.IsInnermost(index) {
		v := *layer.SellingPrice
		return &v
	}
	v := layer.SellingPrice.Div(decimal.NewFromInt(s.CumulativeQtyUpTo(index)))
	return &v
}

// ProfitPerPiece is selling-per-piece minus buying-per-piece for the layer at
// index, rounded to cents.
func (c *PriceCalculator) ProfitPerPiece(s Structure, index int, buyingPricePerUnit *decimal.Decimal) *decimal.Decimal {
	selling := c.SellingPerPiece(s, index)
	buying := c.BuyingPerPiece(s, buyingPricePerUnit)
	if selling == nil || buying == nil {
		return nil
	}
	v := selling.Sub(*buying).Round(priceScale)
	return &v
}

// MasterSellingPrice is the price of one master unit: the master layer's own
// price when set, else the retail piece price times the pieces per master.
func (c *PriceCalculator) MasterSellingPrice(s Structure) *decimal.Decimal {
	master, ok := s.Master()
	if !ok {
		return nil
	}
	if master.HasPrice() {
		v := *master.SellingPrice
		return &v
	}
	perPiece := c.SellingPerPiece(s, s.InnermostCountableIndex())
	if perPiece == nil {
		return nil
	}
	v := perPiece.Mul(decimal.NewFromInt(s.TotalPiecesPerMaster())).Round(priceScale)
	return &v
}

// ProfitPerMaster is the master selling price minus the master buying price.
func (c *PriceCalculator) ProfitPerMaster(s Structure, buyingPricePerUnit *decimal.Decimal) *decimal.Decimal {
	if buyingPricePerUnit == nil || !buyingPricePerUnit.IsPositive() {
		return nil
	}
	selling := c.MasterSellingPrice(s)
	if selling == nil {
		return nil
	}
	v := selling.Sub(*buyingPricePerUnit).Round(priceScale)
	return &v
}

// AutoCalculate derives every non-master countable layer's price from the
// master price. A layer whose stored price already equals the derived value is
// left untouched. It returns the indexes that were rewritten. Without a
// positive master price nothing is written.
func (c *PriceCalculator) AutoCalculate(s Structure) []int {
	master, ok := s.Master()
	if !ok || !master.HasPrice() {
		return nil
	}

	perPiece := master.SellingPrice.Div(decimal.NewFromInt(s.TotalPiecesPerMaster()))

	var changed []int
	for i := 1; i < len(s); i++ {
		layer, ok := s.Countable(i)
		if !ok {
			continue
		}
		var derived decimal.Decimal
		if s.IsInnermost(i) {
			derived = perPiece.Round(priceScale)
		} else {
			derived = perPiece.Mul(decimal.NewFromInt(s.CumulativeQtyUpTo(i))).Round(priceScale)
		}
		if layer.SellingPrice != nil && layer.SellingPrice.Equal(derived) {
			continue
		}
		layer.SellingPrice = &derived
		changed = append(changed, i)
	}
	return changed
}

// LayerPricing is the per-layer pricing read model.
type LayerPricing struct {
	Index           int
	Unit            string
	Measurement     bool
	PiecesPerUnit   int64
	SellingPrice    *decimal.Decimal
	SellingPerPiece *decimal.Decimal
	ProfitPerPiece  *decimal.Decimal
	MaxLoose        *int64
}

// Pricing summarizes a structure's prices and profits.
type Pricing struct {
	TotalPiecesPerMaster int64
	BuyingPricePerUnit   *decimal.Decimal
	BuyingPerPiece       *decimal.Decimal
	MasterSellingPrice   *decimal.Decimal
	ProfitPerMaster      *decimal.Decimal
	Layers               []LayerPricing
}

// Summarize builds the pricing read model.
func (c *PriceCalculator) Summarize(s Structure, buyingPricePerUnit *decimal.Decimal) Pricing {
	p := Pricing{
		TotalPiecesPerMaster: s.TotalPiecesPerMaster(),
		BuyingPricePerUnit:   roundPtr(buyingPricePerUnit),
		BuyingPerPiece:       roundPtr(c.BuyingPerPiece(s, buyingPricePerUnit)),
		MasterSellingPrice:   c.MasterSellingPrice(s),
		ProfitPerMaster:      c.ProfitPerMaster(s, buyingPricePerUnit),
		Layers:               make([]LayerPricing, 0, len(s)),
	}
	for i, l := range s {
		lp := LayerPricing{
			Index:         i,
			Unit:          l.UnitCode(),
			PiecesPerUnit: s.PieceMultiplier(i),
		}
		if layer, ok := l.(*CountableLayer); ok {
			lp.SellingPrice = roundPtr(layer.SellingPrice)
			lp.SellingPerPiece = roundPtr(c.SellingPerPiece(s, i))
			lp.ProfitPerPiece = c.ProfitPerPiece(s, i, buyingPricePerUnit)
			if max, bounded := s.MaxLoose(i); bounded {
				lp.MaxLoose = &max
			}
		} else {
			lp.Measurement = true
		}
		p.Layers = append(p.Layers, lp)
	}
	return p
}

func roundPtr(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	v := d.Round(priceScale)
	return &v
}
