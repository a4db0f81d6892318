package packaging

import "github.com/shopspring/decimal"

// DefaultMinimumPriceFactor is the floor applied to the retail price.
var DefaultMinimumPriceFactor = decimal.RequireFromString("0.9")

// PayloadLayer is one entry of the persisted packagingStructure. Price and
// stock are nil for measurement layers.
type PayloadLayer struct {
	Quantity     decimal.Decimal
	Unit         string
	SellingPrice *decimal.Decimal
	Stock        *int64
}

// SavePayload is the record handed to the inventory create/update and
// replenish operations.
type SavePayload struct {
	BuyingPrice          *decimal.Decimal
	BuyingPricePerUnit   *decimal.Decimal
	SellingPrice         *decimal.Decimal
	SellingPricePerPiece *decimal.Decimal
	MinimumPrice         *decimal.Decimal
	ProfitPerPiece       *decimal.Decimal
	ProfitPerMaster      *decimal.Decimal
	Stock                int64
	StockInSupplierUnits decimal.Decimal
	Unit                 string
	SupplierUnit         string
	SupplierUnitQuantity int64
	AutoCalculate        bool
	PackagingStructure   []PayloadLayer
}

// BuildSavePayload flattens a structure and its master buying price into the
// save payload. minimumPriceFactor scales the retail price into the minimum
// price; a non-positive factor falls back to DefaultMinimumPriceFactor.
func BuildSavePayload(s Structure, buyingPricePerUnit *decimal.Decimal, minimumPriceFactor decimal.Decimal) SavePayload {
	if !minimumPriceFactor.IsPositive() {
		minimumPriceFactor = DefaultMinimumPriceFactor
	}
	calc := NewPriceCalculator()
	stock := s.Stocks()
	total := s.TotalPiecesPerMaster()
	stockPieces := TotalPieces(s, stock)
	retail := s.InnermostCountableIndex()

	payload := SavePayload{
		BuyingPrice:          roundPtr(calc.BuyingPerPiece(s, buyingPricePerUnit)),
		BuyingPricePerUnit:   roundPtr(buyingPricePerUnit),
		ProfitPerPiece:       calc.ProfitPerPiece(s, retail, buyingPricePerUnit),
		ProfitPerMaster:      calc.ProfitPerMaster(s, buyingPricePerUnit),
		Stock:                stockPieces,
		StockInSupplierUnits: decimal.NewFromInt(stockPieces).Div(decimal.NewFromInt(total)).Round(priceScale),
		Unit:                 supplierUnit(s),
		SupplierUnit:         supplierUnit(s),
		SupplierUnitQuantity: total,
		PackagingStructure:   make([]PayloadLayer, 0, len(s)),
	}

	if layer, ok := s.Countable(retail); ok && layer.HasPrice() {
		payload.SellingPrice = roundPtr(layer.SellingPrice)
	}
	payload.SellingPricePerPiece = retailPiecePrice(calc, s, retail)
	if payload.SellingPrice != nil {
		v := payload.SellingPrice.Mul(minimumPriceFactor).Round(priceScale)
		payload.MinimumPrice = &v
	}

	for _, l := range s {
		pl := PayloadLayer{Quantity: l.QuantityValue(), Unit: l.UnitCode()}
		if c, ok := l.(*CountableLayer); ok {
			pl.SellingPrice = roundPtr(c.SellingPrice)
			st := c.Stock
			pl.Stock = &st
		}
		payload.PackagingStructure = append(payload.PackagingStructure, pl)
	}
	return payload
}

// BuildSavePayload flattens the record into a save payload.
func (p *ProductPackaging) BuildSavePayload(minimumPriceFactor decimal.Decimal) SavePayload {
	payload := BuildSavePayload(p.Layers, p.BuyingPricePerUnit, minimumPriceFactor)
	payload.AutoCalculate = p.AutoCalculate
	return payload
}

// retailPiecePrice is the retail layer's own price, else the master price
// spread over its pieces.
func retailPiecePrice(calc *PriceCalculator, s Structure, retail int) *decimal.Decimal {
	if v := calc.SellingPerPiece(s, retail); v != nil {
		return roundPtr(v)
	}
	master, ok := s.Master()
	if !ok || !master.HasPrice() {
		return nil
	}
	v := master.SellingPrice.Div(decimal.NewFromInt(s.TotalPiecesPerMaster())).Round(priceScale)
	return &v
}
