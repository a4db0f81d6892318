package packaging

import (
	"strings"
	"time"

	"github.com/goodsdist/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const maxNameLength = 200

// ProductPackaging is the aggregate root owning a product's packaging
// structure, its master-unit buying price and the auto-calculate toggle.
type ProductPackaging struct {
	shared.TenantAggregateRoot
	Name               string
	BuyingPricePerUnit *decimal.Decimal
	Layers             Structure
	AutoCalculate      bool
}

// RecomputeResult describes what a recompute changed.
type RecomputeResult struct {
	RepricedLayers []int
	CarriedLayers  []int
}

// Changed reports whether any derived value was rewritten.
func (r RecomputeResult) Changed() bool {
	return len(r.RepricedLayers) > 0 || len(r.CarriedLayers) > 0
}

// NewProductPackaging creates a packaging record and brings its derived
// prices and stock into canonical form.
func NewProductPackaging(
	tenantID uuid.UUID,
	name string,
	buyingPricePerUnit *decimal.Decimal,
	layers []LayerInput,
	autoCalculate bool,
) (*ProductPackaging, error) {
	name = strings.TrimSpace(name)
	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := validateBuyingPrice(buyingPricePerUnit); err != nil {
		return nil, err
	}
	structure, err := BuildStructure(layers)
	if err != nil {
		return nil, err
	}

	p := &ProductPackaging{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                name,
		BuyingPricePerUnit:  copyDecimal(buyingPricePerUnit),
		Layers:              structure,
		AutoCalculate:       autoCalculate,
	}
	p.Recompute()
	p.AddDomainEvent(NewPackagingCreatedEvent(p))
	return p, nil
}

// Recompute runs auto price propagation (when enabled) and then the stock
// cascade. Values already equal to their derived form are not rewritten.
func (p *ProductPackaging) Recompute() RecomputeResult {
	var result RecomputeResult
	if p.AutoCalculate {
		result.RepricedLayers = NewPriceCalculator().AutoCalculate(p.Layers)
	}

	before := p.Layers.Stocks()
	after := Normalize(p.Layers, before)
	for i := len(p.Layers) - 1; i >= 0; i-- {
		c, ok := p.Layers.Countable(i)
		if !ok || before[i] == after[i] {
			continue
		}
		c.Stock = after[i]
		if i > 0 && after[i] < before[i] {
			result.CarriedLayers = append(result.CarriedLayers, i)
		}
	}
	return result
}

// Rename changes the product name.
func (p *ProductPackaging) Rename(name string) error {
	name = strings.TrimSpace(name)
	if err := validateName(name); err != nil {
		return err
	}
	p.Name = name
	p.touch()
	return nil
}

// ReplaceLayers swaps the whole structure for a new one.
func (p *ProductPackaging) ReplaceLayers(layers []LayerInput) (RecomputeResult, error) {
	structure, err := BuildStructure(layers)
	if err != nil {
		return RecomputeResult{}, err
	}
	p.Layers = structure
	result := p.Recompute()
	p.touch()
	p.AddDomainEvent(NewPackagingLayersReplacedEvent(p))
	return result, nil
}

// SetLayerPrice sets or clears (nil) the selling price at index. With
// auto-calculate on, non-master prices are re-derived from the master price
// right after, so only a master price edit has a lasting effect.
func (p *ProductPackaging) SetLayerPrice(index int, price *decimal.Decimal) (RecomputeResult, error) {
	layer, err := p.countableAt(index)
	if err != nil {
		return RecomputeResult{}, err
	}
	if price != nil && price.IsNegative() {
		return RecomputeResult{}, ErrInvalidPrice("Selling price cannot be negative")
	}
	layer.SellingPrice = copyDecimal(price)
	result := p.Recompute()
	p.touch()
	p.addRepricedEvent(result)
	return result, nil
}

// SetBuyingPrice sets or clears the cost of one master unit.
func (p *ProductPackaging) SetBuyingPrice(price *decimal.Decimal) error {
	if err := validateBuyingPrice(price); err != nil {
		return err
	}
	p.BuyingPricePerUnit = copyDecimal(price)
	p.touch()
	return nil
}

// SetAutoCalculate toggles auto price propagation. Turning it on derives the
// non-master prices immediately.
func (p *ProductPackaging) SetAutoCalculate(enabled bool) RecomputeResult {
	p.AutoCalculate = enabled
	result := p.Recompute()
	p.touch()
	p.addRepricedEvent(result)
	return result
}

// SetLayerStock records a loose count at index, subject to policy, and then
// cascades.
func (p *ProductPackaging) SetLayerStock(index int, value int64, policy StockEntryPolicy) (RecomputeResult, error) {
	layer, err := p.countableAt(index)
	if err != nil {
		return RecomputeResult{}, err
	}
	accepted, err := p.Layers.ApplyEntryPolicy(policy, index, value)
	if err != nil {
		return RecomputeResult{}, err
	}
	stock := p.Layers.Stocks()
	stock[index] = accepted
	if _, ok := CheckedTotalPieces(p.Layers, stock); !ok {
		return RecomputeResult{}, ErrStockTooLarge
	}
	layer.Stock = accepted
	result := p.Recompute()
	p.touch()
	return result, nil
}

// Replenish adds received loose counts per layer and cascades. Counts must
// be non-negative and address countable layers.
func (p *ProductPackaging) Replenish(received StockMap) (RecomputeResult, error) {
	if len(received) == 0 {
		return RecomputeResult{}, ErrInvalidStock("Nothing to replenish")
	}
	for index, qty := range received {
		if _, err := p.countableAt(index); err != nil {
			return RecomputeResult{}, err
		}
		if qty < 0 {
			return RecomputeResult{}, ErrInvalidStock("Replenished quantity cannot be negative")
		}
		if qty > MaxStockPieces {
			return RecomputeResult{}, ErrStockTooLarge
		}
	}

	stock := p.Layers.Stocks()
	for index, qty := range received {
		stock[index] += qty
	}
	if _, ok := CheckedTotalPieces(p.Layers, stock); !ok {
		return RecomputeResult{}, ErrStockTooLarge
	}

	before := p.TotalStockPieces()
	for index, qty := range received {
		layer, _ := p.Layers.Countable(index)
		layer.Stock += qty
	}
	result := p.Recompute()
	p.touch()
	p.AddDomainEvent(NewPackagingStockReplenishedEvent(p, p.TotalStockPieces()-before))
	return result, nil
}

// TotalPiecesPerMaster is the number of retail pieces in one master unit.
func (p *ProductPackaging) TotalPiecesPerMaster() int64 {
	return p.Layers.TotalPiecesPerMaster()
}

// TotalStockPieces is the stock rolled up into retail pieces.
func (p *ProductPackaging) TotalStockPieces() int64 {
	return TotalPieces(p.Layers, p.Layers.Stocks())
}

// StockInSupplierUnits is the stock expressed in master units, rounded to cents.
func (p *ProductPackaging) StockInSupplierUnits() decimal.Decimal {
	return decimal.NewFromInt(p.TotalStockPieces()).
		Div(decimal.NewFromInt(p.TotalPiecesPerMaster())).
		Round(priceScale)
}

// Pricing returns the pricing read model.
func (p *ProductPackaging) Pricing() Pricing {
	return NewPriceCalculator().Summarize(p.Layers, p.BuyingPricePerUnit)
}

func (p *ProductPackaging) countableAt(index int) (*CountableLayer, error) {
	if !p.Layers.InRange(index) {
		return nil, ErrLayerIndexOutOfRange
	}
	layer, ok := p.Layers.Countable(index)
	if !ok {
		return nil, ErrMeasurementLayer
	}
	return layer, nil
}

func (p *ProductPackaging) addRepricedEvent(result RecomputeResult) {
	if len(result.RepricedLayers) > 0 {
		p.AddDomainEvent(NewPackagingPricesRecomputedEvent(p, result.RepricedLayers))
	}
}

func (p *ProductPackaging) touch() {
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}

func validateName(name string) error {
	if name == "" {
		return newError(CodeInvalidName, "Product name cannot be empty")
	}
	if len(name) > maxNameLength {
		return newError(CodeInvalidName, "Product name cannot exceed 200 characters")
	}
	return nil
}

func validateBuyingPrice(price *decimal.Decimal) error {
	if price != nil && price.IsNegative() {
		return ErrInvalidPrice("Buying price cannot be negative")
	}
	return nil
}

func copyDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}
