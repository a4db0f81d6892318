package models

import (
	"github.com/goodsdist/backend/internal/domain/packaging"
	"github.com/goodsdist/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductPackagingModel is the persistence model for the ProductPackaging aggregate.
type ProductPackagingModel struct {
	TenantAggregateModel
	Name               string                `gorm:"type:varchar(200);not null;index"`
	BuyingPricePerUnit decimal.NullDecimal   `gorm:"type:decimal(18,4)"`
	AutoCalculate      bool                  `gorm:"not null"`
	Layers             []PackagingLayerModel `gorm:"foreignKey:PackagingID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (ProductPackagingModel) TableName() string {
	return "product_packagings"
}

// PackagingLayerModel is one row per layer, ordered by Position (0 = master).
type PackagingLayerModel struct {
	ID           uuid.UUID           `gorm:"type:uuid;primaryKey"`
	PackagingID  uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex:idx_packaging_layer_position,priority:1"`
	TenantID     uuid.UUID           `gorm:"type:uuid;not null;index"`
	Position     int                 `gorm:"not null;uniqueIndex:idx_packaging_layer_position,priority:2"`
	Kind         string              `gorm:"type:varchar(20);not null"`
	Quantity     decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	Unit         string              `gorm:"type:varchar(20);not null"`
	SellingPrice decimal.NullDecimal `gorm:"type:decimal(18,4)"`
	Stock        *int64
}

// TableName returns the table name for GORM
func (PackagingLayerModel) TableName() string {
	return "packaging_layers"
}

// ToDomain converts the persistence model to the domain aggregate.
func (m *ProductPackagingModel) ToDomain() *packaging.ProductPackaging {
	p := &packaging.ProductPackaging{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		Name:                m.Name,
		AutoCalculate:       m.AutoCalculate,
		Layers:              make(packaging.Structure, 0, len(m.Layers)),
	}
	if m.BuyingPricePerUnit.Valid {
		v := m.BuyingPricePerUnit.Decimal
		p.BuyingPricePerUnit = &v
	}
	for _, lm := range m.Layers {
		p.Layers = append(p.Layers, lm.ToDomain())
	}
	return p
}

// ToDomain converts a layer row to its domain variant.
func (m *PackagingLayerModel) ToDomain() packaging.Layer {
	if m.Kind == string(valueobject.UnitKindMeasurement) {
		return &packaging.MeasurementLayer{Quantity: m.Quantity, Unit: m.Unit}
	}
	layer := &packaging.CountableLayer{
		Quantity: m.Quantity.IntPart(),
		Unit:     m.Unit,
	}
	if m.SellingPrice.Valid {
		v := m.SellingPrice.Decimal
		layer.SellingPrice = &v
	}
	if m.Stock != nil {
		layer.Stock = *m.Stock
	}
	return layer
}

// FromDomain populates the persistence model from the domain aggregate.
func (m *ProductPackagingModel) FromDomain(p *packaging.ProductPackaging) {
	m.FromDomainTenantAggregateRoot(p.TenantAggregateRoot)
	m.Name = p.Name
	m.AutoCalculate = p.AutoCalculate
	m.BuyingPricePerUnit = decimal.NullDecimal{}
	if p.BuyingPricePerUnit != nil {
		m.BuyingPricePerUnit = decimal.NewNullDecimal(*p.BuyingPricePerUnit)
	}
	m.Layers = make([]PackagingLayerModel, 0, len(p.Layers))
	for i, l := range p.Layers {
		m.Layers = append(m.Layers, PackagingLayerModelFromDomain(p.ID, p.TenantID, i, l))
	}
}

// PackagingLayerModelFromDomain builds the row for the layer at position.
func PackagingLayerModelFromDomain(packagingID, tenantID uuid.UUID, position int, l packaging.Layer) PackagingLayerModel {
	lm := PackagingLayerModel{
		ID:          uuid.New(),
		PackagingID: packagingID,
		TenantID:    tenantID,
		Position:    position,
		Kind:        string(l.Kind()),
		Quantity:    l.QuantityValue(),
		Unit:        l.UnitCode(),
	}
	if c, ok := l.(*packaging.CountableLayer); ok {
		if c.SellingPrice != nil {
			lm.SellingPrice = decimal.NewNullDecimal(*c.SellingPrice)
		}
		stock := c.Stock
		lm.Stock = &stock
	}
	return lm
}

// ProductPackagingModelFromDomain creates a new persistence model from the domain aggregate.
func ProductPackagingModelFromDomain(p *packaging.ProductPackaging) *ProductPackagingModel {
	m := &ProductPackagingModel{}
	m.FromDomain(p)
	return m
}
