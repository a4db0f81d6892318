package packaging

import (
	"github.com/goodsdist/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Aggregate type constant
const AggregateTypeProductPackaging = "ProductPackaging"

// Event type constants
const (
	EventTypePackagingCreated          = "PackagingCreated"
	EventTypePackagingLayersReplaced   = "PackagingLayersReplaced"
	EventTypePackagingStockReplenished = "PackagingStockReplenished"
	EventTypePackagingPricesRecomputed = "PackagingPricesRecomputed"
	EventTypePackagingDeleted          = "PackagingDeleted"
)

// PackagingCreatedEvent is published when a packaging record is created
type PackagingCreatedEvent struct {
	shared.BaseDomainEvent
	PackagingID          uuid.UUID `json:"packaging_id"`
	Name                 string    `json:"name"`
	SupplierUnit         string    `json:"supplier_unit"`
	TotalPiecesPerMaster int64     `json:"total_pieces_per_master"`
}

// NewPackagingCreatedEvent creates a new PackagingCreatedEvent
func NewPackagingCreatedEvent(p *ProductPackaging) *PackagingCreatedEvent {
	return &PackagingCreatedEvent{
		BaseDomainEvent:      shared.NewBaseDomainEvent(EventTypePackagingCreated, AggregateTypeProductPackaging, p.ID, p.TenantID),
		PackagingID:          p.ID,
		Name:                 p.Name,
		SupplierUnit:         supplierUnit(p.Layers),
		TotalPiecesPerMaster: p.TotalPiecesPerMaster(),
	}
}

// PackagingLayersReplacedEvent is published when the structure is replaced
type PackagingLayersReplacedEvent struct {
	shared.BaseDomainEvent
	PackagingID          uuid.UUID `json:"packaging_id"`
	LayerCount           int       `json:"layer_count"`
	TotalPiecesPerMaster int64     `json:"total_pieces_per_master"`
}

// NewPackagingLayersReplacedEvent creates a new PackagingLayersReplacedEvent
func NewPackagingLayersReplacedEvent(p *ProductPackaging) *PackagingLayersReplacedEvent {
	return &PackagingLayersReplacedEvent{
		BaseDomainEvent:      shared.NewBaseDomainEvent(EventTypePackagingLayersReplaced, AggregateTypeProductPackaging, p.ID, p.TenantID),
		PackagingID:          p.ID,
		LayerCount:           p.Layers.Len(),
		TotalPiecesPerMaster: p.TotalPiecesPerMaster(),
	}
}

// PackagingStockReplenishedEvent is published after a replenishment
type PackagingStockReplenishedEvent struct {
	shared.BaseDomainEvent
	PackagingID uuid.UUID `json:"packaging_id"`
	AddedPieces int64     `json:"added_pieces"`
	TotalPieces int64     `json:"total_pieces"`
}

// NewPackagingStockReplenishedEvent creates a new PackagingStockReplenishedEvent
func NewPackagingStockReplenishedEvent(p *ProductPackaging, added int64) *PackagingStockReplenishedEvent {
	return &PackagingStockReplenishedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePackagingStockReplenished, AggregateTypeProductPackaging, p.ID, p.TenantID),
		PackagingID:     p.ID,
		AddedPieces:     added,
		TotalPieces:     p.TotalStockPieces(),
	}
}

// PackagingPricesRecomputedEvent is published when auto-calculate rewrites layer prices
type PackagingPricesRecomputedEvent struct {
	shared.BaseDomainEvent
	PackagingID    uuid.UUID `json:"packaging_id"`
	RepricedLayers []int     `json:"repriced_layers"`
}

// NewPackagingPricesRecomputedEvent creates a new PackagingPricesRecomputedEvent
func NewPackagingPricesRecomputedEvent(p *ProductPackaging, layers []int) *PackagingPricesRecomputedEvent {
	return &PackagingPricesRecomputedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePackagingPricesRecomputed, AggregateTypeProductPackaging, p.ID, p.TenantID),
		PackagingID:     p.ID,
		RepricedLayers:  layers,
	}
}

// PackagingDeletedEvent is published when a packaging record is removed
type PackagingDeletedEvent struct {
	shared.BaseDomainEvent
	PackagingID uuid.UUID `json:"packaging_id"`
}

// NewPackagingDeletedEvent creates a new PackagingDeletedEvent
func NewPackagingDeletedEvent(p *ProductPackaging) *PackagingDeletedEvent {
	return &PackagingDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePackagingDeleted, AggregateTypeProductPackaging, p.ID, p.TenantID),
		PackagingID:     p.ID,
	}
}

func supplierUnit(s Structure) string {
	if len(s) == 0 {
		return ""
	}
	return s[0].UnitCode()
}
