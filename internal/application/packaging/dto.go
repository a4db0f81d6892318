package packaging

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/goodsdist/backend/internal/domain/packaging"
	"github.com/goodsdist/backend/internal/infrastructure/supplier"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RawQuantity is a layer quantity as typed by a user. It accepts both JSON
// strings and numbers; the domain sanitises the text.
type RawQuantity string

// UnmarshalJSON accepts "24", 24, 0.5 or null.
func (q *RawQuantity) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*q = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*q = RawQuantity(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("quantity must be a string or a number: %w", err)
	}
	*q = RawQuantity(n.String())
	return nil
}

// LayerRequest is one layer of a packaging structure, outermost first
type LayerRequest struct {
	Quantity     RawQuantity      `json:"quantity"`
	Unit         string           `json:"unit" binding:"required,max=20,unitlabel"`
	SellingPrice *decimal.Decimal `json:"selling_price"`
	Stock        *int64           `json:"stock" binding:"omitempty,min=0"`
}

// CreatePackagingRequest represents a request to create a packaging record.
// When Layers is empty the structure is seeded from SupplierDescription.
type CreatePackagingRequest struct {
	Name                string           `json:"name" binding:"max=200"`
	BuyingPricePerUnit  *decimal.Decimal `json:"buying_price_per_unit"`
	AutoCalculate       *bool            `json:"auto_calculate"`
	Layers              []LayerRequest   `json:"layers" binding:"omitempty,dive"`
	SupplierDescription string           `json:"supplier_description" binding:"max=500"`
	CartonPrice         *decimal.Decimal `json:"carton_price"`
}

// RenamePackagingRequest represents a request to rename a packaging record
type RenamePackagingRequest struct {
	Name string `json:"name" binding:"required,min=1,max=200"`
}

// ReplaceLayersRequest replaces the whole structure
type ReplaceLayersRequest struct {
	Layers []LayerRequest `json:"layers" binding:"required,min=1,dive"`
}

// SetLayerPriceRequest sets or clears (null) a layer selling price
type SetLayerPriceRequest struct {
	SellingPrice *decimal.Decimal `json:"selling_price"`
}

// SetLayerStockRequest records a loose stock count at one layer
type SetLayerStockRequest struct {
	Stock  int64  `json:"stock" binding:"min=0"`
	Policy string `json:"policy" binding:"omitempty,oneof=carry clamp reject"`
}

// SetBuyingPriceRequest sets or clears (null) the master-unit buying price
type SetBuyingPriceRequest struct {
	BuyingPricePerUnit *decimal.Decimal `json:"buying_price_per_unit"`
}

// SetAutoCalculateRequest toggles auto price propagation
type SetAutoCalculateRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// ReplenishRequest adds received loose counts keyed by layer index
type ReplenishRequest struct {
	Stock map[int]int64 `json:"stock" binding:"required,min=1"`
}

// PreviewRequest computes prices and stock for an unsaved structure
type PreviewRequest struct {
	BuyingPricePerUnit *decimal.Decimal `json:"buying_price_per_unit"`
	AutoCalculate      *bool            `json:"auto_calculate"`
	Layers             []LayerRequest   `json:"layers" binding:"required,min=1,dive"`
}

// ParseSupplierItemRequest runs the supplier-description parser
type ParseSupplierItemRequest struct {
	Description string          `json:"description" binding:"required,max=500"`
	CartonPrice decimal.Decimal `json:"carton_price"`
}

// PackagingListFilter represents filter options for the packaging list
type PackagingListFilter struct {
	Search   string `form:"search"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// LayerResponse represents one layer in API responses. Price, stock and
// max_loose are absent for measurement layers.
type LayerResponse struct {
	Index         int              `json:"index"`
	Kind          string           `json:"kind"`
	Quantity      decimal.Decimal  `json:"quantity"`
	Unit          string           `json:"unit"`
	SellingPrice  *decimal.Decimal `json:"selling_price"`
	Stock         *int64           `json:"stock"`
	PiecesPerUnit int64            `json:"pieces_per_unit"`
	MaxLoose      *int64           `json:"max_loose,omitempty"`
}

// RecomputeResponse lists the layers a recompute rewrote
type RecomputeResponse struct {
	RepricedLayers []int `json:"repriced_layers"`
	CarriedLayers  []int `json:"carried_layers"`
}

// PackagingResponse represents a packaging record in API responses
type PackagingResponse struct {
	ID                   uuid.UUID          `json:"id"`
	TenantID             uuid.UUID          `json:"tenant_id"`
	Name                 string             `json:"name"`
	BuyingPricePerUnit   *decimal.Decimal   `json:"buying_price_per_unit"`
	AutoCalculate        bool               `json:"auto_calculate"`
	SupplierUnit         string             `json:"supplier_unit"`
	TotalPiecesPerMaster int64              `json:"total_pieces_per_master"`
	TotalStockPieces     int64              `json:"total_stock_pieces"`
	StockInSupplierUnits decimal.Decimal    `json:"stock_in_supplier_units"`
	Layers               []LayerResponse    `json:"layers"`
	Recompute            *RecomputeResponse `json:"recompute,omitempty"`
	Version              int                `json:"version"`
	CreatedAt            time.Time          `json:"created_at"`
	UpdatedAt            time.Time          `json:"updated_at"`
}

// PackagingListResponse represents a list item for packaging records
type PackagingListResponse struct {
	ID                   uuid.UUID        `json:"id"`
	Name                 string           `json:"name"`
	SupplierUnit         string           `json:"supplier_unit"`
	LayerCount           int              `json:"layer_count"`
	TotalPiecesPerMaster int64            `json:"total_pieces_per_master"`
	TotalStockPieces     int64            `json:"total_stock_pieces"`
	MasterSellingPrice   *decimal.Decimal `json:"master_selling_price"`
	AutoCalculate        bool             `json:"auto_calculate"`
	UpdatedAt            time.Time        `json:"updated_at"`
}

// LayerPricingResponse is the per-layer pricing read model
type LayerPricingResponse struct {
	Index           int              `json:"index"`
	Unit            string           `json:"unit"`
	Measurement     bool             `json:"measurement"`
	PiecesPerUnit   int64            `json:"pieces_per_unit"`
	SellingPrice    *decimal.Decimal `json:"selling_price"`
	SellingPerPiece *decimal.Decimal `json:"selling_per_piece"`
	ProfitPerPiece  *decimal.Decimal `json:"profit_per_piece"`
	MaxLoose        *int64           `json:"max_loose,omitempty"`
}

// PricingResponse summarizes prices and profits. Unavailable values are null.
type PricingResponse struct {
	TotalPiecesPerMaster int64                  `json:"total_pieces_per_master"`
	TotalStockPieces     int64                  `json:"total_stock_pieces"`
	BuyingPricePerUnit   *decimal.Decimal       `json:"buying_price_per_unit"`
	BuyingPerPiece       *decimal.Decimal       `json:"buying_per_piece"`
	MasterSellingPrice   *decimal.Decimal       `json:"master_selling_price"`
	ProfitPerMaster      *decimal.Decimal       `json:"profit_per_master"`
	Layers               []LayerPricingResponse `json:"layers"`
}

// PayloadLayerResponse is one packagingStructure entry of the save payload
type PayloadLayerResponse struct {
	Qty          decimal.Decimal  `json:"qty"`
	Unit         string           `json:"unit"`
	SellingPrice *decimal.Decimal `json:"sellingPrice"`
	Stock        *int64           `json:"stock"`
}

// SavePayloadResponse is the record handed to the inventory create/update and
// replenish operations. Its field names follow that contract.
type SavePayloadResponse struct {
	BuyingPrice          *decimal.Decimal       `json:"buyingPrice"`
	BuyingPricePerUnit   *decimal.Decimal       `json:"buyingPricePerUnit"`
	SellingPrice         *decimal.Decimal       `json:"sellingPrice"`
	SellingPricePerPiece *decimal.Decimal       `json:"sellingPricePerPiece"`
	MinimumPrice         *decimal.Decimal       `json:"minimumPrice"`
	ProfitPerPiece       *decimal.Decimal       `json:"profitPerPiece"`
	ProfitPerMaster      *decimal.Decimal       `json:"profitPerMaster"`
	Stock                int64                  `json:"stock"`
	StockInSupplierUnits decimal.Decimal        `json:"stockInSupplierUnits"`
	Unit                 string                 `json:"unit"`
	SupplierUnit         string                 `json:"supplierUnit"`
	SupplierUnitQuantity int64                  `json:"supplierUnitQuantity"`
	AutoCalculate        bool                   `json:"autoCalculate"`
	PackagingStructure   []PayloadLayerResponse `json:"packagingStructure"`
}

// PreviewResponse is the outcome of computing an unsaved structure
type PreviewResponse struct {
	Layers    []LayerResponse     `json:"layers"`
	Recompute RecomputeResponse   `json:"recompute"`
	Pricing   PricingResponse     `json:"pricing"`
	Payload   SavePayloadResponse `json:"payload"`
}

// ReplenishResponse is the receipt of a replenishment. Replayed is true when
// the receipt was returned for a repeated idempotency key.
type ReplenishResponse struct {
	PackagingID uuid.UUID         `json:"packaging_id"`
	Version     int               `json:"version"`
	AddedPieces int64             `json:"added_pieces"`
	TotalPieces int64             `json:"total_pieces"`
	Stock       map[int]int64     `json:"stock"`
	Recompute   RecomputeResponse `json:"recompute"`
	RecordedAt  time.Time         `json:"recorded_at"`
	Replayed    bool              `json:"replayed"`
}

// ParsedLayerResponse is one layer guessed by the supplier parser
type ParsedLayerResponse struct {
	Qty  decimal.Decimal `json:"qty"`
	Unit string          `json:"unit"`
}

// SupplierParseResponse is the advisory structure read from a supplier
// description. Keys are camelCase, like SavePayloadResponse.
type SupplierParseResponse struct {
	CleanName                 string                `json:"cleanName"`
	PackagingType             string                `json:"packagingType"`
	Recognized                bool                  `json:"recognized"`
	SupplierUnit              string                `json:"supplierUnit"`
	Layers                    []ParsedLayerResponse `json:"layers"`
	TotalSellableUnits        int64                 `json:"totalSellableUnits"`
	CalculatedPricePerPiece   decimal.Decimal       `json:"calculatedPricePerPiece"`
	CalculatedPricePerSubUnit *decimal.Decimal      `json:"calculatedPricePerSubUnit"`
	CartonPrice               decimal.Decimal       `json:"cartonPrice"`
}

func toLayerInputs(layers []LayerRequest) []packaging.LayerInput {
	inputs := make([]packaging.LayerInput, 0, len(layers))
	for _, l := range layers {
		inputs = append(inputs, packaging.LayerInput{
			Quantity:     string(l.Quantity),
			Unit:         l.Unit,
			SellingPrice: l.SellingPrice,
			Stock:        l.Stock,
		})
	}
	return inputs
}

// ToLayerResponses converts a structure to layer responses
func ToLayerResponses(s packaging.Structure) []LayerResponse {
	out := make([]LayerResponse, 0, len(s))
	for i, l := range s {
		lr := LayerResponse{
			Index:         i,
			Kind:          string(l.Kind()),
			Quantity:      l.QuantityValue(),
			Unit:          l.UnitCode(),
			PiecesPerUnit: s.PieceMultiplier(i),
		}
		if c, ok := l.(*packaging.CountableLayer); ok {
			lr.SellingPrice = c.SellingPrice
			stock := c.Stock
			lr.Stock = &stock
			if max, bounded := s.MaxLoose(i); bounded {
				lr.MaxLoose = &max
			}
		}
		out = append(out, lr)
	}
	return out
}

// ToPackagingResponse converts a domain record to a response
func ToPackagingResponse(p *packaging.ProductPackaging) PackagingResponse {
	return PackagingResponse{
		ID:                   p.ID,
		TenantID:             p.TenantID,
		Name:                 p.Name,
		BuyingPricePerUnit:   p.BuyingPricePerUnit,
		AutoCalculate:        p.AutoCalculate,
		SupplierUnit:         supplierUnitOf(p.Layers),
		TotalPiecesPerMaster: p.TotalPiecesPerMaster(),
		TotalStockPieces:     p.TotalStockPieces(),
		StockInSupplierUnits: p.StockInSupplierUnits(),
		Layers:               ToLayerResponses(p.Layers),
		Version:              p.Version,
		CreatedAt:            p.CreatedAt,
		UpdatedAt:            p.UpdatedAt,
	}
}

// ToPackagingListResponse converts a domain record to a list item
func ToPackagingListResponse(p *packaging.ProductPackaging) PackagingListResponse {
	return PackagingListResponse{
		ID:                   p.ID,
		Name:                 p.Name,
		SupplierUnit:         supplierUnitOf(p.Layers),
		LayerCount:           p.Layers.Len(),
		TotalPiecesPerMaster: p.TotalPiecesPerMaster(),
		TotalStockPieces:     p.TotalStockPieces(),
		MasterSellingPrice:   packaging.NewPriceCalculator().MasterSellingPrice(p.Layers),
		AutoCalculate:        p.AutoCalculate,
		UpdatedAt:            p.UpdatedAt,
	}
}

// ToRecomputeResponse converts a recompute result; nil slices become empty.
func ToRecomputeResponse(r packaging.RecomputeResult) RecomputeResponse {
	resp := RecomputeResponse{
		RepricedLayers: r.RepricedLayers,
		CarriedLayers:  r.CarriedLayers,
	}
	if resp.RepricedLayers == nil {
		resp.RepricedLayers = []int{}
	}
	if resp.CarriedLayers == nil {
		resp.CarriedLayers = []int{}
	}
	return resp
}

// ToPricingResponse converts the pricing read model
func ToPricingResponse(p packaging.Pricing, totalStockPieces int64) PricingResponse {
	resp := PricingResponse{
		TotalPiecesPerMaster: p.TotalPiecesPerMaster,
		TotalStockPieces:     totalStockPieces,
		BuyingPricePerUnit:   p.BuyingPricePerUnit,
		BuyingPerPiece:       p.BuyingPerPiece,
		MasterSellingPrice:   p.MasterSellingPrice,
		ProfitPerMaster:      p.ProfitPerMaster,
		Layers:               make([]LayerPricingResponse, 0, len(p.Layers)),
	}
	for _, l := range p.Layers {
		resp.Layers = append(resp.Layers, LayerPricingResponse{
			Index:           l.Index,
			Unit:            l.Unit,
			Measurement:     l.Measurement,
			PiecesPerUnit:   l.PiecesPerUnit,
			SellingPrice:    l.SellingPrice,
			SellingPerPiece: l.SellingPerPiece,
			ProfitPerPiece:  l.ProfitPerPiece,
			MaxLoose:        l.MaxLoose,
		})
	}
	return resp
}

// ToSavePayloadResponse converts the save payload
func ToSavePayloadResponse(p packaging.SavePayload) SavePayloadResponse {
	resp := SavePayloadResponse{
		BuyingPrice:          p.BuyingPrice,
		BuyingPricePerUnit:   p.BuyingPricePerUnit,
		SellingPrice:         p.SellingPrice,
		SellingPricePerPiece: p.SellingPricePerPiece,
		MinimumPrice:         p.MinimumPrice,
		ProfitPerPiece:       p.ProfitPerPiece,
		ProfitPerMaster:      p.ProfitPerMaster,
		Stock:                p.Stock,
		StockInSupplierUnits: p.StockInSupplierUnits,
		Unit:                 p.Unit,
		SupplierUnit:         p.SupplierUnit,
		SupplierUnitQuantity: p.SupplierUnitQuantity,
		AutoCalculate:        p.AutoCalculate,
		PackagingStructure:   make([]PayloadLayerResponse, 0, len(p.PackagingStructure)),
	}
	for _, l := range p.PackagingStructure {
		resp.PackagingStructure = append(resp.PackagingStructure, PayloadLayerResponse{
			Qty:          l.Quantity,
			Unit:         l.Unit,
			SellingPrice: l.SellingPrice,
			Stock:        l.Stock,
		})
	}
	return resp
}

// ToSupplierParseResponse converts a parser result
func ToSupplierParseResponse(r supplier.ParseResult) SupplierParseResponse {
	resp := SupplierParseResponse{
		CleanName:                 r.CleanName,
		PackagingType:             string(r.PackagingType),
		Recognized:                r.Recognized(),
		SupplierUnit:              r.SupplierUnit,
		Layers:                    make([]ParsedLayerResponse, 0, len(r.Layers)),
		TotalSellableUnits:        r.TotalSellableUnits,
		CalculatedPricePerPiece:   r.CalculatedPricePerPiece,
		CalculatedPricePerSubUnit: r.CalculatedPricePerSubUnit,
		CartonPrice:               r.CartonPrice,
	}
	for _, l := range r.Layers {
		resp.Layers = append(resp.Layers, ParsedLayerResponse{Qty: l.Quantity, Unit: l.Unit})
	}
	return resp
}

func supplierUnitOf(s packaging.Structure) string {
	if master, ok := s.Master(); ok {
		return master.Unit
	}
	return ""
}
