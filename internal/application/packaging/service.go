// Package packaging holds the packaging use cases: keeping a product's
// packaging structure, layer prices and loose stock consistent across edits,
// and producing the payload handed to the inventory record.
package packaging

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goodsdist/backend/internal/domain/packaging"
	"github.com/goodsdist/backend/internal/domain/shared"
	"github.com/goodsdist/backend/internal/infrastructure/logger"
	"github.com/goodsdist/backend/internal/infrastructure/supplier"
	"github.com/goodsdist/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Recompute operation names used in logs and metrics
const (
	OperationCreate        = "create"
	OperationReplaceLayers = "replace_layers"
	OperationSetPrice      = "set_price"
	OperationSetStock      = "set_stock"
	OperationAutoCalculate = "auto_calculate"
	OperationReplenish     = "replenish"
	OperationPreview       = "preview"
)

// ServiceConfig holds the pricing and stock-entry rules applied by the service
type ServiceConfig struct {
	MinimumPriceFactor   decimal.Decimal
	StockEntryPolicy     packaging.StockEntryPolicy
	DefaultAutoCalculate bool
	Replay               shared.ReplayConfig
}

// DefaultServiceConfig returns the default service configuration
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		MinimumPriceFactor:   packaging.DefaultMinimumPriceFactor,
		StockEntryPolicy:     packaging.StockPolicyCarry,
		DefaultAutoCalculate: true,
		Replay:               shared.DefaultReplayConfig(),
	}
}

// PackagingService handles packaging-related business operations
type PackagingService struct {
	repo           packaging.ProductPackagingRepository
	parser         *supplier.Parser
	cfg            ServiceConfig
	eventPublisher shared.EventPublisher
	replayStore    shared.ReplayStore
	metrics        *telemetry.PackagingMetrics
	logger         *zap.Logger
}

// NewPackagingService creates a new PackagingService
func NewPackagingService(
	repo packaging.ProductPackagingRepository,
	parser *supplier.Parser,
	cfg ServiceConfig,
	log *zap.Logger,
) *PackagingService {
	if log == nil {
		log = zap.NewNop()
	}
	if parser == nil {
		parser = supplier.NewParser()
	}
	return &PackagingService{
		repo:    repo,
		parser:  parser,
		cfg:     cfg,
		metrics: telemetry.NewNoopPackagingMetrics(),
		logger:  log.Named("packaging"),
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *PackagingService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetReplayStore enables idempotent replenishment
func (s *PackagingService) SetReplayStore(store shared.ReplayStore) {
	s.replayStore = store
}

// SetMetrics sets the packaging metrics recorder
func (s *PackagingService) SetMetrics(metrics *telemetry.PackagingMetrics) {
	if metrics != nil {
		s.metrics = metrics
	}
}

// Create creates a packaging record. Without explicit layers the structure,
// the name and the buying price are seeded from the supplier description.
func (s *PackagingService) Create(ctx context.Context, tenantID uuid.UUID, req CreatePackagingRequest) (*PackagingResponse, error) {
	name := req.Name
	buying := req.BuyingPricePerUnit
	inputs := toLayerInputs(req.Layers)

	if len(inputs) == 0 {
		if req.SupplierDescription == "" {
			return nil, packaging.ErrEmptyStructure
		}
		cartonPrice := decimal.Zero
		if req.CartonPrice != nil {
			cartonPrice = *req.CartonPrice
		}
		parsed := s.parser.Parse(req.SupplierDescription, cartonPrice)
		s.metrics.RecordParse(ctx, string(parsed.PackagingType))
		inputs = parsed.ToLayerInputs()
		if name == "" {
			name = parsed.CleanName
		}
		if buying == nil && req.CartonPrice != nil {
			buying = req.CartonPrice
		}
	}

	autoCalculate := s.cfg.DefaultAutoCalculate
	if req.AutoCalculate != nil {
		autoCalculate = *req.AutoCalculate
	}

	start := time.Now()
	draft, result, err := newDraft(buying, inputs, autoCalculate)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordRecompute(ctx, tenantID, OperationCreate, len(result.CarriedLayers), len(result.RepricedLayers), time.Since(start))

	p, err := packaging.NewProductPackaging(tenantID, name, buying, draft.Layers.Inputs(), autoCalculate)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, p); err != nil {
		return nil, err
	}
	s.publishDomainEvents(ctx, p)

	logger.For(ctx, s.logger).Info("Packaging created",
		zap.String("packaging_id", p.ID.String()),
		zap.String("name", p.Name),
		zap.Int("layers", p.Layers.Len()),
		zap.Int64("pieces_per_master", p.TotalPiecesPerMaster()),
	)

	resp := ToPackagingResponse(p)
	return &resp, nil
}

// GetByID retrieves a packaging record by ID
func (s *PackagingService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*PackagingResponse, error) {
	p, err := s.repo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToPackagingResponse(p)
	return &resp, nil
}

// List retrieves packaging records with filtering and pagination
func (s *PackagingService) List(ctx context.Context, tenantID uuid.UUID, filter PackagingListFilter) ([]PackagingListResponse, int64, error) {
	domainFilter := shared.DefaultFilter()
	domainFilter.Search = filter.Search
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	if filter.OrderBy != "" {
		domainFilter.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		domainFilter.OrderDir = filter.OrderDir
	}

	records, err := s.repo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	items := make([]PackagingListResponse, 0, len(records))
	for i := range records {
		items = append(items, ToPackagingListResponse(&records[i]))
	}
	return items, total, nil
}

// Delete removes a packaging record
func (s *PackagingService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	p, err := s.repo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteForTenant(ctx, tenantID, id); err != nil {
		return err
	}
	p.AddDomainEvent(packaging.NewPackagingDeletedEvent(p))
	s.publishDomainEvents(ctx, p)

	logger.For(ctx, s.logger).Info("Packaging deleted", zap.String("packaging_id", id.String()))
	return nil
}

// Rename changes the product name
func (s *PackagingService) Rename(ctx context.Context, tenantID, id uuid.UUID, req RenamePackagingRequest) (*PackagingResponse, error) {
	return s.mutate(ctx, tenantID, id, "", func(p *packaging.ProductPackaging) (packaging.RecomputeResult, error) {
		return packaging.RecomputeResult{}, p.Rename(req.Name)
	})
}

// ReplaceLayers swaps the whole packaging structure
func (s *PackagingService) ReplaceLayers(ctx context.Context, tenantID, id uuid.UUID, req ReplaceLayersRequest) (*PackagingResponse, error) {
	return s.mutate(ctx, tenantID, id, OperationReplaceLayers, func(p *packaging.ProductPackaging) (packaging.RecomputeResult, error) {
		return p.ReplaceLayers(toLayerInputs(req.Layers))
	})
}

// SetLayerPrice sets or clears the selling price of one layer
func (s *PackagingService) SetLayerPrice(ctx context.Context, tenantID, id uuid.UUID, index int, req SetLayerPriceRequest) (*PackagingResponse, error) {
	return s.mutate(ctx, tenantID, id, OperationSetPrice, func(p *packaging.ProductPackaging) (packaging.RecomputeResult, error) {
		return p.SetLayerPrice(index, req.SellingPrice)
	})
}

// SetLayerStock records a loose stock count at one layer. The request policy
// overrides the configured one.
func (s *PackagingService) SetLayerStock(ctx context.Context, tenantID, id uuid.UUID, index int, req SetLayerStockRequest) (*PackagingResponse, error) {
	policy := s.cfg.StockEntryPolicy
	if req.Policy != "" {
		parsed, err := packaging.ParseStockEntryPolicy(req.Policy)
		if err != nil {
			return nil, err
		}
		policy = parsed
	}
	return s.mutate(ctx, tenantID, id, OperationSetStock, func(p *packaging.ProductPackaging) (packaging.RecomputeResult, error) {
		return p.SetLayerStock(index, req.Stock, policy)
	})
}

// SetBuyingPrice sets or clears the master-unit buying price
func (s *PackagingService) SetBuyingPrice(ctx context.Context, tenantID, id uuid.UUID, req SetBuyingPriceRequest) (*PackagingResponse, error) {
	return s.mutate(ctx, tenantID, id, "", func(p *packaging.ProductPackaging) (packaging.RecomputeResult, error) {
		return packaging.RecomputeResult{}, p.SetBuyingPrice(req.BuyingPricePerUnit)
	})
}

// SetAutoCalculate toggles auto price propagation
func (s *PackagingService) SetAutoCalculate(ctx context.Context, tenantID, id uuid.UUID, req SetAutoCalculateRequest) (*PackagingResponse, error) {
	enabled := req.Enabled != nil && *req.Enabled
	return s.mutate(ctx, tenantID, id, OperationAutoCalculate, func(p *packaging.ProductPackaging) (packaging.RecomputeResult, error) {
		return p.SetAutoCalculate(enabled), nil
	})
}

// Replenish adds received stock. A non-empty idempotencyKey makes retries
// return the first receipt instead of adding the stock again.
func (s *PackagingService) Replenish(ctx context.Context, tenantID, id uuid.UUID, idempotencyKey string, req ReplenishRequest) (*ReplenishResponse, error) {
	log := logger.For(ctx, s.logger)
	replayKey := s.replayKey(tenantID, id, idempotencyKey)

	if replayKey != "" {
		replayed, claimed, err := s.claimReplay(ctx, replayKey)
		if err != nil {
			return nil, err
		}
		if replayed != nil {
			s.metrics.RecordReplay(ctx, OperationReplenish)
			log.Info("Replenishment replayed",
				zap.String("packaging_id", id.String()),
				zap.String("idempotency_key", idempotencyKey),
			)
			return replayed, nil
		}
		if !claimed {
			replayKey = ""
		}
	}

	resp, err := s.applyReplenish(ctx, tenantID, id, req)
	if err != nil {
		if replayKey != "" {
			s.releaseReplay(ctx, replayKey)
		}
		return nil, err
	}

	if replayKey != "" {
		s.rememberReceipt(ctx, replayKey, resp)
	}

	log.Info("Packaging replenished",
		zap.String("packaging_id", id.String()),
		zap.Int64("added_pieces", resp.AddedPieces),
		zap.Int64("total_pieces", resp.TotalPieces),
	)
	return resp, nil
}

func (s *PackagingService) applyReplenish(ctx context.Context, tenantID, id uuid.UUID, req ReplenishRequest) (*ReplenishResponse, error) {
	p, err := s.repo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	before := p.TotalStockPieces()

	start := time.Now()
	result, err := p.Replenish(packaging.StockMap(req.Stock))
	if err != nil {
		return nil, err
	}
	s.metrics.RecordRecompute(ctx, tenantID, OperationReplenish, len(result.CarriedLayers), len(result.RepricedLayers), time.Since(start))

	if err := s.repo.Save(ctx, p); err != nil {
		return nil, err
	}
	s.publishDomainEvents(ctx, p)

	return &ReplenishResponse{
		PackagingID: p.ID,
		Version:     p.Version,
		AddedPieces: p.TotalStockPieces() - before,
		TotalPieces: p.TotalStockPieces(),
		Stock:       p.Layers.Stocks(),
		Recompute:   ToRecomputeResponse(result),
		RecordedAt:  time.Now().UTC(),
	}, nil
}

// GetPricing returns the pricing read model of a record
func (s *PackagingService) GetPricing(ctx context.Context, tenantID, id uuid.UUID) (*PricingResponse, error) {
	p, err := s.repo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToPricingResponse(p.Pricing(), p.TotalStockPieces())
	return &resp, nil
}

// BuildSavePayload returns the payload handed to the inventory record
func (s *PackagingService) BuildSavePayload(ctx context.Context, tenantID, id uuid.UUID) (*SavePayloadResponse, error) {
	p, err := s.repo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToSavePayloadResponse(p.BuildSavePayload(s.cfg.MinimumPriceFactor))
	return &resp, nil
}

// Preview recomputes an unsaved structure without persisting anything
func (s *PackagingService) Preview(ctx context.Context, tenantID uuid.UUID, req PreviewRequest) (*PreviewResponse, error) {
	autoCalculate := s.cfg.DefaultAutoCalculate
	if req.AutoCalculate != nil {
		autoCalculate = *req.AutoCalculate
	}

	start := time.Now()
	p, result, err := newDraft(req.BuyingPricePerUnit, toLayerInputs(req.Layers), autoCalculate)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordRecompute(ctx, tenantID, OperationPreview, len(result.CarriedLayers), len(result.RepricedLayers), time.Since(start))

	return &PreviewResponse{
		Layers:    ToLayerResponses(p.Layers),
		Recompute: ToRecomputeResponse(result),
		Pricing:   ToPricingResponse(p.Pricing(), p.TotalStockPieces()),
		Payload:   ToSavePayloadResponse(p.BuildSavePayload(s.cfg.MinimumPriceFactor)),
	}, nil
}

// ParseSupplierItem reads a packaging guess out of a supplier description
func (s *PackagingService) ParseSupplierItem(ctx context.Context, req ParseSupplierItemRequest) *SupplierParseResponse {
	result := s.parser.Parse(req.Description, req.CartonPrice)
	s.metrics.RecordParse(ctx, string(result.PackagingType))

	logger.For(ctx, s.logger).Debug("Supplier item parsed",
		zap.String("packaging_type", string(result.PackagingType)),
		zap.Int64("total_sellable_units", result.TotalSellableUnits),
	)

	resp := ToSupplierParseResponse(result)
	return &resp
}

// newDraft builds an unsaved record and brings it into canonical form,
// reporting what the recompute rewrote.
func newDraft(buying *decimal.Decimal, inputs []packaging.LayerInput, autoCalculate bool) (*packaging.ProductPackaging, packaging.RecomputeResult, error) {
	if buying != nil && buying.IsNegative() {
		return nil, packaging.RecomputeResult{}, packaging.ErrInvalidPrice("Buying price cannot be negative")
	}
	structure, err := packaging.BuildStructure(inputs)
	if err != nil {
		return nil, packaging.RecomputeResult{}, err
	}
	draft := &packaging.ProductPackaging{
		BuyingPricePerUnit: buying,
		Layers:             structure,
		AutoCalculate:      autoCalculate,
	}
	return draft, draft.Recompute(), nil
}

// mutate loads a record, applies one domain edit, saves it and publishes
// its events. An empty operation skips the recompute metrics.
func (s *PackagingService) mutate(
	ctx context.Context,
	tenantID, id uuid.UUID,
	operation string,
	edit func(p *packaging.ProductPackaging) (packaging.RecomputeResult, error),
) (*PackagingResponse, error) {
	p, err := s.repo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result, err := edit(p)
	if err != nil {
		return nil, err
	}
	if operation != "" {
		s.metrics.RecordRecompute(ctx, tenantID, operation, len(result.CarriedLayers), len(result.RepricedLayers), time.Since(start))
	}

	if err := s.repo.Save(ctx, p); err != nil {
		if errors.Is(err, shared.ErrConcurrencyConflict) {
			logger.For(ctx, s.logger).Warn("Packaging changed concurrently",
				zap.String("packaging_id", id.String()),
				zap.Int("version", p.Version),
			)
		}
		return nil, err
	}
	s.publishDomainEvents(ctx, p)

	if result.Changed() {
		logger.For(ctx, s.logger).Debug("Packaging recomputed",
			zap.String("packaging_id", id.String()),
			zap.String("operation", operation),
			zap.Ints("repriced_layers", result.RepricedLayers),
			zap.Ints("carried_layers", result.CarriedLayers),
		)
	}

	resp := ToPackagingResponse(p)
	recompute := ToRecomputeResponse(result)
	resp.Recompute = &recompute
	return &resp, nil
}

// publishDomainEvents publishes and clears the record's pending events
func (s *PackagingService) publishDomainEvents(ctx context.Context, p *packaging.ProductPackaging) {
	events := p.GetDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		p.ClearDomainEvents()
		return
	}
	// Handler failures are logged by the bus; the edit is already saved.
	_ = s.eventPublisher.Publish(ctx, events...)
	p.ClearDomainEvents()
}

func (s *PackagingService) replayKey(tenantID, id uuid.UUID, idempotencyKey string) string {
	if idempotencyKey == "" || s.replayStore == nil || !s.cfg.Replay.Enabled {
		return ""
	}
	return fmt.Sprintf("%s:%s:replenish:%s", tenantID, id, idempotencyKey)
}

// claimReplay reserves key before a replenishment is applied. It returns the
// stored receipt when the key already completed, ErrReplenishInFlight when
// another request holds the key, and claimed=false when the store is
// unavailable and the request goes ahead unguarded.
func (s *PackagingService) claimReplay(ctx context.Context, key string) (replayed *ReplenishResponse, claimed bool, err error) {
	log := logger.For(ctx, s.logger)

	stored, err := s.replayStore.Remember(ctx, key, pendingReceipt, s.cfg.Replay.TTL)
	if err != nil {
		log.Warn("Replay store unavailable, applying replenishment", zap.Error(err))
		return nil, false, nil
	}
	if stored {
		return nil, true, nil
	}

	data, found, err := s.replayStore.Recall(ctx, key)
	if err != nil {
		log.Warn("Replay store lookup failed", zap.String("key", key), zap.Error(err))
		return nil, false, ErrReplenishInFlight
	}
	if !found {
		// the holder released or expired the key between the two calls
		if stored, err = s.replayStore.Remember(ctx, key, pendingReceipt, s.cfg.Replay.TTL); err == nil && stored {
			return nil, true, nil
		}
		return nil, false, ErrReplenishInFlight
	}
	if isPendingReceipt(data) {
		return nil, false, ErrReplenishInFlight
	}

	resp, err := decodeReceipt(data)
	if err != nil {
		return nil, false, err
	}
	resp.Replayed = true
	return resp, false, nil
}

func (s *PackagingService) releaseReplay(ctx context.Context, key string) {
	if err := s.replayStore.Forget(ctx, key); err != nil {
		logger.For(ctx, s.logger).Warn("Failed to release replay key", zap.String("key", key), zap.Error(err))
	}
}

func (s *PackagingService) rememberReceipt(ctx context.Context, key string, resp *ReplenishResponse) {
	log := logger.For(ctx, s.logger)
	data, err := encodeReceipt(resp)
	if err != nil {
		log.Error("Failed to encode replenish receipt", zap.Error(err))
		return
	}
	if err := s.replayStore.Store(ctx, key, data, s.cfg.Replay.TTL); err != nil {
		log.Warn("Failed to store replenish receipt", zap.Error(err))
	}
}
