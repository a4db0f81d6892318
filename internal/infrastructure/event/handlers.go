package event

import (
	"context"

	"github.com/goodsdist/backend/internal/domain/packaging"
	"github.com/goodsdist/backend/internal/domain/shared"
	"github.com/goodsdist/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// PackagingAuditHandler writes one structured log line per packaging event.
type PackagingAuditHandler struct {
	logger *zap.Logger
}

// NewPackagingAuditHandler creates a new PackagingAuditHandler
func NewPackagingAuditHandler(logger *zap.Logger) *PackagingAuditHandler {
	return &PackagingAuditHandler{logger: logger.Named("packaging.audit")}
}

// EventTypes returns nil so the handler sees every event.
func (h *PackagingAuditHandler) EventTypes() []string {
	return nil
}

// Handle logs the event with its type-specific fields.
func (h *PackagingAuditHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	fields := []zap.Field{
		zap.String("event_type", event.EventType()),
		zap.String("aggregate_id", event.AggregateID().String()),
		zap.String("tenant_id", event.TenantID().String()),
	}

	switch e := event.(type) {
	case *packaging.PackagingCreatedEvent:
		fields = append(fields,
			zap.String("name", e.Name),
			zap.String("supplier_unit", e.SupplierUnit),
			zap.Int64("pieces_per_master", e.TotalPiecesPerMaster),
		)
	case *packaging.PackagingLayersReplacedEvent:
		fields = append(fields,
			zap.Int("layers", e.LayerCount),
			zap.Int64("pieces_per_master", e.TotalPiecesPerMaster),
		)
	case *packaging.PackagingStockReplenishedEvent:
		fields = append(fields,
			zap.Int64("added_pieces", e.AddedPieces),
			zap.Int64("total_pieces", e.TotalPieces),
		)
	case *packaging.PackagingPricesRecomputedEvent:
		fields = append(fields, zap.Ints("repriced_layers", e.RepricedLayers))
	}

	h.logger.Info("packaging event", fields...)
	return nil
}

// ReplenishmentMetricsHandler counts replenished pieces.
type ReplenishmentMetricsHandler struct {
	metrics *telemetry.PackagingMetrics
}

// NewReplenishmentMetricsHandler creates a new ReplenishmentMetricsHandler
func NewReplenishmentMetricsHandler(metrics *telemetry.PackagingMetrics) *ReplenishmentMetricsHandler {
	return &ReplenishmentMetricsHandler{metrics: metrics}
}

// EventTypes returns the replenishment event type.
func (h *ReplenishmentMetricsHandler) EventTypes() []string {
	return []string{packaging.EventTypePackagingStockReplenished}
}

// Handle records the pieces added by a replenishment.
func (h *ReplenishmentMetricsHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	if e, ok := event.(*packaging.PackagingStockReplenishedEvent); ok {
		h.metrics.RecordReplenished(ctx, e.TenantID(), e.AddedPieces)
	}
	return nil
}

var (
	_ shared.EventHandler = (*PackagingAuditHandler)(nil)
	_ shared.EventHandler = (*ReplenishmentMetricsHandler)(nil)
)
