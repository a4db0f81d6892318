package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// ErrMeterNil is returned when no meter is supplied.
var ErrMeterNil = errors.New("packaging metrics: meter cannot be nil")

// PackagingMetrics records how the packaging engine is used: recomputes,
// stock carries, auto-priced layers, replenished pieces, supplier-parser
// outcomes and idempotent replays.
type PackagingMetrics struct {
	recomputes       *Counter
	recomputeTime    *Histogram
	carries          *Counter
	repricedLayers   *Counter
	replenished      *Counter
	parserOutcomes   *Counter
	replayedRequests *Counter
}

// NewPackagingMetrics registers the packaging instruments on meter.
func NewPackagingMetrics(meter metric.Meter) (*PackagingMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	m := &PackagingMetrics{}
	var err error

	if m.recomputes, err = NewCounter(meter, "packaging_recomputes_total",
		"Mutations that recomputed derived prices and stock", "{recompute}"); err != nil {
		return nil, err
	}
	if m.recomputeTime, err = NewHistogram(meter, "packaging_recompute_duration_seconds",
		"Time spent applying a packaging mutation", "s", SmallDurationBuckets...); err != nil {
		return nil, err
	}
	if m.carries, err = NewCounter(meter, "packaging_stock_carries_total",
		"Layers whose loose stock was carried into an outer layer", "{layer}"); err != nil {
		return nil, err
	}
	if m.repricedLayers, err = NewCounter(meter, "packaging_repriced_layers_total",
		"Layer prices rewritten by auto-calculate", "{layer}"); err != nil {
		return nil, err
	}
	if m.replenished, err = NewCounter(meter, "packaging_replenished_pieces_total",
		"Retail pieces added through replenishment", "{piece}"); err != nil {
		return nil, err
	}
	if m.parserOutcomes, err = NewCounter(meter, "supplier_parser_results_total",
		"Supplier descriptions parsed, by recognized packaging type", "{description}"); err != nil {
		return nil, err
	}
	if m.replayedRequests, err = NewCounter(meter, "packaging_replayed_requests_total",
		"Requests answered from the replay store", "{request}"); err != nil {
		return nil, err
	}
	return m, nil
}

// NewNoopPackagingMetrics returns metrics backed by the no-op meter.
func NewNoopPackagingMetrics() *PackagingMetrics {
	m, _ := NewPackagingMetrics(noop.NewMeterProvider().Meter("noop"))
	return m
}

// RecordRecompute records one mutation and what it changed.
func (m *PackagingMetrics) RecordRecompute(ctx context.Context, tenantID uuid.UUID, operation string, carried, repriced int, elapsed time.Duration) {
	tenant := AttrTenantID.String(tenantID.String())
	op := AttrOperation.String(operation)

	m.recomputes.Inc(ctx, tenant, op)
	m.recomputeTime.RecordDuration(ctx, elapsed, op)
	if carried > 0 {
		m.carries.Add(ctx, int64(carried), tenant, op)
	}
	if repriced > 0 {
		m.repricedLayers.Add(ctx, int64(repriced), tenant, op)
	}
}

// RecordReplenished records retail pieces added to stock.
func (m *PackagingMetrics) RecordReplenished(ctx context.Context, tenantID uuid.UUID, pieces int64) {
	if pieces <= 0 {
		return
	}
	m.replenished.Add(ctx, pieces, AttrTenantID.String(tenantID.String()))
}

// RecordParse records the packaging type a supplier description resolved to.
func (m *PackagingMetrics) RecordParse(ctx context.Context, packagingType string) {
	m.parserOutcomes.Inc(ctx, AttrPackagingType.String(packagingType))
}

// RecordReplay records a request answered from the replay store.
func (m *PackagingMetrics) RecordReplay(ctx context.Context, operation string) {
	m.replayedRequests.Inc(ctx, AttrOperation.String(operation))
}
