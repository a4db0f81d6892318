package event

import (
	"context"
	"testing"

	"github.com/goodsdist/backend/internal/domain/packaging"
	"github.com/goodsdist/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newPackagingRecord(t *testing.T) *packaging.ProductPackaging {
	t.Helper()
	p, err := packaging.NewProductPackaging(uuid.New(), "Soda", nil, []packaging.LayerInput{
		{Quantity: "1", Unit: "CTN"},
		{Quantity: "24", Unit: "PCS"},
	}, false)
	require.NoError(t, err)
	return p
}

func TestPackagingAuditHandler(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	bus := NewInMemoryEventBus(zap.NewNop())
	bus.Subscribe(NewPackagingAuditHandler(zap.New(core)))

	p := newPackagingRecord(t)
	_, err := p.Replenish(packaging.StockMap{1: 30})
	require.NoError(t, err)

	require.NoError(t, bus.Publish(context.Background(), p.GetDomainEvents()...))

	entries := logs.FilterMessage("packaging event").All()
	require.Len(t, entries, 2)

	created := entries[0].ContextMap()
	assert.Equal(t, packaging.EventTypePackagingCreated, created["event_type"])
	assert.Equal(t, "CTN", created["supplier_unit"])
	assert.Equal(t, int64(24), created["pieces_per_master"])

	replenished := entries[1].ContextMap()
	assert.Equal(t, packaging.EventTypePackagingStockReplenished, replenished["event_type"])
	assert.Equal(t, int64(30), replenished["added_pieces"])
}

func TestReplenishmentMetricsHandler(t *testing.T) {
	handler := NewReplenishmentMetricsHandler(telemetry.NewNoopPackagingMetrics())
	assert.Equal(t, []string{packaging.EventTypePackagingStockReplenished}, handler.EventTypes())

	p := newPackagingRecord(t)
	_, err := p.Replenish(packaging.StockMap{0: 1})
	require.NoError(t, err)

	for _, e := range p.GetDomainEvents() {
		assert.NoError(t, handler.Handle(context.Background(), e))
	}
}
