package event

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/goodsdist/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testEvent struct {
	shared.BaseDomainEvent
}

func newTestEvent(eventType string) *testEvent {
	return &testEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "TestAggregate", uuid.New(), uuid.New()),
	}
}

type testHandler struct {
	mu         sync.Mutex
	eventTypes []string
	handled    []shared.DomainEvent
	err        error
	panicWith  any
}

func newTestHandler(eventTypes ...string) *testHandler {
	return &testHandler{eventTypes: eventTypes}
}

func (h *testHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	h.handled = append(h.handled, event)
	h.mu.Unlock()
	if h.panicWith != nil {
		panic(h.panicWith)
	}
	return h.err
}

func (h *testHandler) EventTypes() []string {
	return h.eventTypes
}

func (h *testHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handled)
}

func TestInMemoryEventBus_Publish(t *testing.T) {
	ctx := context.Background()

	t.Run("delivers to type handlers and catch-all handlers", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		typed := newTestHandler("Created")
		other := newTestHandler("Deleted")
		catchAll := newTestHandler()
		bus.Subscribe(typed)
		bus.Subscribe(other)
		bus.Subscribe(catchAll)

		require.NoError(t, bus.Publish(ctx, newTestEvent("Created"), newTestEvent("Created")))

		assert.Equal(t, 2, typed.count())
		assert.Equal(t, 0, other.count())
		assert.Equal(t, 2, catchAll.count())
	})

	t.Run("explicit types override the handler's own", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		handler := newTestHandler("Created")
		bus.Subscribe(handler, "Deleted")

		require.NoError(t, bus.Publish(ctx, newTestEvent("Created"), newTestEvent("Deleted")))
		assert.Equal(t, 1, handler.count())
	})

	t.Run("failing handler does not stop the others", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		failing := newTestHandler("Created")
		failing.err = errors.New("boom")
		healthy := newTestHandler("Created")
		bus.Subscribe(failing)
		bus.Subscribe(healthy)

		err := bus.Publish(ctx, newTestEvent("Created"))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "boom")
		assert.Equal(t, 1, healthy.count())
	})

	t.Run("panicking handler becomes an error", func(t *testing.T) {
		bus := NewInMemoryEventBus(nil)
		panicking := newTestHandler("Created")
		panicking.panicWith = "bad state"
		healthy := newTestHandler("Created")
		bus.Subscribe(panicking)
		bus.Subscribe(healthy)

		err := bus.Publish(ctx, newTestEvent("Created"))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "bad state")
		assert.Equal(t, 1, healthy.count())
	})
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	ctx := context.Background()
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := newTestHandler("Created")
	catchAll := newTestHandler()
	bus.Subscribe(handler)
	bus.Subscribe(catchAll)

	require.NoError(t, bus.Publish(ctx, newTestEvent("Created")))
	bus.Unsubscribe(handler)
	bus.Unsubscribe(catchAll)
	require.NoError(t, bus.Publish(ctx, newTestEvent("Created")))

	assert.Equal(t, 1, handler.count())
	assert.Equal(t, 1, catchAll.count())
	assert.Empty(t, bus.registry.HandlersFor("Created"))
}

func TestInMemoryEventBus_StartStop(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	ctx := context.Background()
	require.NoError(t, bus.Start(ctx))
	require.NoError(t, bus.Stop(ctx))
}
