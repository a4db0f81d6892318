package cache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryReplayStore_Remember(t *testing.T) {
	store := NewInMemoryReplayStore()
	defer store.Close()

	ctx := context.Background()

	t.Run("stores a new key", func(t *testing.T) {
		isNew, err := store.Remember(ctx, "key-1", []byte("receipt"), time.Hour)
		require.NoError(t, err)
		assert.True(t, isNew)
	})

	t.Run("keeps the first payload", func(t *testing.T) {
		_, err := store.Remember(ctx, "key-2", []byte("first"), time.Hour)
		require.NoError(t, err)

		isNew, err := store.Remember(ctx, "key-2", []byte("second"), time.Hour)
		require.NoError(t, err)
		assert.False(t, isNew)

		payload, found, err := store.Recall(ctx, "key-2")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, []byte("first"), payload)
	})

	t.Run("allows reuse after expiration", func(t *testing.T) {
		_, err := store.Remember(ctx, "key-3", []byte("old"), 10*time.Millisecond)
		require.NoError(t, err)

		time.Sleep(20 * time.Millisecond)

		isNew, err := store.Remember(ctx, "key-3", []byte("new"), time.Hour)
		require.NoError(t, err)
		assert.True(t, isNew)
	})

	t.Run("stored payload is a copy", func(t *testing.T) {
		payload := []byte("abc")
		_, err := store.Remember(ctx, "key-4", payload, time.Hour)
		require.NoError(t, err)
		payload[0] = 'x'

		got, _, err := store.Recall(ctx, "key-4")
		require.NoError(t, err)
		assert.Equal(t, []byte("abc"), got)
	})
}

func TestInMemoryReplayStore_StoreAndForget(t *testing.T) {
	store := NewInMemoryReplayStore()
	defer store.Close()

	ctx := context.Background()

	t.Run("store overwrites a reservation", func(t *testing.T) {
		isNew, err := store.Remember(ctx, "key-1", []byte("pending"), time.Hour)
		require.NoError(t, err)
		require.True(t, isNew)

		require.NoError(t, store.Store(ctx, "key-1", []byte("receipt"), time.Hour))

		payload, found, err := store.Recall(ctx, "key-1")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, []byte("receipt"), payload)
	})

	t.Run("forget frees the key", func(t *testing.T) {
		_, err := store.Remember(ctx, "key-2", []byte("pending"), time.Hour)
		require.NoError(t, err)

		require.NoError(t, store.Forget(ctx, "key-2"))

		isNew, err := store.Remember(ctx, "key-2", []byte("again"), time.Hour)
		require.NoError(t, err)
		assert.True(t, isNew)
	})

	t.Run("forget of an unknown key is a no-op", func(t *testing.T) {
		assert.NoError(t, store.Forget(ctx, "missing"))
	})
}

func TestInMemoryReplayStore_Recall(t *testing.T) {
	store := NewInMemoryReplayStore()
	defer store.Close()

	ctx := context.Background()

	t.Run("unknown key", func(t *testing.T) {
		payload, found, err := store.Recall(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, found)
		assert.Nil(t, payload)
	})

	t.Run("expired key", func(t *testing.T) {
		_, err := store.Remember(ctx, "short", []byte("x"), 10*time.Millisecond)
		require.NoError(t, err)

		time.Sleep(20 * time.Millisecond)

		_, found, err := store.Recall(ctx, "short")
		require.NoError(t, err)
		assert.False(t, found)
	})
}

func TestInMemoryReplayStore_Concurrency(t *testing.T) {
	store := NewInMemoryReplayStore()
	defer store.Close()

	ctx := context.Background()
	var winners atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			isNew, err := store.Remember(ctx, "shared-key", []byte(fmt.Sprintf("payload-%d", i)), time.Hour)
			if err == nil && isNew {
				winners.Add(1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), winners.Load())
}

func TestInMemoryReplayStore_Cleanup(t *testing.T) {
	store := newInMemoryReplayStore(10 * time.Millisecond)
	defer store.Close()

	ctx := context.Background()
	_, err := store.Remember(ctx, "gone", []byte("x"), 5*time.Millisecond)
	require.NoError(t, err)
	_, err = store.Remember(ctx, "kept", []byte("y"), time.Hour)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return store.Size() == 1
	}, time.Second, 10*time.Millisecond)
}

func TestInMemoryReplayStore_CloseIsIdempotent(t *testing.T) {
	store := NewInMemoryReplayStore()
	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}
