// Package storagetest holds behaviour checks shared by every KeyValueStorage backend.
package storagetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/stockscan/internal/interfaces"
)

// RunKVStorageTests exercises the KeyValueStorage contract against a fresh
// store returned by newStore for every subtest.
func RunKVStorageTests(t *testing.T, newStore func(t *testing.T) interfaces.KeyValueStorage) {
	t.Run("set and get", func(t *testing.T) {
		storage := newStore(t)
		ctx := context.Background()

		require.NoError(t, storage.Set(ctx, "alphaVantageApiKey", "demo", "Alpha Vantage API key"))

		value, err := storage.Get(ctx, "alphaVantageApiKey")
		require.NoError(t, err)
		assert.Equal(t, "demo", value)

		pair, err := storage.GetPair(ctx, "alphaVantageApiKey")
		require.NoError(t, err)
		assert.Equal(t, "Alpha Vantage API key", pair.Description)
		assert.False(t, pair.CreatedAt.IsZero())
		assert.False(t, pair.UpdatedAt.IsZero())
	})

	t.Run("missing key", func(t *testing.T) {
		storage := newStore(t)
		ctx := context.Background()

		_, err := storage.Get(ctx, "nope")
		assert.True(t, errors.Is(err, interfaces.ErrKeyNotFound))

		_, err = storage.GetPair(ctx, "nope")
		assert.True(t, errors.Is(err, interfaces.ErrKeyNotFound))

		err = storage.Delete(ctx, "nope")
		assert.True(t, errors.Is(err, interfaces.ErrKeyNotFound))
	})

	t.Run("keys are case sensitive and verbatim", func(t *testing.T) {
		storage := newStore(t)
		ctx := context.Background()

		require.NoError(t, storage.Set(ctx, "symbolData:IBM", "upper", ""))
		require.NoError(t, storage.Set(ctx, "symbolData:ibm", "lower", ""))
		require.NoError(t, storage.Set(ctx, " symbolData:IBM", "padded", ""))

		value, err := storage.Get(ctx, "symbolData:IBM")
		require.NoError(t, err)
		assert.Equal(t, "upper", value)

		value, err = storage.Get(ctx, "symbolData:ibm")
		require.NoError(t, err)
		assert.Equal(t, "lower", value)

		value, err = storage.Get(ctx, " symbolData:IBM")
		require.NoError(t, err)
		assert.Equal(t, "padded", value)
	})

	t.Run("update preserves created at", func(t *testing.T) {
		storage := newStore(t)
		ctx := context.Background()

		require.NoError(t, storage.Set(ctx, "k", "v1", "first"))
		first, err := storage.GetPair(ctx, "k")
		require.NoError(t, err)

		time.Sleep(5 * time.Millisecond)
		require.NoError(t, storage.Set(ctx, "k", "v2", "second"))
		second, err := storage.GetPair(ctx, "k")
		require.NoError(t, err)

		assert.Equal(t, "v2", second.Value)
		assert.Equal(t, "second", second.Description)
		assert.True(t, first.CreatedAt.Equal(second.CreatedAt))
		assert.True(t, second.UpdatedAt.After(first.UpdatedAt))
	})

	t.Run("delete", func(t *testing.T) {
		storage := newStore(t)
		ctx := context.Background()

		require.NoError(t, storage.Set(ctx, "k", "v", ""))
		require.NoError(t, storage.Delete(ctx, "k"))

		_, err := storage.Get(ctx, "k")
		assert.True(t, errors.Is(err, interfaces.ErrKeyNotFound))
	})

	t.Run("list by prefix", func(t *testing.T) {
		storage := newStore(t)
		ctx := context.Background()

		require.NoError(t, storage.Set(ctx, "symbolData:MSFT", "{}", ""))
		require.NoError(t, storage.Set(ctx, "symbolData:IBM", "{}", ""))
		require.NoError(t, storage.Set(ctx, "symbolDataTimestamp:IBM", "1", ""))
		require.NoError(t, storage.Set(ctx, "searchSymbolCache_v1", "{}", ""))
		require.NoError(t, storage.Set(ctx, "symbolData.x", "{}", ""))

		pairs, err := storage.ListByPrefix(ctx, "symbolData:")
		require.NoError(t, err)
		require.Len(t, pairs, 2)
		assert.Equal(t, "symbolData:IBM", pairs[0].Key)
		assert.Equal(t, "symbolData:MSFT", pairs[1].Key)
	})

	t.Run("delete all", func(t *testing.T) {
		storage := newStore(t)
		ctx := context.Background()

		require.NoError(t, storage.Set(ctx, "alphaVantageApiKey", "key", ""))
		require.NoError(t, storage.Set(ctx, "symbolData:IBM", "{}", ""))
		require.NoError(t, storage.Set(ctx, "symbolDataTimestamp:IBM", "1", ""))

		require.NoError(t, storage.DeleteAll(ctx))

		_, err := storage.Get(ctx, "alphaVantageApiKey")
		assert.ErrorIs(t, err, interfaces.ErrKeyNotFound)
		pairs, err := storage.ListByPrefix(ctx, "symbolData")
		require.NoError(t, err)
		assert.Empty(t, pairs)

		// Deleting from an empty store is not an error
		require.NoError(t, storage.DeleteAll(ctx))
	})
}
