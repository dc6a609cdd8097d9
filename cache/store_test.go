package cache_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patchwell/ziptable/cache"
)

func TestStoreGet(t *testing.T) {
	t.Parallel()

	var fetches atomic.Int32
	store, err := cache.New(func(_ context.Context, url string) ([]byte, error) {
		fetches.Add(1)
		return []byte("payload for " + url), nil
	})
	require.NoError(t, err)

	data, err := store.Get(context.Background(), "http://example.test/a.zip")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload for http://example.test/a.zip"), data)

	// Second request is served from memory.
	data, err = store.Get(context.Background(), "http://example.test/a.zip")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload for http://example.test/a.zip"), data)
	assert.Equal(t, int32(1), fetches.Load())
}

func TestStoreGetErrorNotCached(t *testing.T) {
	t.Parallel()

	var fetches atomic.Int32
	fetchErr := errors.New("boom")
	store, err := cache.New(func(_ context.Context, _ string) ([]byte, error) {
		if fetches.Add(1) == 1 {
			return nil, fetchErr
		}
		return []byte("recovered"), nil
	})
	require.NoError(t, err)

	_, err = store.Get(context.Background(), "http://example.test/flaky.zip")
	require.ErrorIs(t, err, fetchErr)

	// Failure was not cached; the next call fetches again and succeeds.
	data, err := store.Get(context.Background(), "http://example.test/flaky.zip")
	require.NoError(t, err)
	assert.Equal(t, []byte("recovered"), data)
	assert.Equal(t, int32(2), fetches.Load())
}

func TestStoreSingleflight(t *testing.T) {
	t.Parallel()

	var fetches atomic.Int32
	store, err := cache.New(func(_ context.Context, _ string) ([]byte, error) {
		fetches.Add(1)
		time.Sleep(50 * time.Millisecond)
		return []byte("slow payload"), nil
	})
	require.NoError(t, err)

	const callers = 8
	var wg sync.WaitGroup
	for c := 0; c < callers; c++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			data, err := store.Get(context.Background(), "http://example.test/slow.zip")
			assert.NoError(t, err)
			assert.Equal(t, []byte("slow payload"), data)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), fetches.Load(), "concurrent gets must collapse into one fetch")
}

func TestStoreEviction(t *testing.T) {
	t.Parallel()

	var fetches atomic.Int32
	store, err := cache.New(func(_ context.Context, url string) ([]byte, error) {
		fetches.Add(1)
		return []byte(url), nil
	}, cache.WithCapacity(1))
	require.NoError(t, err)

	ctx := context.Background()
	_, err = store.Get(ctx, "http://example.test/one.zip")
	require.NoError(t, err)
	_, err = store.Get(ctx, "http://example.test/two.zip")
	require.NoError(t, err)
	assert.Equal(t, 1, store.Len())

	// one.zip was evicted and must be fetched again.
	_, err = store.Get(ctx, "http://example.test/one.zip")
	require.NoError(t, err)
	assert.Equal(t, int32(3), fetches.Load())
}

func TestStoreBadCapacity(t *testing.T) {
	t.Parallel()

	_, err := cache.New(func(_ context.Context, _ string) ([]byte, error) {
		return nil, nil
	}, cache.WithCapacity(0))
	require.Error(t, err)
}
