package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smperez989-stack/IWA-SMDashboard/internal/shared/testutil"
	"github.com/smperez989-stack/IWA-SMDashboard/pkg/contracts/domain"
)

func dataset(key string) *domain.Dataset {
	return &domain.Dataset{Key: key, Source: key + ".xlsx", Networks: []string{"Facebook"}}
}

func TestDatasetKey(t *testing.T) {
	a := DatasetKey([]byte("workbook-a"))
	b := DatasetKey([]byte("workbook-b"))

	assert.Len(t, a, 64)
	assert.Equal(t, a, DatasetKey([]byte("workbook-a")))
	assert.NotEqual(t, a, b)
}

func TestDatasetCache_LoadAndHit(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	cache := NewDatasetCache(logger)
	ctx := context.Background()

	var calls int
	loader := func(context.Context) (*domain.Dataset, error) {
		calls++
		return dataset("a"), nil
	}

	ds, cached, err := cache.Load(ctx, "a", loader)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, "a", ds.Key)

	ds, cached, err = cache.Load(ctx, "a", loader)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, "a", ds.Key)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "a", cache.CurrentKey())
}

func TestDatasetCache_NewKeyEvictsOthers(t *testing.T) {
	cache := NewDatasetCache(nil)
	ctx := context.Background()

	_, _, err := cache.Load(ctx, "a", func(context.Context) (*domain.Dataset, error) { return dataset("a"), nil })
	require.NoError(t, err)
	_, _, err = cache.Load(ctx, "b", func(context.Context) (*domain.Dataset, error) { return dataset("b"), nil })
	require.NoError(t, err)

	assert.Equal(t, 1, cache.Len())
	_, ok := cache.Get("a")
	assert.False(t, ok)
	assert.Equal(t, "b", cache.Current().Key)
}

func TestDatasetCache_FailedLoadIsNotCached(t *testing.T) {
	cache := NewDatasetCache(nil)
	ctx := context.Background()
	boom := errors.New("bad workbook")

	_, _, err := cache.Load(ctx, "a", func(context.Context) (*domain.Dataset, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, cache.Current())

	ds, cached, err := cache.Load(ctx, "a", func(context.Context) (*domain.Dataset, error) { return dataset("a"), nil })
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, "a", ds.Key)
}

func TestDatasetCache_ConcurrentLoadsShareOneParse(t *testing.T) {
	cache := NewDatasetCache(nil)
	ctx := context.Background()

	var calls atomic.Int32
	release := make(chan struct{})
	loader := func(context.Context) (*domain.Dataset, error) {
		calls.Add(1)
		<-release
		return dataset("a"), nil
	}

	const callers = 8
	var wg sync.WaitGroup
	results := make([]*domain.Dataset, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ds, _, err := cache.Load(ctx, "a", loader)
			assert.NoError(t, err)
			results[i] = ds
		}(i)
	}

	assert.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, ds := range results {
		assert.Same(t, results[0], ds)
	}
}

func TestDatasetCache_Invalidate(t *testing.T) {
	cache := NewDatasetCache(nil)
	_, _, err := cache.Load(context.Background(), "a", func(context.Context) (*domain.Dataset, error) { return dataset("a"), nil })
	require.NoError(t, err)

	cache.Invalidate()

	assert.Nil(t, cache.Current())
	assert.Empty(t, cache.CurrentKey())
	assert.Zero(t, cache.Len())
}
